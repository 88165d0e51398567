package scaler

import (
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/avplayback/types"
)

func ScalingMethodToFlag(m types.ScalingMethod) (astiav.SoftwareScaleContextFlag, error) {
	switch m {
	case types.ScalingMethodDefault, types.ScalingMethodBicubic:
		return astiav.SoftwareScaleContextFlagBicubic, nil
	case types.ScalingMethodFastBilinear:
		return astiav.SoftwareScaleContextFlagFastBilinear, nil
	case types.ScalingMethodBilinear:
		return astiav.SoftwareScaleContextFlagBilinear, nil
	case types.ScalingMethodPoint:
		return astiav.SoftwareScaleContextFlagPoint, nil
	case types.ScalingMethodArea:
		return astiav.SoftwareScaleContextFlagArea, nil
	case types.ScalingMethodBicubicLinear:
		return astiav.SoftwareScaleContextFlagBicublin, nil
	case types.ScalingMethodGauss:
		return astiav.SoftwareScaleContextFlagGauss, nil
	case types.ScalingMethodSinc:
		return astiav.SoftwareScaleContextFlagSinc, nil
	case types.ScalingMethodLanczos:
		return astiav.SoftwareScaleContextFlagLanczos, nil
	case types.ScalingMethodSpline:
		return astiav.SoftwareScaleContextFlagSpline, nil
	case types.ScalingMethodExperimental:
		return astiav.SoftwareScaleContextFlagX, nil
	default:
		return 0, fmt.Errorf("unknown scaling method: %d", int(m))
	}
}
