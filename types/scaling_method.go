package types

import (
	"fmt"
	"strings"
)

// ScalingMethod is the pixel interpolation used when converting decoded
// video frames into the output resolution.
type ScalingMethod int

const (
	ScalingMethodDefault = ScalingMethod(iota)
	ScalingMethodFastBilinear
	ScalingMethodBilinear
	ScalingMethodBicubic
	ScalingMethodPoint
	ScalingMethodArea
	ScalingMethodBicubicLinear
	ScalingMethodGauss
	ScalingMethodSinc
	ScalingMethodLanczos
	ScalingMethodSpline
	ScalingMethodExperimental
	endOfScalingMethod
)

func ScalingMethods() []ScalingMethod {
	result := make([]ScalingMethod, 0, int(endOfScalingMethod))
	for m := ScalingMethodDefault; m < endOfScalingMethod; m++ {
		result = append(result, m)
	}
	return result
}

func (m ScalingMethod) String() string {
	switch m {
	case ScalingMethodDefault:
		return "default"
	case ScalingMethodFastBilinear:
		return "fast-bilinear"
	case ScalingMethodBilinear:
		return "bilinear"
	case ScalingMethodBicubic:
		return "bicubic"
	case ScalingMethodPoint:
		return "point"
	case ScalingMethodArea:
		return "area"
	case ScalingMethodBicubicLinear:
		return "bicubic-linear"
	case ScalingMethodGauss:
		return "gauss"
	case ScalingMethodSinc:
		return "sinc"
	case ScalingMethodLanczos:
		return "lanczos"
	case ScalingMethodSpline:
		return "spline"
	case ScalingMethodExperimental:
		return "experimental"
	default:
		return fmt.Sprintf("unknown_scaling_method_%d", int(m))
	}
}

func ParseScalingMethod(s string) (ScalingMethod, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.ReplaceAll(s, "_", "-")
	for _, m := range ScalingMethods() {
		if m.String() == s {
			return m, nil
		}
	}
	return ScalingMethodDefault, fmt.Errorf("unknown scaling method '%s'", s)
}

// Set implements pflag.Value.
func (m *ScalingMethod) Set(s string) error {
	v, err := ParseScalingMethod(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Type implements pflag.Value.
func (m *ScalingMethod) Type() string {
	return "scaling-method"
}

func (m ScalingMethod) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *ScalingMethod) UnmarshalText(b []byte) error {
	return m.Set(string(b))
}
