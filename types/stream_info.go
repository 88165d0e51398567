package types

import (
	"fmt"
	"time"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/typing"
)

// StreamInfo describes a stream of an opened container.
type StreamInfo struct {
	Index        int
	MediaType    astiav.MediaType
	TimeBase     astiav.Rational
	AvgFrameRate astiav.Rational
	Duration     time.Duration

	// StartTime is in TimeBase units; unset if the container
	// does not report it.
	StartTime typing.Optional[int64]

	// CodecParameters may be nil for sources which are not backed by libav.
	CodecParameters *astiav.CodecParameters
}

func (s StreamInfo) String() string {
	return fmt.Sprintf("stream#%d(%s)", s.Index, s.MediaType)
}
