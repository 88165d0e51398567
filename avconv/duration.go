// Package avconv provides conversions between libav values and Go ones.
package avconv

import (
	"math"
	"time"

	"github.com/asticode/go-astiav"
)

const (
	// see https://ffmpeg.org/doxygen/trunk/group__lavu__time.html#ga2eaefe702f95f619ea6f2d08afa01be1
	avNoPTSValue = uint64(0x8000000000000000)
)

const (
	NoDuration = time.Duration(math.MinInt64)
)

// AVTimeBase is the internal time base of libav (AV_TIME_BASE_Q).
var AVTimeBase = astiav.NewRational(1, 1000000)

func init() {
	if avNoPTSValue != uint64(any(int64(math.MinInt64)).(int64)) { // to bypass the compiler check
		panic("avNoPTSValue changed")
	}
}

func IsNoPTS(t int64) bool {
	return uint64(t) == avNoPTSValue
}

func Duration(t int64, timeBase astiav.Rational) time.Duration {
	if IsNoPTS(t) {
		return NoDuration
	}

	return time.Duration(float64(t) * timeBase.Float64() * float64(time.Second))
}

func FromDuration(d time.Duration, timeBase astiav.Rational) int64 {
	if d == NoDuration {
		return math.MinInt64 // equivalent to avNoPTSValue
	}

	return int64(d.Seconds() / timeBase.Float64())
}

// PresentationTime returns the time of the timestamp ts relatively
// to the start of the stream.
func PresentationTime(ts int64, start int64, timeBase astiav.Rational) time.Duration {
	if IsNoPTS(ts) {
		return NoDuration
	}
	return Duration(ts-start, timeBase)
}
