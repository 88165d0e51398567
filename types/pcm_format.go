package types

import (
	"fmt"

	"github.com/asticode/go-astiav"
)

type PCMFormat struct {
	SampleFormat  astiav.SampleFormat
	SampleRate    int
	ChannelLayout astiav.ChannelLayout
}

func (f PCMFormat) Equal(cmp PCMFormat) bool {
	return f.SampleFormat == cmp.SampleFormat &&
		f.SampleRate == cmp.SampleRate &&
		f.ChannelLayout.Equal(cmp.ChannelLayout)
}

func (f PCMFormat) Channels() int {
	return f.ChannelLayout.Channels()
}

// BytesPerSecond is the amount of bytes one second of (packed) audio
// takes in this format.
func (f PCMFormat) BytesPerSecond() int {
	return f.SampleRate * f.Channels() * f.SampleFormat.BytesPerSample()
}

func (f PCMFormat) String() string {
	return fmt.Sprintf("%s:%dHz:%s", f.SampleFormat, f.SampleRate, f.ChannelLayout)
}
