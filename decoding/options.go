package decoding

import (
	"fmt"
	"time"

	"github.com/xaionaro-go/avplayback/types"
)

// Options are the tunables of a Context; they are fixed once
// the Context is created.
type Options struct {
	VideoPacketQueueCapacity int `yaml:"video_packet_queue_capacity"`
	AudioPacketQueueCapacity int `yaml:"audio_packet_queue_capacity"`

	// VideoQueueSizeThreshold is the amount of packets read ahead into the
	// video queue, and the amount of decoded frames kept ahead of the
	// current one.
	VideoQueueSizeThreshold int `yaml:"video_queue_size_threshold"`

	// AudioQueueSizeThreshold is the amount of packets read ahead into the
	// audio queue.
	AudioQueueSizeThreshold int `yaml:"audio_queue_size_threshold"`

	ScalingMethod types.ScalingMethod `yaml:"scaling_method"`

	// ExtraAudioBuffering is how far ahead of the clock the audio is decoded.
	ExtraAudioBuffering time.Duration `yaml:"extra_audio_buffering"`

	PacketOrder types.PacketOrder `yaml:"packet_order"`

	// VideoOutput is the resolution of the output frames; zero means the
	// native resolution of the stream.
	VideoOutput types.Resolution `yaml:"video_output"`

	AudioSampleRate int `yaml:"audio_sample_rate"`

	FramePoolCollectThreshold  int `yaml:"frame_pool_collect_threshold"`
	PacketPoolCollectThreshold int `yaml:"packet_pool_collect_threshold"`

	// DecodeInterval is the pause between two advances of the decode thread.
	DecodeInterval time.Duration `yaml:"decode_interval"`
}

func DefaultOptions() Options {
	return Options{
		VideoPacketQueueCapacity:   256,
		AudioPacketQueueCapacity:   512,
		VideoQueueSizeThreshold:    4,
		AudioQueueSizeThreshold:    16,
		ScalingMethod:              types.ScalingMethodDefault,
		ExtraAudioBuffering:        100 * time.Millisecond,
		PacketOrder:                types.PacketOrderDTSPTS,
		AudioSampleRate:            44100,
		FramePoolCollectThreshold:  16,
		PacketPoolCollectThreshold: 1024,
		DecodeInterval:             5 * time.Millisecond,
	}
}

func (opts Options) Validate() error {
	if opts.VideoQueueSizeThreshold < 1 {
		return fmt.Errorf("video_queue_size_threshold is expected to be positive, but it is %d", opts.VideoQueueSizeThreshold)
	}
	if opts.AudioQueueSizeThreshold < 1 {
		return fmt.Errorf("audio_queue_size_threshold is expected to be positive, but it is %d", opts.AudioQueueSizeThreshold)
	}
	if opts.AudioSampleRate <= 0 {
		return fmt.Errorf("audio_sample_rate is expected to be positive, but it is %d", opts.AudioSampleRate)
	}
	if (opts.VideoOutput.Width == 0) != (opts.VideoOutput.Height == 0) {
		return fmt.Errorf("video_output is expected to have both dimensions set or none, but it is %s", opts.VideoOutput)
	}
	if opts.ExtraAudioBuffering < 0 {
		return fmt.Errorf("extra_audio_buffering cannot be negative: %v", opts.ExtraAudioBuffering)
	}
	return nil
}
