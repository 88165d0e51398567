package types

import (
	"context"
	"fmt"
)

type AudioSinkState int

const (
	AudioSinkStateStopped = AudioSinkState(iota)
	AudioSinkStatePlaying
	AudioSinkStatePaused
)

func (s AudioSinkState) String() string {
	switch s {
	case AudioSinkStateStopped:
		return "stopped"
	case AudioSinkStatePlaying:
		return "playing"
	case AudioSinkStatePaused:
		return "paused"
	default:
		return fmt.Sprintf("unknown_audio_sink_state_%d", int(s))
	}
}

// AudioSink is a push-buffer audio output. Submitted buffers contain
// interleaved PCM in the format announced by the decoder; the sink
// takes the ownership of the slice.
type AudioSink interface {
	Submit(ctx context.Context, pcm []byte) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Stop(ctx context.Context) error
	State() AudioSinkState
}
