package types

import (
	"fmt"
)

// PlaybackState is the transport state of the player that owns the wall clock.
type PlaybackState int

const (
	PlaybackStateStopped = PlaybackState(iota)
	PlaybackStatePlaying
	PlaybackStatePaused
)

func (s PlaybackState) String() string {
	switch s {
	case PlaybackStateStopped:
		return "stopped"
	case PlaybackStatePlaying:
		return "playing"
	case PlaybackStatePaused:
		return "paused"
	default:
		return fmt.Sprintf("unknown_playback_state_%d", int(s))
	}
}
