package types

import (
	"time"
)

// Clock is the playback clock owned by the player.
type Clock interface {
	PlaybackState() PlaybackState

	// Position is the current presentation time relative to the beginning
	// of the media.
	Position() time.Duration
}
