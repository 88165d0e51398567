package decodethread

import (
	"time"
)

type Config struct {
	// Interval is the pause between two iterations.
	Interval time.Duration

	// AudioSlack is how far ahead of the clock the audio is decoded.
	AudioSlack time.Duration

	ErrorQueueSize uint
}

func DefaultConfig() Config {
	return Config{
		Interval:       5 * time.Millisecond,
		AudioSlack:     100 * time.Millisecond,
		ErrorQueueSize: 1,
	}
}
