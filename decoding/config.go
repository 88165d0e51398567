package decoding

import (
	"context"
)

type Config struct {
	Options

	// OnEndOfStream is called (on its own goroutine) when the video stream
	// is exhausted; at most once per playback run.
	OnEndOfStream func(ctx context.Context)
}

func DefaultConfig() Config {
	return Config{
		Options: DefaultOptions(),
	}
}
