package main

import (
	"sync"
	"time"

	"github.com/xaionaro-go/avplayback/types"
)

// wallClock is a playback clock driven by the system monotonic time.
type wallClock struct {
	locker    sync.Mutex
	state     types.PlaybackState
	startedAt time.Time
	offset    time.Duration
}

var _ types.Clock = (*wallClock)(nil)

func (c *wallClock) PlaybackState() types.PlaybackState {
	c.locker.Lock()
	defer c.locker.Unlock()
	return c.state
}

func (c *wallClock) Position() time.Duration {
	c.locker.Lock()
	defer c.locker.Unlock()
	return c.positionLocked()
}

func (c *wallClock) positionLocked() time.Duration {
	if c.state != types.PlaybackStatePlaying {
		return c.offset
	}
	return c.offset + time.Since(c.startedAt)
}

func (c *wallClock) Play() {
	c.locker.Lock()
	defer c.locker.Unlock()
	if c.state == types.PlaybackStatePlaying {
		return
	}
	c.startedAt = time.Now()
	c.state = types.PlaybackStatePlaying
}

func (c *wallClock) Pause() {
	c.locker.Lock()
	defer c.locker.Unlock()
	c.offset = c.positionLocked()
	c.state = types.PlaybackStatePaused
}

func (c *wallClock) Stop() {
	c.locker.Lock()
	defer c.locker.Unlock()
	c.offset = 0
	c.state = types.PlaybackStateStopped
}
