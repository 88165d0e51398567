package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/xaionaro-go/avplayback/logger"
	"github.com/xaionaro-go/avplayback/types"
)

// pcmSink writes the submitted audio into a stream as is (raw interleaved
// PCM); while it is not playing the audio is discarded.
type pcmSink struct {
	locker  sync.Mutex
	output  io.Writer
	state   types.AudioSinkState
	written uint64
	dropped uint64
}

var _ types.AudioSink = (*pcmSink)(nil)

func newPCMSink(output io.Writer) *pcmSink {
	return &pcmSink{output: output}
}

func (s *pcmSink) String() string {
	s.locker.Lock()
	defer s.locker.Unlock()
	return fmt.Sprintf("PCMSink(%s, written:%s, dropped:%s)", s.state, humanize.IBytes(s.written), humanize.IBytes(s.dropped))
}

func (s *pcmSink) Submit(ctx context.Context, pcm []byte) error {
	s.locker.Lock()
	defer s.locker.Unlock()
	if s.state == types.AudioSinkStatePaused {
		logger.Tracef(ctx, "the sink is paused, dropping %d bytes", len(pcm))
		s.dropped += uint64(len(pcm))
		return nil
	}
	if s.output == nil {
		s.written += uint64(len(pcm))
		return nil
	}
	n, err := s.output.Write(pcm)
	s.written += uint64(n)
	if err != nil {
		return fmt.Errorf("unable to write %d bytes of audio: %w", len(pcm), err)
	}
	return nil
}

func (s *pcmSink) setState(ctx context.Context, state types.AudioSinkState) error {
	s.locker.Lock()
	defer s.locker.Unlock()
	logger.Debugf(ctx, "audio sink: %s -> %s", s.state, state)
	s.state = state
	return nil
}

func (s *pcmSink) Play(ctx context.Context) error {
	return s.setState(ctx, types.AudioSinkStatePlaying)
}

func (s *pcmSink) Pause(ctx context.Context) error {
	return s.setState(ctx, types.AudioSinkStatePaused)
}

func (s *pcmSink) Stop(ctx context.Context) error {
	return s.setState(ctx, types.AudioSinkStateStopped)
}

func (s *pcmSink) State() types.AudioSinkState {
	s.locker.Lock()
	defer s.locker.Unlock()
	return s.state
}
