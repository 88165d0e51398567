package decoding

import (
	"context"
	"time"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/avplayback/types"
)

// Source is a demuxed container. *demuxer.Input is the canonical
// implementation.
type Source interface {
	Streams() []types.StreamInfo
	FormatName() string
	Duration() time.Duration

	// ReadPacket reads the next packet of any stream; returns io.EOF at
	// the end of the container.
	ReadPacket(ctx context.Context, pkt *astiav.Packet) error

	// SeekTo repositions all the streams at once.
	SeekTo(ctx context.Context, t time.Duration) error

	Close(ctx context.Context) error
}
