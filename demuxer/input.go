// Package demuxer provides access to the compressed packets of
// a media container opened with libavformat.
package demuxer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/davecgh/go-spew/spew"
	"github.com/facebookincubator/go-belt"
	"github.com/xaionaro-go/avplayback/avconv"
	"github.com/xaionaro-go/avplayback/logger"
	"github.com/xaionaro-go/avplayback/types"
	"github.com/xaionaro-go/secret"
	"github.com/xaionaro-go/typing"
)

type InputConfig struct {
	// CustomOptions are passed to libavformat; the key "f" forces the
	// container format.
	CustomOptions types.DictionaryItems
	OnOpened      func(context.Context, *Input) error
}

type InputID uint64

type Input struct {
	*astiav.FormatContext
	*astiav.Dictionary

	ID  InputID
	URL string

	closer  *astikit.Closer
	streams []types.StreamInfo
}

var nextInputID atomic.Uint64

// NewInputFromURL opens the container. The authKey (if any) is appended to
// the URL when opening, but never logged or included in errors.
func NewInputFromURL(
	ctx context.Context,
	urlString string,
	authKey secret.String,
	cfg InputConfig,
) (_ret *Input, _err error) {
	if urlString == "" {
		return nil, fmt.Errorf("the provided URL is empty")
	}
	ctx = belt.WithField(ctx, "url", urlString)
	logger.Debugf(ctx, "NewInputFromURL")
	defer func() { logger.Debugf(ctx, "/NewInputFromURL: %v", _err) }()

	i := &Input{
		ID:     InputID(nextInputID.Add(1)),
		URL:    urlString,
		closer: astikit.NewCloser(),
	}
	defer func() {
		if _err != nil {
			_ = i.Close(ctx)
		}
	}()

	var formatName string
	if opts := cfg.CustomOptions.Deduplicate(); len(opts) > 0 {
		i.Dictionary = astiav.NewDictionary()
		i.closer.Add(i.Dictionary.Free)
		for _, opt := range opts {
			if opt.Key == "f" {
				formatName = opt.Value
				logger.Debugf(ctx, "overriding input format to '%s'", opt.Value)
				continue
			}
			logger.Debugf(ctx, "input.Dictionary['%s'] = '%s'", opt.Key, opt.Value)
			if err := i.Dictionary.Set(opt.Key, opt.Value, 0); err != nil {
				return nil, fmt.Errorf("unable to set option '%s': %w", opt.Key, err)
			}
		}
	}

	var inputFormat *astiav.InputFormat
	if formatName != "" {
		inputFormat = astiav.FindInputFormat(formatName)
		if inputFormat == nil {
			return nil, fmt.Errorf("unable to find input format by name '%s'", formatName)
		}
		logger.Debugf(ctx, "using format '%s'", inputFormat.Name())
	}

	i.FormatContext = astiav.AllocFormatContext()
	if i.FormatContext == nil {
		return nil, fmt.Errorf("unable to allocate a format context")
	}

	urlWithSecret := urlString
	if authKey.Get() != "" {
		urlWithSecret += authKey.Get()
	}
	if err := i.FormatContext.OpenInput(urlWithSecret, inputFormat, i.Dictionary); err != nil {
		i.FormatContext.Free()
		i.FormatContext = nil
		if authKey.Get() != "" {
			return nil, fmt.Errorf("unable to open input by URL '%s<HIDDEN>': %w", urlString, err)
		}
		return nil, fmt.Errorf("unable to open input by URL '%s': %w", urlString, err)
	}
	fmtCtx := i.FormatContext
	i.closer.Add(func() {
		fmtCtx.CloseInput()
		fmtCtx.Free()
	})

	if err := i.FormatContext.FindStreamInfo(nil); err != nil {
		return nil, fmt.Errorf("unable to get stream info: %w", err)
	}

	for _, stream := range i.FormatContext.Streams() {
		info := streamInfo(stream)
		i.streams = append(i.streams, info)
		logger.Debugf(ctx, "input stream #%d: %s", stream.Index(), spew.Sdump(info))
	}

	if cfg.OnOpened != nil {
		if err := cfg.OnOpened(ctx, i); err != nil {
			return nil, fmt.Errorf("the OnOpened callback returned an error: %w", err)
		}
	}
	return i, nil
}

func streamInfo(stream *astiav.Stream) types.StreamInfo {
	codecParams := stream.CodecParameters()
	info := types.StreamInfo{
		Index:           stream.Index(),
		MediaType:       codecParams.MediaType(),
		TimeBase:        stream.TimeBase(),
		AvgFrameRate:    stream.AvgFrameRate(),
		Duration:        avconv.Duration(stream.Duration(), stream.TimeBase()),
		CodecParameters: codecParams,
	}
	if startTime := stream.StartTime(); !avconv.IsNoPTS(startTime) {
		info.StartTime = typing.Opt(startTime)
	}
	return info
}

func (i *Input) String() string {
	return fmt.Sprintf("Input(%s)", i.URL)
}

func (i *Input) Close(
	ctx context.Context,
) (_err error) {
	if i == nil || i.closer == nil {
		return nil
	}
	logger.Debugf(ctx, "Close")
	defer func() { logger.Debugf(ctx, "/Close: %v", _err) }()
	closer := i.closer
	i.closer = nil
	i.FormatContext = nil
	i.Dictionary = nil
	i.streams = nil
	return closer.Close()
}

func (i *Input) Streams() []types.StreamInfo {
	return i.streams
}

// FormatName returns the (possibly comma separated) names of the
// container format, e.g. "mov,mp4,m4a,3gp,3g2,mj2".
func (i *Input) FormatName() string {
	if i.FormatContext == nil {
		return ""
	}
	inputFormat := i.FormatContext.InputFormat()
	if inputFormat == nil {
		return ""
	}
	return inputFormat.Name()
}

func (i *Input) Duration() time.Duration {
	if i.FormatContext == nil {
		return 0
	}
	d := i.FormatContext.Duration()
	if avconv.IsNoPTS(d) || d < 0 {
		return 0
	}
	return avconv.Duration(d, avconv.AVTimeBase)
}

// Metadata returns the container-level tags (title, artist...).
func (i *Input) Metadata() map[string]string {
	result := map[string]string{}
	if i.FormatContext == nil {
		return result
	}
	dict := i.FormatContext.Metadata()
	if dict == nil {
		return result
	}
	flags := astiav.NewDictionaryFlags(astiav.DictionaryFlagIgnoreSuffix)
	var entry *astiav.DictionaryEntry
	for {
		entry = dict.Get("", entry, flags)
		if entry == nil {
			break
		}
		result[strings.ToLower(entry.Key())] = entry.Value()
	}
	return result
}

// ReadPacket reads the next packet of any stream; returns io.EOF
// at the end of the container.
func (i *Input) ReadPacket(
	ctx context.Context,
	pkt *astiav.Packet,
) error {
	if i.FormatContext == nil {
		return fmt.Errorf("the input is closed")
	}
	err := i.FormatContext.ReadFrame(pkt)
	switch {
	case err == nil:
		logger.Tracef(
			ctx,
			"received a packet (stream:%d, pos:%d, pts:%d, dts:%d, dur:%d), dataLen:%d",
			pkt.StreamIndex(),
			pkt.Pos(), pkt.Pts(), pkt.Dts(), pkt.Duration(),
			len(pkt.Data()),
		)
		return nil
	case errors.Is(err, astiav.ErrEof):
		return io.EOF
	case errors.Is(err, astiav.ErrEio):
		return io.EOF
	default:
		return fmt.Errorf("unable to read a frame: %w", err)
	}
}

// SeekTo repositions all the streams at once to the nearest seekable
// point at or before t.
func (i *Input) SeekTo(
	ctx context.Context,
	t time.Duration,
) (_err error) {
	logger.Debugf(ctx, "SeekTo(%v)", t)
	defer func() { logger.Debugf(ctx, "/SeekTo(%v): %v", t, _err) }()
	if i.FormatContext == nil {
		return fmt.Errorf("the input is closed")
	}
	ts := avconv.FromDuration(t, avconv.AVTimeBase)
	if startTime := i.FormatContext.StartTime(); !avconv.IsNoPTS(startTime) {
		ts += startTime
	}
	if err := i.FormatContext.SeekFrame(-1, ts, astiav.NewSeekFlags(astiav.SeekFlagBackward)); err != nil {
		return fmt.Errorf("unable to seek to %v: %w", t, err)
	}
	return nil
}
