package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/avplayback"
	"github.com/xaionaro-go/avplayback/codec"
	"github.com/xaionaro-go/avplayback/decodethread"
	"github.com/xaionaro-go/avplayback/decoding"
	"github.com/xaionaro-go/avplayback/types"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/secret"
	"gopkg.in/yaml.v3"
)

const (
	envAuthKey = "AVPLAY_AUTH_KEY"
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "syntax: %s [options] <URL>\n", os.Args[0])
		pflag.PrintDefaults()
	}

	loggerLevel := logger.LevelWarning
	pflag.Var(&loggerLevel, "log-level", "Log level")
	netPprofAddr := pflag.String("net-pprof-listen-addr", "", "an address to listen for incoming net/pprof connections")
	configPath := pflag.String("config", "", "path to a YAML file with the decoding options")
	playFor := pflag.Duration("duration", 0, "stop after this amount of playback time; zero means until the end of the video")
	startAt := pflag.Duration("start", 0, "the position to start the playback at")
	pcmOutput := pflag.String("pcm-output", "", "write the decoded audio (interleaved s16le stereo) into this file; '-' means stdout")
	snapshotPath := pflag.String("snapshot", "", "save the last displayed frame as a PNG image into this file")
	var snapshotSize types.Resolution
	pflag.Var(&snapshotSize, "snapshot-size", "resize the snapshot to this resolution, e.g. 320x180")
	var videoOutput types.Resolution
	pflag.Var(&videoOutput, "video-output", "the resolution of the decoded frames, e.g. 1280x720; the native one by default")
	scalingMethod := types.ScalingMethodDefault
	pflag.Var(&scalingMethod, "scaling-method", "the scaling method: "+scalingMethodsList())
	decoderThreads := pflag.Int("decoder-threads", 0, "the amount of decoding threads per stream; zero lets libav decide")
	fastDecoding := pflag.Bool("fast-decoding", false, "trade the video quality for the decoding speed")
	inputOptions := pflag.StringArray("input-option", nil, "a libavformat option as 'key=value'; the key 'f' forces the container format")
	statsInterval := pflag.Duration("stats-interval", time.Second, "how often to log the playback statistics; zero disables them")
	pflag.Parse()
	if len(pflag.Args()) != 1 {
		pflag.Usage()
		os.Exit(1)
	}
	url := pflag.Arg(0)

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	ctx, cancelFn := signal.NotifyContext(ctx, os.Interrupt)
	defer cancelFn()
	logger.Default = func() logger.Logger {
		return l
	}
	defer belt.Flush(ctx)

	if *netPprofAddr != "" {
		observability.Go(ctx, func(ctx context.Context) { l.Error(http.ListenAndServe(*netPprofAddr, nil)) })
	}

	avplayback.SetupLibAVLogging(l)

	cfg := avplayback.DefaultConfig()
	if *configPath != "" {
		if err := loadOptions(*configPath, &cfg.Decoding.Options); err != nil {
			l.Fatal(err)
		}
	}
	if pflag.CommandLine.Changed("video-output") {
		cfg.Decoding.VideoOutput = videoOutput
	}
	if pflag.CommandLine.Changed("scaling-method") {
		cfg.Decoding.ScalingMethod = scalingMethod
	}
	cfg.Decoders.ThreadCount = *decoderThreads
	if *fastDecoding {
		cfg.Decoders.VideoOptions = append(cfg.Decoders.VideoOptions, codec.FastDecodingOptions(cfg.Decoders.VideoCodecName)...)
	}
	for _, opt := range *inputOptions {
		k, v, ok := strings.Cut(opt, "=")
		if !ok {
			l.Fatalf("invalid input option '%s', expected 'key=value'", opt)
		}
		cfg.Input.CustomOptions = append(cfg.Input.CustomOptions, types.DictionaryItem{Key: k, Value: v})
	}
	endOfStream := make(chan struct{})
	var endOfStreamOnce sync.Once
	cfg.Decoding.OnEndOfStream = func(ctx context.Context) {
		logger.Infof(ctx, "the end of the video")
		endOfStreamOnce.Do(func() { close(endOfStream) })
	}

	l.Debugf("opening '%s'...", url)
	decoder, err := avplayback.Open(ctx, url, secret.New(os.Getenv(envAuthKey)), cfg)
	if err != nil {
		l.Fatal(err)
	}
	defer func() {
		if err := decoder.Close(ctx); err != nil {
			l.Error(err)
		}
	}()
	l.Infof(
		"opened: duration:%v, video:%v (%s, %s -> %s, %.3f fps), audio:%v (%s -> %s)",
		decoder.Duration(),
		decoder.HasVideo(), decoder.VideoCodecName(), decoder.NativeVideoResolution(), decoder.VideoResolution(), decoder.FrameRate(),
		decoder.HasAudio(), decoder.AudioCodecName(), decoder.AudioFormat(),
	)

	var pcmWriter io.Writer
	switch *pcmOutput {
	case "":
	case "-":
		pcmWriter = os.Stdout
	default:
		f, err := os.Create(*pcmOutput)
		if err != nil {
			l.Fatal(err)
		}
		defer f.Close()
		pcmWriter = f
	}
	sink := newPCMSink(pcmWriter)

	clock := &wallClock{offset: *startAt}
	if *startAt > 0 {
		if err := decoder.Seek(ctx, *startAt); err != nil {
			l.Fatal(err)
		}
	}

	threadCfg := decodethread.DefaultConfig()
	threadCfg.Interval = cfg.Decoding.DecodeInterval
	threadCfg.AudioSlack = cfg.Decoding.ExtraAudioBuffering
	thread := decodethread.New(decoder, clock, sink, threadCfg)
	clock.Play()
	if err := thread.Start(ctx); err != nil {
		l.Fatal(err)
	}

	var deadline <-chan time.Time
	if *playFor > 0 {
		deadline = time.After(*playFor)
	}
	var statsTicker <-chan time.Time
	if *statsInterval > 0 {
		t := time.NewTicker(*statsInterval)
		defer t.Stop()
		statsTicker = t.C
	}

	started := time.Now()
	func() {
		for {
			select {
			case <-ctx.Done():
				l.Infof("interrupted")
				return
			case <-deadline:
				return
			case <-endOfStream:
				return
			case err := <-thread.Errors():
				if err != nil {
					l.Errorf("%v", err)
				}
				return
			case <-statsTicker:
				logStats(ctx, decoder, clock, sink)
			}
		}
	}()

	if *snapshotPath != "" && decoder.HasVideo() {
		if err := saveSnapshot(ctx, decoder, *snapshotPath, snapshotSize); err != nil {
			l.Error(err)
		}
	}

	clock.Stop()
	terminateCtx, terminateCancelFn := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer terminateCancelFn()
	if err := thread.Terminate(terminateCtx); err != nil {
		l.Error(err)
	}
	logStats(ctx, decoder, clock, sink)
	l.Infof("finished in %v", time.Since(started).Round(time.Millisecond))
	if thread.ExceptionalExit() {
		belt.Flush(ctx)
		os.Exit(2)
	}
}

func loadOptions(path string, opts *decoding.Options) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read the config file '%s': %w", path, err)
	}
	if err := yaml.Unmarshal(b, opts); err != nil {
		return fmt.Errorf("unable to parse the config file '%s': %w", path, err)
	}
	return opts.Validate()
}

func scalingMethodsList() string {
	var names []string
	for _, m := range types.ScalingMethods() {
		names = append(names, m.String())
	}
	return strings.Join(names, ", ")
}

func logStats(
	ctx context.Context,
	decoder *decoding.Context,
	clock *wallClock,
	sink *pcmSink,
) {
	frameTime, ok := decoder.CurrentVideoFrameTime(ctx)
	if !ok {
		frameTime = 0
	}
	var audioRate string
	if bps := decoder.AudioFormat().BytesPerSecond(); bps > 0 {
		audioRate = humanize.IBytes(uint64(bps)) + "/s"
	}
	logger.Infof(ctx, "position:%v, frame:%v, audio:%s %s", clock.Position().Round(time.Millisecond), frameTime, sink, audioRate)
}
