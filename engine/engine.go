package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cwbudde/algo-tube/dsp/capture"
	"github.com/cwbudde/algo-tube/dsp/core"
	"github.com/cwbudde/algo-tube/dsp/meter"
	"github.com/cwbudde/algo-tube/dsp/oversample"
)

const maxChannels = 2

// Option configures an [Engine].
type Option func(*options) error

type options struct {
	stream        core.Stream
	oversampling  int
	aliasFilter   []oversample.Option
	alignDry      bool
	meterInterval time.Duration
	config        Config
	captureOpts   []capture.Option
	logger        *log.Logger
}

// WithSampleRate sets the stream sample rate in Hz.
func WithSampleRate(sampleRate float64) Option {
	return func(o *options) error {
		if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
			return configError("sample rate", sampleRate, nil)
		}

		o.stream.SampleRate = sampleRate

		return nil
	}
}

// WithChannels sets the channel count (1 or 2).
func WithChannels(channels int) Option {
	return func(o *options) error {
		if channels < 1 || channels > maxChannels {
			return configError("channels", channels, nil)
		}

		o.stream.Channels = channels

		return nil
	}
}

// WithMaxBlockSize sets the largest block processed in one pass. Longer
// calls are split internally.
func WithMaxBlockSize(frames int) Option {
	return func(o *options) error {
		if frames <= 0 {
			return configError("max block size", frames, nil)
		}

		o.stream.MaxBlock = frames

		return nil
	}
}

// WithOversampling sets the oversampling factor of every tube stage.
func WithOversampling(factor int) Option {
	return func(o *options) error {
		o.oversampling = factor
		return nil
	}
}

// WithAntiAliasFilter tunes the interpolation and decimation filters of
// every tube stage, for example with [oversample.WithKaiserBeta] or
// [oversample.WithCutoffScale]. The stage latency is unchanged.
func WithAntiAliasFilter(opts ...oversample.Option) Option {
	return func(o *options) error {
		o.aliasFilter = append(o.aliasFilter, opts...)
		return nil
	}
}

// WithDryAlignment delays the dry tap by the processed path latency so
// that partial mix settings do not comb filter.
func WithDryAlignment(enabled bool) Option {
	return func(o *options) error {
		o.alignDry = enabled
		return nil
	}
}

// WithMeterInterval sets the level refresh cadence. Zero disables the
// monitor goroutine; levels then only change through RefreshLevels.
func WithMeterInterval(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return configError("meter interval", d, nil)
		}

		o.meterInterval = d

		return nil
	}
}

// WithConfig sets the initial parameters.
func WithConfig(cfg Config) Option {
	return func(o *options) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		o.config = cfg

		return nil
	}
}

// WithCaptureOptions passes options to the output capture sink.
func WithCaptureOptions(opts ...capture.Option) Option {
	return func(o *options) error {
		o.captureOpts = append(o.captureOpts, opts...)
		return nil
	}
}

// WithLogger sets the control-path logger.
func WithLogger(l *log.Logger) Option {
	return func(o *options) error {
		if l != nil {
			o.logger = l
		}

		return nil
	}
}

// Engine is the tube saturation processor. Parameter setters, lifecycle
// methods and capture control may be called from any goroutine. Process and
// Pull form the audio path: one goroutine at a time, no allocation, no
// blocking.
type Engine struct {
	stream   core.Stream
	alignDry bool
	logger   *log.Logger

	graph    *graph
	channels []*channelState
	inView   [][]float64
	outView  [][]float64

	state     atomic.Pointer[State]
	lifecycle atomic.Int32
	ctrlMu    sync.Mutex

	// flush asks the audio path to silence channel memory before its next
	// block.
	flush atomic.Bool

	srcMu    sync.Mutex
	source   Source
	pullBuf  [][]float64
	readView [][]float64
	pullView [][]float64
	readErr  error

	inMeter  *meter.Meter
	outMeter *meter.Meter
	sink     *capture.Sink

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds an idle engine.
func New(opts ...Option) (*Engine, error) {
	o := options{
		stream:        core.DefaultStream(),
		oversampling:  oversample.DefaultFactor,
		meterInterval: meter.DefaultInterval,
		config:        DefaultConfig(),
		logger:        log.New(io.Discard),
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&o); err != nil {
			return nil, err
		}
	}

	if err := o.stream.Validate(maxChannels); err != nil {
		return nil, configError("stream", o.stream, err)
	}

	st, err := buildState(nil, o.config, 1, o.stream.SampleRate)
	if err != nil {
		return nil, err
	}

	g, err := compileGraph(topology, o.stream.Channels, o.stream.MaxBlock)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		stream:   o.stream,
		alignDry: o.alignDry,
		logger:   o.logger,
		graph:    g,
		channels: make([]*channelState, o.stream.Channels),
		inView:   make([][]float64, maxChannels),
		outView:  make([][]float64, maxChannels),
		pullView: make([][]float64, maxChannels),
		inMeter:  meter.New(o.stream.SampleRate),
		outMeter: meter.New(o.stream.SampleRate),
	}

	for c := range e.channels {
		if e.channels[c], err = newChannelState(st, o.oversampling, o.stream.MaxBlock, o.alignDry, o.aliasFilter); err != nil {
			return nil, err
		}
	}

	captureOpts := append([]capture.Option{capture.WithLogger(o.logger)}, o.captureOpts...)

	e.sink, err = capture.NewSink(int(math.Round(o.stream.SampleRate)), o.stream.Channels, captureOpts...)
	if err != nil {
		return nil, configError("capture", o.stream.Channels, err)
	}

	e.state.Store(st)

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	if o.meterInterval > 0 {
		e.wg.Add(1)

		go func() {
			defer e.wg.Done()
			meter.Monitor(ctx, o.meterInterval, e.inMeter, e.outMeter)
		}()
	}

	e.lifecycle.Store(int32(Idle))
	e.logger.Info("engine ready",
		"rate", o.stream.SampleRate,
		"channels", o.stream.Channels,
		"block", o.stream.MaxBlock,
		"oversampling", o.oversampling,
		"latency", e.Latency())

	return e, nil
}

// Lifecycle returns the current state.
func (e *Engine) Lifecycle() Lifecycle {
	return Lifecycle(e.lifecycle.Load())
}

// SampleRate returns the stream sample rate.
func (e *Engine) SampleRate() float64 {
	return e.stream.SampleRate
}

// Channels returns the processed channel count.
func (e *Engine) Channels() int {
	return e.stream.Channels
}

// MaxBlockSize returns the largest block processed in one pass.
func (e *Engine) MaxBlockSize() int {
	return e.stream.MaxBlock
}

// Latency returns the delay of the processed signal in samples.
func (e *Engine) Latency() int {
	return e.channels[0].seriesLatency()
}

// Process renders one planar block. src may be mono for a stereo engine.
// The frame count is that of the shorter argument; remaining dst frames
// and channels beyond the engine's are zeroed. After Close, Process writes
// silence.
func (e *Engine) Process(dst, src [][]float64) {
	total := core.Frames(dst)

	if e.Lifecycle() == Terminated || len(src) == 0 {
		core.ZeroPlanar(dst, total)
		return
	}

	if e.flush.CompareAndSwap(true, false) {
		for _, ch := range e.channels {
			ch.reset()
		}
	}

	st := e.state.Load()
	frames := min(total, core.Frames(src))
	nch := min(len(dst), len(e.channels))
	src = src[:min(len(src), len(e.channels))]

	for pos := 0; pos < frames; pos += e.stream.MaxBlock {
		end := min(pos+e.stream.MaxBlock, frames)
		in := core.View(e.inView, src, pos, end)

		e.inMeter.Write(in)

		for c := range nch {
			e.graph.setInput(c, in[min(c, len(in)-1)])
			out := e.graph.processChannel(st, e.channels[c], c, end-pos)
			copy(dst[c][pos:end], out)
		}

		out := core.View(e.outView, dst[:nch], pos, end)
		e.outMeter.Write(out)
		e.sink.Write(out)
	}

	e.graph.release()

	for c := range dst {
		if c >= nch {
			clear(dst[c])
		} else if frames < len(dst[c]) {
			clear(dst[c][frames:])
		}
	}
}

// Pull reads the attached source into dst and processes it. Frames the
// source could not deliver are silent. Pull returns the number of source
// frames processed and io.EOF once the source is exhausted or failed; the
// cause of a failure is reported by Detach. Without a source, or while a
// detach is in progress, Pull writes silence.
func (e *Engine) Pull(dst [][]float64) (int, error) {
	total := core.Frames(dst)

	for _, ch := range dst[min(len(dst), maxChannels):] {
		clear(ch)
	}

	dst = dst[:min(len(dst), maxChannels)]

	if !e.srcMu.TryLock() {
		core.ZeroPlanar(dst, total)
		return 0, nil
	}
	defer e.srcMu.Unlock()

	if e.source == nil || e.Lifecycle() != Running {
		core.ZeroPlanar(dst, total)
		return 0, nil
	}

	done := 0

	for done < total {
		k := min(total-done, e.stream.MaxBlock)

		n, err := e.source.ReadBlock(core.View(e.readView, e.pullBuf, 0, k))
		n = min(max(n, 0), k)

		if n > 0 {
			out := core.View(e.pullView, dst, done, done+n)
			e.Process(out, core.View(e.readView, e.pullBuf, 0, n))
			done += n
		}

		if err != nil || n == 0 {
			tail := core.View(e.pullView, dst, done, total)
			core.ZeroPlanar(tail, total-done)

			if err != nil && !errors.Is(err, io.EOF) {
				e.readErr = err
			}

			if err != nil {
				return done, io.EOF
			}

			return done, nil
		}
	}

	return done, nil
}

// Attach opens src and starts RUNNING. The source must match the engine
// sample rate and may not carry more channels than the engine processes.
// A mono source feeds every engine channel. The first block of the new
// source starts from silent stage and filter memory.
func (e *Engine) Attach(ctx context.Context, src Source) error {
	e.ctrlMu.Lock()
	defer e.ctrlMu.Unlock()

	if l := e.Lifecycle(); l != Idle {
		return &GraphStateError{Op: "attach", State: l}
	}

	if src == nil {
		return fmt.Errorf("%w: nil source", ErrDevice)
	}

	f := src.Format()
	if float64(f.SampleRate) != e.stream.SampleRate || f.Channels < 1 || f.Channels > e.stream.Channels {
		return fmt.Errorf("%w: source format %d Hz x %d does not match %v Hz x %d engine",
			ErrDevice, f.SampleRate, f.Channels, e.stream.SampleRate, e.stream.Channels)
	}

	if err := src.Open(ctx); err != nil {
		return fmt.Errorf("%w: open source: %w", ErrDevice, err)
	}

	e.srcMu.Lock()
	e.source = src
	e.pullBuf = core.NewPlanar(f.Channels, e.stream.MaxBlock)
	e.readView = make([][]float64, f.Channels)
	e.readErr = nil
	e.flush.Store(true)
	e.lifecycle.Store(int32(Running))
	e.srcMu.Unlock()

	e.logger.Info("source attached", "rate", f.SampleRate, "channels", f.Channels)

	return nil
}

// Detach waits for an in-flight Pull, closes the source and returns to
// IDLE. It reports a read failure seen by Pull and any close error.
func (e *Engine) Detach() error {
	e.ctrlMu.Lock()
	defer e.ctrlMu.Unlock()

	if l := e.Lifecycle(); l != Running {
		return &GraphStateError{Op: "detach", State: l}
	}

	return e.detachLocked(Idle)
}

func (e *Engine) detachLocked(next Lifecycle) error {
	e.srcMu.Lock()
	src, readErr := e.source, e.readErr
	e.source, e.readErr = nil, nil
	e.lifecycle.Store(int32(next))
	e.srcMu.Unlock()

	var errs []error
	if readErr != nil {
		errs = append(errs, fmt.Errorf("%w: read source: %w", ErrDevice, readErr))
	}

	if err := src.Close(); err != nil {
		errs = append(errs, fmt.Errorf("%w: close source: %w", ErrDevice, err))
	}

	e.logger.Info("source detached")

	return errors.Join(errs...)
}

// Close stops the engine for good. A running source is detached and an
// active capture is discarded.
func (e *Engine) Close() error {
	e.ctrlMu.Lock()
	defer e.ctrlMu.Unlock()

	l := e.Lifecycle()
	if l == Terminated || l == Uninitialized {
		return &GraphStateError{Op: "close", State: l}
	}

	var err error
	if l == Running {
		err = e.detachLocked(Terminated)
	}

	e.lifecycle.Store(int32(Terminated))
	e.cancel()
	e.wg.Wait()

	if rec, stopErr := e.sink.Stop(); stopErr == nil {
		e.logger.Warn("capture discarded on close", "frames", rec.Frames())
	}

	e.logger.Info("engine closed")

	return err
}

// InputLevel returns the last input level in [0, 100].
func (e *Engine) InputLevel() float64 {
	return e.inMeter.Level()
}

// OutputLevel returns the last output level in [0, 100].
func (e *Engine) OutputLevel() float64 {
	return e.outMeter.Level()
}

// RefreshLevels recomputes both levels from the latest complete windows.
func (e *Engine) RefreshLevels() (in, out float64) {
	return e.inMeter.Refresh(), e.outMeter.Refresh()
}

// StartCapture begins recording the output.
func (e *Engine) StartCapture(ctx context.Context) (*capture.Session, error) {
	if l := e.Lifecycle(); l == Terminated {
		return nil, &GraphStateError{Op: "start capture", State: l}
	}

	return e.sink.Start(ctx)
}

// StopCapture finalizes the active recording.
func (e *Engine) StopCapture() (*capture.Recording, error) {
	return e.sink.Stop()
}

// Capturing reports whether a recording is active.
func (e *Engine) Capturing() bool {
	return e.sink.Active()
}
