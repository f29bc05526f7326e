// Package metronome is a sample-accurate click engine. A coarse poll loop
// decides which ticks fall inside a short lookahead window and commits them to
// the audio device's precise clock; tempo, meter and timbre are live settings
// re-read on every poll, and a tap estimator can derive the tempo from human
// input.
package metronome

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/cadencekit/metronome/internal/audio"
	"github.com/cadencekit/metronome/internal/pulse"
	"github.com/cadencekit/metronome/internal/sched"
	"github.com/cadencekit/metronome/internal/tap"
)

// Pulse is one scheduled tick's position, republished for visual rendering.
// Delivery is best-effort; sounds are never dropped, pulses may be.
type Pulse = pulse.Pulse

// ErrDeviceUnavailable wraps audio output acquisition failures. Start returns
// it and stays stopped; a later Start or tap gesture re-attempts acquisition.
var ErrDeviceUnavailable = errors.New("audio device unavailable")

// DefaultPollInterval is the coarse wall-clock cadence of the scheduler loop.
const DefaultPollInterval = 25 * time.Millisecond

type Option func(*engineConfig)

type engineConfig struct {
	clk          clock.Clock
	log          logrus.FieldLogger
	device       sched.Device
	tapConfig    tap.Config
	pollInterval time.Duration
	lookahead    time.Duration
	sampleTap    func([]float32)
}

func defaultEngineConfig() engineConfig {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	return engineConfig{
		clk:          clock.RealClock{},
		log:          quiet,
		tapConfig:    tap.DefaultConfig(),
		pollInterval: DefaultPollInterval,
	}
}

// WithClock substitutes the wall clock driving the poll loop (fake clocks in
// tests). The precise audio clock is unaffected.
func WithClock(c clock.Clock) Option {
	return func(cfg *engineConfig) { cfg.clk = c }
}

// WithLogger attaches a logger. The default discards everything.
func WithLogger(log logrus.FieldLogger) Option {
	return func(cfg *engineConfig) { cfg.log = log }
}

// WithDevice substitutes the audio output device. The default is the
// platform realtime device.
func WithDevice(dev sched.Device) Option {
	return func(cfg *engineConfig) { cfg.device = dev }
}

// WithTapConfig overrides the tap estimator tuning.
func WithTapConfig(c tap.Config) Option {
	return func(cfg *engineConfig) { cfg.tapConfig = c }
}

// WithPollInterval overrides the poll cadence. The poll only decides when to
// look ahead; audible timing does not depend on it.
func WithPollInterval(d time.Duration) Option {
	return func(cfg *engineConfig) {
		if d > 0 {
			cfg.pollInterval = d
		}
	}
}

// WithLookahead overrides the scheduling window. It must comfortably exceed
// the poll interval or ticks could be committed late.
func WithLookahead(d time.Duration) Option {
	return func(cfg *engineConfig) { cfg.lookahead = d }
}

// WithSampleTap installs a callback invoked with each rendered stereo buffer
// when the device supports it. The callback runs on the audio thread; keep
// work brief and non-blocking.
func WithSampleTap(tapFn func([]float32)) Option {
	return func(cfg *engineConfig) { cfg.sampleTap = tapFn }
}

type deviceAcquirer interface {
	Acquire() error
}

type sampleTapper interface {
	SetSampleTap(func([]float32))
}

// Engine drives one metronome: scheduler, tap estimator and pulse fan-out
// over a single audio device. Hosts may run several independent engines as
// long as each has its own device.
type Engine struct {
	sampleRate   int
	clk          clock.Clock
	log          logrus.FieldLogger
	dev          sched.Device
	pollInterval time.Duration

	settings atomic.Pointer[Settings]
	running  atomic.Bool

	mu       sync.Mutex // guards sched, est, stop channel and device acquisition
	sched    *sched.Scheduler
	est      *tap.Estimator
	notifier *pulse.Notifier
	stop     chan struct{}
}

func NewEngine(sampleRate int, opts ...Option) (*Engine, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	dev := cfg.device
	if dev == nil {
		dev = audio.NewDevice(sampleRate)
	}
	if cfg.sampleTap != nil {
		if st, ok := dev.(sampleTapper); ok {
			st.SetSampleTap(cfg.sampleTap)
		}
	}
	e := &Engine{
		sampleRate:   sampleRate,
		clk:          cfg.clk,
		log:          cfg.log,
		dev:          dev,
		pollInterval: cfg.pollInterval,
		est:          tap.NewEstimator(cfg.tapConfig),
		notifier:     pulse.NewNotifier(),
	}
	e.sched = sched.New(dev, cfg.lookahead.Seconds(), e.notifier.Publish)
	st := DefaultSettings()
	e.settings.Store(&st)
	return e, nil
}

// SetSettings replaces the live settings in one atomic snapshot, effective
// from the next poll. Out-of-range values are clamped when read, never
// rejected.
func (e *Engine) SetSettings(s Settings) {
	e.settings.Store(&s)
}

// Settings returns the current settings, clamped to their valid domain.
func (e *Engine) Settings() Settings {
	return e.settings.Load().Clamped()
}

// SampleRate returns the engine's output sample rate.
func (e *Engine) SampleRate() int { return e.sampleRate }

// IsRunning reports whether the poll loop is active.
func (e *Engine) IsRunning() bool { return e.running.Load() }

// Start acquires the audio device, rewinds the tick counter and launches the
// poll loop. Calling Start while running is a no-op; the beat phase is not
// reset. On device failure the engine stays stopped and the error wraps
// ErrDeviceUnavailable.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running.Load() {
		return nil
	}
	if err := e.acquireDeviceLocked(); err != nil {
		e.log.WithError(err).Warn("start aborted: audio device unavailable")
		return err
	}
	e.sched.Reset()
	e.stop = make(chan struct{})
	e.running.Store(true)
	go e.run(e.stop)

	s := e.settings.Load().Clamped()
	e.log.WithFields(logrus.Fields{
		"bpm":         s.BPM,
		"beats":       s.BeatsPerBar,
		"subdivision": s.Subdivision,
	}).Info("metronome started")
	return nil
}

// Stop cancels the poll loop. Sounds already committed to the device queue
// may still play out. Idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running.Load() {
		return
	}
	e.running.Store(false)
	close(e.stop)
	e.stop = nil
	e.log.Info("metronome stopped")
}

// AcquireDevice opens the audio output if the device supports explicit
// acquisition. Idempotent; safe to call on every user gesture.
func (e *Engine) AcquireDevice() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.acquireDeviceLocked()
}

func (e *Engine) acquireDeviceLocked() error {
	a, ok := e.dev.(deviceAcquirer)
	if !ok {
		return nil
	}
	if err := a.Acquire(); err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	return nil
}

// RegisterTap records a tap at the wall clock's now. See RegisterTapAt.
func (e *Engine) RegisterTap() (bpm float64, ok bool) {
	return e.RegisterTapAt(e.clk.Now())
}

// RegisterTapAt records a tap at the given time and, when enough valid
// intervals have accumulated, writes the estimated tempo into the settings
// and returns it with ok=true. With insufficient data the tempo is left
// unchanged and ok is false. A tap is also a user gesture: it re-attempts
// audio device acquisition regardless of whether a tempo was computed.
func (e *Engine) RegisterTapAt(now time.Time) (bpm float64, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.acquireDeviceLocked(); err != nil {
		e.log.WithError(err).Debug("tap gesture did not open the audio device")
	}
	bpm, ok = e.est.Tap(now)
	if ok {
		s := *e.settings.Load()
		s.BPM = bpm
		e.settings.Store(&s)
		e.log.WithField("bpm", bpm).Debug("tap tempo updated")
	}
	return bpm, ok
}

// Watch returns a channel receiving one Pulse per scheduled tick. The channel
// is buffered (cap 8); pulses are dropped, never blocking the scheduler, when
// the receiver falls behind. The subscription lasts until Close.
func (e *Engine) Watch() <-chan Pulse {
	ch, _ := e.notifier.Subscribe()
	return ch
}

// OnBeatPulse invokes fn for every scheduled tick on a dedicated goroutine.
// The returned cancel releases the subscription.
func (e *Engine) OnBeatPulse(fn func(Pulse)) (cancel func()) {
	ch, cancel := e.notifier.Subscribe()
	go func() {
		for p := range ch {
			fn(p)
		}
	}()
	return cancel
}

// Close stops the engine, ends all pulse subscriptions and releases the audio
// device.
func (e *Engine) Close() error {
	e.Stop()
	e.notifier.Close()
	if c, ok := e.dev.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (e *Engine) run(stop chan struct{}) {
	t := e.clk.NewTimer(e.pollInterval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C():
			e.pollOnce()
			t.Reset(e.pollInterval)
		}
	}
}

// pollOnce takes one settings snapshot and commits every tick inside the
// lookahead window. Settings are read fresh each poll, never cached.
func (e *Engine) pollOnce() {
	st := e.settings.Load().Clamped().schedView()
	e.mu.Lock()
	if e.running.Load() {
		e.sched.Advance(st)
	}
	e.mu.Unlock()
}
