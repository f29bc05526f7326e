// Package tap derives a tempo estimate from irregular human tap input.
package tap

import "time"

// Config holds the estimator tuning parameters. The interval bounds guard
// against accidental double-taps and long pauses corrupting the estimate.
type Config struct {
	Capacity          int           // taps kept, oldest discarded first
	ResetAfter        time.Duration // gap that clears the buffer
	MinInterval       time.Duration // intervals below this are ignored
	MaxInterval       time.Duration // intervals above this are ignored
	MinTaps           int           // taps required before estimating
	MinValidIntervals int           // valid intervals required for an estimate
	MinBPM            float64
	MaxBPM            float64
}

func DefaultConfig() Config {
	return Config{
		Capacity:          8,
		ResetAfter:        2000 * time.Millisecond,
		MinInterval:       180 * time.Millisecond,
		MaxInterval:       2000 * time.Millisecond,
		MinTaps:           4,
		MinValidIntervals: 3,
		MinBPM:            20,
		MaxBPM:            400,
	}
}

// Estimator keeps a rolling buffer of tap timestamps. Not safe for concurrent
// use; callers serialize taps.
type Estimator struct {
	cfg  Config
	taps []time.Time
	last time.Time
}

func NewEstimator(cfg Config) *Estimator {
	if cfg.Capacity < 2 {
		cfg.Capacity = DefaultConfig().Capacity
	}
	return &Estimator{cfg: cfg, taps: make([]time.Time, 0, cfg.Capacity)}
}

// Reset clears the tap buffer.
func (e *Estimator) Reset() {
	e.taps = e.taps[:0]
	e.last = time.Time{}
}

// Count returns the number of buffered taps.
func (e *Estimator) Count() int { return len(e.taps) }

// Tap records a tap at now and returns the estimated tempo. ok is false while
// there is not yet enough valid data; the previous estimate (if any) should
// then be left in effect.
func (e *Estimator) Tap(now time.Time) (bpm float64, ok bool) {
	if !e.last.IsZero() && now.Sub(e.last) > e.cfg.ResetAfter {
		e.taps = e.taps[:0]
	}
	e.taps = append(e.taps, now)
	if len(e.taps) > e.cfg.Capacity {
		e.taps = e.taps[1:]
	}
	e.last = now

	if len(e.taps) < e.cfg.MinTaps {
		return 0, false
	}
	var sum time.Duration
	valid := 0
	for i := 1; i < len(e.taps); i++ {
		d := e.taps[i].Sub(e.taps[i-1])
		if d < e.cfg.MinInterval || d > e.cfg.MaxInterval {
			continue
		}
		sum += d
		valid++
	}
	if valid < e.cfg.MinValidIntervals {
		return 0, false
	}
	mean := sum / time.Duration(valid)
	bpm = float64(time.Minute) / float64(mean)
	if bpm < e.cfg.MinBPM {
		bpm = e.cfg.MinBPM
	}
	if bpm > e.cfg.MaxBPM {
		bpm = e.cfg.MaxBPM
	}
	return bpm, true
}
