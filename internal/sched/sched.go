// Package sched implements the lookahead click scheduler. A coarse poll
// decides what will sound inside a short future window; the sounding instants
// themselves are anchored to the output device's precise clock, so poll jitter
// never reaches the audible timing.
package sched

import (
	"github.com/cadencekit/metronome/internal/beat"
	"github.com/cadencekit/metronome/internal/click"
	"github.com/cadencekit/metronome/internal/pulse"
)

// Device is the audio output the scheduler commits sound events to. Now is the
// precise monotonic clock in seconds (arbitrary origin); ScheduleClick is
// fire-and-forget against the device's own queue.
type Device interface {
	Now() float64
	ScheduleClick(at float64, spec click.Spec)
}

// Settings is the per-poll view of the live tempo settings. Values are assumed
// already clamped; the scheduler does not re-validate.
type Settings struct {
	BPM            float64
	BeatsPerBar    int
	Subdivision    int
	AccentDownbeat bool
	Timbre         click.Timbre
	Volume         float64
}

const (
	// Lookahead is how far past the precise clock's now the scheduler
	// commits sound events on each poll.
	Lookahead = 0.120
	// StartOffset delays the first tick after Reset so it is schedulable
	// even if the first poll is late.
	StartOffset = 0.060
)

// Scheduler owns the tick counter and the next sounding instant. It is driven
// by a single caller; nothing here is safe for concurrent use.
type Scheduler struct {
	dev       Device
	onPulse   func(pulse.Pulse)
	lookahead float64

	tick uint64
	next float64
}

// New builds a scheduler over dev. onPulse, if non-nil, is invoked for every
// scheduled tick and must not block. lookahead <= 0 selects the default.
func New(dev Device, lookahead float64, onPulse func(pulse.Pulse)) *Scheduler {
	if lookahead <= 0 {
		lookahead = Lookahead
	}
	return &Scheduler{dev: dev, lookahead: lookahead, onPulse: onPulse}
}

// Reset rewinds the tick counter and anchors the first sounding instant a
// start offset past the device clock's now.
func (s *Scheduler) Reset() {
	s.tick = 0
	s.next = s.dev.Now() + StartOffset
}

// TickIndex returns the number of ticks scheduled since the last Reset.
func (s *Scheduler) TickIndex() uint64 { return s.tick }

// NextInstant returns the sounding instant of the next unscheduled tick.
func (s *Scheduler) NextInstant() float64 { return s.next }

// Advance schedules every tick whose sounding instant falls inside the
// lookahead window and returns how many were committed. The per-tick increment
// is recomputed from st each call, so a tempo change takes effect at the next
// tick boundary; instants already committed are never recomputed.
func (s *Scheduler) Advance(st Settings) int {
	secPerSub := 60.0 / st.BPM / float64(st.Subdivision)
	horizon := s.dev.Now() + s.lookahead
	n := 0
	for s.next < horizon {
		pos := beat.PositionAt(s.tick, st.BeatsPerBar, st.Subdivision, st.AccentDownbeat)
		s.dev.ScheduleClick(s.next, click.Spec{
			Timbre:   st.Timbre,
			Accented: pos.Accented,
			Volume:   st.Volume,
		})
		if s.onPulse != nil {
			s.onPulse(pulse.Pulse{
				Tick:     s.tick,
				Beat:     pos.Beat,
				Sub:      pos.Sub,
				Accented: pos.Accented,
				When:     s.next,
			})
		}
		s.tick++
		s.next += secPerSub
		n++
	}
	return n
}
