package metronome

import (
	"math"

	"github.com/cadencekit/metronome/internal/click"
	"github.com/cadencekit/metronome/internal/sched"
)

// Timbre selects the click's spectral shape.
type Timbre = click.Timbre

const (
	TimbreBright = click.TimbreBright
	TimbreWarm   = click.TimbreWarm
	TimbreTone   = click.TimbreTone
)

// Tempo domain. Settings are a live control surface, so out-of-range values
// are clamped to the nearest valid value rather than rejected.
const (
	MinBPM = 20.0
	MaxBPM = 400.0

	MinSubdivision = 1
	MaxSubdivision = 4

	DefaultBPM = 120.0
)

// Settings is the user-facing tempo configuration. The engine takes one
// atomic snapshot per poll and re-clamps on every read; it never trusts a
// stored value to still be in range.
type Settings struct {
	BPM            float64
	BeatsPerBar    int
	Subdivision    int // ticks per beat: 1, 2, 3 or 4
	AccentDownbeat bool
	Timbre         Timbre
	Volume         float64 // 0..1
}

func DefaultSettings() Settings {
	return Settings{
		BPM:            DefaultBPM,
		BeatsPerBar:    4,
		Subdivision:    1,
		AccentDownbeat: true,
		Timbre:         TimbreBright,
		Volume:         1,
	}
}

// Clamped returns a copy with every field forced into its valid domain.
func (s Settings) Clamped() Settings {
	if math.IsNaN(s.BPM) {
		s.BPM = DefaultBPM
	}
	s.BPM = clampFloat(s.BPM, MinBPM, MaxBPM)
	if s.BeatsPerBar < 1 {
		s.BeatsPerBar = 1
	}
	if s.Subdivision < MinSubdivision {
		s.Subdivision = MinSubdivision
	}
	if s.Subdivision > MaxSubdivision {
		s.Subdivision = MaxSubdivision
	}
	if s.Timbre != TimbreBright && s.Timbre != TimbreWarm && s.Timbre != TimbreTone {
		s.Timbre = TimbreBright
	}
	if math.IsNaN(s.Volume) {
		s.Volume = 0
	}
	s.Volume = clampFloat(s.Volume, 0, 1)
	return s
}

// schedView converts an already-clamped Settings into the scheduler's view.
func (s Settings) schedView() sched.Settings {
	return sched.Settings{
		BPM:            s.BPM,
		BeatsPerBar:    s.BeatsPerBar,
		Subdivision:    s.Subdivision,
		AccentDownbeat: s.AccentDownbeat,
		Timbre:         s.Timbre,
		Volume:         s.Volume,
	}
}

func clampFloat(t, min, max float64) float64 {
	if t < min {
		return min
	}
	if t > max {
		return max
	}
	return t
}
