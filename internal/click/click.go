// Package click synthesizes single metronome click transients. A Voice renders
// one click from onset to silence; mixing and scheduling live elsewhere.
package click

import (
	"math"

	"github.com/fogleman/ease"
)

const twoPi = math.Pi * 2

// Timbre selects the spectral shape of a click.
type Timbre int

const (
	// TimbreBright is a broadband noise transient.
	TimbreBright Timbre = iota
	// TimbreWarm is a narrowband damped tone.
	TimbreWarm
	// TimbreTone is a pure tone, pitched an octave higher when accented.
	TimbreTone
)

// Spec describes one click to synthesize.
type Spec struct {
	Timbre   Timbre
	Accented bool
	Volume   float64 // 0..1, clamped on use
}

// Envelope timing. Total length keeps a full click inside the minimum
// inter-tick spacing territory at 400 BPM/sixteenths (~37.5 ms) only by
// overlapping; overlap is handled by the mixer summing voices.
const (
	attackSec = 0.003
	totalSec  = 0.088

	unaccentedLevel = 0.6

	warmFreq       = 660.0
	toneFreq       = 880.0
	toneAccentFreq = 1760.0

	brightCutoff = 7000.0
)

// Voice renders one click transient sample by sample. Next must be called once
// per output frame; the noise and filter state advance with each call.
type Voice struct {
	timbre Timbre

	length int64
	attack int64
	pos    int64

	peak float64

	// oscillator state (warm/tone)
	phase float64
	inc   float64

	// noise state (bright)
	lfsr     uint16
	lpf      float64
	lpfAlpha float64
}

// NewVoice builds a voice for one click at the given sample rate.
func NewVoice(sampleRate int, spec Spec) *Voice {
	sr := float64(sampleRate)
	v := &Voice{
		timbre: spec.Timbre,
		length: int64(totalSec * sr),
		attack: int64(attackSec * sr),
		peak:   clamp(spec.Volume, 0, 1),
		lfsr:   0xACE1,
	}
	if !spec.Accented {
		v.peak *= unaccentedLevel
	}
	if v.attack < 1 {
		v.attack = 1
	}
	if v.length <= v.attack {
		v.length = v.attack + 1
	}
	switch spec.Timbre {
	case TimbreWarm:
		v.inc = warmFreq / sr
	case TimbreTone:
		f := toneFreq
		if spec.Accented {
			f = toneAccentFreq
		}
		v.inc = f / sr
	default:
		rc := 1.0 / (twoPi * brightCutoff)
		dt := 1.0 / sr
		v.lpfAlpha = dt / (rc + dt)
	}
	return v
}

// Len returns the voice length in frames.
func (v *Voice) Len() int64 { return v.length }

// Done reports whether the voice has decayed to silence.
func (v *Voice) Done() bool { return v.pos >= v.length }

// Next renders and returns the next mono sample, advancing the voice by one
// frame. Returns 0 once the voice is done.
func (v *Voice) Next() float32 {
	if v.pos >= v.length {
		return 0
	}
	env := v.envelope()
	var s float64
	switch v.timbre {
	case TimbreWarm:
		s = math.Sin(twoPi*v.phase) + 0.35*math.Sin(twoPi*2*v.phase)
		s /= 1.35
		v.phase += v.inc
		if v.phase >= 1 {
			v.phase -= 1
		}
	case TimbreTone:
		s = math.Sin(twoPi * v.phase)
		v.phase += v.inc
		if v.phase >= 1 {
			v.phase -= 1
		}
	default:
		bit := (v.lfsr ^ (v.lfsr >> 1)) & 1
		v.lfsr = (v.lfsr >> 1) | (bit << 15)
		n := 1.0
		if v.lfsr&1 == 0 {
			n = -1.0
		}
		v.lpf += v.lpfAlpha * (n - v.lpf)
		// keep some of the raw broadband transient above the lowpass body
		s = 0.6*v.lpf + 0.4*n
	}
	v.pos++
	return float32(clamp(s*env*v.peak, -1, 1))
}

// envelope returns the amplitude for the current frame: a short linear attack,
// then an eased decay that reaches zero at the end of the voice.
func (v *Voice) envelope() float64 {
	if v.pos < v.attack {
		return float64(v.pos) / float64(v.attack)
	}
	t := float64(v.pos-v.attack) / float64(v.length-v.attack)
	return 1 - ease.OutCubic(t)
}

func clamp(t, min, max float64) float64 {
	if t < min {
		return min
	}
	if t > max {
		return max
	}
	return t
}
