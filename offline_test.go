package metronome

import (
	"encoding/binary"
	"math"
	"testing"
)

const renderRate = 48000

func windowPeak(samples []float32, fromSec, toSec float64) float64 {
	from := int(fromSec * renderRate)
	to := int(toSec * renderRate)
	var peak float64
	for f := from; f < to && 2*f+1 < len(samples); f++ {
		if a := math.Abs(float64(samples[2*f])); a > peak {
			peak = a
		}
	}
	return peak
}

func TestRenderClickTrackPlacesTicksOnGrid(t *testing.T) {
	s := DefaultSettings()
	s.Timbre = TimbreTone // predictable peak amplitude
	out := RenderClickTrack(s, renderRate, 2.0)

	if len(out) != renderRate*2*2 {
		t.Fatalf("rendered %d samples, want %d", len(out), renderRate*2*2)
	}

	// Nothing sounds before the start offset.
	if p := windowPeak(out, 0, 0.059); p != 0 {
		t.Fatalf("audio before start offset: peak %f", p)
	}

	// 120 BPM quarters: onsets at 0.06, 0.56, 1.06, 1.56. A click is silent
	// again ~90 ms after onset.
	onsets := []float64{0.06, 0.56, 1.06, 1.56}
	for i, at := range onsets {
		if p := windowPeak(out, at, at+0.02); p < 0.3 {
			t.Errorf("tick %d: peak %f in click window, want audible", i, p)
		}
		if p := windowPeak(out, at+0.15, at+0.45); p > 0.001 {
			t.Errorf("tick %d: peak %f between clicks, want silence", i, p)
		}
	}
}

func TestRenderClickTrackAccentsDownbeat(t *testing.T) {
	s := DefaultSettings() // 4/4, accent on
	s.Timbre = TimbreTone
	out := RenderClickTrack(s, renderRate, 2.5)

	downbeat := windowPeak(out, 0.06, 0.08)
	beatTwo := windowPeak(out, 0.56, 0.58)
	if math.Abs(downbeat-1.0) > 0.1 {
		t.Errorf("downbeat peak = %f, want ~1.0", downbeat)
	}
	if math.Abs(beatTwo-0.6) > 0.1 {
		t.Errorf("beat 2 peak = %f, want ~0.6", beatTwo)
	}

	// Bar 2 downbeat lands at 0.06 + 4*0.5 = 2.06 and is accented again.
	barTwo := windowPeak(out, 2.06, 2.08)
	if math.Abs(barTwo-1.0) > 0.1 {
		t.Errorf("bar 2 downbeat peak = %f, want ~1.0", barTwo)
	}
}

func TestRenderClickTrackRespectsSubdivision(t *testing.T) {
	s := DefaultSettings()
	s.Timbre = TimbreTone
	s.Subdivision = 2 // eighths at 120 BPM: ticks every 0.25 s
	out := RenderClickTrack(s, renderRate, 1.0)

	for i := 0; i < 3; i++ {
		at := 0.06 + float64(i)*0.25
		if p := windowPeak(out, at, at+0.02); p < 0.3 {
			t.Errorf("sub-tick %d: peak %f, want audible", i, p)
		}
	}
}

func TestRenderClickTrackIsDeterministic(t *testing.T) {
	s := DefaultSettings()
	a := RenderClickTrack(s, renderRate, 1.2)
	b := RenderClickTrack(s, renderRate, 1.2)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("render diverged at sample %d", i)
		}
	}
}

func TestRenderClickTrackClampsSettings(t *testing.T) {
	s := DefaultSettings()
	s.BPM = 5000 // clamps to 400
	s.Subdivision = 9
	out := RenderClickTrack(s, renderRate, 1.0)
	if len(out) != renderRate*2 {
		t.Fatalf("rendered %d samples, want %d", len(out), renderRate*2)
	}
	// 400 BPM sixteenths: 37.5 ms spacing, so clicks overlap into a
	// near-continuous stream; the mix must stay bounded.
	for i, v := range out {
		if v > 1 || v < -1 {
			t.Fatalf("sample %d out of range: %f", i, v)
		}
	}
	if p := windowPeak(out, 0.06, 0.5); p < 0.3 {
		t.Errorf("expected audible output, peak %f", p)
	}
}

func TestEncodeWAVFloat32LEHeader(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 1}
	wav := EncodeWAVFloat32LE(samples, renderRate, 2)

	if len(wav) != 44+len(samples)*4 {
		t.Fatalf("wav length = %d, want %d", len(wav), 44+len(samples)*4)
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Fatal("missing RIFF/WAVE markers")
	}
	if format := binary.LittleEndian.Uint16(wav[20:]); format != 3 {
		t.Errorf("audio format = %d, want 3 (IEEE float)", format)
	}
	if ch := binary.LittleEndian.Uint16(wav[22:]); ch != 2 {
		t.Errorf("channels = %d, want 2", ch)
	}
	if rate := binary.LittleEndian.Uint32(wav[24:]); rate != renderRate {
		t.Errorf("sample rate = %d, want %d", rate, renderRate)
	}
	if size := binary.LittleEndian.Uint32(wav[40:]); size != uint32(len(samples)*4) {
		t.Errorf("data size = %d, want %d", size, len(samples)*4)
	}
}
