package audio

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/cadencekit/metronome/internal/click"
)

// Mixer holds the queue of scheduled click voices and renders them into the
// output stream. Its consumed-frame counter is the precise monotonic clock the
// scheduler anchors sounding instants to: one second of clock passes exactly
// when one sample rate's worth of frames has been rendered, so the clock is
// immune to wall-time jitter and behaves identically under offline rendering.
type Mixer struct {
	sampleRate int
	frames     atomic.Int64 // frames rendered since creation

	mu     sync.Mutex
	voices []scheduledVoice
	tap    func([]float32)
}

type scheduledVoice struct {
	start int64 // absolute frame of onset
	voice *click.Voice
}

func NewMixer(sampleRate int) *Mixer {
	return &Mixer{sampleRate: sampleRate}
}

func (m *Mixer) SampleRate() int { return m.sampleRate }

// Now returns the precise clock in seconds.
func (m *Mixer) Now() float64 {
	return float64(m.frames.Load()) / float64(m.sampleRate)
}

// ScheduleClick enqueues one click to begin sounding at the given instant.
// An instant that has already passed starts on the next rendered frame rather
// than being dropped.
func (m *Mixer) ScheduleClick(at float64, spec click.Spec) {
	start := int64(math.Round(at * float64(m.sampleRate)))
	v := click.NewVoice(m.sampleRate, spec)

	m.mu.Lock()
	defer m.mu.Unlock()
	if now := m.frames.Load(); start < now {
		start = now
	}
	m.voices = append(m.voices, scheduledVoice{start: start, voice: v})
}

// SetSampleTap installs a callback invoked with each rendered stereo buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func (m *Mixer) SetSampleTap(tap func([]float32)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tap = tap
}

// Process renders the next len(dst)/2 frames of interleaved stereo into dst
// and advances the clock. Overlapping voices are summed and hard-limited to
// [-1, 1].
func (m *Mixer) Process(dst []float32) {
	frames := len(dst) / 2
	base := m.frames.Load()

	m.mu.Lock()
	for i := 0; i < frames; i++ {
		abs := base + int64(i)
		var sum float32
		for j := range m.voices {
			sv := &m.voices[j]
			if abs < sv.start || sv.voice.Done() {
				continue
			}
			sum += sv.voice.Next()
		}
		if sum > 1 {
			sum = 1
		} else if sum < -1 {
			sum = -1
		}
		dst[2*i] = sum
		dst[2*i+1] = sum
	}
	// drop finished voices
	live := m.voices[:0]
	for _, sv := range m.voices {
		if !sv.voice.Done() {
			live = append(live, sv)
		}
	}
	m.voices = live
	tap := m.tap
	m.mu.Unlock()

	m.frames.Add(int64(frames))
	if tap != nil {
		tap(dst)
	}
}

// Pending returns the number of voices that are scheduled or still sounding.
func (m *Mixer) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.voices)
}
