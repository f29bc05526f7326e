package audio

import (
	"fmt"
	"sync"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/cadencekit/metronome/internal/click"
)

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioContextErr  error
	audioSampleRate  int
)

// The backend allows one context per process; a second sample rate is an error.
func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioContextErr != nil {
		return nil, audioContextErr
	}
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

// Device is the realtime audio output: a Mixer pulled by the platform audio
// backend. Constructing a Device has no side effects; Acquire opens the
// output and may be retried after failure (a later user gesture, say).
type Device struct {
	mu     sync.Mutex
	mixer  *Mixer
	player *ebitaudio.Player
	reader *StreamReader
}

func NewDevice(sampleRate int) *Device {
	return &Device{mixer: NewMixer(sampleRate)}
}

// Acquire opens the audio output and starts pulling from the mixer.
// Idempotent once acquired.
func (d *Device) Acquire() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.player != nil {
		return nil
	}
	ctx, err := sharedAudioContext(d.mixer.SampleRate())
	if err != nil {
		return fmt.Errorf("open audio context: %w", err)
	}
	reader := NewStreamReader(d.mixer)
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return fmt.Errorf("open audio player: %w", err)
	}
	d.reader = reader
	d.player = pl
	pl.Play()
	return nil
}

// Acquired reports whether the output is open.
func (d *Device) Acquired() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.player != nil
}

// Now returns the precise clock in seconds (frames consumed / sample rate).
func (d *Device) Now() float64 { return d.mixer.Now() }

// ScheduleClick commits one click to the device queue. Safe to call before
// Acquire; the click plays once the output is open.
func (d *Device) ScheduleClick(at float64, spec click.Spec) {
	d.mixer.ScheduleClick(at, spec)
}

// SetSampleTap forwards to the mixer for visualizers.
func (d *Device) SetSampleTap(tap func([]float32)) {
	d.mixer.SetSampleTap(tap)
}

// Close stops and releases the output. The shared context stays open; a later
// Acquire reuses it.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.player == nil {
		return nil
	}
	d.player.Pause()
	err := d.player.Close()
	d.player = nil
	if cerr := d.reader.Close(); err == nil {
		err = cerr
	}
	d.reader = nil
	return err
}
