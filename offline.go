package metronome

import (
	"encoding/binary"
	"math"

	"github.com/cadencekit/metronome/internal/audio"
	"github.com/cadencekit/metronome/internal/sched"
)

// RenderClickTrack renders seconds of click track offline using the same
// scheduler and mixer as realtime playback. The mixer's consumed-frame
// counter is the precise clock, so the output is bit-deterministic: the first
// click lands one start offset in, then ticks follow at 60/bpm/subdivision
// second intervals. Returns interleaved stereo float32.
func RenderClickTrack(s Settings, sampleRate int, seconds float64) []float32 {
	st := s.Clamped().schedView()
	mixer := audio.NewMixer(sampleRate)
	scheduler := sched.New(mixer, 0, nil)
	scheduler.Reset()

	frames := int(float64(sampleRate) * seconds)
	out := make([]float32, frames*2)

	// Render in poll-sized slices so the lookahead window keeps moving the
	// same way the realtime loop moves it.
	step := sampleRate / 40
	if step < 1 {
		step = 1
	}
	for rendered := 0; rendered < frames; {
		scheduler.Advance(st)
		n := step
		if rendered+n > frames {
			n = frames - rendered
		}
		mixer.Process(out[rendered*2 : (rendered+n)*2])
		rendered += n
	}
	return out
}

// EncodeWAVFloat32LE wraps interleaved float32 samples in a WAV container
// (format 3, IEEE float).
func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 4
	byteRate := sampleRate * channels * 4
	blockAlign := channels * 4
	chunkSize := 36 + dataSize
	out := make([]byte, 44+dataSize)
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(chunkSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return out
}
