// renderclick writes a click track to a WAV file without opening an audio
// device. Useful for checking timing and timbre settings offline.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/cadencekit/metronome"
)

func main() {
	var (
		out         = flag.String("out", "click.wav", "output WAV path")
		seconds     = flag.Float64("seconds", 8, "length to render")
		sampleRate  = flag.Int("sample-rate", 48000, "output sample rate")
		bpm         = flag.Float64("bpm", 120, "tempo in beats per minute (20-400)")
		beats       = flag.Int("beats", 4, "beats per bar")
		subdivision = flag.Int("subdivision", 1, "ticks per beat: 1|2|3|4")
		accent      = flag.Bool("accent", true, "accent the bar downbeat")
		timbreName  = flag.String("timbre", "bright", "click timbre: bright|warm|tone")
		volume      = flag.Float64("volume", 1.0, "click volume (0-1)")
	)
	flag.Parse()

	timbre, err := parseTimbre(*timbreName)
	if err != nil {
		log.Fatal(err)
	}
	if *seconds <= 0 {
		log.Fatal("-seconds must be positive")
	}

	samples := metronome.RenderClickTrack(metronome.Settings{
		BPM:            *bpm,
		BeatsPerBar:    *beats,
		Subdivision:    *subdivision,
		AccentDownbeat: *accent,
		Timbre:         timbre,
		Volume:         *volume,
	}, *sampleRate, *seconds)

	wav := metronome.EncodeWAVFloat32LE(samples, *sampleRate, 2)
	if err := os.WriteFile(*out, wav, 0o644); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("wrote %s (%.1fs at %d Hz)\n", *out, *seconds, *sampleRate)
}

func parseTimbre(name string) (metronome.Timbre, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bright":
		return metronome.TimbreBright, nil
	case "warm":
		return metronome.TimbreWarm, nil
	case "tone":
		return metronome.TimbreTone, nil
	default:
		return 0, fmt.Errorf("invalid -timbre %q (expected bright|warm|tone)", name)
	}
}
