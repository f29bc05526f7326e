package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cadencekit/metronome"
)

func main() {
	var (
		sampleRate  = flag.Int("sample-rate", 48000, "output sample rate")
		bpm         = flag.Float64("bpm", 120, "tempo in beats per minute (20-400)")
		beats       = flag.Int("beats", 4, "beats per bar")
		subdivision = flag.Int("subdivision", 1, "ticks per beat: 1|2|3|4")
		accent      = flag.Bool("accent", true, "accent the bar downbeat")
		timbreName  = flag.String("timbre", "bright", "click timbre: bright|warm|tone")
		volume      = flag.Float64("volume", 1.0, "click volume (0-1)")
		duration    = flag.Duration("duration", 0, "stop after this long (0 = run until interrupted)")
		tapMode     = flag.Bool("tap", false, "press Enter to tap the tempo in")
		verbose     = flag.Bool("verbose", false, "log engine activity")
	)
	flag.Parse()

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	timbre, err := parseTimbre(*timbreName)
	if err != nil {
		log.Fatal(err)
	}

	engine, err := metronome.NewEngine(*sampleRate, metronome.WithLogger(log))
	if err != nil {
		log.Fatal(err)
	}
	defer engine.Close()

	engine.SetSettings(metronome.Settings{
		BPM:            *bpm,
		BeatsPerBar:    *beats,
		Subdivision:    *subdivision,
		AccentDownbeat: *accent,
		Timbre:         timbre,
		Volume:         *volume,
	})

	pulses := engine.Watch()
	if err := engine.Start(); err != nil {
		log.Fatalf("could not start: %v", err)
	}

	if *tapMode {
		fmt.Println("tap mode: press Enter on the beat (Ctrl+C to quit)")
		go tapLoop(engine)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)

	var timeout <-chan time.Time
	if *duration > 0 {
		timeout = time.After(*duration)
	}

	for {
		select {
		case p := <-pulses:
			printPulse(p)
		case <-quit:
			fmt.Println()
			engine.Stop()
			return
		case <-timeout:
			engine.Stop()
			return
		}
	}
}

// tapLoop registers one tap per line of stdin and reports the estimate.
func tapLoop(engine *metronome.Engine) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if bpm, ok := engine.RegisterTap(); ok {
			fmt.Printf("tap tempo: %.1f bpm\n", bpm)
		} else {
			fmt.Println("tap tempo: keep tapping...")
		}
	}
}

func printPulse(p metronome.Pulse) {
	if p.Sub != 0 {
		return
	}
	marker := "."
	if p.Accented {
		marker = "!"
	}
	fmt.Printf("%s beat %d\n", marker, p.Beat+1)
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
