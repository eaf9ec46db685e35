// vgmplay plays the YMF278B wavetable part of a VGM/VGZ log through the
// chip core. FM writes in the log are passed to the attached FM engine,
// which is silent here; rips of PCM-only material play back complete.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	ymf278b "github.com/user-none/go-chip-ymf278b"
)

// chunkFrames is how many output frames each generation step produces,
// about 11ms at 44.1kHz.
const chunkFrames = 512

// Pacing thresholds in buffered bytes.
const (
	minBuffer = 9600
	maxBuffer = 19200
)

func main() {
	vgmPath := flag.String("vgm", "", "path to VGM/VGZ file (required)")
	volume := flag.Float64("volume", 1.0, "playback volume (0.0 to 1.0)")
	loop := flag.Bool("loop", false, "honor the file's loop point and play forever")
	quiet := flag.Bool("quiet", false, "suppress progress output")
	flag.Parse()

	if *vgmPath == "" {
		log.Fatal("VGM path is required. Usage: vgmplay -vgm <path>")
	}

	f, err := parseVGMFile(*vgmPath)
	if err != nil {
		log.Fatalf("Failed to load VGM: %v", err)
	}

	chip := ymf278b.New(f.clockHz)
	chip.SetMemory(ymf278b.NewWaveMemory(f.waveImage, 0))
	chip.Reset()

	player, err := newAudioPlayer(chip.SampleRate(), *volume)
	if err != nil {
		log.Fatalf("Failed to initialize audio: %v", err)
	}
	defer player.close()

	if !*quiet {
		secs := float64(f.totalSamples) / float64(chip.SampleRate())
		log.Printf("%s: %d events, %.1fs at %dHz", *vgmPath, len(f.events),
			secs, chip.SampleRate())
	}

	play(chip, player, f, *loop, *quiet)
	player.drain()
}

// play runs the event stream against the chip, generating audio in
// chunks and pacing against the playback buffer level.
func play(chip *ymf278b.YMF278B, player *audioPlayer, f *vgmFile, loop, quiet bool) {
	samplePos := uint64(0)
	next := 0

	for {
		// Apply every write scheduled inside this chunk at its exact
		// frame position, generating the frames in between.
		end := samplePos + chunkFrames
		for samplePos < end {
			for next < len(f.events) && f.events[next].sample <= samplePos {
				ev := f.events[next]
				chip.Write(ev.port*2, ev.reg)
				chip.Write(ev.port*2+1, ev.val)
				next++
			}

			run := end - samplePos
			if next < len(f.events) && f.events[next].sample < end {
				run = f.events[next].sample - samplePos
			}
			if run == 0 {
				run = 1
			}

			chip.GenerateFrames(int(run))
			player.queueSamples(chip.GetBuffer())
			samplePos += run
		}

		if next >= len(f.events) && samplePos >= f.totalSamples {
			if !loop || !f.hasLoop {
				return
			}
			next = rewindTo(f, f.loopSample)
			samplePos = f.loopSample
		}

		if !quiet && samplePos%(chunkFrames*128) < chunkFrames {
			fmt.Printf("\r%6.1fs  %2d voices", float64(samplePos)/float64(chip.SampleRate()),
				chip.ActiveVoices())
		}

		// Pacing: generation is much faster than real time, so sleep
		// whenever the playback buffer is comfortably full.
		for player.bufferLevel() > maxBuffer {
			time.Sleep(5 * time.Millisecond)
		}
		if player.bufferLevel() < minBuffer {
			continue
		}
	}
}

// rewindTo returns the index of the first event at or after the given
// sample position.
func rewindTo(f *vgmFile, sample uint64) int {
	for i, ev := range f.events {
		if ev.sample >= sample {
			return i
		}
	}
	return len(f.events)
}
