// main.go - process entry point: wires flags to Start/Stop (§6)

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
)

func main() {
	sampleRate := pflag.Int("sample-rate", 48000, "audio sample rate (44100, 48000, 96000)")
	bufferSize := pflag.Int("buffer-size", 128, "audio buffer size in frames (64, 128, 256)")
	backend := pflag.String("audio-backend", "", "audio backend: oto or alsa (default: platform)")
	shared := pflag.Bool("shared-display", false, "back the display ring with shared memory for a separate video process")
	cameraDevice := pflag.Int("camera", 0, "camera device index")
	snapshot := pflag.String("snapshot", "", "parameter snapshot YAML to load at startup")
	pflag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	log.SetDefault(logger)

	audioCfg := AudioConfig{
		SampleRate:    *sampleRate,
		BufferSize:    *bufferSize,
		Backend:       *backend,
		SharedDisplay: *shared,
	}
	videoCfg := VideoConfig{CameraDevice: *cameraDevice}

	handle, err := Start(audioCfg, videoCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}

	if *snapshot != "" {
		if _, err := LoadSnapshot(*snapshot, handle.params); err != nil {
			log.Warn("could not load snapshot", "path", *snapshot, "err", err)
		}
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	if err := Stop(handle); err != nil {
		log.Error("shutdown error", "err", err)
	}
}
