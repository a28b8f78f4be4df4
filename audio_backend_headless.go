//go:build headless

// audio_backend_headless.go - headless audio backend for CI/tests

package main

import (
	"sync"
	"time"
)

// OtoPlayer in the headless build drives AudioEngine from a wall-clock
// ticker instead of a real audio driver callback, so the mixer, effect
// chain, and CV emission paths run identically under test without
// depending on oto or an attached device.
type OtoPlayer struct {
	engine  *AudioEngine
	capture InputCapture
	bufSize int

	mutex   sync.Mutex
	started bool
	stop    chan struct{}
}

func NewOtoPlayer(sampleRate int, capture InputCapture) (*OtoPlayer, error) {
	if capture == nil {
		capture = silentCapture{}
	}
	return &OtoPlayer{capture: capture, bufSize: 128, stop: make(chan struct{})}, nil
}

func (op *OtoPlayer) SetupPlayer(engine *AudioEngine) {
	op.mutex.Lock()
	defer op.mutex.Unlock()
	op.engine = engine
}

func (op *OtoPlayer) Start() {
	op.mutex.Lock()
	if op.started {
		op.mutex.Unlock()
		return
	}
	op.started = true
	engine := op.engine
	op.mutex.Unlock()

	go op.run(engine)
}

func (op *OtoPlayer) run(engine *AudioEngine) {
	var in [NumInputTracks][]float32
	var out [NumOutputChannels][]float32
	for ch := range in {
		in[ch] = make([]float32, op.bufSize)
	}
	for ch := range out {
		out[ch] = make([]float32, op.bufSize)
	}

	period := time.Second * time.Duration(op.bufSize) / 48000
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-op.stop:
			return
		case <-ticker.C:
			if engine == nil {
				continue
			}
			op.capture.Read(in, op.bufSize)
			engine.Process(in, out)
		}
	}
}

func (op *OtoPlayer) Stop() {
	op.mutex.Lock()
	defer op.mutex.Unlock()
	if op.started {
		close(op.stop)
		op.stop = make(chan struct{})
		op.started = false
	}
}

func (op *OtoPlayer) Close() {
	op.Stop()
	_ = op.capture.Close()
}

func (op *OtoPlayer) IsStarted() bool {
	op.mutex.Lock()
	defer op.mutex.Unlock()
	return op.started
}
