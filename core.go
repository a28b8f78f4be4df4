// core.go - top-level wiring: start/stop/set_target (§6 programmatic interface)

package main

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// AudioConfig mirrors §6's audio stream configuration knobs.
type AudioConfig struct {
	SampleRate int // 44100 | 48000 | 96000
	BufferSize int // 64 | 128 | 256
	Backend    string // "oto", "alsa", or "" for platform default
	SharedDisplay bool
}

// VideoConfig selects the frame source backing the compositor's camera
// layer (§4.8).
type VideoConfig struct {
	CameraDevice int
	FileLoopPaths []string
	External      *ExternalFrameSourceConfig
}

type ExternalFrameSourceConfig struct {
	Region        []byte
	Width, Height int
}

// Handle is the opaque running-instance returned by Start, passed to Stop.
type Handle struct {
	params     *ParamStore
	engine     *AudioEngine
	display    *DisplayRingSet
	backend    audioBackend
	scanner    *ContourScanner
	driver     *VideoDriver
	host       *EbitenHost
	compositor *GPUCompositor
	source     FrameSource
	counters   *runtimeCounters

	mu      sync.Mutex
	stopped bool
}

type audioBackend interface {
	Start()
	Stop()
	Close()
	IsStarted() bool
}

// Start wires the parameter store, audio engine, effect chain, envelope
// bank, display ring, vision scanner, and GPU compositor into a running
// instance. Audio/GL/camera device failures are FatalStartupError and the
// core refuses to enter run state (§7).
func Start(audioCfg AudioConfig, videoCfg VideoConfig) (*Handle, error) {
	if audioCfg.SampleRate == 0 {
		audioCfg.SampleRate = 48000
	}
	if audioCfg.BufferSize == 0 {
		audioCfg.BufferSize = 128
	}

	counters := &runtimeCounters{}
	params := NewParamStore()

	display, err := NewDisplayRingSet(audioCfg.SampleRate, waveformTexWidth, audioCfg.SharedDisplay)
	if err != nil {
		return nil, &FatalStartupError{Stage: "display_ring", Err: err}
	}

	engine := NewAudioEngine(audioCfg.SampleRate, params, display, counters)

	var backend audioBackend
	switch audioCfg.Backend {
	case "alsa":
		d, err := NewALSADuplex(audioCfg.SampleRate, audioCfg.BufferSize, engine)
		if err != nil {
			display.Close()
			return nil, &FatalStartupError{Stage: "audio_alsa", Err: err}
		}
		backend = d
	default:
		op, err := NewOtoPlayer(audioCfg.SampleRate, silentCapture{})
		if err != nil {
			display.Close()
			return nil, &FatalStartupError{Stage: "audio_oto", Err: err}
		}
		op.SetupPlayer(engine)
		backend = op
	}
	backend.Start()

	source, err := buildFrameSource(videoCfg)
	if err != nil {
		backend.Close()
		display.Close()
		return nil, &FatalStartupError{Stage: "frame_source", Err: err}
	}

	compositor, err := NewGPUCompositor(counters)
	if err != nil {
		backend.Close()
		display.Close()
		return nil, &FatalStartupError{Stage: "gpu_compositor", Err: err}
	}
	host := NewEbitenHost(compositor)
	if err := host.Start(); err != nil {
		backend.Close()
		display.Close()
		return nil, &FatalStartupError{Stage: "video_host", Err: err}
	}

	scanner := NewContourScanner(source, engine)
	go scanner.Run(params)

	driver := NewVideoDriver(params, display, compositor, scanner)
	go driver.Run()

	h := &Handle{
		params: params, engine: engine, display: display, backend: backend,
		scanner: scanner, driver: driver, host: host, compositor: compositor, source: source,
		counters: counters,
	}
	log.Info("core started", "sample_rate", audioCfg.SampleRate, "buffer", audioCfg.BufferSize)
	return h, nil
}

func buildFrameSource(cfg VideoConfig) (FrameSource, error) {
	switch {
	case cfg.External != nil:
		return NewExternalFrameSource(cfg.External.Region, cfg.External.Width, cfg.External.Height), nil
	case len(cfg.FileLoopPaths) > 0:
		src, err := NewFileLoopSource(cfg.FileLoopPaths)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		src, err := NewCameraSource(cfg.CameraDevice)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
}

// SetTarget forwards to the parameter store; safe from any thread (§6).
func (h *Handle) SetTarget(id ParamID, value float32) {
	h.params.SetTarget(id, value)
}

// Stop performs cooperative shutdown of every long-running thread,
// joining within 500ms per thread per §9.
func Stop(h *Handle) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return nil
	}
	h.stopped = true

	if h.driver != nil {
		done := make(chan struct{})
		go func() { h.driver.Stop(); close(done) }()
		select {
		case <-done:
		case <-time.After(500 * time.Millisecond):
			log.Warn("video driver did not stop within 500ms")
		}
	}

	if h.scanner != nil {
		done := make(chan struct{})
		go func() { h.scanner.Stop(); close(done) }()
		select {
		case <-done:
		case <-time.After(500 * time.Millisecond):
			log.Warn("contour scanner did not stop within 500ms")
		}
	}

	h.backend.Stop()
	h.backend.Close()

	if h.source != nil {
		_ = h.source.Close()
	}
	h.display.Close()

	log.Info("core stopped")
	return nil
}
