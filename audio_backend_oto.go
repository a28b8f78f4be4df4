//go:build !headless

// audio_backend_oto.go - oto/v3 audio output backend, driven by AudioEngine

package main

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ebitengine/oto/v3"
)

// OtoPlayer drives AudioEngine.Process through oto's io.Reader callback
// contract, generalized from the teacher's single mono output chip to
// NumOutputChannels interleaved float32 channels. oto has no capture path,
// so input samples are supplied by a paired InputCapture.
type OtoPlayer struct {
	ctx     *oto.Context
	player  *oto.Player
	engine  atomic.Pointer[AudioEngine]
	capture InputCapture
	bufSize int

	inBufs  [NumInputTracks][]float32
	outBufs [NumOutputChannels][]float32

	started bool
	mutex   sync.Mutex
}

func NewOtoPlayer(sampleRate int, capture InputCapture) (*OtoPlayer, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: NumOutputChannels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   4,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	return &OtoPlayer{ctx: ctx, capture: capture, bufSize: 256}, nil
}

func (op *OtoPlayer) SetupPlayer(engine *AudioEngine) {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	op.engine.Store(engine)
	op.player = op.ctx.NewPlayer(op)
	for i := range op.inBufs {
		op.inBufs[i] = make([]float32, op.bufSize)
	}
	for i := range op.outBufs {
		op.outBufs[i] = make([]float32, op.bufSize)
	}
}

// Read is the oto hot-path callback: no allocation, no locking beyond the
// atomic engine pointer load (§5: the audio callback must not block).
func (op *OtoPlayer) Read(p []byte) (n int, err error) {
	engine := op.engine.Load()
	if engine == nil {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	frames := len(p) / (4 * NumOutputChannels)
	if frames > op.bufSize {
		frames = op.bufSize
	}

	if op.capture != nil {
		op.capture.Read(op.inBufs, frames)
	} else {
		for ch := range op.inBufs {
			for i := 0; i < frames; i++ {
				op.inBufs[ch][i] = 0
			}
		}
	}

	var in [NumInputTracks][]float32
	var out [NumOutputChannels][]float32
	for ch := range op.inBufs {
		in[ch] = op.inBufs[ch][:frames]
	}
	for ch := range op.outBufs {
		out[ch] = op.outBufs[ch][:frames]
	}

	engine.Process(in, out)

	n = frames * 4 * NumOutputChannels
	for i := 0; i < frames; i++ {
		for ch := 0; ch < NumOutputChannels; ch++ {
			v := out[ch][i]
			off := (i*NumOutputChannels + ch) * 4
			*(*float32)(unsafe.Pointer(&p[off])) = v
		}
	}
	return n, nil
}

func (op *OtoPlayer) Start() {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if !op.started && op.player != nil {
		op.player.Play()
		op.started = true
	}
}

func (op *OtoPlayer) Stop() {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if op.started && op.player != nil {
		op.player.Close()
		op.started = false
	}
}

func (op *OtoPlayer) Close() {
	op.Stop()
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if op.player != nil {
		op.player.Close()
		op.player = nil
	}
}

func (op *OtoPlayer) IsStarted() bool {
	op.mutex.Lock()
	defer op.mutex.Unlock()
	return op.started
}
