//go:build !headless

// audio_backend_alsa.go - ALSA full-duplex backend: 4ch capture, 7ch playback

package main

/*
#cgo LDFLAGS: -lasound
#cgo CFLAGS: -Ofast -march=native -mtune=native -flto
#include <alsa/asoundlib.h>
#include <stdlib.h>

static snd_pcm_t* openPCM(const char* device, int stream, int* err) {
    snd_pcm_t* handle;
    *err = snd_pcm_open(&handle, device, (snd_pcm_stream_t)stream, 0);
    return handle;
}

static int setupPCM(snd_pcm_t* handle, unsigned int rate, unsigned int channels) {
    snd_pcm_hw_params_t* params;
    int err;

    snd_pcm_hw_params_alloca(&params);
    err = snd_pcm_hw_params_any(handle, params);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_access(handle, params, SND_PCM_ACCESS_RW_INTERLEAVED);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_format(handle, params, SND_PCM_FORMAT_FLOAT);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_channels(handle, params, channels);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_rate(handle, params, rate, 0);
    if (err < 0) return err;

    err = snd_pcm_hw_params(handle, params);
    if (err < 0) return err;

    return snd_pcm_prepare(handle);
}

static int writePCM(snd_pcm_t* handle, float* buffer, int frames) {
    return snd_pcm_writei(handle, buffer, frames);
}

static int readPCM(snd_pcm_t* handle, float* buffer, int frames) {
    return snd_pcm_readi(handle, buffer, frames);
}

static void closePCM(snd_pcm_t* handle) {
    if (handle != NULL) {
        snd_pcm_drain(handle);
        snd_pcm_close(handle);
    }
}
*/
import "C"
import (
	"fmt"
	"sync"
	"unsafe"
)

const (
	alsaStreamPlayback = C.SND_PCM_STREAM_PLAYBACK
	alsaStreamCapture  = C.SND_PCM_STREAM_CAPTURE
)

// ALSADuplex drives AudioEngine directly from a dedicated goroutine: it
// reads NumInputTracks-channel interleaved capture frames, calls
// engine.Process, and writes NumOutputChannels-channel interleaved frames
// back out, both through the DC-coupled interface's two PCM substreams.
type ALSADuplex struct {
	capHandle  *C.snd_pcm_t
	playHandle *C.snd_pcm_t

	engine     *AudioEngine
	sampleRate int
	bufFrames  int

	captureBuf  []float32 // interleaved, NumInputTracks per frame
	playbackBuf []float32 // interleaved, NumOutputChannels per frame
	inBufs      [NumInputTracks][]float32
	outBufs     [NumOutputChannels][]float32

	mutex   sync.Mutex
	started bool
	playing bool
	stop    chan struct{}
}

func NewALSADuplex(sampleRate, bufFrames int, engine *AudioEngine) (*ALSADuplex, error) {
	var err C.int

	capHandle := C.openPCM(C.CString("default"), C.int(alsaStreamCapture), &err)
	if err < 0 {
		return nil, fmt.Errorf("open capture PCM: %s", C.GoString(C.snd_strerror(err)))
	}
	if err = C.setupPCM(capHandle, C.uint(sampleRate), C.uint(NumInputTracks)); err < 0 {
		C.closePCM(capHandle)
		return nil, fmt.Errorf("setup capture PCM: %s", C.GoString(C.snd_strerror(err)))
	}

	playHandle := C.openPCM(C.CString("default"), C.int(alsaStreamPlayback), &err)
	if err < 0 {
		C.closePCM(capHandle)
		return nil, fmt.Errorf("open playback PCM: %s", C.GoString(C.snd_strerror(err)))
	}
	if err = C.setupPCM(playHandle, C.uint(sampleRate), C.uint(NumOutputChannels)); err < 0 {
		C.closePCM(capHandle)
		C.closePCM(playHandle)
		return nil, fmt.Errorf("setup playback PCM: %s", C.GoString(C.snd_strerror(err)))
	}

	d := &ALSADuplex{
		capHandle:   capHandle,
		playHandle:  playHandle,
		engine:      engine,
		sampleRate:  sampleRate,
		bufFrames:   bufFrames,
		captureBuf:  make([]float32, bufFrames*NumInputTracks),
		playbackBuf: make([]float32, bufFrames*NumOutputChannels),
		stop:        make(chan struct{}),
	}
	for ch := range d.inBufs {
		d.inBufs[ch] = make([]float32, bufFrames)
	}
	for ch := range d.outBufs {
		d.outBufs[ch] = make([]float32, bufFrames)
	}
	return d, nil
}

func (d *ALSADuplex) Start() {
	d.mutex.Lock()
	if d.started {
		d.mutex.Unlock()
		return
	}
	d.started = true
	d.playing = true
	d.mutex.Unlock()

	go d.run()
}

func (d *ALSADuplex) run() {
	for {
		select {
		case <-d.stop:
			return
		default:
		}

		frames := C.readPCM(d.capHandle, (*C.float)(unsafe.Pointer(&d.captureBuf[0])), C.int(d.bufFrames))
		if frames < 0 {
			C.snd_pcm_prepare(d.capHandle)
			continue
		}
		n := int(frames)

		for i := 0; i < n; i++ {
			for ch := 0; ch < NumInputTracks; ch++ {
				d.inBufs[ch][i] = d.captureBuf[i*NumInputTracks+ch]
			}
		}

		var in [NumInputTracks][]float32
		var out [NumOutputChannels][]float32
		for ch := range d.inBufs {
			in[ch] = d.inBufs[ch][:n]
		}
		for ch := range d.outBufs {
			out[ch] = d.outBufs[ch][:n]
		}
		d.engine.Process(in, out)

		for i := 0; i < n; i++ {
			for ch := 0; ch < NumOutputChannels; ch++ {
				d.playbackBuf[i*NumOutputChannels+ch] = out[ch][i]
			}
		}

		written := C.writePCM(d.playHandle, (*C.float)(unsafe.Pointer(&d.playbackBuf[0])), C.int(n))
		if written < 0 {
			C.snd_pcm_prepare(d.playHandle)
		}
	}
}

func (d *ALSADuplex) IsStarted() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.started
}

func (d *ALSADuplex) Stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.playing {
		close(d.stop)
		d.playing = false
		d.started = false
	}
}

func (d *ALSADuplex) Close() {
	d.Stop()
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.capHandle != nil {
		C.closePCM(d.capHandle)
		d.capHandle = nil
	}
	if d.playHandle != nil {
		C.closePCM(d.playHandle)
		d.playHandle = nil
	}
}
