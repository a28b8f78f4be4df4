// audio_input.go - capture-side abstraction paired with a playback backend

package main

// InputCapture supplies the NumInputTracks mono input channels a playback
// backend cannot itself capture (oto is playback-only). Read fills each
// channel slice's first `frames` samples; implementations must not block
// longer than the playback backend's own buffer period.
type InputCapture interface {
	Read(dst [NumInputTracks][]float32, frames int)
	Close() error
}

// silentCapture is the default InputCapture when no hardware capture
// device is configured: it hands back silence, letting the effect chain
// and CV emission run (and be auditioned) without a live signal.
type silentCapture struct{}

func (silentCapture) Read(dst [NumInputTracks][]float32, frames int) {
	for ch := range dst {
		for i := 0; i < frames; i++ {
			dst[ch][i] = 0
		}
	}
}

func (silentCapture) Close() error { return nil }
