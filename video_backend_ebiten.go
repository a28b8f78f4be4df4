//go:build !headless

// video_backend_ebiten.go - GL-thread window host for the GPU compositor (§4.7, §5)

package main

import (
	"fmt"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
)

// EbitenHost owns the GL/Metal context and runs on a dedicated thread via
// ebiten.RunGame. It is the sole consumer of GPUCompositor's job channel;
// every uniform upload and draw happens here, strictly sequentially (§5).
type EbitenHost struct {
	compositor *GPUCompositor

	mu      sync.RWMutex
	current *ebiten.Image
	running bool
}

func NewEbitenHost(compositor *GPUCompositor) *EbitenHost {
	return &EbitenHost{compositor: compositor}
}

func (h *EbitenHost) Start() error {
	ebiten.SetWindowSize(compositorWidth/2, compositorHeight/2)
	ebiten.SetWindowTitle("visualcore")
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetVsyncEnabled(true)
	h.running = true

	go func() {
		if err := ebiten.RunGame(h); err != nil {
			fmt.Printf("video host error: %v\n", err)
		}
		h.mu.Lock()
		h.running = false
		h.mu.Unlock()
	}()
	return nil
}

// Update drains at most one pending render job per tick and runs the full
// shader pipeline. This is the GL thread; GPUCompositor.render must only
// ever be called from here.
func (h *EbitenHost) Update() error {
	select {
	case job := <-h.compositor.jobs:
		frame := h.compositor.render(job)
		h.mu.Lock()
		h.current = frame
		h.mu.Unlock()
		job.done <- frame
	default:
	}
	return nil
}

func (h *EbitenHost) Draw(screen *ebiten.Image) {
	h.mu.RLock()
	frame := h.current
	h.mu.RUnlock()
	if frame == nil {
		return
	}
	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Scale(float64(sw)/compositorWidth, float64(sh)/compositorHeight)
	screen.DrawImage(frame, opts)
}

func (h *EbitenHost) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

func (h *EbitenHost) IsRunning() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}
