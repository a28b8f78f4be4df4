// video_compositor.go - GPU multi-pass shader compositor (§4.7)

package main

import (
	_ "embed"
	"fmt"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

//go:embed shaders/layer.kage
var layerShaderSrc []byte

//go:embed shaders/rotate.kage
var rotateShaderSrc []byte

//go:embed shaders/blend.kage
var blendShaderSrc []byte

//go:embed shaders/final.kage
var finalShaderSrc []byte

const (
	compositorWidth  = 1920
	compositorHeight = 1080
	waveformTexWidth = 512
)

// ChannelLayerConfig is one of the four audio-waveform layers' per-frame
// parameters (§4.7 input list).
type ChannelLayerConfig struct {
	Enabled     bool
	Intensity   float32
	RotationDeg float32
	Curve       float32
	Pitch       float32
}

// CompositorConfig is the full set of globals plus per-channel configs
// uploaded as shader uniforms every frame.
type CompositorConfig struct {
	Channels         [NumInputTracks]ChannelLayerConfig
	BaseHue          float32
	ColorSchemeFader float32 // [0,1]
	BlendModeFader   float32 // [0,1], mapped to [0,3] mode-space internally
	Brightness       float32
	RegionMapEnabled bool
	CameraMix        float32 // [0, 0.3]
}

// hsvPalette is one of the three named palettes the color-scheme fader
// interpolates across (Quad-90, Tri+Contrast, Tri+Between).
type hsvPalette struct {
	hueOffsets [4]float32 // degrees, added to base hue per channel
}

var (
	paletteQuad90      = hsvPalette{[4]float32{0, 90, 180, 270}}
	paletteTriContrast = hsvPalette{[4]float32{0, 150, 210, 30}}
	paletteTriBetween  = hsvPalette{[4]float32{0, 120, 240, 60}}
)

func mixPalette(a, b hsvPalette, t float32) hsvPalette {
	var out hsvPalette
	for i := range out.hueOffsets {
		out.hueOffsets[i] = a.hueOffsets[i] + (b.hueOffsets[i]-a.hueOffsets[i])*t
	}
	return out
}

// resolvePalette interpolates across the three palettes per §4.7: below 0.5
// blends the first two, above blends the second two.
func resolvePalette(fader float32) hsvPalette {
	if fader <= 0.5 {
		return mixPalette(paletteQuad90, paletteTriContrast, fader*2)
	}
	return mixPalette(paletteTriContrast, paletteTriBetween, (fader-0.5)*2)
}

// renderJob is a cross-thread request marshaled to the GL thread (§4.7,
// §5 "message channel and a completion signal"). The camera frame travels
// as raw RGBA bytes rather than an *ebiten.Image: image creation and pixel
// upload must happen on the GL thread inside render, not on the video
// driver's goroutine.
type renderJob struct {
	config     CompositorConfig
	waveforms  [NumInputTracks][]float32
	camPix     []byte
	camW, camH int
	done       chan *ebiten.Image
}

// GPUCompositor owns the GL context and runs on a dedicated goroutine via
// ebiten.RunGame. All other threads submit work through Submit, which
// blocks on completion with a 1s timeout (returns a black frame on
// timeout, per §5 cancellation policy).
type GPUCompositor struct {
	jobs    chan renderJob
	layerSh *ebiten.Shader
	rotSh   *ebiten.Shader
	blendSh *ebiten.Shader
	finalSh *ebiten.Shader

	layerTex  [NumInputTracks]*ebiten.Image
	rotTex    [NumInputTracks]*ebiten.Image
	accumTex  *ebiten.Image
	blankTex  *ebiten.Image
	waveTex   [NumInputTracks]*ebiten.Image
	waveBytes [NumInputTracks][]byte

	cameraTex              *ebiten.Image
	cameraTexW, cameraTexH int

	counters *runtimeCounters
}

func NewGPUCompositor(counters *runtimeCounters) (*GPUCompositor, error) {
	c := &GPUCompositor{jobs: make(chan renderJob, 4), counters: counters}

	var err error
	if c.layerSh, err = ebiten.NewShader(layerShaderSrc); err != nil {
		return nil, fmt.Errorf("compile layer shader: %w", err)
	}
	if c.rotSh, err = ebiten.NewShader(rotateShaderSrc); err != nil {
		return nil, fmt.Errorf("compile rotate shader: %w", err)
	}
	if c.blendSh, err = ebiten.NewShader(blendShaderSrc); err != nil {
		return nil, fmt.Errorf("compile blend shader: %w", err)
	}
	if c.finalSh, err = ebiten.NewShader(finalShaderSrc); err != nil {
		return nil, fmt.Errorf("compile final shader: %w", err)
	}

	for i := range c.layerTex {
		c.layerTex[i] = ebiten.NewImage(compositorWidth, compositorHeight)
		c.rotTex[i] = ebiten.NewImage(compositorWidth, compositorHeight)
		c.waveTex[i] = ebiten.NewImage(waveformTexWidth, 1)
		c.waveBytes[i] = make([]byte, waveformTexWidth*4)
	}
	c.accumTex = ebiten.NewImage(compositorWidth, compositorHeight)
	c.blankTex = ebiten.NewImage(compositorWidth, compositorHeight)

	return c, nil
}

// Submit marshals a render request to the GL thread and blocks for the
// result, timing out after 1s per §5. camPix is packed RGBA bytes (camW x
// camH); pass a nil/empty slice when no camera frame is available yet.
func (c *GPUCompositor) Submit(config CompositorConfig, waveforms [NumInputTracks][]float32, camPix []byte, camW, camH int) *ebiten.Image {
	job := renderJob{config: config, waveforms: waveforms, camPix: camPix, camW: camW, camH: camH, done: make(chan *ebiten.Image, 1)}
	select {
	case c.jobs <- job:
	default:
		if c.counters != nil {
			c.counters.recordRenderTimeout()
		}
		return c.blankTex
	}
	select {
	case frame := <-job.done:
		return frame
	case <-time.After(time.Second):
		if c.counters != nil {
			c.counters.recordRenderTimeout()
		}
		return c.blankTex
	}
}

// render performs one frame's full pipeline; only ever called from the GL
// thread (Update/Draw), never concurrently with another render.
func (c *GPUCompositor) render(job renderJob) *ebiten.Image {
	for i, wave := range job.waveforms {
		packWaveformTexture(c.waveBytes[i], wave)
		c.waveTex[i].WritePixels(c.waveBytes[i])
	}

	palette := resolvePalette(job.config.ColorSchemeFader)
	var composited [NumInputTracks]*ebiten.Image

	for i := 0; i < NumInputTracks; i++ {
		ch := job.config.Channels[i]
		c.layerTex[i].Clear()
		composited[i] = c.layerTex[i]
		if !ch.Enabled {
			continue
		}
		opts := &ebiten.DrawRectShaderOptions{}
		opts.Images[0] = c.waveTex[i]
		opts.Uniforms = map[string]interface{}{
			"Intensity":     ch.Intensity,
			"Curve":         ch.Curve,
			"BaseHue":       float64(job.config.BaseHue) / 360,
			"HueRotation":   float64(palette.hueOffsets[i]) / 360,
			"WaveformWidth": float32(waveformTexWidth),
		}
		c.layerTex[i].DrawRectShader(compositorWidth, compositorHeight, c.layerSh, opts)

		if math.Abs(float64(ch.RotationDeg)) > 0.5 {
			rad := float64(ch.RotationDeg) * math.Pi / 180
			cover := float32(math.Abs(math.Cos(rad)) + math.Abs(math.Sin(rad)))
			rotOpts := &ebiten.DrawRectShaderOptions{}
			rotOpts.Images[0] = c.layerTex[i]
			rotOpts.Uniforms = map[string]interface{}{
				"AngleRadians": float32(rad),
				"CoverScale":   cover,
				"Center":       [2]float32{0.5, 0.5},
			}
			c.rotTex[i].Clear()
			c.rotTex[i].DrawRectShader(compositorWidth, compositorHeight, c.rotSh, rotOpts)
			composited[i] = c.rotTex[i]
		}
	}

	cameraTex := c.resolveCameraTex(job.camPix, job.camW, job.camH)

	c.accumTex.Clear()
	for i := 0; i < NumInputTracks; i++ {
		if !job.config.Channels[i].Enabled {
			continue
		}
		opts := &ebiten.DrawRectShaderOptions{}
		opts.Images[0] = composited[i]
		opts.Images[1] = c.accumTex
		opts.Images[2] = cameraTex
		regionMap := float32(0)
		if job.config.RegionMapEnabled {
			regionMap = 1
		}
		opts.Uniforms = map[string]interface{}{
			"BlendFader":       job.config.BlendModeFader * 3,
			"RegionMapEnabled": regionMap,
			"ChannelIndex":     float32(i),
		}
		next := ebiten.NewImage(compositorWidth, compositorHeight)
		next.DrawRectShader(compositorWidth, compositorHeight, c.blendSh, opts)
		c.accumTex = next
	}

	out := ebiten.NewImage(compositorWidth, compositorHeight)
	finalOpts := &ebiten.DrawRectShaderOptions{}
	finalOpts.Images[0] = c.accumTex
	finalOpts.Images[1] = cameraTex
	finalOpts.Uniforms = map[string]interface{}{
		"Brightness": job.config.Brightness,
		"CameraMix":  job.config.CameraMix,
	}
	out.DrawRectShader(compositorWidth, compositorHeight, c.finalSh, finalOpts)
	return out
}

// resolveCameraTex lazily (re)allocates the camera texture when the source
// dimensions change and uploads the latest frame; only ever called from the
// GL thread inside render. Falls back to blankTex when no frame is ready.
func (c *GPUCompositor) resolveCameraTex(pix []byte, w, h int) *ebiten.Image {
	if len(pix) == 0 || w <= 0 || h <= 0 {
		return c.blankTex
	}
	if c.cameraTex == nil || c.cameraTexW != w || c.cameraTexH != h {
		c.cameraTex = ebiten.NewImage(w, h)
		c.cameraTexW, c.cameraTexH = w, h
	}
	c.cameraTex.WritePixels(pix)
	return c.cameraTex
}

// packWaveformTexture writes a 1-row RGBA texture encoding each sample in
// [-1,1] into the red channel as [0,1], matching layer.kage's decode step.
func packWaveformTexture(dst []byte, samples []float32) {
	n := len(dst) / 4
	for i := 0; i < n; i++ {
		var s float32
		if len(samples) > 0 {
			idx := i * len(samples) / n
			s = samples[idx]
		}
		v := byte(clampf32((s+1)*0.5, 0, 1) * 255)
		dst[i*4] = v
		dst[i*4+1] = v
		dst[i*4+2] = v
		dst[i*4+3] = 255
	}
}
