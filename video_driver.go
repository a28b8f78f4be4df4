// video_driver.go - per-video-frame driver: reads the parameter store,
// snapshots the display rings, fetches the latest camera frame, and submits
// a render job to the GPU compositor (§4.1, §4.7)

package main

import "time"

const videoDriverFPS = 60

// VideoDriver owns the single per-video-frame tick site: it is the thread
// that calls ParamStore.Tick(domainVideo), the only thing the compositor's
// C7 parameters are ever smoothed by (§4.1).
type VideoDriver struct {
	params     *ParamStore
	display    *DisplayRingSet
	compositor *GPUCompositor
	scanner    *ContourScanner

	waveBuf [NumInputTracks][]float32

	stop chan struct{}
}

func NewVideoDriver(params *ParamStore, display *DisplayRingSet, compositor *GPUCompositor, scanner *ContourScanner) *VideoDriver {
	d := &VideoDriver{
		params:     params,
		display:    display,
		compositor: compositor,
		scanner:    scanner,
		stop:       make(chan struct{}),
	}
	for i := range d.waveBuf {
		d.waveBuf[i] = make([]float32, waveformTexWidth)
	}
	return d
}

// Run drives the compositor at videoDriverFPS until Stop is called, joining
// within 500ms of Stop per §9's long-running-thread discipline.
func (d *VideoDriver) Run() {
	ticker := time.NewTicker(time.Second / videoDriverFPS)
	defer ticker.Stop()
	for {
		select {
		case <-d.stop:
			return
		case <-ticker.C:
			d.tick()
		}
	}
}

func (d *VideoDriver) Stop() { close(d.stop) }

func (d *VideoDriver) tick() {
	d.params.Tick(domainVideo)

	for ch := 0; ch < NumInputTracks; ch++ {
		d.display.Ring(ch).Snapshot(d.waveBuf[ch])
	}

	config := d.readConfig()

	var camPix []byte
	var camW, camH int
	if d.scanner != nil {
		if pix, w, h, ok := d.scanner.LatestFrame(); ok {
			camPix, camW, camH = pix, w, h
		}
	}

	d.compositor.Submit(config, d.waveBuf, camPix, camW, camH)
}

// readConfig assembles a CompositorConfig from the parameter store's
// currently-smoothed C7 values.
func (d *VideoDriver) readConfig() CompositorConfig {
	ps := d.params
	enabledIDs := [NumInputTracks]ParamID{ParamChan0Enabled, ParamChan1Enabled, ParamChan2Enabled, ParamChan3Enabled}
	intensityIDs := [NumInputTracks]ParamID{ParamChan0Intensity, ParamChan1Intensity, ParamChan2Intensity, ParamChan3Intensity}
	rotationIDs := [NumInputTracks]ParamID{ParamChan0Rotation, ParamChan1Rotation, ParamChan2Rotation, ParamChan3Rotation}
	curveIDs := [NumInputTracks]ParamID{ParamChan0Curve, ParamChan1Curve, ParamChan2Curve, ParamChan3Curve}
	pitchIDs := [NumInputTracks]ParamID{ParamChan0Pitch, ParamChan1Pitch, ParamChan2Pitch, ParamChan3Pitch}

	var config CompositorConfig
	for i := 0; i < NumInputTracks; i++ {
		config.Channels[i] = ChannelLayerConfig{
			Enabled:     ps.Read(enabledIDs[i]) >= 0.5,
			Intensity:   ps.Read(intensityIDs[i]),
			RotationDeg: ps.Read(rotationIDs[i]),
			Curve:       ps.Read(curveIDs[i]),
			Pitch:       ps.Read(pitchIDs[i]),
		}
	}
	config.BaseHue = ps.Read(ParamBaseHue)
	config.ColorSchemeFader = ps.Read(ParamColorSchemeFader)
	config.BlendModeFader = ps.Read(ParamBlendModeFader)
	config.Brightness = ps.Read(ParamBrightness)
	config.RegionMapEnabled = ps.Read(ParamRegionMapEnabled) >= 0.5
	config.CameraMix = ps.Read(ParamCameraMix)
	return config
}
