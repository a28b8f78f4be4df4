// effect_reverb.go - Schroeder-style stereo reverb with feedback (§4.3.5)

package main

// Comb/allpass base lengths in milliseconds, converted to samples at the
// running sample rate.
var combBaseMs = [4]float32{29.7, 37.1, 41.1, 43.7}
var allpassBaseMs = [4]float32{5.0, 1.7, 0.9, 0.3}

// rightChannelOffsetSamples widens the right channel's buffers for stereo
// spread per §4.3.5.
const rightChannelOffsetSamples = 23

type comb struct {
	buf      []float32
	writePos int
	lp       float32
}

func newComb(sizeSamples int) *comb {
	if sizeSamples < 1 {
		sizeSamples = 1
	}
	return &comb{buf: make([]float32, sizeSamples)}
}

func (c *comb) process(in, feedback, damping, roomScale float32) float32 {
	out := c.buf[c.writePos]
	c.lp += (out - c.lp) * damping
	c.buf[c.writePos] = in*roomScale + c.lp*feedback
	c.writePos = (c.writePos + 1) % len(c.buf)
	return out
}

type allpass struct {
	buf      []float32
	writePos int
}

func newAllpass(sizeSamples int) *allpass {
	if sizeSamples < 1 {
		sizeSamples = 1
	}
	return &allpass{buf: make([]float32, sizeSamples)}
}

func (a *allpass) process(in float32) float32 {
	bufOut := a.buf[a.writePos]
	out := -in + bufOut
	a.buf[a.writePos] = in + bufOut*0.5
	a.writePos = (a.writePos + 1) % len(a.buf)
	return out
}

// dcBlocker is a one-pole highpass used to remove DC offset (§4.3.5).
type dcBlocker struct {
	x1, y1 float32
	r      float32
}

func newDCBlocker(sampleRate, cutoffHz float32) *dcBlocker {
	return &dcBlocker{r: 1 - (TWO_PI * cutoffHz / sampleRate)}
}

func (d *dcBlocker) process(in float32) float32 {
	out := in - d.x1 + d.r*d.y1
	d.x1 = in
	d.y1 = out
	return out
}

// schroederUnit is one channel's 4-comb/4-allpass reverb unit.
type schroederUnit struct {
	combs     [4]*comb
	allpasses [4]*allpass
	dc        *dcBlocker
}

func newSchroederUnit(sampleRate int, offsetSamples int) *schroederUnit {
	u := &schroederUnit{dc: newDCBlocker(float32(sampleRate), 100)}
	for i := 0; i < 4; i++ {
		sz := int(combBaseMs[i]/1000*float32(sampleRate)) + offsetSamples
		u.combs[i] = newComb(sz)
	}
	for i := 0; i < 4; i++ {
		sz := int(allpassBaseMs[i]/1000*float32(sampleRate)) + offsetSamples
		u.allpasses[i] = newAllpass(sz)
	}
	return u
}

func (u *schroederUnit) process(in, room, decay, damping float32) float32 {
	feedback := 0.5 + decay*0.485
	dampingCoeff := 0.05 + damping*0.9
	roomScale := 0.3 + room*1.4

	var sum float32
	for _, c := range u.combs {
		sum += c.process(in, feedback, dampingCoeff, roomScale)
	}
	sum /= 4
	for _, a := range u.allpasses {
		sum = a.process(sum)
	}
	return u.dc.process(sum)
}

// StereoReverb holds two independently-sized Schroeder units (§4.3.5).
type StereoReverb struct {
	left, right *schroederUnit
}

func NewStereoReverb(sampleRate int) *StereoReverb {
	return &StereoReverb{
		left:  newSchroederUnit(sampleRate, 0),
		right: newSchroederUnit(sampleRate, rightChannelOffsetSamples),
	}
}

func (r *StereoReverb) Process(l, rIn, room, decay, damping float32) (float32, float32) {
	return r.left.process(l, room, decay, damping), r.right.process(rIn, room, decay, damping)
}
