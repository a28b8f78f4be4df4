// effect_delay.go - Stereo delay with independent L/R times (§4.3.3)

package main

const maxDelaySeconds = 2

// delayLine is a single-channel ring buffer delay with feedback.
type delayLine struct {
	buf      []float32
	writePos int
}

func newDelayLine(sampleRate int) *delayLine {
	return &delayLine{buf: make([]float32, sampleRate*maxDelaySeconds)}
}

// process writes in+delayed*feedback at the write cursor, reads back the
// delayed sample, and advances. feedback is pre-scaled by the caller (0.8
// safety factor per §4.3.3).
func (d *delayLine) process(in, delaySeconds, feedback, sampleRate float32) float32 {
	delaySamples := int(delaySeconds*sampleRate + 0.5)
	n := len(d.buf)
	if delaySamples >= n {
		delaySamples = n - 1
	}
	if delaySamples < 0 {
		delaySamples = 0
	}
	readPos := d.writePos - delaySamples
	readPos %= n
	if readPos < 0 {
		readPos += n
	}
	delayed := d.buf[readPos]
	d.buf[d.writePos] = in + delayed*feedback
	d.writePos = (d.writePos + 1) % n
	return delayed
}

// StereoDelay holds two independent delay lines.
type StereoDelay struct {
	left, right *delayLine
	sampleRate  float32
}

func NewStereoDelay(sampleRate int) *StereoDelay {
	return &StereoDelay{
		left:       newDelayLine(sampleRate),
		right:      newDelayLine(sampleRate),
		sampleRate: float32(sampleRate),
	}
}

// Process runs one stereo sample through both delay lines.
func (sd *StereoDelay) Process(l, r, timeL, timeR, feedback float32) (float32, float32) {
	fb := clampf32(feedback, 0, 0.95) * 0.8
	outL := sd.left.process(l, timeL, fb, sd.sampleRate)
	outR := sd.right.process(r, timeR, fb, sd.sampleRate)
	return outL, outR
}
