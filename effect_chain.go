// effect_chain.go - Serial effect graph: slicer -> EQ -> delay -> grain -> reverb (§4.3)

package main

// EffectChain wires the slice-loop sampler, EQ, delay, grain processor, and
// reverb into the serial signal path described by §4.3's diagram, including
// the output-feedback loop that closes Reverb back to the pre-EQ node at one
// sample of latency.
type EffectChain struct {
	sampleRate float32

	slicer   *Slicer
	eq       *ThreeBandEQ
	delay    *StereoDelay
	grainL   *GrainProcessor
	grainR   *GrainProcessor
	reverb   *StereoReverb

	feedbackL, feedbackR float32
	counters             *runtimeCounters
}

func NewEffectChain(sampleRate int, counters *runtimeCounters) *EffectChain {
	return &EffectChain{
		sampleRate: float32(sampleRate),
		slicer:     NewSlicer(sampleRate),
		eq:         NewThreeBandEQ(float32(sampleRate)),
		delay:      NewStereoDelay(sampleRate),
		grainL:     NewGrainProcessor(sampleRate, false),
		grainR:     NewGrainProcessor(sampleRate, true),
		reverb:     NewStereoReverb(sampleRate),
		counters:   counters,
	}
}

// RecomputeEQCoefficients must be called once per buffer, not per sample.
func (c *EffectChain) RecomputeEQCoefficients(ps *ParamStore) {
	c.eq.RecomputeCoefficients(ps.Read(ParamEQLowGain), ps.Read(ParamEQMidGain), ps.Read(ParamEQHighGain))
}

// ProcessSample runs one stereo sample through the full chain. inL/inR is
// the dry mixer output for this sample; monoIn is fed to the slicer's
// shadow-buffer recorder.
func (c *EffectChain) ProcessSample(inL, inR, monoIn float32, ps *ParamStore) (float32, float32) {
	c.slicer.AppendInput(monoIn)

	sliceL, sliceR := c.slicer.Process(ps.Read(ParamVoiceSpeed))
	entryL := sanitize(inL+sliceL+c.feedbackL, c.counters)
	entryR := sanitize(inR+sliceR+c.feedbackR, c.counters)

	eqL, eqR := c.eq.Process(entryL, entryR)

	delWet := ps.Read(ParamDelayWet)
	delL, delR := c.delay.Process(eqL, eqR, ps.Read(ParamDelayTimeL), ps.Read(ParamDelayTimeR), ps.Read(ParamDelayFeedback))
	mixL := eqL + (delL-eqL)*delWet
	mixR := eqR + (delR-eqR)*delWet

	grainWet := ps.Read(ParamGrainDensity)
	grL := c.grainL.Process(mixL, grainWet)
	grR := c.grainR.Process(mixR, grainWet)
	grainMixAmt := ps.Read(ParamGrainWet)
	mixL = mixL + (grL-mixL)*grainMixAmt
	mixR = mixR + (grR-mixR)*grainMixAmt

	reverbWet := ps.Read(ParamReverbWet)
	rvL, rvR := c.reverb.Process(mixL, mixR, ps.Read(ParamReverbRoom), ps.Read(ParamReverbDecay), ps.Read(ParamReverbDamping))
	outL := mixL + (rvL-mixL)*reverbWet
	outR := mixR + (rvR-mixR)*reverbWet

	outL = sanitize(outL, c.counters)
	outR = sanitize(outR, c.counters)

	fbAmount := ps.Read(ParamFeedbackAmount) * 0.8
	c.feedbackL = fastTanh(0.3*outL) / 0.3 * fbAmount
	c.feedbackR = fastTanh(0.3*outR) / 0.3 * fbAmount

	return outL, outR
}

// SetRecording forwards to the slicer, applying the currently smoothed
// slice-length and scan parameters at the buffer-boundary commit.
func (c *EffectChain) SetRecording(active bool, ps *ParamStore) {
	c.slicer.SetRecording(active, ps.Read(ParamSliceLength), ps.Read(ParamSliceScan), int(ps.Read(ParamVoiceCount)+0.5))
}
