package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S1 - impulse delay: distinct L/R delay times produce the unit impulse at
// the expected sample offset on each channel.
func TestStereoDelay_ImpulseS1(t *testing.T) {
	const sampleRate = 48000
	d := NewStereoDelay(sampleRate)

	const timeL, timeR = 0.1, 0.2
	wantL := int(timeL * sampleRate)
	wantR := int(timeR * sampleRate)

	firstNonZeroL, firstNonZeroR := -1, -1
	for n := 0; n < wantR+200; n++ {
		in := float32(0)
		if n == 0 {
			in = 1
		}
		l, r := d.Process(in, in, timeL, timeR, 0)
		if l != 0 && firstNonZeroL == -1 {
			firstNonZeroL = n
		}
		if r != 0 && firstNonZeroR == -1 {
			firstNonZeroR = n
		}
	}

	require.NotEqual(t, -1, firstNonZeroL)
	require.NotEqual(t, -1, firstNonZeroR)
	assert.InDelta(t, wantL, firstNonZeroL, 1)
	assert.InDelta(t, wantR, firstNonZeroR, 1)
}

// S2 - sustained silence with no feedback and all effects dry stays silent.
func TestEffectChain_SilenceInSilenceOutS2(t *testing.T) {
	const sampleRate = 48000
	ps := NewParamStore()
	ps.SetTarget(ParamDelayWet, 0)
	ps.SetTarget(ParamGrainWet, 0)
	ps.SetTarget(ParamReverbWet, 0)
	ps.SetTarget(ParamFeedbackAmount, 0)
	for i := 0; i < 200; i++ {
		ps.Tick(domainAudio)
	}

	chain := NewEffectChain(sampleRate, &runtimeCounters{})
	var maxAbs float32
	for n := 0; n < sampleRate; n++ {
		l, r := chain.ProcessSample(0, 0, 0, ps)
		if abs32(l) > maxAbs {
			maxAbs = abs32(l)
		}
		if abs32(r) > maxAbs {
			maxAbs = abs32(r)
		}
	}
	assert.Less(t, maxAbs, float32(0.000001))
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
