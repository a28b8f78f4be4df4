package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Invariant 5 - with identical input and parameters, stereo reverb L/R
// outputs are decorrelated (Pearson correlation <= 0.3) thanks to the
// right channel's sample-offset comb/allpass bank.
func TestStereoReverb_LRDecorrelation(t *testing.T) {
	const sampleRate = 48000
	r := NewStereoReverb(sampleRate)

	n := sampleRate / 2
	l := make([]float64, 0, n)
	rr := make([]float64, 0, n)

	for i := 0; i < n; i++ {
		in := float32(0)
		if i%997 == 0 {
			in = 1 // sparse impulse train to excite the combs
		}
		outL, outR := r.Process(in, in, 0.8, 0.7, 0.5)
		l = append(l, float64(outL))
		rr = append(rr, float64(outR))
	}

	corr := pearson(l, rr)
	assert.LessOrEqual(t, corr, 0.3)
}

func pearson(a, b []float64) float64 {
	n := float64(len(a))
	var sumA, sumB, sumAB, sumA2, sumB2 float64
	for i := range a {
		sumA += a[i]
		sumB += b[i]
		sumAB += a[i] * b[i]
		sumA2 += a[i] * a[i]
		sumB2 += b[i] * b[i]
	}
	num := n*sumAB - sumA*sumB
	den := math.Sqrt((n*sumA2-sumA*sumA)*(n*sumB2-sumB*sumB))
	if den == 0 {
		return 0
	}
	return num / den
}
