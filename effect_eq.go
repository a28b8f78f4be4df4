// effect_eq.go - Three-band EQ: low-shelf, peak, high-shelf (§4.3.2)

package main

import "math"

// biquad is a standard Direct Form I biquad filter.
type biquad struct {
	b0, b1, b2, a1, a2 float32
	x1, x2, y1, y2     float32
}

func (bq *biquad) process(in float32) float32 {
	out := bq.b0*in + bq.b1*bq.x1 + bq.b2*bq.x2 - bq.a1*bq.y1 - bq.a2*bq.y2
	bq.x2 = bq.x1
	bq.x1 = in
	bq.y2 = bq.y1
	bq.y1 = out
	return out
}

// lowShelf sets bq's coefficients for an RBJ low-shelf at freq with gainDB.
func (bq *biquad) lowShelf(sampleRate, freq float32, gainDB float32) {
	a := float32(math.Pow(10, float64(gainDB)/40))
	w0 := TWO_PI * freq / sampleRate
	cosw0 := float32(math.Cos(float64(w0)))
	sinw0 := float32(math.Sin(float64(w0)))
	alpha := sinw0 / 2 * float32(math.Sqrt(float64((a+1/a)*(1/0.707-1)+2)))
	twoSqrtAAlpha := 2 * float32(math.Sqrt(float64(a))) * alpha

	b0 := a * ((a + 1) - (a-1)*cosw0 + twoSqrtAAlpha)
	b1 := 2 * a * ((a - 1) - (a+1)*cosw0)
	b2 := a * ((a + 1) - (a-1)*cosw0 - twoSqrtAAlpha)
	a0 := (a + 1) + (a-1)*cosw0 + twoSqrtAAlpha
	a1 := -2 * ((a - 1) + (a+1)*cosw0)
	a2 := (a + 1) + (a-1)*cosw0 - twoSqrtAAlpha

	bq.b0, bq.b1, bq.b2 = b0/a0, b1/a0, b2/a0
	bq.a1, bq.a2 = a1/a0, a2/a0
}

// highShelf sets bq's coefficients for an RBJ high-shelf at freq with gainDB.
func (bq *biquad) highShelf(sampleRate, freq float32, gainDB float32) {
	a := float32(math.Pow(10, float64(gainDB)/40))
	w0 := TWO_PI * freq / sampleRate
	cosw0 := float32(math.Cos(float64(w0)))
	sinw0 := float32(math.Sin(float64(w0)))
	alpha := sinw0 / 2 * float32(math.Sqrt(float64((a+1/a)*(1/0.707-1)+2)))
	twoSqrtAAlpha := 2 * float32(math.Sqrt(float64(a))) * alpha

	b0 := a * ((a + 1) + (a-1)*cosw0 + twoSqrtAAlpha)
	b1 := -2 * a * ((a - 1) + (a+1)*cosw0)
	b2 := a * ((a + 1) + (a-1)*cosw0 - twoSqrtAAlpha)
	a0 := (a + 1) - (a-1)*cosw0 + twoSqrtAAlpha
	a1 := 2 * ((a - 1) - (a+1)*cosw0)
	a2 := (a + 1) - (a-1)*cosw0 - twoSqrtAAlpha

	bq.b0, bq.b1, bq.b2 = b0/a0, b1/a0, b2/a0
	bq.a1, bq.a2 = a1/a0, a2/a0
}

// peakEQ sets bq's coefficients for an RBJ peaking filter at freq, Q, gainDB.
func (bq *biquad) peakEQ(sampleRate, freq, q, gainDB float32) {
	a := float32(math.Pow(10, float64(gainDB)/40))
	w0 := TWO_PI * freq / sampleRate
	cosw0 := float32(math.Cos(float64(w0)))
	sinw0 := float32(math.Sin(float64(w0)))
	alpha := sinw0 / (2 * q)

	b0 := 1 + alpha*a
	b1 := -2 * cosw0
	b2 := 1 - alpha*a
	a0 := 1 + alpha/a
	a1 := -2 * cosw0
	a2 := 1 - alpha/a

	bq.b0, bq.b1, bq.b2 = b0/a0, b1/a0, b2/a0
	bq.a1, bq.a2 = a1/a0, a2/a0
}

// ThreeBandEQ is a series low-shelf/peak/high-shelf stage, one chain per
// stereo channel. Coefficients are recomputed once per buffer, not per
// sample (§4.3.2).
type ThreeBandEQ struct {
	sampleRate float32
	lowL, midL, highL biquad
	lowR, midR, highR biquad
}

func NewThreeBandEQ(sampleRate float32) *ThreeBandEQ {
	return &ThreeBandEQ{sampleRate: sampleRate}
}

// RecomputeCoefficients is called once per callback buffer from smoothed
// gain parameters (all cut-only, [-20, 0] dB).
func (eq *ThreeBandEQ) RecomputeCoefficients(lowGainDB, midGainDB, highGainDB float32) {
	eq.lowL.lowShelf(eq.sampleRate, 200, lowGainDB)
	eq.lowR.lowShelf(eq.sampleRate, 200, lowGainDB)
	eq.midL.peakEQ(eq.sampleRate, 2000, 0.707, midGainDB)
	eq.midR.peakEQ(eq.sampleRate, 2000, 0.707, midGainDB)
	eq.highL.highShelf(eq.sampleRate, 8000, highGainDB)
	eq.highR.highShelf(eq.sampleRate, 8000, highGainDB)
}

// Process runs one stereo sample through the series of three biquads.
func (eq *ThreeBandEQ) Process(l, r float32) (float32, float32) {
	l = eq.lowL.process(l)
	l = eq.midL.process(l)
	l = eq.highL.process(l)
	r = eq.lowR.process(r)
	r = eq.midR.process(r)
	r = eq.highR.process(r)
	return l, r
}
