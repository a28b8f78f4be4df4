// audio_lut.go - tanh lookup table for the effect chain's output-feedback
// soft clip (§4.3, feedback loop closing Reverb back to the chain entry)

package main

import "math"

const TWO_PI = 2 * math.Pi

// tanhLUTSize/Min/Max are sized around the feedback soft-clip's actual
// operating range: EffectChain.ProcessSample scales the sanitized chain
// output by 0.3 before calling fastTanh, and fbAmount caps the result at
// 0.8x, so inputs rarely approach the table edges even under runaway
// feedback resonance.
const (
	tanhLUTSize = 2048
	tanhLUTMin  = float32(-4.0)
	tanhLUTMax  = float32(4.0)
)

const tanhLUTScale = float32(tanhLUTSize-1) / (tanhLUTMax - tanhLUTMin)

var tanhLUT [tanhLUTSize]float32

func init() {
	for i := 0; i < tanhLUTSize; i++ {
		x := float64(tanhLUTMin) + float64(i)*float64(tanhLUTMax-tanhLUTMin)/float64(tanhLUTSize-1)
		tanhLUT[i] = float32(math.Tanh(x))
	}
}

// fastTanh returns tanh(x) via linear interpolation over tanhLUT. Used by
// EffectChain's feedback soft-clip, which runs once per sample per channel
// and can't afford a math.Tanh call there.
//
//go:nosplit
func fastTanh(x float32) float32 {
	if x <= tanhLUTMin {
		return -1.0
	}
	if x >= tanhLUTMax {
		return 1.0
	}

	indexF := (x - tanhLUTMin) * tanhLUTScale
	index := int(indexF)
	frac := indexF - float32(index)

	if index < 0 {
		return tanhLUT[0]
	}
	if index >= tanhLUTSize-1 {
		return tanhLUT[tanhLUTSize-1]
	}

	return tanhLUT[index] + frac*(tanhLUT[index+1]-tanhLUT[index])
}

// isBadSample reports whether v is NaN or ±Inf (§4.3.7 failure semantics).
func isBadSample(v float32) bool {
	return math.IsNaN(float64(v)) || math.IsInf(float64(v), 0)
}

// sanitize forces NaN/Inf samples to 0 without raising an error.
func sanitize(v float32, counters *runtimeCounters) float32 {
	if isBadSample(v) {
		if counters != nil {
			counters.recordNaNSample()
		}
		return 0
	}
	return v
}
