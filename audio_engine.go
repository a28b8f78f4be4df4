// audio_engine.go - Audio callback engine: mixer, effect chain, CV emission (§4.2)

package main

import "math"

const (
	NumInputTracks  = 4
	NumOutputChannels = 7 // L, R, ENV1, ENV2, ENV3, SEQ1, SEQ2
)

// AudioEngine is driven once per buffer by the platform audio backend
// (oto/ALSA). It owns the parameter store, effect chain, envelope bank, and
// display ring — everything the real-time callback touches — and performs
// no locking and no I/O inside Process. Process does allocate in two cases:
// when vision trigger events are pending (the trigger queue's drain builds a
// slice) and on the buffer where recording stops (the slicer copies the loop
// into a new buffer and rebuilds its slice and voice tables).
type AudioEngine struct {
	sampleRate int
	params     *ParamStore
	chain      *EffectChain
	envelopes  *EnvelopeBank
	display    *DisplayRingSet
	counters   *runtimeCounters

	cursor struct {
		x, y, anchorX, anchorY, rangeParam atomicFloat
	}
}

func NewAudioEngine(sampleRate int, params *ParamStore, display *DisplayRingSet, counters *runtimeCounters) *AudioEngine {
	return &AudioEngine{
		sampleRate: sampleRate,
		params:     params,
		chain:      NewEffectChain(sampleRate, counters),
		envelopes:  &EnvelopeBank{},
		display:    display,
		counters:   counters,
	}
}

// panGains returns constant-power L/R gains for a track's gain/pan pair.
func panGains(gain, pan float32) (gL, gR float32) {
	angle := (pan + 1) * math.Pi / 4
	return gain * float32(math.Cos(float64(angle))), gain * float32(math.Sin(float64(angle)))
}

// Process runs one buffer of Nb frames. in is Nc×Nb input samples laid out
// one slice per channel (in[ch][i], not interleaved); out is written as
// NumOutputChannels×Nb in the same layout.
func (e *AudioEngine) Process(in [NumInputTracks][]float32, out [NumOutputChannels][]float32) {
	nb := len(out[0])

	e.params.Tick(domainAudio)
	e.envelopes.ApplyTriggers()
	e.chain.RecomputeEQCoefficients(e.params)

	gains := [NumInputTracks][2]float32{}
	ids := [NumInputTracks]ParamID{ParamTrackGain0, ParamTrackGain1, ParamTrackGain2, ParamTrackGain3}
	pans := [NumInputTracks]ParamID{ParamTrackPan0, ParamTrackPan1, ParamTrackPan2, ParamTrackPan3}
	for t := 0; t < NumInputTracks; t++ {
		gL, gR := panGains(e.params.Read(ids[t]), e.params.Read(pans[t]))
		gains[t] = [2]float32{gL, gR}
	}

	dt := float32(1.0 / float64(e.sampleRate))
	monoCollapse := e.params.Read(ParamMonoCollapse) >= 0.5
	recording := e.params.Read(ParamRecordingActive) >= 0.5
	e.chain.SetRecording(recording, e.params)

	rangeParam := e.params.Read(ParamSeqRange)
	anchorX := e.params.Read(ParamAnchorX)
	anchorY := e.params.Read(ParamAnchorY)

	for i := 0; i < nb; i++ {
		var mixL, mixR float32
		for t := 0; t < NumInputTracks; t++ {
			s := in[t][i]
			mixL += s * gains[t][0]
			mixR += s * gains[t][1]
		}
		monoIn := (mixL + mixR) * 0.5
		if monoCollapse {
			mixL, mixR = monoIn, monoIn
		}

		outL, outR := e.chain.ProcessSample(mixL, mixR, monoIn, e.params)
		out[0][i] = outL
		out[1][i] = outR

		// CV emission ordering per §4.2: envelope decay -> sequencer
		// recompute (using the latest atomically-readable cursor) -> pack.
		e1, e2, e3 := e.envelopes.StepSample(dt, e.params)
		e.envelopes.UpdateSequencers(e.cursor.x.load(), e.cursor.y.load(), anchorX, anchorY, rangeParam)
		seq1, seq2 := e.envelopes.SeqValues()

		out[2][i] = e1
		out[3][i] = e2
		out[4][i] = e3
		out[5][i] = seq1
		out[6][i] = seq2

		if e.display != nil {
			e.display.Write(0, in[0][i])
			e.display.Write(1, in[1][i])
			e.display.Write(2, in[2][i])
			e.display.Write(3, in[3][i])
		}
	}
}

// UpdateCursor is called by C5 (at video/vision rate, not sample rate) to
// atomically publish the latest contour cursor position for the sequencer
// recompute step. §4.4: "read (atomic per-channel) by C2 at sample rate; no
// sample-accurate contour is required."
func (e *AudioEngine) UpdateCursor(x, y float32) {
	e.cursor.x.store(x)
	e.cursor.y.store(y)
}

// EnqueueTrigger lets C5 fire an envelope trigger from the vision thread.
func (e *AudioEngine) EnqueueTrigger(ev triggerEvent) {
	e.envelopes.queue.push(ev)
}
