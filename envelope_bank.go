// envelope_bank.go - Envelope and sequencer bank (§4.4)

package main

import (
	"math"
	"sync/atomic"
)

type envelopeState int

const (
	envIdle envelopeState = iota
	envDecaying
)

// Envelope is a one-shot exponential-decay generator re-triggered by C5
// contour events or a manual gate.
type Envelope struct {
	state envelopeState
	level float32
	tau   float32
}

// Trigger instantly sets level=1 and begins decaying.
func (e *Envelope) Trigger() {
	e.level = 1
	e.state = envDecaying
}

// Step advances the envelope by dt seconds using the supplied time constant.
func (e *Envelope) Step(dt, tau float32) float32 {
	if e.state != envDecaying {
		return e.level
	}
	if tau <= 0 {
		tau = 1e-6
	}
	e.level *= float32(math.Exp(float64(-dt / tau)))
	return e.level
}

// triggerEvent is what C5 enqueues for C2 to drain at the top of each
// callback (§4.5's lock-free queue note).
type triggerEvent int

const (
	triggerEnv1 triggerEvent = iota
	triggerEnv2
	triggerEnv3
	triggerEnv4 // optional fourth trigger, sharp speed-increase
)

// triggerQueue is a small SPSC lock-free ring of pending trigger events,
// written by the vision thread and drained by the audio callback.
type triggerQueue struct {
	buf  [64]triggerEvent
	head atomic.Uint32 // consumer index (audio thread)
	tail atomic.Uint32 // producer index (vision thread)
}

func (q *triggerQueue) push(ev triggerEvent) {
	// Single producer: no CAS needed, just a monotonic tail advance guarded
	// against lapping the consumer.
	tail := q.tail.Load()
	next := tail + 1
	if next-q.head.Load() > uint32(len(q.buf)) {
		return // queue full; drop rather than block the vision thread
	}
	q.buf[tail%uint32(len(q.buf))] = ev
	q.tail.Store(next)
}

func (q *triggerQueue) drain() []triggerEvent {
	var out []triggerEvent
	head, tail := q.head.Load(), q.tail.Load()
	for ; head != tail; head++ {
		out = append(out, q.buf[head%uint32(len(q.buf))])
	}
	q.head.Store(head)
	return out
}

// EnvelopeBank owns the three envelopes and two distance sequencers, plus
// the hysteresis state for ENV1/ENV2's distance-crossing trigger policy.
type EnvelopeBank struct {
	Env1, Env2, Env3 Envelope
	queue            triggerQueue

	env1Armed, env2Armed bool // hysteresis: re-arm only after returning below threshold

	seq1, seq2 float32 // last emitted CV, updated per sample by the audio callback
}

// ApplyTriggers drains pending trigger events and fires the matching
// envelope; called once at the top of each audio callback (§4.5).
func (b *EnvelopeBank) ApplyTriggers() {
	for _, ev := range b.queue.drain() {
		switch ev {
		case triggerEnv1:
			b.Env1.Trigger()
		case triggerEnv2:
			b.Env2.Trigger()
		case triggerEnv3:
			b.Env3.Trigger()
		case triggerEnv4:
			// optional fourth trigger has no dedicated envelope slot in
			// §4.4's three-envelope bank; reserved for future wiring.
		}
	}
}

// StepSample advances all three envelopes by one sample period and returns
// their levels, in declaration order.
func (b *EnvelopeBank) StepSample(dt float32, ps *ParamStore) (e1, e2, e3 float32) {
	e1 = b.Env1.Step(dt, ps.Read(ParamEnv1Tau))
	e2 = b.Env2.Step(dt, ps.Read(ParamEnv2Tau))
	e3 = b.Env3.Step(dt, ps.Read(ParamEnv3Tau))
	return
}

// seqGain maps the range parameter to a distance gain per §4.4.
func seqGain(rangeParam float32) float32 {
	g := float32(math.Exp(float64((1.2-rangeParam)*math.Log(8)/1.2))) * 2
	return clampf32(g, 2, 8)
}

// UpdateSequencers recomputes SEQ1/SEQ2 from the cursor and anchor position.
// Called once per sample by the audio callback (AudioEngine.Process), which
// owns the envelopes, so ENV1/ENV2 are triggered directly rather than through
// the vision thread's trigger queue.
func (b *EnvelopeBank) UpdateSequencers(cursorX, cursorY, anchorX, anchorY, rangeParam float32) {
	gain := seqGain(rangeParam)
	dx := cursorX - anchorX
	dy := cursorY - anchorY
	b.seq1 = clampf32(absf32(dx)*gain, 0, 1)
	b.seq2 = clampf32(absf32(dy)*gain, 0, 1)

	// ENV1 fires when X-distance > Y-distance (with hysteresis); ENV2 the
	// opposite. Retrigger only after returning below threshold.
	xGreater := absf32(dx) > absf32(dy)
	if xGreater && !b.env1Armed {
		b.Env1.Trigger()
		b.env1Armed = true
	} else if !xGreater {
		b.env1Armed = false
	}
	if !xGreater && !b.env2Armed {
		b.Env2.Trigger()
		b.env2Armed = true
	} else if xGreater {
		b.env2Armed = false
	}
}

func (b *EnvelopeBank) SeqValues() (seq1, seq2 float32) {
	return b.seq1, b.seq2
}

func absf32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
