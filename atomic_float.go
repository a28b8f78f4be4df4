// atomic_float.go - float32 wrapper over atomic.Uint32 for lock-free publish/read

package main

import (
	"math"
	"sync/atomic"
)

// atomicFloat gives torn-read-free access to a single float32, the same
// discipline ParamStore uses, for values published across threads outside
// the parameter store (e.g. the contour cursor position).
type atomicFloat struct {
	bits atomic.Uint32
}

func (a *atomicFloat) store(v float32) {
	a.bits.Store(math.Float32bits(v))
}

func (a *atomicFloat) load() float32 {
	return math.Float32frombits(a.bits.Load())
}
