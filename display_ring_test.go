package main

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Invariant 7 - the write index never moves backward, and a reader that
// re-reads the same write index observes the same sample.
func TestDisplayRing_Monotonicity(t *testing.T) {
	r := NewDisplayRing(64)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 10000; i++ {
			r.WriteSample(float32(i))
		}
	}()

	var lastIdx uint32
	for i := 0; i < 1000; i++ {
		idx := r.writeIdx.Load()
		assert.GreaterOrEqual(t, idx, lastIdx)
		lastIdx = idx

		s1 := r.ReadLatest()
		s2 := r.ReadLatest()
		if r.writeIdx.Load() == idx {
			assert.Equal(t, s1, s2)
		}
	}
	wg.Wait()
}
