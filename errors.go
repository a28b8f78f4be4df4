// errors.go - Error kinds and real-time-safe counters for the synthesis core

package main

import (
	"fmt"
	"sync/atomic"
)

// FatalStartupError means the audio device, GL context, or camera could not
// be opened. The core refuses to enter the run state.
type FatalStartupError struct {
	Stage string
	Err   error
}

func (e *FatalStartupError) Error() string {
	return fmt.Sprintf("fatal startup error in %s: %v", e.Stage, e.Err)
}

func (e *FatalStartupError) Unwrap() error { return e.Err }

// TransientDeviceError is logged and the previous frame/sample is reused;
// it never propagates as a Go error across a real-time boundary.
type TransientDeviceError struct {
	Source string
	Err    error
}

func (e *TransientDeviceError) Error() string {
	return fmt.Sprintf("transient device error from %s: %v", e.Source, e.Err)
}

// RenderTimeout indicates the GL thread did not complete a render request
// within the 1s budget (§9). A black frame is substituted.
var ErrRenderTimeout = fmt.Errorf("render request timed out")

// runtimeCounters accumulates non-blocking, real-time-safe statistics.
// Fields are incremented with atomic.Uint64.Add and read together through
// snapshot(). Nothing in this module reads them on a timer or logs them, and
// recordXrun and recordFrameDrop have no callers, so xruns and framesDropped
// stay at zero.
type runtimeCounters struct {
	xruns          atomic.Uint64 // audio buffer overrun/underrun count
	renderTimeouts atomic.Uint64
	nanSamples     atomic.Uint64 // samples forced to 0 due to NaN/Inf (§4.3.7)
	framesDropped  atomic.Uint64 // frame-source fetch() returned None
}

func (c *runtimeCounters) recordXrun()          { c.xruns.Add(1) }
func (c *runtimeCounters) recordRenderTimeout()  { c.renderTimeouts.Add(1) }
func (c *runtimeCounters) recordNaNSample()      { c.nanSamples.Add(1) }
func (c *runtimeCounters) recordFrameDrop()      { c.framesDropped.Add(1) }

func (c *runtimeCounters) snapshot() (xruns, timeouts, nanSamples, frameDrops uint64) {
	return c.xruns.Load(), c.renderTimeouts.Load(), c.nanSamples.Load(), c.framesDropped.Load()
}
