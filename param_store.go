// param_store.go - Process-wide parameter store for the synthesis core

package main

import (
	"math"
	"sync/atomic"
)

// ParamID identifies a single smoothed parameter. Kept as a closed enum
// (rather than a string map) so reads/writes are a direct array index, the
// same register-table discipline the teacher uses for its chip addresses.
type ParamID int

const (
	ParamTrackGain0 ParamID = iota
	ParamTrackGain1
	ParamTrackGain2
	ParamTrackGain3
	ParamTrackPan0
	ParamTrackPan1
	ParamTrackPan2
	ParamTrackPan3
	ParamMonoCollapse // discrete snap: 0 = stereo chain, 1 = mono-summed chain

	ParamSliceLength  // L, exponential knob mapping, seconds
	ParamSliceScan    // scan ∈ [0,1]
	ParamVoiceCount   // 1..8, discrete snap
	ParamVoiceSpeed   // global speed multiplier applied to all voices

	ParamEQLowGain  // dB, [-20, 0]
	ParamEQMidGain  // dB, [-20, 0]
	ParamEQHighGain // dB, [-20, 0]

	ParamDelayTimeL  // seconds, [0, 2]
	ParamDelayTimeR  // seconds, [0, 2]
	ParamDelayWet    // [0,1]
	ParamDelayFeedback // [0, 0.95]

	ParamGrainDensity // [0,1]
	ParamGrainWet     // [0,1]

	ParamReverbRoom    // [0,1]
	ParamReverbDecay   // [0,1]
	ParamReverbDamping // [0,1]
	ParamReverbWet     // [0,1]

	ParamFeedbackAmount // output -> chain-entry feedback, [0,1]

	ParamEnv1Tau // seconds
	ParamEnv2Tau
	ParamEnv3Tau

	ParamSeqRange // (0, 1.2]

	ParamAnchorX // [0,1]
	ParamAnchorY // [0,1]

	ParamScanPeriod // T_scan, seconds

	ParamRecordingActive // discrete snap, 0/1

	// C7 compositor parameters (§4.7 input list). Shared by UI, audio, and
	// video, but only ever ticked by the video domain.
	ParamChan0Enabled
	ParamChan0Intensity
	ParamChan0Rotation
	ParamChan0Curve
	ParamChan0Pitch
	ParamChan1Enabled
	ParamChan1Intensity
	ParamChan1Rotation
	ParamChan1Curve
	ParamChan1Pitch
	ParamChan2Enabled
	ParamChan2Intensity
	ParamChan2Rotation
	ParamChan2Curve
	ParamChan2Pitch
	ParamChan3Enabled
	ParamChan3Intensity
	ParamChan3Rotation
	ParamChan3Curve
	ParamChan3Pitch

	ParamBaseHue          // degrees, [0, 360)
	ParamColorSchemeFader // [0,1]
	ParamBlendModeFader   // [0,1]
	ParamBrightness       // [0,2]
	ParamRegionMapEnabled // discrete snap, 0/1
	ParamCameraMix        // [0, 0.3]

	paramCount
)

// paramDomain identifies which single thread is permitted to call Tick for
// a given parameter (§4.1: "tick is called once per audio buffer and once
// per video frame", each consumer domain owning exactly one call site).
type paramDomain int

const (
	domainAudio paramDomain = iota
	domainVideo
)

var paramDomainOf = [paramCount]paramDomain{
	ParamChan0Enabled: domainVideo, ParamChan0Intensity: domainVideo,
	ParamChan0Rotation: domainVideo, ParamChan0Curve: domainVideo, ParamChan0Pitch: domainVideo,
	ParamChan1Enabled: domainVideo, ParamChan1Intensity: domainVideo,
	ParamChan1Rotation: domainVideo, ParamChan1Curve: domainVideo, ParamChan1Pitch: domainVideo,
	ParamChan2Enabled: domainVideo, ParamChan2Intensity: domainVideo,
	ParamChan2Rotation: domainVideo, ParamChan2Curve: domainVideo, ParamChan2Pitch: domainVideo,
	ParamChan3Enabled: domainVideo, ParamChan3Intensity: domainVideo,
	ParamChan3Rotation: domainVideo, ParamChan3Curve: domainVideo, ParamChan3Pitch: domainVideo,

	ParamBaseHue:          domainVideo,
	ParamColorSchemeFader: domainVideo,
	ParamBlendModeFader:   domainVideo,
	ParamBrightness:       domainVideo,
	ParamRegionMapEnabled: domainVideo,
	ParamCameraMix:        domainVideo,

	// every other ParamID defaults to domainAudio (zero value)
}

// smoothingClass selects the α regime a parameter is ticked with.
type smoothingClass int

const (
	smoothFast    smoothingClass = iota // α ≈ 0.2 per buffer/frame: gains, mixes
	smoothSlow                          // α ≈ 0.05 per buffer: delay/scan times
	smoothInstant                       // α = 1: triggers, discrete selectors
)

const (
	alphaFast    = 0.2
	alphaSlow    = 0.05
	alphaInstant = 1.0
)

var paramClass = [paramCount]smoothingClass{
	ParamTrackGain0: smoothFast, ParamTrackGain1: smoothFast,
	ParamTrackGain2: smoothFast, ParamTrackGain3: smoothFast,
	ParamTrackPan0: smoothFast, ParamTrackPan1: smoothFast,
	ParamTrackPan2: smoothFast, ParamTrackPan3: smoothFast,
	ParamMonoCollapse: smoothInstant,

	ParamSliceLength: smoothSlow,
	ParamSliceScan:   smoothSlow,
	ParamVoiceCount:  smoothInstant,
	ParamVoiceSpeed:  smoothFast,

	ParamEQLowGain: smoothFast, ParamEQMidGain: smoothFast, ParamEQHighGain: smoothFast,

	ParamDelayTimeL: smoothSlow, ParamDelayTimeR: smoothSlow,
	ParamDelayWet: smoothFast, ParamDelayFeedback: smoothFast,

	ParamGrainDensity: smoothFast, ParamGrainWet: smoothFast,

	ParamReverbRoom: smoothFast, ParamReverbDecay: smoothFast,
	ParamReverbDamping: smoothFast, ParamReverbWet: smoothFast,

	ParamFeedbackAmount: smoothFast,

	ParamEnv1Tau: smoothSlow, ParamEnv2Tau: smoothSlow, ParamEnv3Tau: smoothSlow,

	ParamSeqRange: smoothSlow,

	ParamAnchorX: smoothFast, ParamAnchorY: smoothFast,

	ParamScanPeriod: smoothSlow,

	ParamRecordingActive: smoothInstant,

	ParamChan0Enabled: smoothInstant, ParamChan1Enabled: smoothInstant,
	ParamChan2Enabled: smoothInstant, ParamChan3Enabled: smoothInstant,
	ParamChan0Intensity: smoothFast, ParamChan1Intensity: smoothFast,
	ParamChan2Intensity: smoothFast, ParamChan3Intensity: smoothFast,
	ParamChan0Rotation: smoothFast, ParamChan1Rotation: smoothFast,
	ParamChan2Rotation: smoothFast, ParamChan3Rotation: smoothFast,
	ParamChan0Curve: smoothFast, ParamChan1Curve: smoothFast,
	ParamChan2Curve: smoothFast, ParamChan3Curve: smoothFast,
	ParamChan0Pitch: smoothFast, ParamChan1Pitch: smoothFast,
	ParamChan2Pitch: smoothFast, ParamChan3Pitch: smoothFast,

	ParamBaseHue:          smoothFast,
	ParamColorSchemeFader: smoothFast,
	ParamBlendModeFader:   smoothFast,
	ParamBrightness:       smoothFast,
	ParamRegionMapEnabled: smoothInstant,
	ParamCameraMix:        smoothFast,
}

// paramRange bounds values are clamped into at set-time (§7 ParameterRangeError).
type paramRange struct{ min, max float32 }

var paramRanges = [paramCount]paramRange{
	ParamTrackGain0: {0, 2}, ParamTrackGain1: {0, 2}, ParamTrackGain2: {0, 2}, ParamTrackGain3: {0, 2},
	ParamTrackPan0: {-1, 1}, ParamTrackPan1: {-1, 1}, ParamTrackPan2: {-1, 1}, ParamTrackPan3: {-1, 1},
	ParamMonoCollapse: {0, 1},

	ParamSliceLength: {0.001, 5},
	ParamSliceScan:   {0, 1},
	ParamVoiceCount:  {1, 8},
	ParamVoiceSpeed:  {-4, 4},

	ParamEQLowGain: {-20, 0}, ParamEQMidGain: {-20, 0}, ParamEQHighGain: {-20, 0},

	ParamDelayTimeL: {0, 2}, ParamDelayTimeR: {0, 2},
	ParamDelayWet: {0, 1}, ParamDelayFeedback: {0, 0.95},

	ParamGrainDensity: {0, 1}, ParamGrainWet: {0, 1},

	ParamReverbRoom: {0, 1}, ParamReverbDecay: {0, 1}, ParamReverbDamping: {0, 1}, ParamReverbWet: {0, 1},

	ParamFeedbackAmount: {0, 1},

	ParamEnv1Tau: {0.001, 30}, ParamEnv2Tau: {0.001, 30}, ParamEnv3Tau: {0.001, 30},

	ParamSeqRange: {0.001, 1.2},

	ParamAnchorX: {0, 1}, ParamAnchorY: {0, 1},

	ParamScanPeriod: {0.1, 120},

	ParamRecordingActive: {0, 1},

	ParamChan0Enabled: {0, 1}, ParamChan1Enabled: {0, 1}, ParamChan2Enabled: {0, 1}, ParamChan3Enabled: {0, 1},
	ParamChan0Intensity: {0, 1}, ParamChan1Intensity: {0, 1}, ParamChan2Intensity: {0, 1}, ParamChan3Intensity: {0, 1},
	ParamChan0Rotation: {-180, 180}, ParamChan1Rotation: {-180, 180}, ParamChan2Rotation: {-180, 180}, ParamChan3Rotation: {-180, 180},
	ParamChan0Curve: {0, 1}, ParamChan1Curve: {0, 1}, ParamChan2Curve: {0, 1}, ParamChan3Curve: {0, 1},
	ParamChan0Pitch: {0.25, 4}, ParamChan1Pitch: {0.25, 4}, ParamChan2Pitch: {0.25, 4}, ParamChan3Pitch: {0.25, 4},

	ParamBaseHue:          {0, 360},
	ParamColorSchemeFader: {0, 1},
	ParamBlendModeFader:   {0, 1},
	ParamBrightness:       {0, 2},
	ParamRegionMapEnabled: {0, 1},
	ParamCameraMix:        {0, 0.3},
}

// ParamStore holds target and smoothed-current values for every ParamID.
// Each field is individually atomic (float32 bits in an atomic.Uint32); no
// torn reads are possible, but a snapshot across multiple parameters may
// observe inter-field skew, which §4.1 explicitly permits.
type ParamStore struct {
	target  [paramCount]atomic.Uint32
	current [paramCount]atomic.Uint32
}

// NewParamStore creates a store with every parameter's target and current
// value initialized to a sane default (0 for additive params, ranges'
// midpoint is intentionally NOT used — defaults are explicit per field).
func NewParamStore() *ParamStore {
	ps := &ParamStore{}
	defaults := map[ParamID]float32{
		ParamTrackGain0: 1, ParamTrackGain1: 1, ParamTrackGain2: 1, ParamTrackGain3: 1,
		ParamVoiceCount:   1,
		ParamVoiceSpeed:   1,
		ParamSliceLength:  0.5,
		ParamDelayWet:     0,
		ParamGrainWet:     0,
		ParamReverbWet:    0,
		ParamReverbRoom:   0.5,
		ParamReverbDecay:  0.5,
		ParamReverbDamping: 0.5,
		ParamEnv1Tau:      0.5, ParamEnv2Tau: 0.5, ParamEnv3Tau: 0.5,
		ParamSeqRange:   0.6,
		ParamScanPeriod: 4,
		ParamAnchorX:    0.5, ParamAnchorY: 0.5,

		ParamChan0Enabled: 1, ParamChan1Enabled: 1, ParamChan2Enabled: 1, ParamChan3Enabled: 1,
		ParamChan0Intensity: 0.7, ParamChan1Intensity: 0.7, ParamChan2Intensity: 0.7, ParamChan3Intensity: 0.7,
		ParamChan0Pitch: 1, ParamChan1Pitch: 1, ParamChan2Pitch: 1, ParamChan3Pitch: 1,
		ParamBrightness: 1,
	}
	for id := ParamID(0); id < paramCount; id++ {
		v := defaults[id]
		ps.target[id].Store(math.Float32bits(v))
		ps.current[id].Store(math.Float32bits(v))
	}
	return ps
}

func clampf32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SetTarget updates a parameter's target value. Writer side, non-blocking,
// callable from any thread (UI, MIDI, scanner overlay).
func (ps *ParamStore) SetTarget(id ParamID, value float32) {
	r := paramRanges[id]
	value = clampf32(value, r.min, r.max)
	ps.target[id].Store(math.Float32bits(value))
}

// Target returns the raw (unsmoothed) target value.
func (ps *ParamStore) Target(id ParamID) float32 {
	return math.Float32frombits(ps.target[id].Load())
}

// Read returns the current smoothed value for id.
func (ps *ParamStore) Read(id ParamID) float32 {
	return math.Float32frombits(ps.current[id].Load())
}

// alphaFor returns the per-step smoothing factor for id's regime.
func alphaFor(id ParamID) float32 {
	switch paramClass[id] {
	case smoothSlow:
		return alphaSlow
	case smoothInstant:
		return alphaInstant
	default:
		return alphaFast
	}
}

// Tick advances every smoothed current value owned by domain one step
// toward its target. Called once per audio buffer by the audio callback
// with domainAudio, and once per video frame by the video driver with
// domainVideo — each parameter belongs to exactly one domain (paramDomainOf),
// so the two call sites never race on the same current[] slot.
func (ps *ParamStore) Tick(domain paramDomain) {
	for id := ParamID(0); id < paramCount; id++ {
		if paramDomainOf[id] != domain {
			continue
		}
		alpha := alphaFor(id)
		cur := math.Float32frombits(ps.current[id].Load())
		tgt := math.Float32frombits(ps.target[id].Load())
		next := cur + (tgt-cur)*alpha
		ps.current[id].Store(math.Float32bits(next))
	}
}

// MIDILearnEntry maps a logical parameter to a MIDI CC for the learn table.
type MIDILearnEntry struct {
	Param   ParamID `yaml:"param"`
	Channel int     `yaml:"channel"`
	CC      int     `yaml:"cc"`
	Min     float32 `yaml:"min"`
	Max     float32 `yaml:"max"`
}

// ApplyMIDI maps an incoming CC value (0..127) through the learn table entry
// and writes the scaled result as the parameter's new target.
func (ps *ParamStore) ApplyMIDI(entries []MIDILearnEntry, channel, cc int, ccValue int) {
	for _, e := range entries {
		if e.Channel != channel || e.CC != cc {
			continue
		}
		t := float32(ccValue) / 127.0
		ps.SetTarget(e.Param, e.Min+t*(e.Max-e.Min))
	}
}
