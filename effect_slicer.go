// effect_slicer.go - Slice-loop sampler (§4.3.1)

package main

import "math"

type samplerState int

const (
	samplerIdle samplerState = iota
	samplerRecording
	samplerPlaying
)

const maxLoopSeconds = 60

// Slice is a contiguous, fixed-length sub-region of the loop buffer.
type Slice struct {
	Start, End int
	Peak       float32
	Active     bool
}

// Voice is one polyphonic playback cursor over the slice buffer.
type Voice struct {
	SliceIndex int
	Position   int
	Phase      float32 // fractional phase, < 1
	Speed      float32 // multiplier ∈ [-4, +4]
}

// voicePan is the fixed per-voice pan table from §4.3.1.
var voicePan = [8][2]float32{
	{0.707, 0.707}, // voice 0: center (equal-power center, not hard-panned)
	{0.75, 0.25},
	{0.25, 0.75},
	{1.0, 0.0},
	{0.0, 1.0},
	{0.875, 0.0},
	{0.0, 0.875},
	{1.0, 0.0},
}

// Slicer implements the slice-loop sampler: shadow-buffer recording,
// partitioning on stop, and multi-voice playback.
type Slicer struct {
	sampleRate int

	state  samplerState
	shadow []float32
	shadowLen int

	buf          []float32
	recordedLen  int
	slices       []Slice
	voices       []Voice
	rng          uint64 // xorshift state for voice redistribution
}

func NewSlicer(sampleRate int) *Slicer {
	return &Slicer{
		sampleRate: sampleRate,
		shadow:     make([]float32, sampleRate*maxLoopSeconds),
		buf:        make([]float32, 0),
		voices:     []Voice{{SliceIndex: 0}},
		rng:        0x9E3779B97F4A7C15,
	}
}

// SetRecording transitions idle<->recording<->playing per §4.3.1.
func (s *Slicer) SetRecording(active bool, lengthSeconds, scan float32, voiceCount int) {
	if active {
		if s.state != samplerRecording {
			s.state = samplerRecording
			s.shadowLen = 0
		}
		return
	}
	if s.state != samplerRecording {
		return
	}
	// Commit shadow -> main by copying into a newly allocated buffer: the
	// playback loop never observes a buffer mid-copy because this runs at a
	// buffer boundary between callback invocations, not mid-sample.
	committed := make([]float32, s.shadowLen)
	copy(committed, s.shadow[:s.shadowLen])
	s.buf = committed
	s.recordedLen = s.shadowLen
	s.state = samplerPlaying
	s.partition(lengthSeconds, scan)
	s.redistributeVoices(voiceCount)
}

// AppendInput feeds mono-summed input to the shadow buffer while recording.
// Once the shadow buffer is full, further input is silently ignored (§4.3.7).
func (s *Slicer) AppendInput(monoSample float32) {
	if s.state != samplerRecording {
		return
	}
	if s.shadowLen >= len(s.shadow) {
		return
	}
	s.shadow[s.shadowLen] = monoSample
	s.shadowLen++
}

// partition rebuilds s.slices as a total cover of [0, recordedLen) with
// fixed-length slices of lengthSeconds, rotated by scan.
func (s *Slicer) partition(lengthSeconds, scan float32) {
	if s.recordedLen <= 0 {
		s.slices = nil
		return
	}
	sliceLen := int(lengthSeconds * float32(s.sampleRate))
	if sliceLen < 1 {
		sliceLen = 1
	}
	count := (s.recordedLen + sliceLen - 1) / sliceLen
	if count < 1 {
		count = 1
	}
	origin := int(scan*float32(s.recordedLen)) % s.recordedLen
	if origin < 0 {
		origin += s.recordedLen
	}

	_ = count
	slices := make([]Slice, 0, count+1)

	appendRange := func(from, to int) {
		pos := from
		for pos < to {
			end := pos + sliceLen
			if end > to {
				end = to
			}
			peak := float32(0)
			for i := pos; i < end; i++ {
				if a := float32(math.Abs(float64(s.buf[i]))); a > peak {
					peak = a
				}
			}
			slices = append(slices, Slice{Start: pos, End: end, Peak: peak, Active: true})
			pos = end
		}
	}

	// First pass covers [origin, recordedLen) in sliceLen-sized chunks; the
	// second covers [0, origin) the same way. Together they form a total
	// cover of [0, recordedLen) with no gaps or overlaps (§8 invariant 1),
	// with the rotation implementing the "scan" parameter's wrap semantics.
	appendRange(origin, s.recordedLen)
	appendRange(0, origin)

	s.slices = slices
}

func (s *Slicer) nextRand() uint64 {
	s.rng ^= s.rng << 13
	s.rng ^= s.rng >> 7
	s.rng ^= s.rng << 17
	return s.rng
}

// redistributeVoices reseats voices 1..N-1 randomly across active slices;
// voice 0 always tracks the scan selection (first slice after partition).
func (s *Slicer) redistributeVoices(voiceCount int) {
	if voiceCount < 1 {
		voiceCount = 1
	}
	if voiceCount > 8 {
		voiceCount = 8
	}
	if len(s.slices) == 0 {
		s.voices = make([]Voice, voiceCount)
		return
	}
	voices := make([]Voice, voiceCount)
	voices[0] = Voice{SliceIndex: 0, Speed: 1}
	for i := 1; i < voiceCount; i++ {
		idx := int(s.nextRand() % uint64(len(s.slices)))
		voices[i] = Voice{SliceIndex: idx, Speed: 1}
	}
	s.voices = voices
}

// reseatVoice clamps a voice's slice index into range after a repartition,
// preserving invariant 2 of §8 (slice validity for every active voice).
func (s *Slicer) reseatVoice(v *Voice) {
	if len(s.slices) == 0 {
		return
	}
	if v.SliceIndex < 0 || v.SliceIndex >= len(s.slices) || !s.slices[v.SliceIndex].Active {
		v.SliceIndex = clampInt(v.SliceIndex, 0, len(s.slices)-1)
	}
	sl := s.slices[v.SliceIndex]
	if v.Position < sl.Start || v.Position > sl.End {
		v.Position = sl.Start
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Process advances all voices by one sample and returns the summed,
// per-channel-normalized stereo output.
func (s *Slicer) Process(speed float32) (left, right float32) {
	if s.state != samplerPlaying || len(s.slices) == 0 {
		return 0, 0
	}
	var sumL, sumR, panLSq, panRSq float32
	for i := range s.voices {
		v := &s.voices[i]
		s.reseatVoice(v)
		sl := s.slices[v.SliceIndex]
		sliceLen := sl.End - sl.Start
		if sliceLen <= 0 {
			continue
		}

		p0 := s.buf[v.Position]
		nextPos := v.Position + 1
		if nextPos >= sl.End {
			nextPos = sl.Start
		}
		p1 := s.buf[nextPos]
		out := p0 + v.Phase*(p1-p0)

		vs := speed * v.Speed
		v.Phase += float32(math.Abs(float64(vs)))
		for v.Phase >= 1 {
			v.Phase -= 1
			if vs >= 0 {
				v.Position++
				if v.Position >= sl.End {
					v.Position = sl.Start
				}
			} else {
				v.Position--
				if v.Position < sl.Start {
					v.Position = sl.End - 1
				}
			}
		}

		pan := voicePan[i%8]
		sumL += out * pan[0]
		sumR += out * pan[1]
		panLSq += pan[0] * pan[0]
		panRSq += pan[1] * pan[1]
	}
	if panLSq > 0 {
		sumL /= float32(math.Sqrt(float64(panLSq)))
	}
	if panRSq > 0 {
		sumR /= float32(math.Sqrt(float64(panRSq)))
	}
	return sumL, sumR
}

// RecordedLength exposes the committed loop length in samples.
func (s *Slicer) RecordedLength() int { return s.recordedLen }

// Slices exposes a read-only copy of the current partition, for testing
// invariant 1 (coverage) and invariant 2 (voice validity).
func (s *Slicer) Slices() []Slice {
	out := make([]Slice, len(s.slices))
	copy(out, s.slices)
	return out
}

// Voices exposes a read-only copy of the current voices, for testing.
func (s *Slicer) Voices() []Voice {
	out := make([]Voice, len(s.voices))
	copy(out, s.voices)
	return out
}
