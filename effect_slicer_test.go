package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// S3 - recording 2s of silence then stopping at L=0.5s, scan=0 produces
// exactly 4 slices at the expected boundaries.
func TestSlicer_PartitionS3(t *testing.T) {
	const sampleRate = 48000
	s := NewSlicer(sampleRate)
	s.SetRecording(true, 0, 0, 1)
	for i := 0; i < sampleRate*2; i++ {
		s.AppendInput(0)
	}
	s.SetRecording(false, 0.5, 0, 1)

	slices := s.Slices()
	require.Len(t, slices, 4)
	want := []int{0, 24000, 48000, 72000, 96000}
	for i, sl := range slices {
		assert.Equal(t, want[i], sl.Start)
		assert.Equal(t, want[i+1], sl.End)
	}
}

// Invariant 1 - partition always totally covers [0, recordedLen) with no
// gaps or overlaps, for arbitrary recording lengths, slice lengths and scan.
func TestSlicer_PartitionCoverageInvariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		const sampleRate = 8000
		recordedSeconds := rapid.Float32Range(0.01, 2).Draw(t, "recordedSeconds")
		lengthSeconds := rapid.Float32Range(0.01, 1).Draw(t, "lengthSeconds")
		scan := rapid.Float32Range(0, 1).Draw(t, "scan")

		s := NewSlicer(sampleRate)
		s.SetRecording(true, 0, 0, 1)
		n := int(recordedSeconds * sampleRate)
		for i := 0; i < n; i++ {
			s.AppendInput(0)
		}
		s.SetRecording(false, lengthSeconds, scan, 1)

		slices := s.Slices()
		if len(slices) == 0 {
			return
		}
		covered := make([]bool, s.RecordedLength())
		for _, sl := range slices {
			for i := sl.Start; i < sl.End; i++ {
				if covered[i] {
					t.Fatalf("sample %d covered by more than one slice", i)
				}
				covered[i] = true
			}
		}
		for i, c := range covered {
			if !c {
				t.Fatalf("sample %d not covered by any slice", i)
			}
		}
	})
}

// Invariant 2 - every voice's slice index stays valid and its position
// stays within that slice's bounds, across many Process steps.
func TestSlicer_VoiceValidityInvariant(t *testing.T) {
	const sampleRate = 8000
	s := NewSlicer(sampleRate)
	s.SetRecording(true, 0, 0, 1)
	for i := 0; i < sampleRate; i++ {
		s.AppendInput(float32(i%100) / 100)
	}
	s.SetRecording(false, 0.1, 0.3, 5)

	for step := 0; step < 5000; step++ {
		s.Process(1.7)
		for _, v := range s.Voices() {
			sl := s.Slices()[v.SliceIndex]
			require.True(t, sl.Active)
			require.GreaterOrEqual(t, v.Position, sl.Start)
			require.LessOrEqual(t, v.Position, sl.End)
		}
	}
}
