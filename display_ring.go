// display_ring.go - Cross-process display buffer: lock-free audio->video ring (§4.6)

package main

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// bytesToFloat32Slice reinterprets a byte slice backed by mmap'd shared
// memory as a float32 slice, matching the teacher's Read() method on
// OtoPlayer which does the equivalent reinterpretation in the other
// direction (audio_backend_oto.go).
func bytesToFloat32Slice(b []byte) []float32 {
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), len(b)/4)
}

// DisplayRing is one channel's circular buffer of W float32 samples at
// render resolution, decimated from the audio buffer. The writer (audio
// callback) release-stores the write index after writing the sample;
// readers (video threads) acquire-load the index first (§4.6, §9).
type DisplayRing struct {
	samples []float32 // len == width
	writeIdx atomic.Uint32
	accum    float32 // fractional accumulator for the S/W decimation ratio
	mmapRegion []byte // non-nil when backed by shared memory
}

// NewDisplayRing creates an in-process ring of the given render width.
func NewDisplayRing(width int) *DisplayRing {
	return &DisplayRing{samples: make([]float32, width)}
}

// NewSharedDisplayRing backs the ring with a POSIX shared-memory segment so
// a separate video process can map the same region (§9: "prefer shared
// memory + atomic indices over message passing"). Only the samples live in
// the segment; the write index stays in this process's DisplayRing and is
// not visible to another process mapping the region.
func NewSharedDisplayRing(name string, width int) (*DisplayRing, error) {
	size := width * 4
	// Linux has no shm_open syscall; the POSIX shared-memory convention is
	// a tmpfs-backed file under /dev/shm, opened/truncated/mmap'd directly.
	path := "/dev/shm" + name
	fd, err := unix.Open(path, unix.O_CREAT|unix.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer unix.Close(fd)
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		return nil, fmt.Errorf("ftruncate %s: %w", path, err)
	}
	region, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	r := &DisplayRing{mmapRegion: region}
	r.samples = bytesToFloat32Slice(region)
	return r, nil
}

func (r *DisplayRing) Close() error {
	if r.mmapRegion != nil {
		return unix.Munmap(r.mmapRegion)
	}
	return nil
}

// WriteSample stores one decimated sample and release-stores the advanced
// write index. Only the audio callback calls this (single writer).
func (r *DisplayRing) WriteSample(v float32) {
	w := r.writeIdx.Load()
	r.samples[int(w%uint32(len(r.samples)))] = v
	// Release semantics: the index bump is only visible to a reader after
	// the sample write above has retired, matching x86/ARM acquire-release
	// via Go's atomic package happens-before guarantee.
	r.writeIdx.Store(w + 1)
}

// ReadLatest acquire-loads the write index and returns the most recent
// sample. Torn reads against the very latest write are tolerated (§4.6).
func (r *DisplayRing) ReadLatest() float32 {
	idx := r.writeIdx.Load()
	pos := int(idx-1) % len(r.samples)
	if pos < 0 {
		pos += len(r.samples)
	}
	return r.samples[pos]
}

// Snapshot copies the whole ring for a renderer that wants the full
// waveform window rather than only the latest sample.
func (r *DisplayRing) Snapshot(dst []float32) {
	copy(dst, r.samples)
}

// DisplayRingSet holds the four per-track rings plus each channel's
// sample-to-pixel decimation accumulator (§4.6).
type DisplayRingSet struct {
	rings      [NumInputTracks]*DisplayRing
	accums     [NumInputTracks]float32
	ratio      float32 // S/W: samples-per-50ms-window / render width
}

// NewDisplayRingSet builds four rings of render width W, each decimating at
// a fixed 50ms-window ratio for sampleRate.
func NewDisplayRingSet(sampleRate, width int, shared bool) (*DisplayRingSet, error) {
	const windowMs = 50
	s := int(float64(sampleRate) * windowMs / 1000)
	set := &DisplayRingSet{ratio: float32(s) / float32(width)}
	for i := 0; i < NumInputTracks; i++ {
		if shared {
			r, err := NewSharedDisplayRing(fmt.Sprintf("/visualcore-display-%d", i), width)
			if err != nil {
				return nil, err
			}
			set.rings[i] = r
		} else {
			set.rings[i] = NewDisplayRing(width)
		}
	}
	return set, nil
}

// Write decimates channel ch's incoming sample; on every S/W-th sample
// (accumulator crossing 1.0) it stores into the ring.
func (d *DisplayRingSet) Write(ch int, sample float32) {
	d.accums[ch] += 1
	if d.accums[ch] >= d.ratio {
		d.accums[ch] -= d.ratio
		d.rings[ch].WriteSample(sample)
	}
}

func (d *DisplayRingSet) Ring(ch int) *DisplayRing { return d.rings[ch] }

func (d *DisplayRingSet) Close() {
	for _, r := range d.rings {
		if r != nil {
			_ = r.Close()
		}
	}
}
