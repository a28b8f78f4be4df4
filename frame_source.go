// frame_source.go - Frame source abstraction: camera, looped file, or
// external shared-memory feed (§4.8)

package main

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"sync"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"gocv.io/x/gocv"
)

// FrameSourceKind tags which concrete backing a FrameSource wraps. Fetch is
// still dispatched through the FrameSource interface, and each successful
// Fetch returns a newly allocated Mat that the caller closes.
type FrameSourceKind int

const (
	FrameSourceCamera FrameSourceKind = iota
	FrameSourceFileLoop
	FrameSourceExternal
)

// FrameSource is implemented by each concrete backing. Fetch reports false
// when no new frame is available; callers reuse the previous frame rather
// than treating that as an error (§4.8 failure semantics).
type FrameSource interface {
	Kind() FrameSourceKind
	Fetch() (gocv.Mat, bool)
	Dimensions() (width, height int)
	Close() error
}

// --- Camera -----------------------------------------------------------

// CameraSource pulls frames from a live capture device via gocv.
type CameraSource struct {
	cap           *gocv.VideoCapture
	width, height int
}

func NewCameraSource(deviceIndex int) (*CameraSource, error) {
	cap, err := gocv.OpenVideoCapture(deviceIndex)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", deviceIndex, err)
	}
	w := int(cap.Get(gocv.VideoCaptureFrameWidth))
	h := int(cap.Get(gocv.VideoCaptureFrameHeight))
	return &CameraSource{cap: cap, width: w, height: h}, nil
}

func (c *CameraSource) Kind() FrameSourceKind { return FrameSourceCamera }

func (c *CameraSource) Fetch() (gocv.Mat, bool) {
	m := gocv.NewMat()
	if ok := c.cap.Read(&m); !ok || m.Empty() {
		m.Close()
		return gocv.Mat{}, false
	}
	return m, true
}

func (c *CameraSource) Dimensions() (int, int) { return c.width, c.height }
func (c *CameraSource) Close() error           { return c.cap.Close() }

// --- FileLoop -----------------------------------------------------------

// FileLoopSource decodes a still image or an image sequence once and loops
// it, for bench/demo use without a camera attached.
type FileLoopSource struct {
	frames        []gocv.Mat
	idx           int
	width, height int
}

// NewFileLoopSource decodes every path in order, using the stdlib's
// registered codecs plus golang.org/x/image/webp via the blank imports
// above, and holds them as a fixed loop.
func NewFileLoopSource(paths []string) (*FileLoopSource, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("file loop source: no paths given")
	}
	src := &FileLoopSource{}
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		img, _, err := image.Decode(bytes.NewReader(b))
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", p, err)
		}
		m, err := gocv.ImageToMatRGB(img)
		if err != nil {
			return nil, fmt.Errorf("convert %s: %w", p, err)
		}
		if src.width == 0 {
			src.width, src.height = m.Cols(), m.Rows()
		}
		src.frames = append(src.frames, m)
	}
	return src, nil
}

func (f *FileLoopSource) Kind() FrameSourceKind { return FrameSourceFileLoop }

func (f *FileLoopSource) Fetch() (gocv.Mat, bool) {
	if len(f.frames) == 0 {
		return gocv.Mat{}, false
	}
	m := f.frames[f.idx]
	f.idx = (f.idx + 1) % len(f.frames)
	return m.Clone(), true
}

func (f *FileLoopSource) Dimensions() (int, int) { return f.width, f.height }

func (f *FileLoopSource) Close() error {
	for _, m := range f.frames {
		m.Close()
	}
	return nil
}

// --- External -------------------------------------------------------

// ExternalFrameSource reads frames handed in by another process through a
// shared-memory slot: a single-slot mailbox (generation counter + raw BGR
// bytes) rather than the audio ring's continuous stream, since frames
// arrive at camera rate, not sample rate.
type ExternalFrameSource struct {
	mu            sync.Mutex
	width, height int
	lastGen       uint64
	region        []byte
	genOffset     int
}

// NewExternalFrameSource maps a region that a companion process writes:
// [8-byte generation][width*height*3 BGR bytes]. The caller is responsible
// for sizing the region to match width/height.
func NewExternalFrameSource(region []byte, width, height int) *ExternalFrameSource {
	return &ExternalFrameSource{region: region, width: width, height: height, genOffset: 0}
}

func (e *ExternalFrameSource) Kind() FrameSourceKind { return FrameSourceExternal }

func (e *ExternalFrameSource) Fetch() (gocv.Mat, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	gen := uint64(0)
	for i := 0; i < 8; i++ {
		gen |= uint64(e.region[e.genOffset+i]) << (8 * i)
	}
	if gen == e.lastGen {
		return gocv.Mat{}, false
	}
	e.lastGen = gen

	payload := e.region[e.genOffset+8:]
	need := e.width * e.height * 3
	if len(payload) < need {
		return gocv.Mat{}, false
	}
	m, err := gocv.NewMatFromBytes(e.height, e.width, gocv.MatTypeCV8UC3, payload[:need])
	if err != nil {
		return gocv.Mat{}, false
	}
	return m, true
}

func (e *ExternalFrameSource) Dimensions() (int, int) { return e.width, e.height }
func (e *ExternalFrameSource) Close() error           { return nil }
