// vision_scanner.go - Contour scanner: variable-speed cursor along detected
// contours (§4.5)

package main

import (
	"image"
	"image/draw"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"
)

const (
	scanWorkingWidth  = 480
	scanWorkingHeight = 270
)

// vertex is one point of an extracted contour polyline with its curvature.
type vertex struct {
	x, y     float32
	curvature float32 // [0,1]
	weight    float32 // variable-speed weight, [0.25, 3]
}

// ContourCursor is the published state of §3's "Contour Cursor".
type ContourCursor struct {
	X, Y      atomicFloat
	Curvature atomicFloat
	Speed     atomicFloat
}

// cameraFrame is the latest camera image published for the compositor's
// camera layer, as tightly-packed RGBA bytes ready for ebiten.WritePixels.
type cameraFrame struct {
	pix  []byte
	w, h int
}

// ContourScanner runs on its own goroutine, polling a FrameSource at ≤30fps,
// extracting the dominant contour, and driving the variable-speed cursor.
// It is also the sole owner of the FrameSource's Fetch() call, so it
// publishes the frame it pulls for the video driver to pick up rather than
// letting a second consumer race it on the same capture device (§4.8, §5).
type ContourScanner struct {
	source FrameSource
	cursor ContourCursor
	engine *AudioEngine

	vertices []vertex
	progress float32 // u ∈ [0,1), wall-clock-driven traversal position

	prevWeight float32
	haveContour bool

	lastFrame atomic.Pointer[cameraFrame]

	stop chan struct{}
}

func NewContourScanner(source FrameSource, engine *AudioEngine) *ContourScanner {
	return &ContourScanner{source: source, engine: engine, stop: make(chan struct{}), prevWeight: 1}
}

// Run polls at up to 30fps until Stop is called. Every long-running thread
// in this core loops on a shutdown flag checked at least once per iteration
// (§9); joining completes within 500ms of Stop.
func (s *ContourScanner) Run(params *ParamStore) {
	ticker := time.NewTicker(time.Second / 30)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			s.tick(dt, params)
		}
	}
}

func (s *ContourScanner) Stop() { close(s.stop) }

func (s *ContourScanner) tick(dt time.Duration, params *ParamStore) {
	frame, ok := s.source.Fetch()
	if !ok {
		// No new frame this tick: cursor and schedule keep their prior state.
		return
	}
	defer frame.Close()

	s.publishFrame(frame)

	verts := extractDominantContour(frame)
	if len(verts) < 3 {
		// No contour detected: cursor stays at prior position, speed
		// reverts to constant weight=1, no triggers (§4.5 failure semantics).
		s.cursor.Speed.store(1)
		s.prevWeight = 1
		return
	}
	s.vertices = computeVariableSpeedWeights(verts)
	s.haveContour = true

	tScan := params.Read(ParamScanPeriod)
	if tScan <= 0 {
		tScan = 1
	}
	s.progress += float32(dt.Seconds()) / tScan
	for s.progress >= 1 {
		s.progress -= 1
	}

	idx, curv, weight, x, y := sampleCursor(s.vertices, s.progress)

	s.cursor.X.store(x)
	s.cursor.Y.store(y)
	s.cursor.Curvature.store(curv)
	s.cursor.Speed.store(weight)
	s.engine.UpdateCursor(x, y)

	delta := weight - s.prevWeight
	if delta < -0.3 {
		s.engine.EnqueueTrigger(triggerEnv3)
	} else if delta > 0.3 {
		s.engine.EnqueueTrigger(triggerEnv4)
	}
	s.prevWeight = weight
	_ = idx
}

// publishFrame converts frame to packed RGBA and atomically publishes it for
// the video driver's LatestFrame to pick up. frame remains owned by the
// caller; publishFrame only reads it.
func (s *ContourScanner) publishFrame(frame gocv.Mat) {
	if frame.Empty() {
		return
	}
	img, err := frame.ToImage()
	if err != nil {
		return
	}
	rgba := imageToRGBABytes(img)
	b := img.Bounds()
	s.lastFrame.Store(&cameraFrame{pix: rgba, w: b.Dx(), h: b.Dy()})
}

// LatestFrame returns the most recently published camera frame as packed
// RGBA bytes, or ok=false if no frame has been published yet.
func (s *ContourScanner) LatestFrame() (pix []byte, w, h int, ok bool) {
	f := s.lastFrame.Load()
	if f == nil {
		return nil, 0, 0, false
	}
	return f.pix, f.w, f.h, true
}

// imageToRGBABytes flattens any image.Image into a tightly-packed RGBA byte
// slice suitable for ebiten.Image.WritePixels.
func imageToRGBABytes(img image.Image) []byte {
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)
	return rgba.Pix
}

// extractDominantContour downsamples the frame to the working resolution,
// computes a Sobel edge map, extracts contours with gocv, and returns the
// longest contour as a vertex polyline (without curvature/weight filled in
// yet — computeVariableSpeedWeights does that pass). Caller owns frame.
func extractDominantContour(frame gocv.Mat) []vertex {
	if frame.Empty() {
		return nil
	}

	small := gocv.NewMat()
	defer small.Close()
	gocv.Resize(frame, &small, image.Pt(scanWorkingWidth, scanWorkingHeight), 0, 0, gocv.InterpolationLinear)

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(small, &gray, gocv.ColorBGRToGray)

	sobel := gocv.NewMat()
	defer sobel.Close()
	gocv.Sobel(gray, &sobel, gocv.MatTypeCV8U, 1, 1, 3, 1, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Threshold(sobel, &edges, 64, 255, gocv.ThresholdBinary)

	contours := gocv.FindContours(edges, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var longest gocv.PointVector
	longestLen := -1
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		if c.Size() > longestLen {
			longestLen = c.Size()
			longest = c
		}
	}
	if longestLen <= 0 {
		return nil
	}

	verts := make([]vertex, longest.Size())
	for i := 0; i < longest.Size(); i++ {
		p := longest.At(i)
		verts[i] = vertex{
			x: float32(p.X) / scanWorkingWidth,
			y: float32(p.Y) / scanWorkingHeight,
		}
	}
	return verts
}

// computeVariableSpeedWeights fills in per-vertex curvature (local
// three-point angle) and the inverse-curvature-enhanced speed weight
// (§3 Contour Cursor, §4.5 step 3-4).
func computeVariableSpeedWeights(verts []vertex) []vertex {
	n := len(verts)
	const eps = 0.05
	for i := 0; i < n; i++ {
		prev := verts[(i-1+n)%n]
		cur := verts[i]
		next := verts[(i+1)%n]
		curv := threePointCurvature(prev, cur, next)
		verts[i].curvature = curv
		w := 1 / (float32(math.Sqrt(float64(curv))) + eps)
		verts[i].weight = clampf32(w, 0.25, 3)
	}
	return verts
}

func threePointCurvature(a, b, c vertex) float32 {
	v1x, v1y := b.x-a.x, b.y-a.y
	v2x, v2y := c.x-b.x, c.y-b.y
	len1 := float32(math.Hypot(float64(v1x), float64(v1y)))
	len2 := float32(math.Hypot(float64(v2x), float64(v2y)))
	if len1 < 1e-6 || len2 < 1e-6 {
		return 0
	}
	cosAngle := (v1x*v2x + v1y*v2y) / (len1 * len2)
	cosAngle = clampf32(cosAngle, -1, 1)
	angle := float32(math.Acos(float64(cosAngle)))
	return clampf32(angle/float32(math.Pi), 0, 1)
}

// sampleCursor bisects the cumulative weighted-time schedule to find the
// vertex index for wall-clock progress u ∈ [0,1) (§3, §4.5 step 4). weight
// is a speed, not a dwell time: the cursor lingers longer at low-weight
// (high-curvature, slow) vertices, so each vertex's schedule share is
// proportional to 1/weight.
func sampleCursor(verts []vertex, u float32) (idx int, curvature, weight, x, y float32) {
	n := len(verts)
	if n == 0 {
		return 0, 0, 1, 0, 0
	}
	cum := make([]float32, n+1)
	var total float32
	for i, v := range verts {
		dwell := float32(1)
		if v.weight > 0 {
			dwell = 1 / v.weight
		}
		total += dwell
		cum[i+1] = total
	}
	if total <= 0 {
		return 0, 0, 1, verts[0].x, verts[0].y
	}
	target := u * total
	i := sort.Search(n, func(i int) bool { return cum[i+1] >= target })
	if i >= n {
		i = n - 1
	}
	v := verts[i]
	return i, v.curvature, v.weight, v.x, v.y
}
