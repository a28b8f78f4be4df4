// effect_grain.go - Grain processor with Lorenz-attractor chaos (§4.3.4, GLOSSARY)

package main

import "math"

const maxGrains = 16

// lorenzGenerator is a classic Lorenz-attractor chaos source used to
// randomize effect parameters (GLOSSARY: "Chaos").
type lorenzGenerator struct {
	x, y, z    float64
	sigma, rho, beta float64
	dt         float64
}

func newLorenzGenerator(sampleRate int) *lorenzGenerator {
	return &lorenzGenerator{
		x: 0.1, y: 0, z: 0,
		sigma: 10, rho: 28, beta: 8.0 / 3.0,
		dt: 1.0 / float64(sampleRate) * 50, // integrate faster than audio rate to stay chaotic but cheap
	}
}

// step advances the attractor one integration step and returns x normalized
// to roughly [-1, 1].
func (l *lorenzGenerator) step() float64 {
	dx := l.sigma * (l.y - l.x)
	dy := l.x*(l.rho-l.z) - l.y
	dz := l.x*l.y - l.beta*l.z
	l.x += dx * l.dt
	l.y += dy * l.dt
	l.z += dz * l.dt
	return clampf64(l.x/20, -1, 1)
}

func clampf64(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

type grain struct {
	active    bool
	size      int
	pos       int // envelope position, [0, size)
	direction int
	pitch     float32
	srcPos    float32
}

// GrainProcessor implements one channel's pool of up to 16 grain voices.
type GrainProcessor struct {
	sampleRate float32
	grains     [maxGrains]grain
	phase      float32
	chaos      *lorenzGenerator
	invertChaos bool
	history    []float32 // small ring of recent input, grain playback source
	histLen    int
	histPos    int
	rngState   uint64
}

func NewGrainProcessor(sampleRate int, invertChaos bool) *GrainProcessor {
	histLen := sampleRate / 2 // 500ms of history is ample for grain sizes
	return &GrainProcessor{
		sampleRate:  float32(sampleRate),
		chaos:       newLorenzGenerator(sampleRate),
		invertChaos: invertChaos,
		history:     make([]float32, histLen),
		histLen:     histLen,
		rngState:    0xD1B54A32D192ED03,
	}
}

func (g *GrainProcessor) nextRand() float32 {
	g.rngState ^= g.rngState << 13
	g.rngState ^= g.rngState >> 7
	g.rngState ^= g.rngState << 17
	return float32(g.rngState%1000000) / 1000000
}

// Process writes in into the history ring, spawns/advances grains per the
// density-driven phase accumulator, and returns the grain mix.
func (g *GrainProcessor) Process(in, density float32) float32 {
	g.history[g.histPos] = in
	g.histPos = (g.histPos + 1) % g.histLen

	chaosVal := g.chaos.step()
	if g.invertChaos {
		chaosVal = -chaosVal
	}

	g.phase += (density*50 + 1) / g.sampleRate
	for g.phase >= 1 {
		g.phase -= 1
		g.spawnGrain(density, float32(chaosVal))
	}

	var out float32
	for i := range g.grains {
		gr := &g.grains[i]
		if !gr.active {
			continue
		}
		env := float32(0.5 * (1 - math.Cos(2*math.Pi*float64(gr.pos)/float64(gr.size))))
		readIdx := (g.histPos - g.histLen + int(gr.srcPos)) % g.histLen
		if readIdx < 0 {
			readIdx += g.histLen
		}
		out += g.history[readIdx] * env
		gr.srcPos += gr.pitch * float32(gr.direction)
		gr.pos++
		if gr.pos >= gr.size {
			gr.active = false
		}
	}
	return out
}

func (g *GrainProcessor) spawnGrain(density float32, chaosVal float32) {
	for i := range g.grains {
		if g.grains[i].active {
			continue
		}
		direction := 1
		if g.nextRand() < 0.3 {
			direction = -1
		}
		pitch := float32(1.0)
		if density > 0.7 && g.nextRand() < 0.2 {
			pitches := [3]float32{0.5, 1.0, 2.0}
			pitch = pitches[int(g.nextRand()*3)%3]
		}
		sizeMs := 20 + (chaosVal+1)*30 // 20-80ms, chaos-modulated
		size := int(sizeMs / 1000 * g.sampleRate)
		if size < 4 {
			size = 4
		}
		g.grains[i] = grain{
			active:    true,
			size:      size,
			pos:       0,
			direction: direction,
			pitch:     pitch,
			srcPos:    0,
		}
		return
	}
}
