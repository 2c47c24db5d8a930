// Package particles simulates the falling-particle view of traffic.
package particles

import (
	"time"

	"TrafficRain/internal/model"
)

const (
	// DefaultMaxParticles bounds the live pool.
	DefaultMaxParticles = 2000
	// DefaultIdleFade is how long after the last spawn the canvas dims.
	DefaultIdleFade = 200 * time.Millisecond

	spawnY      = -10
	exitMargin  = 10
	laneMargin  = 6
	slowSpeed   = 180
	fastSpeed   = 360
	speedJitter = 120
)

// Particle is one falling point in viewport pixels.
type Particle struct {
	X, Y  float32
	VY    float32
	Color RGBA
}

// System owns the particle pool. Particles are kept in spawn order, oldest
// first. It is driven from a single goroutine.
type System struct {
	ps            []Particle
	max           int
	width, height float32
	rng           *Rand
	idleFade      time.Duration
	lastSpawn     time.Time
}

// NewSystem creates a pool of at most maxParticles for a width x height
// viewport.
func NewSystem(maxParticles int, width, height float32, idleFade time.Duration) *System {
	if maxParticles <= 0 {
		maxParticles = DefaultMaxParticles
	}
	s := &System{
		ps:       make([]Particle, 0, maxParticles+16),
		max:      maxParticles,
		rng:      NewRand(DefaultSeed),
		idleFade: idleFade,
	}
	s.Resize(width, height)
	return s
}

// Resize sets the viewport. Existing particles keep their positions.
func (s *System) Resize(width, height float32) {
	s.width, s.height = max(width, 1), max(height, 1)
}

// Size returns the viewport.
func (s *System) Size() (width, height float32) {
	return s.width, s.height
}

// Len returns the number of live particles.
func (s *System) Len() int {
	return len(s.ps)
}

// Particles returns the live particles, oldest first. The slice is only
// valid until the next Spawn or Step.
func (s *System) Particles() []Particle {
	return s.ps
}

// Spawn adds a particle for ev at the top of its lane band, evicting the
// oldest one when the pool is full.
func (s *System) Spawn(ev model.PacketEvent, now time.Time) {
	st := styleOf(ev.Protocol)
	laneW := s.width / model.NumLanes
	x0 := float32(ev.Protocol.Lane()) * laneW
	x1 := x0 + laneW

	jitter := laneW * 0.25 * (s.rng.Unit() - 0.5)
	var x float32
	switch ev.Direction {
	case model.Inbound:
		x = x0 + laneW*0.33
	case model.Outbound:
		x = x0 + laneW*0.66
	default:
		x = (x0 + x1) * 0.5
	}
	x += laneW * st.offset
	x = clamp(x+jitter, x0+laneMargin, x1-laneMargin)

	base := float32(slowSpeed)
	if ev.Fast {
		base = fastSpeed
	}
	vy := (base + speedJitter*s.rng.Unit()) * st.speed

	s.ps = append(s.ps, Particle{X: x, Y: spawnY, VY: vy, Color: st.color})
	if len(s.ps) > s.max {
		s.ps = s.ps[1:]
	}
	s.lastSpawn = now
}

// Step advances every particle by dt and drops those that left the bottom
// edge. Only the oldest particles are checked, so a faster particle behind
// a slower one lingers until the slower one exits.
func (s *System) Step(dt time.Duration) {
	sec := float32(dt.Seconds())
	for i := range s.ps {
		s.ps[i].Y += s.ps[i].VY * sec
	}
	n := 0
	for n < len(s.ps) && s.ps[n].Y > s.height+exitMargin {
		n++
	}
	if n > 0 {
		s.ps = s.ps[n:]
	}
	if len(s.ps) == 0 {
		s.ps = s.ps[:0:0]
	}
}

// Idle reports whether nothing has spawned within the idle fade window.
func (s *System) Idle(now time.Time) bool {
	return s.lastSpawn.IsZero() || now.Sub(s.lastSpawn) >= s.idleFade
}

// Background returns the clear color for the frame at now.
func (s *System) Background(now time.Time) RGBA {
	if s.Idle(now) {
		return IdleBackground
	}
	return ActiveBackground
}

// clamp bounds x to [lo, hi]; lo wins when the band is narrower than its margins.
func clamp(x, lo, hi float32) float32 {
	return max(lo, min(x, hi))
}
