package flowsim

import (
	"math"

	"github.com/quartercastle/vector"
	"golang.org/x/exp/constraints"
)

// Step advances the layout solver by one tick. Only alive bubbles feel
// forces; dead and scheduled bubbles are excluded entirely so they
// cannot exert ghost forces on the visible clusters. The solver moves
// bubbles, it never creates or removes them.
//
// The temperature follows the usual annealing scheme: it decays towards
// AlphaTarget every tick and is re-heated to AlphaInit only when the
// alive-set membership changed, so a settled layout stays settled
// instead of vibrating forever.
func (c *Chart) Step(now, deltaTime float64) {
	alive := c.AliveBubbles(now)

	counts := [numKinds]int{}
	for _, b := range alive {
		counts[b.Kind]++
	}
	if !c.hasTicked || counts != c.prevAlive {
		c.temperature = c.conf.AlphaInit
		c.prevAlive = counts
		c.hasTicked = true
	} else {
		c.temperature += (c.conf.AlphaTarget - c.temperature) * c.conf.AlphaDecay
	}

	for _, b := range alive {
		b.acc = vector.Vector{0, 0}
	}
	c.anchorSpringForce(alive)
	c.collisionForce(alive)
	c.updatePositions(alive, deltaTime)
}

// Temperature exposes the solver's current annealing temperature.
func (c *Chart) Temperature() float64 { return c.temperature }

func (c *Chart) anchorSpringForce(alive []*Bubble) {
	for _, b := range alive {
		anchor := c.conf.Anchor(b.Kind)
		force := vector.Vector{
			(anchor.X() - b.Pos.X()) * c.conf.SpringStrengthX,
			(anchor.Y() - b.Pos.Y()) * c.conf.SpringStrengthY,
		}
		vector.In(b.acc).Add(force.Scale(c.temperature))
	}
}

// collisionForce separates any pair closer than twice the collision
// radius, proportionally to the overlap. A fully coincident pair gets a
// deterministic horizontal separation axis, so positions stay finite.
func (c *Chart) collisionForce(alive []*Bubble) {
	minDist := 2 * c.conf.CollisionRadius
	for i, b1 := range alive {
		for _, b2 := range alive[i+1:] {
			delta := b1.Pos.Sub(b2.Pos)
			dist := delta.Magnitude()
			if dist >= minDist {
				continue
			}
			var axis vector.Vector
			if dist < 1e-9 {
				axis = vector.Vector{1, 0}
			} else {
				axis = delta.Unit()
			}
			push := axis.Scale(c.conf.CollisionStrength * (minDist - dist) / minDist * c.temperature)
			vector.In(b1.acc).Add(push)
			vector.In(b2.acc).Sub(push)
		}
	}
}

func (c *Chart) updatePositions(alive []*Bubble, deltaTime float64) {
	boundsMin := vector.Vector{
		c.conf.Rect.X - c.conf.BoundsMultiplier*c.conf.Rect.Width,
		c.conf.Rect.Y - c.conf.BoundsMultiplier*c.conf.Rect.Height,
	}
	boundsMax := vector.Vector{
		c.conf.Rect.X + (1+c.conf.BoundsMultiplier)*c.conf.Rect.Width,
		c.conf.Rect.Y + (1+c.conf.BoundsMultiplier)*c.conf.Rect.Height,
	}
	for _, b := range alive {
		vector.In(b.vel).Add(b.acc)
		vector.In(b.vel).Scale(1 - c.conf.VelocityDecay)
		b.vel = vectorClampValue(b.vel, -c.conf.MaxSpeed, c.conf.MaxSpeed)
		vector.In(b.Pos).Add(b.vel.Scale(deltaTime))
		b.Pos = vectorClampVector(b.Pos, boundsMin, boundsMax)
	}
}

// TotalSpeed sums the velocity magnitudes of the alive set, a cheap
// convergence measure.
func (c *Chart) TotalSpeed(now float64) float64 {
	total := 0.0
	for _, b := range c.AliveBubbles(now) {
		total += b.vel.Magnitude()
	}
	return total
}

func clamp[T constraints.Ordered](in, lo, hi T) T {
	if in > hi {
		return hi
	}
	if in < lo {
		return lo
	}
	return in
}

func vectorClampValue(v vector.Vector, min, max float64) vector.Vector {
	return vector.Vector{
		clamp(v.X(), min, max),
		clamp(v.Y(), min, max),
	}
}

func vectorClampVector(v, min, max vector.Vector) vector.Vector {
	if math.IsNaN(v.X()) || math.IsNaN(v.Y()) {
		// spawn positions are always finite, so NaN here means a broken
		// force configuration; reset instead of propagating
		return min.Add(max).Scale(0.5)
	}
	return vector.Vector{
		clamp(v.X(), min.X(), max.X()),
		clamp(v.Y(), min.Y(), max.Y()),
	}
}
