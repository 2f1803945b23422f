// Package flowsim is the engine behind the profit flow chart: it keeps
// a population of fixed-denomination bubbles in sync with the profit
// totals at the current scrub time and lays the alive ones out with a
// force simulation around per-kind cluster anchors.
//
// The package is a pure state machine. It owns no goroutines and keeps
// no clock; callers feed it scrub times and tick it at whatever frame
// rate they render with.
package flowsim

import "github.com/quartercastle/vector"

// ProfitFunc returns the (investor, nonInvestor) profit totals at a
// fractional year, typically profitdata.Series.ProfitAt.
type ProfitFunc func(t float64) (investor, nonInvestor float64)

// Chart holds the bubble arena and the solver state of one chart
// instance. Not safe for concurrent use, see internal/controller for
// the single-owner event loop.
type Chart struct {
	conf        Config
	profitAt    ProfitFunc
	bubbles     []*Bubble
	temperature float64
	prevAlive   [numKinds]int
	hasTicked   bool
}

func NewChart(profitAt ProfitFunc, conf Config) *Chart {
	conf.applyDefaults()
	return &Chart{
		conf:        conf,
		profitAt:    profitAt,
		temperature: conf.AlphaInit,
	}
}

func (c *Chart) Config() Config { return c.conf }

// BubbleCount is the arena size: every bubble ever allocated, alive or
// not. Bounded across scrub oscillation because dead and stale bubbles
// are recycled before new slots are allocated.
func (c *Chart) BubbleCount() int { return len(c.bubbles) }

// AliveBubbles returns the bubbles participating in layout and
// rendering at the given scrub time, in arena order.
func (c *Chart) AliveBubbles(now float64) []*Bubble {
	alive := []*Bubble{}
	for _, b := range c.bubbles {
		if b.State(now, c.conf.Lifespan) == StateAlive {
			alive = append(alive, b)
		}
	}
	return alive
}

// AliveCount counts alive bubbles of one kind at the given scrub time.
func (c *Chart) AliveCount(now float64, kind Kind) int {
	count := 0
	for _, b := range c.bubbles {
		if b.Kind == kind && b.State(now, c.conf.Lifespan) == StateAlive {
			count++
		}
	}
	return count
}

// BubbleOpacity is the fade-in/steady/fade-out opacity of a bubble at
// the given scrub time.
func (c *Chart) BubbleOpacity(b *Bubble, now float64) float64 {
	return Opacity(b.Age(now), c.conf.Lifespan, c.conf.FadePortion)
}

func (c *Chart) grow(kind Kind) *Bubble {
	b := &Bubble{ID: len(c.bubbles), Kind: kind}
	c.bubbles = append(c.bubbles, b)
	return b
}

// spawn resets a new or recycled bubble to a finite deterministic
// position near the spawn point; never NaN, so the solver always
// admits it safely.
func (c *Chart) spawn(b *Bubble, now float64) {
	b.BirthTime = now
	b.Pos = vector.Vector{
		c.conf.SpawnPoint.X() + (c.conf.RandomFloat()-0.5)*c.conf.SpawnJitter,
		c.conf.SpawnPoint.Y() + (c.conf.RandomFloat()-0.5)*c.conf.SpawnJitter,
	}
	b.vel = vector.Vector{0, 0}
	b.acc = vector.Vector{0, 0}
}
