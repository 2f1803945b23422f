package flowsim

import (
	"testing"

	"github.com/quartercastle/vector"
	"github.com/stretchr/testify/assert"
)

func solverChart(t *testing.T) *Chart {
	t.Helper()
	rnd := 0.0
	return NewChart(linearProfit, Config{
		BubbleValue: 5000,
		Lifespan:    1.0,
		AlphaDecay:  0.1,
		AlphaTarget: 1e-4,
		RandomFloat: func() float64 {
			// deterministic spread instead of rand
			rnd += 0.1
			if rnd > 1.0 {
				rnd -= 1.0
			}
			return rnd
		},
	})
}

func TestChart_Step_convergence(t *testing.T) {
	chart := solverChart(t)
	now := 2000.5
	chart.Reconcile(now)
	assert := assert.New(t)
	assert.NotEmpty(chart.AliveBubbles(now))

	speeds := []float64{}
	for i := 0; i < 400; i++ {
		chart.Step(now, 1.0)
		speeds = append(speeds, chart.TotalSpeed(now))
	}
	// damping must win: after the initial transient the summed speed
	// decays towards zero instead of oscillating
	for i := 100; i+1 < len(speeds); i++ {
		assert.LessOrEqual(speeds[i+1], speeds[i]+1e-3, "tick %d", i)
	}
	assert.Less(speeds[len(speeds)-1], 0.05)
	assert.Less(speeds[len(speeds)-1], speeds[20])
}

func TestChart_Step_pullsBubblesTowardsAnchor(t *testing.T) {
	chart := solverChart(t)
	now := 2000.5
	chart.Reconcile(now)
	anchor := chart.conf.Anchor(KindInvestor)
	before := chart.AliveBubbles(now)[0].Pos.Sub(anchor).Magnitude()
	for i := 0; i < 50; i++ {
		chart.Step(now, 1.0)
	}
	after := chart.AliveBubbles(now)[0].Pos.Sub(anchor).Magnitude()
	assert.Less(t, after, before, "bubble should move towards its cluster anchor")
}

func TestChart_Step_separatesOverlappingBubbles(t *testing.T) {
	chart := solverChart(t)
	now := 2000.5
	chart.Reconcile(now)
	investors := []*Bubble{}
	for _, b := range chart.AliveBubbles(now) {
		if b.Kind == KindInvestor {
			investors = append(investors, b)
		}
	}
	assert := assert.New(t)
	assert.Len(investors, 2)
	// force full overlap, including the degenerate coincident case
	investors[1].Pos = vector.Vector{investors[0].Pos.X(), investors[0].Pos.Y()}
	for i := 0; i < 200; i++ {
		chart.Step(now, 1.0)
	}
	dist := investors[0].Pos.Sub(investors[1].Pos).Magnitude()
	assert.Greater(dist, chart.conf.CollisionRadius, "collision force should push overlapping bubbles apart")
	assert.False(anyNaN(investors[0].Pos), "positions must stay finite")
	assert.False(anyNaN(investors[1].Pos), "positions must stay finite")
}

func anyNaN(v vector.Vector) bool {
	return v.X() != v.X() || v.Y() != v.Y()
}

func TestChart_Step_deadBubblesFeelNoForces(t *testing.T) {
	chart := solverChart(t)
	chart.Reconcile(2000.5)
	// move past every bubble's lifespan
	now := 2002.0
	assert := assert.New(t)
	assert.Empty(chart.AliveBubbles(now))
	positions := []vector.Vector{}
	for _, b := range chart.bubbles {
		positions = append(positions, vector.Vector{b.Pos.X(), b.Pos.Y()})
	}
	for i := 0; i < 10; i++ {
		chart.Step(now, 1.0)
	}
	for i, b := range chart.bubbles {
		assert.Equal(positions[i], b.Pos, "dead bubble %d must not move", b.ID)
	}
}

func TestChart_Step_deadBubblesExertNoGhostForces(t *testing.T) {
	chart := solverChart(t)
	now := 2000.5
	chart.Reconcile(now)
	alive := chart.AliveBubbles(now)
	// settle the layout
	for i := 0; i < 300; i++ {
		chart.Step(now, 1.0)
	}
	settled := alive[0].Pos.Sub(chart.conf.Anchor(alive[0].Kind)).Magnitude()

	// park a dead bubble right on top of the settled cluster; it must
	// not push the alive bubbles away
	dead := chart.grow(KindInvestor)
	dead.BirthTime = now - chart.conf.Lifespan - 1
	dead.Pos = vector.Vector{alive[0].Pos.X(), alive[0].Pos.Y()}
	dead.vel = vector.Vector{0, 0}
	for i := 0; i < 100; i++ {
		chart.Step(now, 1.0)
	}
	after := alive[0].Pos.Sub(chart.conf.Anchor(alive[0].Kind)).Magnitude()
	assert.InDelta(t, settled, after, 1.0, "dead bubble must not displace the settled cluster")
}

func TestChart_Step_reheatsOnlyOnMembershipChange(t *testing.T) {
	chart := solverChart(t)
	now := 2000.5
	chart.Reconcile(now)
	chart.Step(now, 1.0)
	assert := assert.New(t)
	assert.InDelta(chart.conf.AlphaInit, chart.Temperature(), 1e-9, "first tick starts hot")

	for i := 0; i < 50; i++ {
		chart.Step(now, 1.0)
	}
	cooled := chart.Temperature()
	assert.Less(cooled, chart.conf.AlphaInit/2, "temperature should decay while nothing changes")

	// spawn more bubbles by scrubbing forward, the next tick re-heats
	chart.Reconcile(2000.9)
	chart.Step(2000.9, 1.0)
	assert.InDelta(chart.conf.AlphaInit, chart.Temperature(), 1e-9, "membership change must re-heat the solver")
}
