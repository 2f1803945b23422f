package flowsim

import "math"

// Reconcile adjusts the bubble population so that the alive count of
// each kind matches round(profit(now) / BubbleValue). Deficits are
// covered by recycling before allocating: any bubble that is dead, or
// whose birth lies in the future because the scrubber moved backward,
// is reborn at the spawn point. Surplus bubbles are not touched, they
// age out of the alive set on their own.
//
// Recycling order is first-created-first-reused (ascending arena slot),
// which keeps repeated reconciliation deterministic. Calling Reconcile
// twice at the same time is a no-op the second time.
func (c *Chart) Reconcile(now float64) {
	investor, nonInvestor := c.profitAt(now)
	c.reconcileKind(KindInvestor, investor, now)
	c.reconcileKind(KindNonInvestor, nonInvestor, now)
}

// DesiredCount converts a profit total into a bubble count, floored at
// zero. Rounding is half-away-from-zero (math.Round).
func (c *Chart) DesiredCount(profit float64) int {
	if profit <= 0 {
		return 0
	}
	return int(math.Round(profit / c.conf.BubbleValue))
}

func (c *Chart) reconcileKind(kind Kind, profit float64, now float64) {
	desired := c.DesiredCount(profit)
	alive := 0
	recyclable := []*Bubble{}
	for _, b := range c.bubbles {
		if b.Kind != kind {
			continue
		}
		if b.State(now, c.conf.Lifespan) == StateAlive {
			alive++
		} else {
			recyclable = append(recyclable, b)
		}
	}
	for ; alive < desired; alive++ {
		var b *Bubble
		if len(recyclable) > 0 {
			b, recyclable = recyclable[0], recyclable[1:]
		} else {
			b = c.grow(kind)
		}
		c.spawn(b, now)
	}
}
