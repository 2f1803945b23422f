package flowsim

import "github.com/quartercastle/vector"

// Kind distinguishes the two bubble clusters of the chart.
type Kind int

const (
	KindInvestor Kind = iota
	KindNonInvestor
	numKinds
)

func (k Kind) String() string {
	switch k {
	case KindInvestor:
		return "investor"
	case KindNonInvestor:
		return "noninvestor"
	}
	return "unknown"
}

// Kinds lists all bubble kinds in a fixed order.
func Kinds() []Kind { return []Kind{KindInvestor, KindNonInvestor} }

// State is derived from the scrub clock, never stored: a bubble whose
// birth lies in the future is scheduled (a stale leftover of a backward
// scrub), one older than the lifespan is dead and recyclable.
type State int

const (
	StateScheduled State = iota
	StateAlive
	StateDead
)

// Bubble is one fixed-denomination slice of profit in the arena. The ID
// equals the bubble's arena slot, recycling reassigns the slot's fields
// in place.
type Bubble struct {
	ID        int
	Kind      Kind
	BirthTime float64
	Pos       vector.Vector
	vel       vector.Vector
	acc       vector.Vector
}

func (b *Bubble) Age(now float64) float64 { return now - b.BirthTime }

func (b *Bubble) State(now, lifespan float64) State {
	age := b.Age(now)
	switch {
	case age < 0:
		return StateScheduled
	case age > lifespan:
		return StateDead
	}
	return StateAlive
}
