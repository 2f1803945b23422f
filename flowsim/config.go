package flowsim

import (
	"math/rand"

	"github.com/pkg/errors"
	"github.com/quartercastle/vector"
)

// Rect is the canvas region the chart lays bubbles out in.
type Rect struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Config tunes the bubble chart simulation. Zero values are replaced by
// DefaultConfig on ApplyConfig.
type Config struct {
	// BubbleValue is the fixed dollar denomination one bubble represents.
	BubbleValue float64 `yaml:"bubble_value"`
	// Lifespan is how long a bubble stays visible, in scrub-time years.
	Lifespan float64 `yaml:"lifespan"`
	// FadePortion is the fraction of the lifespan spent fading in (and
	// again fading out), 0 < FadePortion <= 0.5.
	FadePortion float64 `yaml:"fade_portion"`

	Rect              Rect          `yaml:"rect"`
	SpawnPoint        vector.Vector `yaml:"spawn_point"`
	InvestorAnchor    vector.Vector `yaml:"investor_anchor"`
	NonInvestorAnchor vector.Vector `yaml:"noninvestor_anchor"`
	// SpawnJitter spreads spawn positions so coincident bubbles do not
	// produce degenerate collision directions.
	SpawnJitter float64 `yaml:"spawn_jitter"`

	// per-axis spring strength pulling bubbles to their kind's anchor
	SpringStrengthX float64 `yaml:"spring_strength_x"`
	SpringStrengthY float64 `yaml:"spring_strength_y"`
	// CollisionRadius is a bubble's hard radius; pairs closer than twice
	// this are pushed apart.
	CollisionRadius   float64 `yaml:"collision_radius"`
	CollisionStrength float64 `yaml:"collision_strength"`
	VelocityDecay     float64 `yaml:"velocity_decay"`
	MaxSpeed          float64 `yaml:"max_speed"`
	// BoundsMultiplier clamps runaway positions to a multiple of Rect.
	BoundsMultiplier float64 `yaml:"bounds_multiplier"`

	// initial temperature of the solver, restored whenever the alive set
	// changes
	AlphaInit float64 `yaml:"alpha_init"`
	// decay of temperature towards AlphaTarget per tick
	AlphaDecay float64 `yaml:"alpha_decay"`
	// residual temperature of a settled layout
	AlphaTarget float64 `yaml:"alpha_target"`

	RandomFloat func() float64 `yaml:"-"`
}

var DefaultConfig = Config{
	BubbleValue:       5000,
	Lifespan:          1.0,
	FadePortion:       0.25,
	Rect:              Rect{X: 0, Y: 0, Width: 1200, Height: 800},
	SpawnPoint:        vector.Vector{600, 60},
	InvestorAnchor:    vector.Vector{340, 460},
	NonInvestorAnchor: vector.Vector{860, 460},
	SpawnJitter:       6.0,
	SpringStrengthX:   0.04,
	SpringStrengthY:   0.05,
	CollisionRadius:   8.0,
	CollisionStrength: 0.6,
	VelocityDecay:     0.3,
	MaxSpeed:          100.0,
	BoundsMultiplier:  10.0,
	AlphaInit:         1.0,
	AlphaDecay:        0.05,
	AlphaTarget:       0.02,
}

func (conf *Config) applyDefaults() {
	if conf.BubbleValue == 0.0 {
		conf.BubbleValue = DefaultConfig.BubbleValue
	}
	if conf.Lifespan == 0.0 {
		conf.Lifespan = DefaultConfig.Lifespan
	}
	if conf.FadePortion == 0.0 {
		conf.FadePortion = DefaultConfig.FadePortion
	}
	if conf.Rect.Width == 0.0 || conf.Rect.Height == 0.0 {
		conf.Rect = DefaultConfig.Rect
	}
	if len(conf.SpawnPoint) == 0 {
		conf.SpawnPoint = DefaultConfig.SpawnPoint
	}
	if len(conf.InvestorAnchor) == 0 {
		conf.InvestorAnchor = DefaultConfig.InvestorAnchor
	}
	if len(conf.NonInvestorAnchor) == 0 {
		conf.NonInvestorAnchor = DefaultConfig.NonInvestorAnchor
	}
	if conf.SpawnJitter == 0.0 {
		conf.SpawnJitter = DefaultConfig.SpawnJitter
	}
	if conf.SpringStrengthX == 0.0 {
		conf.SpringStrengthX = DefaultConfig.SpringStrengthX
	}
	if conf.SpringStrengthY == 0.0 {
		conf.SpringStrengthY = DefaultConfig.SpringStrengthY
	}
	if conf.CollisionRadius == 0.0 {
		conf.CollisionRadius = DefaultConfig.CollisionRadius
	}
	if conf.CollisionStrength == 0.0 {
		conf.CollisionStrength = DefaultConfig.CollisionStrength
	}
	if conf.VelocityDecay == 0.0 {
		conf.VelocityDecay = DefaultConfig.VelocityDecay
	}
	if conf.MaxSpeed == 0.0 {
		conf.MaxSpeed = DefaultConfig.MaxSpeed
	}
	if conf.BoundsMultiplier == 0.0 {
		conf.BoundsMultiplier = DefaultConfig.BoundsMultiplier
	}
	if conf.AlphaInit == 0.0 {
		conf.AlphaInit = DefaultConfig.AlphaInit
	}
	if conf.AlphaDecay == 0.0 {
		conf.AlphaDecay = DefaultConfig.AlphaDecay
	}
	if conf.AlphaTarget == 0.0 {
		conf.AlphaTarget = DefaultConfig.AlphaTarget
	}
	if conf.RandomFloat == nil {
		conf.RandomFloat = rand.Float64
	}
}

// Validate rejects configurations the opacity ramps and the scheduler
// cannot work with. It checks the config as it will be used, i.e.
// after zero fields are replaced by their defaults.
func (conf Config) Validate() error {
	conf.applyDefaults()
	if conf.BubbleValue <= 0 {
		return errors.Errorf("bubble_value must be positive, got %v", conf.BubbleValue)
	}
	if conf.Lifespan <= 0 {
		return errors.Errorf("lifespan must be positive, got %v", conf.Lifespan)
	}
	if conf.FadePortion <= 0 || conf.FadePortion > 0.5 {
		return errors.Errorf("fade_portion must be in (0, 0.5], got %v", conf.FadePortion)
	}
	return nil
}

// Anchor returns the cluster anchor bubbles of the given kind are
// pulled towards.
func (conf Config) Anchor(kind Kind) vector.Vector {
	if kind == KindInvestor {
		return conf.InvestorAnchor
	}
	return conf.NonInvestorAnchor
}
