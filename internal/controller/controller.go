// Package controller binds the scrub clock, the profit dataset and the
// flowsim engine into one chart instance driven by a single event
// loop. All simulation state is owned by that loop; the exported
// methods hand commands to it over channels, so no locking is needed
// and independent chart instances share nothing.
package controller

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/mapcviz/profit-flow-backend/flowsim"
	"github.com/mapcviz/profit-flow-backend/profitdata"
)

// ErrStopped is returned by all FlowChart methods once the event loop
// has been torn down.
var ErrStopped = errors.New("flow chart event loop stopped")

// DriverConfig tunes the render/scrub driver.
type DriverConfig struct {
	// FrameInterval is the period of the physics tick.
	FrameInterval time.Duration
	// TimeStep is how many scrub-years auto-advance adds per frame.
	TimeStep float64
}

var DefaultDriverConfig = DriverConfig{
	FrameInterval: 33 * time.Millisecond,
	TimeStep:      0.02,
}

func (conf *DriverConfig) applyDefaults() {
	if conf.FrameInterval == 0 {
		conf.FrameInterval = DefaultDriverConfig.FrameInterval
	}
	if conf.TimeStep == 0 {
		conf.TimeStep = DefaultDriverConfig.TimeStep
	}
}

// BubbleView is the per-bubble render state of one frame.
type BubbleView struct {
	ID      int     `json:"id"`
	Kind    string  `json:"kind"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Opacity float64 `json:"opacity"`
}

// KindSummary is the numeric summary text recomputed per tick.
type KindSummary struct {
	Profit      float64 `json:"profit"`
	ProfitLabel string  `json:"profitLabel"`
	BubbleCount int     `json:"bubbleCount"`
}

// Frame is a render snapshot of the chart at one scrub time.
type Frame struct {
	Time           float64      `json:"time"`
	Playing        bool         `json:"playing"`
	Investor       KindSummary  `json:"investor"`
	NonInvestor    KindSummary  `json:"nonInvestor"`
	HomePriceIndex float64      `json:"homePriceIndex"`
	Bubbles        []BubbleView `json:"bubbles"`
}

// FlowChart is one chart instance. Create with NewFlowChart, start the
// event loop with Run, tear down by cancelling Run's context.
type FlowChart struct {
	series *profitdata.Series
	hpi    *profitdata.HPISeries
	chart  *flowsim.Chart
	conf   DriverConfig

	// owned by the Run loop
	now         float64
	playing     bool
	subscribers map[chan Frame]struct{}

	cmds     chan func()
	frameReq chan chan Frame
	stopped  chan struct{}
}

func NewFlowChart(series *profitdata.Series, hpi *profitdata.HPISeries, chartConf flowsim.Config, driverConf DriverConfig) *FlowChart {
	driverConf.applyDefaults()
	return &FlowChart{
		series:      series,
		hpi:         hpi,
		chart:       flowsim.NewChart(series.ProfitAt, chartConf),
		conf:        driverConf,
		now:         float64(series.MinYear()),
		subscribers: map[chan Frame]struct{}{},
		cmds:        make(chan func()),
		frameReq:    make(chan chan Frame),
		stopped:     make(chan struct{}),
	}
}

// ChartConfig returns the effective simulation config, with defaults
// applied. Immutable after construction, so safe without the loop.
func (f *FlowChart) ChartConfig() flowsim.Config {
	return f.chart.Config()
}

// Run owns the chart state until ctx is cancelled. The physics tick and
// the auto-advance clock are multiplexed onto one ticker; commands and
// frame reads interleave between ticks.
func (f *FlowChart) Run(ctx context.Context) {
	log.Ctx(ctx).Info().Msgf("flow chart loop started: years [%d, %d], frame interval %s",
		f.series.MinYear(), f.series.MaxYear(), f.conf.FrameInterval)
	ticker := time.NewTicker(f.conf.FrameInterval)
	defer ticker.Stop()
	defer close(f.stopped)
	f.chart.Reconcile(f.now)
	ticks := 0
	for {
		select {
		case <-ctx.Done():
			for sub := range f.subscribers {
				close(sub)
			}
			log.Ctx(ctx).Info().Msgf("flow chart loop stopped after %d ticks", ticks)
			return
		case cmd := <-f.cmds:
			cmd()
		case respond := <-f.frameReq:
			respond <- f.frame()
		case <-ticker.C:
			f.tick()
			ticks++
		}
	}
}

func (f *FlowChart) tick() {
	if f.playing {
		f.now += f.conf.TimeStep
		if f.now >= float64(f.series.MaxYear()) {
			// auto-advance self-cancels at the end of the series
			f.now = float64(f.series.MaxYear())
			f.playing = false
		}
		f.chart.Reconcile(f.now)
	}
	f.chart.Step(f.now, 1.0)
	f.broadcast(f.frame())
}

func (f *FlowChart) frame() Frame {
	return Snapshot(f.series, f.hpi, f.chart, f.now, f.playing)
}

// Snapshot builds a render frame of chart at scrub time now. It is the
// read side of the event loop, exported for offline frame generation.
func Snapshot(series *profitdata.Series, hpi *profitdata.HPISeries, chart *flowsim.Chart, now float64, playing bool) Frame {
	investor, nonInvestor := series.ProfitAt(now)
	frame := Frame{
		Time:        now,
		Playing:     playing,
		Investor:    summary(chart, now, flowsim.KindInvestor, investor),
		NonInvestor: summary(chart, now, flowsim.KindNonInvestor, nonInvestor),
		Bubbles:     []BubbleView{},
	}
	if hpi != nil {
		frame.HomePriceIndex = hpi.At(now)
	}
	for _, b := range chart.AliveBubbles(now) {
		frame.Bubbles = append(frame.Bubbles, BubbleView{
			ID:      b.ID,
			Kind:    b.Kind.String(),
			X:       b.Pos.X(),
			Y:       b.Pos.Y(),
			Opacity: chart.BubbleOpacity(b, now),
		})
	}
	return frame
}

func summary(chart *flowsim.Chart, now float64, kind flowsim.Kind, profit float64) KindSummary {
	return KindSummary{
		Profit:      profit,
		ProfitLabel: "$" + humanize.CommafWithDigits(profit, 0),
		BubbleCount: chart.AliveCount(now, kind),
	}
}

func (f *FlowChart) broadcast(frame Frame) {
	for sub := range f.subscribers {
		select {
		case sub <- frame:
		default:
			// slow consumer, drop the frame
		}
	}
}

// do runs fn on the event loop and waits for it to finish.
func (f *FlowChart) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case f.cmds <- func() { fn(); close(done) }:
	case <-f.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-f.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Scrub moves the clock to t, clamped into the year range, and
// reconciles the bubble population immediately.
func (f *FlowChart) Scrub(ctx context.Context, t float64) error {
	return f.do(ctx, func() {
		f.now = clampTime(t, f.series)
		f.chart.Reconcile(f.now)
	})
}

// Play starts auto-advance. Playing from the end restarts at the first
// year.
func (f *FlowChart) Play(ctx context.Context) error {
	return f.do(ctx, func() {
		if f.now >= float64(f.series.MaxYear()) {
			f.now = float64(f.series.MinYear())
			f.chart.Reconcile(f.now)
		}
		f.playing = true
	})
}

func (f *FlowChart) Pause(ctx context.Context) error {
	return f.do(ctx, func() { f.playing = false })
}

// Reset pauses and returns the clock to the first year.
func (f *FlowChart) Reset(ctx context.Context) error {
	return f.do(ctx, func() {
		f.playing = false
		f.now = float64(f.series.MinYear())
		f.chart.Reconcile(f.now)
	})
}

// Frame returns the current render snapshot.
func (f *FlowChart) Frame(ctx context.Context) (Frame, error) {
	respond := make(chan Frame, 1)
	select {
	case f.frameReq <- respond:
	case <-f.stopped:
		return Frame{}, ErrStopped
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
	select {
	case frame := <-respond:
		return frame, nil
	case <-f.stopped:
		return Frame{}, ErrStopped
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

// Subscribe registers a frame feed that receives one Frame per physics
// tick. Slow consumers miss frames instead of blocking the loop. The
// channel is closed on Unsubscribe or loop teardown.
func (f *FlowChart) Subscribe(ctx context.Context) (<-chan Frame, error) {
	sub := make(chan Frame, 8)
	err := f.do(ctx, func() { f.subscribers[sub] = struct{}{} })
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (f *FlowChart) Unsubscribe(ctx context.Context, feed <-chan Frame) error {
	return f.do(ctx, func() {
		for sub := range f.subscribers {
			if sub == feed {
				delete(f.subscribers, sub)
				close(sub)
				return
			}
		}
	})
}

func clampTime(t float64, series *profitdata.Series) float64 {
	if t < float64(series.MinYear()) {
		return float64(series.MinYear())
	}
	if t > float64(series.MaxYear()) {
		return float64(series.MaxYear())
	}
	return t
}
