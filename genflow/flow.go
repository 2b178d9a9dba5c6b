package genflow

import (
	"context"
	"errors"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/vibrantwave/wv/store"
)

// ErrInFlight is returned when a generation starts while another is running.
var ErrInFlight = errors.New("genflow: generation already in flight")

// FlowState is the observable state of the generation flow.
type FlowState struct {
	Generating bool
	// Progress is 0..100. It creeps upward on a timer and jumps to 100 when
	// the request actually resolves.
	Progress float64
	// Note is the model's text commentary, shown alongside the result.
	Note string
	// Variants holds multi-variant results awaiting a user pick.
	Variants []Variant
	// Err is the user-facing failure message, empty on success.
	Err string
}

// FlowConfig tunes the progress simulation. Zero values take defaults.
type FlowConfig struct {
	// ProgressInterval between simulated progress bumps. Default: 1.1s.
	ProgressInterval time.Duration
	// StepMin/StepMax bound each simulated bump. Defaults: 3 and 12.
	StepMin float64
	StepMax float64
	// Ceiling is where simulated progress stalls until the real result
	// lands. Default: 90.
	Ceiling float64
	// MinDuration keeps the generating state visible at least this long.
	// Default: 2s.
	MinDuration time.Duration
}

func (c *FlowConfig) defaults() {
	if c.ProgressInterval <= 0 {
		c.ProgressInterval = 1100 * time.Millisecond
	}
	if c.StepMin <= 0 {
		c.StepMin = 3
	}
	if c.StepMax <= c.StepMin {
		c.StepMax = 12
	}
	if c.Ceiling <= 0 {
		c.Ceiling = 90
	}
	if c.MinDuration <= 0 {
		c.MinDuration = 2 * time.Second
	}
}

// Flow wraps the orchestrator with the single-flight guard and the simulated
// progress that the rest of the app observes.
type Flow struct {
	orch     *Orchestrator
	cfg      FlowConfig
	state    *store.Store[FlowState]
	inFlight atomic.Bool
}

// NewFlow creates a Flow.
func NewFlow(orch *Orchestrator, cfg FlowConfig) *Flow {
	cfg.defaults()
	return &Flow{
		orch:  orch,
		cfg:   cfg,
		state: store.New(FlowState{}),
	}
}

// State exposes the observable flow state.
func (f *Flow) State() *store.Store[FlowState] { return f.state }

// Generate runs one generation end to end, blocking until it settles. When a
// single variant succeeds, apply receives its image; multi-variant results
// are published on the state for a user pick instead. A second call while
// one is running returns ErrInFlight without touching anything.
func (f *Flow) Generate(ctx context.Context, p Payload, variantCount int, apply func(image string) error) error {
	if !f.inFlight.CompareAndSwap(false, true) {
		return ErrInFlight
	}
	defer f.inFlight.Store(false)

	started := time.Now()
	f.state.Set(FlowState{Generating: true})

	stop := make(chan struct{})
	done := make(chan struct{})
	go f.simulateProgress(stop, done)

	res, err := f.orch.Generate(ctx, p, variantCount)
	if err == nil && apply != nil && len(res.Variants) == 1 && res.Image != "" {
		err = apply(res.Image)
	}

	close(stop)
	<-done

	if err != nil {
		f.state.Update(func(s FlowState) FlowState {
			s.Err = err.Error()
			return s
		})
	} else {
		f.state.Update(func(s FlowState) FlowState {
			s.Progress = 100
			s.Note = res.Text
			if len(res.Variants) > 1 {
				s.Variants = res.Variants
			}
			return s
		})
	}

	if remaining := f.cfg.MinDuration - time.Since(started); remaining > 0 {
		sleepCtx(ctx, remaining)
	}

	f.state.Update(func(s FlowState) FlowState {
		s.Generating = false
		s.Progress = 0
		return s
	})
	return err
}

// ClearVariants drops a pending multi-variant result, after the user picked
// one or dismissed the set.
func (f *Flow) ClearVariants() {
	f.state.Update(func(s FlowState) FlowState {
		s.Variants = nil
		return s
	})
}

func (f *Flow) simulateProgress(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(f.cfg.ProgressInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			f.state.Update(func(s FlowState) FlowState {
				step := f.cfg.StepMin + rand.Float64()*(f.cfg.StepMax-f.cfg.StepMin)
				s.Progress = min(s.Progress+step, f.cfg.Ceiling)
				return s
			})
		}
	}
}
