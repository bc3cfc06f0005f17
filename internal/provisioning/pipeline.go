package provisioning

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/beaver-logs/beaver/internal/metrics"
	"github.com/beaver-logs/beaver/internal/platform/executor"
	"github.com/beaver-logs/beaver/internal/util/async"
)

// StageError is the terminal Failed(stage, cause) outcome of a run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s phase failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Skipper is implemented by phases that can tell up front that their work
// is already done.
type Skipper interface {
	// Skip reports whether the phase has nothing to do, and why.
	Skip(ctx *Context) (bool, string)
}

// Pipeline is an ordered list of phases.
type Pipeline struct {
	Phases []Phase
}

// NewPipeline creates a pipeline running phases in order.
func NewPipeline(phases ...Phase) *Pipeline {
	return &Pipeline{Phases: phases}
}

// Run executes the pipeline's phases.
func (p *Pipeline) Run(ctx *Context) error {
	return RunPhases(ctx, p.Phases)
}

// RunPhases executes all provisioning phases sequentially. The first failure
// stops the run and is returned as a *StageError.
func RunPhases(ctx *Context, phases []Phase) error {
	start := time.Now()
	ctx.Observer.Printf("Starting provisioning with %d phases...", len(phases))

	for i, phase := range phases {
		label := fmt.Sprintf("%s (%d/%d)", phase.Name(), i+1, len(phases))
		if err := runPhase(ctx, phase, label); err != nil {
			return err
		}
	}

	ctx.Observer.Printf("Provisioning completed in %v", time.Since(start).Round(time.Millisecond))
	return nil
}

func runPhase(ctx *Context, phase Phase, label string) error {
	if ctx.Context != nil {
		if err := ctx.Err(); err != nil {
			return &StageError{Stage: phase.Name(), Err: err}
		}
	}

	if s, ok := phase.(Skipper); ok {
		if skip, reason := s.Skip(ctx); skip {
			LogPhaseSkipped(ctx.Observer, label, reason)
			ctx.Metrics.ObserveStage(phase.Name(), metrics.ResultSkipped, 0)
			return nil
		}
	}

	phaseStart := time.Now()
	LogPhaseStart(ctx.Observer, label)

	err := phase.Provision(ctx)
	ctx.Metrics.ObserveStage(phase.Name(), stageResult(err), time.Since(phaseStart))
	if err != nil {
		LogPhaseFailed(ctx.Observer, label, err)
		var se *StageError
		if errors.As(err, &se) {
			return err
		}
		return &StageError{Stage: phase.Name(), Err: err}
	}

	LogPhaseComplete(ctx.Observer, label, time.Since(phaseStart))
	return nil
}

func stageResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, executor.ErrTimeout):
		return metrics.ResultTimeout
	default:
		return metrics.ResultFailure
	}
}

// concurrentPhase runs independent phases at the same time. Every member
// runs to completion; the error joins one *StageError per failed member.
type concurrentPhase struct {
	phases []Phase
}

// Concurrently groups phases that share no dependency edge.
func Concurrently(phases ...Phase) Phase {
	return &concurrentPhase{phases: phases}
}

func (p *concurrentPhase) Name() string {
	names := make([]string, len(p.phases))
	for i, ph := range p.phases {
		names[i] = ph.Name()
	}
	return strings.Join(names, "+")
}

func (p *concurrentPhase) Provision(ctx *Context) error {
	tasks := make([]async.Task, len(p.phases))
	for i, ph := range p.phases {
		tasks[i] = async.Task{
			Name: ph.Name(),
			Func: func(_ context.Context) error {
				return runPhase(ctx, ph, ph.Name())
			},
		}
	}
	return async.RunParallel(ctx, tasks)
}
