package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// DefaultCompensationTimeout bounds each compensation call.
const DefaultCompensationTimeout = 30 * time.Second

// Step is one unit of a saga. Compensate may be nil for steps without side
// effects; when set it must be idempotent.
type Step struct {
	Name       string
	Do         func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Saga runs steps in order and undoes the committed ones on failure.
type Saga struct {
	steps   []Step
	timeout time.Duration
	log     zerolog.Logger
}

// NewSaga creates a saga over steps.
func NewSaga(log zerolog.Logger, steps ...Step) *Saga {
	return &Saga{
		steps:   steps,
		timeout: DefaultCompensationTimeout,
		log:     log,
	}
}

// WithCompensationTimeout sets the per-compensation timeout.
func (s *Saga) WithCompensationTimeout(d time.Duration) *Saga {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Run executes the steps. When step i fails, the compensations of steps
// i..0 run in reverse order; the failed step is included because it may
// have partially succeeded. Compensations run on a context detached from
// ctx, so a canceled caller still rolls back.
func (s *Saga) Run(ctx context.Context) error {
	for i, step := range s.steps {
		if err := ctx.Err(); err != nil {
			// step i never ran
			return s.fail(ctx, i-1, step.Name, err)
		}

		start := time.Now()
		if err := step.Do(ctx); err != nil {
			s.log.Warn().
				Err(err).
				Str("step", step.Name).
				Msg("Saga step failed, rolling back")
			return s.fail(ctx, i, step.Name, err)
		}
		s.log.Debug().
			Str("step", step.Name).
			Dur("duration", time.Since(start)).
			Msg("Saga step committed")
	}
	return nil
}

func (s *Saga) fail(ctx context.Context, last int, name string, cause error) error {
	var errs []error
	for i := last; i >= 0; i-- {
		step := s.steps[i]
		if step.Compensate == nil {
			continue
		}
		if err := s.compensate(ctx, step); err != nil {
			s.log.Error().
				Err(err).
				Str("step", step.Name).
				Msg("Compensation failed")
			errs = append(errs, fmt.Errorf("compensate %s: %w", step.Name, err))
			continue
		}
		s.log.Info().Str("step", step.Name).Msg("Step compensated")
	}

	return &SagaError{
		Step:         name,
		Err:          cause,
		Compensation: errors.Join(errs...),
	}
}

func (s *Saga) compensate(ctx context.Context, step Step) error {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	return step.Compensate(cctx)
}
