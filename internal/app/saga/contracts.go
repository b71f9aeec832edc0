// Package saga runs multi-step workflows whose steps are individually
// idempotent, so a partially applied run can be resumed from the start.
package saga

import (
	"context"
	"fmt"
)

// Step is one side effect of a workflow over state T.
type Step[T any] interface {
	Name() string
	// Done reports whether the step already took effect for state.
	Done(state T) bool
	Execute(ctx context.Context, state T) error
}

// Run executes every step that is not done yet, in order, stopping at the first failure.
func Run[T any](ctx context.Context, state T, steps ...Step[T]) error {
	for _, step := range steps {
		if step.Done(state) {
			continue
		}
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("%s: %w", step.Name(), err)
		}
	}
	return nil
}

// StepFunc adapts plain functions to Step.
type StepFunc[T any] struct {
	StepName string
	IsDone   func(T) bool
	Fn       func(context.Context, T) error
}

func (s StepFunc[T]) Name() string { return s.StepName }

func (s StepFunc[T]) Done(state T) bool {
	return s.IsDone != nil && s.IsDone(state)
}

func (s StepFunc[T]) Execute(ctx context.Context, state T) error {
	return s.Fn(ctx, state)
}
