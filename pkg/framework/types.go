package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// RunnableFunc is the func form of Runnable.
type RunnableFunc func(context.Context) error

// Run implements Runnable.
func (f RunnableFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Stepper performs one iteration of a periodic flow.
type Stepper interface {
	Step(ctx context.Context, now time.Time) error
}

// StepFunc is the func form of Stepper.
type StepFunc func(context.Context, time.Time) error

// Step implements Stepper.
func (f StepFunc) Step(ctx context.Context, now time.Time) error {
	return f(ctx, now)
}
