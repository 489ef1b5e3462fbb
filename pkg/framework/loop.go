package framework

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"
)

// DefaultInterval is the loop interval used when none is set.
const DefaultInterval = 100 * time.Millisecond

// Loop runs a Stepper periodically: one step, then wait for the interval,
// until the context is canceled or the RunFlag is cleared.
// A step returning an error ends the loop and clears the RunFlag, so the
// other flows sharing it stop too.
type Loop struct {
	Interval time.Duration
	Stepper  Stepper
	Flag     *RunFlag
	Clock    clock.Clock

	name     string
	wakeUpCh chan struct{}
}

// NewLoop creates a Loop.
func NewLoop(name string, interval time.Duration, stepper Stepper) *Loop {
	return &Loop{
		Interval: interval,
		Stepper:  stepper,
		Clock:    clock.New(),
		name:     name,
		wakeUpCh: make(chan struct{}, 1),
	}
}

// WithFlag sets the shared RunFlag.
func (l *Loop) WithFlag(flag *RunFlag) *Loop {
	l.Flag = flag
	return l
}

// Name implements Named.
func (l *Loop) Name() string {
	return l.name
}

// Run implements Runnable. It returns nil when stopped by the RunFlag.
func (l *Loop) Run(ctx context.Context) error {
	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	var doneCh <-chan struct{}
	if l.Flag != nil {
		doneCh = l.Flag.Done()
	}
	glog.V(2).Infof("loop %s started, interval %v", l.name, interval)
	defer glog.V(2).Infof("loop %s stopped", l.name)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-doneCh:
			return nil
		default:
		}
		if err := l.Stepper.Step(ctx, l.Clock.Now()); err != nil {
			if l.Flag != nil {
				l.Flag.Stop()
			}
			return err
		}
		timer := l.Clock.Timer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-doneCh:
			timer.Stop()
			return nil
		case <-l.wakeUpCh:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// TriggerNext schedules the next iteration to be executed immediately
// after the current one.
func (l *Loop) TriggerNext() {
	select {
	case l.wakeUpCh <- struct{}{}:
	default:
	}
}
