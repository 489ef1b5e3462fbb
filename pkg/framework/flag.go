package framework

import "sync"

// RunFlag is the running flag shared by cooperating flows. Clearing it
// asks every flow watching it to finish its current iteration and exit.
type RunFlag struct {
	once   sync.Once
	doneCh chan struct{}
}

// NewRunFlag creates a RunFlag in running state.
func NewRunFlag() *RunFlag {
	return &RunFlag{doneCh: make(chan struct{})}
}

// Running tells if the flag is still set.
func (f *RunFlag) Running() bool {
	select {
	case <-f.doneCh:
		return false
	default:
		return true
	}
}

// Stop clears the flag. It's safe to call multiple times.
func (f *RunFlag) Stop() {
	f.once.Do(func() { close(f.doneCh) })
}

// Done is closed when the flag is cleared.
func (f *RunFlag) Done() <-chan struct{} {
	return f.doneCh
}
