package driver

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	fx "github.com/robotalks/mrf.go/pkg/framework"
	"github.com/robotalks/mrf.go/pkg/l0/comm"
	"github.com/robotalks/mrf.go/pkg/odometry"
)

// SampleHandler is notified of every received sample and what the
// odometry did with it.
type SampleHandler func(comm.SensorSample, odometry.Outcome)

// SensorReader receives sensor frames and feeds the encoders into the
// odometry. Expected per-frame failures are counted and skipped.
type SensorReader struct {
	Session      *Session
	Odometry     *odometry.Odometry
	LeftEncoder  int
	RightEncoder int
	OnSample     SampleHandler

	dropped uint64
}

// Step implements framework.Stepper.
func (r *SensorReader) Step(ctx context.Context, now time.Time) error {
	sample, err := r.Session.Receive()
	if err != nil {
		if !comm.IsTransient(err) {
			return err
		}
		if !errors.Is(err, comm.ErrTimeout) {
			atomic.AddUint64(&r.dropped, 1)
			glog.Warningf("sensor frame dropped: %v", err)
		}
		return nil
	}
	outcome := odometry.OutcomeSkipped
	if r.Odometry != nil {
		outcome = r.Odometry.Update(sample.Encoders[r.LeftEncoder], sample.Encoders[r.RightEncoder], sample.Timestamp)
	}
	if r.OnSample != nil {
		r.OnSample(sample, outcome)
	}
	return nil
}

// Dropped counts the corrupted or incomplete frames.
func (r *SensorReader) Dropped() uint64 {
	return atomic.LoadUint64(&r.dropped)
}

// CommandSource provides the drive command to be sent, e.g. from teleop.
// ok is false when the source has nothing new.
type CommandSource interface {
	DriveCommand() (cmd comm.MotorCommand, ok bool)
}

// CommandSender sends the current command of the Session periodically so
// the firmware keeps driving (and stops when the host goes away).
type CommandSender struct {
	Session *Session
	Source  CommandSource
}

// Step implements framework.Stepper.
func (s *CommandSender) Step(ctx context.Context, now time.Time) error {
	if s.Source != nil {
		if cmd, ok := s.Source.DriveCommand(); ok {
			s.Session.SetCommand(cmd)
		}
	}
	err := s.Session.SendCurrent()
	if errors.Is(err, comm.ErrShortWrite) {
		glog.Warningf("command not sent: %v", err)
		return nil
	}
	return err
}

// Flows runs a SensorReader and an optional CommandSender concurrently,
// sharing one RunFlag: when either fails, both stop.
type Flows struct {
	Flag   *fx.RunFlag
	Reader *SensorReader
	Sender *CommandSender
	Loops  []*fx.Loop

	commandLoop *fx.Loop
}

// NewFlows creates the flows for the session. The CommandSender is only
// created if the firmware accepts motor commands. odo may be nil.
func NewFlows(s *Session, odo *odometry.Odometry, conf *Config) *Flows {
	f := &Flows{
		Flag: fx.NewRunFlag(),
		Reader: &SensorReader{
			Session:      s,
			Odometry:     odo,
			LeftEncoder:  conf.LeftEncoder,
			RightEncoder: conf.RightEncoder,
		},
	}
	f.Loops = append(f.Loops, fx.NewLoop("sensor", conf.SensorInterval, f.Reader).WithFlag(f.Flag))
	if s.CanCommand() {
		f.Sender = &CommandSender{Session: s}
		f.commandLoop = fx.NewLoop("command", conf.CommandInterval, f.Sender).WithFlag(f.Flag)
		f.Loops = append(f.Loops, f.commandLoop)
	}
	return f
}

// Run runs all flows until the context is canceled, the flag is cleared
// or any flow fails.
func (f *Flows) Run(ctx context.Context) error {
	runner := fx.NewRunnerWith(ctx)
	for _, loop := range f.Loops {
		runner.Go(loop)
	}
	glog.Infof("%d flows started", len(f.Loops))
	err := runner.Wait()
	glog.Infof("flows stopped")
	return err
}

// TriggerCommand makes the command flow send without waiting for the
// interval, e.g. when teleop input changes.
func (f *Flows) TriggerCommand() {
	if f.commandLoop != nil {
		f.commandLoop.TriggerNext()
	}
}

// Stop clears the shared flag.
func (f *Flows) Stop() {
	f.Flag.Stop()
}
