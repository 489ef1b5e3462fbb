// Package driver drives a robot over its firmware link: receiving sensor
// frames, sending motor commands and tracking odometry.
package driver

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/robotalks/mrf.go/pkg/l0/comm"
	"github.com/robotalks/mrf.go/pkg/l0/serial"
)

// Command is the motor command currently requested.
type Command struct {
	Drive comm.MotorCommand
	// Wheels is used instead of Drive when UseWheels is set.
	Wheels    comm.WheelCommand
	UseWheels bool
}

// Session owns the transport to the firmware. Reads and writes may be
// issued from different goroutines, they are serialized on the transport
// so bytes of frames never interleave.
type Session struct {
	Codec *comm.Codec
	State *SensorState

	transport comm.Transport
	ioLock    sync.Mutex
	closed    int32
	lost      int32

	cmdLock  sync.Mutex
	command  Command
	sent     uint64
	received uint64
}

// NewSession creates a Session over a transport.
func NewSession(t comm.Transport, v *comm.Variant) *Session {
	return &Session{
		Codec:     comm.NewCodec(v),
		State:     &SensorState{},
		transport: t,
	}
}

// Connect creates a Session over an opened stream.
func Connect(rw io.ReadWriter, conf *Config) (*Session, error) {
	v, err := conf.Variant()
	if err != nil {
		return nil, err
	}
	s := NewSession(comm.NewStreamTransport(rw), v)
	s.Codec.Timeout = conf.ReadTimeout
	return s, nil
}

// Open opens the serial port in conf and creates a Session.
func Open(conf *Config) (*Session, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	port, err := serial.Open(conf.Port, conf.Serial)
	if err != nil {
		return nil, err
	}
	s, err := Connect(port, conf)
	if err != nil {
		port.Close()
		return nil, err
	}
	glog.Infof("session on %s using protocol %s", conf.Port, conf.Protocol)
	return s, nil
}

// Variant returns the protocol variant.
func (s *Session) Variant() *comm.Variant {
	return s.Codec.Variant
}

// CanCommand tells if the firmware accepts motor commands.
func (s *Session) CanCommand() bool {
	return s.Codec.Variant.Motor != nil
}

// IsConnected tells whether the transport is still usable.
func (s *Session) IsConnected() bool {
	if atomic.LoadInt32(&s.closed) != 0 || atomic.LoadInt32(&s.lost) != 0 {
		return false
	}
	if c, ok := s.transport.(interface{ IsClosed() bool }); ok && c.IsClosed() {
		return false
	}
	return true
}

// Receive reads one sensor frame. On success the sample replaces the
// current one in State. Failures are returned as is, nothing is retried.
func (s *Session) Receive() (comm.SensorSample, error) {
	if !s.IsConnected() {
		return comm.SensorSample{}, comm.ErrTransportClosed
	}
	s.ioLock.Lock()
	sample, err := s.Codec.ReadSample(s.transport)
	s.ioLock.Unlock()
	if err != nil {
		return sample, s.check(err)
	}
	atomic.AddUint64(&s.received, 1)
	s.State.Update(sample)
	return sample, nil
}

// SendCommand sends a drive command and makes it the current command.
func (s *Session) SendCommand(cmd comm.MotorCommand) error {
	s.SetCommand(cmd)
	return s.send(Command{Drive: cmd})
}

// SendWheels sends wheel speeds and makes them the current command.
func (s *Session) SendWheels(cmd comm.WheelCommand) error {
	s.SetWheels(cmd)
	return s.send(Command{Wheels: cmd, UseWheels: true})
}

// SetCommand changes the current command without sending it.
func (s *Session) SetCommand(cmd comm.MotorCommand) {
	s.cmdLock.Lock()
	s.command = Command{Drive: cmd}
	s.cmdLock.Unlock()
}

// SetWheels changes the current command to wheel speeds without sending it.
func (s *Session) SetWheels(cmd comm.WheelCommand) {
	s.cmdLock.Lock()
	s.command = Command{Wheels: cmd, UseWheels: true}
	s.cmdLock.Unlock()
}

// Command returns the current command.
func (s *Session) Command() Command {
	s.cmdLock.Lock()
	defer s.cmdLock.Unlock()
	return s.command
}

// SendCurrent sends the current command again.
func (s *Session) SendCurrent() error {
	return s.send(s.Command())
}

// Stop stops both motors.
func (s *Session) Stop() error {
	return s.SendCommand(comm.MotorCommand{})
}

// MoveForward drives straight forward.
func (s *Session) MoveForward(speed int) error {
	return s.SendCommand(comm.MotorCommand{Speed: speed})
}

// MoveBackward drives straight backward.
func (s *Session) MoveBackward(speed int) error {
	return s.SendCommand(comm.MotorCommand{Speed: -speed})
}

// TurnLeft drives forward turning left.
func (s *Session) TurnLeft(speed, angle int) error {
	return s.SendCommand(comm.MotorCommand{Speed: speed, Angle: -angle})
}

// TurnRight drives forward turning right.
func (s *Session) TurnRight(speed, angle int) error {
	return s.SendCommand(comm.MotorCommand{Speed: speed, Angle: angle})
}

// Sample returns the latest sensor sample.
func (s *Session) Sample() (comm.SensorSample, bool) {
	return s.State.Sample()
}

// Counters returns the number of frames received and commands sent.
func (s *Session) Counters() (received, sent uint64) {
	return atomic.LoadUint64(&s.received), atomic.LoadUint64(&s.sent)
}

// Close closes the transport. It's safe to call multiple times.
func (s *Session) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil
	}
	s.ioLock.Lock()
	defer s.ioLock.Unlock()
	glog.V(2).Info("session closed")
	return s.transport.Close()
}

func (s *Session) send(cmd Command) error {
	if !s.IsConnected() {
		return comm.ErrTransportClosed
	}
	s.ioLock.Lock()
	var err error
	if cmd.UseWheels {
		err = s.Codec.WriteWheels(s.transport, cmd.Wheels)
	} else {
		err = s.Codec.WriteCommand(s.transport, cmd.Drive)
	}
	s.ioLock.Unlock()
	if err != nil {
		return s.check(err)
	}
	atomic.AddUint64(&s.sent, 1)
	return nil
}

func (s *Session) check(err error) error {
	if errors.Is(err, comm.ErrTransportClosed) && atomic.CompareAndSwapInt32(&s.lost, 0, 1) {
		glog.Errorf("transport closed: %v", err)
	}
	return err
}
