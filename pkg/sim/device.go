package sim

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"

	"github.com/robotalks/mrf.go/pkg/l0/comm"
	"github.com/robotalks/mrf.go/pkg/odometry"
)

// MaxPending is the size of the output buffer. Older bytes are dropped
// when the host doesn't read fast enough, like a UART overrun.
const MaxPending = 4096

// Device emulates the firmware on the other end of the serial port.
// It decodes motor commands written by the host and produces sensor frames
// on each Step.
type Device struct {
	Variant *comm.Variant
	Clock   clock.Clock

	config Config
	bot    *Bot

	lock        sync.Mutex
	in          []byte
	out         []byte
	readTimeout time.Duration
	dataCh      chan struct{}
	closeCh     chan struct{}
	closeOnce   sync.Once

	frames   uint64
	commands uint64
	rejected uint64
}

// NewDevice creates a Device speaking the protocol variant.
func NewDevice(v *comm.Variant, conf Config) *Device {
	return &Device{
		Variant:     v,
		Clock:       clock.New(),
		config:      conf,
		bot:         NewBot(conf),
		readTimeout: -1,
		dataCh:      make(chan struct{}, 1),
		closeCh:     make(chan struct{}),
	}
}

// Read implements io.Reader. It blocks until sensor bytes are available,
// the read timeout expires (returning 0, nil) or the device is closed.
// A negative read timeout blocks forever.
func (d *Device) Read(p []byte) (int, error) {
	var timeout <-chan time.Time
	for {
		d.lock.Lock()
		if d.isClosed() {
			d.lock.Unlock()
			return 0, io.EOF
		}
		if len(d.out) > 0 {
			n := copy(p, d.out)
			d.out = d.out[:copy(d.out, d.out[n:])]
			d.lock.Unlock()
			return n, nil
		}
		readTimeout := d.readTimeout
		d.lock.Unlock()

		if readTimeout == 0 {
			return 0, nil
		}
		if readTimeout > 0 && timeout == nil {
			timer := d.Clock.Timer(readTimeout)
			defer timer.Stop()
			timeout = timer.C
		}
		select {
		case <-d.dataCh:
		case <-d.closeCh:
		case <-timeout:
			return 0, nil
		}
	}
}

// Write implements io.Writer. Complete motor frames are applied to the
// simulated wheels, invalid frames are counted and skipped.
func (d *Device) Write(p []byte) (int, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.isClosed() {
		return 0, comm.ErrTransportClosed
	}
	m := d.Variant.Motor
	if m == nil {
		return len(p), nil
	}
	d.in = append(d.in, p...)
	for {
		pos := bytes.IndexByte(d.in, m.Header)
		if pos < 0 {
			d.in = d.in[:0]
			break
		}
		d.in = d.in[pos:]
		size := m.FrameSize()
		if len(d.in) < size {
			break
		}
		first, second, err := m.Decode(d.in[:size])
		if err != nil {
			glog.V(2).Infof("sim: drop motor frame % X: %v", d.in[:size], err)
			d.rejected++
			d.in = d.in[1:]
			continue
		}
		d.in = d.in[size:]
		d.commands++
		d.apply(m, first, second)
	}
	return len(p), nil
}

func (d *Device) apply(m *comm.MotorFormat, first, second int) {
	wheels := comm.WheelCommand{Left: first, Right: second}
	if m.Fields == comm.FieldsSpeedAngle {
		wheels = comm.Mix(comm.MotorCommand{Speed: first, Angle: second}, m.Second.Max)
	}
	full := float64(m.First.Max)
	d.bot.SetWheelSpeeds(float64(wheels.Left)/full, float64(wheels.Right)/full)
}

// SetReadTimeout sets the timeout of Read.
func (d *Device) SetReadTimeout(t time.Duration) error {
	d.lock.Lock()
	d.readTimeout = t
	d.lock.Unlock()
	return nil
}

// Drain is a no-op, writes are applied immediately.
func (d *Device) Drain() error {
	return nil
}

// Close closes the device and unblocks pending reads.
func (d *Device) Close() error {
	d.closeOnce.Do(func() { close(d.closeCh) })
	return nil
}

func (d *Device) isClosed() bool {
	select {
	case <-d.closeCh:
		return true
	default:
		return false
	}
}

// Step implements framework.Stepper: advances the robot to now and emits
// one sensor frame.
func (d *Device) Step(ctx context.Context, now time.Time) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.isClosed() {
		return nil
	}
	d.bot.Step(now)
	sample := comm.SensorSample{Timestamp: now}
	accel, gyro := d.bot.IMU()
	sample.Accel = comm.Vector3{X: accel[0], Y: accel[1], Z: accel[2]}
	sample.Gyro = comm.Vector3{X: gyro[0], Y: gyro[1], Z: gyro[2]}
	left, right := d.bot.Encoders()
	sample.Encoders[d.config.LeftEncoder] = left
	sample.Encoders[d.config.RightEncoder] = right
	if d.Variant.Sensor.Attitude {
		sample.HasAttitude = true
		sample.Attitude.Yaw = clampInt16(d.bot.Pose().Orientation.Degrees() * 100)
	}
	d.emit(d.Variant.Sensor.Encode(sample))
	d.frames++
	return nil
}

// Inject queues raw bytes to the host, e.g. line noise.
func (d *Device) Inject(p []byte) {
	d.lock.Lock()
	d.emit(p)
	d.lock.Unlock()
}

func (d *Device) emit(p []byte) {
	d.out = append(d.out, p...)
	if over := len(d.out) - MaxPending; over > 0 {
		d.out = d.out[:copy(d.out, d.out[over:])]
	}
	select {
	case d.dataCh <- struct{}{}:
	default:
	}
}

// Pose returns the true pose of the simulated robot.
func (d *Device) Pose() odometry.Pose {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.bot.Pose()
}

// Stats returns the number of emitted frames, applied commands and
// rejected command frames.
func (d *Device) Stats() (frames, commands, rejected uint64) {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.frames, d.commands, d.rejected
}
