package comm

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// Defaults of Codec.
const (
	DefaultTimeout   = 100 * time.Millisecond
	DefaultScanLimit = 1024
)

// Codec reads sensor frames from and writes motor frames to a Transport
// according to a protocol Variant. It holds no stream state between calls:
// a failed frame is dropped and the next call scans for a new header.
type Codec struct {
	Variant *Variant
	// Timeout bounds every single read operation.
	Timeout time.Duration
	// ScanLimit is the max number of bytes skipped looking for a header,
	// 0 means unlimited.
	ScanLimit int
	// Clock stamps decoded samples.
	Clock clock.Clock
}

// NewCodec creates a Codec with default settings.
func NewCodec(v *Variant) *Codec {
	return &Codec{
		Variant:   v,
		Timeout:   DefaultTimeout,
		ScanLimit: DefaultScanLimit,
		Clock:     clock.New(),
	}
}

// ReadFrame scans for the sensor header and reads the rest of the frame.
// The returned frame includes the header. It's not validated.
func (c *Codec) ReadFrame(t Transport) ([]byte, error) {
	f := c.Variant.Sensor
	for skipped := 0; ; skipped++ {
		if c.ScanLimit > 0 && skipped >= c.ScanLimit {
			return nil, errors.Wrapf(ErrTimeout, "no header in %d bytes", skipped)
		}
		b, err := t.ReadByte(c.Timeout)
		if err != nil {
			return nil, err
		}
		if b == f.Header {
			if skipped > 0 {
				glog.V(3).Infof("skipped %d bytes before header", skipped)
			}
			break
		}
	}
	frame := make([]byte, f.FrameSize())
	frame[0] = f.Header
	n, err := t.ReadExact(frame[1:], c.Timeout)
	if err != nil {
		if errors.Is(err, ErrTransportClosed) {
			return nil, err
		}
		return nil, errors.Wrapf(ErrIncompletePacket, "%d of %d bytes: %v", n+1, len(frame), err)
	}
	if glog.V(4) {
		glog.Infof("RCV % x", frame)
	}
	return frame, nil
}

// ReadSample reads and decodes one sensor frame.
func (c *Codec) ReadSample(t Transport) (SensorSample, error) {
	frame, err := c.ReadFrame(t)
	if err != nil {
		return SensorSample{}, err
	}
	return c.Variant.Sensor.Decode(frame, c.Clock.Now())
}

// WriteCommand encodes and writes a drive command.
func (c *Codec) WriteCommand(t Transport, cmd MotorCommand) error {
	f := c.Variant.Motor
	if f == nil {
		return errors.Wrap(ErrNoMotorFormat, c.Variant.Name)
	}
	return c.writeFrame(t, f.Encode(cmd))
}

// WriteWheels encodes and writes wheel speeds.
func (c *Codec) WriteWheels(t Transport, cmd WheelCommand) error {
	f := c.Variant.Motor
	if f == nil {
		return errors.Wrap(ErrNoMotorFormat, c.Variant.Name)
	}
	frame, err := f.EncodeWheels(cmd)
	if err != nil {
		return err
	}
	return c.writeFrame(t, frame)
}

func (c *Codec) writeFrame(t Transport, frame []byte) error {
	if glog.V(4) {
		glog.Infof("SND % x", frame)
	}
	n, err := t.Write(frame)
	if err != nil {
		return err
	}
	if n != len(frame) {
		return ErrShortWrite
	}
	return t.Flush()
}
