package comm

import (
	"encoding/binary"
	"time"

	"github.com/pkg/errors"
)

const (
	imuFieldCount      = 6
	attitudeFieldCount = 3
	// EncoderCount is the number of encoder counters reported in a sensor frame.
	EncoderCount = 4
)

// Vector3 is a raw 3-axis IMU reading.
type Vector3 struct {
	X, Y, Z int16
}

// Attitude is the raw pitch/roll/yaw reported by firmware which fuses IMU
// data on board.
type Attitude struct {
	Pitch, Roll, Yaw int16
}

// SensorSample is one decoded sensor frame.
type SensorSample struct {
	Accel       Vector3
	Gyro        Vector3
	Attitude    Attitude
	HasAttitude bool
	Encoders    [EncoderCount]uint16
	Timestamp   time.Time
}

// SensorFormat describes the layout of a sensor frame:
//
//	[Header][Length?][Accel xyz][Gyro xyz][Attitude?][Encoder 1-4][Checksum?][Trailer...]
//
// All payload fields are 16-bit integers in Order. The length byte, when
// present, counts the bytes following it.
type SensorFormat struct {
	Header     byte
	LengthByte bool
	Order      binary.ByteOrder
	Attitude   bool
	Checksum   Checksum
	// Trailer is the number of bytes after the checksum which are
	// received but not interpreted.
	Trailer int
	// IgnoreLength accepts any value in the length byte. Firmware is
	// expected to put the number of bytes following it there.
	IgnoreLength bool
}

// PayloadSize returns the size of the fixed payload.
func (f *SensorFormat) PayloadSize() int {
	n := imuFieldCount + EncoderCount
	if f.Attitude {
		n += attitudeFieldCount
	}
	return n * 2
}

func (f *SensorFormat) payloadOffset() int {
	if f.LengthByte {
		return 2
	}
	return 1
}

func (f *SensorFormat) lengthValue() byte {
	return byte(f.PayloadSize() + f.Checksum.Size() + f.Trailer)
}

// BodySize returns the number of bytes following the header.
func (f *SensorFormat) BodySize() int {
	return f.FrameSize() - 1
}

// FrameSize returns the size of the whole frame including header.
func (f *SensorFormat) FrameSize() int {
	return f.payloadOffset() + f.PayloadSize() + f.Checksum.Size() + f.Trailer
}

// Encode builds a frame from the sample. Attitude is only encoded when the
// format carries it. Trailer bytes are zero.
func (f *SensorFormat) Encode(s SensorSample) []byte {
	frame := make([]byte, f.FrameSize())
	frame[0] = f.Header
	if f.LengthByte {
		frame[1] = f.lengthValue()
	}
	p := frame[f.payloadOffset():]
	put := func(v uint16) {
		f.Order.PutUint16(p, v)
		p = p[2:]
	}
	for _, v := range []int16{s.Accel.X, s.Accel.Y, s.Accel.Z, s.Gyro.X, s.Gyro.Y, s.Gyro.Z} {
		put(uint16(v))
	}
	if f.Attitude {
		for _, v := range []int16{s.Attitude.Pitch, s.Attitude.Roll, s.Attitude.Yaw} {
			put(uint16(v))
		}
	}
	for _, v := range s.Encoders {
		put(v)
	}
	if f.Checksum != ChecksumNone {
		end := f.payloadOffset() + f.PayloadSize()
		frame[end] = f.Checksum.Compute(frame[:end])
	}
	return frame
}

// Decode parses a complete frame (header included) into a sample stamped
// with ts.
func (f *SensorFormat) Decode(frame []byte, ts time.Time) (s SensorSample, err error) {
	if len(frame) < f.FrameSize() {
		return s, errors.Wrapf(ErrIncompletePacket, "sensor frame %d of %d bytes", len(frame), f.FrameSize())
	}
	if f.LengthByte && !f.IgnoreLength && frame[1] != f.lengthValue() {
		return s, errors.Wrapf(ErrLengthMismatch, "sensor frame length %d, expect %d", frame[1], f.lengthValue())
	}
	end := f.payloadOffset() + f.PayloadSize()
	if f.Checksum != ChecksumNone {
		if want := f.Checksum.Compute(frame[:end]); want != frame[end] {
			return s, &ChecksumError{Want: want, Got: frame[end]}
		}
	}
	p := frame[f.payloadOffset():end]
	next := func() uint16 {
		v := f.Order.Uint16(p)
		p = p[2:]
		return v
	}
	s.Accel = Vector3{X: int16(next()), Y: int16(next()), Z: int16(next())}
	s.Gyro = Vector3{X: int16(next()), Y: int16(next()), Z: int16(next())}
	if f.Attitude {
		s.Attitude = Attitude{Pitch: int16(next()), Roll: int16(next()), Yaw: int16(next())}
		s.HasAttitude = true
	}
	for n := range s.Encoders {
		s.Encoders[n] = next()
	}
	s.Timestamp = ts
	return s, nil
}
