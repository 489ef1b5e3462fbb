package comm

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Range is an inclusive integer range.
type Range struct {
	Min, Max int
}

// Clamp limits v into the range.
func (r Range) Clamp(v int) int {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Contains checks if v is inside the range.
func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// MotorFields defines what the two values in a motor frame mean.
type MotorFields int

const (
	// FieldsSpeedAngle carries drive speed and steering angle, the firmware
	// does the mixing.
	FieldsSpeedAngle MotorFields = iota
	// FieldsWheels carries left and right wheel speeds.
	FieldsWheels
)

// MotorCommand is a drive request: forward speed and steering angle.
// Positive angle turns right.
type MotorCommand struct {
	Speed int
	Angle int
}

// WheelCommand sets individual wheel speeds.
type WheelCommand struct {
	Left  int
	Right int
}

// MotorFormat describes the layout of a motor command frame:
//
//	[Header][Length?][First][Second][Checksum?]
//
// First and Second are Width bytes each, signed when their Range allows
// negative values. The length byte, when present, counts the bytes following it.
type MotorFormat struct {
	Header     byte
	LengthByte bool
	Fields     MotorFields
	Width      int
	Order      binary.ByteOrder
	Checksum   Checksum
	// First and Second are the valid ranges of the encoded values.
	First  Range
	Second Range
	// Drive is the range of speed and angle accepted before mixing into
	// wheel speeds. Only used with FieldsWheels.
	Drive Range
}

// PayloadSize returns the size of the two encoded values.
func (f *MotorFormat) PayloadSize() int {
	return f.Width * 2
}

func (f *MotorFormat) payloadOffset() int {
	if f.LengthByte {
		return 2
	}
	return 1
}

// FrameSize returns the size of the whole frame including header.
func (f *MotorFormat) FrameSize() int {
	return f.payloadOffset() + f.PayloadSize() + f.Checksum.Size()
}

// Clamp limits the command to what the format accepts.
func (f *MotorFormat) Clamp(cmd MotorCommand) MotorCommand {
	if f.Fields == FieldsWheels {
		return MotorCommand{Speed: f.Drive.Clamp(cmd.Speed), Angle: f.Drive.Clamp(cmd.Angle)}
	}
	return MotorCommand{Speed: f.First.Clamp(cmd.Speed), Angle: f.Second.Clamp(cmd.Angle)}
}

// ClampWheels limits wheel speeds to what the format accepts.
func (f *MotorFormat) ClampWheels(cmd WheelCommand) WheelCommand {
	return WheelCommand{Left: f.First.Clamp(cmd.Left), Right: f.Second.Clamp(cmd.Right)}
}

// Encode builds the frame for a drive command. Out-of-range values are
// clamped, never rejected.
func (f *MotorFormat) Encode(cmd MotorCommand) []byte {
	cmd = f.Clamp(cmd)
	if f.Fields == FieldsWheels {
		w := f.ClampWheels(Mix(cmd, f.Drive.Max))
		return f.encode(w.Left, w.Right)
	}
	return f.encode(cmd.Speed, cmd.Angle)
}

// EncodeWheels builds the frame for individual wheel speeds.
func (f *MotorFormat) EncodeWheels(cmd WheelCommand) ([]byte, error) {
	if f.Fields != FieldsWheels {
		return nil, errors.Wrap(ErrUnsupportedCommand, "format expects speed and angle")
	}
	cmd = f.ClampWheels(cmd)
	return f.encode(cmd.Left, cmd.Right), nil
}

func (f *MotorFormat) encode(first, second int) []byte {
	frame := make([]byte, f.FrameSize())
	frame[0] = f.Header
	off := f.payloadOffset()
	if f.LengthByte {
		frame[1] = byte(f.PayloadSize() + f.Checksum.Size())
	}
	for _, v := range []int{first, second} {
		if f.Width == 1 {
			frame[off] = byte(v)
		} else {
			f.Order.PutUint16(frame[off:], uint16(v))
		}
		off += f.Width
	}
	if f.Checksum != ChecksumNone {
		frame[off] = f.Checksum.Compute(frame[:off])
	}
	return frame
}

// Decode parses a complete motor frame and returns the two values.
func (f *MotorFormat) Decode(frame []byte) (first, second int, err error) {
	if len(frame) < f.FrameSize() {
		return 0, 0, errors.Wrapf(ErrIncompletePacket, "motor frame %d of %d bytes", len(frame), f.FrameSize())
	}
	if frame[0] != f.Header {
		return 0, 0, errors.Errorf("motor frame header 0x%02x, expect 0x%02x", frame[0], f.Header)
	}
	if f.LengthByte {
		if expect := byte(f.PayloadSize() + f.Checksum.Size()); frame[1] != expect {
			return 0, 0, errors.Wrapf(ErrLengthMismatch, "motor frame length %d, expect %d", frame[1], expect)
		}
	}
	off := f.payloadOffset()
	end := off + f.PayloadSize()
	if f.Checksum != ChecksumNone {
		if want := f.Checksum.Compute(frame[:end]); want != frame[end] {
			return 0, 0, &ChecksumError{Want: want, Got: frame[end]}
		}
	}
	first = f.decodeValue(frame[off:], f.First)
	second = f.decodeValue(frame[off+f.Width:], f.Second)
	return
}

func (f *MotorFormat) decodeValue(p []byte, r Range) int {
	if f.Width == 1 {
		if r.Min < 0 {
			return int(int8(p[0]))
		}
		return int(p[0])
	}
	v := f.Order.Uint16(p)
	if r.Min < 0 {
		return int(int16(v))
	}
	return int(v)
}

// Mix converts a drive command into wheel speeds. angleMax is the angle
// magnitude at which the inner wheel stops. Partial speeds truncate toward zero.
func Mix(cmd MotorCommand, angleMax int) WheelCommand {
	if angleMax == 0 {
		return WheelCommand{Left: cmd.Speed, Right: cmd.Speed}
	}
	factor := float64(cmd.Angle) / float64(angleMax)
	if factor >= 0 {
		return WheelCommand{Left: cmd.Speed, Right: int(float64(cmd.Speed) * (1 - factor))}
	}
	return WheelCommand{Left: int(float64(cmd.Speed) * (1 + factor)), Right: cmd.Speed}
}
