package comm

import (
	"encoding/binary"
	"sort"

	"github.com/pkg/errors"
)

// Header bytes used by known firmware.
const (
	HeaderSensor   byte = 0xF5
	HeaderMotor    byte = 0xFA
	HeaderMotorXOR byte = 0xAA
)

// DefaultVariant is the name of the latest firmware generation.
const DefaultVariant = "v4"

const variantAttitude = "attitude"

// Variant describes one firmware protocol generation.
type Variant struct {
	Name   string
	Sensor *SensorFormat
	// Motor is nil if the firmware doesn't accept motor commands.
	Motor *MotorFormat
}

// V1 is the first, sensor-only firmware: big-endian payload, no length
// byte, no checksum.
func V1() *Variant {
	return &Variant{
		Name:   "v1",
		Sensor: &SensorFormat{Header: HeaderSensor, Order: binary.BigEndian},
	}
}

// V2 switched to little-endian sensor payload and added speed/angle
// motor commands.
func V2() *Variant {
	return &Variant{
		Name:   "v2",
		Sensor: &SensorFormat{Header: HeaderSensor, Order: binary.LittleEndian},
		Motor: &MotorFormat{
			Header: HeaderMotor,
			Fields: FieldsSpeedAngle,
			Width:  2,
			Order:  binary.LittleEndian,
			First:  Range{Min: -255, Max: 255},
			Second: Range{Min: -180, Max: 180},
		},
	}
}

// V3 frames carry a length byte and a checksum in both directions.
func V3() *Variant {
	return &Variant{
		Name: "v3",
		Sensor: &SensorFormat{
			Header:     HeaderSensor,
			LengthByte: true,
			Order:      binary.BigEndian,
			Checksum:   ChecksumSum,
		},
		Motor: &MotorFormat{
			Header:     HeaderMotorXOR,
			LengthByte: true,
			Fields:     FieldsSpeedAngle,
			Width:      1,
			Order:      binary.BigEndian,
			Checksum:   ChecksumXOR,
			First:      Range{Min: 0, Max: 255},
			Second:     Range{Min: -127, Max: 127},
		},
	}
}

// V4 keeps the v3 sensor frame size but the last byte is not verified, and
// motor commands carry wheel speeds mixed on the host.
func V4() *Variant {
	return &Variant{
		Name: "v4",
		Sensor: &SensorFormat{
			Header:     HeaderSensor,
			LengthByte: true,
			Order:      binary.BigEndian,
			Trailer:    1,
		},
		Motor: &MotorFormat{
			Header: HeaderMotor,
			Fields: FieldsWheels,
			Width:  2,
			Order:  binary.LittleEndian,
			First:  Range{Min: -100, Max: 100},
			Second: Range{Min: -100, Max: 100},
			Drive:  Range{Min: -100, Max: 100},
		},
	}
}

// AttitudeVariant is the sensor-only firmware which also reports fused
// pitch/roll/yaw, little-endian.
func AttitudeVariant() *Variant {
	return &Variant{
		Name: variantAttitude,
		Sensor: &SensorFormat{
			Header:     HeaderSensor,
			LengthByte: true,
			Order:      binary.LittleEndian,
			Attitude:   true,
			Trailer:    1,
		},
	}
}

var variants = map[string]func() *Variant{
	"v1":            V1,
	"v2":            V2,
	"v3":            V3,
	"v4":            V4,
	variantAttitude: AttitudeVariant,
}

// VariantNames lists the names of known variants.
func VariantNames() []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupVariant creates the variant by name.
func LookupVariant(name string) (*Variant, error) {
	if fn := variants[name]; fn != nil {
		return fn(), nil
	}
	return nil, errors.Wrapf(ErrUnknownVariant, "%q", name)
}
