package device

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// EventSize is the size of a raw event from the kernel.
const EventSize = 8

const (
	evBTN  uint8 = 0x01
	evAXIS uint8 = 0x02
	evINIT uint8 = 0x80
)

type event struct {
	time   uint32
	value  int16
	typ    uint8
	number uint8
}

func (e *event) IsInit() bool {
	return e.typ&evINIT != 0
}

func (e *event) Index() int {
	return int(e.number)
}

type axisEvent struct {
	event
}

func (e *axisEvent) Value() int {
	return int(e.value)
}

type buttonEvent struct {
	event
}

func (e *buttonEvent) Pressed() bool {
	return e.value != 0
}

// DecodeEvent decodes a raw js_event: u32 time, s16 value, u8 type, u8 number,
// all little-endian.
func DecodeEvent(buf []byte) (Event, error) {
	if len(buf) < EventSize {
		return nil, errors.Errorf("short joystick event: %d bytes", len(buf))
	}
	ev := event{
		time:   binary.LittleEndian.Uint32(buf),
		value:  int16(binary.LittleEndian.Uint16(buf[4:])),
		typ:    buf[6],
		number: buf[7],
	}
	switch ev.typ &^ evINIT {
	case evBTN:
		return &buttonEvent{event: ev}, nil
	case evAXIS:
		return &axisEvent{event: ev}, nil
	}
	return &ev, nil
}
