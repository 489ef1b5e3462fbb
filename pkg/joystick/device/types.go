package device

import (
	"io"

	"github.com/pkg/errors"
)

// ErrUnsupported is returned by Open on platforms without joystick support.
var ErrUnsupported = errors.New("joystick not supported on this platform")

// AxisMax is the magnitude of a fully deflected axis.
const AxisMax = 32767

// Event defines the base event interface.
type Event interface {
	// IsInit indicates this reports the initial state.
	IsInit() bool
	// Index returns either Axis or Button index.
	Index() int
}

// AxisEvent represents the change on an axis.
type AxisEvent interface {
	Event
	Value() int
}

// ButtonEvent represents the change on a button.
type ButtonEvent interface {
	Event
	Pressed() bool
}

// Device represents an opened joystick.
type Device interface {
	io.Closer
	// Index returns the index of the device on the system.
	Index() int
	// Name returns the name of the device.
	Name() string
	// ReadEvent reads one event from the device.
	ReadEvent() (Event, error)
}
