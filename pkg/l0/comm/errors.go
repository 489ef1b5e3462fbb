package comm

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrTimeout indicates no data (or no header) arrived before the read
	// timeout. It's the normal "nothing yet" outcome and should be retried.
	ErrTimeout = errors.New("timeout")
	// ErrShortRead indicates the transport returned fewer bytes than requested.
	ErrShortRead = errors.New("short read")
	// ErrShortWrite indicates the transport accepted fewer bytes than written.
	ErrShortWrite = errors.New("short write")
	// ErrIncompletePacket indicates a header was found but the rest of the
	// frame didn't arrive. The partial frame is discarded.
	ErrIncompletePacket = errors.New("incomplete packet")
	// ErrChecksumMismatch indicates a corrupted frame.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrLengthMismatch indicates the length byte disagrees with the frame layout.
	ErrLengthMismatch = errors.New("length mismatch")
	// ErrTransportClosed indicates no further I/O is possible.
	ErrTransportClosed = errors.New("transport closed")
	// ErrNoMotorFormat indicates the protocol variant doesn't define motor frames.
	ErrNoMotorFormat = errors.New("variant has no motor command format")
	// ErrUnsupportedCommand indicates the motor format can't carry the command.
	ErrUnsupportedCommand = errors.New("unsupported command")
	// ErrUnknownVariant indicates the protocol variant name is not registered.
	ErrUnknownVariant = errors.New("unknown protocol variant")
)

// ChecksumError reports the received and computed checksum of a frame.
type ChecksumError struct {
	Want byte
	Got  byte
}

// Error implements error.
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch: computed 0x%02x, received 0x%02x", e.Want, e.Got)
}

// Is makes errors.Is(err, ErrChecksumMismatch) true.
func (e *ChecksumError) Is(target error) bool {
	return target == ErrChecksumMismatch
}

// IsTransient reports whether err is one of the expected per-frame failures
// after which the caller simply tries again.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrIncompletePacket) ||
		errors.Is(err, ErrChecksumMismatch) ||
		errors.Is(err, ErrLengthMismatch)
}
