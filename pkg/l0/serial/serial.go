// Package serial opens the serial port to the robot firmware.
package serial

import (
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	bugst "go.bug.st/serial"

	"github.com/robotalks/mrf.go/pkg/l0/comm"
)

// DefaultBaudRate is the baud rate used by the firmware.
const DefaultBaudRate = 115200

// Options describes the serial line parameters.
type Options struct {
	BaudRate int    `yaml:"baud_rate" json:"baud_rate"`
	DataBits int    `yaml:"data_bits" json:"data_bits"`
	StopBits int    `yaml:"stop_bits" json:"stop_bits"`
	Parity   string `yaml:"parity" json:"parity"`
}

// Normalize validates the options and fills in defaults for unset values.
func (o Options) Normalize() (Options, error) {
	opts := o
	if opts.BaudRate <= 0 {
		opts.BaudRate = DefaultBaudRate
	}
	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, errors.Errorf("invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}
	if opts.StopBits == 0 {
		opts.StopBits = 1
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, errors.Errorf("invalid stop bits %d: must be 1 or 2", opts.StopBits)
	}
	switch parity := strings.ToUpper(strings.TrimSpace(opts.Parity)); parity {
	case "", "N", "NONE":
		opts.Parity = "N"
	case "E", "EVEN":
		opts.Parity = "E"
	case "O", "ODD":
		opts.Parity = "O"
	default:
		return opts, errors.Errorf("unsupported parity %q: expect N, E or O", opts.Parity)
	}
	return opts, nil
}

// Mode converts the options into the mode for opening a port.
func (o Options) Mode() (*bugst.Mode, error) {
	opts, err := o.Normalize()
	if err != nil {
		return nil, err
	}
	mode := &bugst.Mode{
		BaudRate: opts.BaudRate,
		DataBits: opts.DataBits,
		StopBits: bugst.OneStopBit,
		Parity:   bugst.NoParity,
	}
	if opts.StopBits == 2 {
		mode.StopBits = bugst.TwoStopBits
	}
	switch opts.Parity {
	case "E":
		mode.Parity = bugst.EvenParity
	case "O":
		mode.Parity = bugst.OddParity
	}
	return mode, nil
}

// Port is an opened serial port. It supports read timeout and drain so
// comm.StreamTransport reads it directly.
type Port struct {
	bugst.Port
	Path string
}

// Open opens the serial port at path. Stale input is discarded.
func Open(path string, opts Options) (*Port, error) {
	mode, err := opts.Mode()
	if err != nil {
		return nil, err
	}
	p, err := bugst.Open(path, mode)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	if err := p.ResetInputBuffer(); err != nil {
		glog.Warningf("%s reset input: %v", path, err)
	}
	glog.Infof("serial %s opened at %d baud", path, mode.BaudRate)
	return &Port{Port: p, Path: path}, nil
}

// Read implements io.Reader.
func (p *Port) Read(b []byte) (int, error) {
	n, err := p.Port.Read(b)
	return n, translate(err)
}

// Write implements io.Writer.
func (p *Port) Write(b []byte) (int, error) {
	n, err := p.Port.Write(b)
	return n, translate(err)
}

// List returns the names of serial ports found on the system.
func List() ([]string, error) {
	ports, err := bugst.GetPortsList()
	if err != nil {
		return nil, errors.Wrap(err, "list serial ports")
	}
	return ports, nil
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	var portErr *bugst.PortError
	if errors.As(err, &portErr) && portErr.Code() == bugst.PortClosed {
		return errors.Wrap(comm.ErrTransportClosed, portErr.Error())
	}
	return err
}
