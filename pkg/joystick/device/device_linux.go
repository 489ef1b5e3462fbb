//go:build linux

package device

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"syscall"
	"unsafe"
)

const (
	iocGNAME uint = 0x80ff6a13
	maxIndex      = 32
)

type device struct {
	file  *os.File
	index int
	name  string
}

// Open opens /dev/input/jsN.
func Open(index int) (Device, error) {
	f, err := os.OpenFile(fmt.Sprintf("/dev/input/js%d", index), os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	d := &device{file: f, index: index}
	var buf [256]byte
	if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, f.Fd(), uintptr(iocGNAME), uintptr(unsafe.Pointer(&buf))); errno != 0 {
		f.Close()
		return nil, errno
	}
	if pos := bytes.IndexByte(buf[:], 0); pos >= 0 {
		d.name = string(buf[:pos])
	} else {
		d.name = string(buf[:])
	}
	return d, nil
}

// DetectAndOpen opens the first available device from startIndex.
// It returns nil, nil if nothing is found.
func DetectAndOpen(startIndex int) (Device, error) {
	for index := startIndex; index < maxIndex; index++ {
		d, err := Open(index)
		if os.IsNotExist(err) {
			continue
		}
		return d, err
	}
	return nil, nil
}

func (d *device) Close() error {
	return d.file.Close()
}

func (d *device) Index() int {
	return d.index
}

func (d *device) Name() string {
	return d.name
}

func (d *device) ReadEvent() (Event, error) {
	var buf [EventSize]byte
	if _, err := io.ReadFull(d.file, buf[:]); err != nil {
		return nil, err
	}
	return DecodeEvent(buf[:])
}
