package comm

import (
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// Transport is the duplex byte stream to the firmware. Every read is
// bounded by the timeout passed in.
type Transport interface {
	// ReadByte reads the next byte or fails with ErrTimeout.
	ReadByte(timeout time.Duration) (byte, error)
	// ReadExact fills p within timeout. It returns ErrTimeout if nothing
	// arrived and ErrShortRead if p was partially filled.
	ReadExact(p []byte, timeout time.Duration) (int, error)
	Write(p []byte) (int, error)
	Flush() error
	Close() error
}

// ReadTimeoutSetter is implemented by streams which support read timeout
// natively (e.g. serial ports). Read returns (0, nil) when it expires.
type ReadTimeoutSetter interface {
	SetReadTimeout(time.Duration) error
}

// StreamTransport implements Transport over an io.ReadWriter.
// If the stream implements ReadTimeoutSetter, reads are issued directly,
// otherwise a background goroutine pumps the stream and reads wait on it.
// Reads must not be issued concurrently, Session serializes all I/O.
type StreamTransport struct {
	ReadWriter io.ReadWriter
	Clock      clock.Clock

	timeoutSetter ReadTimeoutSetter
	readTimeout   time.Duration

	pumpOnce sync.Once
	chunkCh  chan []byte
	errCh    chan error
	pending  []byte

	closed  int32
	lost    int32
	closeCh chan struct{}
}

const pumpBufferSize = 256

// NewStreamTransport wraps rw.
func NewStreamTransport(rw io.ReadWriter) *StreamTransport {
	t := &StreamTransport{
		ReadWriter: rw,
		Clock:      clock.New(),
		closeCh:    make(chan struct{}),
	}
	if s, ok := rw.(ReadTimeoutSetter); ok {
		t.timeoutSetter = s
		t.readTimeout = -1
	}
	return t
}

// IsClosed indicates the transport has been closed, either explicitly or
// because the stream reported it's gone.
func (t *StreamTransport) IsClosed() bool {
	return atomic.LoadInt32(&t.closed) != 0 || atomic.LoadInt32(&t.lost) != 0
}

// ReadByte implements Transport.
func (t *StreamTransport) ReadByte(timeout time.Duration) (byte, error) {
	var buf [1]byte
	if _, err := t.read(buf[:], timeout); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadExact implements Transport.
func (t *StreamTransport) ReadExact(p []byte, timeout time.Duration) (int, error) {
	deadline := t.Clock.Now().Add(timeout)
	var total int
	for total < len(p) {
		remaining := deadline.Sub(t.Clock.Now())
		if remaining <= 0 {
			return total, t.expired(total)
		}
		n, err := t.read(p[total:], remaining)
		total += n
		if err == ErrTimeout {
			return total, t.expired(total)
		}
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (t *StreamTransport) expired(n int) error {
	if n == 0 {
		return ErrTimeout
	}
	return ErrShortRead
}

// Write implements Transport.
func (t *StreamTransport) Write(p []byte) (int, error) {
	if t.IsClosed() {
		return 0, ErrTransportClosed
	}
	n, err := t.ReadWriter.Write(p)
	if err != nil {
		return n, t.translate(err)
	}
	if n < len(p) {
		return n, ErrShortWrite
	}
	return n, nil
}

// Flush implements Transport. It waits for the output to be transmitted
// when the stream supports that.
func (t *StreamTransport) Flush() error {
	if t.IsClosed() {
		return ErrTransportClosed
	}
	var err error
	switch s := t.ReadWriter.(type) {
	case interface{ Drain() error }:
		err = s.Drain()
	case interface{ Flush() error }:
		err = s.Flush()
	}
	if err != nil {
		return t.translate(err)
	}
	return nil
}

// Close implements Transport.
func (t *StreamTransport) Close() error {
	if !atomic.CompareAndSwapInt32(&t.closed, 0, 1) {
		return nil
	}
	close(t.closeCh)
	if closer, ok := t.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (t *StreamTransport) read(p []byte, timeout time.Duration) (int, error) {
	if t.IsClosed() {
		return 0, ErrTransportClosed
	}
	if t.timeoutSetter == nil {
		return t.readPumped(p, timeout)
	}
	if timeout != t.readTimeout {
		if err := t.timeoutSetter.SetReadTimeout(timeout); err != nil {
			return 0, t.translate(err)
		}
		t.readTimeout = timeout
	}
	n, err := t.ReadWriter.Read(p)
	if err != nil {
		return n, t.translate(err)
	}
	if n == 0 {
		return 0, ErrTimeout
	}
	return n, nil
}

func (t *StreamTransport) readPumped(p []byte, timeout time.Duration) (int, error) {
	t.pumpOnce.Do(t.startPump)
	if len(t.pending) == 0 {
		timer := t.Clock.Timer(timeout)
		defer timer.Stop()
		select {
		case chunk := <-t.chunkCh:
			t.pending = chunk
		case err := <-t.errCh:
			return 0, t.pumpStopped(err)
		case <-t.closeCh:
			return 0, ErrTransportClosed
		case <-timer.C:
			return 0, ErrTimeout
		}
	}
	n := copy(p, t.pending)
	t.pending = t.pending[n:]
	return n, nil
}

func (t *StreamTransport) startPump() {
	t.chunkCh, t.errCh = make(chan []byte), make(chan error, 1)
	go func() {
		for {
			buf := make([]byte, pumpBufferSize)
			n, err := t.ReadWriter.Read(buf)
			if n > 0 {
				select {
				case t.chunkCh <- buf[:n]:
				case <-t.closeCh:
					return
				}
			}
			if err != nil {
				glog.V(4).Infof("stream pump stopped: %v", err)
				t.errCh <- err
				return
			}
		}
	}()
}

// pumpStopped handles the terminal error of the pump. Nothing reads the
// stream afterwards, so the transport is lost whatever the error is.
func (t *StreamTransport) pumpStopped(err error) error {
	if err = t.translate(err); errors.Is(err, ErrTransportClosed) {
		return err
	}
	atomic.StoreInt32(&t.lost, 1)
	return errors.Wrapf(ErrTransportClosed, "stream failed: %v", err)
}

func (t *StreamTransport) translate(err error) error {
	switch {
	case os.IsTimeout(err):
		return ErrTimeout
	case errors.Is(err, ErrTransportClosed):
		atomic.StoreInt32(&t.lost, 1)
		return err
	case errors.Is(err, io.EOF), errors.Is(err, os.ErrClosed), errors.Is(err, io.ErrClosedPipe):
		atomic.StoreInt32(&t.lost, 1)
		return errors.Wrap(ErrTransportClosed, err.Error())
	}
	return err
}
