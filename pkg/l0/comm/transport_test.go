package comm

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type timeoutStream struct {
	data     []byte
	written  []byte
	timeouts []time.Duration
	drains   int
	closed   bool
}

func (s *timeoutStream) Read(p []byte) (int, error) {
	if s.closed {
		return 0, os.ErrClosed
	}
	n := copy(p, s.data)
	s.data = s.data[n:]
	return n, nil
}

func (s *timeoutStream) Write(p []byte) (int, error) {
	if s.closed {
		return 0, os.ErrClosed
	}
	s.written = append(s.written, p...)
	return len(p), nil
}

func (s *timeoutStream) SetReadTimeout(d time.Duration) error {
	s.timeouts = append(s.timeouts, d)
	return nil
}

func (s *timeoutStream) Drain() error {
	s.drains++
	return nil
}

func (s *timeoutStream) Close() error {
	s.closed = true
	return nil
}

func TestStreamTransportWithReadTimeout(t *testing.T) {
	s := &timeoutStream{data: []byte{1, 2, 3, 4, 5}}
	tr := NewStreamTransport(s)

	b, err := tr.ReadByte(DefaultTimeout)
	require.NoError(t, err)
	require.Equal(t, byte(1), b)

	buf := make([]byte, 3)
	n, err := tr.ReadExact(buf, DefaultTimeout)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, []byte{2, 3, 4}, buf)

	n, err = tr.ReadExact(buf, DefaultTimeout)
	require.Equal(t, ErrShortRead, err)
	require.Equal(t, 1, n)

	_, err = tr.ReadByte(DefaultTimeout)
	require.Equal(t, ErrTimeout, err)
	require.Equal(t, DefaultTimeout, s.timeouts[0])

	n, err = tr.Write([]byte{0xFA, 0x01})
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.NoError(t, tr.Flush())
	require.Equal(t, []byte{0xFA, 0x01}, s.written)
	require.Equal(t, 1, s.drains)

	require.NoError(t, tr.Close())
	require.True(t, s.closed)
	require.True(t, tr.IsClosed())
	_, err = tr.ReadByte(DefaultTimeout)
	require.Equal(t, ErrTransportClosed, err)
	_, err = tr.Write([]byte{0})
	require.Equal(t, ErrTransportClosed, err)
	require.NoError(t, tr.Close())
}

func TestStreamTransportClosedUnderneath(t *testing.T) {
	s := &timeoutStream{}
	tr := NewStreamTransport(s)
	s.closed = true
	_, err := tr.ReadByte(DefaultTimeout)
	require.ErrorIs(t, err, ErrTransportClosed)
	require.True(t, tr.IsClosed())
}

type pipeStream struct {
	io.Reader
	io.Writer
}

func TestStreamTransportPumped(t *testing.T) {
	pr, pw := io.Pipe()
	tr := NewStreamTransport(pipeStream{Reader: pr, Writer: io.Discard})
	go pw.Write([]byte{0xF5, 0x01, 0x02, 0x03})

	b, err := tr.ReadByte(time.Second)
	require.NoError(t, err)
	require.Equal(t, byte(0xF5), b)

	buf := make([]byte, 3)
	n, err := tr.ReadExact(buf, time.Second)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, []byte{1, 2, 3}, buf)

	_, err = tr.ReadByte(10 * time.Millisecond)
	require.Equal(t, ErrTimeout, err)

	go pw.Write([]byte{0x04})
	n, err = tr.ReadExact(buf, 200*time.Millisecond)
	require.Equal(t, ErrShortRead, err)
	require.Equal(t, 1, n)
	require.Equal(t, byte(4), buf[0])

	pw.Close()
	_, err = tr.ReadByte(time.Second)
	require.ErrorIs(t, err, ErrTransportClosed)
	require.True(t, tr.IsClosed())
}

func TestStreamTransportCloseUnblocksRead(t *testing.T) {
	pr, _ := io.Pipe()
	tr := NewStreamTransport(pipeStream{Reader: pr, Writer: io.Discard})
	errCh := make(chan error, 1)
	go func() {
		_, err := tr.ReadByte(time.Minute)
		errCh <- err
	}()
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, tr.Close())
	select {
	case err := <-errCh:
		require.Equal(t, ErrTransportClosed, err)
	case <-time.After(time.Second):
		t.Fatal("read not unblocked by Close")
	}
}

// failingStream fails its first read, then blocks until closed.
type failingStream struct {
	failed  bool
	closeCh chan struct{}
}

func (s *failingStream) Read(p []byte) (int, error) {
	if !s.failed {
		s.failed = true
		return 0, errors.New("device i/o error")
	}
	<-s.closeCh
	return 0, io.EOF
}

func (s *failingStream) Write(p []byte) (int, error) {
	return len(p), nil
}

func TestStreamTransportPumpFailure(t *testing.T) {
	s := &failingStream{closeCh: make(chan struct{})}
	defer close(s.closeCh)
	tr := NewStreamTransport(s)
	c := NewCodec(V4())
	c.Timeout = 10 * time.Millisecond

	for n := 0; n < 3; n++ {
		_, err := c.ReadSample(tr)
		require.ErrorIs(t, err, ErrTransportClosed)
		require.False(t, IsTransient(err))
		require.True(t, tr.IsClosed())
	}
	_, err := tr.Write([]byte{0xFA})
	require.ErrorIs(t, err, ErrTransportClosed)
	require.NoError(t, tr.Close())
}
