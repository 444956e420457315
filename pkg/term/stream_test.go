package term

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"time"
)

// pollStream is an in-memory stream which can be polled for available bytes.
type pollStream struct {
	lock    sync.Mutex
	rx      bytes.Buffer
	tx      [][]byte
	err     error
	closed  int
	writeCh chan []byte
}

func newPollStream() *pollStream {
	return &pollStream{writeCh: make(chan []byte, 16)}
}

func (s *pollStream) inject(p []byte) {
	s.lock.Lock()
	s.rx.Write(p)
	s.lock.Unlock()
}

func (s *pollStream) fail(err error) {
	s.lock.Lock()
	s.err = err
	s.lock.Unlock()
}

func (s *pollStream) Buffered() (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	return s.rx.Len(), nil
}

func (s *pollStream) Read(p []byte) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	return s.rx.Read(p)
}

func (s *pollStream) Write(p []byte) (int, error) {
	s.lock.Lock()
	if s.err != nil {
		s.lock.Unlock()
		return 0, s.err
	}
	data := append([]byte(nil), p...)
	s.tx = append(s.tx, data)
	s.lock.Unlock()
	select {
	case s.writeCh <- data:
	default:
	}
	return len(p), nil
}

func (s *pollStream) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.closed++
	if s.err == nil {
		s.err = errClosed
	}
	return nil
}

func (s *pollStream) writes() [][]byte {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([][]byte(nil), s.tx...)
}

func (s *pollStream) closeCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.closed
}

var errClosed = errors.New("closed")

// lastReadStream returns its final bytes together with the error which
// ends the stream.
type lastReadStream struct {
	data []byte
	err  error
}

func (s *lastReadStream) Buffered() (int, error) {
	if len(s.data) == 0 {
		return 0, s.err
	}
	return len(s.data), nil
}

func (s *lastReadStream) Read(p []byte) (int, error) {
	n := copy(p, s.data)
	s.data = s.data[n:]
	return n, s.err
}

// timeoutStream delivers chunks from a channel and times out like a serial
// port configured with a read timeout.
type timeoutStream struct {
	readCh  chan []byte
	timeout time.Duration
}

func (s *timeoutStream) Read(p []byte) (int, error) {
	select {
	case b, ok := <-s.readCh:
		if !ok {
			return 0, io.EOF
		}
		return copy(p, b), nil
	case <-time.After(s.timeout):
		return 0, nil
	}
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// lineSource feeds operator lines and reports io.EOF at the end.
type lineSource struct {
	lines  []string
	closed bool
	lock   sync.Mutex
	wait   chan struct{}
}

func (l *lineSource) Readline() (string, error) {
	l.lock.Lock()
	if len(l.lines) > 0 {
		line := l.lines[0]
		l.lines = l.lines[1:]
		l.lock.Unlock()
		return line, nil
	}
	wait := l.wait
	l.lock.Unlock()
	if wait != nil {
		<-wait
	}
	return "", io.EOF
}

func (l *lineSource) Close() error {
	l.lock.Lock()
	defer l.lock.Unlock()
	if !l.closed && l.wait != nil {
		close(l.wait)
	}
	l.closed = true
	return nil
}
