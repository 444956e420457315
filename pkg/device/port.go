// Package device opens serial devices for the terminal.
package device

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/albenik/go-serial/v2"
	"github.com/golang/glog"
)

// Defaults of a USB-ACM microcontroller link.
const (
	DefaultPath         = "/dev/ttyACM0"
	DefaultBaud         = 115200
	DefaultReadTimeout  = time.Second
	DefaultWriteTimeout = time.Second
)

// ErrClosed is returned by operations on a closed Port.
var ErrClosed = errors.New("port closed")

// Config specifies how to open a serial device.
type Config struct {
	Path         string
	Baud         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns the default device configuration.
func DefaultConfig() Config {
	return Config{
		Path:         DefaultPath,
		Baud:         DefaultBaud,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
	}
}

// Port is an opened serial device.
// It implements io.ReadWriteCloser and reports bytes available for reading.
type Port struct {
	path string
	port *serial.Port

	closeOnce sync.Once
	closeErr  error
	lock      sync.RWMutex
	closed    bool
}

// Open opens a serial device.
func Open(conf Config) (*Port, error) {
	if conf.Path == "" {
		return nil, errors.New("device path must be specified")
	}
	if conf.Baud <= 0 {
		conf.Baud = DefaultBaud
	}
	p, err := serial.Open(conf.Path,
		serial.WithBaudrate(conf.Baud),
		serial.WithReadTimeout(millis(conf.ReadTimeout)),
		serial.WithWriteTimeout(millis(conf.WriteTimeout)),
	)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", conf.Path, err)
	}
	glog.V(1).Infof("opened %s at %d baud", conf.Path, conf.Baud)
	return &Port{path: conf.Path, port: p}, nil
}

func millis(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	if ms := int(d / time.Millisecond); ms > 0 {
		return ms
	}
	return 1
}

// Path returns the device path.
func (p *Port) Path() string {
	return p.path
}

// Read implements io.Reader.
// It returns 0, nil when the read timeout expires with no data.
func (p *Port) Read(b []byte) (int, error) {
	if p.isClosed() {
		return 0, ErrClosed
	}
	return p.port.Read(b)
}

// Write implements io.Writer.
func (p *Port) Write(b []byte) (int, error) {
	if p.isClosed() {
		return 0, ErrClosed
	}
	return p.port.Write(b)
}

// Buffered returns the number of bytes which can be read without blocking.
func (p *Port) Buffered() (int, error) {
	if p.isClosed() {
		return 0, ErrClosed
	}
	n, err := p.port.ReadyToRead()
	return int(n), err
}

// Close implements io.Closer. Only the first call closes the device.
func (p *Port) Close() error {
	p.closeOnce.Do(func() {
		p.lock.Lock()
		p.closed = true
		p.lock.Unlock()
		p.closeErr = p.port.Close()
		glog.V(1).Infof("closed %s", p.path)
	})
	return p.closeErr
}

func (p *Port) isClosed() bool {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.closed
}
