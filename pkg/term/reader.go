package term

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/serterm/pkg/framing"
)

// BufferedReader reports how many bytes can be read without blocking.
type BufferedReader interface {
	io.Reader
	Buffered() (int, error)
}

// DefaultPollInterval is the wait between polls when no bytes are available.
const DefaultPollInterval = 20 * time.Millisecond

// DefaultChunkSize is the read size when the stream can't be polled.
const DefaultChunkSize = 256

// Reader converts a byte stream into messages.
type Reader struct {
	Stream   io.Reader
	Framing  framing.Framing
	Handler  MessageHandler
	Notifier StateNotifier
	Invalid  framing.InvalidPolicy
	// PollInterval is used when Stream implements BufferedReader.
	// Zero disables polling and every Read relies on the stream's timeout.
	PollInterval time.Duration

	buf   []byte
	state ReaderState
	err   error
	lock  sync.RWMutex
}

// NewReader creates a Reader.
func NewReader(stream io.Reader, f framing.Framing) *Reader {
	return &Reader{
		Stream:       stream,
		Framing:      f,
		PollInterval: DefaultPollInterval,
	}
}

// Name implements framework.Named.
func (r *Reader) Name() string {
	return "reader"
}

// State gets the current state.
func (r *Reader) State() ReaderState {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.state
}

// Err returns the transport error which stopped the reader.
func (r *Reader) Err() error {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.err
}

// Pending returns a copy of the bytes received after the last complete message.
func (r *Reader) Pending() []byte {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return append([]byte(nil), r.buf...)
}

// Run receives messages until ctx is done or the stream fails.
func (r *Reader) Run(ctx context.Context) (err error) {
	r.setState(ctx, ReaderRunning, nil)
	defer func() {
		if ctx.Err() != nil {
			err = ctx.Err()
			r.setState(ctx, ReaderStopped, nil)
			return
		}
		r.setState(ctx, ReaderLost, err)
	}()

	if br, ok := r.Stream.(BufferedReader); ok && r.PollInterval > 0 {
		return r.poll(ctx, br)
	}
	return r.readLoop(ctx)
}

func (r *Reader) poll(ctx context.Context, br BufferedReader) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := br.Buffered()
		if err != nil {
			return err
		}
		if n == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.PollInterval):
			}
			continue
		}
		chunk := make([]byte, n)
		n, err = br.Read(chunk)
		if n > 0 {
			r.receive(ctx, chunk[:n])
		}
		if err != nil && !isTimeout(err) {
			return err
		}
	}
}

func (r *Reader) readLoop(ctx context.Context) error {
	chunk := make([]byte, DefaultChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Stream.Read(chunk)
		if n > 0 {
			r.receive(ctx, chunk[:n])
		}
		if err != nil && !isTimeout(err) {
			return err
		}
	}
}

func (r *Reader) receive(ctx context.Context, data []byte) {
	if len(data) == 0 {
		return
	}
	glog.V(3).Infof("RX %q", data)
	r.lock.Lock()
	msgs, rest := framing.SplitAll(r.Framing, append(r.buf, data...))
	r.buf = append(r.buf[:0:0], rest...)
	r.lock.Unlock()
	for _, raw := range msgs {
		msg := framing.Decode(raw)
		if !msg.Valid && r.Invalid == framing.InvalidDiscard {
			glog.V(2).Infof("discard non-decodable message %q", raw)
			continue
		}
		if h := r.Handler; h != nil {
			h.HandleMessage(ctx, msg)
		}
	}
}

func (r *Reader) setState(ctx context.Context, state ReaderState, err error) {
	r.lock.Lock()
	r.state, r.err = state, err
	notifier := r.Notifier
	r.lock.Unlock()
	if state == ReaderLost {
		glog.Warningf("reader stopped: %v", err)
	}
	if notifier != nil {
		notifier.StateChanged(ctx, state, err)
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
