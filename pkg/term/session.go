package term

import (
	"context"
	"io"
	"sync"

	fx "github.com/robotalks/serterm/pkg/framework"
	"github.com/robotalks/serterm/pkg/framing"
)

// Session runs a Reader in the background and a Console in the foreground
// over one stream.
type Session struct {
	Stream  io.ReadWriteCloser
	Reader  *Reader
	Writer  *Writer
	Console *Console
	Printer *Printer
	// Runnables are started with the Reader and stopped with it, e.g. bridges.
	Runnables []fx.Runnable

	closeOnce sync.Once
	closeErr  error
}

// NewSession creates a Session printing messages to out.
func NewSession(stream io.ReadWriteCloser, f framing.Framing, lines LineSource, out io.Writer) *Session {
	s := &Session{
		Stream:  stream,
		Reader:  NewReader(stream, f),
		Writer:  NewWriter(stream, f),
		Printer: NewPrinter(out),
	}
	s.Reader.Handler = s.Printer
	s.Console = &Console{Lines: lines, Writer: s.Writer}
	return s
}

// AddHandler adds message handlers after the Printer.
func (s *Session) AddHandler(handlers ...MessageHandler) *Session {
	all := Handlers{s.Reader.Handler}
	if existing, ok := s.Reader.Handler.(Handlers); ok {
		all = existing
	}
	s.Reader.Handler = append(all, handlers...)
	return s
}

// AddRunnable adds background Runnables.
func (s *Session) AddRunnable(runnables ...fx.Runnable) *Session {
	s.Runnables = append(s.Runnables, runnables...)
	return s
}

// Run runs the session until the console ends, then closes the stream
// and waits for the background runnables.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	notifier := s.Reader.Notifier
	s.Reader.Notifier = StateChangedFunc(func(ctx context.Context, state ReaderState, err error) {
		if state == ReaderLost {
			s.Printer.Println("Connection lost:", err)
			if closer, ok := s.Console.Lines.(io.Closer); ok {
				closer.Close()
			}
		}
		if notifier != nil {
			notifier.StateChanged(ctx, state, err)
		}
	})

	runner := fx.NewRunnerWith(ctx).Go(s.Reader).Go(s.Runnables...)
	var errs fx.AggregatedError
	errs.Add(s.Console.Run(ctx))
	cancel()
	s.Close()
	errs.Add(runner.Wait())
	return errs.Aggregate()
}

// Close closes the stream once and confirms it to the operator.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.Stream.Close()
		s.Printer.Println("Connection closed")
	})
	return s.closeErr
}
