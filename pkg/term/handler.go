package term

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/robotalks/serterm/pkg/framing"
)

// MessageHandler is called when a message is received.
type MessageHandler interface {
	HandleMessage(context.Context, *framing.Message)
}

// HandleMessageFunc is func type of MessageHandler.
type HandleMessageFunc func(context.Context, *framing.Message)

// HandleMessage implements MessageHandler.
func (f HandleMessageFunc) HandleMessage(ctx context.Context, msg *framing.Message) {
	f(ctx, msg)
}

// Handlers dispatches a message to every handler in order.
type Handlers []MessageHandler

// HandleMessage implements MessageHandler.
func (h Handlers) HandleMessage(ctx context.Context, msg *framing.Message) {
	for _, handler := range h {
		if handler != nil {
			handler.HandleMessage(ctx, msg)
		}
	}
}

// Printer prints messages for the operator.
type Printer struct {
	Out io.Writer

	lock sync.Mutex
}

// NewPrinter creates a Printer.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{Out: out}
}

// HandleMessage implements MessageHandler.
func (p *Printer) HandleMessage(_ context.Context, msg *framing.Message) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if msg.Valid {
		fmt.Fprintln(p.Out, msg.Text)
	} else {
		fmt.Fprintf(p.Out, "Received non-decodable message: %q\n", msg.Raw)
	}
}

// Println prints a line between messages.
func (p *Printer) Println(a ...interface{}) {
	p.lock.Lock()
	defer p.lock.Unlock()
	fmt.Fprintln(p.Out, a...)
}
