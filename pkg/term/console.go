package term

import (
	"context"
	"errors"
	"io"

	"github.com/abiosoft/readline"
)

// LineSource produces operator lines, e.g. *readline.Instance.
type LineSource interface {
	Readline() (string, error)
}

// Console forwards operator lines to the device.
type Console struct {
	Lines  LineSource
	Writer *Writer
}

// Run reads lines until the exit sentinel or the end of input.
func (c *Console) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := c.Lines.Readline()
		if err != nil {
			if err == io.EOF || errors.Is(err, readline.ErrInterrupt) {
				return nil
			}
			return err
		}
		if IsExit(line) {
			return nil
		}
		if err := c.Writer.Send(line); err != nil {
			return err
		}
	}
}
