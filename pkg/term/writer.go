package term

import (
	"io"
	"strings"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/serterm/pkg/framing"
)

// ExitCommand ends the console, compared case-insensitively.
const ExitCommand = "exit"

// IsExit reports whether an operator line is the exit sentinel.
func IsExit(line string) bool {
	return strings.EqualFold(line, ExitCommand)
}

// Writer sends framed commands.
type Writer struct {
	Stream  io.Writer
	Framing framing.Framing

	sendLock sync.Mutex
}

// NewWriter creates a Writer.
func NewWriter(stream io.Writer, f framing.Framing) *Writer {
	return &Writer{Stream: stream, Framing: f}
}

// Send terminates cmd and writes it in a single write.
// No reply is awaited.
func (w *Writer) Send(cmd string) error {
	data := w.Framing.Terminate(cmd)
	w.sendLock.Lock()
	defer w.sendLock.Unlock()
	glog.V(3).Infof("TX %q", data)
	_, err := w.Stream.Write(data)
	return err
}
