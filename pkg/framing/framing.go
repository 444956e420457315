package framing

import (
	"bytes"
	"strings"
)

// Framing splits received bytes into messages and terminates outgoing commands.
type Framing interface {
	// Name is the configuration name of the framing.
	Name() string
	// Split extracts the first complete message in buf.
	// ok is false if buf contains no terminator, and rest is buf itself.
	Split(buf []byte) (msg, rest []byte, ok bool)
	// Terminate encodes a command for sending.
	Terminate(cmd string) []byte
}

// DefaultDelimiter is the reserved byte separating delimiter-framed messages.
const DefaultDelimiter byte = 0

// Delimiter frames messages with a single reserved byte.
type Delimiter struct {
	Byte byte
}

// Line frames messages with '\n'.
type Line struct{}

var (
	_ Framing = Delimiter{}
	_ Framing = Line{}
)

// NewDelimiter creates the delimiter framing using DefaultDelimiter.
func NewDelimiter() Delimiter {
	return Delimiter{Byte: DefaultDelimiter}
}

// Name implements Framing.
func (d Delimiter) Name() string {
	return "delimiter"
}

// Split implements Framing.
func (d Delimiter) Split(buf []byte) ([]byte, []byte, bool) {
	return splitAt(buf, d.Byte)
}

// Terminate implements Framing.
func (d Delimiter) Terminate(cmd string) []byte {
	cmd = strings.TrimSpace(cmd)
	b := make([]byte, len(cmd)+1)
	copy(b, cmd)
	b[len(cmd)] = d.Byte
	return b
}

// Name implements Framing.
func (Line) Name() string {
	return "line"
}

// Split implements Framing.
func (Line) Split(buf []byte) ([]byte, []byte, bool) {
	return splitAt(buf, '\n')
}

// Terminate implements Framing.
// The command is not trimmed.
func (Line) Terminate(cmd string) []byte {
	return append([]byte(cmd), '\n')
}

func splitAt(buf []byte, term byte) ([]byte, []byte, bool) {
	i := bytes.IndexByte(buf, term)
	if i < 0 {
		return nil, buf, false
	}
	return buf[:i], buf[i+1:], true
}

// SplitAll extracts all complete messages from buf in order.
// rest is the incomplete tail which has no terminator.
func SplitAll(f Framing, buf []byte) (msgs [][]byte, rest []byte) {
	rest = buf
	for {
		msg, remains, ok := f.Split(rest)
		if !ok {
			return
		}
		msgs = append(msgs, msg)
		rest = remains
	}
}

// ByName creates a Framing from its configuration name.
func ByName(name string) (Framing, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "delimiter", "null", "nul", "zero":
		return NewDelimiter(), nil
	case "line", "newline":
		return Line{}, nil
	default:
		return nil, &ErrUnknownFraming{Name: name}
	}
}
