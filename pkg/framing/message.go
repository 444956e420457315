package framing

import (
	"strings"
	"unicode/utf8"
)

// Message is a received message.
type Message struct {
	// Raw is the payload between terminators.
	Raw []byte
	// Text is the decoded payload without surrounding whitespace.
	// Empty if Valid is false.
	Text string
	// Valid is false if Raw is not UTF-8 text.
	Valid bool
}

// Decode interprets a raw payload as text.
func Decode(raw []byte) *Message {
	msg := &Message{Raw: raw}
	if utf8.Valid(raw) {
		msg.Text, msg.Valid = strings.TrimSpace(string(raw)), true
	}
	return msg
}

// InvalidPolicy decides what happens to messages which are not text.
type InvalidPolicy int

const (
	// InvalidReport passes invalid messages to handlers.
	InvalidReport InvalidPolicy = iota
	// InvalidDiscard drops invalid messages.
	InvalidDiscard
)

// String implements fmt.Stringer.
func (p InvalidPolicy) String() string {
	if p == InvalidDiscard {
		return "discard"
	}
	return "report"
}

// ParseInvalidPolicy parses the configuration name of an InvalidPolicy.
func ParseInvalidPolicy(name string) (InvalidPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "report":
		return InvalidReport, nil
	case "discard", "drop", "ignore":
		return InvalidDiscard, nil
	default:
		return InvalidReport, &ErrUnknownPolicy{Name: name}
	}
}
