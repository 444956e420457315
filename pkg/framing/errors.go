package framing

import "fmt"

// ErrUnknownFraming indicates an unsupported framing name.
type ErrUnknownFraming struct {
	Name string
}

// Error implements error.
func (e *ErrUnknownFraming) Error() string {
	return fmt.Sprintf("unknown framing: %q", e.Name)
}

// ErrUnknownPolicy indicates an unsupported invalid-message policy name.
type ErrUnknownPolicy struct {
	Name string
}

// Error implements error.
func (e *ErrUnknownPolicy) Error() string {
	return fmt.Sprintf("unknown invalid message policy: %q", e.Name)
}
