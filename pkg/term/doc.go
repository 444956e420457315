// Package term provides the frame reader and command writer of a serial
// terminal, composed into a Session over one stream.
package term
