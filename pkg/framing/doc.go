// Package framing locates message boundaries in a byte stream.
package framing

// Two framings are supported, matching what the firmware build expects:
//
// Delimiter framing separates messages with a reserved byte (0x00 by
// default). Outgoing commands are trimmed before the delimiter is appended.
//
// Line framing separates messages with '\n'. Outgoing commands are sent as
// typed, followed by '\n'.
//
// Either way, a received message is decoded as UTF-8 text and stripped of
// surrounding whitespace before it is presented.
