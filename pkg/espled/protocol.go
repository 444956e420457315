package espled

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// RequestKind identifies a request.
type RequestKind string

// Request kinds.
const (
	GetEffects    RequestKind = "GetEffects"
	GetEffect     RequestKind = "GetEffect"
	GetParameters RequestKind = "GetParameters"
	GetName       RequestKind = "GetName"
	SetEffect     RequestKind = "SetEffect"
	SetOption     RequestKind = "SetOption"
)

// Request is a request to the firmware.
type Request struct {
	Kind   RequestKind
	Effect int
	Option string
	Value  Parameter
}

// NewSetEffect creates a SetEffect request.
func NewSetEffect(index int) *Request {
	return &Request{Kind: SetEffect, Effect: index}
}

// NewSetOption creates a SetOption request.
func NewSetOption(name string, value Parameter) *Request {
	return &Request{Kind: SetOption, Option: name, Value: value}
}

// MarshalJSON implements json.Marshaler.
func (r *Request) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case GetEffects, GetEffect, GetParameters, GetName:
		return json.Marshal(string(r.Kind))
	case SetEffect:
		return json.Marshal(map[string]int{string(SetEffect): r.Effect})
	case SetOption:
		return json.Marshal(map[string][]interface{}{string(SetOption): {r.Option, r.Value}})
	default:
		return nil, fmt.Errorf("unknown request %q", r.Kind)
	}
}

// Encode returns the request as a command line.
func (r *Request) Encode() (string, error) {
	data, err := json.Marshal(r)
	return string(data), err
}

// ErrInvalidParameter indicates a parameter is neither a color nor a float.
var ErrInvalidParameter = errors.New("invalid parameter")

// Parameter is an effect option value, either a Color or a Float.
type Parameter struct {
	Color *Color
	Float *float64
}

// FloatParam creates a Float parameter.
func FloatParam(v float64) Parameter {
	return Parameter{Float: &v}
}

// ColorParam creates a Color parameter.
func ColorParam(c Color) Parameter {
	return Parameter{Color: &c}
}

// ParseParameter parses a hex color ("#rrggbb") or a float.
func ParseParameter(s string) (Parameter, error) {
	if len(s) > 0 && s[0] == '#' {
		c, err := ParseColor(s)
		if err != nil {
			return Parameter{}, err
		}
		return ColorParam(c), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Parameter{}, fmt.Errorf("%w: %q", ErrInvalidParameter, s)
	}
	return FloatParam(v), nil
}

type parameterJSON struct {
	Color *Color   `json:"Color,omitempty"`
	Float *float64 `json:"Float,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (p Parameter) MarshalJSON() ([]byte, error) {
	if (p.Color == nil) == (p.Float == nil) {
		return nil, ErrInvalidParameter
	}
	return json.Marshal(parameterJSON{Color: p.Color, Float: p.Float})
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Parameter) UnmarshalJSON(data []byte) error {
	var v parameterJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if (v.Color == nil) == (v.Float == nil) {
		return fmt.Errorf("%w: %s", ErrInvalidParameter, data)
	}
	p.Color, p.Float = v.Color, v.Float
	return nil
}

// String implements fmt.Stringer.
func (p Parameter) String() string {
	switch {
	case p.Color != nil:
		return p.Color.String()
	case p.Float != nil:
		return strconv.FormatFloat(*p.Float, 'g', -1, 64)
	default:
		return "<none>"
	}
}
