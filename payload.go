package loggate

import "time"

// Field names with defined meaning in a payload. Anything else passes through
// to the gateway verbatim.
const (
	FieldMsg       = "msg"
	FieldLevel     = "level"
	FieldTimestamp = "timestamp"
	FieldService   = "service"
)

// Level is a log severity accepted by the gateway.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
	LevelDebug Level = "debug"
)

// Payload is one log record. The msg field is required and must be a
// non-empty string; service and timestamp are optional; any other
// JSON-representable key/value pair is sent unchanged.
type Payload map[string]any

// stamp returns a copy of p with generated defaults applied. Defaults are
// written first and the caller's fields overlaid on top, so an explicit level
// or timestamp in p always wins over the generated value. An empty level
// means no level default (batch entries carry their own).
func (p Payload) stamp(level Level, now func() time.Time) Payload {
	out := make(Payload, len(p)+2)
	if level != "" {
		out[FieldLevel] = string(level)
	}
	out[FieldTimestamp] = now().UTC().Format(time.RFC3339)
	for k, v := range p {
		out[k] = v
	}
	return out
}

// require checks that each named field is present as a non-empty string.
func (p Payload) require(fields ...string) error {
	for _, name := range fields {
		s, ok := p[name].(string)
		if !ok || s == "" {
			return &ValidationError{Field: name}
		}
	}
	return nil
}
