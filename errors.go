package loggate

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned by the package-level send functions when no
// default client has been registered via Configure.
var ErrNotConfigured = errors.New("loggate: not configured, call Configure first")

// ConfigError reports an invalid client configuration. It is returned by New
// and Configure before any network I/O happens.
type ConfigError struct {
	// Field is the offending config field, when a single field is at fault.
	Field string
	err   error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("loggate: invalid config: %s is required", e.Field)
	}
	return fmt.Sprintf("loggate: invalid config: %v", e.err)
}

func (e *ConfigError) Unwrap() error { return e.err }

// ValidationError reports a payload that cannot be sent. It is returned
// before any network I/O happens.
type ValidationError struct {
	// Field is the payload field that is missing or not a non-empty string.
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("loggate: payload field %q must be a non-empty string", e.Field)
}

// SendError reports a failed exchange with the gateway: a transport failure,
// a non-2xx response, or a response body that is not valid JSON.
type SendError struct {
	// StatusCode is the HTTP status of the response, or zero when the
	// request never completed.
	StatusCode int
	// Body is the raw response body, when one was read.
	Body string
	msg  string
	err  error
}

func (e *SendError) Error() string { return "loggate: " + e.msg }

func (e *SendError) Unwrap() error { return e.err }
