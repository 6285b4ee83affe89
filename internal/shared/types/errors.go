package types

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedReport    = errors.New("unsupported report type")
	ErrUnsupportedConfigExt = errors.New("unsupported config file format")
)

// UpstreamError wraps a failure reported by the billing provider (credentials,
// permissions, throttling or network).
type UpstreamError struct {
	Op      string
	Code    string
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// ValidationError reports a malformed raw cost record.
type ValidationError struct {
	Index  int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid cost record #%d: field %q %s", e.Index, e.Field, e.Reason)
}

// UsageError reports invalid command-line arguments or configuration.
type UsageError struct {
	Msg string
	Err error
}

func (e *UsageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

// NewUsageError cria um UsageError formatado.
func NewUsageError(format string, a ...interface{}) *UsageError {
	return &UsageError{Msg: fmt.Sprintf(format, a...)}
}
