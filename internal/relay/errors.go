package relay

import "fmt"

type ErrorCode string

const (
	ErrorGuardrail     ErrorCode = "GUARDRAIL"
	ErrorInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrorMisconfigured ErrorCode = "MISCONFIGURED"
	ErrorUpstream      ErrorCode = "UPSTREAM_ERROR"
	ErrorInternal      ErrorCode = "INTERNAL_ERROR"
)

// Error is the typed failure returned by Service.Relay. UpstreamStatus is set
// only for ErrorUpstream.
type Error struct {
	Code           ErrorCode
	Reason         string
	UpstreamStatus int
	Err            error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("relay: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("relay: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}
