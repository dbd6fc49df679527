package incidents

import (
	"context"
	"errors"
	"net"
	"net/http"
)

// Outcome is the result of a single dispatch: either the remote service
// answered (Answered) or the exchange failed locally (*Failed).
type Outcome interface {
	Result() Result
	isOutcome()
}

// Answered carries whatever the service returned, including 4xx/5xx.
type Answered struct {
	StatusCode int
	Header     http.Header
	Body       any
}

func (a Answered) Result() Result { return Normalize(a.StatusCode, a.Header, a.Body) }
func (Answered) isOutcome()       {}

// FailureKind classifies a local failure.
type FailureKind int

const (
	FailureTransport FailureKind = iota
	FailureEncode
	FailureDecode
	FailureTimeout
	FailureCanceled
)

func (k FailureKind) String() string {
	switch k {
	case FailureTransport:
		return "transport"
	case FailureEncode:
		return "encode"
	case FailureDecode:
		return "decode"
	case FailureTimeout:
		return "timeout"
	case FailureCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Failed is returned when no well-formed answer could be obtained.
type Failed struct {
	Operation string
	Kind      FailureKind
	Cause     error
}

// Result flattens the failure into a synthetic 500 record with no headers
// and the cause's text as body. A nil Cause falls back to the kind name.
func (f *Failed) Result() Result {
	return Normalize(http.StatusInternalServerError, nil, f.reason())
}

func (f *Failed) Error() string {
	return f.Operation + " " + f.Kind.String() + " failure: " + f.reason()
}

func (f *Failed) reason() string {
	if f.Cause == nil {
		return f.Kind.String()
	}
	return f.Cause.Error()
}

func (f *Failed) Unwrap() error { return f.Cause }
func (*Failed) isOutcome()      {}

// classifyTransport maps a transport error onto a FailureKind.
func classifyTransport(err error) FailureKind {
	if errors.Is(err, context.Canceled) {
		return FailureCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}
	return FailureTransport
}
