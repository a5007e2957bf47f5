package apperr

import (
	"errors"
	"fmt"
)

// ErrNotFound means no snapshot was reachable via the fallback chain for the
// requested date. User-visible as "try again shortly".
var ErrNotFound = errors.New("not found")

// ErrInvalidPayload means a request was malformed or missing required fields.
// Such requests are rejected before any side effect.
var ErrInvalidPayload = errors.New("invalid payload")

// SchemaError means the summarization provider returned content that could
// not be parsed or does not match the expected snapshot structure. It aborts
// the ingestion run.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string {
	return "summarization response invalid: " + e.Reason
}

// UpstreamError means a call to an external collaborator failed at the
// transport level. StatusCode and Body are kept for the debug channel only;
// callers surface a generic message by default.
type UpstreamError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: upstream returned %d", e.Op, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
