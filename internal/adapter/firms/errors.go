package firms

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransport means the request never produced an HTTP response.
	ErrTransport = errors.New("firms transport error")

	// ErrCircuitOpen means recent fetches failed and the breaker is rejecting calls.
	ErrCircuitOpen = errors.New("firms circuit breaker open")

	// ErrNoData means the fetch succeeded but returned no detection rows.
	ErrNoData = errors.New("firms returned no detections")
)

// StatusError is returned for any non-200 response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("firms API error: status %d: %s", e.Code, e.Body)
}

// Retryable reports whether a later attempt may succeed.
func (e *StatusError) Retryable() bool {
	return e.Code == 429 || e.Code >= 500
}

// SchemaError means the CSV header lacks required columns. FIRMS answers an
// invalid MAP_KEY with a 200 and a plain-text message, which surfaces here.
type SchemaError struct {
	Missing []string
	Header  []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("firms csv missing required columns [%s] (header: %s)",
		strings.Join(e.Missing, ", "), strings.Join(e.Header, ","))
}

// outcome maps a fetch error to a metric label.
func outcome(err error) string {
	var statusErr *StatusError
	var schemaErr *SchemaError
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.As(err, &statusErr):
		return "status"
	case errors.As(err, &schemaErr):
		return "schema"
	case errors.Is(err, ErrNoData):
		return "empty"
	default:
		return "other"
	}
}
