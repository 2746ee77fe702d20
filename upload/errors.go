package upload

import "fmt"

// ProtocolError signals a deviation from the expected status-code/header
// contract with the remote service: an unexpected status, a missing or
// unparsable Upload-Offset header, a missing upload link, or an offset
// mismatch after a chunk. Transport and JSON decoding failures are not
// ProtocolErrors; they propagate unwrapped and retry policy on them is the
// caller's concern.
type ProtocolError struct {
	Description string
	// StatusCode is the offending HTTP status, or 0 when the violation is
	// not tied to a status code.
	StatusCode int
}

func (e *ProtocolError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("protocol error: %s (HTTP %d)", e.Description, e.StatusCode)
	}
	return fmt.Sprintf("protocol error: %s", e.Description)
}

func newProtocolError(format string, v ...interface{}) *ProtocolError {
	return &ProtocolError{Description: fmt.Sprintf(format, v...)}
}

func newStatusError(statusCode int, format string, v ...interface{}) *ProtocolError {
	return &ProtocolError{
		Description: fmt.Sprintf(format, v...),
		StatusCode:  statusCode,
	}
}
