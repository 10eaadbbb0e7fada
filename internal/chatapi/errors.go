package chatapi

import "fmt"

// TransportError indicates the connection could not be established or was
// interrupted (DNS, TLS, refused connection, timeout). It always carries
// the underlying cause.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIStatusError indicates the remote endpoint responded with a non-2xx
// status. The caller decides whether the call is worth repeating.
type APIStatusError struct {
	StatusCode int
}

func (e *APIStatusError) Error() string {
	return fmt.Sprintf("api error: HTTP %d", e.StatusCode)
}

// DecodeError indicates the response body was not valid JSON or did not
// match the expected schema. Repeating the call would reproduce the same
// malformed response, so it is never retried.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to parse response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
