package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed call.
type Kind int

const (
	// KindHTTP is any non-success status not covered by a more specific kind.
	KindHTTP Kind = iota + 1
	// KindUnauthorized is a 401 from any endpoint other than the token endpoint.
	KindUnauthorized
	// KindForbidden is a 403.
	KindForbidden
	// KindNetwork means no response was received.
	KindNetwork
	// KindDecode means a success response carried a body that is not JSON.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindHTTP:
		return "http"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNetwork:
		return "network"
	case KindDecode:
		return "decode"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var (
	// ErrUnauthorized matches failures of KindUnauthorized.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden matches failures of KindForbidden.
	ErrForbidden = errors.New("forbidden")
	// ErrHTTP matches failures of KindHTTP.
	ErrHTTP = errors.New("http error")
	// ErrNetwork matches failures of KindNetwork.
	ErrNetwork = errors.New("network error")
	// ErrDecode matches failures of KindDecode.
	ErrDecode = errors.New("decode error")
	// ErrMissingToken is returned when the token endpoint answers without an access token.
	ErrMissingToken = errors.New("token response has no access_token")
)

// unknownDetail replaces the detail of an error response whose body is not JSON.
const unknownDetail = "Unknown error"

// Error is returned for every failed call.
type Error struct {
	Kind     Kind
	Method   string
	Endpoint string
	// Status is the HTTP status, zero for network and decode failures.
	Status int
	// Detail is the server-provided "detail" message, if any.
	Detail string
	// Err is the underlying transport or parse error, if any.
	Err error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindUnauthorized:
		return "Unauthorized: " + e.detailOrStatus()
	case KindForbidden:
		return "Forbidden: " + e.detailOrStatus()
	case KindNetwork:
		return fmt.Sprintf("%s %s: network error: %v", e.Method, e.Endpoint, e.Err)
	case KindDecode:
		return fmt.Sprintf("%s %s: decoding response: %v", e.Method, e.Endpoint, e.Err)
	default:
		return e.detailOrStatus()
	}
}

func (e *Error) detailOrStatus() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("HTTP error! status: %d", e.Status)
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	errs := []error{e.Kind.sentinel()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func (k Kind) sentinel() error {
	switch k {
	case KindUnauthorized:
		return ErrUnauthorized
	case KindForbidden:
		return ErrForbidden
	case KindNetwork:
		return ErrNetwork
	case KindDecode:
		return ErrDecode
	default:
		return ErrHTTP
	}
}

// StatusCode returns the HTTP status carried by err, or 0 when err did not
// come from a response.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// IsUnauthorized reports whether err is a rejected-token failure.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

func statusKind(status int, isTokenEndpoint bool) Kind {
	switch {
	case status == http.StatusUnauthorized && !isTokenEndpoint:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	default:
		return KindHTTP
	}
}
