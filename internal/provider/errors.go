package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// PostbackError classifies delivery failures as transient or permanent.
// Non-2xx responses and network failures are transient: the dialer endpoint
// recovers. Missing configuration is permanent: retrying cannot help until
// an operator fixes it.
type PostbackError struct {
	StatusCode int
	Message    string
	Transient  bool
	Cause      error
}

func (e *PostbackError) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 4)
	parts = append(parts, "postback error")

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *PostbackError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// IsTransient reports whether an error should be retried.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var postbackErr *PostbackError
	if errors.As(err, &postbackErr) {
		return postbackErr.Transient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}
