package feed

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrUnauthorized is returned when the listing rejects the access token.
var ErrUnauthorized = errors.New("feed: unauthorized")

// StatusError is a non-2xx listing response other than 401.
type StatusError struct {
	StatusCode int
	Endpoint   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("feed %s returned %d %s", e.Endpoint, e.StatusCode, http.StatusText(e.StatusCode))
}

// IsRetriable reports whether a listing error is transient: rate limiting,
// server errors, timeouts and network failures.
func IsRetriable(err error) bool {
	if err == nil || errors.Is(err, ErrUnauthorized) || errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
