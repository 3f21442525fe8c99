package debrid

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int    `json:"-"`
	Endpoint   string `json:"-"`
	Code       int    `json:"error_code"`
	Message    string `json:"error"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != 0 {
		return fmt.Sprintf("real-debrid %s returned %d: %s (code %d)", e.Endpoint, e.StatusCode, msg, e.Code)
	}
	return fmt.Sprintf("real-debrid %s returned %d: %s", e.Endpoint, e.StatusCode, msg)
}

// IsRetriable reports whether err is worth retrying later: rate limits,
// server errors, timeouts, and connection failures.
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, token := range []string{"connection reset", "connection refused", "timeout", "eof"} {
		if strings.Contains(msg, token) {
			return true
		}
	}
	return false
}
