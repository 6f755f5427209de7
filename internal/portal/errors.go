package portal

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnavailable wraps network failures reaching the portal.
var ErrUnavailable = errors.New("portal unavailable")

// HTTPError is returned for non-2xx responses other than auth failures.
type HTTPError struct {
	StatusCode int
	Method     string
	Path       string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d on %s %s", e.StatusCode, e.Method, e.Path)
	}
	return fmt.Sprintf("unexpected status %d on %s %s: %s", e.StatusCode, e.Method, e.Path, e.Body)
}

// AuthError reports a rejected or expired token.
type AuthError struct {
	StatusCode int // 0 when detected before sending the request
	Reason     string
}

func (e *AuthError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("authentication failed (%d): %s", e.StatusCode, e.Reason)
	}
	return "authentication failed: " + e.Reason
}

// Hint suggests how to recover.
func (e *AuthError) Hint() string {
	return "Refresh the token in PORTAL_INBOX_API_TOKEN and try again."
}

// IsAuthError reports whether err is an authentication failure.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsTransient reports whether err may succeed on a later attempt: network
// failures, timeouts, rate limiting and server errors.
func IsTransient(err error) bool {
	if err == nil || IsAuthError(err) {
		return false
	}
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500 ||
			httpErr.StatusCode == http.StatusTooManyRequests ||
			httpErr.StatusCode == http.StatusRequestTimeout
	}
	return false
}
