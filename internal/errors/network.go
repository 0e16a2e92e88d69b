//nolint:revive // Package name intentionally shadows stdlib errors for convenience.
package errors

import (
	"fmt"
	"net/http"
)

// NetworkError represents a network-related error.
type NetworkError struct {
	Base Error `json:"error"`

	// URL is the URL that failed.
	URL string `json:"url,omitempty"`

	// StatusCode is the HTTP status code (if applicable).
	StatusCode int `json:"statusCode,omitempty"`
}

// NewNetworkError creates a NetworkError.
func NewNetworkError(url string, cause error) *NetworkError {
	return &NetworkError{
		Base: Error{
			Category: CategoryNetwork,
			Code:     CodeNetworkFailed,
			Message:  fmt.Sprintf("failed to download from %s", url),
			Cause:    cause,
		},
		URL: url,
	}
}

// NewHTTPError creates a NetworkError for a non-200 response.
// The response body is never treated as the requested payload.
func NewHTTPError(url string, statusCode int) *NetworkError {
	e := &NetworkError{
		Base: Error{
			Category: CategoryNetwork,
			Code:     CodeHTTPError,
			Message:  fmt.Sprintf("failed to download: HTTP %d", statusCode),
		},
		URL:        url,
		StatusCode: statusCode,
	}
	switch statusCode {
	case http.StatusNotFound:
		e.Base.Hint = "No release asset exists at this URL. Check the version and\nthat the release publishes a build for this platform."
	case http.StatusUnauthorized, http.StatusForbidden:
		e.Base.Hint = "Set GITHUB_TOKEN (or GH_TOKEN) if the repository is private\nor the API rate limit was exceeded."
	}
	return e
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return e.Base.Error()
}

// Unwrap returns the underlying error.
func (e *NetworkError) Unwrap() error {
	return e.Base.Cause
}

// Is reports whether the target error matches this error by code.
func (e *NetworkError) Is(target error) bool {
	t, ok := target.(*NetworkError)
	if !ok {
		return false
	}
	return e.Base.Code == t.Base.Code
}
