package julsdk

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorBody is the error payload the API returns on any non-2xx response.
type ErrorBody struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	// Violations is set by promote when required checks block the merge
	// (error kind "policy_violation").
	Violations []PolicyViolation `json:"violations,omitempty"`
}

// APIError wraps non-2xx responses. Body is the parsed payload, or a
// synthesized {error: "unknown", message: <status text>} when the response
// body was not a JSON error object.
type APIError struct {
	StatusCode int
	Body       ErrorBody
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d error=%s message=%s", e.StatusCode, e.Body.Error, e.Body.Message)
}

// Kind returns the server's error kind, e.g. "not_found".
func (e *APIError) Kind() string { return e.Body.Error }

// AsAPIError extracts an *APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.StatusCode == http.StatusNotFound
}

// IsPolicyViolation reports whether err is a promotion blocked by policy.
func IsPolicyViolation(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Body.Error == "policy_violation"
}

// Violations returns the policy checks that blocked a promotion, if any.
func (e *APIError) Violations() []PolicyViolation { return e.Body.Violations }
