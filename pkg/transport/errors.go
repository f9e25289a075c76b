package transport

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidAPIKey = errors.New("invalid api key")

	ErrNetwork       = errors.New("network failure")
	ErrCancelled     = errors.New("request cancelled")
	ErrEmptyResponse = errors.New("empty response")
	ErrHTTPStatus    = errors.New("http error status")
	ErrParse         = errors.New("response parse error")
)

// Error describes a failed request. Kind is one of the Err* sentinels of
// this package and errors.Is matches both Kind and the underlying error.
type Error struct {
	Kind       error
	Method     string
	Path       string
	StatusCode int
	// Response body, kept for diagnostics.
	Body []byte
	Err  error
}

const maxBodyInError = 200

func (e *Error) Error() string {
	var msg strings.Builder

	fmt.Fprintf(&msg, "%s %s: %v", e.Method, e.Path, e.Kind)

	if e.StatusCode != 0 && errors.Is(e.Kind, ErrHTTPStatus) {
		fmt.Fprintf(&msg, " %d", e.StatusCode)
	}

	if e.Err != nil {
		fmt.Fprintf(&msg, ": %v", e.Err)
	}

	if body := strings.TrimSpace(string(e.Body)); body != "" {
		if len(body) > maxBodyInError {
			body = body[:maxBodyInError] + "..."
		}
		fmt.Fprintf(&msg, ": %s", body)
	}

	return msg.String()
}

func (e *Error) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Returns the HTTP status code of a failed request, or 0 if no
// response was received.
func StatusCode(err error) int {
	var terr *Error
	if errors.As(err, &terr) {
		return terr.StatusCode
	}
	return 0
}
