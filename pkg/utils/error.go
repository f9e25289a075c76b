package utils

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrBadRequest   = fmt.Errorf("Bad request")
	ErrNotFound     = fmt.Errorf("Not found")
	ErrParse        = fmt.Errorf("Parse error")
	ErrUnauthorized = fmt.Errorf("Unauthorized")
)

// Convert errors to HTTP status codes
func HttpStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrParse):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}
