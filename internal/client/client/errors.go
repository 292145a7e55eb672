package client

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/taskboard/internal/common"
)

// ErrUnavailable means the request never got an answer: the server is down,
// unreachable, or timed out.
var ErrUnavailable = errors.New("server unavailable")

// APIError is a non-2xx answer carrying the server's envelope message.
// It unwraps to the matching sentinel from package common.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return http.StatusText(e.Status)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return common.ErrValidation
	case http.StatusUnauthorized:
		if e.Message == common.ErrAuth.Error() {
			return common.ErrAuth
		}
		return common.ErrNotAuthenticated
	case http.StatusNotFound:
		return common.ErrNotFound
	case http.StatusConflict:
		return common.ErrConflict
	case http.StatusTooManyRequests:
		return common.ErrRateLimited
	case http.StatusServiceUnavailable:
		return ErrUnavailable
	}
	if e.Status >= http.StatusInternalServerError {
		return common.ErrStorage
	}
	return nil
}
