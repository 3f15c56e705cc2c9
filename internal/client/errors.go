package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("rejected by the API")
	ErrServer     = errors.New("server error")
)

// APIError is returned for any non-2xx response.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("failed to %s: %d %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("failed to %s: %d %s: %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// Is lets callers test the status class with errors.Is.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	case ErrValidation:
		return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity
	case ErrServer:
		return e.StatusCode >= http.StatusInternalServerError
	}
	return false
}

// check folds transport errors and error statuses into one error value.
func check(op string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if resp.IsError() {
		return &APIError{Op: op, StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}
