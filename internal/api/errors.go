package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// TransportError indicates the request never produced a response
// (connection refused, timeout, cancelled context...).
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("executing request %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError indicates the backend answered with a non-2xx status.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	// Detail is the backend's error detail when it sent one, otherwise the
	// raw response body.
	Detail string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf(
		"unexpected status %d on %s %s: %s",
		e.StatusCode, e.Method, e.Path, e.Detail,
	)
}

// DecodeError indicates a 2xx response whose body was not the expected JSON.
type DecodeError struct {
	Method string
	Path   string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unmarshaling response from %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// errorResponse is the backend's error envelope ({"detail": "..."}).
type errorResponse struct {
	Detail string `json:"detail"`
}

func newStatusError(method, path string, code int, body []byte) *StatusError {
	detail := string(body)
	var er errorResponse
	if json.Unmarshal(body, &er) == nil && er.Detail != "" {
		detail = er.Detail
	}
	return &StatusError{Method: method, Path: path, StatusCode: code, Detail: detail}
}

// IsNotFound reports whether err (or any error in its chain) is a 404.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// IsAuthError reports whether err (or any error in its chain) is a 401/403.
func IsAuthError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) &&
		(se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden)
}

// IsTransport reports whether err is a network-level failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// UserMessage collapses any client error into a short message suitable for a
// status bar.
func UserMessage(err error) string {
	var (
		te *TransportError
		se *StatusError
		de *DecodeError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &te):
		return "backend unreachable"
	case errors.As(err, &se):
		if se.StatusCode == http.StatusNotFound {
			return "not found"
		}
		return fmt.Sprintf("backend error (%d)", se.StatusCode)
	case errors.As(err, &de):
		return "unexpected response from backend"
	default:
		return err.Error()
	}
}
