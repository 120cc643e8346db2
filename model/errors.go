// Package model - error taxonomy surfaced to API callers.
package model

import "fmt"

// RequestError carries the HTTP status an engine failure maps to:
// 400 for malformed input, 404 for unknown package/version, 502 for
// upstream registry or vulnerability database failures.
type RequestError struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
}

func (e *RequestError) Error() string {
	return e.Message
}

// BadRequest builds a 400 validation error.
func BadRequest(format string, args ...interface{}) *RequestError {
	return &RequestError{Status: 400, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds a 404 lookup error.
func NotFound(format string, args ...interface{}) *RequestError {
	return &RequestError{Status: 404, Message: fmt.Sprintf(format, args...)}
}

// BadGateway builds a 502 upstream-failure error.
func BadGateway(format string, args ...interface{}) *RequestError {
	return &RequestError{Status: 502, Message: fmt.Sprintf(format, args...)}
}
