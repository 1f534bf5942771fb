// Package apperr carries service-level failures with the HTTP status they
// should surface as.
package apperr

import "fmt"

// Error is a coded failure. Status is the HTTP status the API layer writes.
type Error struct {
	Code    string
	Message string
	Status  int
}

func (e *Error) Error() string { return e.Message }

// New creates a coded error.
func New(code, message string, status int) *Error {
	return &Error{Code: code, Message: message, Status: status}
}

// BadRequest flags invalid input.
func BadRequest(format string, args ...interface{}) *Error {
	return New("bad_request", fmt.Sprintf(format, args...), 400)
}

// Unauthorized flags missing or invalid credentials.
func Unauthorized(format string, args ...interface{}) *Error {
	return New("unauthorized", fmt.Sprintf(format, args...), 401)
}

// Forbidden flags an authenticated caller without permission.
func Forbidden(format string, args ...interface{}) *Error {
	return New("forbidden", fmt.Sprintf(format, args...), 403)
}

// NotFound flags a missing resource.
func NotFound(format string, args ...interface{}) *Error {
	return New("not_found", fmt.Sprintf(format, args...), 404)
}

// Conflict flags a state collision, such as exceeding variant stock.
func Conflict(format string, args ...interface{}) *Error {
	return New("conflict", fmt.Sprintf(format, args...), 409)
}

// Unprocessable flags syntactically valid input the server cannot act on.
func Unprocessable(format string, args ...interface{}) *Error {
	return New("unprocessable", fmt.Sprintf(format, args...), 422)
}

// BadGateway flags an upstream dependency failure.
func BadGateway(format string, args ...interface{}) *Error {
	return New("bad_gateway", fmt.Sprintf(format, args...), 502)
}
