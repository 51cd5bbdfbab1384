// Package result carries the uniform {code, data, error} envelope that every
// service operation returns. Controllers translate an envelope to a transport
// response without re-interpreting it.
package result

import "net/http"

// Message sentinels shared across services.
const (
	UnexpectedError     = "unexpected-error"
	DuplicateEntry      = "duplicate-entry"
	InvalidPlatformCode = "invalid-platform-code"
)

// Result is the tri-state outcome of a service operation: success with data,
// empty success (or not-found), or failure with a message. At most one of
// data and error is meaningful at a time.
type Result[T any] struct {
	code    int
	data    T
	hasData bool
	err     string
}

// New builds an envelope. A non-positive code defaults to internal server
// error, matching the zero-argument construction of the envelope. Data is
// optional; pass nil for the empty states.
func New[T any](code int, data *T, err string) Result[T] {
	r := Result[T]{}
	r.Set(code, data, err)
	return r
}

// OK wraps data in a 200 envelope.
func OK[T any](data T) Result[T] {
	return New(http.StatusOK, &data, "")
}

// Created wraps data in a 201 envelope.
func Created[T any](data T) Result[T] {
	return New(http.StatusCreated, &data, "")
}

// NotFound builds the data-absent 404 envelope. The message is usually empty;
// auth workflows attach a human-readable one.
func NotFound[T any](err string) Result[T] {
	return New[T](http.StatusNotFound, nil, err)
}

// Fail builds a failure envelope with the given status and message.
func Fail[T any](code int, err string) Result[T] {
	return New[T](code, nil, err)
}

// Code returns the HTTP-style status of the envelope.
func (r Result[T]) Code() int { return r.code }

// Data returns the payload and whether one is present.
func (r Result[T]) Data() (T, bool) { return r.data, r.hasData }

// Err returns the failure message, empty on success.
func (r Result[T]) Err() string { return r.err }

// OK reports a 200 envelope with no failure message.
func (r Result[T]) OK() bool { return r.code == http.StatusOK && r.err == "" }

// Set replaces code, data and error together; no partial state is observable
// between the three fields.
func (r *Result[T]) Set(code int, data *T, err string) {
	if code <= 0 {
		code = http.StatusInternalServerError
	}
	r.code = code
	if data != nil {
		r.data = *data
		r.hasData = true
	} else {
		var zero T
		r.data = zero
		r.hasData = false
	}
	r.err = err
}
