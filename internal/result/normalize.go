package result

import "net/http"

// Normalize collapses any caught failure value into the internal-error
// envelope. A genuine error keeps its message; everything else (nil recovered
// values, bare strings, arbitrary panics) becomes the unexpected-error
// sentinel. This is the single point where heterogeneous failure shapes meet
// one taxonomy; nothing is rethrown or logged here.
func Normalize[T any](v any) Result[T] {
	msg := UnexpectedError
	if err, ok := v.(error); ok && err != nil {
		msg = err.Error()
	}
	return New[T](http.StatusInternalServerError, nil, msg)
}
