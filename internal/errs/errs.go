// Package errs defines the small sentinel error taxonomy spec.md §7 describes
// (transient fetch, store conflict; fatal startup errors have no sentinel and
// are handled by each binary's main) and the HTTP propagation wrapper used by
// the public-facing services.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrAlreadyPresent signals a duplicate-key conflict on an idempotent insert;
// callers treat it as success and skip the item. No log line is written for
// it.
var ErrAlreadyPresent = errors.New("already present")

// ErrTransient marks an error a caller should retry (item-feed 5xx/timeout).
var ErrTransient = errors.New("transient fetch error")

// IsAlreadyPresent reports whether err (or its chain) is ErrAlreadyPresent.
func IsAlreadyPresent(err error) bool {
	return errors.Is(err, ErrAlreadyPresent)
}

// AppError wraps an arbitrary error for HTTP responses, matching the
// "Something went wrong: {detail}" propagation policy of spec.md §7.
type AppError struct {
	Err error
}

func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Err: err}
}

func (e *AppError) Error() string { return e.Err.Error() }
func (e *AppError) Unwrap() error { return e.Err }

// WriteHTTP writes the generic 500 response the propagation policy mandates.
func (e *AppError) WriteHTTP(w http.ResponseWriter) {
	http.Error(w, fmt.Sprintf("Something went wrong: %s", e.Err), http.StatusInternalServerError)
}
