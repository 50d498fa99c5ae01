// Package errors carries machine-readable error codes across subsystem
// boundaries so HTTP handlers and operator tooling can branch on a short
// code instead of matching message text. It re-exports the stdlib helpers
// so callers never need to import both packages.
package errors

import (
	"errors"
	"fmt"
)

// Category groups codes by how callers should react to them.
type Category string

const (
	CategoryValidation Category = "validation" // bad request fields, never retried
	CategoryAuth       Category = "auth"       // missing/incorrect admin credential
	CategoryConfig     Category = "config"     // required setting unset at startup
	CategoryStore      Category = "store"      // durable-store operation failed
	CategoryDelivery   Category = "delivery"   // per-endpoint push delivery failure
)

// Coded is an error with a stable machine-readable code.
type Coded struct {
	Code     string
	Category Category
	Err      error
}

func (e *Coded) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code
}

func (e *Coded) Unwrap() error { return e.Err }

// Is lets two Coded errors compare equal by code, so sentinel values like
// ErrIncidentCreate match wrapped store failures.
func (e *Coded) Is(target error) bool {
	var c *Coded
	if errors.As(target, &c) {
		return c.Code == e.Code
	}
	return false
}

// NewCoded creates a coded error with no underlying cause.
func NewCoded(cat Category, code string) *Coded {
	return &Coded{Code: code, Category: cat}
}

// WithCode wraps err under the given code. A nil err yields a bare coded error.
func WithCode(cat Category, code string, err error) *Coded {
	return &Coded{Code: code, Category: cat, Err: err}
}

// CodeOf extracts the machine-readable code from err, or "internal" when the
// error carries none.
func CodeOf(err error) string {
	var c *Coded
	if errors.As(err, &c) {
		return c.Code
	}
	return "internal"
}

// CategoryOf extracts the category from err, defaulting to store.
func CategoryOf(err error) Category {
	var c *Coded
	if errors.As(err, &c) {
		return c.Category
	}
	return CategoryStore
}

// Stdlib re-exports.

func New(text string) error { return errors.New(text) }

func Newf(format string, args ...any) error { return fmt.Errorf(format, args...) }

func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }

func Join(errs ...error) error { return errors.Join(errs...) }
