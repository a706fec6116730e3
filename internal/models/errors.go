package models

import (
	"errors"
	"fmt"
)

// Quote source error kinds. Match with errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrBadRequest = errors.New("bad request")
	ErrNetwork    = errors.New("network error")
	ErrNoResult   = errors.New("no result")
	ErrParse      = errors.New("parse error")
)

// QuoteError describes a failed quote source call
type QuoteError struct {
	Kind   error  // one of the Err* kinds above
	Op     string // latest, history, search
	Ticker string
	Err    error
}

// NewQuoteError wraps err with a kind, operation and ticker
func NewQuoteError(kind error, op, ticker string, err error) *QuoteError {
	return &QuoteError{Kind: kind, Op: op, Ticker: ticker, Err: err}
}

func (e *QuoteError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Ticker, e.Kind)
	}
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Ticker, e.Kind, e.Err)
}

// Is matches the error kind
func (e *QuoteError) Is(target error) bool {
	return target == e.Kind
}

func (e *QuoteError) Unwrap() error {
	return e.Err
}

// IsSkippable reports whether a historic lookup failure should be dropped
// silently (unknown ticker or a provider rejecting the request).
func IsSkippable(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrBadRequest)
}
