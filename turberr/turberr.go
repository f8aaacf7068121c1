// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package turberr holds the error taxonomy shared across the turbulence
// generator, so the CLI boundary can map a failure to the right exit
// code (spec section 6/7: 0 success, 1 precondition, 2 numerical,
// 3 checkpoint timeout).
package turberr

import (
	"errors"
	"fmt"
)

// Category tags a failure for the CLI exit-code mapping.
type Category int

const (
	// Precondition covers bad input shape/configuration: missing
	// coherence kwargs, edition != 3, time grid mismatch, bad
	// interp_data, negative dimensions.
	Precondition Category = iota
	// Numerical covers a Cholesky factorization failure (non-PSD Sigma).
	Numerical
	// IOTransient covers a missing checkpoint file mid-combine; the
	// caller is expected to retry, not surface this directly.
	IOTransient
	// IOPermanent covers unrecoverable filesystem errors, or a combine
	// that is still missing files after the retry deadline.
	IOPermanent
	// Degenerate is not an error: every simulation point is collocated
	// with a constraint, so there is nothing to simulate.
	Degenerate
)

// Error wraps an underlying cause with its Category.
type Error struct {
	Cat   Category
	Cause error
}

func (e *Error) Error() string {
	return e.Cause.Error()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds a categorized error from a format string, gosl chk style.
func New(cat Category, format string, args ...interface{}) error {
	return &Error{Cat: cat, Cause: fmt.Errorf(format, args...)}
}

// Is reports whether err (or something it wraps) carries Category cat.
func Is(err error, cat Category) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.Cat == cat
	}
	return false
}

// ExitCode maps a returned error to the process exit code from spec
// section 6. A nil error exits 0; an uncategorized error defaults to 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var te *Error
	if errors.As(err, &te) {
		switch te.Cat {
		case Numerical:
			return 2
		case IOPermanent:
			return 3
		default:
			return 1
		}
	}
	return 1
}
