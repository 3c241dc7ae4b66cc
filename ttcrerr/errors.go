// Copyright 2024 The Ttcr Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ttcrerr defines the typed error kinds this system can return. It
// plays the role gofem's github.com/cpmech/gosl/chk package plays for
// ad-hoc errors (chk.Err / chk.Panic), but with a closed, inspectable Kind
// so callers can branch on the failure instead of matching message text.
package ttcrerr

import "fmt"

// Kind enumerates the error conditions named in this system's design.
type Kind int

const (
	// WrongSize: slowness/velocity length mismatch, or source/receiver count
	// mismatch when a pairwise correspondence is required.
	WrongSize Kind = iota
	// OutOfGrid: a source or receiver lies outside the mesh bounding box, or
	// outside every tetrahedron beyond tolerance.
	OutOfGrid
	// UnknownMethod: the requested solver is not one of FSM/SPM/DSPM.
	UnknownMethod
	// IncompatibleOptions: e.g. DSPM combined with aggregate_src.
	IncompatibleOptions
	// ConvergenceFailure: FSM exceeded maxit without meeting eps.
	ConvergenceFailure
	// RaytraceFailure: gradient vanished, or the backward walk exceeded its
	// bounded step count without reaching the source.
	RaytraceFailure
	// ThreadOutOfRange: an explicit thread_no >= nthreads was requested.
	ThreadOutOfRange
)

func (k Kind) String() string {
	switch k {
	case WrongSize:
		return "WrongSize"
	case OutOfGrid:
		return "OutOfGrid"
	case UnknownMethod:
		return "UnknownMethod"
	case IncompatibleOptions:
		return "IncompatibleOptions"
	case ConvergenceFailure:
		return "ConvergenceFailure"
	case RaytraceFailure:
		return "RaytraceFailure"
	case ThreadOutOfRange:
		return "ThreadOutOfRange"
	}
	return "Unknown"
}

// Error wraps a Kind with a formatted message, mirroring the text produced
// by gosl's chk.Err.
type Error struct {
	Kind Kind
	msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

// New builds an *Error of the given kind with a chk.Err-style formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Is reports whether err is a *Error of the given kind. It checks err itself
// only; a *Error wrapped inside another error is not found.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}
