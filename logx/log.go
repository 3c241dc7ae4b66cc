// Copyright 2024 The Ttcr Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package logx replaces gofem's process-wide io.Pf verbosity switch with an
// explicit log sink threaded through Config: no package-level state, no
// hidden globals, a nil Sink is a silent no-op.
package logx

import "github.com/cpmech/gosl/io"

// Sink receives formatted log lines from the solvers and dispatcher.
type Sink interface {
	Logf(format string, args ...interface{})
}

// Console is the default Sink, reproducing gofem's colored io.Pf console
// texture (io.Pf / io.Sf) instead of a bare fmt.Printf.
type Console struct{}

// Logf writes a formatted line via gosl/io.Pf.
func (Console) Logf(format string, args ...interface{}) {
	io.Pf(format+"\n", args...)
}

// none is the no-op sink used when a caller passes a nil Sink.
type none struct{}

func (none) Logf(string, ...interface{}) {}

// Or returns s if non-nil, otherwise a silent no-op sink.
func Or(s Sink) Sink {
	if s == nil {
		return none{}
	}
	return s
}
