// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runnertest provides a recording runner.Runner for tests that must
// not start real processes.
package runnertest

import (
	"context"

	"github.com/goplus/maxsat/internal/runner"
)

// Recorder records every step it is asked to run. Steps whose label is in
// Fail return the mapped error; Output returns Outputs[label].
type Recorder struct {
	Steps   []runner.BuildStep
	Fail    map[string]error
	Outputs map[string][]byte
}

var _ runner.Runner = (*Recorder)(nil)

func (r *Recorder) Run(ctx context.Context, step runner.BuildStep) error {
	r.Steps = append(r.Steps, step)
	if err, ok := r.Fail[step.Label]; ok {
		return err
	}
	return nil
}

func (r *Recorder) Output(ctx context.Context, step runner.BuildStep) ([]byte, error) {
	if err := r.Run(ctx, step); err != nil {
		return nil, err
	}
	return r.Outputs[step.Label], nil
}

// Labels returns the labels of the recorded steps in execution order.
func (r *Recorder) Labels() []string {
	labels := make([]string, len(r.Steps))
	for i, s := range r.Steps {
		labels[i] = s.Label
	}
	return labels
}

// ExitFailure returns the error a real runner reports for a step that exited
// with code.
func ExitFailure(label string, code int) error {
	return &runner.ExitError{Label: label, Code: code}
}
