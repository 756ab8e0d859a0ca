// Copyright ©2025 the Shark authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lbfgs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewValidate(t *testing.T) {

	box := func(l, u []float64) *BoxConstraintHandler {
		return &BoxConstraintHandler{Lower: l, Upper: u}
	}

	tests := []struct {
		name string
		p    Problem
		want string
	}{
		{"zero dimension", Problem{N: 0, M: 5}, "problem dimension"},
		{"negative dimension", Problem{N: -1, M: 5}, "problem dimension"},
		{"zero corrections", Problem{N: 2, M: 0}, "correction number"},
		{"short bounds", Problem{N: 2, M: 5, Handler: box([]float64{0}, []float64{1})}, "bounds size"},
		{"crossed bounds", Problem{N: 2, M: 5, Handler: box([]float64{0, 3}, []float64{1, 2})}, "no feasible solution"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := tt.p.New(nil)
			require.Nil(t, o)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}

	p := Problem{N: 2, M: 5, Handler: box([]float64{0, 0}, []float64{1, 1})}
	o, err := p.New(nil)
	require.NoError(t, err)
	require.NotNil(t, o)
}

func TestInitModelResets(t *testing.T) {

	p := Problem{N: 2, M: 3}
	o, err := p.New(nil)
	require.NoError(t, err)

	driveQuadratic(o, []float64{0, 0}, []float64{1, 1}, 4)
	require.Greater(t, o.NumCorrections(), 0)

	o.InitModel()
	require.Equal(t, 0, o.NumCorrections())
	require.Equal(t, one, o.hist.bdiag)

	// The first direction after a reset is plain steepest descent again.
	dir := o.Direction([]float64{0, 0}, []float64{2, -3})
	require.Equal(t, []float64{-2, 3}, dir)
}

func TestUpdateLogging(t *testing.T) {

	var sb strings.Builder
	log := &Logger{Level: LogEval, Msg: &sb}

	p := Problem{N: 2, M: 3}
	o, err := p.New(log)
	require.NoError(t, err)

	// A genuine move logs an accepted update.
	o.Direction([]float64{0, 0}, []float64{1, 1})
	o.Direction([]float64{-1, -1}, []float64{0.5, 0.5})
	require.Contains(t, sb.String(), "update accepted")

	// A repeated point has a zero step and logs a skip.
	sb.Reset()
	o.Direction([]float64{-1, -1}, []float64{0.5, 0.5})
	require.Contains(t, sb.String(), "Skipping L-BFGS update")
}
