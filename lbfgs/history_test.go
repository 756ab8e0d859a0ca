// Copyright ©2025 the Shark authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lbfgs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHistoryBound(t *testing.T) {

	h := history{m: 2, pairs: make([]correction, 0, 2)}
	h.reset()
	require.Equal(t, one, h.bdiag)

	// Three pairs with increasing curvature: yᵢ = i·sᵢ.
	s := [][]float64{{1, 0}, {0, 1}, {1, 1}}
	y := [][]float64{{1, 0}, {0, 2}, {3, 3}}

	require.True(t, h.update(y[0], s[0]))
	require.Equal(t, 1, len(h.pairs))
	require.Equal(t, 1.0, h.bdiag) // yᵀy/yᵀs = 1/1

	require.True(t, h.update(y[1], s[1]))
	require.Equal(t, 2, len(h.pairs))
	require.Equal(t, 2.0, h.bdiag) // 4/2

	// Third push evicts the first pair, oldest-first.
	require.True(t, h.update(y[2], s[2]))
	require.Equal(t, 2, len(h.pairs))
	require.Equal(t, s[1], h.pairs[0].s)
	require.Equal(t, y[1], h.pairs[0].y)
	require.Equal(t, s[2], h.pairs[1].s)
	require.Equal(t, y[2], h.pairs[1].y)
	require.Equal(t, 3.0, h.bdiag) // 18/6

	// A fourth push recomputes bdiag again.
	require.True(t, h.update([]float64{4, 0}, []float64{1, 0}))
	require.Equal(t, 2, len(h.pairs))
	require.Equal(t, s[2], h.pairs[0].s)
	require.Equal(t, 4.0, h.bdiag) // 16/4
}

func TestHistoryCurvatureGate(t *testing.T) {

	h := history{m: 3, pairs: make([]correction, 0, 3)}
	h.reset()
	require.True(t, h.update([]float64{2, 0}, []float64{1, 0}))

	before := h.bdiag
	tests := []struct {
		name string
		y, s []float64
	}{
		{"orthogonal", []float64{0, 1}, []float64{1, 0}},
		{"negative", []float64{-1, 0}, []float64{1, 0}},
		{"below threshold", []float64{1e-11, 0}, []float64{1, 0}},
		{"zero step", []float64{1, 1}, []float64{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.False(t, h.update(tt.y, tt.s))
			require.Equal(t, 1, len(h.pairs))
			require.Equal(t, before, h.bdiag)
		})
	}
}

func TestHistoryOwnsPairs(t *testing.T) {

	h := history{m: 2, pairs: make([]correction, 0, 2)}
	h.reset()

	y := []float64{2, 0}
	s := []float64{1, 0}
	require.True(t, h.update(y, s))

	// Mutating the caller buffers must not reach the stored pair.
	y[0], s[0] = -1, -1
	require.Equal(t, []float64{2, 0}, h.pairs[0].y)
	require.Equal(t, []float64{1, 0}, h.pairs[0].s)
}
