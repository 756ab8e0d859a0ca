// Copyright ©2025 the Shark authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lbfgs

import (
	"slices"

	"gonum.org/v1/gonum/floats"
)

const (
	zero = 0.0
	one  = 1.0
)

// updThres gates the curvature condition yᵀs.
// Pairs at or below the threshold are discarded without touching the model.
const updThres = 1e-10

// correction is one stored quasi-Newton pair:
// step s = xₖ₊₁ - xₖ and gradient difference y = gₖ₊₁ - gₖ.
type correction struct {
	s, y []float64
}

// history is the bounded oldest-first record of accepted correction pairs
// together with the diagonal scale bdiag = yᵀy/yᵀs of the newest pair.
// At most m pairs are retained; a push at capacity evicts the oldest pair.
type history struct {
	m     int
	bdiag float64
	pairs []correction
}

// reset restores the identity model: no corrections, bdiag = 1.
func (h *history) reset() {
	h.bdiag = one
	h.pairs = h.pairs[:0]
}

// update stores the pair (s, y) when the curvature condition yᵀs > 𝚞𝚙𝚍𝚃𝚑𝚛𝚎𝚜
// holds and refreshes bdiag from the new pair. A rejected pair leaves both
// the buffer and bdiag unchanged.
func (h *history) update(y, s []float64) bool {
	ys := floats.Dot(y, s)
	if ys <= updThres {
		return false
	}
	if len(h.pairs) >= h.m {
		copy(h.pairs, h.pairs[1:])
		h.pairs = h.pairs[:len(h.pairs)-1]
	}
	h.pairs = append(h.pairs, correction{
		s: slices.Clone(s),
		y: slices.Clone(y),
	})
	h.bdiag = floats.Dot(y, y) / ys
	return true
}
