// Copyright ©2025 the Shark authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lbfgs

// boundTol is the feasibility grace applied by IsFeasible. The dogleg ratio
// tests keep a point inside the box only up to roundoff, so the check must
// not reject a bound hit by one ulp.
const boundTol = 1e-10

// ConstraintHandler describes the feasible region of a constrained problem.
// The direction core supports only box-shaped regions; any other
// implementation reaching Direction aborts with a descriptive panic.
type ConstraintHandler interface {
	// IsBoxConstrained reports whether the feasible region is an
	// axis-aligned box. Only box-shaped handlers may drive Direction.
	IsBoxConstrained() bool
	// IsFeasible reports whether the point lies in the feasible region.
	IsFeasible(x []float64) bool
}

// BoxConstraintHandler restricts every variable to the interval
// [Lower[i], Upper[i]]. It is the only constraint kind the direction core
// handles itself.
type BoxConstraintHandler struct {
	Lower, Upper []float64
}

func (h *BoxConstraintHandler) IsBoxConstrained() bool { return true }

func (h *BoxConstraintHandler) IsFeasible(x []float64) bool {
	if len(x) != len(h.Lower) {
		return false
	}
	for i, v := range x {
		if v < h.Lower[i]-boundTol || v > h.Upper[i]+boundTol {
			return false
		}
	}
	return true
}
