// Copyright ©2025 the Shark authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lbfgs

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// dirCtx holds the scratch buffers of one direction computation.
// All buffers are sized once from (n, m) and reused across calls.
type dirCtx struct {
	rho, alpha []float64 // m
	y, s       []float64 // n, gradient difference and step since last call
	p0         []float64 // n, movable steepest-descent direction
	step       []float64 // n, Newton trial step
	bp0        []float64 // n, B·p0
	cauchy     []float64 // n, Cauchy direction
	result     []float64 // n, forward-multiply accumulator
	point      []float64 // n, trial point for the feasibility recheck
	a          *mat.Dense
	active     []int
	inactive   []int
}

func (c *dirCtx) init(n, m int) {
	c.rho = make([]float64, m)
	c.alpha = make([]float64, m)
	c.y = make([]float64, n)
	c.s = make([]float64, n)
	c.p0 = make([]float64, n)
	c.step = make([]float64, n)
	c.bp0 = make([]float64, n)
	c.cauchy = make([]float64, n)
	c.result = make([]float64, n)
	c.point = make([]float64, n)
	c.a = mat.NewDense(m, n, nil)
	c.active = make([]int, 0, n)
	c.inactive = make([]int, 0, n)
}

// Direction computes the quasi-Newton search direction at point x with
// gradient g. The correction history is first updated with the step and
// gradient difference since the previous call, then the direction is either
// the unconstrained two-loop step -H⁻¹g or, for a box-constrained problem,
// the feasible active-set step of boxDirection.
//
// The returned vector is freshly allocated on every call. Direction panics
// when the problem carries a constraint handler that is not box-shaped, or
// when the computed direction leaves the feasible box: both indicate a bug
// in the caller or in the solver, not a numerical condition.
func (o *Optimizer) Direction(x, g []float64) []float64 {

	if len(x) != o.n || len(g) != o.n {
		panic("lbfgs: point dimension not match spec")
	}

	log := &o.logger

	// Update the history if necessary.
	if o.havePrev {
		y, s := o.ctx.y, o.ctx.s
		for i := range y {
			y[i] = g[i] - o.lastGrad[i]
			s[i] = x[i] - o.lastPoint[i]
		}
		if o.hist.update(y, s) {
			if log.enable(LogEval) {
				log.log("L-BFGS update accepted, %d pairs stored, bdiag = %g\n", len(o.hist.pairs), o.hist.bdiag)
			}
		} else if log.enable(LogEval) {
			log.log("Skipping L-BFGS update, curvature condition violated\n")
		}
	} else {
		o.havePrev = true
	}
	copy(o.lastPoint, x)
	copy(o.lastGrad, g)

	dir := make([]float64, o.n)

	if o.handler == nil {
		for i, v := range g {
			dir[i] = -v
		}
		multInvHessian(dir, &o.hist, &o.ctx)
		return dir
	}

	switch h := o.handler.(type) {
	case *BoxConstraintHandler:
		boxDirection(dir, x, g, h.Lower, h.Upper, &o.hist, &o.ctx, log)
		point := o.ctx.point
		floats.AddTo(point, x, dir)
		if !h.IsFeasible(point) {
			panic("lbfgs: internal error")
		}
	default:
		panic("lbfgs: only box constraints are supported via a constraint handler")
	}
	return dir
}

// Subroutine boxDirection (getBoxConstrainedDirection)
//
// This subroutine computes a feasible descent direction under the box
// l ≤ x ≤ u in three phases, terminal on the first success:
//
//  1. split movable (active) and immovable (inactive) variables: a variable
//     within eps of a bound that steepest descent would push outside is
//     treated as fixed and its direction component zeroed;
//  2. take the Newton trial step H⁻¹p₀ with the fixed variables pinned to
//     zero and accept it when every movable variable stays inside the box;
//  3. otherwise fall back to the Cauchy direction p₀/(p₀ᵀBp₀): when even
//     that leaves the box, return its longest feasible multiple, else walk
//     the dogleg leg from the Cauchy point towards the Newton step as far
//     as the box allows.
//
// The returned direction never violates a bound by more than eps.
func boxDirection(dir, x, g, l, u []float64, hist *history, ctx *dirCtx, log *Logger) {

	// When a variable is closer than eps to an inequality bound the bound is
	// treated as an equality constraint.
	const eps = 1e-13

	// Separate movable (active) and immovable (inactive) variables.
	p0 := ctx.p0[:len(x)]
	active := ctx.active[:0]
	inactive := ctx.inactive[:0]
	for i := range x {
		p0[i] = -g[i]
		if (l[i] > x[i]-eps && p0[i] < zero) || (u[i] < x[i]+eps && p0[i] > zero) {
			p0[i] = zero
			inactive = append(inactive, i)
		} else {
			active = append(active, i)
		}
	}

	// Newton trial step with the immovable variables kept fixed.
	// The multiply may reintroduce nonzero components there, so re-zero.
	step := ctx.step[:len(x)]
	copy(step, p0)
	multInvHessian(step, hist, ctx)
	for _, i := range inactive {
		step[i] = zero
	}

	feasible := true
	for _, i := range active {
		if l[i] > x[i]-eps+step[i] || u[i] < x[i]+eps+step[i] {
			feasible = false
			break
		}
	}
	if feasible {
		copy(dir, step)
		return
	}

	if log.enable(LogTrace) {
		log.log("Newton step infeasible with %d movable variables, taking dogleg step\n", len(active))
	}

	// Cauchy direction p₀/(p₀ᵀBp₀).
	bp0 := ctx.bp0[:len(x)]
	copy(bp0, p0)
	multHessian(bp0, hist, ctx)
	scale := one / floats.Dot(p0, bp0)
	cauchy := ctx.cauchy[:len(x)]
	for i, v := range p0 {
		cauchy[i] = scale * v
	}

	// Maximum feasible multiple of the Cauchy direction.
	alpha := one
	for _, i := range active {
		if cauchy[i] == zero {
			continue
		}
		if la := (l[i] - x[i]) / cauchy[i]; la > zero {
			alpha = math.Min(alpha, la)
		}
		if ua := (u[i] - x[i]) / cauchy[i]; ua > zero {
			alpha = math.Min(alpha, ua)
		}
	}

	// The full Cauchy step is infeasible: go as far as the box allows.
	if alpha < one {
		for i := range dir {
			dir[i] = alpha * cauchy[i]
		}
		return
	}

	// The Cauchy point is feasible: walk the dogleg leg from it towards the
	// Newton step, again no further than the box allows.
	alpha = one
	for _, i := range active {
		d := step[i] - cauchy[i]
		if d == zero {
			continue
		}
		pt := x[i] + cauchy[i]
		if la := (l[i] - pt) / d; la > zero {
			alpha = math.Min(alpha, la)
		}
		if ua := (u[i] - pt) / d; ua > zero {
			alpha = math.Min(alpha, ua)
		}
	}
	for i := range dir {
		dir[i] = cauchy[i] + alpha*(step[i]-cauchy[i])
	}
}
