// Copyright ©2025 the Shark authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lbfgs

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Subroutine multInvHessian (multBInv)
//
// This subroutine applies the implicit inverse Hessian approximation to x
// in place, x ← H⁻¹x, using the two-loop recursion over the k stored pairs:
//
//	ρᵢ = 1/yᵢᵀsᵢ
//	αᵢ = ρᵢ sᵢᵀx ; x ← x - αᵢyᵢ   (i = k,...,1)
//	x ← x/𝚋𝚍𝚒𝚊𝚐
//	β  = ρᵢ yᵢᵀx ; x ← x + (αᵢ-β)sᵢ (i = 1,...,k)
//
// Cost is O(kn) time and O(k) scalars. An empty history reduces to the
// diagonal scaling x/𝚋𝚍𝚒𝚊𝚐, the identity for a fresh model.
func multInvHessian(x []float64, hist *history, ctx *dirCtx) {

	k := len(hist.pairs)
	rho, alpha := ctx.rho[:k], ctx.alpha[:k]

	for i, c := range hist.pairs {
		rho[i] = one / floats.Dot(c.y, c.s)
	}

	for i := k; i > 0; i-- {
		c := &hist.pairs[i-1]
		alpha[i-1] = rho[i-1] * floats.Dot(c.s, x)
		floats.AddScaled(x, -alpha[i-1], c.y)
	}

	floats.Scale(one/hist.bdiag, x)

	for i := 0; i < k; i++ {
		c := &hist.pairs[i]
		beta := rho[i] * floats.Dot(c.y, x)
		floats.AddScaled(x, alpha[i]-beta, c.s)
	}
}

// Subroutine multHessian (multB)
//
// This subroutine applies the forward Hessian approximation to x in place,
// x ← Bx, using the compact representation
//
//	B = 𝚋𝚍𝚒𝚊𝚐·I + Σᵢ yᵢyᵢᵀ/βᵢ - AᵀA     where βᵢ = yᵢᵀsᵢ
//
// with the k × n matrix A built one row at a time:
//
//	Aᵢ = 𝚋𝚍𝚒𝚊𝚐·sᵢ + Σⱼ₍ⱼ₎ (yⱼᵀsᵢ/βⱼ)yⱼ - Σⱼ₍ⱼ₎ (Aⱼᵀsᵢ)Aⱼ   (j < i)
//	Aᵢ ← Aᵢ/√(sᵢᵀAᵢ)
//
// which never materializes B and costs O(k²n) time and O(kn) scratch.
//
// The normalizer sᵢᵀAᵢ is positive whenever the curvature condition held for
// every stored pair, but roundoff can break this for near-degenerate
// histories. When that happens the low-rank correction is truncated at the
// offending row, degrading B towards the diagonal model for the remaining
// pairs instead of taking the square root of a non-positive number.
func multHessian(x []float64, hist *history, ctx *dirCtx) {

	k := len(hist.pairs)
	n := len(x)

	result := ctx.result[:n]
	for i, v := range x {
		result[i] = hist.bdiag * v
	}

	a := ctx.a
	beta := ctx.rho[:k] // scratch shared with multInvHessian, never live at once

	rows := 0
	for i := 0; i < k; i++ {
		c := &hist.pairs[i]
		beta[i] = floats.Dot(c.y, c.s)

		ai := a.RawRowView(i)[:n]
		for j, v := range c.s {
			ai[j] = hist.bdiag * v
		}
		for j := 0; j < rows; j++ {
			cj := &hist.pairs[j]
			floats.AddScaled(ai, floats.Dot(cj.y, c.s)/beta[j], cj.y)
		}
		for j := 0; j < rows; j++ {
			aj := a.RawRowView(j)[:n]
			floats.AddScaled(ai, -floats.Dot(aj, c.s), aj)
		}

		norm := floats.Dot(c.s, ai)
		if norm <= zero {
			break
		}
		floats.Scale(one/math.Sqrt(norm), ai)
		floats.AddScaled(result, floats.Dot(c.y, x)/beta[i], c.y)
		rows++
	}

	for i := 0; i < rows; i++ {
		ai := a.RawRowView(i)[:n]
		floats.AddScaled(result, -floats.Dot(ai, x), ai)
	}
	copy(x, result)
}
