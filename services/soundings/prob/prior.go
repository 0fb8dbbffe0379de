// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package prob

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// UniformPrior is an independent bounded-uniform prior: parameter i must
// lie in [Lower[i], Upper[i]].
//
// Description:
//
//	LogProb returns negative infinity when any component is out of
//	bounds, and the constant 0.0 otherwise. The in-bounds constant
//	deliberately omits the -log(volume) normalization: within one model
//	only density ratios matter, so the constant cancels everywhere.
//	Evidence values computed under this convention carry an extra
//	log-prior-volume term per model; log Bayes factors between models
//	are shifted by the difference of those volumes unless bounds are
//	chosen consistently. Callers who need absolute evidence scales
//	should pair this prior with a normalized likelihood and account for
//	the volumes themselves.
//
// Thread Safety: read-only after construction; safe for concurrent use.
type UniformPrior struct {
	// Lower and Upper hold the per-parameter bounds, index-aligned with
	// the model's parameter ordering.
	Lower []float64
	Upper []float64
}

var _ LogProber = (*UniformPrior)(nil)

// NewUniformPrior builds a bounded-uniform prior.
//
// Inputs:
//
//	lower, upper - Per-parameter bounds. Must have equal length and
//	               lower[i] < upper[i] for every i.
//
// Outputs:
//
//	*UniformPrior - The prior.
//	error         - Non-nil on empty or inconsistent bounds.
func NewUniformPrior(lower, upper []float64) (*UniformPrior, error) {
	if len(lower) == 0 {
		return nil, fmt.Errorf("prior: no bounds given")
	}
	if len(lower) != len(upper) {
		return nil, fmt.Errorf("prior: %d lower bounds but %d upper bounds", len(lower), len(upper))
	}
	for i := range lower {
		if !(lower[i] < upper[i]) {
			return nil, fmt.Errorf("prior: bound %d is empty: [%g, %g]", i, lower[i], upper[i])
		}
	}
	p := &UniformPrior{
		Lower: make([]float64, len(lower)),
		Upper: make([]float64, len(upper)),
	}
	copy(p.Lower, lower)
	copy(p.Upper, upper)
	return p, nil
}

// Dims returns the parameter count.
func (p *UniformPrior) Dims() int { return len(p.Lower) }

// Contains reports whether x lies inside every bound.
func (p *UniformPrior) Contains(x []float64) bool {
	checkDims("uniform prior", len(p.Lower), len(x))
	for i, v := range x {
		if v < p.Lower[i] || v > p.Upper[i] {
			return false
		}
	}
	return true
}

// LogProb returns 0.0 inside the bounds and negative infinity outside.
func (p *UniformPrior) LogProb(x []float64) float64 {
	if !p.Contains(x) {
		return negInf
	}
	return 0.0
}

// Mid returns the center of the prior box, a safe starting point for
// optimizers.
func (p *UniformPrior) Mid() []float64 {
	mid := make([]float64, len(p.Lower))
	for i := range mid {
		mid[i] = 0.5 * (p.Lower[i] + p.Upper[i])
	}
	return mid
}

// Widths returns the per-parameter bound widths.
func (p *UniformPrior) Widths() []float64 {
	w := make([]float64, len(p.Lower))
	for i := range w {
		w[i] = p.Upper[i] - p.Lower[i]
	}
	return w
}

// Sample draws one point uniformly from the prior box.
func (p *UniformPrior) Sample(src rand.Source) []float64 {
	x := make([]float64, len(p.Lower))
	for i := range x {
		x[i] = distuv.Uniform{Min: p.Lower[i], Max: p.Upper[i], Src: src}.Rand()
	}
	return x
}
