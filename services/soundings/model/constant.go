// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package model

var constantParams = []string{"offset"}

// Constant is the null hypothesis: a flat signal y(t) = offset with a
// single parameter. It exists so the comparison pipeline has a competing
// model whose evidence penalizes the periodic model's extra parameters.
type Constant struct{}

var _ Model = Constant{}

// Name returns "constant".
func (Constant) Name() string { return "constant" }

// Dim returns 1.
func (Constant) Dim() int { return 1 }

// ParamNames returns [offset].
func (Constant) ParamNames() []string { return constantParams }

// Eval returns the offset regardless of t.
func (c Constant) Eval(params []float64, _ float64) float64 {
	checkDim(c, params)
	return params[0]
}

// EvalAll fills the result with the offset, one element per input time.
func (c Constant) EvalAll(params, times, dst []float64) []float64 {
	checkDim(c, params)
	return evalInto(func(float64) float64 { return params[0] }, times, dst)
}
