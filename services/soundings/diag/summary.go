// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package diag

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/AleutianAI/soundings/services/soundings/sampler"
)

// ParamSummary holds the marginal posterior statistics of one parameter.
type ParamSummary struct {
	// Name is the parameter name, or a positional fallback when the
	// chain carries none.
	Name string `json:"name"`

	// Mean and Std are the first two moments of the pooled post-burn-in
	// samples.
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`

	// Median, Q16 and Q84 are empirical quantiles; [Q16, Q84] is the
	// central 68% credible interval.
	Median float64 `json:"median"`
	Q16    float64 `json:"q16"`
	Q84    float64 `json:"q84"`
}

// Summarize computes marginal statistics for every parameter, pooling
// walkers and discarding the first burnIn steps of each.
func Summarize(chain *sampler.Chain, burnIn int) []ParamSummary {
	names := chain.ParamNames()
	out := make([]ParamSummary, chain.Dim())
	for d := range out {
		xs := chain.Flat(d, burnIn)
		slices.Sort(xs)

		name := fmt.Sprintf("p%d", d)
		if names != nil {
			name = names[d]
		}
		if len(xs) == 0 {
			nan := math.NaN()
			out[d] = ParamSummary{Name: name, Mean: nan, Std: nan, Median: nan, Q16: nan, Q84: nan}
			continue
		}
		out[d] = ParamSummary{
			Name:   name,
			Mean:   stat.Mean(xs, nil),
			Std:    stat.StdDev(xs, nil),
			Median: stat.Quantile(0.5, stat.Empirical, xs, nil),
			Q16:    stat.Quantile(0.16, stat.Empirical, xs, nil),
			Q84:    stat.Quantile(0.84, stat.Empirical, xs, nil),
		}
	}
	return out
}
