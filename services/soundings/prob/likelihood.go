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
	"math"

	"github.com/AleutianAI/soundings/services/soundings/dataset"
	"github.com/AleutianAI/soundings/services/soundings/model"
)

// GaussianLikelihood scores a parameter vector against an observation
// set under iid Gaussian measurement noise:
//
//	log L = -0.5 * sum_i ((y_i - f(params, t_i)) / noise)^2  [+ norm]
//
// The observation set and model are explicit fields rather than captured
// state. The optional normalization term makes log-likelihood values
// meaningful on an absolute scale, which matters when evidence estimates
// are compared outside a single experiment; ratios within one dataset
// are unaffected either way.
//
// Thread Safety: NOT safe for concurrent use (prediction buffer reuse).
// Give each goroutine its own instance via Clone.
type GaussianLikelihood struct {
	// Obs is the fitted observation set. Read-only.
	Obs *dataset.Observations

	// Model maps parameters to predictions.
	Model model.Model

	// Normalized adds the -N/2*log(2*pi*noise^2) constant when set.
	Normalized bool

	// scratch holds the model prediction between calls.
	scratch []float64
}

var _ LogProber = (*GaussianLikelihood)(nil)

// NewGaussianLikelihood builds an un-normalized Gaussian likelihood over
// the observation set.
func NewGaussianLikelihood(obs *dataset.Observations, m model.Model) *GaussianLikelihood {
	return &GaussianLikelihood{Obs: obs, Model: m}
}

// Clone returns an independent likelihood sharing the same read-only
// observation set and model but with its own scratch buffer.
func (l *GaussianLikelihood) Clone() *GaussianLikelihood {
	return &GaussianLikelihood{Obs: l.Obs, Model: l.Model, Normalized: l.Normalized}
}

// Dims returns the model's parameter count.
func (l *GaussianLikelihood) Dims() int { return l.Model.Dim() }

// LogProb returns the Gaussian log-likelihood of params.
func (l *GaussianLikelihood) LogProb(params []float64) float64 {
	checkDims(l.Model.Name()+" likelihood", l.Model.Dim(), len(params))

	l.scratch = l.Model.EvalAll(params, l.Obs.Times, l.scratch)

	var sum float64
	inv := 1.0 / l.Obs.Noise
	for i, want := range l.Obs.Values {
		r := (want - l.scratch[i]) * inv
		sum += r * r
	}

	ll := -0.5 * sum
	if l.Normalized {
		n := float64(l.Obs.Len())
		ll -= 0.5 * n * math.Log(2*math.Pi*l.Obs.Noise*l.Obs.Noise)
	}
	return ll
}
