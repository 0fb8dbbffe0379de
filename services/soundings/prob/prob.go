// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package prob implements the log-densities driving posterior sampling:
// bounded-uniform priors, Gaussian likelihoods over an observation set,
// and the posteriors composed from them.
//
// # Conventions
//
// All densities work in log space. Zero probability is encoded as
// negative infinity, never as a Go error; a sampler probing outside the
// prior support simply sees an impossible state and rejects the move.
// Densities are pure functions of the parameter vector: the observation
// set and noise scale enter as explicit struct fields, not captured
// state, so every density can be constructed and tested in isolation.
//
// The LogProber interface matches gonum's distmv.LogProber, so every
// density in this package plugs directly into gonum's samplers.
package prob

import (
	"fmt"
	"math"
)

// LogProber is a log-density over a fixed-dimension parameter space.
//
// Implementations return negative infinity for zero-probability regions
// and must never return an error: impossibility is a value, not a fault.
type LogProber interface {
	// LogProb returns the log-density at x. Panics if len(x) does not
	// match the density's dimensionality.
	LogProb(x []float64) float64
}

// negInf is the log-density of an impossible state.
var negInf = math.Inf(-1)

// checkDims panics when a parameter vector does not match the expected
// dimensionality. Shape mismatches are programming errors.
func checkDims(what string, want, got int) {
	if want != got {
		panic(fmt.Sprintf("prob: %s expects %d parameters, got %d", what, want, got))
	}
}

// nonFinite reports whether v is NaN or an infinity.
func nonFinite(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
