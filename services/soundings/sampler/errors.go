// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package sampler drives an external MCMC library over the soundings
// log-densities and collects the resulting chains.
//
// No sampling algorithm lives here. Proposal generation, acceptance,
// and chain iteration belong to gonum's stat/samplemv Metropolis-Hastings
// implementation; this package fans a set of independent walkers out over
// it, seeds their starting positions near the maximum a posteriori point,
// and packages the library's output into a Chain.
//
// # Ownership Model
//
// A Chain is written exclusively by Ensemble.Run while sampling and is
// read-only afterward:
//   - Run is the only writer; no method mutates a returned Chain
//   - Accessors returning slices always copy
//
// # Determinism
//
// All randomness derives from Config.Seed. Each walker owns a PCG stream
// keyed by (Seed, stream offset + walker index), so runs with equal
// configuration reproduce chains exactly, regardless of goroutine
// scheduling.
//
// # Lifecycle
//
// A typical sampling run:
//  1. Build a Config (DefaultConfig + overrides) and Validate it
//  2. SeedWalkers() to get starting positions near the MAP point
//  3. New() an Ensemble and Run() it against a target density
//  4. Analyze the Chain (Flat, Series, AcceptanceRate) or persist it
package sampler

import "errors"

// Sentinel errors for sampling operations.
var (
	// ErrInvalidConfig is returned when a Config fails validation.
	ErrInvalidConfig = errors.New("invalid sampler config")

	// ErrDimensionMismatch is returned when walker positions, proposal
	// widths, and parameter names disagree about the dimensionality.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrBadProposal is returned when the proposal covariance cannot be
	// used by the sampling library.
	ErrBadProposal = errors.New("proposal covariance is not positive definite")
)
