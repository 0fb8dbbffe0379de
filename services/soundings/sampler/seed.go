// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sampler

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/AleutianAI/soundings/services/soundings/prob"
	"github.com/AleutianAI/soundings/services/soundings/telemetry"
)

const (
	// seedStream is the PCG stream used for walker seeding, distinct
	// from the walker sampling streams.
	seedStream = uint64(1) << 16

	// seedSpread is the starting-ball standard deviation as a fraction
	// of the prior width in each dimension.
	seedSpread = 1e-3

	// seedMaxTries bounds the rejection loop that keeps starting
	// positions inside the prior box.
	seedMaxTries = 100

	// seedPenalty replaces non-finite objective values so the
	// derivative-free optimizer never sees an infinity.
	seedPenalty = 1e300

	// seedMaxIterations caps the optimizer.
	seedMaxIterations = 1000
)

// SeedResult holds walker starting positions and the optimum they
// cluster around.
type SeedResult struct {
	// Init is the Walkers-by-dim matrix of starting positions.
	Init *mat.Dense

	// MAP is the point the positions cluster around: the optimizer's
	// best in-bounds point, or the prior midpoint on fallback.
	MAP []float64

	// LogProb is the target log-density at MAP.
	LogProb float64

	// Converged reports whether the optimizer produced a usable
	// in-bounds optimum. When false, MAP is the prior midpoint.
	Converged bool
}

// SeedWalkers picks walker starting positions by locating the maximum a
// posteriori point and scattering a tight Gaussian ball around it.
//
// Description:
//
//	The target is maximized with Nelder-Mead, a derivative-free method,
//	since the posterior is not differentiable across the prior boundary.
//	Out-of-bounds and otherwise non-finite evaluations are mapped to a
//	large finite penalty so the simplex can recover from them. If the
//	optimizer fails or wanders out of bounds, the prior midpoint serves
//	as the cluster center instead and Converged is false.
//
//	Each position is redrawn until it falls inside the prior box; after
//	seedMaxTries rejections it is clamped to the box instead. Positions
//	depend only on cfg.Seed.
//
// Inputs:
//
//	ctx - Context for tracing. Must not be nil.
//	cfg - Sampling configuration; Walkers and Seed are used.
//	target - Log-density to maximize, typically the posterior.
//	prior - Bounds defining the feasible box.
//
// Outputs:
//
//	*SeedResult - Starting positions and the optimum found.
//	error - Non-nil on invalid inputs.
func SeedWalkers(ctx context.Context, cfg Config, target prob.LogProber, prior *prob.UniformPrior) (*SeedResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if target == nil {
		return nil, fmt.Errorf("target must not be nil")
	}
	if prior == nil {
		return nil, fmt.Errorf("prior must not be nil")
	}
	dim := prior.Dims()

	ctx, span := samplerTracer.Start(ctx, "SeedWalkers",
		trace.WithAttributes(
			attribute.Int("sampler.walkers", cfg.Walkers),
			attribute.Int("sampler.dim", dim),
		),
	)
	defer span.End()
	log := telemetry.LoggerWithTrace(ctx, slog.Default())

	objective := func(x []float64) float64 {
		lp := target.LogProb(x)
		if math.IsInf(lp, 0) || math.IsNaN(lp) {
			return seedPenalty
		}
		return -lp
	}

	center := prior.Mid()
	converged := false

	res, err := optimize.Minimize(
		optimize.Problem{Func: objective},
		slices.Clone(center),
		&optimize.Settings{MajorIterations: seedMaxIterations},
		&optimize.NelderMead{},
	)
	switch {
	case err != nil:
		log.Debug("sampler: seed optimizer failed, using prior midpoint",
			slog.String("error", err.Error()))
	case !prior.Contains(res.X):
		log.Debug("sampler: seed optimum out of bounds, using prior midpoint")
	case res.F >= seedPenalty:
		log.Debug("sampler: seed optimizer stuck on penalty plateau, using prior midpoint")
	default:
		center = slices.Clone(res.X)
		converged = true
	}
	span.SetAttributes(attribute.Bool("sampler.seed_converged", converged))

	widths := prior.Widths()
	src := rand.NewPCG(cfg.Seed, seedStream)
	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: src}

	init := mat.NewDense(cfg.Walkers, dim, nil)
	row := make([]float64, dim)
	for w := 0; w < cfg.Walkers; w++ {
		placed := false
		for try := 0; try < seedMaxTries; try++ {
			for d := 0; d < dim; d++ {
				row[d] = center[d] + seedSpread*widths[d]*norm.Rand()
			}
			if prior.Contains(row) {
				placed = true
				break
			}
		}
		if !placed {
			for d := 0; d < dim; d++ {
				row[d] = clampToBox(row[d], prior.Lower[d], prior.Upper[d], widths[d])
			}
		}
		init.SetRow(w, row)
	}

	result := &SeedResult{
		Init:      init,
		MAP:       slices.Clone(center),
		LogProb:   target.LogProb(center),
		Converged: converged,
	}
	log.Debug("sampler: walkers seeded",
		slog.Int("walkers", cfg.Walkers),
		slog.Bool("converged", converged),
		slog.Float64("log_prob", result.LogProb),
	)
	return result, nil
}

// clampToBox pulls v just inside [lower, upper], staying a hair off the
// boundary so proposal moves in both directions remain possible.
func clampToBox(v, lower, upper, width float64) float64 {
	margin := 1e-9 * width
	if v < lower+margin {
		return lower + margin
	}
	if v > upper-margin {
		return upper - margin
	}
	return v
}
