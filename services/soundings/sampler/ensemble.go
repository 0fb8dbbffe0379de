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
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/samplemv"

	"github.com/AleutianAI/soundings/services/soundings/prob"
	"github.com/AleutianAI/soundings/services/soundings/telemetry"
)

var samplerTracer = otel.Tracer("soundings.sampler")

// walkerStreamBase offsets walker PCG streams away from the streams the
// dataset generator and the seeding routine use. Walker w draws from
// stream (Seed, walkerStreamBase+w).
const walkerStreamBase = uint64(1) << 32

// Ensemble runs a set of independent Metropolis-Hastings walkers over a
// shared target density.
//
// Description:
//
//	Each walker is a separate chain driven by gonum's samplemv machinery
//	with an isotropic-per-dimension Gaussian proposal. Widths set the
//	proposal scale per dimension; parameter names ride along into the
//	resulting Chain for diagnostics.
//
// Thread Safety: an Ensemble is immutable after New and safe for
// concurrent Run calls.
type Ensemble struct {
	cfg     Config
	widths  []float64
	names   []string
	logger  *slog.Logger
	metrics *telemetry.Metrics
}

// New creates an Ensemble.
//
// Inputs:
//
//	cfg - Sampling configuration. Validated here.
//	widths - Proposal width per dimension, typically the prior width.
//	         Must be positive and finite.
//	names - Parameter names carried into the Chain. May be nil; when
//	        present, must match len(widths).
//	logger - Logger for run progress. If nil, uses slog.Default().
//	metrics - Telemetry instruments. May be nil.
//
// Outputs:
//
//	*Ensemble - Ready to Run.
//	error - Non-nil if the configuration or dimensions are unusable.
func New(cfg Config, widths []float64, names []string, logger *slog.Logger, metrics *telemetry.Metrics) (*Ensemble, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(widths) == 0 {
		return nil, fmt.Errorf("%w: no proposal widths", ErrDimensionMismatch)
	}
	for i, wd := range widths {
		if wd <= 0 || math.IsInf(wd, 0) || math.IsNaN(wd) {
			return nil, fmt.Errorf("%w: width[%d] = %g must be positive and finite",
				ErrInvalidConfig, i, wd)
		}
	}
	if names != nil && len(names) != len(widths) {
		return nil, fmt.Errorf("%w: %d names for %d widths",
			ErrDimensionMismatch, len(names), len(widths))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ensemble{
		cfg:     cfg,
		widths:  slices.Clone(widths),
		names:   slices.Clone(names),
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Dim returns the parameter dimensionality the ensemble samples over.
func (e *Ensemble) Dim() int { return len(e.widths) }

// Run samples every walker to completion and returns the collected Chain.
//
// Description:
//
//	Walkers run concurrently, one goroutine each, and draw in blocks so
//	cancellation is honored between blocks rather than per step. The
//	target factory is invoked once per walker before sampling begins;
//	targets holding scratch state therefore never see concurrent calls.
//
//	On cancellation Run returns the partial Chain truncated to the
//	number of steps every walker finished, together with an error
//	wrapping ctx.Err().
//
// Inputs:
//
//	ctx - Context for cancellation. Must not be nil.
//	newTarget - Factory producing one log-density per walker.
//	init - Walkers-by-dim matrix of starting positions, one row per
//	       walker, as produced by SeedWalkers.
//
// Outputs:
//
//	*Chain - Recorded positions. Partial but valid on cancellation.
//	error - Non-nil on bad inputs or interruption.
//
// Example:
//
//	seed, err := sampler.SeedWalkers(ctx, cfg, target, prior)
//	if err != nil { ... }
//	chain, err := ens.Run(ctx, newTarget, seed.Init)
//
// Thread Safety: safe for concurrent use.
func (e *Ensemble) Run(ctx context.Context, newTarget func() prob.LogProber, init *mat.Dense) (*Chain, error) {
	if newTarget == nil {
		return nil, fmt.Errorf("target factory must not be nil")
	}
	if init == nil {
		return nil, fmt.Errorf("%w: nil initial positions", ErrDimensionMismatch)
	}
	dim := e.Dim()
	if r, c := init.Dims(); r != e.cfg.Walkers || c != dim {
		return nil, fmt.Errorf("%w: initial positions are %dx%d, want %dx%d",
			ErrDimensionMismatch, r, c, e.cfg.Walkers, dim)
	}

	ctx, span := samplerTracer.Start(ctx, "Ensemble.Run",
		trace.WithAttributes(
			attribute.Int("sampler.walkers", e.cfg.Walkers),
			attribute.Int("sampler.steps", e.cfg.Steps),
			attribute.Int("sampler.dim", dim),
		),
	)
	defer span.End()

	log := telemetry.LoggerWithTrace(ctx, e.logger)
	log.Debug("sampler: run started",
		slog.Int("walkers", e.cfg.Walkers),
		slog.Int("steps", e.cfg.Steps),
		slog.Int("dim", dim),
	)

	sigma := mat.NewSymDense(dim, nil)
	for i, wd := range e.widths {
		sd := e.cfg.StepScale * wd
		sigma.SetSym(i, i, sd*sd)
	}

	// Targets are constructed sequentially so factories that read shared
	// state during construction need no locking.
	targets := make([]prob.LogProber, e.cfg.Walkers)
	for w := range targets {
		targets[w] = newTarget()
	}

	chain := newChain(e.cfg.Walkers, e.cfg.Steps, dim, e.names)
	completed := make([]int, e.cfg.Walkers)
	began := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < e.cfg.Walkers; w++ {
		g.Go(func() error {
			return e.runWalker(gctx, w, targets[w], sigma, init, chain, completed)
		})
	}

	if err := g.Wait(); err != nil {
		chain.steps = slices.Min(completed)
		telemetry.RecordError(span, err)
		if e.metrics != nil {
			e.metrics.ErrorsTotal.Add(ctx, 1,
				metric.WithAttributes(attribute.String("operation", "sample")))
		}
		log.Warn("sampler: run interrupted",
			slog.Int("completed_steps", chain.steps),
			slog.Int("requested_steps", e.cfg.Steps),
			slog.String("error", err.Error()),
		)
		return chain, fmt.Errorf("sampling interrupted after %d of %d steps: %w",
			chain.steps, e.cfg.Steps, err)
	}

	chain.steps = e.cfg.Steps
	accept := chain.MeanAcceptance()
	span.SetAttributes(attribute.Float64("sampler.mean_acceptance", accept))

	if e.metrics != nil {
		e.metrics.SamplerStepsTotal.Add(ctx, int64(e.cfg.Steps)*int64(e.cfg.Walkers))
		e.metrics.SamplerRunDuration.Record(ctx, time.Since(began).Seconds())
		for w := 0; w < chain.Walkers(); w++ {
			e.metrics.WalkerAcceptance.Record(ctx, chain.AcceptanceRate(w))
		}
	}

	log.Info("sampler: run complete",
		slog.Int("walkers", e.cfg.Walkers),
		slog.Int("steps", e.cfg.Steps),
		slog.Float64("mean_acceptance", accept),
		slog.Duration("elapsed", time.Since(began)),
	)
	return chain, nil
}

// runWalker drives one walker through all its steps in blocks, recording
// directly into the walker's slice of the chain. The same PCG stream
// feeds both the proposal and the accept draws, so a walker's trajectory
// depends only on (Seed, walker index).
func (e *Ensemble) runWalker(ctx context.Context, w int, target prob.LogProber, sigma *mat.SymDense, init *mat.Dense, chain *Chain, completed []int) error {
	dim := e.Dim()
	src := rand.NewPCG(e.cfg.Seed, walkerStreamBase+uint64(w))
	proposal, ok := samplemv.NewProposalNormal(sigma, src)
	if !ok {
		return fmt.Errorf("walker %d: %w", w, ErrBadProposal)
	}

	position := make([]float64, dim)
	mat.Row(position, w, init)

	store := chain.walkers[w]
	for start := 0; start < e.cfg.Steps; start += blockSize {
		if err := ctx.Err(); err != nil {
			completed[w] = start
			return err
		}
		end := min(start+blockSize, e.cfg.Steps)
		block := store.Slice(start, end, 0, dim).(*mat.Dense)

		// MetropolisHastingser restarts from Initial on every Sample
		// call, so each block continues from the previous block's final
		// row with the walker's stream intact.
		mh := samplemv.MetropolisHastingser{
			Initial:  position,
			Target:   target,
			Proposal: proposal,
			Src:      src,
			BurnIn:   0,
			Rate:     1,
		}
		mh.Sample(block)
		mat.Row(position, end-start-1, block)
	}
	completed[w] = e.cfg.Steps
	return nil
}
