// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package evidence estimates log model evidence by thermodynamic
// integration over a temperature ladder.
//
// The evidence Z = integral of prior * likelihood is recovered from the
// identity log Z = integral over beta in [0,1] of E_beta[log L], where
// E_beta is the expectation under the power posterior at inverse
// temperature beta. Each rung of the ladder is sampled with the same
// ensemble machinery used for posterior fits; the per-rung means are
// then combined with the trapezoid rule.
//
// Evidence values inherit the un-normalized prior convention from the
// prob package: log Z carries an implicit -log(prior volume) offset per
// model, so Bayes factors computed here are comparable only when the
// priors of both models are set up consistently. See prob.UniformPrior.
package evidence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/AleutianAI/soundings/services/soundings/prob"
	"github.com/AleutianAI/soundings/services/soundings/sampler"
	"github.com/AleutianAI/soundings/services/soundings/telemetry"
)

var evidenceTracer = otel.Tracer("soundings.evidence")

// RungStat summarizes one temperature of the ladder.
type RungStat struct {
	// Beta is the rung's inverse temperature.
	Beta float64 `json:"beta"`

	// MeanLogLike is the post-burn-in mean of the log-likelihood under
	// the power posterior at Beta, the integrand of the evidence.
	MeanLogLike float64 `json:"mean_log_like"`

	// StdLogLike is the spread of the log-likelihood at this rung.
	StdLogLike float64 `json:"std_log_like"`

	// Acceptance is the rung's mean walker acceptance rate.
	Acceptance float64 `json:"acceptance"`

	// Steps is the number of recorded steps per walker at this rung.
	Steps int `json:"steps"`
}

// Estimate is the result of a thermodynamic integration run.
type Estimate struct {
	// LogZ is the estimated log evidence, up to the prior volume
	// convention described in the package comment.
	LogZ float64 `json:"log_z"`

	// Rungs holds one entry per ladder temperature in ascending order.
	Rungs []RungStat `json:"rungs"`
}

// Config controls a thermodynamic integration run.
type Config struct {
	// Sampler configures each rung's chain.
	Sampler sampler.Config

	// Ladder holds the inverse temperatures, ascending from 0 to 1.
	// NewEstimator fills in Geometric(DefaultRungs, DefaultGamma) when
	// nil.
	Ladder Ladder

	// Thin keeps every Thin-th post-burn-in step when evaluating the
	// integrand. Zero or one keeps every step.
	Thin int
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := c.Sampler.Validate(); err != nil {
		return err
	}
	if err := c.Ladder.Validate(); err != nil {
		return err
	}
	if c.Thin < 0 {
		return fmt.Errorf("thin must be non-negative, got %d", c.Thin)
	}
	return nil
}

// Estimator runs the ladder for one model.
//
// Thread Safety: immutable after NewEstimator; safe for concurrent
// Estimate calls.
type Estimator struct {
	cfg     Config
	logger  *slog.Logger
	metrics *telemetry.Metrics
}

// NewEstimator creates an Estimator.
//
// Inputs:
//
//	cfg - Run configuration. A nil Ladder gets the geometric default;
//	      everything is validated here.
//	logger - Logger for rung progress. If nil, uses slog.Default().
//	metrics - Telemetry instruments. May be nil.
func NewEstimator(cfg Config, logger *slog.Logger, metrics *telemetry.Metrics) (*Estimator, error) {
	if cfg.Ladder == nil {
		lad, err := Geometric(DefaultRungs, DefaultGamma)
		if err != nil {
			return nil, err
		}
		cfg.Ladder = lad
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	cfg.Ladder = append(Ladder(nil), cfg.Ladder...)
	return &Estimator{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Estimate samples every rung and integrates the mean log-likelihood
// over the ladder.
//
// Description:
//
//	Rung k samples the power posterior at beta_k, warm-starting each
//	walker from its final position on the previous rung. The first rung
//	starts from init, typically the positions produced by
//	sampler.SeedWalkers for the full posterior. Each rung draws from its
//	own seed stream, so estimates are reproducible for a fixed
//	configuration.
//
//	The likelihood factory must produce independent instances; one is
//	created per walker per rung, plus one for the integrand evaluation.
//
// Inputs:
//
//	ctx - Context for cancellation. Must not be nil.
//	prior - Bounds and base measure shared by every rung.
//	newLikelihood - Factory for the model's log-likelihood.
//	init - Walker starting positions for the first rung.
//
// Outputs:
//
//	*Estimate - Log evidence and per-rung statistics.
//	error - Non-nil on invalid inputs or interruption. No partial
//	        estimate is returned; a truncated ladder cannot be
//	        integrated.
func (e *Estimator) Estimate(ctx context.Context, prior *prob.UniformPrior, newLikelihood func() prob.LogProber, init *mat.Dense) (*Estimate, error) {
	if prior == nil {
		return nil, fmt.Errorf("prior must not be nil")
	}
	if newLikelihood == nil {
		return nil, fmt.Errorf("likelihood factory must not be nil")
	}

	ctx, span := evidenceTracer.Start(ctx, "Estimator.Estimate",
		trace.WithAttributes(
			attribute.Int("evidence.rungs", len(e.cfg.Ladder)),
			attribute.Int("evidence.walkers", e.cfg.Sampler.Walkers),
			attribute.Int("evidence.steps", e.cfg.Sampler.Steps),
		),
	)
	defer span.End()
	log := telemetry.LoggerWithTrace(ctx, e.logger)

	widths := prior.Widths()
	integrand := newLikelihood()

	betas := make([]float64, len(e.cfg.Ladder))
	means := make([]float64, len(e.cfg.Ladder))
	rungs := make([]RungStat, 0, len(e.cfg.Ladder))

	current := init
	for k, beta := range e.cfg.Ladder {
		rungStart := time.Now()

		// Each rung draws from its own seed so rung chains are
		// independent streams rather than replays of one another.
		rungCfg := e.cfg.Sampler
		rungCfg.Seed = e.cfg.Sampler.Seed + uint64(k)

		ens, err := sampler.New(rungCfg, widths, nil, e.logger, e.metrics)
		if err != nil {
			return nil, fmt.Errorf("rung %d: %w", k, err)
		}

		chain, err := ens.Run(ctx, func() prob.LogProber {
			return prob.NewTempered(prior, newLikelihood(), beta)
		}, current)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("rung %d (beta=%.4g): %w", k, beta, err)
		}

		// FlatRows is step-major, so striding by thin*walkers keeps every
		// walker at every thin-th step.
		rows := chain.FlatRows(e.cfg.Sampler.BurnIn)
		thin := max(1, e.cfg.Thin)
		walkers := chain.Walkers()
		vals := make([]float64, 0, len(rows)/thin+walkers)
		for base := 0; base < len(rows); base += thin * walkers {
			for w := 0; w < walkers && base+w < len(rows); w++ {
				vals = append(vals, integrand.LogProb(rows[base+w]))
			}
		}

		rs := RungStat{
			Beta:        beta,
			MeanLogLike: stat.Mean(vals, nil),
			StdLogLike:  stat.StdDev(vals, nil),
			Acceptance:  chain.MeanAcceptance(),
			Steps:       chain.Steps(),
		}
		rungs = append(rungs, rs)
		betas[k] = beta
		means[k] = rs.MeanLogLike

		if e.metrics != nil {
			e.metrics.EvidenceRungsTotal.Add(ctx, 1)
			e.metrics.EvidenceRungDuration.Record(ctx, time.Since(rungStart).Seconds())
		}
		log.Debug("evidence: rung sampled",
			slog.Int("rung", k),
			slog.Float64("beta", beta),
			slog.Float64("mean_log_like", rs.MeanLogLike),
			slog.Float64("acceptance", rs.Acceptance),
		)

		// Warm-start the next rung from this rung's final positions.
		if k < len(e.cfg.Ladder)-1 {
			next := mat.NewDense(e.cfg.Sampler.Walkers, prior.Dims(), nil)
			for w := 0; w < e.cfg.Sampler.Walkers; w++ {
				next.SetRow(w, chain.Last(w))
			}
			current = next
		}
	}

	logZ := integrate.Trapezoidal(betas, means)
	span.SetAttributes(attribute.Float64("evidence.log_z", logZ))
	log.Info("evidence: ladder complete",
		slog.Int("rungs", len(e.cfg.Ladder)),
		slog.Float64("log_z", logZ),
	)
	return &Estimate{LogZ: logZ, Rungs: rungs}, nil
}
