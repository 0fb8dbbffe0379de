// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics contains pre-defined metrics for the soundings pipelines.
//
// Description:
//
//	Provides standard counters and histograms for dataset generation,
//	sampling, evidence estimation, plotting, and the run store. All
//	metrics use the "soundings_" prefix for consistent naming.
//
// Thread Safety: Safe for concurrent use after creation.
type Metrics struct {
	// --- Sampler Metrics ---

	// SamplerStepsTotal counts recorded sampler steps across all walkers.
	SamplerStepsTotal metric.Int64Counter

	// SamplerRunDuration records wall time of whole sampling runs in seconds.
	SamplerRunDuration metric.Float64Histogram

	// WalkerAcceptance records per-walker acceptance ratios.
	WalkerAcceptance metric.Float64Histogram

	// --- Probability Metrics ---

	// TargetEvalsTotal counts log-density evaluations by kind
	// (prior, likelihood, posterior).
	TargetEvalsTotal metric.Int64Counter

	// --- Evidence Metrics ---

	// EvidenceRungsTotal counts sampled temperature-ladder rungs.
	EvidenceRungsTotal metric.Int64Counter

	// EvidenceRungDuration records per-rung sampling duration in seconds.
	EvidenceRungDuration metric.Float64Histogram

	// --- Pipeline Metrics ---

	// StageDuration records pipeline stage duration in seconds by stage name.
	StageDuration metric.Float64Histogram

	// RunsTotal counts pipeline executions by kind and status.
	RunsTotal metric.Int64Counter

	// --- Diagnostics Metrics ---

	// PlotRendersTotal counts rendered diagnostic artifacts by kind.
	PlotRendersTotal metric.Int64Counter

	// --- Store Metrics ---

	// StoreOpsTotal counts run-store operations by op and status.
	StoreOpsTotal metric.Int64Counter

	// --- Error Metrics ---

	// ErrorsTotal counts total errors by component.
	ErrorsTotal metric.Int64Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
//
// Description:
//
//	Registers all pre-defined metrics with the provided meter.
//	Returns an error if any metric registration fails.
//
// Inputs:
//
//	meter - The OTel meter to use for metric registration.
//
// Outputs:
//
//	*Metrics - The metrics instance with all counters and histograms initialized.
//	error - Non-nil if metric registration fails.
//
// Example:
//
//	meter := otel.Meter("soundings")
//	metrics, err := telemetry.NewMetrics(meter)
//	if err != nil {
//	    return fmt.Errorf("create metrics: %w", err)
//	}
//	metrics.SamplerStepsTotal.Add(ctx, int64(steps), ...)
//
// Thread Safety: Safe for concurrent use after creation.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	// --- Sampler Metrics ---
	m.SamplerStepsTotal, err = meter.Int64Counter(
		"soundings_sampler_steps_total",
		metric.WithDescription("Total recorded sampler steps across walkers"),
		metric.WithUnit("{step}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create sampler_steps_total: %w", err)
	}

	m.SamplerRunDuration, err = meter.Float64Histogram(
		"soundings_sampler_run_duration_seconds",
		metric.WithDescription("Sampling run duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, fmt.Errorf("create sampler_run_duration: %w", err)
	}

	m.WalkerAcceptance, err = meter.Float64Histogram(
		"soundings_walker_acceptance_ratio",
		metric.WithDescription("Per-walker move acceptance ratio"),
		metric.WithUnit("1"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9),
	)
	if err != nil {
		return nil, fmt.Errorf("create walker_acceptance: %w", err)
	}

	// --- Probability Metrics ---
	m.TargetEvalsTotal, err = meter.Int64Counter(
		"soundings_target_evals_total",
		metric.WithDescription("Total log-density evaluations"),
		metric.WithUnit("{evaluation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create target_evals_total: %w", err)
	}

	// --- Evidence Metrics ---
	m.EvidenceRungsTotal, err = meter.Int64Counter(
		"soundings_evidence_rungs_total",
		metric.WithDescription("Total sampled temperature-ladder rungs"),
		metric.WithUnit("{rung}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create evidence_rungs_total: %w", err)
	}

	m.EvidenceRungDuration, err = meter.Float64Histogram(
		"soundings_evidence_rung_duration_seconds",
		metric.WithDescription("Per-rung sampling duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30),
	)
	if err != nil {
		return nil, fmt.Errorf("create evidence_rung_duration: %w", err)
	}

	// --- Pipeline Metrics ---
	m.StageDuration, err = meter.Float64Histogram(
		"soundings_stage_duration_seconds",
		metric.WithDescription("Pipeline stage duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120),
	)
	if err != nil {
		return nil, fmt.Errorf("create stage_duration: %w", err)
	}

	m.RunsTotal, err = meter.Int64Counter(
		"soundings_runs_total",
		metric.WithDescription("Total pipeline executions by kind and status"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create runs_total: %w", err)
	}

	// --- Diagnostics Metrics ---
	m.PlotRendersTotal, err = meter.Int64Counter(
		"soundings_plot_renders_total",
		metric.WithDescription("Total rendered diagnostic artifacts"),
		metric.WithUnit("{plot}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create plot_renders_total: %w", err)
	}

	// --- Store Metrics ---
	m.StoreOpsTotal, err = meter.Int64Counter(
		"soundings_store_ops_total",
		metric.WithDescription("Total run-store operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create store_ops_total: %w", err)
	}

	// --- Error Metrics ---
	m.ErrorsTotal, err = meter.Int64Counter(
		"soundings_errors_total",
		metric.WithDescription("Total errors by component"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create errors_total: %w", err)
	}

	return m, nil
}
