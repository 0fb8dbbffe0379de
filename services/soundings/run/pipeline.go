// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package run strings the domain packages into the two end-to-end
// workflows: Fit samples each model's posterior and renders its
// diagnostics; Compare estimates both models' evidence and grades the
// Bayes factor. Every execution is persisted as a store record so its
// artifacts can be re-rendered later without re-sampling.
//
// The flow is strictly forward: dataset, then per model prior and
// likelihood, then sampling, then diagnostics. Nothing feeds back; a
// failed stage fails the run and the record says so.
package run

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/soundings/services/soundings/config"
	"github.com/AleutianAI/soundings/services/soundings/dataset"
	"github.com/AleutianAI/soundings/services/soundings/diag"
	"github.com/AleutianAI/soundings/services/soundings/evidence"
	"github.com/AleutianAI/soundings/services/soundings/model"
	"github.com/AleutianAI/soundings/services/soundings/prob"
	"github.com/AleutianAI/soundings/services/soundings/sampler"
	"github.com/AleutianAI/soundings/services/soundings/store"
	"github.com/AleutianAI/soundings/services/soundings/telemetry"
)

var runTracer = otel.Tracer("soundings.run")

// FitResult summarizes a fit pipeline execution.
type FitResult struct {
	// RunID keys the persisted record and its chains.
	RunID string

	// DataDigest fingerprints the observation set.
	DataDigest string

	// Results holds per-model MAP, acceptance and marginal summaries.
	Results map[string]store.ModelResult

	// Artifacts lists every file the run wrote.
	Artifacts []string
}

// CompareResult summarizes an evidence comparison.
type CompareResult struct {
	RunID      string
	DataDigest string

	// Results holds per-model evidence estimates.
	Results map[string]store.ModelResult

	// Comparison grades the two models against each other.
	Comparison store.Comparison

	Artifacts []string
}

// Pipeline executes experiments against a store.
//
// Thread Safety: immutable after NewPipeline; safe for concurrent runs,
// though concurrent runs of the same experiment write to the same
// output directory.
type Pipeline struct {
	exp     config.Experiment
	store   *store.RunStore
	logger  *slog.Logger
	metrics *telemetry.Metrics
}

// NewPipeline creates a Pipeline.
//
// Inputs:
//
//	exp - The experiment. Validated here.
//	st - Run persistence. Must not be nil.
//	logger - Progress logging. If nil, uses slog.Default().
//	metrics - Telemetry instruments. May be nil.
func NewPipeline(exp config.Experiment, st *store.RunStore, logger *slog.Logger, metrics *telemetry.Metrics) (*Pipeline, error) {
	if err := exp.Validate(); err != nil {
		return nil, err
	}
	if st == nil {
		return nil, errors.New("run: store must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{exp: exp, store: st, logger: logger, metrics: metrics}, nil
}

// Fit generates the dataset, then for every configured model seeds the
// walkers at the MAP estimate, samples the posterior, summarizes the
// marginals and renders diagnostics. The chain of each model is
// persisted with the record.
func (p *Pipeline) Fit(ctx context.Context) (*FitResult, error) {
	rec, err := p.execute(ctx, store.KindFit, "Pipeline.Fit", p.fit)
	if err != nil {
		return nil, err
	}
	return &FitResult{
		RunID:      rec.ID,
		DataDigest: rec.DataDigest,
		Results:    rec.Results,
		Artifacts:  rec.Artifacts,
	}, nil
}

// Compare estimates the evidence of both configured models by
// thermodynamic integration and grades the resulting Bayes factor.
func (p *Pipeline) Compare(ctx context.Context) (*CompareResult, error) {
	if len(p.exp.Models) != 2 {
		return nil, fmt.Errorf("run: compare needs exactly two models, experiment has %d", len(p.exp.Models))
	}

	rec, err := p.execute(ctx, store.KindCompare, "Pipeline.Compare", p.compare)
	if err != nil {
		return nil, err
	}
	return &CompareResult{
		RunID:      rec.ID,
		DataDigest: rec.DataDigest,
		Results:    rec.Results,
		Comparison: *rec.Comparison,
		Artifacts:  rec.Artifacts,
	}, nil
}

// execute wraps a pipeline body with the record lifecycle: mint and
// persist a running record, run the body, then persist the terminal
// status. Failures are recorded even when the context is already
// cancelled, so an interrupted run shows up as failed rather than stuck
// in running.
func (p *Pipeline) execute(ctx context.Context, kind store.Kind, spanName string, body func(context.Context, *slog.Logger, *store.Run) error) (*store.Run, error) {
	ctx, span := runTracer.Start(ctx, spanName,
		trace.WithAttributes(
			attribute.String("run.experiment", p.exp.Name),
			attribute.Int("run.models", len(p.exp.Models)),
		),
	)
	defer span.End()
	log := telemetry.LoggerWithTrace(ctx, p.logger)

	if err := os.MkdirAll(p.exp.Output.Dir, 0755); err != nil {
		p.countRun(ctx, kind, store.StatusFailed)
		return nil, fmt.Errorf("run: create output dir %s: %w", p.exp.Output.Dir, err)
	}

	rec := store.NewRun(kind, p.exp)
	span.SetAttributes(attribute.String("run.id", rec.ID))
	if err := p.store.SaveRun(ctx, rec); err != nil {
		p.countRun(ctx, kind, store.StatusFailed)
		return nil, err
	}
	log.Info("run: started",
		slog.String("run_id", rec.ID),
		slog.String("kind", string(kind)),
		slog.String("experiment", p.exp.Name),
	)

	if err := body(ctx, log, rec); err != nil {
		telemetry.RecordError(span, err)
		rec.Fail(err)
		if saveErr := p.store.SaveRun(context.WithoutCancel(ctx), rec); saveErr != nil {
			log.Warn("run: could not record failure", slog.String("error", saveErr.Error()))
		}
		p.countRun(ctx, kind, store.StatusFailed)
		return nil, err
	}

	rec.Complete()
	if path, err := p.exportRecord(rec); err != nil {
		// The run itself succeeded; a failed export only loses the
		// convenience copy.
		log.Warn("run: record export failed", slog.String("error", err.Error()))
	} else if path != "" {
		rec.Artifacts = append(rec.Artifacts, path)
	}
	if err := p.store.SaveRun(ctx, rec); err != nil {
		p.countRun(ctx, kind, store.StatusFailed)
		return nil, err
	}
	p.countRun(ctx, kind, store.StatusComplete)
	log.Info("run: complete",
		slog.String("run_id", rec.ID),
		slog.Int("artifacts", len(rec.Artifacts)),
	)
	return rec, nil
}

func (p *Pipeline) fit(ctx context.Context, log *slog.Logger, rec *store.Run) error {
	obs, err := p.generate(ctx, log, rec)
	if err != nil {
		return err
	}

	for _, mc := range p.exp.Models {
		if err := p.fitModel(ctx, log, rec, mc, obs); err != nil {
			return fmt.Errorf("fit %s: %w", mc.Name, err)
		}
	}
	return nil
}

func (p *Pipeline) fitModel(ctx context.Context, log *slog.Logger, rec *store.Run, mc config.ModelConfig, obs *dataset.Observations) error {
	m, err := mc.Resolve()
	if err != nil {
		return err
	}
	prior, err := mc.Prior(m)
	if err != nil {
		return err
	}
	like := prob.NewGaussianLikelihood(obs, m)
	scfg := p.exp.SamplerConfig()

	var seed *sampler.SeedResult
	err = p.stage(ctx, log, "seed", func() error {
		var serr error
		seed, serr = sampler.SeedWalkers(ctx, scfg, prob.NewPosterior(prior, like), prior)
		return serr
	})
	if err != nil {
		return err
	}
	log.Info("run: walkers seeded",
		slog.String("model", m.Name()),
		slog.Bool("converged", seed.Converged),
		slog.Float64("log_prob", seed.LogProb),
	)

	var chain *sampler.Chain
	err = p.stage(ctx, log, "sample", func() error {
		ens, serr := sampler.New(scfg, prior.Widths(), m.ParamNames(), p.logger, p.metrics)
		if serr != nil {
			return serr
		}
		chain, serr = ens.Run(ctx, func() prob.LogProber {
			return prob.NewPosterior(prior, like.Clone())
		}, seed.Init)
		return serr
	})
	if err != nil {
		return err
	}
	if p.metrics != nil {
		p.metrics.TargetEvalsTotal.Add(ctx, int64(chain.Steps()*scfg.Walkers),
			metric.WithAttributes(attribute.String("kind", "posterior")))
	}

	err = p.stage(ctx, log, "diagnose", func() error {
		result := store.ModelResult{
			MAP:        seed.MAP,
			Converged:  seed.Converged,
			Acceptance: chain.MeanAcceptance(),
			Summaries:  diag.Summarize(chain, scfg.BurnIn),
		}
		rec.Results[m.Name()] = result

		if p.exp.Output.WantsFormat("png") {
			paths, perr := p.modelPlots(ctx, p.exp.Output.Dir, m, obs, chain, scfg.BurnIn)
			if perr != nil {
				return perr
			}
			rec.Artifacts = append(rec.Artifacts, paths...)
		}
		return nil
	})
	if err != nil {
		return err
	}

	return p.stage(ctx, log, "persist", func() error {
		return p.store.SaveChain(ctx, rec.ID, m.Name(), chain)
	})
}

func (p *Pipeline) compare(ctx context.Context, log *slog.Logger, rec *store.Run) error {
	obs, err := p.generate(ctx, log, rec)
	if err != nil {
		return err
	}

	ecfg, err := p.exp.EvidenceConfig()
	if err != nil {
		return err
	}

	for _, mc := range p.exp.Models {
		if err := p.compareModel(ctx, log, rec, mc, obs, ecfg); err != nil {
			return fmt.Errorf("evidence %s: %w", mc.Name, err)
		}
	}

	a, b := p.exp.Models[0].Name, p.exp.Models[1].Name
	estA, estB := rec.Results[a].Evidence, rec.Results[b].Evidence
	logK := estA.LogBayesFactor(*estB)
	favored := a
	if logK < 0 {
		favored = b
	}
	rec.Comparison = &store.Comparison{
		ModelA:         a,
		ModelB:         b,
		LogBayesFactor: logK,
		BayesFactor:    evidence.BayesFactor(logK),
		Favored:        favored,
		Verdict:        evidence.Verdict(logK),
	}

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Float64("run.log_bayes_factor", logK),
		attribute.String("run.favored", favored),
	)
	log.Info("run: models compared",
		slog.String("favored", favored),
		slog.Float64("log_bayes_factor", logK),
		slog.String("verdict", rec.Comparison.Verdict),
	)
	return nil
}

func (p *Pipeline) compareModel(ctx context.Context, log *slog.Logger, rec *store.Run, mc config.ModelConfig, obs *dataset.Observations, ecfg evidence.Config) error {
	m, err := mc.Resolve()
	if err != nil {
		return err
	}
	prior, err := mc.Prior(m)
	if err != nil {
		return err
	}
	like := prob.NewGaussianLikelihood(obs, m)

	var seed *sampler.SeedResult
	err = p.stage(ctx, log, "seed", func() error {
		var serr error
		seed, serr = sampler.SeedWalkers(ctx, ecfg.Sampler, prob.NewPosterior(prior, like), prior)
		return serr
	})
	if err != nil {
		return err
	}

	var est *evidence.Estimate
	err = p.stage(ctx, log, "evidence", func() error {
		estimator, serr := evidence.NewEstimator(ecfg, p.logger, p.metrics)
		if serr != nil {
			return serr
		}
		est, serr = estimator.Estimate(ctx, prior, func() prob.LogProber {
			return like.Clone()
		}, seed.Init)
		return serr
	})
	if err != nil {
		return err
	}

	// The beta=1 rung is the posterior itself; its acceptance is the one
	// worth reporting.
	result := store.ModelResult{
		MAP:        seed.MAP,
		Converged:  seed.Converged,
		Acceptance: est.Rungs[len(est.Rungs)-1].Acceptance,
		Evidence:   est,
	}
	rec.Results[m.Name()] = result
	log.Info("run: evidence estimated",
		slog.String("model", m.Name()),
		slog.Float64("log_z", est.LogZ),
	)

	if p.exp.Output.WantsFormat("png") {
		path := filepath.Join(p.exp.Output.Dir, "rungs_"+m.Name()+".png")
		if err := p.renderPlot(ctx, "rungs", func() error { return diag.RungPlot(est, path) }); err != nil {
			return err
		}
		rec.Artifacts = append(rec.Artifacts, path)
	}
	return nil
}

// generate produces the observation set and its artifacts (CSV and
// dataset plot, format permitting).
func (p *Pipeline) generate(ctx context.Context, log *slog.Logger, rec *store.Run) (*dataset.Observations, error) {
	var obs *dataset.Observations
	err := p.stage(ctx, log, "generate", func() error {
		cfg, m, gerr := p.exp.DatasetConfig()
		if gerr != nil {
			return gerr
		}
		o, gerr := dataset.Generate(cfg, m)
		if gerr != nil {
			return gerr
		}
		obs = o
		rec.DataDigest = o.Digest()

		if p.exp.Output.WantsFormat("csv") {
			path := filepath.Join(p.exp.Output.Dir, "dataset.csv")
			if werr := o.WriteCSVFile(path); werr != nil {
				return werr
			}
			rec.Artifacts = append(rec.Artifacts, path)
		}
		if p.exp.Output.WantsFormat("png") {
			path := filepath.Join(p.exp.Output.Dir, "dataset.png")
			if perr := p.renderPlot(ctx, "dataset", func() error {
				return diag.DatasetPlot(o, m, cfg.Truth, path)
			}); perr != nil {
				return perr
			}
			rec.Artifacts = append(rec.Artifacts, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info("run: dataset generated",
		slog.Int("count", obs.Len()),
		slog.String("digest", rec.DataDigest),
	)
	return obs, nil
}

// modelPlots renders the trace, corner and posterior predictive plots
// for one fitted model.
func (p *Pipeline) modelPlots(ctx context.Context, outDir string, m model.Model, obs *dataset.Observations, chain *sampler.Chain, burnIn int) ([]string, error) {
	name := m.Name()
	plots := []struct {
		kind   string
		path   string
		render func(path string) error
	}{
		{"trace", filepath.Join(outDir, "trace_"+name+".png"), func(path string) error {
			return diag.TracePlot(chain, burnIn, path)
		}},
		{"corner", filepath.Join(outDir, "corner_"+name+".png"), func(path string) error {
			return diag.CornerPlot(chain, burnIn, path)
		}},
		{"predictive", filepath.Join(outDir, "predictive_"+name+".png"), func(path string) error {
			return diag.PredictivePlot(obs, m, chain, burnIn, path)
		}},
	}

	paths := make([]string, 0, len(plots))
	for _, pl := range plots {
		render := pl.render
		path := pl.path
		if err := p.renderPlot(ctx, pl.kind, func() error { return render(path) }); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// stage runs fn and records its duration under the stage name. Errors
// come back wrapped with the stage name so a failed run reads like
// "fit periodic: sample: ...".
func (p *Pipeline) stage(ctx context.Context, log *slog.Logger, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	if p.metrics != nil {
		p.metrics.StageDuration.Record(ctx, elapsed.Seconds(),
			metric.WithAttributes(attribute.String("stage", name)))
	}
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	log.Debug("run: stage complete",
		slog.String("stage", name),
		slog.Duration("elapsed", elapsed),
	)
	return nil
}

func (p *Pipeline) renderPlot(ctx context.Context, kind string, render func() error) error {
	if err := render(); err != nil {
		return err
	}
	if p.metrics != nil {
		p.metrics.PlotRendersTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.String("plot", kind)))
	}
	return nil
}

func (p *Pipeline) countRun(ctx context.Context, kind store.Kind, status store.Status) {
	if p.metrics == nil {
		return
	}
	p.metrics.RunsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", string(kind)),
		attribute.String("status", string(status)),
	))
}

// exportRecord writes the run record as indented JSON next to the
// plots. Returns the written path, or "" if the json format is not
// wanted.
func (p *Pipeline) exportRecord(rec *store.Run) (string, error) {
	if !p.exp.Output.WantsFormat("json") {
		return "", nil
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("run: encode record: %w", err)
	}
	path := filepath.Join(p.exp.Output.Dir, "run_"+rec.ID[:8]+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("run: write record: %w", err)
	}
	return path, nil
}
