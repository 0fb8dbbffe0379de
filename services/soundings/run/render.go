// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/soundings/services/soundings/dataset"
	"github.com/AleutianAI/soundings/services/soundings/diag"
	"github.com/AleutianAI/soundings/services/soundings/model"
	"github.com/AleutianAI/soundings/services/soundings/store"
	"github.com/AleutianAI/soundings/services/soundings/telemetry"
)

// Render re-renders every plot of a stored run into outDir without
// re-sampling. The dataset is regenerated from the record's experiment
// snapshot (generation is deterministic), chains come from the store,
// and evidence estimates are read off the record. Models whose chain
// was not persisted, such as those of compare runs, keep their rung
// plot and skip the chain plots.
//
// The record's own experiment drives rendering, so any Pipeline with a
// valid experiment can render any record. An empty outDir falls back to
// the record's configured output directory.
func (p *Pipeline) Render(ctx context.Context, rec *store.Run, outDir string) ([]string, error) {
	if rec == nil {
		return nil, errors.New("run: record must not be nil")
	}
	exp := rec.Experiment
	if outDir == "" {
		outDir = exp.Output.Dir
	}

	ctx, span := runTracer.Start(ctx, "Pipeline.Render",
		trace.WithAttributes(
			attribute.String("run.id", rec.ID),
			attribute.String("run.out_dir", outDir),
		),
	)
	defer span.End()
	log := telemetry.LoggerWithTrace(ctx, p.logger)

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("run: create output dir %s: %w", outDir, err)
	}

	var paths []string
	err := p.stage(ctx, log, "render", func() error {
		cfg, genModel, err := exp.DatasetConfig()
		if err != nil {
			return err
		}
		obs, err := dataset.Generate(cfg, genModel)
		if err != nil {
			return err
		}
		if rec.DataDigest != "" && obs.Digest() != rec.DataDigest {
			log.Warn("run: regenerated dataset does not match record digest",
				slog.String("run_id", rec.ID),
				slog.String("want", rec.DataDigest),
				slog.String("got", obs.Digest()),
			)
		}

		dp := filepath.Join(outDir, "dataset.png")
		if err := p.renderPlot(ctx, "dataset", func() error {
			return diag.DatasetPlot(obs, genModel, cfg.Truth, dp)
		}); err != nil {
			return err
		}
		paths = append(paths, dp)

		for _, name := range slices.Sorted(maps.Keys(rec.Results)) {
			more, err := p.renderModel(ctx, rec, name, obs, outDir)
			if err != nil {
				return fmt.Errorf("render %s: %w", name, err)
			}
			paths = append(paths, more...)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	log.Info("run: artifacts rendered",
		slog.String("run_id", rec.ID),
		slog.Int("plots", len(paths)),
	)
	return paths, nil
}

func (p *Pipeline) renderModel(ctx context.Context, rec *store.Run, name string, obs *dataset.Observations, outDir string) ([]string, error) {
	m, err := model.Lookup(name)
	if err != nil {
		return nil, err
	}

	var paths []string
	chain, err := p.store.GetChain(ctx, rec.ID, name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// No chain persisted for this model; nothing to trace.
	case err != nil:
		return nil, err
	default:
		more, perr := p.modelPlots(ctx, outDir, m, obs, chain, rec.Experiment.Sampler.BurnIn)
		if perr != nil {
			return nil, perr
		}
		paths = append(paths, more...)
	}

	if est := rec.Results[name].Evidence; est != nil {
		rp := filepath.Join(outDir, "rungs_"+name+".png")
		if err := p.renderPlot(ctx, "rungs", func() error { return diag.RungPlot(est, rp) }); err != nil {
			return nil, err
		}
		paths = append(paths, rp)
	}
	return paths, nil
}
