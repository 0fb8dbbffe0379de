// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	cliconfig "github.com/AleutianAI/soundings/cmd/soundings/config"
	"github.com/AleutianAI/soundings/pkg/validation"
	"github.com/AleutianAI/soundings/services/soundings/config"
	"github.com/AleutianAI/soundings/services/soundings/run"
	"github.com/AleutianAI/soundings/services/soundings/store"
	"github.com/AleutianAI/soundings/services/soundings/telemetry"
	"go.opentelemetry.io/otel"
)

// app bundles the plumbing shared by every command that touches the
// pipeline: telemetry, the run database, and the store on top of it.
type app struct {
	DB      *store.DB
	Runs    *store.RunStore
	Metrics *telemetry.Metrics

	shutdown func(context.Context) error
}

// openApp wires telemetry and opens the run database per the workbench
// config.
func openApp(ctx context.Context) (*app, error) {
	return openAppWith(ctx, "")
}

// openAppWith overrides the metric exporter; watch --serve uses it to
// force Prometheus regardless of the config.
func openAppWith(ctx context.Context, metricExporter string) (*app, error) {
	tcfg := telemetry.DefaultConfig()
	if v := cliconfig.Global.Telemetry.TraceExporter; v != "" {
		tcfg.TraceExporter = v
	}
	if v := cliconfig.Global.Telemetry.MetricExporter; v != "" {
		tcfg.MetricExporter = v
	}
	if v := cliconfig.Global.Telemetry.OTLPEndpoint; v != "" {
		tcfg.OTLPEndpoint = v
	}
	if metricExporter != "" {
		tcfg.MetricExporter = metricExporter
	}

	shutdown, err := telemetry.Init(ctx, tcfg)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	metrics, err := telemetry.NewMetrics(otel.Meter("soundings"))
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("create metrics: %w", err)
	}

	scfg := store.DefaultConfig()
	scfg.Path = expandHome(cliconfig.Global.Store.Dir)
	scfg.InMemory = cliconfig.Global.Store.InMemory
	scfg.Logger = slog.Default()
	if scfg.Path == "" && !scfg.InMemory {
		_ = shutdown(ctx)
		return nil, errors.New("store.dir is empty in the workbench config")
	}
	db, err := store.OpenDB(scfg)
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("open run database: %w", err)
	}

	runs, err := store.NewRunStore(db, slog.Default(), metrics)
	if err != nil {
		_ = db.Close()
		_ = shutdown(ctx)
		return nil, err
	}

	return &app{DB: db, Runs: runs, Metrics: metrics, shutdown: shutdown}, nil
}

// Close releases the database and flushes telemetry. Safe to defer.
func (a *app) Close() {
	if err := a.DB.Close(); err != nil {
		slog.Warn("closing run database", "error", err)
	}
	if a.shutdown != nil {
		if err := a.shutdown(context.Background()); err != nil {
			slog.Warn("telemetry shutdown", "error", err)
		}
	}
}

func (a *app) newPipeline(exp *config.Experiment) (*run.Pipeline, error) {
	return run.NewPipeline(*exp, a.Runs, slog.Default(), a.Metrics)
}

// loadExperiment reads the experiment named by --config and applies the
// --out override.
func loadExperiment() (*config.Experiment, error) {
	exp, err := config.Load(experimentFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, badArgs("experiment file %s not found (run 'soundings init' to create one)", experimentFile)
		}
		return nil, err
	}
	if outputDir != "" {
		exp.Output.Dir = outputDir
	}
	return exp, nil
}

// expandHome resolves a leading ~ against the home directory so store
// paths in the config work as users expect.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

// writeJSON writes v as indented JSON, creating parent directories.
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// formatParams renders a parameter vector for table cells.
func formatParams(params []float64) string {
	if len(params) == 0 {
		return "-"
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = fmt.Sprintf("%.4g", p)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// shortID abbreviates a run UUID for table display. Any unique prefix
// is enough to address a run in 'runs show'.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// resolveRunID expands a short ID prefix to the full run ID, so the
// abbreviated IDs printed by 'runs list' can be pasted back in.
func resolveRunID(ctx context.Context, runs *store.RunStore, id string) (string, error) {
	if validation.ValidateRunID(id) == nil {
		return id, nil
	}
	if len(id) < 4 {
		return "", badArgs("run ID prefix %q is too short (need at least 4 characters)", id)
	}
	recs, err := runs.ListRuns(ctx)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, rec := range recs {
		if strings.HasPrefix(rec.ID, id) {
			matches = append(matches, rec.ID)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", badArgs("no run matches %q", id)
	default:
		return "", badArgs("run ID prefix %q is ambiguous (%d matches)", id, len(matches))
	}
}

// sortedResultNames returns the model names of a result map in stable
// order.
func sortedResultNames(results map[string]store.ModelResult) []string {
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func elapsedSince(start time.Time) string {
	return time.Since(start).Round(100 * time.Millisecond).String()
}
