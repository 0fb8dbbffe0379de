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
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/AleutianAI/soundings/pkg/ux"
	"github.com/AleutianAI/soundings/services/soundings/store"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func runRunsList(cmd *cobra.Command, _ []string) {
	if err := runsListMain(cmd.Context()); err != nil {
		fail(err)
	}
}

func runsListMain(ctx context.Context) error {
	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	recs, err := app.Runs.ListRuns(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		return OutputJSON(runListResult(recs))
	}
	if len(recs) == 0 {
		ux.Info("No runs recorded yet")
		ux.Tip("'soundings fit' records every run here")
		return nil
	}
	fmt.Print(ux.Table(
		[]string{"id", "kind", "status", "experiment", "created", "artifacts"},
		runsRows(recs)))
	return nil
}

// runsRows renders run records as table rows, newest first.
func runsRows(recs []*store.Run) [][]string {
	rows := make([][]string, len(recs))
	for i, rec := range recs {
		rows[i] = []string{
			shortID(rec.ID),
			string(rec.Kind),
			string(rec.Status),
			rec.Name(),
			rec.CreatedAt.Local().Format("2006-01-02 15:04"),
			strconv.Itoa(len(rec.Artifacts)),
		}
	}
	return rows
}

func runListResult(recs []*store.Run) RunListResult {
	out := RunListResult{Runs: make([]RunSummary, len(recs)), Count: len(recs)}
	for i, rec := range recs {
		out.Runs[i] = RunSummary{
			ID:         rec.ID,
			Kind:       string(rec.Kind),
			Status:     string(rec.Status),
			Experiment: rec.Name(),
			CreatedAt:  rec.CreatedAt,
			Models:     len(rec.Results),
			Artifacts:  len(rec.Artifacts),
		}
	}
	return out
}

func runRunsShow(cmd *cobra.Command, args []string) {
	if err := runsShowMain(cmd.Context(), args[0]); err != nil {
		fail(err)
	}
}

func runsShowMain(ctx context.Context, idArg string) error {
	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	id, err := resolveRunID(ctx, app.Runs, idArg)
	if err != nil {
		return err
	}
	rec, err := app.Runs.GetRun(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("run %s not found", id)
		}
		return err
	}

	if jsonOutput {
		return OutputJSON(rec)
	}

	fmt.Print(ux.KeyValues("Run "+shortID(rec.ID), runShowPairs(rec)))
	if len(rec.Results) > 0 {
		fmt.Print(ux.Table([]string{"model", "map", "acceptance", "log z"},
			resultRows(rec.Results)))
	}
	if rec.Comparison != nil {
		fmt.Print(ux.VerdictBanner(rec.Comparison.Favored,
			rec.Comparison.LogBayesFactor, rec.Comparison.Verdict))
	}
	for _, a := range rec.Artifacts {
		ux.Artifact(a)
	}
	if rec.Status == store.StatusComplete && len(rec.Artifacts) > 0 {
		ux.Tip(fmt.Sprintf("Re-render the artifacts with 'soundings report %s'", shortID(rec.ID)))
	}
	return nil
}

// runShowPairs flattens the record header into key/value pairs.
func runShowPairs(rec *store.Run) [][2]string {
	pairs := [][2]string{
		{"ID", rec.ID},
		{"Kind", string(rec.Kind)},
		{"Status", string(rec.Status)},
		{"Experiment", rec.Name()},
		{"Seed", strconv.FormatUint(rec.Experiment.Seed, 10)},
		{"Data digest", rec.DataDigest},
		{"Created", rec.CreatedAt.Local().Format(time.RFC3339)},
		{"Updated", rec.UpdatedAt.Local().Format(time.RFC3339)},
	}
	if rec.Error != "" {
		pairs = append(pairs, [2]string{"Error", rec.Error})
	}
	return pairs
}

// resultRows renders stored per-model results as table rows. Log
// evidence only exists on comparison runs.
func resultRows(results map[string]store.ModelResult) [][]string {
	rows := make([][]string, 0, len(results))
	for _, name := range sortedResultNames(results) {
		r := results[name]
		logZ := "-"
		if r.Evidence != nil {
			logZ = fmt.Sprintf("%.4f", r.Evidence.LogZ)
		}
		rows = append(rows, []string{
			name,
			formatParams(r.MAP),
			fmt.Sprintf("%.1f%%", r.Acceptance*100),
			logZ,
		})
	}
	return rows
}

func runRunsDelete(cmd *cobra.Command, args []string) {
	if err := runsDeleteMain(cmd.Context(), args[0]); err != nil {
		fail(err)
	}
}

func runsDeleteMain(ctx context.Context, idArg string) error {
	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	id, err := resolveRunID(ctx, app.Runs, idArg)
	if err != nil {
		return err
	}

	if !deleteForce {
		if !ux.IsInteractive() {
			return badArgs("refusing to delete without --force in a non-interactive session")
		}
		confirmed := false
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete run %s?", shortID(id))).
				Description("Removes the record and its stored chains. Artifact files stay on disk.").
				Value(&confirmed),
		))
		if err := form.Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				ux.Warning("Delete cancelled")
				return nil
			}
			return err
		}
		if !confirmed {
			ux.Warning("Delete cancelled")
			return nil
		}
	}

	if err := app.Runs.DeleteRun(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("run %s not found", id)
		}
		return err
	}
	ux.Success(fmt.Sprintf("Deleted run %s", shortID(id)))
	return nil
}
