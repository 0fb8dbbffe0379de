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
	"fmt"
	"time"

	"github.com/AleutianAI/soundings/pkg/ux"
	"github.com/AleutianAI/soundings/services/soundings/store"
	"github.com/spf13/cobra"
)

func runCompare(cmd *cobra.Command, _ []string) {
	if err := compareMain(cmd.Context()); err != nil {
		fail(err)
	}
}

func compareMain(ctx context.Context) error {
	start := time.Now()

	exp, err := loadExperiment()
	if err != nil {
		return err
	}
	if len(exp.Models) < 2 {
		return badArgs("experiment %q defines %d model(s), comparison needs exactly 2",
			exp.Name, len(exp.Models))
	}

	ux.Title(fmt.Sprintf("Comparing models on %q", exp.Name))

	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	pipe, err := app.newPipeline(exp)
	if err != nil {
		return err
	}

	sp := ux.NewSpinner(fmt.Sprintf("Integrating evidence over %d rungs", exp.Evidence.Rungs)).
		WithType(ux.SpinnerSounding)
	sp.Start()
	res, err := pipe.Compare(ctx)
	if err != nil {
		sp.StopWithError("Comparison failed")
		return err
	}
	sp.StopWithSuccess(fmt.Sprintf("Comparison complete, run %s", shortID(res.RunID)))

	fmt.Print(ux.Table([]string{"model", "log z", "rungs"}, evidenceRows(res.Results)))
	fmt.Print(ux.VerdictBanner(res.Comparison.Favored, res.Comparison.LogBayesFactor,
		res.Comparison.Verdict))

	for _, a := range res.Artifacts {
		ux.Artifact(a)
	}
	ux.Summary(len(res.Results), len(res.Artifacts), elapsedSince(start))
	ux.Tip(fmt.Sprintf("Inspect the full record with 'soundings runs show %s'", shortID(res.RunID)))
	return nil
}

// evidenceRows renders per-model evidence estimates as table rows.
func evidenceRows(results map[string]store.ModelResult) [][]string {
	rows := make([][]string, 0, len(results))
	for _, name := range sortedResultNames(results) {
		r := results[name]
		logZ, rungs := "-", "-"
		if r.Evidence != nil {
			logZ = fmt.Sprintf("%.4f", r.Evidence.LogZ)
			rungs = fmt.Sprintf("%d", len(r.Evidence.Rungs))
		}
		rows = append(rows, []string{name, logZ, rungs})
	}
	return rows
}
