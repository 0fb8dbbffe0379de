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
	"github.com/AleutianAI/soundings/services/soundings/config"
	"github.com/AleutianAI/soundings/services/soundings/diag"
	"github.com/AleutianAI/soundings/services/soundings/store"
	"github.com/spf13/cobra"
)

func runFit(cmd *cobra.Command, _ []string) {
	if err := fitMain(cmd.Context()); err != nil {
		fail(err)
	}
}

func fitMain(ctx context.Context) error {
	start := time.Now()

	exp, err := loadExperiment()
	if err != nil {
		return err
	}
	if fitModel != "" {
		mc, ok := exp.Model(fitModel)
		if !ok {
			return badArgs("model %q is not part of experiment %q", fitModel, exp.Name)
		}
		exp.Models = []config.ModelConfig{mc}
	}

	ux.Title(fmt.Sprintf("Sounding %q", exp.Name))

	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	pipe, err := app.newPipeline(exp)
	if err != nil {
		return err
	}

	sp := ux.NewSpinner(fmt.Sprintf("Fitting %d models (%d walkers, %d steps)",
		len(exp.Models), exp.Sampler.Walkers, exp.Sampler.Steps)).
		WithType(ux.SpinnerSounding)
	sp.Start()
	res, err := pipe.Fit(ctx)
	if err != nil {
		sp.StopWithError("Fit failed")
		return err
	}
	sp.StopWithSuccess(fmt.Sprintf("Fit complete, run %s", shortID(res.RunID)))

	fmt.Print(ux.Table([]string{"model", "map", "acceptance", "converged"}, fitRows(res.Results)))
	for _, name := range sortedResultNames(res.Results) {
		r := res.Results[name]
		if len(r.Summaries) == 0 {
			continue
		}
		ux.Info(fmt.Sprintf("%s posterior", name))
		fmt.Print(ux.Table([]string{"param", "mean", "std", "median", "68% interval"},
			summaryRows(r.Summaries)))
	}

	for _, a := range res.Artifacts {
		ux.Artifact(a)
	}
	ux.Summary(len(res.Results), len(res.Artifacts), elapsedSince(start))
	if len(exp.Models) > 1 {
		ux.Tip("Grade these models against each other with 'soundings compare'")
	}
	return nil
}

// fitRows renders per-model fit outcomes as table rows.
func fitRows(results map[string]store.ModelResult) [][]string {
	rows := make([][]string, 0, len(results))
	for _, name := range sortedResultNames(results) {
		r := results[name]
		converged := "yes"
		if !r.Converged {
			converged = "no"
		}
		rows = append(rows, []string{
			name,
			formatParams(r.MAP),
			fmt.Sprintf("%.1f%%", r.Acceptance*100),
			converged,
		})
	}
	return rows
}

// summaryRows renders marginal statistics as table rows.
func summaryRows(summaries []diag.ParamSummary) [][]string {
	rows := make([][]string, len(summaries))
	for i, s := range summaries {
		rows[i] = []string{
			s.Name,
			fmt.Sprintf("%.4g", s.Mean),
			fmt.Sprintf("%.4g", s.Std),
			fmt.Sprintf("%.4g", s.Median),
			fmt.Sprintf("[%.4g, %.4g]", s.Q16, s.Q84),
		}
	}
	return rows
}
