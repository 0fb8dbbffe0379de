package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/AleutianAI/soundings/pkg/ux"
	"github.com/AleutianAI/soundings/services/soundings/config"
	"github.com/AleutianAI/soundings/services/soundings/dataset"
	"github.com/AleutianAI/soundings/services/soundings/diag"
	"github.com/AleutianAI/soundings/services/soundings/model"
	"github.com/spf13/cobra"
)

func runGenerate(cmd *cobra.Command, _ []string) {
	if err := generateMain(); err != nil {
		fail(err)
	}
}

func generateMain() error {
	exp, err := loadExperiment()
	if err != nil {
		return err
	}

	cfg, m, err := exp.DatasetConfig()
	if err != nil {
		return err
	}

	sp := ux.NewSpinner(fmt.Sprintf("Generating %d observations", cfg.Count))
	sp.Start()
	obs, err := dataset.Generate(cfg, m)
	if err != nil {
		sp.StopWithError("Generation failed")
		return err
	}
	sp.StopWithSuccess(fmt.Sprintf("Generated %d observations (digest %s)", obs.Len(), obs.Digest()))

	artifacts, err := writeDataset(exp, obs, m, cfg.Truth)
	if err != nil {
		return err
	}
	for _, a := range artifacts {
		ux.Artifact(a)
	}

	fmt.Print(ux.Table([]string{"t", "y"}, previewRows(obs, 5)))
	if obs.Len() > 5 {
		ux.Muted(fmt.Sprintf("... and %d more", obs.Len()-5))
	}
	ux.Tip(fmt.Sprintf("Fit the data with 'soundings fit -c %s'", experimentFile))
	return nil
}

// writeDataset writes the observation artifacts the experiment's
// output formats ask for.
func writeDataset(exp *config.Experiment, obs *dataset.Observations, m model.Model, truth []float64) ([]string, error) {
	if err := os.MkdirAll(exp.Output.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", exp.Output.Dir, err)
	}
	var artifacts []string
	if exp.Output.WantsFormat("csv") {
		path := filepath.Join(exp.Output.Dir, "dataset.csv")
		if err := obs.WriteCSVFile(path); err != nil {
			return nil, err
		}
		artifacts = append(artifacts, path)
	}
	if exp.Output.WantsFormat("json") {
		path := filepath.Join(exp.Output.Dir, "dataset.json")
		if err := writeJSON(path, obs); err != nil {
			return nil, err
		}
		artifacts = append(artifacts, path)
	}
	if exp.Output.WantsFormat("png") {
		path := filepath.Join(exp.Output.Dir, "dataset.png")
		if err := diag.DatasetPlot(obs, m, truth, path); err != nil {
			return nil, err
		}
		artifacts = append(artifacts, path)
	}
	return artifacts, nil
}

// previewRows renders the first max observations as table rows.
func previewRows(obs *dataset.Observations, max int) [][]string {
	n := obs.Len()
	if n > max {
		n = max
	}
	rows := make([][]string, n)
	for i := 0; i < n; i++ {
		rows[i] = []string{
			fmt.Sprintf("%.4f", obs.Times[i]),
			fmt.Sprintf("%.4f", obs.Values[i]),
		}
	}
	return rows
}
