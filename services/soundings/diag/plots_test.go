// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package diag

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/AleutianAI/soundings/services/soundings/dataset"
	"github.com/AleutianAI/soundings/services/soundings/evidence"
	"github.com/AleutianAI/soundings/services/soundings/model"
	"github.com/AleutianAI/soundings/services/soundings/sampler"
)

// plotChain builds a chain with enough spread that histograms and
// scatters have nonzero range.
func plotChain(t *testing.T, walkers, steps, dim int, names []string) *sampler.Chain {
	t.Helper()
	data := make([][]float64, walkers)
	for w := range data {
		row := make([]float64, 0, steps*dim)
		for it := 0; it < steps; it++ {
			for d := 0; d < dim; d++ {
				v := math.Sin(float64(it)*0.17+float64(w)) + 0.1*float64(d+1)*float64(it%7)
				row = append(row, v)
			}
		}
		data[w] = row
	}
	return makeDiagChain(t, names, steps, dim, data)
}

func assertPNG(t *testing.T, path string) {
	t.Helper()
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	if fi.Size() == 0 {
		t.Errorf("%s is empty", path)
	}
}

func testObservations(t *testing.T) *dataset.Observations {
	t.Helper()
	obs, err := dataset.Generate(dataset.Config{
		Seed:  5,
		Count: 30,
		TMin:  0,
		TMax:  10,
		Noise: 0.5,
		Truth: []float64{2.0},
	}, model.Constant{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	return obs
}

func TestTracePlotRenders(t *testing.T) {
	c := plotChain(t, 2, 60, 2, []string{"a", "b"})
	path := filepath.Join(t.TempDir(), "trace.png")

	if err := TracePlot(c, 15, path); err != nil {
		t.Fatalf("TracePlot() error = %v", err)
	}
	assertPNG(t, path)
}

func TestTracePlotEmptyChain(t *testing.T) {
	if err := TracePlot(nil, 0, filepath.Join(t.TempDir(), "trace.png")); err == nil {
		t.Error("TracePlot(nil) error = nil, want error")
	}
}

func TestCornerPlotRenders(t *testing.T) {
	c := plotChain(t, 2, 60, 4, []string{"amplitude", "offset", "period", "phase"})
	path := filepath.Join(t.TempDir(), "corner.png")

	if err := CornerPlot(c, 10, path); err != nil {
		t.Fatalf("CornerPlot() error = %v", err)
	}
	assertPNG(t, path)
}

func TestCornerPlotUnnamedChain(t *testing.T) {
	c := plotChain(t, 2, 40, 2, nil)
	path := filepath.Join(t.TempDir(), "corner.png")

	if err := CornerPlot(c, 0, path); err != nil {
		t.Fatalf("CornerPlot() error = %v", err)
	}
	assertPNG(t, path)
}

func TestCornerPlotAllBurnedIn(t *testing.T) {
	c := plotChain(t, 2, 10, 2, nil)
	if err := CornerPlot(c, 10, filepath.Join(t.TempDir(), "corner.png")); err == nil {
		t.Error("CornerPlot with no surviving samples error = nil, want error")
	}
}

func TestPredictivePlotRenders(t *testing.T) {
	obs := testObservations(t)
	c := plotChain(t, 2, 60, 1, []string{"offset"})
	path := filepath.Join(t.TempDir(), "predictive.png")

	if err := PredictivePlot(obs, model.Constant{}, c, 5, path); err != nil {
		t.Fatalf("PredictivePlot() error = %v", err)
	}
	assertPNG(t, path)
}

func TestPredictivePlotDimMismatch(t *testing.T) {
	obs := testObservations(t)
	c := plotChain(t, 2, 40, 1, nil)

	err := PredictivePlot(obs, model.Periodic{}, c, 0, filepath.Join(t.TempDir(), "predictive.png"))
	if err == nil {
		t.Error("PredictivePlot with mismatched chain error = nil, want error")
	}
}

func TestDatasetPlotRenders(t *testing.T) {
	obs := testObservations(t)
	path := filepath.Join(t.TempDir(), "dataset.png")

	if err := DatasetPlot(obs, model.Constant{}, []float64{2.0}, path); err != nil {
		t.Fatalf("DatasetPlot() error = %v", err)
	}
	assertPNG(t, path)
}

func TestDatasetPlotWithoutTruth(t *testing.T) {
	obs := testObservations(t)
	path := filepath.Join(t.TempDir(), "dataset.png")

	if err := DatasetPlot(obs, nil, nil, path); err != nil {
		t.Fatalf("DatasetPlot() without truth error = %v", err)
	}
	assertPNG(t, path)
}

func TestRungPlotRenders(t *testing.T) {
	est := &evidence.Estimate{
		LogZ: -3.2,
		Rungs: []evidence.RungStat{
			{Beta: 0, MeanLogLike: -12.5, StdLogLike: 1.0, Acceptance: 0.9, Steps: 100},
			{Beta: 0.25, MeanLogLike: -6.1, StdLogLike: 0.8, Acceptance: 0.7, Steps: 100},
			{Beta: 1, MeanLogLike: -2.4, StdLogLike: 0.5, Acceptance: 0.5, Steps: 100},
		},
	}
	path := filepath.Join(t.TempDir(), "rungs.png")

	if err := RungPlot(est, path); err != nil {
		t.Fatalf("RungPlot() error = %v", err)
	}
	assertPNG(t, path)
}

func TestRungPlotEmpty(t *testing.T) {
	if err := RungPlot(nil, filepath.Join(t.TempDir(), "rungs.png")); err == nil {
		t.Error("RungPlot(nil) error = nil, want error")
	}
}
