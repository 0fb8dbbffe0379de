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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRenderFitRun verifies a fit run's plots can be rebuilt from the
// store alone.
func TestRenderFitRun(t *testing.T) {
	exp := testExperiment(t)
	p, st := newTestPipeline(t, exp)

	res, err := p.Fit(context.Background())
	require.NoError(t, err)

	rec, err := st.GetRun(context.Background(), res.RunID)
	require.NoError(t, err)

	outDir := t.TempDir()
	paths, err := p.Render(context.Background(), rec, outDir)
	require.NoError(t, err)

	// Dataset plot plus trace, corner and predictive for each model.
	assert.Len(t, paths, 7)
	for _, path := range paths {
		assert.Equal(t, outDir, filepath.Dir(path))
		info, serr := os.Stat(path)
		require.NoError(t, serr, "plot %s", path)
		assert.Greater(t, info.Size(), int64(0), "plot %s", path)
	}
}

// TestRenderCompareRun verifies compare runs re-render their rung plots
// and skip the chain plots they never had.
func TestRenderCompareRun(t *testing.T) {
	exp := contrastExperiment(t)
	p, st := newTestPipeline(t, exp)

	res, err := p.Compare(context.Background())
	require.NoError(t, err)

	rec, err := st.GetRun(context.Background(), res.RunID)
	require.NoError(t, err)

	outDir := t.TempDir()
	paths, err := p.Render(context.Background(), rec, outDir)
	require.NoError(t, err)

	require.Len(t, paths, 3)
	want := map[string]bool{
		"dataset.png":        true,
		"rungs_periodic.png": true,
		"rungs_constant.png": true,
	}
	for _, path := range paths {
		assert.True(t, want[filepath.Base(path)], "unexpected plot %s", path)
	}
}

// TestRenderDefaultsOutDir verifies the empty outDir falls back to the
// record's configured output directory.
func TestRenderDefaultsOutDir(t *testing.T) {
	exp := testExperiment(t)
	exp.Output.Formats = []string{"json"}
	p, st := newTestPipeline(t, exp)

	res, err := p.Fit(context.Background())
	require.NoError(t, err)
	rec, err := st.GetRun(context.Background(), res.RunID)
	require.NoError(t, err)

	paths, err := p.Render(context.Background(), rec, "")
	require.NoError(t, err)
	require.NotEmpty(t, paths)
	for _, path := range paths {
		assert.Equal(t, exp.Output.Dir, filepath.Dir(path))
	}
}

func TestRenderNilRecord(t *testing.T) {
	p, _ := newTestPipeline(t, testExperiment(t))
	_, err := p.Render(context.Background(), nil, t.TempDir())
	assert.ErrorContains(t, err, "record")
}
