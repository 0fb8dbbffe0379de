// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package diag renders sampling diagnostics as PNG images and computes
// marginal posterior summaries.
//
// Every renderer takes a burn-in count and discards those leading steps
// except TracePlot, which shows the full trajectory with the burn-in
// boundary marked: the warm-up transient is exactly what a trace plot
// is for.
//
// Rendering never inspects the statistical quality of a chain. A plot
// of a garbage run renders fine; deciding that it is garbage is the
// reader's job.
package diag

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/AleutianAI/soundings/services/soundings/dataset"
	"github.com/AleutianAI/soundings/services/soundings/evidence"
	"github.com/AleutianAI/soundings/services/soundings/model"
	"github.com/AleutianAI/soundings/services/soundings/sampler"
)

// Rendering limits. Chains can hold millions of samples; plots thin to
// these budgets so files stay small and rendering stays fast.
const (
	maxTracePoints     = 2000
	maxCornerPoints    = 2000
	maxPredictiveDraws = 200
	predictiveGridSize = 150
	histogramBins      = 40
)

const (
	panelWidth  = 3.2 * vg.Inch
	panelHeight = 2.4 * vg.Inch
	plotWidth   = 6 * vg.Inch
	plotHeight  = 4 * vg.Inch
)

var (
	bandColor   = color.NRGBA{R: 100, G: 149, B: 237, A: 80}
	pointColor  = color.NRGBA{R: 40, G: 40, B: 40, A: 255}
	cloudColor  = color.NRGBA{R: 70, G: 100, B: 160, A: 110}
	markerColor = color.NRGBA{R: 160, G: 160, B: 160, A: 255}
)

// TracePlot renders one panel per parameter, one line per walker, with
// a dashed vertical marker at the burn-in boundary.
func TracePlot(chain *sampler.Chain, burnIn int, path string) error {
	if chain == nil || chain.Steps() == 0 {
		return fmt.Errorf("trace plot: empty chain")
	}
	names := chainNames(chain)
	dim := chain.Dim()
	stride := max(1, chain.Steps()/maxTracePoints)

	plots := make([][]*plot.Plot, dim)
	for d := 0; d < dim; d++ {
		p := plot.New()
		p.Title.Text = names[d]
		p.X.Label.Text = "step"
		p.Y.Label.Text = names[d]

		lo, hi := math.Inf(1), math.Inf(-1)
		for w := 0; w < chain.Walkers(); w++ {
			series := chain.Series(w, d)
			xys := make(plotter.XYs, 0, len(series)/stride+1)
			for it := 0; it < len(series); it += stride {
				xys = append(xys, plotter.XY{X: float64(it), Y: series[it]})
				lo = min(lo, series[it])
				hi = max(hi, series[it])
			}
			line, err := plotter.NewLine(xys)
			if err != nil {
				return fmt.Errorf("trace plot: %w", err)
			}
			line.Color = plotutil.Color(w)
			line.Width = vg.Points(0.5)
			p.Add(line)
		}

		if burnIn > 0 && burnIn < chain.Steps() && lo < hi {
			marker, err := plotter.NewLine(plotter.XYs{
				{X: float64(burnIn), Y: lo},
				{X: float64(burnIn), Y: hi},
			})
			if err != nil {
				return fmt.Errorf("trace plot: %w", err)
			}
			marker.Color = markerColor
			marker.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
			p.Add(marker)
		}
		plots[d] = []*plot.Plot{p}
	}
	return writeGrid(plots, dim, 1, path)
}

// CornerPlot renders the marginal histograms on the diagonal and the
// pairwise sample clouds below it. Burn-in is discarded.
func CornerPlot(chain *sampler.Chain, burnIn int, path string) error {
	if chain == nil || chain.Steps() == 0 {
		return fmt.Errorf("corner plot: empty chain")
	}
	names := chainNames(chain)
	dim := chain.Dim()

	flats := make([][]float64, dim)
	for d := 0; d < dim; d++ {
		flats[d] = chain.Flat(d, burnIn)
	}
	if len(flats[0]) == 0 {
		return fmt.Errorf("corner plot: no samples after burn-in %d", burnIn)
	}
	stride := max(1, len(flats[0])/maxCornerPoints)

	plots := make([][]*plot.Plot, dim)
	for i := 0; i < dim; i++ {
		plots[i] = make([]*plot.Plot, dim)
		for j := 0; j < dim; j++ {
			p := plot.New()
			switch {
			case i == j:
				h, err := plotter.NewHist(plotter.Values(flats[i]), histogramBins)
				if err != nil {
					return fmt.Errorf("corner plot %s: %w", names[i], err)
				}
				h.FillColor = bandColor
				h.LineStyle.Width = vg.Points(0.5)
				p.Add(h)
				p.Title.Text = names[i]
			case j < i:
				xys := make(plotter.XYs, 0, len(flats[i])/stride+1)
				for k := 0; k < len(flats[i]); k += stride {
					xys = append(xys, plotter.XY{X: flats[j][k], Y: flats[i][k]})
				}
				sc, err := plotter.NewScatter(xys)
				if err != nil {
					return fmt.Errorf("corner plot %s/%s: %w", names[j], names[i], err)
				}
				sc.GlyphStyle.Shape = draw.CircleGlyph{}
				sc.GlyphStyle.Radius = vg.Points(1)
				sc.GlyphStyle.Color = cloudColor
				p.Add(sc)
			default:
				p.HideAxes()
			}
			if i == dim-1 && j <= i {
				p.X.Label.Text = names[j]
			}
			if j == 0 && i > 0 {
				p.Y.Label.Text = names[i]
			}
			plots[i][j] = p
		}
	}
	return writeGrid(plots, dim, dim, path)
}

// PredictivePlot renders the observations against the posterior
// predictive median curve and central 68% band.
//
// The band is over model curves only; observation noise is not folded
// in, matching the usual visual check of whether the fitted curve
// family tracks the data.
func PredictivePlot(obs *dataset.Observations, m model.Model, chain *sampler.Chain, burnIn int, path string) error {
	if obs == nil || obs.Len() == 0 {
		return fmt.Errorf("predictive plot: no observations")
	}
	if m == nil {
		return fmt.Errorf("predictive plot: nil model")
	}
	if chain == nil || chain.Dim() != m.Dim() {
		return fmt.Errorf("predictive plot: chain does not match model %s", m.Name())
	}
	rows := chain.FlatRows(burnIn)
	if len(rows) == 0 {
		return fmt.Errorf("predictive plot: no samples after burn-in %d", burnIn)
	}

	grid := make([]float64, predictiveGridSize)
	floats.Span(grid, floats.Min(obs.Times), floats.Max(obs.Times))

	stride := max(1, len(rows)/maxPredictiveDraws)
	curves := make([][]float64, 0, len(rows)/stride+1)
	for k := 0; k < len(rows); k += stride {
		curves = append(curves, m.EvalAll(rows[k], grid, nil))
	}

	lo := make([]float64, len(grid))
	med := make([]float64, len(grid))
	hi := make([]float64, len(grid))
	column := make([]float64, len(curves))
	for g := range grid {
		for k := range curves {
			column[k] = curves[k][g]
		}
		slices.Sort(column)
		lo[g] = stat.Quantile(0.16, stat.Empirical, column, nil)
		med[g] = stat.Quantile(0.5, stat.Empirical, column, nil)
		hi[g] = stat.Quantile(0.84, stat.Empirical, column, nil)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Posterior predictive: %s", m.Name())
	p.X.Label.Text = "time"
	p.Y.Label.Text = "value"

	bandXYs := make(plotter.XYs, 0, 2*len(grid))
	for g := range grid {
		bandXYs = append(bandXYs, plotter.XY{X: grid[g], Y: hi[g]})
	}
	for g := len(grid) - 1; g >= 0; g-- {
		bandXYs = append(bandXYs, plotter.XY{X: grid[g], Y: lo[g]})
	}
	band, err := plotter.NewPolygon(bandXYs)
	if err != nil {
		return fmt.Errorf("predictive plot: %w", err)
	}
	band.Color = bandColor
	band.LineStyle.Width = 0
	p.Add(band)

	medXYs := make(plotter.XYs, len(grid))
	for g := range grid {
		medXYs[g] = plotter.XY{X: grid[g], Y: med[g]}
	}
	median, err := plotter.NewLine(medXYs)
	if err != nil {
		return fmt.Errorf("predictive plot: %w", err)
	}
	median.Color = plotutil.Color(0)
	median.Width = vg.Points(1.5)
	p.Add(median)

	points, err := observationScatter(obs)
	if err != nil {
		return fmt.Errorf("predictive plot: %w", err)
	}
	p.Add(points)

	p.Legend.Add("observed", points)
	p.Legend.Add("median", median)
	p.Legend.Add("68% band", band)
	p.Legend.Top = true

	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("predictive plot: %w", err)
	}
	return nil
}

// DatasetPlot renders the observations alone, optionally overlaying the
// noise-free curve the generator drew them from.
func DatasetPlot(obs *dataset.Observations, m model.Model, truth []float64, path string) error {
	if obs == nil || obs.Len() == 0 {
		return fmt.Errorf("dataset plot: no observations")
	}

	p := plot.New()
	p.Title.Text = "Observations"
	p.X.Label.Text = "time"
	p.Y.Label.Text = "value"

	if m != nil && truth != nil {
		grid := make([]float64, predictiveGridSize)
		floats.Span(grid, floats.Min(obs.Times), floats.Max(obs.Times))
		ys := m.EvalAll(truth, grid, nil)
		xys := make(plotter.XYs, len(grid))
		for g := range grid {
			xys[g] = plotter.XY{X: grid[g], Y: ys[g]}
		}
		curve, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("dataset plot: %w", err)
		}
		curve.Color = plotutil.Color(1)
		curve.Width = vg.Points(1)
		p.Add(curve)
		p.Legend.Add("truth", curve)
	}

	points, err := observationScatter(obs)
	if err != nil {
		return fmt.Errorf("dataset plot: %w", err)
	}
	p.Add(points)
	p.Legend.Add("observed", points)
	p.Legend.Top = true

	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("dataset plot: %w", err)
	}
	return nil
}

// RungPlot renders the thermodynamic integrand E_beta[log L] over the
// ladder, the curve whose area is the log evidence.
func RungPlot(est *evidence.Estimate, path string) error {
	if est == nil || len(est.Rungs) == 0 {
		return fmt.Errorf("rung plot: empty estimate")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Thermodynamic integrand (log Z = %.3f)", est.LogZ)
	p.X.Label.Text = "beta"
	p.Y.Label.Text = "E[log L]"

	xys := make(plotter.XYs, len(est.Rungs))
	for k, rs := range est.Rungs {
		xys[k] = plotter.XY{X: rs.Beta, Y: rs.MeanLogLike}
	}
	if err := plotutil.AddLinePoints(p, xys); err != nil {
		return fmt.Errorf("rung plot: %w", err)
	}

	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("rung plot: %w", err)
	}
	return nil
}

func observationScatter(obs *dataset.Observations) (*plotter.Scatter, error) {
	xys := make(plotter.XYs, obs.Len())
	for i := range xys {
		xys[i] = plotter.XY{X: obs.Times[i], Y: obs.Values[i]}
	}
	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, err
	}
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	sc.GlyphStyle.Radius = vg.Points(2)
	sc.GlyphStyle.Color = pointColor
	return sc, nil
}

func chainNames(chain *sampler.Chain) []string {
	names := chain.ParamNames()
	if names == nil {
		names = make([]string, chain.Dim())
		for d := range names {
			names[d] = fmt.Sprintf("p%d", d)
		}
	}
	return names
}

// writeGrid lays plots out on a rows-by-cols tile canvas and writes the
// result as a PNG.
func writeGrid(plots [][]*plot.Plot, rows, cols int, path string) error {
	img := vgimg.New(vg.Length(cols)*panelWidth, vg.Length(rows)*panelHeight)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: rows, Cols: cols,
		PadX: vg.Points(6), PadY: vg.Points(6),
		PadTop: vg.Points(6), PadBottom: vg.Points(6),
		PadLeft: vg.Points(6), PadRight: vg.Points(6),
	}

	canvases := plot.Align(plots, tiles, dc)
	for r := range plots {
		for c := range plots[r] {
			if plots[r][c] != nil {
				plots[r][c].Draw(canvases[r][c])
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
