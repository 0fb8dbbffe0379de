// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sampler

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Chain holds the recorded positions of every walker in a sampling run.
//
// Description:
//
//	Storage is one dense steps-by-dim matrix per walker. The burn-in
//	portion is recorded like any other step; accessors that take a
//	discard count skip it at read time so diagnostics can still show
//	the warm-up transient.
//
// Thread Safety: safe for concurrent reads once Run has returned.
// Accessors that return slices always return copies.
type Chain struct {
	names   []string
	dim     int
	steps   int
	walkers []*mat.Dense
}

// newChain allocates storage for a run of the given shape. The caller
// advances steps as rows are filled in.
func newChain(walkers, steps, dim int, names []string) *Chain {
	c := &Chain{
		names:   names,
		dim:     dim,
		walkers: make([]*mat.Dense, walkers),
	}
	for w := range c.walkers {
		c.walkers[w] = mat.NewDense(steps, dim, nil)
	}
	return c
}

// Steps returns the number of recorded steps per walker.
func (c *Chain) Steps() int { return c.steps }

// Walkers returns the number of walkers.
func (c *Chain) Walkers() int { return len(c.walkers) }

// Dim returns the parameter dimensionality.
func (c *Chain) Dim() int { return c.dim }

// ParamNames returns a copy of the parameter names, or nil if the run
// did not carry any.
func (c *Chain) ParamNames() []string {
	if c.names == nil {
		return nil
	}
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// At returns the value of dimension d at step it of walker w.
func (c *Chain) At(it, w, d int) float64 {
	c.check(it, w, d)
	return c.walkers[w].At(it, d)
}

// Series returns the full trajectory of dimension d for walker w,
// including burn-in. Trace plots want this view.
func (c *Chain) Series(w, d int) []float64 {
	c.check(0, w, d)
	out := make([]float64, c.steps)
	for it := 0; it < c.steps; it++ {
		out[it] = c.walkers[w].At(it, d)
	}
	return out
}

// Flat returns dimension d pooled across all walkers with the first
// discard steps of each walker skipped. Samples are ordered by step,
// walkers interleaved within each step.
func (c *Chain) Flat(d, discard int) []float64 {
	c.check(0, 0, d)
	discard = c.clampDiscard(discard)
	out := make([]float64, 0, (c.steps-discard)*len(c.walkers))
	for it := discard; it < c.steps; it++ {
		for w := range c.walkers {
			out = append(out, c.walkers[w].At(it, d))
		}
	}
	return out
}

// FlatRows returns full parameter vectors pooled across all walkers with
// the first discard steps of each walker skipped, in the same order as
// Flat.
func (c *Chain) FlatRows(discard int) [][]float64 {
	discard = c.clampDiscard(discard)
	out := make([][]float64, 0, (c.steps-discard)*len(c.walkers))
	for it := discard; it < c.steps; it++ {
		for w := range c.walkers {
			row := make([]float64, c.dim)
			mat.Row(row, it, c.walkers[w])
			out = append(out, row)
		}
	}
	return out
}

// Last returns a copy of walker w's final position. Tempered runs use
// it to warm-start the next rung.
func (c *Chain) Last(w int) []float64 {
	c.check(0, w, 0)
	if c.steps == 0 {
		return make([]float64, c.dim)
	}
	row := make([]float64, c.dim)
	mat.Row(row, c.steps-1, c.walkers[w])
	return row
}

// AcceptanceRate returns the fraction of steps on which walker w moved.
// A Metropolis-Hastings rejection repeats the previous position exactly,
// so distinct consecutive rows count as acceptances.
func (c *Chain) AcceptanceRate(w int) float64 {
	c.check(0, w, 0)
	if c.steps < 2 {
		return 0
	}
	moved := 0
	for it := 1; it < c.steps; it++ {
		if !c.sameRow(w, it-1, it) {
			moved++
		}
	}
	return float64(moved) / float64(c.steps-1)
}

// MeanAcceptance returns the acceptance rate averaged over all walkers.
func (c *Chain) MeanAcceptance() float64 {
	if len(c.walkers) == 0 {
		return 0
	}
	var sum float64
	for w := range c.walkers {
		sum += c.AcceptanceRate(w)
	}
	return sum / float64(len(c.walkers))
}

func (c *Chain) sameRow(w, a, b int) bool {
	for d := 0; d < c.dim; d++ {
		if c.walkers[w].At(a, d) != c.walkers[w].At(b, d) {
			return false
		}
	}
	return true
}

func (c *Chain) clampDiscard(discard int) int {
	if discard < 0 {
		return 0
	}
	if discard > c.steps {
		return c.steps
	}
	return discard
}

func (c *Chain) check(it, w, d int) {
	if it < 0 || it >= c.steps {
		panic(fmt.Sprintf("sampler: step %d out of range [0,%d)", it, c.steps))
	}
	if w < 0 || w >= len(c.walkers) {
		panic(fmt.Sprintf("sampler: walker %d out of range [0,%d)", w, len(c.walkers)))
	}
	if d < 0 || d >= c.dim {
		panic(fmt.Sprintf("sampler: dimension %d out of range [0,%d)", d, c.dim))
	}
}

// chainJSON is the persisted form of a Chain. Walker data is flattened
// row-major, steps*dim values per walker.
type chainJSON struct {
	Names   []string    `json:"names,omitempty"`
	Steps   int         `json:"steps"`
	Dim     int         `json:"dim"`
	Walkers [][]float64 `json:"walkers"`
}

// MarshalJSON implements json.Marshaler.
func (c *Chain) MarshalJSON() ([]byte, error) {
	enc := chainJSON{
		Names:   c.names,
		Steps:   c.steps,
		Dim:     c.dim,
		Walkers: make([][]float64, len(c.walkers)),
	}
	for w := range c.walkers {
		flat := make([]float64, 0, c.steps*c.dim)
		row := make([]float64, c.dim)
		for it := 0; it < c.steps; it++ {
			mat.Row(row, it, c.walkers[w])
			flat = append(flat, row...)
		}
		enc.Walkers[w] = flat
	}
	return json.Marshal(enc)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Chain) UnmarshalJSON(data []byte) error {
	var dec chainJSON
	if err := json.Unmarshal(data, &dec); err != nil {
		return fmt.Errorf("decode chain: %w", err)
	}
	if dec.Dim <= 0 || dec.Steps <= 0 || len(dec.Walkers) == 0 {
		return fmt.Errorf("decode chain: bad shape %dx%dx%d",
			dec.Steps, len(dec.Walkers), dec.Dim)
	}
	if dec.Names != nil && len(dec.Names) != dec.Dim {
		return fmt.Errorf("decode chain: %d names for %d dimensions",
			len(dec.Names), dec.Dim)
	}
	restored := newChain(len(dec.Walkers), dec.Steps, dec.Dim, dec.Names)
	restored.steps = dec.Steps
	for w, flat := range dec.Walkers {
		if len(flat) != dec.Steps*dec.Dim {
			return fmt.Errorf("decode chain: walker %d has %d values, want %d",
				w, len(flat), dec.Steps*dec.Dim)
		}
		for it := 0; it < dec.Steps; it++ {
			restored.walkers[w].SetRow(it, flat[it*dec.Dim:(it+1)*dec.Dim])
		}
	}
	*c = *restored
	return nil
}
