// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package dataset generates and carries the synthetic observation sets
// fitted by the soundings pipelines.
//
// An observation set is generated exactly once from a seeded source and
// is immutable afterward: every consumer (likelihoods, plots, the run
// store) only reads it. Regenerating with the same configuration yields
// a bit-identical set, which is what makes stored runs reproducible.
package dataset

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/AleutianAI/soundings/services/soundings/model"
)

// Observations is an ordered set of (time, value) measurements with a
// known Gaussian noise scale. Treat as read-only after generation.
type Observations struct {
	// Times holds observation times in ascending order.
	Times []float64 `json:"times"`

	// Values holds the noisy measurements, aligned with Times.
	Values []float64 `json:"values"`

	// Noise is the measurement noise standard deviation used both to
	// generate Values and to standardize residuals in likelihoods.
	Noise float64 `json:"noise"`
}

// Len returns the number of observations.
func (o *Observations) Len() int { return len(o.Times) }

// Clone returns a deep copy.
func (o *Observations) Clone() *Observations {
	c := &Observations{
		Times:  make([]float64, len(o.Times)),
		Values: make([]float64, len(o.Values)),
		Noise:  o.Noise,
	}
	copy(c.Times, o.Times)
	copy(c.Values, o.Values)
	return c
}

// Digest returns a short hex fingerprint of the observation set, used to
// tie stored runs to the exact data they were fitted on.
func (o *Observations) Digest() string {
	h := sha256.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(len(o.Times)))
	h.Write(buf[:])
	for _, s := range [][]float64{o.Times, o.Values, {o.Noise}} {
		for _, v := range s {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			h.Write(buf[:])
		}
	}
	return hex.EncodeToString(h.Sum(nil))[:12]
}

// Config controls synthetic data generation.
type Config struct {
	// Seed initializes the random source. The same seed always
	// reproduces the same observation set.
	Seed uint64 `json:"seed"`

	// Count is the number of observations to draw. Must be positive.
	Count int `json:"count"`

	// TMin and TMax bound the time domain. Times are drawn uniformly
	// on [TMin, TMax) and sorted ascending.
	TMin float64 `json:"t_min"`
	TMax float64 `json:"t_max"`

	// Noise is the Gaussian measurement noise standard deviation.
	// Must be positive.
	Noise float64 `json:"noise"`

	// Truth holds the ground-truth parameters, ordered per the
	// generating model's ParamNames.
	Truth []float64 `json:"truth"`
}

// Validate checks the configuration against the generating model.
//
// Outputs:
//
//	error - Non-nil with a specific message on the first violated
//	        constraint; generation must not proceed in that case.
func (c Config) Validate(m model.Model) error {
	if c.Count <= 0 {
		return fmt.Errorf("dataset: count must be positive, got %d", c.Count)
	}
	if c.Noise <= 0 {
		return fmt.Errorf("dataset: noise must be positive, got %g", c.Noise)
	}
	if c.TMax <= c.TMin {
		return fmt.Errorf("dataset: time domain [%g, %g) is empty", c.TMin, c.TMax)
	}
	if len(c.Truth) != m.Dim() {
		return fmt.Errorf("dataset: model %s expects %d truth parameters, got %d",
			m.Name(), m.Dim(), len(c.Truth))
	}
	return nil
}

// Generate produces a synthetic observation set from the ground-truth
// model.
//
// Description:
//
//	Draws Count observation times uniformly on the configured domain,
//	sorts them ascending, and sets each value to the model prediction
//	at the true parameters plus Gaussian noise. All randomness comes
//	from a PCG source seeded with cfg.Seed, so generation is fully
//	deterministic: equal configs yield bit-identical sets.
//
// Inputs:
//
//	cfg - Generation parameters. Validated before any drawing happens.
//	m   - Ground-truth model; cfg.Truth must match its dimensionality.
//
// Outputs:
//
//	*Observations - The generated set.
//	error         - Non-nil if cfg is invalid.
func Generate(cfg Config, m model.Model) (*Observations, error) {
	if err := cfg.Validate(m); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	uni := distuv.Uniform{Min: cfg.TMin, Max: cfg.TMax, Src: rng}
	times := make([]float64, cfg.Count)
	for i := range times {
		times[i] = uni.Rand()
	}
	sort.Float64s(times)

	obs := &Observations{
		Times:  times,
		Values: m.EvalAll(cfg.Truth, times, nil),
		Noise:  cfg.Noise,
	}

	norm := distuv.Normal{Mu: 0, Sigma: cfg.Noise, Src: rng}
	for i := range obs.Values {
		obs.Values[i] += norm.Rand()
	}
	return obs, nil
}
