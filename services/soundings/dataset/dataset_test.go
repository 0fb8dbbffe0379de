// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dataset

import (
	"bytes"
	"math"
	"testing"

	"github.com/AleutianAI/soundings/services/soundings/model"
)

// demoConfig is the reference scenario used across the test suite:
// 50 observations of a unit-amplitude sinusoid with period 3, offset 1,
// zero phase, unit noise, seed 42.
func demoConfig() Config {
	return Config{
		Seed:  42,
		Count: 50,
		TMin:  0,
		TMax:  10,
		Noise: 1.0,
		Truth: []float64{1.0, 1.0, 3.0, 0.0},
	}
}

func TestGenerateDeterministic(t *testing.T) {
	cfg := demoConfig()

	a, err := Generate(cfg, model.Periodic{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := Generate(cfg, model.Periodic{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if a.Len() != cfg.Count || b.Len() != cfg.Count {
		t.Fatalf("Len = %d/%d, want %d", a.Len(), b.Len(), cfg.Count)
	}
	for i := range a.Times {
		if a.Times[i] != b.Times[i] || a.Values[i] != b.Values[i] {
			t.Fatalf("observation %d differs between identical seeds: (%v,%v) vs (%v,%v)",
				i, a.Times[i], a.Values[i], b.Times[i], b.Values[i])
		}
	}
	if a.Digest() != b.Digest() {
		t.Errorf("digests differ for identical sets: %s vs %s", a.Digest(), b.Digest())
	}
}

func TestGenerateSeedChangesData(t *testing.T) {
	cfg := demoConfig()
	a, err := Generate(cfg, model.Periodic{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	cfg.Seed = 43
	b, err := Generate(cfg, model.Periodic{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if a.Digest() == b.Digest() {
		t.Error("different seeds produced identical observation sets")
	}
}

func TestGenerateTimesSortedInDomain(t *testing.T) {
	obs, err := Generate(demoConfig(), model.Periodic{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for i, tv := range obs.Times {
		if tv < 0 || tv >= 10 {
			t.Errorf("time %d = %v outside [0, 10)", i, tv)
		}
		if i > 0 && obs.Times[i-1] > tv {
			t.Errorf("times not sorted at %d: %v > %v", i, obs.Times[i-1], tv)
		}
	}
}

// TestGenerateNoiseScale draws a large set and checks the residuals
// about the true curve have roughly the configured spread.
func TestGenerateNoiseScale(t *testing.T) {
	cfg := demoConfig()
	cfg.Count = 4000
	obs, err := Generate(cfg, model.Periodic{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	truth := model.Periodic{}.EvalAll(cfg.Truth, obs.Times, nil)
	var sumSq float64
	for i := range obs.Values {
		r := obs.Values[i] - truth[i]
		sumSq += r * r
	}
	sd := math.Sqrt(sumSq / float64(cfg.Count))
	if sd < 0.9 || sd > 1.1 {
		t.Errorf("residual stddev = %v, want within 10%% of 1.0", sd)
	}
}

func TestGenerateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "zero count", mutate: func(c *Config) { c.Count = 0 }},
		{name: "negative count", mutate: func(c *Config) { c.Count = -5 }},
		{name: "zero noise", mutate: func(c *Config) { c.Noise = 0 }},
		{name: "empty domain", mutate: func(c *Config) { c.TMax = c.TMin }},
		{name: "truth dim mismatch", mutate: func(c *Config) { c.Truth = []float64{1.0} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := demoConfig()
			tt.mutate(&cfg)
			if _, err := Generate(cfg, model.Periodic{}); err == nil {
				t.Error("Generate accepted invalid config")
			}
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	obs, err := Generate(demoConfig(), model.Periodic{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	c := obs.Clone()
	c.Values[0] += 100
	if obs.Values[0] == c.Values[0] {
		t.Error("Clone shares backing storage with the original")
	}
}

func TestCSVRoundTrip(t *testing.T) {
	obs, err := Generate(demoConfig(), model.Periodic{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var buf bytes.Buffer
	if err := obs.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	back, err := ReadCSV(&buf, obs.Noise)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if back.Len() != obs.Len() {
		t.Fatalf("round trip lost rows: %d vs %d", back.Len(), obs.Len())
	}
	for i := range obs.Times {
		if back.Times[i] != obs.Times[i] || back.Values[i] != obs.Values[i] {
			t.Fatalf("row %d changed in round trip", i)
		}
	}
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		noise float64
	}{
		{name: "bad noise", input: "time,value\n1,2\n", noise: 0},
		{name: "bad header", input: "a,b\n1,2\n", noise: 1},
		{name: "non numeric", input: "time,value\n1,abc\n", noise: 1},
		{name: "empty body", input: "time,value\n", noise: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadCSV(bytes.NewReader([]byte(tt.input)), tt.noise); err == nil {
				t.Error("ReadCSV accepted malformed input")
			}
		})
	}
}
