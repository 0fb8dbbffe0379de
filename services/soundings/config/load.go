// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Evidence rung chains default to shorter runs than the fit chain;
// the ladder multiplies everything by the rung count.
const (
	defaultEvidenceSteps  = 1500
	defaultEvidenceBurnIn = 500
)

// Default returns the built-in demonstration experiment: a noisy
// sinusoid fitted by the periodic model and challenged by the constant
// model.
func Default() Experiment {
	e := Experiment{
		Name: "sine-demo",
		Seed: 42,
		Data: DataConfig{
			Model: "periodic",
			Count: 50,
			TMin:  0,
			TMax:  10,
			Noise: 1.0,
			Truth: map[string]float64{
				"amplitude": 1.0,
				"offset":    1.0,
				"period":    3.0,
				"phase":     0.0,
			},
		},
		Models: []ModelConfig{
			{
				Name: "periodic",
				Priors: map[string]Bound{
					"amplitude": {Min: 0.1, Max: 10},
					"offset":    {Min: -10, Max: 10},
					"period":    {Min: 0.1, Max: 10},
					"phase":     {Min: 0, Max: 2 * math.Pi},
				},
			},
			{
				Name: "constant",
				Priors: map[string]Bound{
					"offset": {Min: -10, Max: 10},
				},
			},
		},
	}
	e.ApplyDefaults()
	return e
}

// Load reads, defaults and validates an experiment file.
//
// Unknown YAML keys are rejected so a misspelled field fails loudly
// instead of silently falling back to a default.
func Load(path string) (*Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read experiment %s: %w", path, err)
	}

	var e Experiment
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&e); err != nil {
		return nil, fmt.Errorf("parse experiment %s: %w", path, err)
	}

	e.ApplyDefaults()
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("experiment %s: %w", path, err)
	}
	return &e, nil
}

// Save writes the experiment as YAML, creating parent directories as
// needed.
func (e *Experiment) Save(path string) error {
	data, err := yaml.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal experiment: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create experiment directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write experiment %s: %w", path, err)
	}
	return nil
}
