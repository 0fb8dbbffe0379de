// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config defines the experiment schema: which model generated
// the data, which models to fit, their prior boxes, and how hard to
// sample. Experiments are plain YAML files so they can live next to
// their outputs and be diffed.
//
// The schema maps onto the domain packages through resolution methods
// (DatasetConfig, Prior, SamplerConfig, EvidenceConfig) rather than
// being consumed field by field; Validate is implemented as a full dry
// resolution, so an experiment that validates will also resolve.
package config

import (
	"fmt"
	"math"
	"slices"

	"github.com/AleutianAI/soundings/pkg/validation"
	"github.com/AleutianAI/soundings/services/soundings/dataset"
	"github.com/AleutianAI/soundings/services/soundings/evidence"
	"github.com/AleutianAI/soundings/services/soundings/model"
	"github.com/AleutianAI/soundings/services/soundings/prob"
	"github.com/AleutianAI/soundings/services/soundings/sampler"
)

// Experiment is one complete model-comparison setup.
type Experiment struct {
	// Name identifies the experiment in run records and artifact paths.
	Name string `yaml:"name" json:"name"`

	// Seed drives every random draw in the experiment: data generation,
	// walker seeding and sampling all derive their streams from it.
	Seed uint64 `yaml:"seed" json:"seed"`

	// Data describes the synthetic observation set.
	Data DataConfig `yaml:"data" json:"data"`

	// Models lists the candidate models to fit and compare.
	Models []ModelConfig `yaml:"models" json:"models"`

	// Sampler sizes the posterior fit chains.
	Sampler SamplerConfig `yaml:"sampler" json:"sampler"`

	// Evidence sizes the thermodynamic integration ladder.
	Evidence EvidenceConfig `yaml:"evidence" json:"evidence"`

	// Output controls where and in which formats artifacts land.
	Output OutputConfig `yaml:"output" json:"output"`
}

// DataConfig describes the synthetic observation set.
type DataConfig struct {
	// Model names the generating model; its parameters are Truth.
	Model string `yaml:"model" json:"model"`

	// Count is the number of observations.
	Count int `yaml:"count" json:"count"`

	// TMin and TMax bound the observation time domain.
	TMin float64 `yaml:"t_min" json:"t_min"`
	TMax float64 `yaml:"t_max" json:"t_max"`

	// Noise is the Gaussian measurement noise standard deviation.
	Noise float64 `yaml:"noise" json:"noise"`

	// Truth maps parameter names of the generating model to their true
	// values.
	Truth map[string]float64 `yaml:"truth" json:"truth"`
}

// ModelConfig is one candidate model plus its prior box.
type ModelConfig struct {
	// Name must match a registered model.
	Name string `yaml:"name" json:"name"`

	// Priors maps each of the model's parameters to its uniform bounds.
	// The map must cover the model's parameter list exactly.
	Priors map[string]Bound `yaml:"priors" json:"priors"`
}

// Bound is a closed uniform prior interval.
type Bound struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// SamplerConfig sizes the posterior fit chains.
type SamplerConfig struct {
	Walkers   int     `yaml:"walkers" json:"walkers"`
	Steps     int     `yaml:"steps" json:"steps"`
	BurnIn    int     `yaml:"burn_in" json:"burn_in"`
	StepScale float64 `yaml:"step_scale" json:"step_scale"`
}

// EvidenceConfig sizes the thermodynamic integration run. Rungs and
// Gamma shape the ladder; Steps and BurnIn size each rung's chain,
// which is usually shorter than the fit chain.
type EvidenceConfig struct {
	Rungs  int     `yaml:"rungs" json:"rungs"`
	Gamma  float64 `yaml:"gamma" json:"gamma"`
	Steps  int     `yaml:"steps" json:"steps"`
	BurnIn int     `yaml:"burn_in" json:"burn_in"`
	Thin   int     `yaml:"thin" json:"thin"`
}

// OutputConfig controls artifact placement.
type OutputConfig struct {
	// Dir is the artifact directory, created on demand.
	Dir string `yaml:"dir" json:"dir"`

	// Formats selects artifact classes: "png" for plots, "csv" for the
	// dataset, "json" for the run record export. Empty means all.
	Formats []string `yaml:"formats,omitempty" json:"formats,omitempty"`
}

var knownFormats = []string{"csv", "json", "png"}

// WantsFormat reports whether the experiment asks for artifacts of the
// given format.
func (o OutputConfig) WantsFormat(format string) bool {
	if len(o.Formats) == 0 {
		return true
	}
	return slices.Contains(o.Formats, format)
}

// ApplyDefaults fills unset sizing fields with package defaults. Called
// by Load before validation; explicit zero values for required fields
// (count, noise, bounds) stay invalid.
func (e *Experiment) ApplyDefaults() {
	if e.Sampler.Walkers == 0 {
		e.Sampler.Walkers = sampler.DefaultWalkers
	}
	if e.Sampler.Steps == 0 {
		e.Sampler.Steps = sampler.DefaultSteps
	}
	if e.Sampler.BurnIn == 0 {
		e.Sampler.BurnIn = sampler.DefaultBurnIn
	}
	if e.Sampler.StepScale == 0 {
		e.Sampler.StepScale = sampler.DefaultStepScale
	}
	if e.Evidence.Rungs == 0 {
		e.Evidence.Rungs = evidence.DefaultRungs
	}
	if e.Evidence.Gamma == 0 {
		e.Evidence.Gamma = evidence.DefaultGamma
	}
	if e.Evidence.Steps == 0 {
		e.Evidence.Steps = defaultEvidenceSteps
	}
	if e.Evidence.BurnIn == 0 {
		e.Evidence.BurnIn = defaultEvidenceBurnIn
	}
	if e.Evidence.Thin == 0 {
		e.Evidence.Thin = 1
	}
	if e.Output.Dir == "" {
		e.Output.Dir = "out"
	}
}

// Validate checks the experiment by resolving every section against the
// model registry and the domain packages.
//
// Outputs:
//
//	error - Non-nil with a path-qualified message on the first violated
//	        constraint.
func (e *Experiment) Validate() error {
	if err := validation.ValidateExperimentName(e.Name); err != nil {
		return err
	}

	if _, _, err := e.DatasetConfig(); err != nil {
		return err
	}

	if len(e.Models) == 0 {
		return fmt.Errorf("models: at least one model is required")
	}
	seen := make(map[string]bool, len(e.Models))
	for i, mc := range e.Models {
		if seen[mc.Name] {
			return fmt.Errorf("models[%d]: duplicate model %q", i, mc.Name)
		}
		seen[mc.Name] = true

		m, err := mc.Resolve()
		if err != nil {
			return fmt.Errorf("models[%d]: %w", i, err)
		}
		if _, err := mc.Prior(m); err != nil {
			return fmt.Errorf("models[%d]: %w", i, err)
		}
	}

	if err := e.SamplerConfig().Validate(); err != nil {
		return fmt.Errorf("sampler: %w", err)
	}
	if _, err := e.EvidenceConfig(); err != nil {
		return fmt.Errorf("evidence: %w", err)
	}

	if e.Output.Dir == "" {
		return fmt.Errorf("output: dir must not be empty")
	}
	for _, f := range e.Output.Formats {
		if !slices.Contains(knownFormats, f) {
			return fmt.Errorf("output: unknown format %q (known: %v)", f, knownFormats)
		}
	}
	return nil
}

// Model returns the configuration entry for the named model.
func (e *Experiment) Model(name string) (ModelConfig, bool) {
	for _, mc := range e.Models {
		if mc.Name == name {
			return mc, true
		}
	}
	return ModelConfig{}, false
}

// Resolve looks the model up in the registry.
func (mc ModelConfig) Resolve() (model.Model, error) {
	return model.Lookup(mc.Name)
}

// Prior builds the model's uniform prior with bounds ordered per its
// parameter list. The Priors map must cover the parameters exactly.
func (mc ModelConfig) Prior(m model.Model) (*prob.UniformPrior, error) {
	names := m.ParamNames()
	lower := make([]float64, len(names))
	upper := make([]float64, len(names))
	for d, name := range names {
		b, ok := mc.Priors[name]
		if !ok {
			return nil, fmt.Errorf("priors: missing bounds for %q (model %s needs %v)",
				name, m.Name(), names)
		}
		if math.IsNaN(b.Min) || math.IsInf(b.Min, 0) || math.IsNaN(b.Max) || math.IsInf(b.Max, 0) {
			return nil, fmt.Errorf("priors: bounds for %q must be finite, got [%g, %g]",
				name, b.Min, b.Max)
		}
		lower[d], upper[d] = b.Min, b.Max
	}
	if len(mc.Priors) != len(names) {
		for name := range mc.Priors {
			if !slices.Contains(names, name) {
				return nil, fmt.Errorf("priors: %q is not a parameter of model %s (has %v)",
					name, m.Name(), names)
			}
		}
	}
	return prob.NewUniformPrior(lower, upper)
}

// DatasetConfig resolves the data section into a generator
// configuration plus the generating model.
func (e *Experiment) DatasetConfig() (dataset.Config, model.Model, error) {
	m, err := model.Lookup(e.Data.Model)
	if err != nil {
		return dataset.Config{}, nil, fmt.Errorf("data: %w", err)
	}

	names := m.ParamNames()
	truth := make([]float64, len(names))
	for d, name := range names {
		v, ok := e.Data.Truth[name]
		if !ok {
			return dataset.Config{}, nil, fmt.Errorf("data: missing truth value for %q (model %s needs %v)",
				name, m.Name(), names)
		}
		truth[d] = v
	}
	if len(e.Data.Truth) != len(names) {
		for name := range e.Data.Truth {
			if !slices.Contains(names, name) {
				return dataset.Config{}, nil, fmt.Errorf("data: %q is not a parameter of model %s (has %v)",
					name, m.Name(), names)
			}
		}
	}

	cfg := dataset.Config{
		Seed:  e.Seed,
		Count: e.Data.Count,
		TMin:  e.Data.TMin,
		TMax:  e.Data.TMax,
		Noise: e.Data.Noise,
		Truth: truth,
	}
	if err := cfg.Validate(m); err != nil {
		return dataset.Config{}, nil, err
	}
	return cfg, m, nil
}

// SamplerConfig maps the sampler section onto the sampler package,
// carrying the experiment seed.
func (e *Experiment) SamplerConfig() sampler.Config {
	return sampler.Config{
		Walkers:   e.Sampler.Walkers,
		Steps:     e.Sampler.Steps,
		BurnIn:    e.Sampler.BurnIn,
		StepScale: e.Sampler.StepScale,
		Seed:      e.Seed,
	}
}

// EvidenceConfig maps the evidence section onto the evidence package.
// Rung chains reuse the fit walker count and step scale but their own
// length, and share the experiment seed; the estimator offsets it per
// rung. Running both models off the same streams makes their evidence
// estimates share proposal noise, which tightens the Bayes factor the
// same way common random numbers tighten any paired comparison.
func (e *Experiment) EvidenceConfig() (evidence.Config, error) {
	lad, err := evidence.Geometric(e.Evidence.Rungs, e.Evidence.Gamma)
	if err != nil {
		return evidence.Config{}, err
	}
	cfg := evidence.Config{
		Sampler: sampler.Config{
			Walkers:   e.Sampler.Walkers,
			Steps:     e.Evidence.Steps,
			BurnIn:    e.Evidence.BurnIn,
			StepScale: e.Sampler.StepScale,
			Seed:      e.Seed,
		},
		Ladder: lad,
		Thin:   e.Evidence.Thin,
	}
	if err := cfg.Validate(); err != nil {
		return evidence.Config{}, err
	}
	return cfg, nil
}
