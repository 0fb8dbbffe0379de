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
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/AleutianAI/soundings/pkg/ux"
	"github.com/AleutianAI/soundings/pkg/validation"
	"github.com/AleutianAI/soundings/services/soundings/config"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	initOutput   string // Where to write the experiment file
	initForce    bool   // Overwrite an existing file
	initDefaults bool   // Skip the wizard and accept all defaults
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// initCmd scaffolds an experiment file.
//
// # Description
//
// Walks through the experiment settings interactively and writes them
// as YAML. In a non-interactive terminal, with --defaults, or in
// machine personality, the wizard is skipped and the default sine
// demo experiment is written as-is.
//
// # Examples
//
//	soundings init                   # Interactive wizard
//	soundings init --defaults        # Write the default experiment
//	soundings init -o custom.yaml    # Choose the output path
//
// # Exit Codes
//
//	0 - Success
//	1 - Write failed or wizard aborted
//	2 - Invalid arguments
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold an experiment file",
	Long: `Initialize a new experiment file.

The wizard asks for the experiment name, seed, dataset size, noise
level, models and sampler budget, then writes the result as YAML.
Everything it asks for can be edited in the file afterwards.

Examples:
  soundings init                   # Interactive wizard
  soundings init --defaults        # Write the default sine demo
  soundings init -o custom.yaml    # Choose the output path`,
	Args: cobra.NoArgs,
	Run:  runInitCommand,
}

// =============================================================================
// COMMAND INITIALIZATION
// =============================================================================

func init() {
	initCmd.Flags().StringVarP(&initOutput, "output", "o", "soundings.yaml",
		"Where to write the experiment file")
	initCmd.Flags().BoolVar(&initForce, "force", false,
		"Overwrite an existing file")
	initCmd.Flags().BoolVar(&initDefaults, "defaults", false,
		"Skip the wizard and accept all defaults")
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runInitCommand(cmd *cobra.Command, _ []string) {
	if _, err := os.Stat(initOutput); err == nil && !initForce {
		fail(badArgs("%s already exists (use --force to overwrite)", initOutput))
	}

	exp := config.Default()
	if !initDefaults && ux.IsInteractive() {
		if err := promptExperiment(&exp); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				ux.Warning("Init cancelled, nothing written")
				closeLogging()
				os.Exit(ExitFailure)
			}
			fail(err)
		}
	}

	if err := exp.Validate(); err != nil {
		fail(fmt.Errorf("experiment invalid: %w", err))
	}
	if err := exp.Save(initOutput); err != nil {
		fail(fmt.Errorf("write %s: %w", initOutput, err))
	}

	ux.Success(fmt.Sprintf("Wrote %s (experiment %q, seed %d)", initOutput, exp.Name, exp.Seed))
	ux.Tip(fmt.Sprintf("Take the first sounding with 'soundings fit -c %s'", initOutput))
}

// promptExperiment walks the wizard and writes the answers into exp.
// Numeric answers are collected as strings and validated before the
// form accepts them, so the conversions below cannot fail.
func promptExperiment(exp *config.Experiment) error {
	name := exp.Name
	seed := strconv.FormatUint(exp.Seed, 10)
	count := strconv.Itoa(exp.Data.Count)
	noise := strconv.FormatFloat(exp.Data.Noise, 'g', -1, 64)
	steps := strconv.Itoa(exp.Sampler.Steps)
	models := "both"
	outDir := exp.Output.Dir

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Experiment name").
				Description("Used in run records and artifact directories.").
				Value(&name).
				Validate(validateName),
			huh.NewInput().
				Title("Random seed").
				Description("The same seed always reproduces the same dataset.").
				Value(&seed).
				Validate(validateSeed),
			huh.NewInput().
				Title("Observations").
				Description("How many noisy measurements to draw.").
				Value(&count).
				Validate(validateObservations),
			huh.NewInput().
				Title("Noise sigma").
				Description("Standard deviation of the measurement noise.").
				Value(&noise).
				Validate(validateSigma),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Models").
				Description("Which models compete for the data.").
				Options(
					huh.NewOption("periodic and constant", "both"),
					huh.NewOption("periodic only", "periodic"),
					huh.NewOption("constant only", "constant"),
				).
				Value(&models),
			huh.NewInput().
				Title("Sampler steps").
				Description("MCMC steps per walker, including burn-in.").
				Value(&steps).
				Validate(validateSteps),
			huh.NewInput().
				Title("Artifact directory").
				Value(&outDir),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	exp.Name, _ = validation.SanitizeExperimentName(name)
	exp.Seed, _ = strconv.ParseUint(strings.TrimSpace(seed), 10, 64)
	exp.Data.Count, _ = strconv.Atoi(strings.TrimSpace(count))
	exp.Data.Noise, _ = strconv.ParseFloat(strings.TrimSpace(noise), 64)
	exp.Sampler.Steps, _ = strconv.Atoi(strings.TrimSpace(steps))
	exp.Output.Dir = strings.TrimSpace(outDir)
	applyModelChoice(exp, models)
	return nil
}

// applyModelChoice narrows the experiment's models to the wizard's
// selection. "both" and unknown values keep the default set.
func applyModelChoice(exp *config.Experiment, choice string) {
	switch choice {
	case "periodic", "constant":
		if mc, ok := exp.Model(choice); ok {
			exp.Models = []config.ModelConfig{mc}
		}
	}
}

// =============================================================================
// WIZARD VALIDATORS
// =============================================================================

// validateName accepts anything SanitizeExperimentName can normalize, so
// typing "Sine-Demo " works; the sanitized form is what gets stored.
func validateName(s string) error {
	_, err := validation.SanitizeExperimentName(s)
	return err
}

func validateSeed(s string) error {
	if _, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64); err != nil {
		return errors.New("enter a non-negative integer")
	}
	return nil
}

func validateObservations(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 2 {
		return errors.New("enter an integer of at least 2")
	}
	return nil
}

func validateSigma(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !(v > 0) {
		return errors.New("enter a positive number")
	}
	return nil
}

func validateSteps(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 10 {
		return errors.New("enter an integer of at least 10")
	}
	return nil
}
