// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// generate_model_docs generates a markdown reference for the registered
// models from the model registry and the default experiment.
//
// Usage:
//
//	go run scripts/generate_model_docs.go > docs/model_reference.md
//
// The generated documentation includes:
//   - The full model inventory with dimensions and parameters
//   - Default prior bounds per model
//   - The default experiment's generating truth
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/AleutianAI/soundings/services/soundings/config"
	"github.com/AleutianAI/soundings/services/soundings/model"
)

func main() {
	names := model.Names()
	if len(names) == 0 {
		fmt.Fprintln(os.Stderr, "Error: the model registry is empty")
		os.Exit(1)
	}

	generateMarkdown(names, config.Default())
}

// generateMarkdown outputs the full markdown documentation.
func generateMarkdown(names []string, exp config.Experiment) {
	fmt.Println("# Model Reference")
	fmt.Println()
	fmt.Println("## Overview")
	fmt.Println()
	fmt.Println("This document lists every model the soundings CLI can fit and compare.")
	fmt.Println("Models register themselves in `services/soundings/model`; prior bounds")
	fmt.Println("shown here come from the default experiment that `soundings init` writes.")
	fmt.Println()
	fmt.Printf("**Generated:** %s\n", time.Now().Format("2006-01-02 15:04:05 UTC"))
	fmt.Println()

	// Statistics
	totalParams := 0
	for _, name := range names {
		if m, err := model.Lookup(name); err == nil {
			totalParams += m.Dim()
		}
	}

	fmt.Println("## Summary Statistics")
	fmt.Println()
	fmt.Println("| Metric | Count |")
	fmt.Println("|--------|-------|")
	fmt.Printf("| Registered Models | %d |\n", len(names))
	fmt.Printf("| Total Parameters | %d |\n", totalParams)
	fmt.Println()

	// Quick reference table
	fmt.Println("## Quick Reference")
	fmt.Println()
	fmt.Println("| Model | Dimension | Parameters |")
	fmt.Println("|-------|-----------|------------|")
	for _, name := range names {
		m, err := model.Lookup(name)
		if err != nil {
			continue
		}
		fmt.Printf("| `%s` | %d | %s |\n",
			m.Name(), m.Dim(), strings.Join(m.ParamNames(), ", "))
	}
	fmt.Println()

	// Detailed sections per model
	fmt.Println("---")
	fmt.Println()
	for _, name := range names {
		m, err := model.Lookup(name)
		if err != nil {
			continue
		}
		printModelDetails(m, exp)
	}

	// Default experiment
	fmt.Println("---")
	fmt.Println()
	fmt.Println("## Default Experiment")
	fmt.Println()
	fmt.Printf("The scaffolded experiment %q generates its data from the `%s` model.\n",
		exp.Name, exp.Data.Model)
	fmt.Println()
	fmt.Println("| Setting | Value |")
	fmt.Println("|---------|-------|")
	fmt.Printf("| Seed | %d |\n", exp.Seed)
	fmt.Printf("| Observations | %d |\n", exp.Data.Count)
	fmt.Printf("| Time domain | [%g, %g] |\n", exp.Data.TMin, exp.Data.TMax)
	fmt.Printf("| Noise sigma | %g |\n", exp.Data.Noise)
	fmt.Println()

	// Footer
	fmt.Println("---")
	fmt.Println()
	fmt.Println("*This document is auto-generated from the model registry.*")
	fmt.Println()
	fmt.Println("*To regenerate: `go run scripts/generate_model_docs.go > docs/model_reference.md`*")
}

// printModelDetails prints detailed information for a single model.
func printModelDetails(m model.Model, exp config.Experiment) {
	fmt.Printf("## `%s`\n", m.Name())
	fmt.Println()

	mc, hasPriors := exp.Model(m.Name())
	generating := exp.Data.Model == m.Name()

	fmt.Println("| Parameter | Default Prior | Default Truth |")
	fmt.Println("|-----------|---------------|---------------|")
	for _, param := range m.ParamNames() {
		prior := "-"
		if hasPriors {
			if b, ok := mc.Priors[param]; ok {
				prior = fmt.Sprintf("[%g, %g]", b.Min, b.Max)
			}
		}
		truth := "-"
		if generating {
			if v, ok := exp.Data.Truth[param]; ok {
				truth = fmt.Sprintf("%g", v)
			}
		}
		fmt.Printf("| `%s` | %s | %s |\n", param, prior, truth)
	}
	fmt.Println()
}
