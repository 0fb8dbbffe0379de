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
	"fmt"
	"os"
	"time"

	cliconfig "github.com/AleutianAI/soundings/cmd/soundings/config"
	"github.com/AleutianAI/soundings/pkg/ux"
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	personalityLevel string        // UX personality level (full/standard/minimal/machine)
	noColor          bool          // strip ANSI styling from every command
	storeDir         string        // run database directory override
	logLevel         string        // console/file log level override
	jsonLogs         bool          // console logs as JSON
	quietLogs        bool          // drop the console log handler
	traceExporter    string        // telemetry trace exporter override
	metricsExporter  string        // telemetry metric exporter override
	experimentFile   string        // experiment definition file, shared by the pipeline commands
	outputDir        string        // artifact directory override
	fitModel         string        // fit: restrict the run to one model
	jsonOutput       bool          // structured output for runs/models
	deleteForce      bool          // runs delete: skip the confirmation prompt
	watchDebounce    time.Duration // watch: quiet period before a refit
	watchServe       string        // watch: Prometheus listen address, empty disables
	watchCompare     bool          // watch: run comparisons instead of fits

	rootCmd = &cobra.Command{
		Use:   "soundings",
		Short: "A cli for Bayesian model comparison on small time-series datasets",
		Long: `Soundings generates reproducible synthetic datasets, fits models
				to them with MCMC, and grades competing models by their
				evidence. Every fit is recorded in a local run database so
				results stay inspectable after the terminal scrolls away.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := cliconfig.Load(); err != nil {
				fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
				os.Exit(ExitFailure)
			}
			// Flag overrides beat the workbench config for this invocation.
			if storeDir != "" {
				cliconfig.Global.Store.Dir = storeDir
			}
			if logLevel != "" {
				cliconfig.Global.Logging.Level = logLevel
			}
			if jsonLogs {
				cliconfig.Global.Logging.JSON = true
			}
			if traceExporter != "" {
				cliconfig.Global.Telemetry.TraceExporter = traceExporter
			}
			if metricsExporter != "" {
				cliconfig.Global.Telemetry.MetricExporter = metricsExporter
			}
			// Personality precedence: flag, then environment, then the
			// workbench config, then terminal detection.
			switch {
			case personalityLevel != "":
				ux.SetPersonalityLevel(ux.ParsePersonalityLevel(personalityLevel))
			case os.Getenv("SOUNDINGS_PERSONALITY") == "" && cliconfig.Global.UX.Personality != "":
				ux.SetPersonalityLevel(ux.ParsePersonalityLevel(cliconfig.Global.UX.Personality))
			default:
				ux.InitPersonality()
			}
			if noColor || cliconfig.Global.UX.NoColor || os.Getenv("NO_COLOR") != "" {
				ux.SetNoColor(true)
			}
			initLogging()
		},
	}

	// --- Dataset ---
	generateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Generate the synthetic dataset for an experiment",
		Args:  cobra.NoArgs,
		Run:   runGenerate, // Defined in cmd_generate.go
	}

	// --- Pipelines ---
	fitCmd = &cobra.Command{
		Use:   "fit",
		Short: "Fit the experiment's models and render diagnostics",
		Args:  cobra.NoArgs,
		Run:   runFit, // Defined in cmd_fit.go
	}
	compareCmd = &cobra.Command{
		Use:   "compare",
		Short: "Grade two models against each other by evidence",
		Args:  cobra.NoArgs,
		Run:   runCompare, // Defined in cmd_compare.go
	}

	// --- Runs ---
	runsCmd = &cobra.Command{
		Use:   "runs",
		Short: "Inspect and manage recorded runs",
	}
	runsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		Run:   runRunsList, // Defined in cmd_runs.go
	}
	runsShowCmd = &cobra.Command{
		Use:   "show [run-id]",
		Short: "Show one run's results, verdict and artifacts",
		Args:  cobra.ExactArgs(1),
		Run:   runRunsShow, // Defined in cmd_runs.go
	}
	runsDeleteCmd = &cobra.Command{
		Use:   "delete [run-id]",
		Short: "Delete a run record and its stored chains",
		Args:  cobra.ExactArgs(1),
		Run:   runRunsDelete, // Defined in cmd_runs.go
	}

	// --- Reporting ---
	reportCmd = &cobra.Command{
		Use:   "report [run-id]",
		Short: "Re-render every artifact of a stored run",
		Long: `Report regenerates the plots of a recorded run from its stored
				chains and experiment snapshot, without re-sampling. Useful
				after deleting artifacts or to render into a fresh directory.`,
		Args: cobra.ExactArgs(1),
		Run:  runReport, // Defined in cmd_report.go
	}

	// --- Watch ---
	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Watch an experiment file and refit on every change",
		Args:  cobra.NoArgs,
		Run:   runWatch, // Defined in cmd_watch.go
	}

	// --- Models ---
	modelsCmd = &cobra.Command{
		Use:   "models",
		Short: "List the registered models and their parameters",
		Args:  cobra.NoArgs,
		Run:   runModels, // Defined in cmd_models.go
	}
)

// init runs when the Go program starts
func init() {
	// Global UX flags
	rootCmd.PersistentFlags().StringVar(&personalityLevel, "personality", "",
		"Output style: full (default, rich nautical), standard, minimal, or machine (scripting)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"Disable ANSI colors (the NO_COLOR environment variable works too)")

	// Workbench config overrides
	rootCmd.PersistentFlags().StringVar(&storeDir, "store", "",
		"Run database directory (overrides the workbench config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false,
		"Write console logs as JSON")
	rootCmd.PersistentFlags().BoolVar(&quietLogs, "quiet", false,
		"Suppress console logs (file logs are kept)")
	rootCmd.PersistentFlags().StringVar(&traceExporter, "trace-exporter", "",
		"Trace exporter: none, stdout or otlp")
	rootCmd.PersistentFlags().StringVar(&metricsExporter, "metrics-exporter", "",
		"Metric exporter: none, stdout or prometheus")

	rootCmd.AddCommand(initCmd) // Defined in cmd_init.go

	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVarP(&experimentFile, "config", "c", "soundings.yaml",
		"Experiment definition file")
	generateCmd.Flags().StringVar(&outputDir, "out", "",
		"Artifact directory (overrides the experiment's output.dir)")

	rootCmd.AddCommand(fitCmd)
	fitCmd.Flags().StringVarP(&experimentFile, "config", "c", "soundings.yaml",
		"Experiment definition file")
	fitCmd.Flags().StringVar(&fitModel, "model", "",
		"Fit only the named model")
	fitCmd.Flags().StringVar(&outputDir, "out", "",
		"Artifact directory (overrides the experiment's output.dir)")

	rootCmd.AddCommand(compareCmd)
	compareCmd.Flags().StringVarP(&experimentFile, "config", "c", "soundings.yaml",
		"Experiment definition file")
	compareCmd.Flags().StringVar(&outputDir, "out", "",
		"Artifact directory (overrides the experiment's output.dir)")

	// runs commands
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsListCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON for scripting")
	runsCmd.AddCommand(runsShowCmd)
	runsShowCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON for scripting")
	runsCmd.AddCommand(runsDeleteCmd)
	runsDeleteCmd.Flags().BoolVar(&deleteForce, "force", false,
		"Delete without asking for confirmation")

	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&outputDir, "out", "",
		"Render into this directory instead of the run's recorded one")

	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVarP(&experimentFile, "config", "c", "soundings.yaml",
		"Experiment definition file to watch")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0,
		"Quiet period after a change before refitting (default 250ms)")
	watchCmd.Flags().StringVar(&watchServe, "serve", "",
		"Serve Prometheus metrics on this address (e.g. :9113)")
	watchCmd.Flags().BoolVar(&watchCompare, "compare", false,
		"Run an evidence comparison instead of a fit on each change")

	rootCmd.AddCommand(modelsCmd)
	modelsCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON for scripting")
}
