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
	"log/slog"
	"os"

	cliconfig "github.com/AleutianAI/soundings/cmd/soundings/config"
	"github.com/AleutianAI/soundings/pkg/logging"
	"github.com/AleutianAI/soundings/pkg/ux"
)

// appLogger backs slog for the lifetime of the process. Closed on every
// exit path so file logs are flushed.
var appLogger *logging.Logger

func main() {
	// Execute the root command. Cobra handles parsing the arguments.
	if err := rootCmd.Execute(); err != nil {
		closeLogging()
		os.Exit(ExitFailure)
	}
	closeLogging()
}

// initLogging routes slog through the workbench logger. A bad level in
// the config falls back to warn rather than failing the command.
func initLogging() {
	cfg := cliconfig.Global.Logging
	level := logging.LevelWarn
	if cfg.Level != "" {
		if parsed, err := logging.ParseLevel(cfg.Level); err == nil {
			level = parsed
		}
	}
	appLogger = logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Dir,
		Service: "cli",
		JSON:    cfg.JSON,
		// Machine consumers parse stdout; keep stderr clear of logs.
		// File logs still carry the details.
		Quiet: quietLogs || ux.GetPersonality().Level == ux.PersonalityMachine,
	})
	slog.SetDefault(appLogger.Slog())
}

func closeLogging() {
	if appLogger != nil {
		_ = appLogger.Close()
	}
}
