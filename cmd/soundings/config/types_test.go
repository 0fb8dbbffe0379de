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
	"path/filepath"
	"strings"
	"testing"
)

// TestDefaultConfig verifies the default values.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Store.Dir == "" {
		t.Error("Store.Dir is empty")
	}
	if filepath.Base(cfg.Store.Dir) != "db" {
		t.Errorf("Store.Dir = %q, want it to end in /db", cfg.Store.Dir)
	}
	if cfg.Store.InMemory {
		t.Error("Store.InMemory = true, want persistent storage by default")
	}

	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "warn")
	}
	if filepath.Base(cfg.Logging.Dir) != "logs" {
		t.Errorf("Logging.Dir = %q, want it to end in /logs", cfg.Logging.Dir)
	}
	if cfg.Logging.JSON {
		t.Error("Logging.JSON = true, want text output by default")
	}

	// Telemetry is off by default; a CLI should not phone anywhere
	// unless asked to.
	if cfg.Telemetry.TraceExporter != "none" {
		t.Errorf("Telemetry.TraceExporter = %q, want %q", cfg.Telemetry.TraceExporter, "none")
	}
	if cfg.Telemetry.MetricExporter != "none" {
		t.Errorf("Telemetry.MetricExporter = %q, want %q", cfg.Telemetry.MetricExporter, "none")
	}

	if cfg.UX.Personality != "" {
		t.Errorf("UX.Personality = %q, want empty (defer to environment)", cfg.UX.Personality)
	}
	if cfg.UX.NoColor {
		t.Error("UX.NoColor = true, want color by default")
	}
}

// TestDefaultConfig_SharedBase verifies the store and log directories
// share one base directory.
func TestDefaultConfig_SharedBase(t *testing.T) {
	cfg := DefaultConfig()

	storeBase := filepath.Dir(cfg.Store.Dir)
	logBase := filepath.Dir(cfg.Logging.Dir)
	if storeBase != logBase {
		t.Errorf("store base %q != log base %q", storeBase, logBase)
	}
	if !strings.HasSuffix(storeBase, ".soundings") {
		t.Errorf("base dir = %q, want a .soundings directory", storeBase)
	}
}
