// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config holds the workbench-level CLI configuration: where the
// run database and log files live, how telemetry exports, and the
// default terminal personality. Experiment definitions are separate;
// those live in the file named by --config on each command.
package config

import (
	"os"
	"path/filepath"
)

type SoundingsConfig struct {
	// Store: run database location
	Store StoreConfig `yaml:"store"`

	// Logging: level and file destination for diagnostic logs
	Logging LoggingConfig `yaml:"logging"`

	// Telemetry: trace and metric export
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// UX: default terminal output style
	UX UXConfig `yaml:"ux"`
}

type StoreConfig struct {
	Dir      string `yaml:"dir"`       // e.g. ~/.soundings/db
	InMemory bool   `yaml:"in_memory"` // discard runs on exit
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	Dir   string `yaml:"dir"`   // empty disables file logs
	JSON  bool   `yaml:"json"`  // JSON instead of text on stderr
}

type TelemetryConfig struct {
	// TraceExporter can be "otlp", "stdout", or "none".
	TraceExporter string `yaml:"trace_exporter"`
	// MetricExporter can be "prometheus", "stdout", or "none".
	MetricExporter string `yaml:"metric_exporter"`
	OTLPEndpoint   string `yaml:"otlp_endpoint,omitempty"`
}

type UXConfig struct {
	// Personality can be "full", "standard", "minimal", or "machine".
	// Empty defers to the SOUNDINGS_PERSONALITY environment variable
	// and terminal detection.
	Personality string `yaml:"personality,omitempty"`
	NoColor     bool   `yaml:"no_color"`
}

// baseDir is where the workbench keeps its own files. Falls back to a
// relative .soundings directory when the home directory is unknown.
func baseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".soundings"
	}
	return filepath.Join(home, ".soundings")
}

func DefaultConfig() SoundingsConfig {
	base := baseDir()
	return SoundingsConfig{
		Store: StoreConfig{
			Dir: filepath.Join(base, "db"),
		},
		Logging: LoggingConfig{
			Level: "warn",
			Dir:   filepath.Join(base, "logs"),
		},
		Telemetry: TelemetryConfig{
			TraceExporter:  "none",
			MetricExporter: "none",
			OTLPEndpoint:   "localhost:4317",
		},
		UX: UXConfig{},
	}
}
