// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package e2e

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"testing"
)

var (
	cliBinary string
	cliHome   string
)

func TestMain(m *testing.M) {
	// 1. Build the binary
	cwd, _ := os.Getwd()
	cliBinary = filepath.Join(cwd, "soundings_e2e")

	// Assuming running from test/e2e/, go up to root
	cmd := exec.Command("go", "build", "-o", cliBinary, "../../cmd/soundings")
	if out, err := cmd.CombinedOutput(); err != nil {
		fmt.Printf("Failed to build CLI: %v\n%s\n", err, out)
		os.Exit(1)
	}

	// 2. Scratch home so the workbench config, default store and log
	// files never touch the real user profile
	home, err := os.MkdirTemp("", "soundings-e2e-home-")
	if err != nil {
		fmt.Printf("Failed to create scratch home: %v\n", err)
		os.Exit(1)
	}
	cliHome = home

	// 3. Run Tests
	exitCode := m.Run()

	// 4. Cleanup
	os.Remove(cliBinary)
	os.RemoveAll(cliHome)
	os.Exit(exitCode)
}

// runCLI executes the built binary in dir with the scratch home and the
// machine personality, so output follows the stable scripting grammar.
func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(cliBinary, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"HOME="+cliHome,
		"USERPROFILE="+cliHome,
		"SOUNDINGS_PERSONALITY=machine",
	)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// writeExperiment drops a small two-model experiment into dir and
// returns its path. The periodic signal is strong against the noise so
// the comparison verdict is never in doubt, and the chains are short
// enough to keep the suite quick.
func writeExperiment(t *testing.T, dir string) string {
	t.Helper()
	const doc = `name: e2e-sine
seed: 7
data:
  model: periodic
  count: 40
  t_min: 0
  t_max: 8
  noise: 0.5
  truth:
    amplitude: 2.0
    offset: 1.0
    period: 3.0
    phase: 0.7
models:
  - name: periodic
    priors:
      amplitude: {min: 0.1, max: 10}
      offset: {min: -10, max: 10}
      period: {min: 0.1, max: 10}
      phase: {min: 0, max: 6.2832}
  - name: constant
    priors:
      offset: {min: -10, max: 10}
sampler:
  walkers: 8
  steps: 600
  burn_in: 200
  step_scale: 0.15
evidence:
  rungs: 6
  gamma: 5
  steps: 300
  burn_in: 100
  thin: 1
output:
  dir: artifacts
`
	path := filepath.Join(dir, "e2e.yaml")
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("Failed to write experiment file: %v", err)
	}
	return path
}

// storeArg gives each test its own run database under dir.
func storeArg(dir string) string {
	return filepath.Join(dir, "db")
}

var runIDPattern = regexp.MustCompile(`run ([0-9a-f]{8})`)

// extractRunID pulls the abbreviated run ID out of a fit or compare
// success line.
func extractRunID(t *testing.T, output string) string {
	t.Helper()
	m := runIDPattern.FindStringSubmatch(output)
	if m == nil {
		t.Fatalf("No run ID in output:\n%s", output)
	}
	return m[1]
}
