package e2e

import (
	"strings"
	"testing"
)

// TestRunsDeleteLifecycle verifies deletion needs --force outside a
// terminal and actually removes the record.
func TestRunsDeleteLifecycle(t *testing.T) {
	dir := t.TempDir()
	cfg := writeExperiment(t, dir)
	store := storeArg(dir)

	// 1. Record a run
	out, err := runCLI(t, dir, "fit", "-c", cfg, "--store", store)
	if err != nil {
		t.Fatalf("fit failed: %v\nOutput: %s", err, out)
	}
	id := extractRunID(t, out)

	// 2. Non-interactive delete without --force is refused
	out, err = runCLI(t, dir, "runs", "delete", id, "--store", store)
	if err == nil {
		t.Fatalf("delete succeeded without --force.\nOutput: %s", out)
	}
	if !strings.Contains(out, "refusing to delete without --force") {
		t.Errorf("refusal did not explain itself.\nOutput: %s", out)
	}

	// 3. --force deletes
	out, err = runCLI(t, dir, "runs", "delete", id, "--store", store, "--force")
	if err != nil {
		t.Fatalf("delete --force failed: %v\nOutput: %s", err, out)
	}
	if !strings.Contains(out, "OK: Deleted run "+id) {
		t.Errorf("delete did not confirm.\nOutput: %s", out)
	}

	// 4. The record is gone
	out, err = runCLI(t, dir, "runs", "show", id, "--store", store)
	if err == nil {
		t.Fatalf("deleted run still resolvable.\nOutput: %s", out)
	}
	if !strings.Contains(out, "no run matches") {
		t.Errorf("unexpected failure mode for a deleted run.\nOutput: %s", out)
	}
}

// TestRunIDResolution verifies the guard rails on short run ID
// prefixes.
func TestRunIDResolution(t *testing.T) {
	dir := t.TempDir()
	store := storeArg(dir)

	// 1. Prefixes under four characters are rejected outright
	out, err := runCLI(t, dir, "runs", "show", "abc", "--store", store)
	if err == nil {
		t.Fatalf("three-character prefix was accepted.\nOutput: %s", out)
	}
	if !strings.Contains(out, "too short") {
		t.Errorf("short prefix error did not explain itself.\nOutput: %s", out)
	}

	// 2. A well-formed prefix with no match reports it
	out, err = runCLI(t, dir, "runs", "show", "deadbeef", "--store", store)
	if err == nil {
		t.Fatalf("unknown prefix resolved against an empty store.\nOutput: %s", out)
	}
	if !strings.Contains(out, `no run matches "deadbeef"`) {
		t.Errorf("unknown prefix error did not name the prefix.\nOutput: %s", out)
	}
}
