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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
)

// captureStdout runs fn with os.Stdout redirected to a pipe and returns
// everything fn wrote.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = old }()

	fn()

	w.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading captured stdout: %v", err)
	}
	return string(out)
}

func TestOutputJSON(t *testing.T) {
	payload := RunSummary{
		ID:         "abc123",
		Kind:       "fit",
		Status:     "complete",
		Experiment: "sine-demo",
	}

	out := captureStdout(t, func() {
		if err := OutputJSON(payload); err != nil {
			t.Errorf("OutputJSON: %v", err)
		}
	})

	var got RunSummary
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out)
	}
	if got != payload {
		t.Errorf("round trip = %+v, want %+v", got, payload)
	}
	if !strings.Contains(out, "\n  ") {
		t.Error("output should be indented for human consumption")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"usage error", badArgs("flag %s is wrong", "--model"), ExitBadArgs},
		{"plain error", errors.New("badger exploded"), ExitFailure},
		{"wrapped usage error", fmt.Errorf("loading: %w", badArgs("no such file")), ExitBadArgs},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestBadArgs_Message(t *testing.T) {
	err := badArgs("model %q is not part of experiment %q", "cubic", "sine-demo")
	want := `model "cubic" is not part of experiment "sine-demo"`
	if err.Error() != want {
		t.Errorf("badArgs message = %q, want %q", err.Error(), want)
	}
}

func TestExitCodes_Distinct(t *testing.T) {
	if ExitSuccess != 0 {
		t.Errorf("ExitSuccess = %d, want 0", ExitSuccess)
	}
	if ExitFailure != 1 {
		t.Errorf("ExitFailure = %d, want 1", ExitFailure)
	}
	if ExitBadArgs != 2 {
		t.Errorf("ExitBadArgs = %d, want 2", ExitBadArgs)
	}
}
