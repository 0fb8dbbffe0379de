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
	"testing"

	"github.com/AleutianAI/soundings/services/soundings/evidence"
	"github.com/AleutianAI/soundings/services/soundings/store"
)

func TestEvidenceRows(t *testing.T) {
	results := map[string]store.ModelResult{
		"periodic": {
			Evidence: &evidence.Estimate{
				LogZ:  -42.1234,
				Rungs: make([]evidence.RungStat, 8),
			},
		},
		"constant": {},
	}

	rows := evidenceRows(results)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	constant, periodic := rows[0], rows[1]
	if constant[0] != "constant" || periodic[0] != "periodic" {
		t.Errorf("order = [%s, %s], want [constant, periodic]", constant[0], periodic[0])
	}
	if constant[1] != "-" || constant[2] != "-" {
		t.Errorf("missing evidence should render as dashes, got %v", constant)
	}
	if periodic[1] != "-42.1234" {
		t.Errorf("log z cell = %q, want %q", periodic[1], "-42.1234")
	}
	if periodic[2] != "8" {
		t.Errorf("rungs cell = %q, want %q", periodic[2], "8")
	}
}
