// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package evidence

import (
	"math"
	"testing"
)

func TestGeometric(t *testing.T) {
	l, err := Geometric(16, 5)
	if err != nil {
		t.Fatalf("Geometric() error = %v", err)
	}
	if len(l) != 16 {
		t.Fatalf("len = %d, want 16", len(l))
	}
	if l[0] != 0 {
		t.Errorf("first rung = %v, want exactly 0", l[0])
	}
	if l[15] != 1 {
		t.Errorf("last rung = %v, want exactly 1", l[15])
	}
	for k := 1; k < len(l); k++ {
		if !(l[k] > l[k-1]) {
			t.Errorf("rung %d not increasing: %v then %v", k, l[k-1], l[k])
		}
	}
	if err := l.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestGeometricUniformSpacing(t *testing.T) {
	l, err := Geometric(5, 1)
	if err != nil {
		t.Fatalf("Geometric() error = %v", err)
	}
	want := []float64{0, 0.25, 0.5, 0.75, 1}
	for k := range want {
		if math.Abs(l[k]-want[k]) > 1e-15 {
			t.Errorf("rung %d = %v, want %v", k, l[k], want[k])
		}
	}
}

func TestGeometricConcentratesNearZero(t *testing.T) {
	l, err := Geometric(16, 5)
	if err != nil {
		t.Fatalf("Geometric() error = %v", err)
	}
	below := 0
	for _, b := range l {
		if b < 0.5 {
			below++
		}
	}
	if below <= len(l)/2 {
		t.Errorf("%d of %d rungs below 0.5, want a majority for gamma=5", below, len(l))
	}
}

func TestGeometricErrors(t *testing.T) {
	tests := []struct {
		name  string
		rungs int
		gamma float64
	}{
		{name: "one rung", rungs: 1, gamma: 5},
		{name: "zero gamma", rungs: 8, gamma: 0},
		{name: "negative gamma", rungs: 8, gamma: -2},
		{name: "NaN gamma", rungs: 8, gamma: math.NaN()},
		{name: "infinite gamma", rungs: 8, gamma: math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Geometric(tt.rungs, tt.gamma); err == nil {
				t.Error("Geometric() error = nil, want non-nil")
			}
		})
	}
}

func TestLadderValidate(t *testing.T) {
	tests := []struct {
		name    string
		ladder  Ladder
		wantErr bool
	}{
		{name: "valid", ladder: Ladder{0, 0.1, 0.5, 1}},
		{name: "minimal", ladder: Ladder{0, 1}},
		{name: "too short", ladder: Ladder{0}, wantErr: true},
		{name: "does not start at zero", ladder: Ladder{0.1, 1}, wantErr: true},
		{name: "does not end at one", ladder: Ladder{0, 0.9}, wantErr: true},
		{name: "decreasing", ladder: Ladder{0, 0.5, 0.4, 1}, wantErr: true},
		{name: "duplicate rung", ladder: Ladder{0, 0.5, 0.5, 1}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ladder.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
