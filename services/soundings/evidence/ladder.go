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
	"fmt"
	"math"
)

// Default ladder geometry. A power around 5 concentrates rungs near
// beta = 0, where the integrand E_beta[log L] changes fastest.
const (
	DefaultRungs = 16
	DefaultGamma = 5.0
)

// Ladder is a strictly increasing sequence of inverse temperatures
// running from 0 (prior only) to 1 (full posterior).
type Ladder []float64

// Geometric returns a rungs-point ladder beta_k = (k/(rungs-1))^gamma.
//
// Inputs:
//
//	rungs - Number of temperatures. Must be at least 2.
//	gamma - Concentration power. Must be positive; 1 gives a uniform
//	        spacing, larger values crowd rungs toward beta = 0.
//
// Outputs:
//
//	Ladder - The temperatures, endpoints exactly 0 and 1.
//	error - Non-nil on unusable arguments.
func Geometric(rungs int, gamma float64) (Ladder, error) {
	if rungs < 2 {
		return nil, fmt.Errorf("ladder needs at least 2 rungs, got %d", rungs)
	}
	if gamma <= 0 || math.IsInf(gamma, 0) || math.IsNaN(gamma) {
		return nil, fmt.Errorf("ladder gamma must be positive and finite, got %g", gamma)
	}
	l := make(Ladder, rungs)
	for k := range l {
		l[k] = math.Pow(float64(k)/float64(rungs-1), gamma)
	}
	// Endpoints must be exact for the prior rung short-circuit and the
	// full posterior rung.
	l[0] = 0
	l[rungs-1] = 1
	return l, nil
}

// Validate checks that the ladder is usable for thermodynamic
// integration: at least two rungs, strictly increasing, starting at 0
// and ending at 1.
func (l Ladder) Validate() error {
	if len(l) < 2 {
		return fmt.Errorf("ladder needs at least 2 rungs, got %d", len(l))
	}
	if l[0] != 0 {
		return fmt.Errorf("ladder must start at 0, got %g", l[0])
	}
	if l[len(l)-1] != 1 {
		return fmt.Errorf("ladder must end at 1, got %g", l[len(l)-1])
	}
	for k := 1; k < len(l); k++ {
		if !(l[k] > l[k-1]) {
			return fmt.Errorf("ladder not strictly increasing at rung %d: %g then %g",
				k, l[k-1], l[k])
		}
	}
	return nil
}
