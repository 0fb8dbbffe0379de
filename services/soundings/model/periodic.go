// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package model

import "math"

// Parameter indices for Periodic. Chains, priors, and plots all use this
// ordering.
const (
	PeriodicAmplitude = iota
	PeriodicOffset
	PeriodicPeriod
	PeriodicPhase
)

var periodicParams = []string{"amplitude", "offset", "period", "phase"}

// Periodic is a sinusoidal signal model:
//
//	y(t) = amplitude * sin(2*pi*t/period + phase) + offset
//
// Parameters are ordered [amplitude, offset, period, phase]. A period of
// zero yields NaN predictions; bounded priors are expected to keep the
// sampler away from that region, and out-of-bounds vectors never reach
// the likelihood.
type Periodic struct{}

var _ Model = Periodic{}

// Name returns "periodic".
func (Periodic) Name() string { return "periodic" }

// Dim returns 4.
func (Periodic) Dim() int { return 4 }

// ParamNames returns [amplitude, offset, period, phase].
func (Periodic) ParamNames() []string { return periodicParams }

// Eval returns the sinusoid value at time t.
func (p Periodic) Eval(params []float64, t float64) float64 {
	checkDim(p, params)
	return p.eval(params, t)
}

// EvalAll evaluates the sinusoid over a time series, preserving order
// and length.
func (p Periodic) EvalAll(params, times, dst []float64) []float64 {
	checkDim(p, params)
	return evalInto(func(t float64) float64 { return p.eval(params, t) }, times, dst)
}

func (Periodic) eval(params []float64, t float64) float64 {
	return params[PeriodicAmplitude]*math.Sin(2*math.Pi*t/params[PeriodicPeriod]+params[PeriodicPhase]) + params[PeriodicOffset]
}
