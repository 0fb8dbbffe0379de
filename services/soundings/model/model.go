// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package model defines the candidate signal models fitted by the
// soundings pipelines.
//
// A model is a pure function from (parameter vector, time) to a predicted
// measurement value. Models carry no state: the same parameter vector and
// time always produce the same prediction, and evaluating a model never
// mutates its inputs. This keeps models trivially shareable across
// goroutines and makes them directly usable inside likelihood functions.
//
// # Parameter Ordering
//
// Every model declares a fixed parameter ordering via ParamNames(). All
// other packages (priors, samplers, chains, plots) index parameters by
// position and rely on that ordering. A parameter slice whose length does
// not match Dim() is a programming error and panics.
package model

import (
	"fmt"
	"sort"
)

// Model is a pure signal model evaluated at scalar or vector time inputs.
//
// Description:
//
//	Implementations map a fixed-length parameter vector and a time value
//	to a predicted measurement. EvalAll applies the model across a time
//	series and must preserve both order and length: element i of the
//	result always corresponds to times[i].
//
// Thread Safety: implementations must be stateless and safe for
// concurrent use.
type Model interface {
	// Name returns the registry name of the model.
	Name() string

	// Dim returns the number of parameters the model expects.
	Dim() int

	// ParamNames returns the canonical parameter names in vector order.
	// The returned slice must not be modified.
	ParamNames() []string

	// Eval returns the model prediction for one time value.
	// Panics if len(params) != Dim().
	Eval(params []float64, t float64) float64

	// EvalAll evaluates the model at every time in times, writing into
	// dst when it has matching length and allocating otherwise. The
	// result has exactly len(times) elements in input order.
	// Panics if len(params) != Dim().
	EvalAll(params, times, dst []float64) []float64
}

// registry holds the models selectable from experiment files.
// Entries are stateless singletons.
var registry = map[string]Model{
	"periodic": Periodic{},
	"constant": Constant{},
}

// Lookup returns the registered model with the given name.
//
// Inputs:
//
//	name - Registry name, e.g. "periodic" or "constant".
//
// Outputs:
//
//	Model - The registered model.
//	error - Non-nil if no model is registered under name; the message
//	        lists the valid names.
func Lookup(name string) (Model, error) {
	m, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown model %q (available: %v)", name, Names())
	}
	return m, nil
}

// Names returns the registered model names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// checkDim panics when params does not match the model's dimensionality.
// Shape mismatches are programming errors, not runtime conditions.
func checkDim(m Model, params []float64) {
	if len(params) != m.Dim() {
		panic(fmt.Sprintf("model: %s expects %d parameters, got %d", m.Name(), m.Dim(), len(params)))
	}
}

// evalInto applies fn element-wise over times, reusing dst when possible.
func evalInto(fn func(t float64) float64, times, dst []float64) []float64 {
	if len(dst) != len(times) {
		dst = make([]float64, len(times))
	}
	for i, t := range times {
		dst[i] = fn(t)
	}
	return dst
}
