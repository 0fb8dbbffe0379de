// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sampler

import "fmt"

// Default sampling parameters, sized for the demonstration problems this
// module ships with. Larger models want more steps, not more walkers.
const (
	DefaultWalkers   = 32
	DefaultSteps     = 4000
	DefaultBurnIn    = 1000
	DefaultStepScale = 0.1
)

// blockSize is the number of steps drawn between cancellation checks.
const blockSize = 256

// Config controls an ensemble sampling run.
//
// Description:
//
//	Walkers holds the number of independent chains run concurrently.
//	Steps is the recorded length of each chain; burn-in is not discarded
//	during sampling, so the first BurnIn steps remain visible to trace
//	plots and are skipped only by the analysis accessors that take a
//	discard count. StepScale sets the proposal standard deviation per
//	dimension as a fraction of the prior width in that dimension.
//
// Thread Safety: Config is a value type; copies are independent.
type Config struct {
	// Walkers is the number of independent chains.
	Walkers int

	// Steps is the number of recorded steps per walker.
	Steps int

	// BurnIn is the number of leading steps analysis should discard.
	// Sampling records them anyway.
	BurnIn int

	// StepScale scales the proposal standard deviation relative to the
	// prior width in each dimension.
	StepScale float64

	// Seed keys every random stream the run uses.
	Seed uint64
}

// DefaultConfig returns a Config with the package defaults applied.
func DefaultConfig() Config {
	return Config{
		Walkers:   DefaultWalkers,
		Steps:     DefaultSteps,
		BurnIn:    DefaultBurnIn,
		StepScale: DefaultStepScale,
		Seed:      1,
	}
}

// Validate checks the configuration for values the run cannot proceed with.
//
// Outputs:
//
//	error - nil if valid, otherwise a descriptive error wrapping
//	ErrInvalidConfig
func (c Config) Validate() error {
	if c.Walkers <= 0 {
		return fmt.Errorf("%w: walkers must be positive, got %d", ErrInvalidConfig, c.Walkers)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("%w: steps must be positive, got %d", ErrInvalidConfig, c.Steps)
	}
	if c.BurnIn < 0 {
		return fmt.Errorf("%w: burn-in must be non-negative, got %d", ErrInvalidConfig, c.BurnIn)
	}
	if c.BurnIn >= c.Steps {
		return fmt.Errorf("%w: burn-in %d must be below steps %d", ErrInvalidConfig, c.BurnIn, c.Steps)
	}
	if c.StepScale <= 0 {
		return fmt.Errorf("%w: step scale must be positive, got %g", ErrInvalidConfig, c.StepScale)
	}
	return nil
}
