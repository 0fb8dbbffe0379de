// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package prob

// Posterior composes a prior and a likelihood into the un-normalized
// log-posterior log p(x) + log L(x).
//
// The prior is evaluated first; a non-finite prior short-circuits to
// negative infinity WITHOUT evaluating the likelihood. Out-of-support
// states must reject at prior cost, not at the cost of a model
// evaluation over the full observation set.
type Posterior struct {
	Prior      LogProber
	Likelihood LogProber
}

var _ LogProber = (*Posterior)(nil)

// NewPosterior composes prior and likelihood.
func NewPosterior(prior, likelihood LogProber) *Posterior {
	return &Posterior{Prior: prior, Likelihood: likelihood}
}

// LogProb returns the log-posterior at x.
func (p *Posterior) LogProb(x []float64) float64 {
	lp := p.Prior.LogProb(x)
	if nonFinite(lp) {
		return negInf
	}
	return lp + p.Likelihood.LogProb(x)
}

// Tempered is a power posterior log p(x) + beta*log L(x). Beta ramps the
// likelihood in: 0 samples the prior alone, 1 the full posterior. The
// rungs of an evidence ladder are Tempered targets.
//
// The same prior short-circuit applies, and at Beta == 0 the likelihood
// is never evaluated.
type Tempered struct {
	Prior      LogProber
	Likelihood LogProber
	Beta       float64
}

var _ LogProber = (*Tempered)(nil)

// NewTempered builds the power posterior at inverse temperature beta.
func NewTempered(prior, likelihood LogProber, beta float64) *Tempered {
	return &Tempered{Prior: prior, Likelihood: likelihood, Beta: beta}
}

// LogProb returns the tempered log-density at x.
func (t *Tempered) LogProb(x []float64) float64 {
	lp := t.Prior.LogProb(x)
	if nonFinite(lp) {
		return negInf
	}
	if t.Beta == 0 {
		return lp
	}
	return lp + t.Beta*t.Likelihood.LogProb(x)
}
