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

import "math"

// Kass-Raftery thresholds on |log K|, natural log scale.
const (
	verdictPositive   = 1.0
	verdictStrong     = 3.0
	verdictVeryStrong = 5.0
)

// LogBayesFactor returns log K = log Z_e - log Z_other, the log Bayes
// factor in favor of e over other. The log form is the primary
// comparison value; it stays finite where the ratio itself overflows.
func (e Estimate) LogBayesFactor(other Estimate) float64 {
	return e.LogZ - other.LogZ
}

// BayesFactor returns K = exp(logK), the evidence ratio itself.
//
// For strongly separated models this overflows to +Inf (or underflows
// to 0); report the log form alongside it.
func BayesFactor(logK float64) float64 {
	return math.Exp(logK)
}

// Verdict maps a log Bayes factor onto the Kass-Raftery strength
// labels. The sign of logK says which model is favored; the label only
// grades how decisively.
func Verdict(logK float64) string {
	abs := math.Abs(logK)
	switch {
	case math.IsNaN(abs):
		return "indeterminate"
	case abs < verdictPositive:
		return "barely worth mentioning"
	case abs < verdictStrong:
		return "positive"
	case abs < verdictVeryStrong:
		return "strong"
	default:
		return "very strong"
	}
}
