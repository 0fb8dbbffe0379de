// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation for user-supplied identifiers.
//
// Experiment names and parameter names end up in file paths and store keys;
// run IDs are used directly as database key components. Validating them at
// the boundary keeps path traversal and malformed keys out of the storage
// layer.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// experimentNamePattern matches experiment names safe for file paths and
// store keys: lowercase alphanumeric plus underscore and hyphen, starting
// with a letter or digit, at most 64 characters.
var experimentNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_\-]{0,63}$`)

// paramNamePattern matches model parameter names: a letter followed by
// letters, digits or underscores, at most 32 characters.
var paramNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,31}$`)

// ValidateExperimentName validates an experiment name.
//
// Valid names:
//   - 1-64 characters
//   - lowercase letters, digits, underscores, hyphens
//   - first character a letter or digit
//
// Returns an error if the name is invalid.
//
// Example:
//
//	if err := validation.ValidateExperimentName(exp.Name); err != nil {
//	    return fmt.Errorf("invalid experiment: %w", err)
//	}
func ValidateExperimentName(name string) error {
	if name == "" {
		return fmt.Errorf("experiment name cannot be empty")
	}

	if !experimentNamePattern.MatchString(name) {
		return fmt.Errorf("invalid experiment name: %q (must be 1-64 lowercase alphanumeric chars, underscores, or hyphens)", name)
	}

	return nil
}

// SanitizeExperimentName normalizes and validates an experiment name.
// Returns the lowercase name if valid, or an error if invalid.
//
// Use this when accepting a name from an interactive prompt:
//
//	name, err := validation.SanitizeExperimentName(input)
//	if err != nil {
//	    return err
//	}
//	// name is lowercase and validated
func SanitizeExperimentName(name string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if err := ValidateExperimentName(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}

// ValidateRunID validates a run identifier as a canonical UUID.
//
// Run IDs are minted with uuid.NewString and used verbatim in store keys,
// so anything that does not parse as a UUID is rejected before it reaches
// the database.
func ValidateRunID(id string) error {
	if id == "" {
		return fmt.Errorf("run id cannot be empty")
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid run id: %q is not a UUID", id)
	}
	if parsed.String() != id {
		// uuid.Parse also accepts urn:, braced and uppercase forms; store
		// keys use the canonical lowercase 36-character form verbatim.
		return fmt.Errorf("invalid run id: %q is not in canonical form", id)
	}

	return nil
}

// ValidateParamName validates a model parameter name.
//
// Valid names:
//   - 1-32 characters
//   - a lowercase letter followed by lowercase letters, digits, underscores
func ValidateParamName(name string) error {
	if name == "" {
		return fmt.Errorf("parameter name cannot be empty")
	}

	if !paramNamePattern.MatchString(name) {
		return fmt.Errorf("invalid parameter name: %q (must be 1-32 lowercase alphanumeric chars or underscores, starting with a letter)", name)
	}

	return nil
}

// ValidateParamNames validates multiple parameter names.
// Returns an error listing all invalid names if any fail validation.
func ValidateParamNames(names []string) error {
	var invalid []string
	for _, n := range names {
		if err := ValidateParamName(n); err != nil {
			invalid = append(invalid, n)
		}
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid parameter names: %v", invalid)
	}
	return nil
}
