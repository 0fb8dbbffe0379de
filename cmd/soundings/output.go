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
	"os"
	"time"

	"github.com/AleutianAI/soundings/pkg/ux"
)

// Exit codes for CLI commands.
const (
	ExitSuccess = 0 // Operation completed successfully
	ExitFailure = 1 // Operation failed
	ExitBadArgs = 2 // Invalid arguments or flags
)

// usageErr marks argument and flag mistakes so fail exits with
// ExitBadArgs instead of ExitFailure.
type usageErr struct {
	msg string
}

func (e usageErr) Error() string { return e.msg }

func badArgs(format string, a ...any) error {
	return usageErr{msg: fmt.Sprintf(format, a...)}
}

func exitCode(err error) int {
	var u usageErr
	if errors.As(err, &u) {
		return ExitBadArgs
	}
	return ExitFailure
}

// fail reports err and exits. The logger is closed first so file logs
// are flushed; os.Exit skips deferred functions.
func fail(err error) {
	ux.Error(err.Error())
	closeLogging()
	os.Exit(exitCode(err))
}

// OutputJSON writes structured data as indented JSON to stdout.
func OutputJSON(data interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// RunSummary is one row of 'runs list --json'.
type RunSummary struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Status     string    `json:"status"`
	Experiment string    `json:"experiment"`
	CreatedAt  time.Time `json:"created_at"`
	Models     int       `json:"models"`
	Artifacts  int       `json:"artifacts"`
}

// RunListResult holds 'runs list' output.
type RunListResult struct {
	Runs  []RunSummary `json:"runs"`
	Count int          `json:"count"`
}

// ModelInfo represents one registered model in 'models' output.
type ModelInfo struct {
	Name   string   `json:"name"`
	Dim    int      `json:"dim"`
	Params []string `json:"params"`
}

// ModelListResult holds 'models' output.
type ModelListResult struct {
	Models []ModelInfo `json:"models"`
	Count  int         `json:"count"`
}
