// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// NewSpinner Tests
// =============================================================================

func TestNewSpinner_ReturnsNonNil(t *testing.T) {
	spin := NewSpinner("Loading...")
	if spin == nil {
		t.Fatal("NewSpinner returned nil")
	}
}

func TestNewSpinner_SetsMessage(t *testing.T) {
	spin := NewSpinner("Sampling posterior")
	if spin.message != "Sampling posterior" {
		t.Errorf("expected message 'Sampling posterior', got %q", spin.message)
	}
}

func TestNewSpinner_DefaultsToDotsType(t *testing.T) {
	spin := NewSpinner("Loading...")
	if spin.spinType != SpinnerDots {
		t.Errorf("expected SpinnerDots, got %v", spin.spinType)
	}
}

func TestNewSpinner_InitializesChannels(t *testing.T) {
	spin := NewSpinner("Loading...")
	if spin.stop == nil {
		t.Error("stop channel should be initialized")
	}
	if spin.done == nil {
		t.Error("done channel should be initialized")
	}
}

// =============================================================================
// WithType Tests
// =============================================================================

func TestSpinner_WithType_Wave(t *testing.T) {
	spin := NewSpinner("Loading...").WithType(SpinnerWave)
	if spin.spinType != SpinnerWave {
		t.Errorf("expected SpinnerWave, got %v", spin.spinType)
	}
}

func TestSpinner_WithType_Anchor(t *testing.T) {
	spin := NewSpinner("Loading...").WithType(SpinnerAnchor)
	if spin.spinType != SpinnerAnchor {
		t.Errorf("expected SpinnerAnchor, got %v", spin.spinType)
	}
}

func TestSpinner_WithType_Sounding(t *testing.T) {
	spin := NewSpinner("Loading...").WithType(SpinnerSounding)
	if spin.spinType != SpinnerSounding {
		t.Errorf("expected SpinnerSounding, got %v", spin.spinType)
	}
}

func TestSpinner_WithType_Chaining(t *testing.T) {
	spin := NewSpinner("Loading...").WithType(SpinnerWave)
	if spin == nil {
		t.Error("WithType should return the spinner for chaining")
	}
}

// =============================================================================
// Start/Stop Tests (Machine Mode)
// =============================================================================

func TestSpinner_Start_MachineMode(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityMachine)

	spin := NewSpinner("Sampling...")
	output := captureStdout(func() {
		spin.Start()
	})

	if output != "PROGRESS: Sampling...\n" {
		t.Errorf("expected 'PROGRESS: Sampling...', got %q", output)
	}
}

func TestSpinner_Stop_MachineMode(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityMachine)

	spin := NewSpinner("Sampling...")
	spin.Start()
	spin.Stop() // Should not panic or hang
}

func TestSpinner_Start_AlreadyRunning(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityMachine)

	spin := NewSpinner("Sampling...")
	spin.Start()
	spin.Start() // Second start should be no-op
	spin.Stop()
}

func TestSpinner_Stop_NotRunning(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityMachine)

	spin := NewSpinner("Sampling...")
	spin.Stop() // Should not panic when not running
}

func TestSpinner_Stop_AfterPersonalityChange(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityMachine)

	spin := NewSpinner("Sampling...")
	spin.Start()

	// Flipping personality between Start and Stop must not hang Stop
	// waiting on an animation goroutine that never ran
	SetPersonalityLevel(PersonalityFull)
	spin.Stop()
}

// =============================================================================
// Start/Stop Tests (Full Mode - Brief)
// =============================================================================

func TestSpinner_StartStop_FullMode(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityFull)

	spin := NewSpinner("Sampling...")
	spin.Start()

	// Give it a moment to start animation
	time.Sleep(100 * time.Millisecond)

	spin.Stop()
}

// =============================================================================
// UpdateMessage Tests
// =============================================================================

func TestSpinner_UpdateMessage(t *testing.T) {
	spin := NewSpinner("Initial message")

	spin.UpdateMessage("Updated message")

	if spin.message != "Updated message" {
		t.Errorf("expected 'Updated message', got %q", spin.message)
	}
}

func TestSpinner_UpdateMessage_WhileRunning(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityMachine)

	spin := NewSpinner("Initial")
	spin.Start()

	spin.UpdateMessage("Updated")

	if spin.message != "Updated" {
		t.Errorf("expected 'Updated', got %q", spin.message)
	}

	spin.Stop()
}

// =============================================================================
// StopWithSuccess Tests
// =============================================================================

func TestSpinner_StopWithSuccess_MachineMode(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityMachine)

	spin := NewSpinner("Sampling...")
	spin.Start()

	output := captureStdout(func() {
		spin.StopWithSuccess("Done successfully")
	})

	if output != "OK: Done successfully\n" {
		t.Errorf("expected success message, got %q", output)
	}
}

// =============================================================================
// StopWithError Tests
// =============================================================================

func TestSpinner_StopWithError_MachineMode(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityMachine)

	spin := NewSpinner("Sampling...")
	spin.Start()

	output := captureStderr(func() {
		spin.StopWithError("Operation failed")
	})

	if output != "ERROR: Operation failed\n" {
		t.Errorf("expected error message, got %q", output)
	}
}

// =============================================================================
// StopWithWarning Tests
// =============================================================================

func TestSpinner_StopWithWarning_MachineMode(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityMachine)

	spin := NewSpinner("Sampling...")
	spin.Start()

	output := captureStderr(func() {
		spin.StopWithWarning("Completed with warnings")
	})

	if output != "WARN: Completed with warnings\n" {
		t.Errorf("expected warning message, got %q", output)
	}
}

// =============================================================================
// WithSpinner Tests
// =============================================================================

func TestWithSpinner_Success(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityMachine)

	called := false
	err := WithSpinner("Processing", func() error {
		called = true
		return nil
	})

	if !called {
		t.Error("function should have been called")
	}
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestWithSpinner_Error(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityMachine)

	testErr := errors.New("test error")
	err := WithSpinner("Processing", func() error {
		return testErr
	})

	if err != testErr {
		t.Errorf("expected test error, got %v", err)
	}
}

func TestWithSpinner_MachineMode_SuccessOutput(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityMachine)

	output := captureStdout(func() {
		_ = WithSpinner("Test operation", func() error {
			return nil
		})
	})

	if output == "" {
		t.Error("expected some output")
	}
}

// =============================================================================
// StageSpinner Tests
// =============================================================================

func TestNewStageSpinner_ReturnsNonNil(t *testing.T) {
	ss := NewStageSpinner("fit periodic", []string{"generate", "seed", "sample"})
	if ss == nil {
		t.Fatal("NewStageSpinner returned nil")
	}
}

func TestNewStageSpinner_StartsBeforeFirstStage(t *testing.T) {
	ss := NewStageSpinner("fit periodic", []string{"generate", "seed", "sample"})
	if ss.Stage() != "" {
		t.Errorf("expected empty stage before first Advance, got %q", ss.Stage())
	}
}

func TestStageSpinner_Advance_MachineMode(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityMachine)

	ss := NewStageSpinner("fit periodic", []string{"generate", "seed", "sample"})

	output := captureStdout(func() {
		ss.Advance()
	})

	if output != "PROGRESS: fit periodic generate 1/3\n" {
		t.Errorf("expected stage progress line, got %q", output)
	}
	if ss.Stage() != "generate" {
		t.Errorf("expected stage 'generate', got %q", ss.Stage())
	}
}

func TestStageSpinner_Advance_Multiple(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityMachine)

	ss := NewStageSpinner("fit periodic", []string{"generate", "seed", "sample"})

	captureStdout(func() {
		ss.Advance()
		ss.Advance()
		ss.Advance()
	})

	if ss.Stage() != "sample" {
		t.Errorf("expected stage 'sample', got %q", ss.Stage())
	}
}

func TestStageSpinner_Advance_PastEnd(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityMachine)

	ss := NewStageSpinner("fit periodic", []string{"generate"})

	captureStdout(func() {
		ss.Advance()
		ss.Advance() // Past the last stage, should be a no-op
	})

	if ss.Stage() != "generate" {
		t.Errorf("expected stage to stay 'generate', got %q", ss.Stage())
	}
}

func TestStageSpinner_Advance_UpdatesMessage(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityFull)

	ss := NewStageSpinner("fit periodic", []string{"generate", "seed", "sample"})

	ss.Advance()

	if !strings.Contains(ss.message, "[1/3]") {
		t.Errorf("expected message to include stage position, got %q", ss.message)
	}
	if !strings.Contains(ss.message, "generate") {
		t.Errorf("expected message to include stage name, got %q", ss.message)
	}
}

// =============================================================================
// SpinnerType Constants Tests
// =============================================================================

func TestSpinnerType_Constants(t *testing.T) {
	// Verify spinner type constants
	if SpinnerDots != 0 {
		t.Errorf("expected SpinnerDots = 0, got %d", SpinnerDots)
	}
	if SpinnerWave != 1 {
		t.Errorf("expected SpinnerWave = 1, got %d", SpinnerWave)
	}
	if SpinnerAnchor != 2 {
		t.Errorf("expected SpinnerAnchor = 2, got %d", SpinnerAnchor)
	}
	if SpinnerCompass != 3 {
		t.Errorf("expected SpinnerCompass = 3, got %d", SpinnerCompass)
	}
	if SpinnerSounding != 4 {
		t.Errorf("expected SpinnerSounding = 4, got %d", SpinnerSounding)
	}
}

func TestSpinnerFrames_Exists(t *testing.T) {
	spinnerTypes := []SpinnerType{SpinnerDots, SpinnerWave, SpinnerAnchor, SpinnerCompass, SpinnerSounding}
	for _, st := range spinnerTypes {
		frames := spinnerFrames[st]
		if len(frames) == 0 {
			t.Errorf("spinner type %d has no frames", st)
		}
	}
}
