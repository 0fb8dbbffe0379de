package validation

import (
	"testing"

	"github.com/google/uuid"
)

func TestValidateExperimentName(t *testing.T) {
	tests := []struct {
		name    string
		exp     string
		wantErr bool
	}{
		// Valid names
		{"simple", "demo", false},
		{"single char", "a", false},
		{"with digits", "run42", false},
		{"with underscore", "periodic_vs_constant", false},
		{"with hyphen", "sine-fit", false},
		{"starts with digit", "2025-sweep", false},
		{"max length", "abcdefghijklmnopqrstuvwxyz0123456789abcdefghijklmnopqrstuvwxyz01", false},

		// Invalid names
		{"empty", "", true},
		{"uppercase", "Demo", true},
		{"path traversal", "../etc/passwd", true},
		{"slash", "a/b", true},
		{"dot", "exp.v2", true},
		{"spaces", "my exp", true},
		{"starts with hyphen", "-demo", true},
		{"starts with underscore", "_demo", true},
		{"too long", "abcdefghijklmnopqrstuvwxyz0123456789abcdefghijklmnopqrstuvwxyz012", true},
		{"key injection", "demo:chain", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateExperimentName(tt.exp)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateExperimentName(%q) error = %v, wantErr %v", tt.exp, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeExperimentName(t *testing.T) {
	tests := []struct {
		name    string
		exp     string
		want    string
		wantErr bool
	}{
		{"lowercase passthrough", "demo", "demo", false},
		{"uppercase normalized", "DEMO", "demo", false},
		{"mixed case", "SineFit", "sinefit", false},
		{"with spaces trimmed", "  demo  ", "demo", false},
		{"invalid rejected", "a/b", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeExperimentName(tt.exp)
			if (err != nil) != tt.wantErr {
				t.Errorf("SanitizeExperimentName(%q) error = %v, wantErr %v", tt.exp, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("SanitizeExperimentName(%q) = %q, want %q", tt.exp, got, tt.want)
			}
		})
	}
}

func TestValidateRunID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"canonical", "0f8fad5b-d9cb-469f-a165-70867728950e", false},
		{"empty", "", true},
		{"uppercase", "0F8FAD5B-D9CB-469F-A165-70867728950E", true},
		{"truncated", "0f8fad5b-d9cb-469f", true},
		{"not a uuid", "latest", true},
		{"braced form", "{0f8fad5b-d9cb-469f-a165-70867728950e}", true},
		{"urn form", "urn:uuid:0f8fad5b-d9cb-469f-a165-70867728950e", true},
		{"key injection", "run:0f8fad5b-d9cb-469f-a165-70867728950e", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRunID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRunID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestValidateRunIDAcceptsMinted(t *testing.T) {
	// IDs produced the way the store mints them must always validate.
	for i := 0; i < 10; i++ {
		id := uuid.NewString()
		if err := ValidateRunID(id); err != nil {
			t.Errorf("ValidateRunID(%q) error = %v, want nil", id, err)
		}
	}
}

func TestValidateParamName(t *testing.T) {
	tests := []struct {
		name    string
		param   string
		wantErr bool
	}{
		{"simple", "amplitude", false},
		{"with underscore", "step_scale", false},
		{"with digit", "phase2", false},
		{"empty", "", true},
		{"uppercase", "Amplitude", true},
		{"starts with digit", "2phase", true},
		{"starts with underscore", "_phase", true},
		{"hyphen", "step-scale", true},
		{"too long", "abcdefghijklmnopqrstuvwxyz0123456", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateParamName(tt.param)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateParamName(%q) error = %v, wantErr %v", tt.param, err, tt.wantErr)
			}
		})
	}
}

func TestValidateParamNames(t *testing.T) {
	tests := []struct {
		name    string
		params  []string
		wantErr bool
	}{
		{"all valid", []string{"amplitude", "offset", "period", "phase"}, false},
		{"one invalid", []string{"amplitude", "Bad!", "phase"}, true},
		{"empty slice", []string{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateParamNames(tt.params)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateParamNames(%v) error = %v, wantErr %v", tt.params, err, tt.wantErr)
			}
		})
	}
}
