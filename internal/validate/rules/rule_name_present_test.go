package rules

import (
	"context"
	"testing"

	"qgispluginci/internal/metadata"
	"qgispluginci/internal/validate"
)

func TestNamePresentRule_Evaluate(t *testing.T) {
	rule := &NamePresentRule{}

	tests := []struct {
		name           string
		plugin         *metadata.Plugin
		expectedStatus validate.Status
	}{
		{
			name:           "Pass - Name Present",
			plugin:         validPlugin(),
			expectedStatus: validate.StatusPass,
		},
		{
			name:           "Fail - Name Empty",
			plugin:         &metadata.Plugin{Name: "   "},
			expectedStatus: validate.StatusFail,
		},
		{
			name:           "Skipped - Manifest Unreadable",
			plugin:         nil,
			expectedStatus: validate.StatusSkipped,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := rule.Evaluate(context.Background(), makeTarget(tt.plugin))
			if err != nil {
				t.Fatalf("Evaluate returned error: %v", err)
			}
			if result.Status != tt.expectedStatus {
				t.Fatalf("expected status %v, got %v", tt.expectedStatus, result.Status)
			}
		})
	}
}
