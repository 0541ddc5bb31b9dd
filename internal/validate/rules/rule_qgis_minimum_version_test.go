package rules

import (
	"context"
	"testing"

	"qgispluginci/internal/metadata"
	"qgispluginci/internal/validate"
)

func TestQgisMinimumVersionRule_Evaluate(t *testing.T) {
	rule := &QgisMinimumVersionRule{}

	tests := []struct {
		name           string
		plugin         *metadata.Plugin
		expectedStatus validate.Status
	}{
		{
			name:           "Pass - Two Component Version",
			plugin:         &metadata.Plugin{QgisMinimumVersion: "3.2"},
			expectedStatus: validate.StatusPass,
		},
		{
			name:           "Pass - Three Component Version",
			plugin:         &metadata.Plugin{QgisMinimumVersion: "3.28.1"},
			expectedStatus: validate.StatusPass,
		},
		{
			name:           "Fail - Missing",
			plugin:         &metadata.Plugin{},
			expectedStatus: validate.StatusFail,
		},
		{
			name:           "Fail - Not A Version",
			plugin:         &metadata.Plugin{QgisMinimumVersion: "three point two"},
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
