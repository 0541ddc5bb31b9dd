package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"qgispluginci/internal/validate"
	_ "qgispluginci/internal/validate/rules"
)

// mockRule implements validate.Rule for testing purposes
type mockRule struct {
	id          string
	title       string
	description string
}

func (m *mockRule) ID() string          { return m.id }
func (m *mockRule) Title() string       { return m.title }
func (m *mockRule) Description() string { return m.description }
func (m *mockRule) Evaluate(ctx context.Context, target validate.Target) (validate.Result, error) {
	return validate.Result{}, nil
}

func TestPrintRule(t *testing.T) {
	var buf bytes.Buffer
	printRule(&buf, &mockRule{
		id:          "simple-rule",
		title:       "Simple Rule",
		description: "A simple rule description",
	})

	output := buf.String()
	for _, want := range []string{
		"RULE: simple-rule",
		"Simple Rule",
		"A simple rule description",
	} {
		if !strings.Contains(output, want) {
			t.Fatalf("printRule output missing %q:\n%s", want, output)
		}
	}
}

func TestRulesListQuiet(t *testing.T) {
	defer func() { rulesListQuiet = false }()

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	defer rootCmd.SetOut(nil)
	defer rootCmd.SetErr(nil)

	rootCmd.SetArgs([]string{"rules", "list", "--quiet"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("rules list returned error: %v", err)
	}

	lines := strings.Fields(strings.TrimSpace(buf.String()))
	if len(lines) == 0 {
		t.Fatalf("rules list printed nothing")
	}
	seen := map[string]bool{}
	for _, id := range lines {
		seen[id] = true
	}
	for _, want := range []string{"metadata-exists", "name-present", "qgis-minimum-version"} {
		if !seen[want] {
			t.Fatalf("rules list missing %q, got %v", want, lines)
		}
	}
	// Sorted by ID.
	for i := 1; i < len(lines); i++ {
		if lines[i-1] > lines[i] {
			t.Fatalf("rules not sorted: %q before %q", lines[i-1], lines[i])
		}
	}
}

func TestRulesShow_UnknownRule(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	defer rootCmd.SetOut(nil)
	defer rootCmd.SetErr(nil)

	rootCmd.SetArgs([]string{"rules", "show", "no-such-rule"})
	if err := rootCmd.Execute(); err == nil {
		t.Fatalf("expected an error for an unknown rule")
	}
}
