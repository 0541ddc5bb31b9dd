package checks

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"testing"
	"time"

	"qgispluginci/internal/config"
)

func requirePOSIX(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests shell out to POSIX tools")
	}
}

func TestToolsFromConfig(t *testing.T) {
	cfg := config.Check{
		Lint: [][]string{{"ruff", "check", "."}, {"mypy", "."}},
		Test: [][]string{{"pytest"}},
	}

	tests := []struct {
		name      string
		only      string
		wantNames []string
		wantErr   error
	}{
		{"both groups", "", []string{"ruff", "mypy", "pytest"}, nil},
		{"lint only", "lint", []string{"ruff", "mypy"}, nil},
		{"test only", "test", []string{"pytest"}, nil},
		{"nothing configured", "", nil, ErrNoTools},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := cfg
			if tt.wantErr != nil {
				in = config.Check{}
			}
			tools, err := ToolsFromConfig(in, tt.only)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ToolsFromConfig returned error: %v", err)
			}
			if len(tools) != len(tt.wantNames) {
				t.Fatalf("got %d tools, want %d", len(tools), len(tt.wantNames))
			}
			for i, want := range tt.wantNames {
				if tools[i].Name != want {
					t.Fatalf("tools[%d] = %s, want %s", i, tools[i].Name, want)
				}
			}
		})
	}
}

func TestToolsFromConfig_BadSelector(t *testing.T) {
	_, err := ToolsFromConfig(config.Check{Lint: [][]string{{"ruff"}}}, "format")
	if err == nil || !strings.Contains(err.Error(), "--only") {
		t.Fatalf("error = %v, want --only mention", err)
	}
}

func TestRunner_ClassifiesOutcomes(t *testing.T) {
	requirePOSIX(t)

	tools := []Tool{
		{Name: "ok", Group: GroupTest, Argv: []string{"sh", "-c", "echo fine"}},
		{Name: "broken", Group: GroupLint, Argv: []string{"sh", "-c", "echo problems >&2; exit 3"}},
		{Name: "missing", Group: GroupLint, Argv: []string{"qgis-plugin-ci-no-such-tool"}},
	}

	var emitted []Result
	r := &Runner{
		Concurrency: 1,
		Emit: func(v any) error {
			emitted = append(emitted, v.(Result))
			return nil
		},
	}

	summary, err := r.Run(context.Background(), tools)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if summary.Pass != 1 || summary.Fail != 1 || summary.Errored != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if got := summary.ExitCode(); got != 2 {
		t.Fatalf("ExitCode = %d, want 2", got)
	}
	if len(emitted) != 3 {
		t.Fatalf("emitted %d results, want 3", len(emitted))
	}

	byTool := map[string]Result{}
	for _, res := range emitted {
		byTool[res.Tool] = res
	}
	if byTool["ok"].Status != StatusPass || !strings.Contains(byTool["ok"].Output, "fine") {
		t.Fatalf("ok result = %+v", byTool["ok"])
	}
	if byTool["broken"].Status != StatusFail || byTool["broken"].ExitCode != 3 {
		t.Fatalf("broken result = %+v", byTool["broken"])
	}
	if !strings.Contains(byTool["broken"].Output, "problems") {
		t.Fatalf("stderr not captured: %+v", byTool["broken"])
	}
	if byTool["missing"].Status != StatusError {
		t.Fatalf("missing result = %+v", byTool["missing"])
	}
}

func TestRunner_FailFastStopsRemainingTools(t *testing.T) {
	requirePOSIX(t)

	tools := []Tool{
		{Name: "fails", Group: GroupTest, Argv: []string{"false"}},
		{Name: "never-runs", Group: GroupTest, Argv: []string{"true"}},
	}

	r := &Runner{Concurrency: 1, FailFast: true}
	summary, err := r.Run(context.Background(), tools)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Fail != 1 {
		t.Fatalf("summary = %+v, want one failure", summary)
	}
	if summary.Pass != 0 {
		t.Fatalf("summary = %+v, second tool should not have run", summary)
	}
}

func TestRunner_Timeout(t *testing.T) {
	requirePOSIX(t)

	tools := []Tool{
		{Name: "sleepy", Group: GroupTest, Argv: []string{"sleep", "5"}},
	}
	r := &Runner{Concurrency: 1, Timeout: 50 * time.Millisecond}

	summary, err := r.Run(context.Background(), tools)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Errored != 1 {
		t.Fatalf("summary = %+v, want one timed-out tool", summary)
	}
}

func TestTail(t *testing.T) {
	long := strings.Repeat("x", outputTailLimit+100)
	got := tail(long, outputTailLimit)
	if len(got) != outputTailLimit+3 || !strings.HasPrefix(got, "...") {
		t.Fatalf("tail length = %d, want truncated with ellipsis", len(got))
	}
	if got := tail("short\n", outputTailLimit); got != "short" {
		t.Fatalf("tail = %q, want %q", got, "short")
	}
}
