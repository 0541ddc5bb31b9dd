// Package checks runs the configured external test and lint tools and
// classifies their outcomes. It wraps existing tools (pytest, ruff, mypy,
// whatever the configuration names); it never interprets their output beyond
// the exit code.
package checks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"qgispluginci/internal/config"
)

// Group classifies a tool invocation.
type Group string

const (
	GroupLint Group = "lint"
	GroupTest Group = "test"
)

type Status string

const (
	// StatusPass: the tool ran and exited 0.
	StatusPass Status = "PASS"
	// StatusFail: the tool ran and exited non-zero (problems found).
	StatusFail Status = "FAIL"
	// StatusError: the tool could not run (missing binary, timeout).
	StatusError Status = "ERROR"
)

// outputTailLimit bounds how much combined output a result carries.
const outputTailLimit = 4 * 1024

// Tool is one external command to run.
type Tool struct {
	Name  string
	Group Group
	Argv  []string
}

// Result is the outcome of one tool invocation.
type Result struct {
	Tool       string `json:"tool"`
	Group      Group  `json:"group"`
	Command    string `json:"command"`
	Status     Status `json:"status"`
	ExitCode   int    `json:"exit_code"`
	DurationMS int64  `json:"duration_ms"`
	// Output is the tail of the combined stdout/stderr, kept short enough
	// for structured streams.
	Output  string `json:"output,omitempty"`
	Message string `json:"message,omitempty"`
}

// Summary tallies a check run.
type Summary struct {
	Pass    int
	Fail    int
	Errored int
}

// ExitCode maps the summary to the CLI exit code contract:
// 0 = all tools passed, 1 = a tool found problems, 2 = a tool could not run.
func (s Summary) ExitCode() int {
	if s.Errored > 0 {
		return 2
	}
	if s.Fail > 0 {
		return 1
	}
	return 0
}

// ErrNoTools is returned when the configuration names no tools for the
// requested selection.
var ErrNoTools = errors.New("no check tools configured (add [tool.qgis-plugin-ci.check] lint/test entries)")

// ToolsFromConfig expands the configured argv vectors into tools. only may be
// empty (both groups), "lint", or "test".
func ToolsFromConfig(c config.Check, only string) ([]Tool, error) {
	var tools []Tool
	add := func(group Group, argvs [][]string) {
		for _, argv := range argvs {
			tools = append(tools, Tool{Name: argv[0], Group: group, Argv: argv})
		}
	}
	switch only {
	case "":
		add(GroupLint, c.Lint)
		add(GroupTest, c.Test)
	case string(GroupLint):
		add(GroupLint, c.Lint)
	case string(GroupTest):
		add(GroupTest, c.Test)
	default:
		return nil, fmt.Errorf("unsupported --only value: %s (must be lint or test)", only)
	}
	if len(tools) == 0 {
		return nil, ErrNoTools
	}
	return tools, nil
}

// Runner executes tools and streams one Result per tool through Emit.
type Runner struct {
	// Dir is the working directory tools run in.
	Dir string

	// Concurrency caps how many tools run at once. 1 keeps the conventional
	// sequential flow.
	Concurrency int

	// Timeout bounds each tool individually. Zero means no timeout.
	Timeout time.Duration

	// FailFast cancels outstanding tools after the first FAIL or ERROR.
	FailFast bool

	// Emit receives each Result as it completes. May be nil.
	Emit func(v any) error
}

// errFailFast aborts the group without being a real runner error.
var errFailFast = errors.New("fail-fast")

// Run executes all tools and returns the tallied summary.
func (r *Runner) Run(ctx context.Context, tools []Tool) (Summary, error) {
	concurrency := r.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	results := make([]Result, len(tools))
	for i, tool := range tools {
		i, tool := i, tool
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = Result{
					Tool:    tool.Name,
					Group:   tool.Group,
					Command: strings.Join(tool.Argv, " "),
					Status:  StatusError,
					Message: "canceled before start",
				}
				return nil
			}
			res := r.runTool(gctx, tool)
			results[i] = res
			if r.Emit != nil {
				if err := r.Emit(res); err != nil {
					return err
				}
			}
			if r.FailFast && res.Status != StatusPass {
				return errFailFast
			}
			return nil
		})
	}

	err := g.Wait()
	if err != nil && !errors.Is(err, errFailFast) {
		return Summary{}, err
	}

	var summary Summary
	for _, res := range results {
		switch res.Status {
		case StatusPass:
			summary.Pass++
		case StatusFail:
			summary.Fail++
		case StatusError:
			summary.Errored++
		}
	}
	return summary, nil
}

func (r *Runner) runTool(ctx context.Context, tool Tool) Result {
	res := Result{
		Tool:    tool.Name,
		Group:   tool.Group,
		Command: strings.Join(tool.Argv, " "),
	}

	cmdCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		cmdCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	logrus.Infof("checks: running %s", res.Command)
	cmd := exec.CommandContext(cmdCtx, tool.Argv[0], tool.Argv[1:]...)
	cmd.Dir = r.Dir
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	start := time.Now()
	err := cmd.Run()
	res.DurationMS = time.Since(start).Milliseconds()
	res.Output = tail(buf.String(), outputTailLimit)

	switch {
	case err == nil:
		res.Status = StatusPass
	case cmdCtx.Err() != nil:
		res.Status = StatusError
		res.Message = fmt.Sprintf("tool did not finish: %v", cmdCtx.Err())
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.Status = StatusFail
			res.ExitCode = exitErr.ExitCode()
			res.Message = fmt.Sprintf("exited with code %d", res.ExitCode)
		} else {
			res.Status = StatusError
			res.Message = err.Error()
		}
	}
	return res
}

func tail(s string, limit int) string {
	s = strings.TrimRight(s, "\n")
	if len(s) <= limit {
		return s
	}
	return "..." + s[len(s)-limit:]
}
