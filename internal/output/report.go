package output

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"qgispluginci/internal/checks"
	"qgispluginci/internal/validate"
)

// ReportSink aggregates results and writes a Markdown summary on Close.
type ReportSink struct {
	path         string
	file         *os.File
	mu           sync.Mutex
	ruleResults  []validate.Result
	toolResults  []checks.Result
	exitCode     int
	haveExitCode bool
}

func NewReportSink(path string) (*ReportSink, error) {
	if path == "" {
		return nil, fmt.Errorf("report path required")
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}
	return &ReportSink{path: path, file: f}, nil
}

func (s *ReportSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch t := v.(type) {
	case validate.Result:
		s.ruleResults = append(s.ruleResults, t)
	case checks.Result:
		s.toolResults = append(s.toolResults, t)
	case Event:
		if t.Type == "run.finished" {
			s.exitCode = t.ExitCode
			s.haveExitCode = true
		}
	}
	return nil
}

func (s *ReportSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	b.WriteString("# qgis-plugin-ci report\n\n")

	if s.haveExitCode {
		fmt.Fprintf(&b, "Exit code: `%d`\n\n", s.exitCode)
	}

	if len(s.ruleResults) > 0 {
		writeRuleSection(&b, s.ruleResults)
	}
	if len(s.toolResults) > 0 {
		writeToolSection(&b, s.toolResults)
	}
	if len(s.ruleResults) == 0 && len(s.toolResults) == 0 {
		b.WriteString("No results were produced.\n")
	}

	if _, err := s.file.WriteString(b.String()); err != nil {
		_ = s.file.Close()
		return err
	}
	return s.file.Close()
}

func writeRuleSection(b *strings.Builder, results []validate.Result) {
	var pass, fail, skipped, errored int
	for _, r := range results {
		switch r.Status {
		case validate.StatusPass:
			pass++
		case validate.StatusFail:
			fail++
		case validate.StatusSkipped:
			skipped++
		case validate.StatusError:
			errored++
		}
	}

	b.WriteString("## Manifest validation\n\n")
	fmt.Fprintf(b, "%d rules: %d passed, %d failed, %d skipped, %d errored.\n\n",
		len(results), pass, fail, skipped, errored)

	b.WriteString("| Rule | Plugin | Status | Message |\n")
	b.WriteString("|------|--------|--------|---------|\n")
	for _, r := range results {
		fmt.Fprintf(b, "| %s | %s | %s | %s |\n",
			r.RuleID, r.Plugin, r.Status, mdCell(r.Message))
	}
	b.WriteString("\n")

	wroteHeader := false
	for _, r := range results {
		if r.Status != validate.StatusFail || len(r.Evidence) == 0 {
			continue
		}
		if !wroteHeader {
			b.WriteString("### Failure evidence\n\n")
			wroteHeader = true
		}
		fmt.Fprintf(b, "- **%s**:", r.RuleID)
		for k, v := range r.Evidence {
			fmt.Fprintf(b, " %s=`%s`", k, v)
		}
		b.WriteString("\n")
	}
	if wroteHeader {
		b.WriteString("\n")
	}
}

func writeToolSection(b *strings.Builder, results []checks.Result) {
	var pass, fail, errored int
	for _, r := range results {
		switch r.Status {
		case checks.StatusPass:
			pass++
		case checks.StatusFail:
			fail++
		case checks.StatusError:
			errored++
		}
	}

	b.WriteString("## Checks\n\n")
	fmt.Fprintf(b, "%d tools: %d passed, %d failed, %d errored.\n\n",
		len(results), pass, fail, errored)

	b.WriteString("| Tool | Group | Status | Duration | Message |\n")
	b.WriteString("|------|-------|--------|----------|---------|\n")
	for _, r := range results {
		fmt.Fprintf(b, "| %s | %s | %s | %dms | %s |\n",
			r.Tool, r.Group, r.Status, r.DurationMS, mdCell(r.Message))
	}
	b.WriteString("\n")

	for _, r := range results {
		if r.Status == checks.StatusPass || r.Output == "" {
			continue
		}
		fmt.Fprintf(b, "### %s output\n\n```\n%s\n```\n\n", r.Tool, r.Output)
	}
}

// mdCell keeps table cells on one line.
func mdCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
