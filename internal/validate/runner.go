package validate

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Writer receives rule results as they are produced. output.Manager satisfies
// it.
type Writer interface {
	Write(v any) error
}

// Summary tallies a validation run.
type Summary struct {
	Pass    int
	Fail    int
	Skipped int
	Errored int
}

// ExitCode maps the summary to the CLI exit code contract:
// 0 = all rules passed, 1 = failures, 2 = some rules errored.
// (3 = fatal is decided by the caller when the run could not start.)
func (s Summary) ExitCode() int {
	if s.Errored > 0 {
		return 2
	}
	if s.Fail > 0 {
		return 1
	}
	return 0
}

func (s *Summary) count(res Result) {
	switch res.Status {
	case StatusPass:
		s.Pass++
	case StatusFail:
		s.Fail++
	case StatusSkipped:
		s.Skipped++
	case StatusError:
		s.Errored++
	}
}

// Run evaluates the rules against the target, streaming every result to w.
func Run(ctx context.Context, target Target, rules []Rule, w Writer) (Summary, error) {
	var summary Summary
	for _, r := range rules {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		res, err := r.Evaluate(ctx, target)
		if err != nil {
			logrus.Debugf("validate: rule %s errored: %v", r.ID(), err)
			res = ErrorResult(target, r.ID(), err.Error())
		}
		summary.count(res)
		if w != nil {
			if err := w.Write(res); err != nil {
				return summary, err
			}
		}
	}
	return summary, nil
}

// RunBlocking evaluates the packaging-blocking subset and returns an error
// listing every failure. Packaging must not proceed past it.
func RunBlocking(ctx context.Context, target Target) error {
	rules, err := Resolve(strings.Join(BlockingRuleIDs, ","))
	if err != nil {
		return err
	}

	var failures []string
	for _, r := range rules {
		res, err := r.Evaluate(ctx, target)
		if err != nil {
			return fmt.Errorf("rule %s: %w", r.ID(), err)
		}
		if res.Status == StatusFail || res.Status == StatusError {
			failures = append(failures, fmt.Sprintf("%s: %s", res.RuleID, res.Message))
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("manifest validation failed:\n  %s", strings.Join(failures, "\n  "))
	}
	return nil
}
