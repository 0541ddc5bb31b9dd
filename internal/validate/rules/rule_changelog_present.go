package rules

import (
	"context"
	"fmt"
	"os"

	"qgispluginci/internal/validate"
)

type ChangelogPresentRule struct{}

func (r *ChangelogPresentRule) ID() string {
	return "changelog-present"
}

func (r *ChangelogPresentRule) Title() string {
	return "Changelog File Present"
}

func (r *ChangelogPresentRule) Description() string {
	return "Verifies that the configured changelog file exists, so releases can resolve versions and embed release notes."
}

func (r *ChangelogPresentRule) Evaluate(ctx context.Context, target validate.Target) (validate.Result, error) {
	if target.Params == nil || target.Params.ChangelogFile == "" {
		return validate.SkippedResult(target, r.ID(), "changelog handling not configured"), nil
	}
	path := target.Params.ChangelogPath(target.RepoRoot)
	if _, err := os.Stat(path); err != nil {
		return validate.FailResult(target, r.ID(),
			fmt.Sprintf("changelog file %s not found", target.Params.ChangelogFile)), nil
	}
	return validate.PassResult(target, r.ID()), nil
}

func init() {
	validate.Register(&ChangelogPresentRule{})
}
