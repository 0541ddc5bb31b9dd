package rules

import (
	"context"
	"strings"

	"qgispluginci/internal/validate"
)

type NamePresentRule struct{}

func (r *NamePresentRule) ID() string {
	return "name-present"
}

func (r *NamePresentRule) Title() string {
	return "Plugin Name Present"
}

func (r *NamePresentRule) Description() string {
	return "Verifies that the manifest declares a non-empty plugin name."
}

func (r *NamePresentRule) Evaluate(ctx context.Context, target validate.Target) (validate.Result, error) {
	if target.Plugin == nil {
		return validate.SkippedResult(target, r.ID(), "manifest not readable"), nil
	}
	if strings.TrimSpace(target.Plugin.Name) == "" {
		return validate.FailResult(target, r.ID(), "the name field is empty"), nil
	}
	return validate.PassResult(target, r.ID()), nil
}

func init() {
	validate.Register(&NamePresentRule{})
}
