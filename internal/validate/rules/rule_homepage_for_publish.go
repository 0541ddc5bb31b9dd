package rules

import (
	"context"

	"qgispluginci/internal/validate"
)

type HomepageForPublishRule struct{}

func (r *HomepageForPublishRule) ID() string {
	return "homepage-for-publish"
}

func (r *HomepageForPublishRule) Title() string {
	return "Homepage Set For Publishing"
}

func (r *HomepageForPublishRule) Description() string {
	return "Verifies that the manifest declares a homepage, which plugins.qgis.org requires for publishing."
}

func (r *HomepageForPublishRule) Evaluate(ctx context.Context, target validate.Target) (validate.Result, error) {
	if target.Plugin == nil {
		return validate.SkippedResult(target, r.ID(), "manifest not readable"), nil
	}
	if target.Plugin.Homepage == "" {
		return validate.FailResult(target, r.ID(), "homepage is not set (required to publish on plugins.qgis.org)"), nil
	}
	return validate.PassResult(target, r.ID()), nil
}

func init() {
	validate.Register(&HomepageForPublishRule{})
}
