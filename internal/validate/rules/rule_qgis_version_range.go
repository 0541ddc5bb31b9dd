package rules

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"

	"qgispluginci/internal/validate"
)

type QgisVersionRangeRule struct{}

func (r *QgisVersionRangeRule) ID() string {
	return "qgis-version-range"
}

func (r *QgisVersionRangeRule) Title() string {
	return "QGIS Version Range Consistent"
}

func (r *QgisVersionRangeRule) Description() string {
	return "Verifies that qgisMinimumVersion does not exceed qgisMaximumVersion when both are set."
}

func (r *QgisVersionRangeRule) Evaluate(ctx context.Context, target validate.Target) (validate.Result, error) {
	if target.Plugin == nil {
		return validate.SkippedResult(target, r.ID(), "manifest not readable"), nil
	}
	minRaw := target.Plugin.QgisMinimumVersion
	maxRaw := target.Plugin.QgisMaximumVersion
	if minRaw == "" || maxRaw == "" {
		return validate.SkippedResult(target, r.ID(), "qgisMaximumVersion not set"), nil
	}

	minVer, err := semver.NewVersion(minRaw)
	if err != nil {
		return validate.FailResult(target, r.ID(), fmt.Sprintf("qgisMinimumVersion %q is not a valid version", minRaw)), nil
	}
	maxVer, err := semver.NewVersion(maxRaw)
	if err != nil {
		return validate.FailResult(target, r.ID(), fmt.Sprintf("qgisMaximumVersion %q is not a valid version", maxRaw)), nil
	}
	if minVer.GreaterThan(maxVer) {
		return validate.FailResultWithEvidence(target, r.ID(),
			"qgisMinimumVersion exceeds qgisMaximumVersion",
			map[string]string{"min": minRaw, "max": maxRaw}), nil
	}
	return validate.PassResult(target, r.ID()), nil
}

func init() {
	validate.Register(&QgisVersionRangeRule{})
}
