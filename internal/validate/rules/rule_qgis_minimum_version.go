package rules

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"

	"qgispluginci/internal/validate"
)

type QgisMinimumVersionRule struct{}

func (r *QgisMinimumVersionRule) ID() string {
	return "qgis-minimum-version"
}

func (r *QgisMinimumVersionRule) Title() string {
	return "QGIS Minimum Version Declared"
}

func (r *QgisMinimumVersionRule) Description() string {
	return "Verifies that qgisMinimumVersion is present and a well-formed version (e.g. 3.2)."
}

func (r *QgisMinimumVersionRule) Evaluate(ctx context.Context, target validate.Target) (validate.Result, error) {
	if target.Plugin == nil {
		return validate.SkippedResult(target, r.ID(), "manifest not readable"), nil
	}
	raw := target.Plugin.QgisMinimumVersion
	if raw == "" {
		return validate.FailResult(target, r.ID(), "qgisMinimumVersion is not set"), nil
	}
	// QGIS versions are not strict SemVer ("3.2"), so the lenient parse is
	// intentional.
	if _, err := semver.NewVersion(raw); err != nil {
		return validate.FailResult(target, r.ID(), fmt.Sprintf("qgisMinimumVersion %q is not a valid version", raw)), nil
	}
	return validate.PassResult(target, r.ID()), nil
}

func init() {
	validate.Register(&QgisMinimumVersionRule{})
}
