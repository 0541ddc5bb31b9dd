package rules

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"qgispluginci/internal/validate"
)

type IconExistsRule struct{}

func (r *IconExistsRule) ID() string {
	return "icon-exists"
}

func (r *IconExistsRule) Title() string {
	return "Icon File Exists"
}

func (r *IconExistsRule) Description() string {
	return "Verifies that the icon path declared in the manifest exists under the plugin source directory."
}

func (r *IconExistsRule) Evaluate(ctx context.Context, target validate.Target) (validate.Result, error) {
	if target.Plugin == nil {
		return validate.SkippedResult(target, r.ID(), "manifest not readable"), nil
	}
	icon := target.Plugin.Icon
	if icon == "" {
		return validate.SkippedResult(target, r.ID(), "no icon declared"), nil
	}
	path := filepath.Join(target.PluginDir, filepath.FromSlash(icon))
	if _, err := os.Stat(path); err != nil {
		return validate.FailResult(target, r.ID(), fmt.Sprintf("icon %q not found in the plugin source", icon)), nil
	}
	return validate.PassResult(target, r.ID()), nil
}

func init() {
	validate.Register(&IconExistsRule{})
}
