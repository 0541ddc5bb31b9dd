package rules

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"

	"qgispluginci/internal/validate"
)

// pythonModuleRe matches a valid Python module name. QGIS imports the plugin
// directory as a module, so dashes or leading digits break loading.
var pythonModuleRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type SourceModuleNameRule struct{}

func (r *SourceModuleNameRule) ID() string {
	return "source-module-name"
}

func (r *SourceModuleNameRule) Title() string {
	return "Source Directory Is A Valid Python Module Name"
}

func (r *SourceModuleNameRule) Description() string {
	return "Verifies that the plugin source directory name is a valid Python module name (QGIS imports it)."
}

func (r *SourceModuleNameRule) Evaluate(ctx context.Context, target validate.Target) (validate.Result, error) {
	if target.Params == nil {
		return validate.SkippedResult(target, r.ID(), "no parameters configured"), nil
	}
	name := filepath.Base(target.Params.PluginSource)
	if !pythonModuleRe.MatchString(name) {
		return validate.FailResult(target, r.ID(),
			fmt.Sprintf("plugin_source directory %q is not a valid Python module name (use underscores, not dashes)", name)), nil
	}
	return validate.PassResult(target, r.ID()), nil
}

func init() {
	validate.Register(&SourceModuleNameRule{})
}
