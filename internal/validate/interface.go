package validate

import (
	"context"

	"qgispluginci/internal/config"
	"qgispluginci/internal/metadata"
)

// Target is the plugin a validation run inspects. The manifest is parsed once
// and handed to every rule; rules never touch the filesystem for the manifest
// itself.
type Target struct {
	// RepoRoot is the repository root directory.
	RepoRoot string

	// PluginDir is the plugin source directory (RepoRoot joined with the
	// configured plugin_source).
	PluginDir string

	// Params are the validated packaging parameters.
	Params *config.Parameters

	// Plugin is the parsed manifest, nil when it could not be read.
	Plugin *metadata.Plugin

	// ReadErr is the manifest read/parse error when Plugin is nil.
	ReadErr error
}

// Label identifies the target in results, as the configured source directory.
func (t Target) Label() string {
	if t.Params != nil {
		return t.Params.PluginSource
	}
	return t.PluginDir
}

// NewTarget reads the plugin manifest for params under repoRoot. A manifest
// read failure is recorded on the target, not returned: rules decide how to
// report it.
func NewTarget(repoRoot string, params *config.Parameters) Target {
	t := Target{
		RepoRoot:  repoRoot,
		PluginDir: params.PluginPath(repoRoot),
		Params:    params,
	}
	t.Plugin, t.ReadErr = metadata.Read(t.PluginDir)
	if t.Plugin != nil && params.Project != nil {
		name, email := params.Project.Author()
		t.Plugin.FillMissing(metadata.Defaults{
			Description: params.Project.Description,
			Author:      name,
			Email:       email,
			Tags:        params.Project.Keywords,
			Homepage:    params.Project.URLs.Homepage,
			Tracker:     params.Project.URLs.Tracker,
			Repository:  params.Project.URLs.Repository,
		})
	}
	return t
}

type Rule interface {
	ID() string
	Title() string
	Description() string

	// Evaluate runs rule logic against the target manifest and source tree.
	Evaluate(ctx context.Context, target Target) (Result, error)
}
