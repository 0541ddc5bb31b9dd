package rules

import (
	"errors"

	"qgispluginci/internal/config"
	"qgispluginci/internal/metadata"
	"qgispluginci/internal/validate"
)

// makeTarget builds a target around an in-memory manifest. A nil plugin
// stands for an unreadable manifest.
func makeTarget(p *metadata.Plugin) validate.Target {
	params := config.New()
	params.PluginSource = "my_plugin"
	t := validate.Target{
		RepoRoot:  "/repo",
		PluginDir: "/repo/my_plugin",
		Params:    params,
		Plugin:    p,
	}
	if p == nil {
		t.ReadErr = errors.New("read manifest: file does not exist")
	}
	return t
}

func validPlugin() *metadata.Plugin {
	return &metadata.Plugin{
		Name:               "Plugin CI Testing",
		QgisMinimumVersion: "3.2",
		Author:             "Jane Doe",
		Email:              "jane@example.org",
		Homepage:           "https://example.org",
	}
}
