package flags

// Package flags defines canonical CLI flag names shared across commands.
// Keeping these as constants helps avoid drift between Cobra flag wiring and
// other code paths that need to reference flags (e.g. error messages that
// suggest which flag to set).
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVar(&opts.GitTag, flags.FlagGitTag, "", "...")
//	arg := "--" + flags.FlagGitTag
const (
	// Packaging / release
	FlagPluginRepoURL    = "plugin-repo-url"
	FlagCreatePluginRepo = "create-plugin-repo"
	FlagGithubToken      = "github-token"
	FlagGitTag           = "git-tag"
	FlagOsgeoUsername    = "osgeo-username"
	FlagOsgeoPassword    = "osgeo-password"
	FlagDryRun           = "dry-run"
	FlagAllowUncommitted = "allow-uncommitted-changes"

	// Validation
	FlagRules = "rules"

	// Check
	FlagOnly        = "only"
	FlagConcurrency = "concurrency"
	FlagTimeout     = "timeout"
	FlagFailFast    = "fail-fast"

	// Output
	FlagConsoleFormat = "console-format"
	FlagReport        = "report"
	FlagOut           = "out"
	FlagOutFormat     = "out-format"
	FlagNoConsole     = "no-console"

	// Global
	FlagVerbose = "verbose"
)
