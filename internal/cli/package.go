package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"qgispluginci/internal/flags"
	"qgispluginci/internal/gitexec"
	"qgispluginci/internal/release"
)

type packageOptions struct {
	PluginRepoURL    string
	DryRun           bool
	AllowUncommitted bool
}

var packageOpts packageOptions

var packageCmd = &cobra.Command{
	Use:   "package <release-version>",
	Short: "Build the plugin archive",
	Long: `Build the plugin archive from the committed files of the repository.

The archive is named <plugin_slug>.<version>.zip and written to the repository
root. The manifest inside the archive is stamped with the version, commit
number, commit SHA, packaging time and a changelog excerpt.

The release version is a SemVer string, or "latest" to resolve the most recent
version from the changelog.

Examples:
  qgis-plugin-ci package 1.2.3
  qgis-plugin-ci package latest --plugin-repo-url https://plugins.example.org/`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		params := loadParams()
		git, err := gitexec.New(".")
		if err != nil {
			fatal("%v", err)
		}

		runner := &release.Runner{Git: git}
		res, err := runner.Package(cmd.Context(), release.Options{
			Params:           params,
			VersionArg:       args[0],
			PluginRepoURL:    packageOpts.PluginRepoURL,
			AllowUncommitted: packageOpts.AllowUncommitted,
			DryRun:           packageOpts.DryRun,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen)
		green.Fprintf(cmd.OutOrStdout(), "Packaged %s (%s)\n",
			filepath.Base(res.ArchivePath), release.HumanSize(res.ArchiveSize))
		if res.IndexPath != "" {
			green.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", filepath.Base(res.IndexPath))
		}
	},
}

func init() {
	rootCmd.AddCommand(packageCmd)
	packageCmd.Flags().StringVar(&packageOpts.PluginRepoURL, flags.FlagPluginRepoURL, "", "Also generate plugins.xml with download links under this base URL")
	packageCmd.Flags().BoolVar(&packageOpts.DryRun, flags.FlagDryRun, false, "Build locally, never upload (accepted for symmetry with release)")
	packageCmd.Flags().BoolVar(&packageOpts.AllowUncommitted, flags.FlagAllowUncommitted, false, "Package despite uncommitted changes (uncommitted files are still excluded from the archive)")
}
