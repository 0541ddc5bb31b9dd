package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"qgispluginci/internal/flags"
	"qgispluginci/internal/gitexec"
	gh "qgispluginci/internal/github"
	"qgispluginci/internal/osgeo"
	"qgispluginci/internal/release"
)

type releaseOptions struct {
	GithubToken      string
	GitTag           string
	PluginRepoURL    string
	CreatePluginRepo bool
	OsgeoUsername    string
	OsgeoPassword    string
	DryRun           bool
	AllowUncommitted bool
}

var releaseOpts releaseOptions

var releaseCmd = &cobra.Command{
	Use:   "release <release-version>",
	Short: "Package the plugin and publish it",
	Long: `Package the plugin and publish the archive to the configured targets.

Publishing targets are opt-in:
- GitHub: pass --github-token (or leave it empty with GITHUB_TOKEN set, or a
  logged-in gh CLI) to upload the archive to the release for --git-tag.
- Official QGIS plugin repository: pass --osgeo-username and --osgeo-password
  to upload via XML-RPC.

--create-plugin-repo additionally generates plugins.xml and uploads it as a
release asset, so the release itself can serve as a QGIS plugin repository.

Exit codes:
  0 = released
  1 = packaging or publishing failed
  3 = fatal error (invalid configuration, no git)

Examples:
  # GitHub release assets only
  export GITHUB_TOKEN="<your_token>"
  qgis-plugin-ci release 1.2.3 --github-token "$GITHUB_TOKEN" --create-plugin-repo

  # Official repository only
  qgis-plugin-ci release latest --osgeo-username jane --osgeo-password "$OSGEO_PASSWORD"

  # Rehearse without uploading
  qgis-plugin-ci release latest --dry-run --github-token x --create-plugin-repo`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		params := loadParams()
		git, err := gitexec.New(".")
		if err != nil {
			fatal("%v", err)
		}
		ctx := cmd.Context()

		runner := &release.Runner{Git: git}

		if cmd.Flags().Changed(flags.FlagGithubToken) {
			token, source, err := gh.ResolveAuthToken(ctx, releaseOpts.GithubToken)
			if err != nil {
				fatal("failed to resolve GitHub auth token: %v", err)
			}
			if strings.TrimSpace(token) == "" {
				fatal("GitHub auth token is required (set GITHUB_TOKEN or run 'gh auth login')")
			}
			logrus.Infof("using GitHub token from %s", source)
			runner.GitHub = gh.NewClient(token, gh.WithVerbose(verbosity > 1))
		}

		if releaseOpts.OsgeoUsername != "" || releaseOpts.OsgeoPassword != "" {
			client, err := osgeo.NewClient(params.UploadURL, releaseOpts.OsgeoUsername, releaseOpts.OsgeoPassword)
			if err != nil {
				fatal("%v", err)
			}
			runner.Osgeo = client
		}

		res, err := runner.Run(ctx, release.Options{
			Params:           params,
			VersionArg:       args[0],
			GitTag:           releaseOpts.GitTag,
			PluginRepoURL:    releaseOpts.PluginRepoURL,
			CreatePluginRepo: releaseOpts.CreatePluginRepo,
			AllowUncommitted: releaseOpts.AllowUncommitted,
			DryRun:           releaseOpts.DryRun,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen)
		green.Fprintf(cmd.OutOrStdout(), "Released %s %s (%s)\n",
			filepath.Base(res.ArchivePath), res.Version, release.HumanSize(res.ArchiveSize))
		for _, url := range res.AssetURLs {
			green.Fprintf(cmd.OutOrStdout(), "  %s\n", url)
		}
		if res.OsgeoVersion != 0 {
			green.Fprintf(cmd.OutOrStdout(), "  plugins.qgis.org version id %d\n", res.OsgeoVersion)
		}
	},
}

func init() {
	rootCmd.AddCommand(releaseCmd)
	releaseCmd.Flags().StringVar(&releaseOpts.GithubToken, flags.FlagGithubToken, "", "GitHub token for release asset upload (falls back to GITHUB_TOKEN, then 'gh auth token')")
	releaseCmd.Flags().StringVar(&releaseOpts.GitTag, flags.FlagGitTag, "", "GitHub release tag (default: the release version)")
	releaseCmd.Flags().StringVar(&releaseOpts.PluginRepoURL, flags.FlagPluginRepoURL, "", "Alternate plugin repository base URL for plugins.xml download links (implies plugins.xml generation)")
	releaseCmd.Flags().BoolVar(&releaseOpts.CreatePluginRepo, flags.FlagCreatePluginRepo, false, "Generate plugins.xml and upload it as a release asset")
	releaseCmd.Flags().StringVar(&releaseOpts.OsgeoUsername, flags.FlagOsgeoUsername, "", "OSGEO user name for plugins.qgis.org upload")
	releaseCmd.Flags().StringVar(&releaseOpts.OsgeoPassword, flags.FlagOsgeoPassword, "", "OSGEO password for plugins.qgis.org upload")
	releaseCmd.Flags().BoolVar(&releaseOpts.DryRun, flags.FlagDryRun, false, "Build everything locally, upload nothing")
	releaseCmd.Flags().BoolVar(&releaseOpts.AllowUncommitted, flags.FlagAllowUncommitted, false, "Release despite uncommitted changes")
}
