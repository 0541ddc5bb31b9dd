package cli

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"qgispluginci/internal/flags"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var verbosity int

var rootCmd = &cobra.Command{
	Use:   "qgis-plugin-ci",
	Short: "Package, validate and release QGIS plugins from CI",
	Long: `qgis-plugin-ci packages QGIS plugins and publishes them to GitHub releases
and to the official QGIS plugin repository.

It reads the plugin manifest (metadata.txt), the changelog and a small
configuration file, assembles the plugin archive from committed files and
stamps the manifest with the release version, commit and changelog excerpt.

Examples:
	# Print the changelog section for the latest version
	qgis-plugin-ci changelog latest

	# Build the plugin archive for a version
	qgis-plugin-ci package 1.2.3

	# Package and publish everywhere
	qgis-plugin-ci release 1.2.3 --github-token $GITHUB_TOKEN --create-plugin-repo

	# Validate the manifest
	qgis-plugin-ci validate

	# Run the configured lint and test tools
	qgis-plugin-ci check`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		configureLogging(verbosity)
	},
}

func configureLogging(verbosity int) {
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	switch {
	case verbosity <= 0:
		logrus.SetLevel(logrus.WarnLevel)
	case verbosity == 1:
		logrus.SetLevel(logrus.InfoLevel)
	default:
		logrus.SetLevel(logrus.DebugLevel)
	}
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, flags.FlagVerbose, "v", "Increase logging verbosity (-v info, -vv debug)")
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
