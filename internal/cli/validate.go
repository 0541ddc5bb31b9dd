package cli

import (
	"os"

	"github.com/spf13/cobra"

	"qgispluginci/internal/flags"
	"qgispluginci/internal/output"
	"qgispluginci/internal/validate"
)

type validateOptions struct {
	Rules  string
	Output outputOptions
}

var validateOpts validateOptions

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the plugin manifest",
	Long: `Run the manifest validation rules against the configured plugin source.

Each rule checks one property of metadata.txt (required fields, version
bounds, referenced files). Results stream to the console and to the optional
structured sinks.

Exit codes:
	0 = all rules passed
	1 = rule failures
	2 = some rules errored
	3 = fatal error (validation did not run)

Examples:
  qgis-plugin-ci validate
  qgis-plugin-ci validate --rules name-present,icon-exists
  qgis-plugin-ci validate --no-console --out results.ndjson --report report.md`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		params := loadParams()

		rules, err := validate.Resolve(validateOpts.Rules)
		if err != nil {
			fatal("%v", err)
		}
		mgr, err := validateOpts.Output.manager()
		if err != nil {
			fatal("%v", err)
		}

		ctx := cmd.Context()
		target := validate.NewTarget(repoRoot(cmd), params)

		_ = mgr.Write(output.RunStarted(len(rules), 0))
		summary, err := validate.Run(ctx, target, rules, mgr)
		if err != nil {
			fatal("%v", err)
		}
		_ = mgr.Write(output.RunFinished(summary.ExitCode()))
		closeManager(mgr)

		os.Exit(summary.ExitCode())
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVar(&validateOpts.Rules, flags.FlagRules, "", "Comma-separated rule IDs to run (empty = all rules)")
	addOutputFlags(validateCmd, &validateOpts.Output)
}
