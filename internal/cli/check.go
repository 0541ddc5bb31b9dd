package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"qgispluginci/internal/checks"
	"qgispluginci/internal/flags"
	"qgispluginci/internal/output"
)

type checkOptions struct {
	Only        string
	Concurrency int
	Timeout     time.Duration
	FailFast    bool
	Output      outputOptions
}

var checkOpts checkOptions

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the configured lint and test tools",
	Long: `Run the external lint and test tools configured for the plugin.

Tool commands come from the configuration ([tool.qgis-plugin-ci.check] in
pyproject.toml, keys "lint" and "test", each a list of argv vectors). Every
tool runs in the repository root; its exit code decides PASS or FAIL and the
tail of its output is captured in the results.

Exit codes:
	0 = all tools passed
	1 = a tool reported problems
	2 = a tool could not run
	3 = fatal error (no tools configured, invalid flags)

Examples:
  qgis-plugin-ci check
  qgis-plugin-ci check --only lint
  qgis-plugin-ci check --concurrency 4 --fail-fast --timeout 10m`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		params := loadParams()

		tools, err := checks.ToolsFromConfig(params.Check, checkOpts.Only)
		if err != nil {
			fatal("%v", err)
		}
		mgr, err := checkOpts.Output.manager()
		if err != nil {
			fatal("%v", err)
		}

		runner := &checks.Runner{
			Dir:         repoRoot(cmd),
			Concurrency: checkOpts.Concurrency,
			Timeout:     checkOpts.Timeout,
			FailFast:    checkOpts.FailFast,
			Emit:        mgr.Write,
		}

		_ = mgr.Write(output.RunStarted(0, len(tools)))
		summary, err := runner.Run(cmd.Context(), tools)
		if err != nil {
			fatal("%v", err)
		}
		_ = mgr.Write(output.RunFinished(summary.ExitCode()))
		closeManager(mgr)

		os.Exit(summary.ExitCode())
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkOpts.Only, flags.FlagOnly, "", "Restrict to one tool group: lint|test")
	checkCmd.Flags().IntVar(&checkOpts.Concurrency, flags.FlagConcurrency, 1, "Concurrent tools (default: 1, sequential)")
	checkCmd.Flags().DurationVar(&checkOpts.Timeout, flags.FlagTimeout, 0, "Per-tool timeout (0 = none)")
	checkCmd.Flags().BoolVar(&checkOpts.FailFast, flags.FlagFailFast, false, "Stop after the first failing tool")
	addOutputFlags(checkCmd, &checkOpts.Output)
}
