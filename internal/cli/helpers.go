package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"qgispluginci/internal/config"
	"qgispluginci/internal/flags"
	"qgispluginci/internal/gitexec"
	"qgispluginci/internal/output"
)

// fatal prints a red error line and exits with the "could not run" code.
func fatal(format string, args ...any) {
	color.New(color.FgRed).Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(3)
}

// loadParams discovers and validates the packaging parameters in the current
// directory. Any problem is fatal: no command can run without them.
func loadParams() *config.Parameters {
	params, source, err := config.Discover(".")
	if err != nil {
		fatal("%v", err)
	}
	if err := params.Validate(); err != nil {
		fatal("invalid configuration in %s: %v", source, err)
	}
	logrus.Infof("loaded configuration from %s", source)
	return params
}

// repoRoot resolves the git repository root, falling back to the current
// directory when git is unavailable (validate and check work without it).
func repoRoot(cmd *cobra.Command) string {
	g, err := gitexec.New(".")
	if err != nil {
		logrus.Debugf("git unavailable, using working directory: %v", err)
		return "."
	}
	root, err := g.TopLevel(cmd.Context())
	if err != nil {
		logrus.Debugf("not a git repository, using working directory: %v", err)
		return "."
	}
	return root
}

// outputOptions holds the sink flags shared by validate and check.
type outputOptions struct {
	ConsoleFormat string
	Report        string
	Out           string
	OutFormat     string
	NoConsole     bool
}

func addOutputFlags(cmd *cobra.Command, o *outputOptions) {
	cmd.Flags().StringVar(&o.ConsoleFormat, flags.FlagConsoleFormat, "text", "Console output format: text|json|ndjson (default: text)")
	cmd.Flags().StringVar(&o.Report, flags.FlagReport, "", "Write a Markdown report to this path")
	cmd.Flags().StringVar(&o.Out, flags.FlagOut, "", "Write structured output to this path")
	cmd.Flags().StringVar(&o.OutFormat, flags.FlagOutFormat, "", "Structured output format for --out: json|ndjson (default: inferred from file extension)")
	cmd.Flags().BoolVar(&o.NoConsole, flags.FlagNoConsole, false, "Suppress console output (use with --out/--report)")
}

// manager assembles the sink fan-out from the output flags.
func (o outputOptions) manager() (*output.Manager, error) {
	m := output.NewManager()
	if !o.NoConsole {
		m.AddSink(output.NewConsoleSink(os.Stdout, o.ConsoleFormat))
	}
	if o.Out != "" {
		sink, err := output.NewFileSink(o.Out, o.OutFormat)
		if err != nil {
			return nil, err
		}
		m.AddSink(sink)
	}
	if o.Report != "" {
		sink, err := output.NewReportSink(o.Report)
		if err != nil {
			return nil, err
		}
		m.AddSink(sink)
	}
	return m, nil
}

// closeManager flushes the sinks after a run. Close failures are a partial
// result loss, not a fatal condition.
func closeManager(m *output.Manager) {
	if err := m.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
}
