package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"qgispluginci/internal/changelog"
)

var changelogCmd = &cobra.Command{
	Use:   "changelog <release-version>",
	Short: "Print the changelog section for a version",
	Long: `Print the changelog entry for a released version.

The version must match a "## <version>" heading in the changelog file, or be
the sentinel "latest" for the most recent released section.

Examples:
  qgis-plugin-ci changelog 1.2.3
  qgis-plugin-ci changelog latest`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := loadParams()
		root := repoRoot(cmd)

		cl, err := changelog.Parse(params.ChangelogPath(root))
		if err != nil {
			return err
		}
		note, ok := cl.Find(args[0])
		if !ok {
			return fmt.Errorf("version %q not found in %s", args[0], params.ChangelogFile)
		}
		fmt.Fprintln(cmd.OutOrStdout(), note.Text())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(changelogCmd)
}
