package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"snowcheck/internal/catalog"
	"snowcheck/internal/config"
	"snowcheck/internal/runner"
	"snowcheck/internal/ui"
)

var previewLimit int

var previewCmd = &cobra.Command{
	Use:   "preview <suite>",
	Short: "Print the query a suite compiles to",
	Long: `Print the query a suite compiles to without connecting to Snowflake.

Useful for reviewing a new suite, or for running the query by hand in a
worksheet.`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().IntVarP(&previewLimit, "limit", "l", 0, "Cap the validated row set (0 validates everything)")
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		ui.ShowError(err)
		return err
	}

	paths, err := resolveSuitePaths(cfg, args)
	if err != nil {
		ui.ShowError(err)
		return err
	}

	suite, err := catalog.LoadFile(paths[0])
	if err != nil {
		ui.ShowError(err)
		return err
	}

	run := runner.New(nil, newResolver(cfg))
	query, err := run.Preview(suite, runner.Options{Limit: previewLimit})
	if err != nil {
		ui.ShowError(err)
		return err
	}

	fmt.Println(query)
	return nil
}
