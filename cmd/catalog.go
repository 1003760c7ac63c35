package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"snowcheck/internal/catalog"
	"snowcheck/internal/config"
	"snowcheck/internal/ui"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog <suite>",
	Short: "List a suite's rule identifiers",
	Long: `List every rule instance of a suite with its stable identifier.

Identifiers are derived from rule content, so the catalog is regenerated
from the document on every call and needs no side storage. Use it to map
an identifier from a report back to the rule that produced it.`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalog,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) error {
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

	ui.ShowHeader(fmt.Sprintf("Suite: %s", suite.Name))
	if suite.Description != "" {
		ui.PrintKeyValue("Description", suite.Description)
	}
	ui.PrintKeyValue("Rules", fmt.Sprintf("%d", len(suite.Rules)))
	fmt.Println()

	table := ui.NewTable()
	table.AddHeader("Rule ID", "Kind", "Target", "Columns")
	for _, entry := range catalog.Catalog(suite) {
		table.AddRow(entry.RuleID, string(entry.Kind), entry.Target, strings.Join(entry.Columns, ", "))
	}
	table.Render()

	if len(suite.Derived) > 0 {
		fmt.Println()
		derived := ui.NewTable()
		derived.AddHeader("Derived Status", "Alias", "Members")
		for _, d := range suite.Derived {
			derived.AddRow(d.Name, d.Alias, fmt.Sprintf("%d rules", len(d.MemberIDs)))
		}
		derived.Render()
	}

	return nil
}
