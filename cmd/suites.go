package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"snowcheck/internal/catalog"
	"snowcheck/internal/config"
	"snowcheck/internal/gitsync"
	"snowcheck/internal/ui"
)

var suitesCmd = &cobra.Command{
	Use:   "suites",
	Short: "Manage validation suites",
}

var suitesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available suites",
	RunE:  runSuitesList,
}

var suitesSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync suites from the configured git repository",
	RunE:  runSuitesSync,
}

func init() {
	rootCmd.AddCommand(suitesCmd)
	suitesCmd.AddCommand(suitesListCmd)
	suitesCmd.AddCommand(suitesSyncCmd)
}

func runSuitesList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		ui.ShowError(err)
		return err
	}

	dir := cfg.Suites.Directory
	if dir == "" {
		dir = config.DefaultSuitesDir()
	}

	paths, err := catalog.DiscoverSuites(dir)
	if err != nil {
		ui.ShowError(err)
		return err
	}
	if len(paths) == 0 {
		ui.ShowWarning(fmt.Sprintf("No suites found in %s", dir))
		return nil
	}

	table := ui.NewTable()
	table.AddHeader("Suite", "Rules", "Derived", "File")
	for _, path := range paths {
		suite, err := catalog.LoadFile(path)
		if err != nil {
			table.AddRow(filepath.Base(path), "-", "-", fmt.Sprintf("invalid: %v", err))
			continue
		}
		table.AddRow(suite.Name,
			fmt.Sprintf("%d", len(suite.Rules)),
			fmt.Sprintf("%d", len(suite.Derived)),
			path)
	}
	table.Render()
	return nil
}

func runSuitesSync(cmd *cobra.Command, args []string) error {
	appUI := ui.NewUI(verboseFlag, quietFlag)

	cfg, err := config.Load()
	if err != nil {
		ui.ShowError(err)
		return err
	}
	if cfg.Suites.GitURL == "" {
		err := fmt.Errorf("no suites git repository configured; set suites.git_url in %s", config.GetConfigFile())
		ui.ShowError(err)
		return err
	}

	syncer := gitsync.NewSyncer(filepath.Join(config.GetConfigPath(), "repos"))

	appUI.StartProgress(fmt.Sprintf("Syncing suites from %s", cfg.Suites.GitURL))
	localPath, err := syncer.Sync(cfg.Suites.GitURL, cfg.Suites.Branch)
	if err != nil {
		appUI.StopProgress(false, "Sync failed")
		ui.ShowError(err)
		return err
	}
	appUI.StopProgress(true, fmt.Sprintf("Suites synced to %s", localPath))

	if cfg.Suites.Directory != localPath {
		cfg.Suites.Directory = localPath
		if err := config.Save(cfg); err != nil {
			ui.ShowError(err)
			return err
		}
		appUI.Info(fmt.Sprintf("Suites directory set to %s", localPath))
	}
	return nil
}
