package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"snowcheck/internal/catalog"
	"snowcheck/internal/config"
	"snowcheck/internal/grain"
	"snowcheck/internal/report"
	"snowcheck/internal/runner"
	"snowcheck/internal/security"
	"snowcheck/internal/snowflake"
	"snowcheck/internal/ui"
	"snowcheck/pkg/models"
)

var (
	validateLimit    int
	validateFallback bool
	validateNoDetail bool
)

var validateCmd = &cobra.Command{
	Use:   "validate [suite...]",
	Short: "Run validation suites against Snowflake",
	Long: `Run one or more validation suites against Snowflake.

Each suite compiles into a single query; the command reports per-rule
failure counts and the failing entities. Suites are named by file path,
or by file name inside the configured suites directory. With no
arguments every suite in the directory runs.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().IntVarP(&validateLimit, "limit", "l", 0, "Cap the validated row set (0 validates everything)")
	validateCmd.Flags().BoolVar(&validateFallback, "fallback", false, "Degrade unmapped columns to the root entity key")
	validateCmd.Flags().BoolVar(&validateNoDetail, "no-detail", false, "Skip the failing-entity listing")
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	appUI := ui.NewUI(verboseFlag, quietFlag)

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

	service, err := connectService(ctx, cfg, appUI)
	if err != nil {
		ui.ShowError(err)
		return err
	}
	defer service.Close()

	resolver := newResolver(cfg)
	run := runner.New(service, resolver)
	formatter := report.NewFormatter(isatty.IsTerminal(os.Stdout.Fd()))

	limit := validateLimit
	if limit == 0 {
		limit = cfg.Validation.RowLimit
	}

	failed := false
	for _, path := range paths {
		suite, err := catalog.LoadFile(path)
		if err != nil {
			ui.ShowError(err)
			return err
		}

		appUI.StartProgress(fmt.Sprintf("Validating %s", suite.Name))
		result, err := run.Run(ctx, suite, runner.Options{Limit: limit})
		if err != nil {
			appUI.StopProgress(false, fmt.Sprintf("Suite %s failed", suite.Name))
			ui.ShowError(err)
			return err
		}
		appUI.StopProgress(true, fmt.Sprintf("Suite %s validated %d rows", suite.Name, result.RowCount))
		appUI.VerbosePrintf("Query:\n%s\n", result.Query)

		fmt.Println(formatter.Summary(result))

		if !validateNoDetail && len(result.FailedRules()) > 0 {
			detail, err := formatter.Failures(result)
			if err != nil {
				ui.ShowError(err)
				return err
			}
			fmt.Println(detail)
		}

		if len(result.FailedRules()) > 0 {
			failed = true
		}
	}

	if failed {
		return fmt.Errorf("validation finished with failures")
	}
	return nil
}

// resolveSuitePaths maps command arguments to suite files. An argument
// that is an existing file wins; otherwise it is looked up in the suites
// directory, with and without a .yaml extension. No arguments means
// every discovered suite.
func resolveSuitePaths(cfg *models.Config, args []string) ([]string, error) {
	dir := cfg.Suites.Directory
	if dir == "" {
		dir = config.DefaultSuitesDir()
	}

	if len(args) == 0 {
		paths, err := catalog.DiscoverSuites(dir)
		if err != nil {
			return nil, err
		}
		if len(paths) == 0 {
			return nil, fmt.Errorf("no suites found in %s", dir)
		}
		return paths, nil
	}

	var paths []string
	for _, arg := range args {
		path, err := findSuite(dir, arg)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func findSuite(dir, name string) (string, error) {
	candidates := []string{
		name,
		filepath.Join(dir, name),
		filepath.Join(dir, name+".yaml"),
		filepath.Join(dir, name+".yml"),
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}
	return "", fmt.Errorf("suite %q not found (looked in %s)", name, dir)
}

// snowflakeSettings merges the saved configuration with viper's
// discovery (a config.yaml in the working directory, SNOWCHECK_* env
// vars). The saved config wins; viper fills whatever it left blank.
func snowflakeSettings(cfg *models.Config) models.Snowflake {
	sf := cfg.Snowflake
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = viper.GetString(key)
		}
	}
	fill(&sf.Account, "snowflake.account")
	fill(&sf.Username, "snowflake.username")
	fill(&sf.Password, "snowflake.password")
	fill(&sf.Role, "snowflake.role")
	fill(&sf.Warehouse, "snowflake.warehouse")
	fill(&sf.Database, "snowflake.database")
	fill(&sf.Schema, "snowflake.schema")
	fill(&sf.Timeout, "snowflake.timeout")
	return sf
}

// connectService builds the Snowflake connection from the merged
// settings. A blank password falls back to the credential store.
func connectService(ctx context.Context, cfg *models.Config, appUI *ui.UI) (*snowflake.Service, error) {
	sf := snowflakeSettings(cfg)

	password := sf.Password
	if password == "" {
		cm := security.NewCredentialManager(config.GetConfigPath())
		stored, err := cm.Get(credentialName(sf))
		if err != nil {
			return nil, fmt.Errorf("no password configured; run 'snowcheck setup'")
		}
		password = stored
	}

	timeout := time.Duration(0)
	if sf.Timeout != "" {
		timeout, _ = time.ParseDuration(sf.Timeout)
	}

	service := snowflake.NewService(snowflake.Config{
		Account:   sf.Account,
		Username:  sf.Username,
		Password:  password,
		Database:  sf.Database,
		Schema:    sf.Schema,
		Warehouse: sf.Warehouse,
		Role:      sf.Role,
		Timeout:   timeout,
	})

	appUI.StartProgress("Connecting to Snowflake")
	if err := service.Connect(ctx); err != nil {
		appUI.StopProgress(false, "Connection failed")
		return nil, err
	}
	appUI.StopProgress(true, fmt.Sprintf("Connected to %s", sf.Account))
	return service, nil
}

func credentialName(sf models.Snowflake) string {
	return fmt.Sprintf("snowflake:%s@%s", sf.Username, sf.Account)
}

func newResolver(cfg *models.Config) *grain.Resolver {
	if validateFallback || cfg.Validation.GrainFallback {
		return grain.DefaultResolver(grain.WithFallback())
	}
	return grain.DefaultResolver()
}
