package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"snowcheck/internal/config"
)

var (
	verboseFlag bool
	quietFlag   bool

	rootCmd = &cobra.Command{
		Use:   "snowcheck",
		Short: "Validate product master data in Snowflake",
		Long: "snowcheck - compile declarative validation suites into a single " +
			"Snowflake query and report the failing entities",
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output")
}

// initConfig sets up viper as a secondary settings source: a config.yaml
// in the working directory or config dir, plus SNOWCHECK_* environment
// variables (e.g. SNOWCHECK_SNOWFLAKE_ACCOUNT). Values fill whatever the
// saved configuration leaves blank; see snowflakeSettings.
func initConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath(config.GetConfigPath())

	viper.SetEnvPrefix("SNOWCHECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found is okay; setup creates it
	}
}
