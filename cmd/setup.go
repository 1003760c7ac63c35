package cmd

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"snowcheck/internal/config"
	"snowcheck/internal/security"
	"snowcheck/internal/ui"
	"snowcheck/pkg/models"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Initial configuration setup",
	Run:   runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) {
	ui.ShowLogo()

	if config.Exists() {
		overwrite, _ := ui.Confirm("Configuration already exists. Do you want to overwrite it?", false)
		if !overwrite {
			fmt.Println("Setup cancelled.")
			return
		}
	}

	cfg := &models.Config{}

	ui.PrintSection("Snowflake Connection")

	snowflakeQs := []*survey.Question{
		{
			Name: "account",
			Prompt: &survey.Input{
				Message: "Snowflake Account (e.g., xy12345.us-east-1):",
			},
			Validate: survey.Required,
		},
		{
			Name: "username",
			Prompt: &survey.Input{
				Message: "Username:",
			},
			Validate: survey.Required,
		},
		{
			Name: "role",
			Prompt: &survey.Input{
				Message: "Role:",
				Default: "REPORTING_READER",
			},
			Validate: survey.Required,
		},
		{
			Name: "warehouse",
			Prompt: &survey.Input{
				Message: "Warehouse:",
				Default: "COMPUTE_WH",
			},
			Validate: survey.Required,
		},
		{
			Name: "database",
			Prompt: &survey.Input{
				Message: "Database:",
				Default: "PROD_MO_MONM",
			},
			Validate: survey.Required,
		},
		{
			Name: "schema",
			Prompt: &survey.Input{
				Message: "Schema:",
				Default: "REPORTING",
			},
			Validate: survey.Required,
		},
	}

	err := survey.Ask(snowflakeQs, &cfg.Snowflake)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	password, err := ui.Password("Password:", "")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	storage, _ := ui.Select("Where should the password be stored?", []string{
		"System credential store",
		"Config file (encrypted at rest)",
	})

	if storage == "System credential store" {
		cm := security.NewCredentialManager(config.GetConfigPath())
		if err := cm.Store(credentialName(cfg.Snowflake), password); err != nil {
			ui.ShowWarning(fmt.Sprintf("Credential store unavailable (%v); keeping password in the config file", err))
			cfg.Snowflake.Password = password
		}
	} else {
		cfg.Snowflake.Password = password
	}

	ui.PrintSection("Validation Suites")

	gitURL, _ := ui.Input("Git URL of the suite repository (leave empty for a local directory):", "", "")
	if gitURL != "" {
		cfg.Suites.GitURL = gitURL
		cfg.Suites.Branch, _ = ui.Input("Branch:", "main", "")
	} else {
		cfg.Suites.Directory, _ = ui.Input("Suites directory:", config.DefaultSuitesDir(), "")
	}

	if err := config.Save(cfg); err != nil {
		fmt.Printf("Error saving configuration: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	ui.ShowSuccess("Configuration saved to: " + config.GetConfigFile())
	fmt.Println()
	fmt.Println("You can now run: snowcheck validate")
	if gitURL != "" {
		fmt.Println("Fetch the suites first with: snowcheck suites sync")
	}
}
