package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/esgaming/catalogops/internal/config"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Initialize, view, and modify configuration settings.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file",
	Long:  `Create a new configuration file with default settings.`,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display all configuration settings.`,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long:  `Set a specific configuration value, e.g. storage.backend s3.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Get a configuration value",
	Long:  `Get a specific configuration value.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	success := color.New(color.FgGreen)

	printHeader("INITIALIZING CONFIGURATION", 40)

	if config.Exists() {
		configPath, _ := config.GetConfigPath()
		color.Yellow("  Configuration file already exists: %s", configPath)
		fmt.Println()
		return nil
	}

	if err := config.Init(); err != nil {
		color.Red("  Error: %v", err)
		return err
	}

	configPath, _ := config.GetConfigPath()
	success.Printf("  ✓ Created configuration file: %s\n", configPath)
	fmt.Println()

	color.Yellow("  Next steps:")
	fmt.Println("    1. Pick where embedded images go (local or s3):")
	fmt.Println("       catops config set storage.backend s3")
	fmt.Println("       catops config set storage.s3.bucket your_bucket")
	fmt.Println()
	fmt.Println("    2. Use PostgreSQL instead of the local state file (optional):")
	fmt.Println("       export POSTGRES_USER=your_username")
	fmt.Println("       export POSTGRES_PASSWORD=your_password")
	fmt.Println("       catops db init && catops config set database.use_db true")
	fmt.Println()
	fmt.Println("    3. Import a supplier sheet:")
	fmt.Println("       catops import prices.xlsx --category CASES")
	fmt.Println()

	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	printHeader("CURRENT CONFIGURATION", 40)

	cfg, err := config.Load()
	if err != nil {
		color.Red("  Error loading configuration: %v", err)
		return err
	}

	configPath, _ := config.GetConfigPath()
	if config.Exists() {
		color.Yellow("  Config file: %s\n\n", configPath)
	} else {
		color.Yellow("  Using default configuration (no config file)\n\n")
	}

	data, _ := yaml.Marshal(cfg)
	fmt.Println("  " + strings.ReplaceAll(string(data), "\n", "\n  "))
	fmt.Println()

	printHeader("ENVIRONMENT VARIABLES", 40)

	table := newTable("Variable", "Needed For", "Status")
	for _, req := range requiredEnv(cfg) {
		status := color.RedString("not set")
		switch {
		case os.Getenv(req.env) != "":
			status = color.GreenString("set")
		case !req.active:
			status = color.HiBlackString("unused")
		}
		table.Append([]string{req.env, req.usedBy, status})
	}
	table.Render()
	fmt.Println()

	return nil
}

type envRequirement struct {
	env    string
	usedBy string
	active bool
}

// requiredEnv lists the credential variables the config refers to, marking
// the ones the enabled backends actually read
func requiredEnv(cfg *config.Config) []envRequirement {
	pg := cfg.Database.UseDB
	ch := cfg.Database.ClickHouse.Enabled
	s3 := cfg.Storage.Backend == "s3"
	return []envRequirement{
		{cfg.Database.Postgres.UsernameEnv, "catalog (database.use_db)", pg},
		{cfg.Database.Postgres.PasswordEnv, "catalog (database.use_db)", pg},
		{cfg.Database.ClickHouse.UsernameEnv, "analytics (database.clickhouse.enabled)", ch},
		{cfg.Database.ClickHouse.PasswordEnv, "analytics (database.clickhouse.enabled)", ch},
		{"AWS_ACCESS_KEY_ID", "images (storage.backend s3)", s3},
		{"AWS_SECRET_ACCESS_KEY", "images (storage.backend s3)", s3},
	}
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	if err := config.Set(key, value); err != nil {
		color.Red("  Error: %v", err)
		return err
	}

	color.Green("  ✓ Set %s = %s", key, value)
	if key == "database.use_db" && value == "true" {
		fmt.Println("    Run 'catops db init' first if the schema does not exist yet.")
	}
	fmt.Println()
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	value, err := config.Get(key)
	if err != nil {
		color.Red("  Error: %v", err)
		return err
	}

	fmt.Printf("  %s = %s\n", key, value)
	fmt.Println()
	return nil
}
