package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "catops",
	Short: "Catalog Operations Terminal",
	Long: color.New(color.FgCyan, color.Bold).Sprint(`
            _
   ___ __ _| |_ ___  _ __  ___
  / __/ _' | __/ _ \| '_ \/ __|
 | (_| (_| | || (_) | |_) \__ \
  \___\__,_|\__\___/| .__/|___/
                    |_|
`) + `
Catalog Operations Terminal - supplier spreadsheet import toolkit

Map supplier price lists onto catalog entries, review every row before
it is written, and keep specifications grouped the way the store shows them.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(specsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(analyticsCmd)
}
