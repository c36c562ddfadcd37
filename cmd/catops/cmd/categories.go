package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/esgaming/catalogops/internal/database"
	"github.com/esgaming/catalogops/internal/importer"
	"github.com/esgaming/catalogops/internal/sanitize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var categoriesCmd = &cobra.Command{
	Use:     "categories",
	Aliases: []string{"cat"},
	Short:   "Manage catalog categories",
}

var categoriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active categories",
	RunE:  runCategoriesList,
}

var categoriesAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a category",
	Long:  "Adds a category. Names are stored trimmed and uppercase; adding an existing name is a no-op.",
	Args:  cobra.ExactArgs(1),
	RunE:  runCategoriesAdd,
}

func init() {
	categoriesCmd.AddCommand(categoriesListCmd)
	categoriesCmd.AddCommand(categoriesAddCmd)
}

func runCategoriesList(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	printHeader("CATEGORIES", 40)

	categories, err := a.catalog.Categories().ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}
	if len(categories) == 0 {
		color.Yellow("  No categories yet. Add one with 'catops categories add NAME'.")
		fmt.Println()
		return nil
	}

	table := newTable("Name", "Display Name", "Entries", "Created")
	for _, c := range categories {
		entries, err := a.catalog.Entries().List(ctx, database.QueryOptions{Category: c.Name})
		if err != nil {
			return fmt.Errorf("failed to list entries of %s: %w", c.Name, err)
		}
		table.Append([]string{
			c.Name,
			c.DisplayName,
			fmt.Sprintf("%d", len(entries)),
			c.CreatedAt.Format("2006-01-02"),
		})
	}
	table.Render()
	fmt.Println()

	return nil
}

func runCategoriesAdd(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	name := importer.CanonicalCategory(args[0])
	if name == "" {
		return importer.ErrNoCategory
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.catalog.Categories().EnsureExists(ctx, name, sanitize.Text(args[0]))
	if err != nil {
		color.Red("  Error: %v", err)
		return err
	}

	color.Green("  ✓ Category %s (%s)", c.Name, a.backend)
	fmt.Println()
	return nil
}
