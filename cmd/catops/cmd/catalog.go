package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/esgaming/catalogops/internal/database"
	"github.com/esgaming/catalogops/internal/importer"
	"github.com/esgaming/catalogops/internal/output"
	"github.com/esgaming/catalogops/internal/specgroup"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	catalogCategory string
	catalogLimit    int
	historyLimit    int
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Browse catalog entries",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List entries in display order",
	RunE:  runCatalogList,
}

var catalogShowCmd = &cobra.Command{
	Use:   "show [sku]",
	Short: "Show one entry with its grouped specifications",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogShow,
}

var catalogHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent imports and exports",
	RunE:  runCatalogHistory,
}

func init() {
	catalogListCmd.Flags().StringVar(&catalogCategory, "category", "", "Only list this category")
	catalogListCmd.Flags().IntVar(&catalogLimit, "limit", 50, "Maximum entries to list (0 = all)")
	catalogHistoryCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of history entries")

	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogShowCmd)
	catalogCmd.AddCommand(catalogHistoryCmd)
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	printHeader("CATALOG ENTRIES", 50)

	category := importer.CanonicalCategory(catalogCategory)
	entries, err := a.catalog.Entries().List(ctx, database.QueryOptions{Category: category, Limit: catalogLimit})
	if err != nil {
		return fmt.Errorf("failed to list entries: %w", err)
	}
	if len(entries) == 0 {
		color.Yellow("  No entries found. Run 'catops import FILE --category NAME' first.")
		fmt.Println()
		return nil
	}

	total, err := a.catalog.Entries().Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count entries: %w", err)
	}
	color.Yellow("  Showing %d of %d entries (%s)\n\n", len(entries), total, a.backend)

	table := newTable("#", "SKU", "Title", "Category", "Price", "Images", "Specs")
	for _, e := range entries {
		detail, err := database.LoadDetail(ctx, a.catalog, e)
		if err != nil {
			return fmt.Errorf("failed to load entry %s: %w", e.ID, err)
		}
		rec := output.Flatten(detail)
		table.Append([]string{
			fmt.Sprintf("%d", e.DisplayOrder),
			e.SKU,
			truncateString(e.Title, 35),
			e.Category,
			rec.Price.StringFixed(2) + " " + rec.Currency,
			fmt.Sprintf("%d", len(detail.Images)),
			fmt.Sprintf("%d", len(detail.Specs)),
		})
	}
	table.Render()
	fmt.Println()

	return nil
}

func runCatalogShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	entry, err := a.catalog.Entries().GetBySKU(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to look up entry: %w", err)
	}
	if entry == nil {
		return fmt.Errorf("entry not found: %s", args[0])
	}

	detail, err := database.LoadDetail(ctx, a.catalog, entry)
	if err != nil {
		return fmt.Errorf("failed to load entry: %w", err)
	}
	rec := output.Flatten(detail)

	printHeader(entry.Title, 50)

	fmt.Printf("  SKU:       %s\n", entry.SKU)
	fmt.Printf("  Category:  %s\n", entry.Category)
	fmt.Printf("  Price:     %s %s\n", rec.Price.StringFixed(2), rec.Currency)
	fmt.Printf("  Position:  %d\n", entry.DisplayOrder)
	fmt.Printf("  Updated:   %s\n", entry.UpdatedAt.Format("2006-01-02 15:04"))
	for _, url := range rec.Images {
		fmt.Printf("  Image:     %s\n", url)
	}
	fmt.Println()

	for _, g := range specgroup.All {
		specs := rec.Specs[g]
		if len(specs) == 0 {
			continue
		}
		color.New(color.FgCyan, color.Bold).Printf("  %s\n", strings.ToUpper(g.Title()))
		for _, s := range specs {
			fmt.Printf("    %-28s %s\n", s.Label, s.Value)
		}
		fmt.Println()
	}

	return nil
}

func runCatalogHistory(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	printHeader("RECENT HISTORY", 50)

	history, err := a.catalog.History().GetRecent(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	if len(history) == 0 {
		color.Yellow("  No history yet.")
		fmt.Println()
		return nil
	}

	for _, h := range history {
		fmt.Printf("    %s - %s (%s): %s\n",
			h.StartedAt.Format("2006-01-02 15:04"),
			h.Action, h.Source, h.Details)
	}
	fmt.Println()

	return nil
}
