package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/esgaming/catalogops/internal/database/clickhouse"
	"github.com/esgaming/catalogops/internal/importer"
	"github.com/esgaming/catalogops/internal/storage"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Import analytics commands",
	Long:  "Commands for the ClickHouse import event log: price trends, import volume and history",
}

var analyticsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize analytics database",
	Long:  "Creates ClickHouse tables and materialized views for analytics",
	RunE:  runAnalyticsInit,
}

var analyticsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show analytics database status",
	RunE:  runAnalyticsStatus,
}

var analyticsTrendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Show daily price ranges per category",
	RunE:  runAnalyticsTrends,
}

var analyticsPricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Show the imported prices of one SKU",
	RunE:  runAnalyticsPrices,
}

var analyticsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show import volume per category",
	RunE:  runAnalyticsSummary,
}

var analyticsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Backfill analytics from the current catalog",
	Long:  "Records one snapshot event per priced entry, for catalogs filled before analytics were enabled",
	RunE:  runAnalyticsSync,
}

var (
	analyticsPeriod   string
	analyticsCategory string
	analyticsSKU      string
	analyticsLimit    int
)

func init() {
	analyticsCmd.AddCommand(analyticsInitCmd)
	analyticsCmd.AddCommand(analyticsStatusCmd)
	analyticsCmd.AddCommand(analyticsTrendsCmd)
	analyticsCmd.AddCommand(analyticsPricesCmd)
	analyticsCmd.AddCommand(analyticsSummaryCmd)
	analyticsCmd.AddCommand(analyticsSyncCmd)

	analyticsTrendsCmd.Flags().StringVar(&analyticsPeriod, "period", "30d", "Time period (e.g., 7d, 30d, 90d)")
	analyticsTrendsCmd.Flags().StringVar(&analyticsCategory, "category", "", "Filter by category")

	analyticsPricesCmd.Flags().StringVar(&analyticsSKU, "sku", "", "Entry SKU (required)")
	analyticsPricesCmd.Flags().IntVar(&analyticsLimit, "limit", 20, "Number of prices")
	analyticsPricesCmd.MarkFlagRequired("sku")

	analyticsSummaryCmd.Flags().StringVar(&analyticsPeriod, "period", "30d", "Time period (e.g., 7d, 30d, 90d)")

	analyticsSyncCmd.Flags().StringVar(&analyticsCategory, "category", "", "Only sync this category")
}

var hundred = decimal.NewFromInt(100)

func parsePeriod(period string) int {
	var days int
	fmt.Sscanf(period, "%dd", &days)
	if days <= 0 {
		days = 30
	}
	return days
}

// connectAnalytics connects to ClickHouse even when analytics are disabled
// for imports, so the tables can be created first
func connectAnalytics(ctx context.Context, a *app) (*clickhouse.Client, error) {
	client := getClickHouseClient(a.cfg)
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	a.closers = append(a.closers, func() { _ = client.Close() })
	color.Green("✓ Connected to ClickHouse")
	return client, nil
}

func runAnalyticsInit(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	client, err := connectAnalytics(ctx, a)
	if err != nil {
		return err
	}

	fmt.Println("Creating tables...")
	if err := client.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	color.Green("✓ Analytics schema initialized")
	if !a.cfg.Database.ClickHouse.Enabled {
		fmt.Println("\nTo record import events, run:")
		fmt.Println("  catops config set database.clickhouse.enabled true")
	}
	return nil
}

func runAnalyticsStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	client, err := connectAnalytics(ctx, a)
	if err != nil {
		color.Red("✗ %v", err)
		return nil
	}

	size, err := client.GetDatabaseSize(ctx)
	if err != nil {
		return err
	}
	events, err := client.GetEventCount(ctx)
	if err != nil {
		return err
	}

	fmt.Println("\n" + color.CyanString("Analytics Database"))
	fmt.Printf("  Size:     %s\n", storage.FormatSize(int64(size)))
	fmt.Printf("  Events:   %d\n", events)
	fmt.Printf("  Enabled:  %t\n", a.cfg.Database.ClickHouse.Enabled)

	tables, err := client.GetTableInfo(ctx)
	if err != nil {
		return err
	}
	if len(tables) > 0 {
		fmt.Println("\n" + color.CyanString("Tables"))
		table := newTable("Table", "Engine", "Rows", "Size")
		for _, t := range tables {
			table.Append([]string{t.Name, t.Engine, fmt.Sprintf("%d", t.Rows), storage.FormatSize(int64(t.BytesSize))})
		}
		table.Render()
	}
	return nil
}

func runAnalyticsTrends(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	days := parsePeriod(analyticsPeriod)

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	client, err := connectAnalytics(ctx, a)
	if err != nil {
		return err
	}

	trends, err := client.GetCategoryTrends(ctx, importer.CanonicalCategory(analyticsCategory), days)
	if err != nil {
		return err
	}

	fmt.Printf("\nPrice ranges (last %d days):\n\n", days)
	if len(trends) == 0 {
		color.Yellow("No trend data found")
		fmt.Println("\nImport with analytics enabled, or backfill the current catalog:")
		fmt.Println("  catops analytics sync")
		return nil
	}

	table := newTable("Date", "Category", "Min", "Max", "Rows")
	for _, t := range trends {
		table.Append([]string{
			t.Date.Format("2006-01-02"),
			t.Category,
			t.MinPrice.StringFixed(2),
			t.MaxPrice.StringFixed(2),
			fmt.Sprintf("%d", t.Rows),
		})
	}
	table.Render()
	return nil
}

func runAnalyticsPrices(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	client, err := connectAnalytics(ctx, a)
	if err != nil {
		return err
	}

	points, err := client.GetPriceHistory(ctx, analyticsSKU, analyticsLimit)
	if err != nil {
		return err
	}

	fmt.Printf("\nImported prices for %s:\n\n", analyticsSKU)
	if len(points) == 0 {
		color.Yellow("No prices recorded")
		return nil
	}

	table := newTable("When", "Price", "Action", "Source", "Change")
	for i, p := range points {
		change := ""
		// points are newest first
		if i+1 < len(points) && !points[i+1].Amount.IsZero() {
			prev := points[i+1].Amount
			pct := p.Amount.Sub(prev).Div(prev).Mul(hundred).InexactFloat64()
			switch {
			case pct > 0:
				change = color.RedString("+%.1f%%", pct)
			case pct < 0:
				change = color.GreenString("%.1f%%", pct)
			}
		}
		table.Append([]string{
			p.ImportedAt.Format("2006-01-02 15:04"),
			p.Amount.StringFixed(2) + " " + p.Currency,
			p.Action,
			p.Source,
			change,
		})
	}
	table.Render()
	return nil
}

func runAnalyticsSummary(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	days := parsePeriod(analyticsPeriod)

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	client, err := connectAnalytics(ctx, a)
	if err != nil {
		return err
	}

	summary, err := client.GetImportSummary(ctx, days)
	if err != nil {
		return err
	}

	fmt.Printf("\nImports (last %d days):\n\n", days)
	if len(summary) == 0 {
		color.Yellow("No imports recorded")
		return nil
	}

	table := newTable("Category", "Created", "Updated", "With Image", "Last Import")
	for _, s := range summary {
		table.Append([]string{
			s.Category,
			fmt.Sprintf("%d", s.Created),
			fmt.Sprintf("%d", s.Updated),
			fmt.Sprintf("%d", s.Images),
			s.LastSeen.Format("2006-01-02 15:04"),
		})
	}
	table.Render()
	return nil
}

func runAnalyticsSync(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	client, err := connectAnalytics(ctx, a)
	if err != nil {
		return err
	}

	syncer := clickhouse.NewSyncer(a.catalog, client)

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Syncing"),
		progressbar.OptionSpinnerType(14),
	)

	result, err := syncer.SyncCatalog(ctx, importer.CanonicalCategory(analyticsCategory))
	bar.Finish()
	fmt.Println()

	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	color.Green("✓ Synced %d entries in %s", result.RecordsSynced, result.EndTime.Sub(result.StartTime).Round(time.Millisecond))
	for _, e := range result.Errors {
		color.Yellow("  Warning: %s", e)
	}
	return nil
}
