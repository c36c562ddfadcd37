package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/esgaming/catalogops/internal/database"
	"github.com/esgaming/catalogops/internal/importer"
	"github.com/esgaming/catalogops/internal/output"
	chout "github.com/esgaming/catalogops/internal/output/clickhouse"
	"github.com/esgaming/catalogops/internal/output/file"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	exportDest       string
	exportFormat     string
	exportOutputPath string
	exportCategory   string
	exportSKUs       []string
	exportDryRun     bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export catalog entries to various destinations",
	Long:  `Export catalog entries to CSV, JSON, Excel, or ClickHouse.`,
}

var exportRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run export to destination",
	Long:  `Export entries with price, images and grouped specifications to the specified destination.`,
	RunE:  runExport,
}

var exportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available export destinations",
	Long:  `Show all available export adapters.`,
	RunE:  runExportList,
}

var exportTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Check that every export destination is usable",
	RunE:  runExportTest,
}

func init() {
	exportRunCmd.Flags().StringVar(&exportDest, "dest", "csv", "Export destination (csv, json, xlsx, clickhouse)")
	exportRunCmd.Flags().StringVar(&exportFormat, "format", "", "Output format (csv, json, jsonl, xlsx); picks the destination when --dest is not set")
	exportRunCmd.Flags().StringVarP(&exportOutputPath, "output", "o", "", "Output file path (for file exports)")
	exportRunCmd.Flags().StringVar(&exportCategory, "category", "", "Only export this category")
	exportRunCmd.Flags().StringSliceVar(&exportSKUs, "sku", nil, "Only export these SKUs")
	exportRunCmd.Flags().BoolVar(&exportDryRun, "dry-run", false, "Preview without exporting")

	exportCmd.AddCommand(exportRunCmd)
	exportCmd.AddCommand(exportListCmd)
	exportCmd.AddCommand(exportTestCmd)
}

// newRegistry registers the file adapters, plus ClickHouse when a client is given
func newRegistry(a *app, sink chout.Sink) (*output.Registry, error) {
	registry := output.NewRegistry()
	adapters := []output.Adapter{
		file.NewCSVAdapter(file.CSVConfig{OutputDir: a.cfg.Outputs.File.OutputDir}),
		file.NewJSONAdapter(file.JSONConfig{
			OutputDir: a.cfg.Outputs.File.OutputDir,
			Pretty:    a.cfg.Outputs.File.Pretty,
		}),
		file.NewXLSXAdapter(file.XLSXConfig{OutputDir: a.cfg.Outputs.File.OutputDir}),
	}
	if sink != nil {
		adapters = append(adapters, chout.NewAdapter(sink))
	}
	for _, adapter := range adapters {
		if err := registry.Register(adapter); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	success := color.New(color.FgGreen)

	printHeader("EXPORTING CATALOG", 50)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	a, err := openApp(ctx)
	if err != nil {
		color.Red("  Error: %v", err)
		return err
	}
	defer a.Close()

	var sink chout.Sink
	if exportDest == chout.AdapterName {
		client, err := a.analytics(ctx)
		if err != nil {
			color.Red("  Error: %v", err)
			return err
		}
		if client == nil {
			return fmt.Errorf("ClickHouse is disabled; run 'catops config set database.clickhouse.enabled true'")
		}
		sink = client
	}

	registry, err := newRegistry(a, sink)
	if err != nil {
		return err
	}
	defer registry.CloseAll()

	var adapter output.Adapter
	if exportFormat != "" && !cmd.Flags().Changed("dest") {
		adapter, err = registry.ForFormat(output.Format(exportFormat))
	} else {
		adapter, err = registry.Get(exportDest)
	}
	if err != nil {
		color.Red("  Error: %v", err)
		return err
	}
	if exportFormat != "" && adapter.Name() != chout.AdapterName && !adapter.SupportsFormat(output.Format(exportFormat)) {
		return fmt.Errorf("destination %s cannot write %s", adapter.Name(), exportFormat)
	}

	entries, err := a.catalog.Entries().List(ctx, database.QueryOptions{
		Category: importer.CanonicalCategory(exportCategory),
	})
	if err != nil {
		return fmt.Errorf("failed to list entries: %w", err)
	}
	if len(entries) == 0 {
		color.Yellow("  No entries found. Run 'catops import FILE --category NAME' first.")
		return nil
	}

	details := make([]*database.EntryDetail, 0, len(entries))
	for _, e := range entries {
		d, err := database.LoadDetail(ctx, a.catalog, e)
		if err != nil {
			return fmt.Errorf("failed to load entry %s: %w", e.ID, err)
		}
		details = append(details, d)
	}

	color.Yellow("  Found %d entries\n", len(details))
	color.Yellow("  Destination: %s\n", adapter.Name())
	if exportDryRun {
		color.Yellow("  Mode: DRY RUN\n")
	}
	fmt.Println()

	if err := adapter.Connect(ctx); err != nil {
		color.Red("  Error connecting to destination: %v", err)
		return err
	}

	opts := output.ExportOptions{
		Format:     output.Format(exportFormat),
		OutputPath: exportOutputPath,
		SKUs:       exportSKUs,
		DryRun:     exportDryRun,
	}

	result, err := adapter.ExportEntries(ctx, details, opts)
	if err != nil {
		color.Red("  Error during export: %v", err)
		return err
	}

	success.Printf("  ✓ Exported %d entries\n", result.EntriesExported)
	if result.ImagesExported > 0 {
		success.Printf("  ✓ %d with images\n", result.ImagesExported)
	}
	if result.Destination != "" {
		success.Printf("  ✓ Output: %s\n", result.Destination)
	}
	success.Printf("  ✓ %s\n", result.Details)

	if !exportDryRun {
		completed := result.CompletedAt
		if err := a.catalog.History().Add(ctx, &database.OperationHistory{
			Action:      "export",
			Source:      adapter.Name(),
			Count:       result.EntriesExported,
			Details:     fmt.Sprintf("Exported to %s", result.Destination),
			StartedAt:   result.StartedAt,
			CompletedAt: &completed,
		}); err != nil {
			color.Yellow("  Warning: failed to record history: %v", err)
		}
	}
	fmt.Println()

	return nil
}

func runExportList(cmd *cobra.Command, args []string) error {
	printHeader("AVAILABLE EXPORT DESTINATIONS", 50)

	table := newTable("Destination", "Formats", "Description")

	descriptions := map[string]string{
		file.CSVAdapterName:  "One row per entry, one column per spec group",
		file.JSONAdapterName: "Entries with specs keyed by group",
		file.XLSXAdapterName: "Excel workbook, one sheet per category",
		chout.AdapterName:    "Price snapshots into the import_events table",
	}

	adapters := []interface {
		Name() string
		SupportedFormats() []output.Format
	}{
		file.NewCSVAdapter(file.CSVConfig{}),
		file.NewJSONAdapter(file.JSONConfig{}),
		file.NewXLSXAdapter(file.XLSXConfig{}),
		chout.NewAdapter(nil),
	}

	for _, adapter := range adapters {
		formats := make([]string, 0, len(adapter.SupportedFormats()))
		for _, f := range adapter.SupportedFormats() {
			formats = append(formats, string(f))
		}
		list := strings.Join(formats, ", ")
		if list == "" {
			list = "-"
		}
		table.Append([]string{adapter.Name(), list, descriptions[adapter.Name()]})
	}

	table.Render()
	fmt.Println()

	color.Yellow("  Example usage:")
	fmt.Println("    catops export run --dest xlsx")
	fmt.Println("    catops export run --format jsonl --category CASES")
	fmt.Println("    catops export run --dest csv -o cases.csv --sku C-100,C-200")
	fmt.Println()

	return nil
}

func runExportTest(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	printHeader("TESTING EXPORT DESTINATIONS", 50)

	var sink chout.Sink
	client, err := a.analytics(ctx)
	if err != nil {
		color.Yellow("  Warning: ClickHouse unavailable: %v", err)
	} else if client != nil {
		sink = client
	}

	registry, err := newRegistry(a, sink)
	if err != nil {
		return err
	}
	defer registry.CloseAll()

	results := registry.TestAll(ctx)
	failed := 0
	for _, name := range registry.Names() {
		if err := results[name]; err != nil {
			failed++
			color.Red("  ✗ %s: %v", name, err)
			continue
		}
		color.Green("  ✓ %s", name)
	}
	fmt.Println()

	if failed > 0 {
		return fmt.Errorf("%d destination(s) failed", failed)
	}
	return nil
}
