package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/esgaming/catalogops/internal/images"
	"github.com/esgaming/catalogops/internal/importer"
	"github.com/esgaming/catalogops/internal/parser"
	"github.com/esgaming/catalogops/internal/sanitize"
	"github.com/esgaming/catalogops/internal/storage"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	importCategory    string
	importNewCategory string
	importMappings    []string
	importDropRows    []int
	importDropInvalid bool
	importDryRun      bool
	importYes         bool
	importShowRows    int
)

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a supplier spreadsheet into a category",
	Long: `Import a CSV or Excel price list into the catalog.

Columns are mapped automatically (Model, Price, Image, everything else becomes
a specification). Override a column with --map "HEADER=ROLE", where ROLE is
model, sku, price, image, ignore, spec, spec:GROUP or spec:GROUP:Label.
GROUP is one of MAIN, STRUCTURE, COOLING, INPUT_OUTPUT, STORAGE, ADDITIONAL.

Rows are matched to existing entries by SKU: a known SKU is updated in place,
anything else creates a new entry. Nothing is written while a preview row is
missing its title or price; drop such rows with --drop-row or --drop-invalid.`,
	Example: `  catops import prices.xlsx --category CASES
  catops import fans.csv --new-category "Case Fans" --map "Code=sku" --map "RPM=spec:COOLING"
  catops import prices.xlsx --category CASES --drop-invalid --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importCategory, "category", "", "Existing category to import into")
	importCmd.Flags().StringVar(&importNewCategory, "new-category", "", "Create this category (if missing) and import into it")
	importCmd.Flags().StringArrayVar(&importMappings, "map", nil, "Column override HEADER=ROLE (repeatable)")
	importCmd.Flags().IntSliceVar(&importDropRows, "drop-row", nil, "Preview row number to drop, 1-based (repeatable)")
	importCmd.Flags().BoolVar(&importDropInvalid, "drop-invalid", false, "Drop every preview row with errors")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Show the mapping and preview without writing")
	importCmd.Flags().BoolVarP(&importYes, "yes", "y", false, "Do not ask for confirmation")
	importCmd.Flags().IntVar(&importShowRows, "show", 30, "Preview rows to display")
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]
	success := color.New(color.FgGreen)

	printHeader("IMPORTING SPREADSHEET", 50)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	a, err := openApp(ctx)
	if err != nil {
		color.Red("  Error: %v", err)
		return err
	}
	defer a.Close()

	// Category
	session := importer.NewSession()
	name, custom, err := categoryFlag()
	if err != nil {
		color.Red("  Error: %v", err)
		return err
	}
	session, err = session.SelectCategory(name, custom)
	if err != nil {
		color.Red("  Error: %v", err)
		return err
	}
	if !custom {
		if err := checkCategory(ctx, a, session.Category.Canonical()); err != nil {
			return err
		}
	}

	// Upload
	sheet, err := parser.Open(path)
	if err != nil {
		color.Red("  Error reading %s: %v", path, err)
		return err
	}
	session, err = session.Upload(filepath.Base(path), sheet, a.cfg.Import.GuessSampleRows)
	if err != nil {
		color.Red("  Error: %v", err)
		return err
	}

	color.Yellow("  File:     %s (sheet %s, %d rows)\n", path, sheet.Name, len(sheet.Rows))
	color.Yellow("  Category: %s\n", session.Category.Canonical())
	color.Yellow("  Catalog:  %s\n", a.backend)
	fmt.Println()

	// Mapping
	for _, m := range importMappings {
		header, roleText, ok := strings.Cut(m, "=")
		if !ok {
			return fmt.Errorf("invalid --map %q, want HEADER=ROLE", m)
		}
		header = strings.TrimSpace(header)
		role, err := importer.ParseRole(header, roleText)
		if err != nil {
			color.Red("  Error: %v", err)
			return err
		}
		if session, err = session.Remap(header, role); err != nil {
			color.Red("  Error: %v", err)
			return err
		}
	}

	printMapping(session, sheet)

	session, err = session.ConfirmMapping()
	if err != nil {
		var mErr *importer.MappingError
		if errors.As(err, &mErr) {
			color.Red("  %v", err)
			fmt.Println("  Assign the missing roles with --map, e.g. --map \"Name=model\"")
			fmt.Println()
		}
		return err
	}

	// Preview
	session, err = dropRows(session)
	if err != nil {
		color.Red("  Error: %v", err)
		return err
	}

	printPreview(session.Preview, importShowRows)

	invalid := importer.InvalidCount(session.Preview)
	fmt.Printf("  Rows: %d  Invalid: %s\n\n", len(session.Preview), invalidText(invalid))

	if !session.CanCommit() {
		_, _, err := session.BeginImport()
		if err == nil {
			err = importer.ErrNoRows
		}
		color.Red("  %v", err)
		if invalid > 0 {
			fmt.Println("  Drop the rows with --drop-row N or --drop-invalid, or fix the sheet.")
		}
		fmt.Println()
		return err
	}

	if importDryRun {
		color.Yellow("  Dry run: %d rows would be imported into %s", len(session.Preview), session.Category.Canonical())
		fmt.Println()
		return nil
	}

	if !importYes {
		fmt.Printf("  Import %d rows into %s? [y/N]: ", len(session.Preview), session.Category.Canonical())
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "y" && confirm != "Y" {
			fmt.Println("  Cancelled")
			return nil
		}
		fmt.Println()
	}

	// Commit
	reconciler, bar, err := buildReconciler(ctx, a, session)
	if err != nil {
		color.Red("  Error: %v", err)
		return err
	}

	session, result, err := importer.Import(ctx, session, reconciler)
	bar.Finish()
	fmt.Println()
	fmt.Println()

	if err != nil {
		color.Red("  Import failed: %v", err)
		fmt.Println()
		return err
	}

	success.Printf("  ✓ Processed %d/%d rows into %s\n", result.Processed, result.Attempted, result.Category)
	success.Printf("  ✓ Created %d, updated %d\n", result.Created, result.Updated)
	if result.Skipped > 0 {
		color.Yellow("  Skipped %d rows without title or price", result.Skipped)
	}
	if result.ImagesUploaded > 0 {
		success.Printf("  ✓ Uploaded %d embedded images\n", result.ImagesUploaded)
	}
	if result.ImagesSkipped > 0 {
		color.Yellow("  %d images could not be stored; their entries were kept", result.ImagesSkipped)
	}
	fmt.Println()

	if len(result.Failures) > 0 {
		printFailures(result.Failures)
	}

	if session.Step == importer.StepPreview {
		return fmt.Errorf("no rows were imported")
	}
	return nil
}

func categoryFlag() (string, bool, error) {
	switch {
	case importCategory != "" && importNewCategory != "":
		return "", false, fmt.Errorf("use either --category or --new-category, not both")
	case importNewCategory != "":
		return importNewCategory, true, nil
	case importCategory != "":
		return importCategory, false, nil
	default:
		return "", false, importer.ErrNoCategory
	}
}

func checkCategory(ctx context.Context, a *app, name string) error {
	c, err := a.catalog.Categories().GetByName(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to look up category: %w", err)
	}
	if c != nil && c.IsActive {
		return nil
	}

	reason := "does not exist"
	if c != nil {
		reason = "is not active"
	}
	color.Red("  Category %s %s.", name, reason)
	if known, err := a.catalog.Categories().ListActive(ctx); err == nil && len(known) > 0 {
		names := make([]string, 0, len(known))
		for _, k := range known {
			names = append(names, k.Name)
		}
		fmt.Printf("  Active categories: %s\n", strings.Join(names, ", "))
	}
	if c == nil {
		fmt.Println("  Use --new-category to create it.")
	}
	fmt.Println()
	return fmt.Errorf("category %s %s", name, reason)
}

// dropRows applies --drop-row and --drop-invalid. Row numbers refer to the
// preview as first shown, so they are removed from the highest down.
func dropRows(s importer.Session) (importer.Session, error) {
	rows := append([]int(nil), importDropRows...)
	sort.Sort(sort.Reverse(sort.IntSlice(rows)))

	var err error
	last := -1
	for _, n := range rows {
		if n == last {
			continue
		}
		last = n
		if s, err = s.RemoveRow(n - 1); err != nil {
			return s, fmt.Errorf("cannot drop row %d: %w", n, err)
		}
	}

	if importDropInvalid {
		before := len(s.Preview)
		if s, err = s.RemoveInvalid(); err != nil {
			return s, err
		}
		if dropped := before - len(s.Preview); dropped > 0 {
			color.Yellow("  Dropped %d invalid rows\n\n", dropped)
		}
	}
	return s, nil
}

func buildReconciler(ctx context.Context, a *app, s importer.Session) (*importer.Reconciler, *progressbar.ProgressBar, error) {
	uploader, err := storage.New(ctx, a.cfg.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up image storage: %w", err)
	}

	opts := importer.Options{
		Currency: a.cfg.Import.Currency,
		Images:   images.NewMaterializer(uploader, images.Config{MaxPx: a.cfg.Import.MaxImagePx}, a.logger),
		Logger:   a.logger,
		Source:   s.Source,
	}

	sink, err := a.analytics(ctx)
	if err != nil {
		a.logger.Warn("analytics disabled for this import", zap.Error(err))
	} else if sink != nil {
		opts.Sink = sink
	}

	bar := progressbar.NewOptions(len(s.Preview),
		progressbar.OptionSetDescription("  Importing rows"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        color.GreenString("█"),
			SaucerHead:    color.GreenString("█"),
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionShowCount(),
	)
	opts.Progress = func(done, total int) {
		_ = bar.Set(done)
	}

	return importer.NewReconciler(a.catalog, opts), bar, nil
}

func printMapping(s importer.Session, sheet *parser.Sheet) {
	color.New(color.FgCyan, color.Bold).Println("  COLUMN MAPPING")
	fmt.Println()

	samples := sheet.Samples(importer.DefaultGuessSamples)
	table := newTable("Column", "Role", "Sample")
	for _, c := range s.Mapping.Columns {
		sample := ""
		for _, row := range samples {
			if v := sanitize.Text(row[c.Header]); v != "" {
				sample = v
				break
			}
		}

		role := c.Role.String()
		switch c.Role.Kind {
		case importer.RoleModel, importer.RolePrice:
			role = color.GreenString(role)
		case importer.RoleIgnore:
			role = color.HiBlackString(role)
		}
		table.Append([]string{truncateString(c.Header, 30), role, truncateString(sample, 40)})
	}
	table.Render()
	fmt.Println()
}

func printPreview(rows []importer.PreviewRow, limit int) {
	color.New(color.FgCyan, color.Bold).Println("  PREVIEW")
	fmt.Println()

	if limit <= 0 || limit > len(rows) {
		limit = len(rows)
	}

	table := newTable("#", "Title", "SKU", "Price", "Image", "Specs", "Status")
	for i := 0; i < limit; i++ {
		r := rows[i]
		status := color.GreenString("ok")
		if !r.Valid() {
			status = color.RedString(strings.Join(r.Errors, ", "))
		}
		img := ""
		switch {
		case images.IsDataURI(r.ImageURL):
			img = "embedded"
		case r.ImageURL != "":
			img = "url"
		}
		table.Append([]string{
			fmt.Sprintf("%d", i+1),
			truncateString(r.Title, 30),
			r.SKU,
			fmt.Sprintf("%.2f", r.Price),
			img,
			fmt.Sprintf("%d", len(r.Specs)),
			status,
		})
	}
	if len(rows) > limit {
		table.Append([]string{"...", "", "", "", "", "", fmt.Sprintf("and %d more", len(rows)-limit)})
	}
	table.Render()
	fmt.Println()
}

func printFailures(failures []importer.RowFailure) {
	color.New(color.FgRed, color.Bold).Printf("  %d ROWS FAILED\n\n", len(failures))

	table := newTable("Sheet Row", "SKU", "Title", "Error")
	for _, f := range failures {
		table.Append([]string{
			// header is line 1, data rows start at line 2
			fmt.Sprintf("%d", f.OriginalIndex+2),
			f.SKU,
			truncateString(f.Title, 30),
			truncateString(f.Err.Error(), 60),
		})
	}
	table.Render()
	fmt.Println()
}

func invalidText(n int) string {
	if n == 0 {
		return color.GreenString("0")
	}
	return color.RedString("%d", n)
}
