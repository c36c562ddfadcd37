package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/esgaming/catalogops/internal/config"
	"github.com/esgaming/catalogops/internal/database"
	"github.com/esgaming/catalogops/internal/database/postgres"
	"github.com/esgaming/catalogops/internal/state"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database management commands",
	Long:  "Commands for managing the PostgreSQL catalog backend",
}

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the database schema",
	Long:  "Creates all catalog tables and seeds the default categories",
	RunE:  runDBInit,
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database status",
	Long:  "Shows connection status, table counts, and database health information",
	RunE:  runDBStatus,
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy the JSON state catalog into the database",
	Long:  "Copies categories, entries with their prices, images and specifications, and history from the JSON state file into PostgreSQL",
	RunE:  runDBMigrate,
}

var dbRollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Roll back the last schema migration",
	RunE:  runDBRollback,
}

var (
	migrateFromState string
	migrateForce     bool
)

func init() {
	dbCmd.AddCommand(dbInitCmd)
	dbCmd.AddCommand(dbStatusCmd)
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbRollbackCmd)

	dbMigrateCmd.Flags().StringVar(&migrateFromState, "from-state", "", "Path to JSON state file (default: import.state_file)")
	dbMigrateCmd.Flags().BoolVar(&migrateForce, "force", false, "Migrate even if the database already holds entries")
}

func connectDB(ctx context.Context) (*postgres.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	client, err := getDBClient(cfg)
	if err != nil {
		return nil, err
	}

	fmt.Println("Connecting to PostgreSQL...")
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return client, nil
}

func runDBInit(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := connectDB(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	color.Green("✓ Connected to database")

	fmt.Println("Running migrations...")
	if err := client.RunMigrations(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	color.Green("✓ Database schema initialized")

	version, dirty, err := client.MigrationVersion()
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	fmt.Printf("\nMigration version: %d", version)
	if dirty {
		color.Yellow(" (dirty)")
	}
	fmt.Println()

	stats, err := client.GetTableStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to get table stats: %w", err)
	}

	fmt.Println("\nTables:")
	for _, s := range stats {
		fmt.Printf("  • %s\n", s.TableName)
	}

	color.Green("\n✓ Database initialization complete")
	fmt.Println("\nTo use the database as catalog backend, run:")
	fmt.Println("  catops config set database.use_db true")
	return nil
}

func runDBRollback(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := connectDB(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.RollbackMigration(); err != nil {
		return err
	}

	version, dirty, err := client.MigrationVersion()
	if err != nil {
		color.Green("✓ Rolled back to an empty schema")
		return nil
	}
	color.Green("✓ Rolled back to version %d", version)
	if dirty {
		color.Yellow("  Schema is dirty, fix it before running 'catops db init' again")
	}
	return nil
}

func runDBStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := connectDB(ctx)
	if err != nil {
		color.Red("✗ Connection failed: %v", err)
		return nil
	}
	defer client.Close()

	color.Green("✓ Connected")

	info, err := client.GetDatabaseInfo(ctx)
	if err != nil {
		return fmt.Errorf("failed to get database info: %w", err)
	}

	fmt.Println("\n" + color.CyanString("Database Information"))
	fmt.Printf("  Database:    %s\n", info.DatabaseName)
	fmt.Printf("  Server:      PostgreSQL %s\n", info.Version)
	fmt.Printf("  Size:        %s\n", info.DatabaseSize)
	fmt.Printf("  Connections: %d/%d\n", info.ConnectionsNow, info.ConnectionsMax)

	version, dirty, err := client.MigrationVersion()
	if err != nil {
		fmt.Printf("  Migration:   %s\n", color.YellowString("not initialized"))
	} else {
		status := fmt.Sprintf("v%d", version)
		if dirty {
			status += color.YellowString(" (dirty)")
		}
		fmt.Printf("  Migration:   %s\n", status)
	}

	stats, err := client.GetTableStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to get table stats: %w", err)
	}

	if len(stats) > 0 {
		fmt.Println("\n" + color.CyanString("Table Statistics"))

		table := newTable("Table", "Rows", "Size")
		for _, s := range stats {
			table.Append([]string{s.TableName, fmt.Sprintf("%d", s.RowCount), s.Size})
		}
		table.Render()
	}

	if poolStats := client.Stats(); poolStats != nil {
		fmt.Println("\n" + color.CyanString("Connection Pool"))
		fmt.Printf("  Total conns:      %d\n", poolStats.TotalConns())
		fmt.Printf("  Idle conns:       %d\n", poolStats.IdleConns())
		fmt.Printf("  Acquired conns:   %d\n", poolStats.AcquiredConns())
	}

	return nil
}

func runDBMigrate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	statePath := migrateFromState
	if statePath == "" {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		statePath = cfg.Import.StateFile
	}

	fmt.Printf("Loading state from: %s\n", statePath)
	store := state.NewStore(statePath)
	if err := store.Load(); err != nil {
		return fmt.Errorf("failed to load state file: %w", err)
	}

	if store.Count() == 0 {
		color.Yellow("No entries found in state file")
		return nil
	}
	fmt.Printf("Found %d entries to migrate\n", store.Count())

	client, err := connectDB(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	color.Green("✓ Connected")

	target := postgres.NewCatalog(client)

	existing, err := target.Entries().Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count existing entries: %w", err)
	}
	if existing > 0 && !migrateForce {
		color.Yellow("Database already contains %d entries", existing)
		fmt.Println("Use --force to migrate anyway (entries already present are skipped)")
		return nil
	}

	categories, err := store.Categories().ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}
	for _, c := range categories {
		if _, err := target.Categories().EnsureExists(ctx, c.Name, c.DisplayName); err != nil {
			return fmt.Errorf("failed to migrate category %s: %w", c.Name, err)
		}
	}
	color.Green("✓ Migrated %d categories", len(categories))

	fmt.Println("\nMigrating entries...")
	entries, err := store.Entries().List(ctx, database.QueryOptions{})
	if err != nil {
		return fmt.Errorf("failed to list entries: %w", err)
	}

	migrated, skipped := 0, 0
	for _, e := range entries {
		detail, err := database.LoadDetail(ctx, store, e)
		if err != nil {
			return fmt.Errorf("failed to read entry %s: %w", e.ID, err)
		}

		copied, err := copyEntry(ctx, target, detail)
		if err != nil {
			color.Yellow("Warning: failed to migrate %s: %v", e.Title, err)
			continue
		}
		if copied {
			migrated++
		} else {
			skipped++
		}
	}
	color.Green("✓ Migrated %d entries", migrated)

	history := store.GetHistory()
	for _, h := range history {
		completed := h.Timestamp
		entry := &database.OperationHistory{
			Action:      h.Action,
			Source:      h.Source,
			Count:       h.Count,
			Details:     h.Details,
			StartedAt:   h.Timestamp,
			CompletedAt: &completed,
		}
		if err := target.History().Add(ctx, entry); err != nil {
			color.Yellow("Warning: failed to migrate history entry: %v", err)
		}
	}
	if len(history) > 0 {
		color.Green("✓ Migrated %d history entries", len(history))
	}

	fmt.Println("\n" + color.CyanString("Migration Summary"))
	fmt.Printf("  Categories: %d\n", len(categories))
	fmt.Printf("  Entries:    %d\n", migrated)
	fmt.Printf("  Skipped:    %d\n", skipped)
	fmt.Printf("  History:    %d\n", len(history))

	color.Green("\n✓ Migration complete")
	fmt.Println("\nTo enable database backend, run:")
	fmt.Println("  catops config set database.use_db true")

	return nil
}

// copyEntry writes one entry with its children in a single transaction.
// Entries whose ID already exists are left alone.
func copyEntry(ctx context.Context, target *postgres.Catalog, d *database.EntryDetail) (bool, error) {
	found, err := target.Entries().GetByID(ctx, d.Entry.ID)
	if err != nil {
		return false, err
	}
	if found != nil {
		return false, nil
	}

	err = target.InTx(ctx, func(tx database.Catalog) error {
		entry := *d.Entry
		if err := tx.Entries().Create(ctx, &entry); err != nil {
			return err
		}
		for _, p := range d.Prices {
			price := *p
			if err := tx.Prices().Create(ctx, &price); err != nil {
				return err
			}
		}
		for _, img := range d.Images {
			image := *img
			if err := tx.Images().Create(ctx, &image); err != nil {
				return err
			}
		}
		_, err := tx.Specifications().BulkCreate(ctx, d.Specs)
		return err
	})
	return err == nil, err
}
