package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/esgaming/catalogops/internal/config"
	"github.com/esgaming/catalogops/internal/database"
	"github.com/esgaming/catalogops/internal/database/clickhouse"
	"github.com/esgaming/catalogops/internal/database/postgres"
	"github.com/esgaming/catalogops/internal/logging"
	"github.com/esgaming/catalogops/internal/state"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"
)

// app is what the catalog commands share: settings, logger and the open backend
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	catalog database.Catalog
	backend string
	closers []func()
}

// openApp loads the config and opens the catalog backend it selects:
// PostgreSQL when database.use_db is set, the JSON state file otherwise.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}
	a.closers = append(a.closers, func() { _ = logger.Sync() })

	if cfg.Database.UseDB {
		client, err := getDBClient(cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		if err := client.Connect(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		a.catalog = postgres.NewCatalog(client)
		a.backend = "postgres"
	} else {
		store := state.NewStore(cfg.Import.StateFile)
		if err := store.Load(); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to load state: %w", err)
		}
		a.catalog = store
		a.backend = store.Path()
	}

	logger.Debug("catalog opened", zap.String("backend", a.backend))
	return a, nil
}

// Close releases everything in reverse order
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// analytics returns a connected ClickHouse client, or nil when analytics are
// disabled in the config
func (a *app) analytics(ctx context.Context) (*clickhouse.Client, error) {
	if !a.cfg.Database.ClickHouse.Enabled {
		return nil, nil
	}
	client := getClickHouseClient(a.cfg)
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	a.closers = append(a.closers, func() { _ = client.Close() })
	return client, nil
}

// getDBClient creates a PostgreSQL client from configuration
func getDBClient(cfg *config.Config) (*postgres.Client, error) {
	pgConfig := postgres.ConfigFromEnv(cfg.Database.Postgres.UsernameEnv, cfg.Database.Postgres.PasswordEnv)
	pgConfig.Host = cfg.Database.Postgres.Host
	pgConfig.Port = cfg.Database.Postgres.Port
	pgConfig.Database = cfg.Database.Postgres.Database
	pgConfig.SSLMode = cfg.Database.Postgres.SSLMode

	if pgConfig.Username == "" {
		return nil, fmt.Errorf("PostgreSQL username not set. Set the %s environment variable", cfg.Database.Postgres.UsernameEnv)
	}

	return postgres.NewClient(pgConfig), nil
}

// getClickHouseClient creates a ClickHouse client from configuration
func getClickHouseClient(cfg *config.Config) *clickhouse.Client {
	return clickhouse.NewClient(clickhouse.ConfigFrom(cfg.Database.ClickHouse))
}

func printHeader(title string, width int) {
	color.New(color.FgCyan, color.Bold).Println("\n  " + title)
	fmt.Println("  " + strings.Repeat("─", width))
	fmt.Println()
}

func newTable(headers ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(headers)
	table.SetBorder(false)
	table.SetAutoWrapText(false)

	colors := make([]tablewriter.Colors, len(headers))
	for i := range colors {
		colors[i] = tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor}
	}
	table.SetHeaderColor(colors...)
	return table
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
