package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotConnected is returned by queries issued before Connect
var ErrNotConnected = errors.New("database not connected")

const applicationName = "catops"

// Config holds PostgreSQL connection configuration
type Config struct {
	Host        string
	Port        int
	Database    string
	Username    string
	Password    string
	SSLMode     string
	MaxConns    int32
	MinConns    int32
	MaxConnLife time.Duration
	MaxConnIdle time.Duration
	HealthCheck time.Duration
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Host:        "localhost",
		Port:        5432,
		Database:    "catalogops",
		SSLMode:     "prefer",
		MaxConns:    4,
		MinConns:    0,
		MaxConnLife: time.Hour,
		MaxConnIdle: 30 * time.Minute,
		HealthCheck: time.Minute,
	}
}

// Client wraps a PostgreSQL connection pool
type Client struct {
	pool   *pgxpool.Pool
	config *Config
}

// NewClient creates a new PostgreSQL client
func NewClient(cfg *Config) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Client{config: cfg}
}

// Connect establishes a connection to the database
func (c *Client) Connect(ctx context.Context) error {
	connString := c.buildConnectionString()

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolConfig.ConnConfig.RuntimeParams["application_name"] = applicationName
	poolConfig.MaxConns = c.config.MaxConns
	poolConfig.MinConns = c.config.MinConns
	poolConfig.MaxConnLifetime = c.config.MaxConnLife
	poolConfig.MaxConnIdleTime = c.config.MaxConnIdle
	poolConfig.HealthCheckPeriod = c.config.HealthCheck

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	c.pool = pool
	return nil
}

// Close closes the database connection pool
func (c *Client) Close() {
	if c.pool != nil {
		c.pool.Close()
	}
}

// Ping checks if the database connection is alive
func (c *Client) Ping(ctx context.Context) error {
	if c.pool == nil {
		return ErrNotConnected
	}
	return c.pool.Ping(ctx)
}

// Stats returns connection pool statistics
func (c *Client) Stats() *pgxpool.Stat {
	if c.pool == nil {
		return nil
	}
	return c.pool.Stat()
}

func (c *Client) newMigrate() (*migrate.Migrate, error) {
	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, c.buildConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// RunMigrations applies all pending database migrations
func (c *Client) RunMigrations() error {
	m, err := c.newMigrate()
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// MigrationVersion returns the current migration version
func (c *Client) MigrationVersion() (uint, bool, error) {
	m, err := c.newMigrate()
	if err != nil {
		return 0, false, err
	}
	defer m.Close()

	return m.Version()
}

// RollbackMigration rolls back the last migration
func (c *Client) RollbackMigration() error {
	m, err := c.newMigrate()
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("rollback failed: %w", err)
	}
	return nil
}

// buildConnectionString returns the URL used by both pgx and golang-migrate
func (c *Client) buildConnectionString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.config.Username, c.config.Password),
		Host:     fmt.Sprintf("%s:%d", c.config.Host, c.config.Port),
		Path:     "/" + c.config.Database,
		RawQuery: "sslmode=" + url.QueryEscape(c.config.SSLMode),
	}
	return u.String()
}

// ConfigFromEnv creates a Config whose credentials come from the named
// environment variables
func ConfigFromEnv(usernameEnv, passwordEnv string) *Config {
	cfg := DefaultConfig()
	cfg.Username = os.Getenv(usernameEnv)
	cfg.Password = os.Getenv(passwordEnv)
	return cfg
}

// CatalogTables are the tables created by the embedded migrations
var CatalogTables = []string{
	"categories",
	"catalog_entries",
	"entry_prices",
	"entry_images",
	"entry_specifications",
	"operation_history",
}

// TableStats is the row estimate and on-disk size of one catalog table
type TableStats struct {
	TableName string
	RowCount  int64
	Size      string
}

// GetTableStats reports the catalog tables that exist, largest first
func (c *Client) GetTableStats(ctx context.Context) ([]TableStats, error) {
	if c.pool == nil {
		return nil, ErrNotConnected
	}

	rows, err := c.pool.Query(ctx, `
		SELECT relname, n_live_tup, pg_size_pretty(pg_total_relation_size(relid))
		FROM pg_stat_user_tables
		WHERE schemaname = 'public' AND relname = ANY($1)
		ORDER BY n_live_tup DESC, relname`, CatalogTables)
	if err != nil {
		return nil, fmt.Errorf("failed to query table stats: %w", err)
	}

	stats, err := pgx.CollectRows(rows, pgx.RowToStructByPos[TableStats])
	if err != nil {
		return nil, fmt.Errorf("failed to read table stats: %w", err)
	}
	return stats, nil
}

// DatabaseInfo describes the server the catalog lives on
type DatabaseInfo struct {
	Version        string
	DatabaseName   string
	DatabaseSize   string
	ConnectionsMax int
	ConnectionsNow int
}

// GetDatabaseInfo returns server version, size and connection usage
func (c *Client) GetDatabaseInfo(ctx context.Context) (*DatabaseInfo, error) {
	if c.pool == nil {
		return nil, ErrNotConnected
	}

	var info DatabaseInfo
	err := c.pool.QueryRow(ctx, `
		SELECT
			current_setting('server_version'),
			current_database(),
			pg_size_pretty(pg_database_size(current_database())),
			current_setting('max_connections')::int,
			(SELECT count(*) FROM pg_stat_activity WHERE datname = current_database())::int`,
	).Scan(&info.Version, &info.DatabaseName, &info.DatabaseSize, &info.ConnectionsMax, &info.ConnectionsNow)
	if err != nil {
		return nil, fmt.Errorf("failed to get database info: %w", err)
	}
	return &info, nil
}
