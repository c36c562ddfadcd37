package clickhouse

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/esgaming/catalogops/internal/config"
)

// Config holds ClickHouse connection configuration
type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Secure   bool
	Debug    bool
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Host:     "localhost",
		Port:     9000,
		Database: "catalogops",
		Secure:   false,
		Debug:    false,
	}
}

// ErrNotConnected is returned by calls made before Connect
var ErrNotConnected = errors.New("clickhouse not connected")

// Client records import events and answers the analytics queries
type Client struct {
	conn   driver.Conn
	config *Config
}

// NewClient creates a new ClickHouse client
func NewClient(cfg *Config) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Client{config: cfg}
}

// Connect establishes a connection to ClickHouse
func (c *Client) Connect(ctx context.Context) error {
	protocol := clickhouse.Native
	if c.config.Secure {
		protocol = clickhouse.HTTP
	}

	options := &clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", c.config.Host, c.config.Port)},
		Auth: clickhouse.Auth{
			Database: c.config.Database,
			Username: c.config.Username,
			Password: c.config.Password,
		},
		Protocol: protocol,
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
		Debug:           c.config.Debug,
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return fmt.Errorf("failed to open connection: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to ping ClickHouse at %s: %w", options.Addr[0], err)
	}

	c.conn = conn
	return nil
}

// Close closes the ClickHouse connection
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Ping checks if the connection is alive
func (c *Client) Ping(ctx context.Context) error {
	if c.conn == nil {
		return ErrNotConnected
	}
	return c.conn.Ping(ctx)
}

// schemaObjects are created in order by InitSchema
var schemaObjects = []struct {
	name string
	ddl  string
}{
	{"import_events", `CREATE TABLE IF NOT EXISTS import_events (
		entry_id UUID,
		sku String,
		title String,
		category LowCardinality(String),
		amount Decimal(12, 2),
		currency LowCardinality(String) DEFAULT 'USD',
		action LowCardinality(String),
		spec_count UInt16,
		has_image UInt8,
		source String,
		imported_at DateTime64(3),
		imported_date Date
	) ENGINE = MergeTree()
	PARTITION BY toYYYYMM(imported_date)
	ORDER BY (category, sku, imported_at)
	TTL imported_date + INTERVAL 2 YEAR`},
	{"category_price_daily_mv", `CREATE MATERIALIZED VIEW IF NOT EXISTS category_price_daily_mv
	ENGINE = SummingMergeTree()
	PARTITION BY toYYYYMM(date)
	ORDER BY (category, date)
	AS SELECT
		category,
		imported_date AS date,
		min(amount) AS min_price,
		max(amount) AS max_price,
		count() AS row_count
	FROM import_events
	GROUP BY category, date`},
}

// InitSchema creates the event table and its daily rollup
func (c *Client) InitSchema(ctx context.Context) error {
	if c.conn == nil {
		return ErrNotConnected
	}
	for _, obj := range schemaObjects {
		if err := c.conn.Exec(ctx, obj.ddl); err != nil {
			return fmt.Errorf("failed to create %s: %w", obj.name, err)
		}
	}
	return nil
}

// ConfigFrom creates a Config from the application settings, reading
// credentials from the named environment variables
func ConfigFrom(cfg config.ClickHouseDBConfig) *Config {
	out := DefaultConfig()
	if cfg.Host != "" {
		out.Host = cfg.Host
	}
	if cfg.Port != 0 {
		out.Port = cfg.Port
	}
	if cfg.Database != "" {
		out.Database = cfg.Database
	}
	out.Secure = cfg.Secure
	out.Username = os.Getenv(cfg.UsernameEnv)
	out.Password = os.Getenv(cfg.PasswordEnv)
	return out
}

// TableInfo is one row of system.tables for the analytics database
type TableInfo struct {
	Name      string `ch:"name"`
	Rows      uint64 `ch:"rows"`
	BytesSize uint64 `ch:"bytes"`
	Engine    string `ch:"engine"`
}

// GetTableInfo lists the analytics tables, largest first
func (c *Client) GetTableInfo(ctx context.Context) ([]TableInfo, error) {
	if c.conn == nil {
		return nil, ErrNotConnected
	}

	var tables []TableInfo
	err := c.conn.Select(ctx, &tables, `
		SELECT
			name,
			ifNull(total_rows, 0) AS rows,
			ifNull(total_bytes, 0) AS bytes,
			engine
		FROM system.tables
		WHERE database = currentDatabase()
		ORDER BY bytes DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	return tables, nil
}

// GetDatabaseSize returns the bytes used by the analytics database
func (c *Client) GetDatabaseSize(ctx context.Context) (uint64, error) {
	if c.conn == nil {
		return 0, ErrNotConnected
	}

	var size uint64
	row := c.conn.QueryRow(ctx, `SELECT toUInt64(ifNull(sum(total_bytes), 0)) FROM system.tables WHERE database = currentDatabase()`)
	if err := row.Scan(&size); err != nil {
		return 0, fmt.Errorf("failed to get database size: %w", err)
	}
	return size, nil
}
