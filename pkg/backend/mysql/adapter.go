// Package mysql is the direct driver adapter for MySQL and MariaDB backends.
package mysql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql" // registers the "mysql" driver

	"github.com/querygate-inc/querygate-engine/pkg/backend"
	"github.com/querygate-inc/querygate-engine/pkg/shape"
)

// Config contains MySQL-specific connection options.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// DefaultPort returns the default MySQL port.
func DefaultPort() int {
	return 3306
}

// FromMap creates a Config from a generic connection config map.
func FromMap(config map[string]any) (*Config, error) {
	cfg := &Config{Port: DefaultPort()}

	if host, ok := config["host"].(string); ok {
		cfg.Host = host
	} else {
		return nil, fmt.Errorf("host is required")
	}

	if port, ok := config["port"].(float64); ok { // JSON numbers are float64
		cfg.Port = int(port)
	} else if port, ok := config["port"].(int); ok {
		cfg.Port = port
	}

	if user, ok := config["user"].(string); ok {
		cfg.User = user
	} else {
		return nil, fmt.Errorf("user is required")
	}

	if password, ok := config["password"].(string); ok {
		cfg.Password = password
	}

	if database, ok := config["database"].(string); ok {
		cfg.Database = database
	} else {
		return nil, fmt.Errorf("database is required")
	}

	return cfg, nil
}

// DSN renders the go-sql-driver connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", c.User, c.Password, c.Host, c.Port, c.Database)
}

// Adapter executes statements over a database/sql connection.
type Adapter struct {
	db *sql.DB
}

// NewAdapter opens a connection and verifies it is reachable.
func NewAdapter(ctx context.Context, cfg *Config) (*Adapter, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to mysql: %w", err)
	}
	return &Adapter{db: db}, nil
}

// Query runs one statement and returns the native tabular result. MySQL uses
// `?` placeholders, which the pipeline passes through untouched.
func (a *Adapter) Query(ctx context.Context, sqlText string, params any) (*shape.RawResult, error) {
	args, err := backend.BindParams(params)
	if err != nil {
		return nil, err
	}

	rows, err := a.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	return backend.CollectRows(rows)
}

// Close releases the connection.
func (a *Adapter) Close() error {
	return a.db.Close()
}

// Ensure Adapter implements backend.Adapter at compile time.
var _ backend.Adapter = (*Adapter)(nil)
