// Package sqlite is the direct driver adapter for file-backed SQLite
// databases reachable from the gateway host.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver

	"github.com/querygate-inc/querygate-engine/pkg/backend"
	"github.com/querygate-inc/querygate-engine/pkg/shape"
)

// Config contains SQLite-specific connection options.
type Config struct {
	// Database is the filesystem path to the database file, or ":memory:".
	Database string
}

// FromMap creates a Config from a generic connection config map.
func FromMap(config map[string]any) (*Config, error) {
	cfg := &Config{}
	if database, ok := config["database"].(string); ok {
		cfg.Database = database
	} else {
		return nil, fmt.Errorf("database is required")
	}
	return cfg, nil
}

// Adapter executes statements over a database/sql connection.
type Adapter struct {
	db *sql.DB
}

// NewAdapter opens the database file.
func NewAdapter(ctx context.Context, cfg *Config) (*Adapter, error) {
	db, err := sql.Open("sqlite3", cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to sqlite: %w", err)
	}
	return &Adapter{db: db}, nil
}

// Query runs one statement and returns the native tabular result.
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
