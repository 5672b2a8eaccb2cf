// Package mssql is the direct driver adapter for SQL Server backends.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/microsoft/go-mssqldb" // registers the "sqlserver" driver

	"github.com/querygate-inc/querygate-engine/pkg/backend"
	"github.com/querygate-inc/querygate-engine/pkg/shape"
)

// Config contains SQL Server-specific connection options.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// DefaultPort returns the default SQL Server port.
func DefaultPort() int {
	return 1433
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

// ConnectionURL renders the go-mssqldb connection URL.
func (c *Config) ConnectionURL() string {
	u := &url.URL{
		Scheme: "sqlserver",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
	}
	q := url.Values{}
	q.Set("database", c.Database)
	u.RawQuery = q.Encode()
	return u.String()
}

// Adapter executes statements over a database/sql connection.
type Adapter struct {
	db *sql.DB
}

// NewAdapter opens a connection and verifies it is reachable.
func NewAdapter(ctx context.Context, cfg *Config) (*Adapter, error) {
	db, err := sql.Open("sqlserver", cfg.ConnectionURL())
	if err != nil {
		return nil, fmt.Errorf("open sqlserver connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to sqlserver: %w", err)
	}
	return &Adapter{db: db}, nil
}

// Query runs one statement and returns the native tabular result. Object
// params bind as @name arguments; arrays bind positionally as @p1..@pN.
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
