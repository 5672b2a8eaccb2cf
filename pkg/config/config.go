// Package config loads gateway configuration from config.yaml with
// environment variable overrides. Secrets (passwords, API keys) must only
// come from environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Roles understood by the security enforcer.
const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

// Datasource kinds.
const (
	SourceInternal = "internal"
	SourceExternal = "external"
)

// Config holds all configuration for querygate-engine.
// Environment variables always override YAML values for fields that support both.
type Config struct {
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8787"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Role assumed for requests that carry no authenticated role claim.
	Role string `yaml:"role" env:"GATEWAY_ROLE" env-default:"client"`

	Source   SourceConfig   `yaml:"source"`
	Features FeatureConfig  `yaml:"features"`
	Cache    CacheConfig    `yaml:"cache"`
	Security SecurityConfig `yaml:"security"`
	Auth     AuthConfig     `yaml:"auth"`

	// HostedAPIKey enables the hosted-proxy execution path for external
	// dialects without a direct driver. Secret - env only.
	HostedAPIKey string `yaml:"-" env:"HOSTED_API_KEY"`
	// HostedProxyURL is the remote execution endpoint used with HostedAPIKey.
	HostedProxyURL string `yaml:"hosted_proxy_url" env:"HOSTED_PROXY_URL" env-default:"https://app.outerbase.com/api/v1/ezql/raw"`
}

// SourceConfig selects the execution target: the co-located internal engine
// or one external connection.
type SourceConfig struct {
	// Type is "internal" or "external".
	Type string `yaml:"type" env:"SOURCE_TYPE" env-default:"internal"`

	// Internal engine RPC endpoint, required when Type is "internal".
	InternalURL   string `yaml:"internal_url" env:"INTERNAL_ENGINE_URL" env-default:"http://127.0.0.1:8686"`
	InternalToken string `yaml:"-" env:"INTERNAL_ENGINE_TOKEN"` // Secret - env only

	External ExternalConfig `yaml:"external"`
}

// ExternalConfig describes one external connection. Which fields are required
// depends on the dialect/provider: driver dialects use host/port/user/database,
// API-backed providers use url/token (plus account/database for D1-style APIs).
type ExternalConfig struct {
	Dialect  string `yaml:"dialect" env:"EXTERNAL_DIALECT" env-default:""`
	Provider string `yaml:"provider" env:"EXTERNAL_PROVIDER" env-default:""`

	Host     string `yaml:"host" env:"EXTERNAL_HOST" env-default:""`
	Port     int    `yaml:"port" env:"EXTERNAL_PORT" env-default:"0"`
	User     string `yaml:"user" env:"EXTERNAL_USER" env-default:""`
	Password string `yaml:"-" env:"EXTERNAL_PASSWORD"` // Secret - env only
	Database string `yaml:"database" env:"EXTERNAL_DATABASE" env-default:""`
	SSLMode  string `yaml:"ssl_mode" env:"EXTERNAL_SSL_MODE" env-default:""`

	// API-backed providers.
	URL       string `yaml:"url" env:"EXTERNAL_URL" env-default:""`
	Token     string `yaml:"-" env:"EXTERNAL_TOKEN"` // Secret - env only
	AccountID string `yaml:"account_id" env:"EXTERNAL_ACCOUNT_ID" env-default:""`
}

// Empty reports whether no external connection descriptor was provided.
func (e *ExternalConfig) Empty() bool {
	return e.Dialect == "" && e.Provider == "" && e.Host == "" && e.URL == ""
}

// AsMap converts the descriptor into the generic config map consumed by
// backend adapter factories.
func (e *ExternalConfig) AsMap() map[string]any {
	m := map[string]any{}
	if e.Host != "" {
		m["host"] = e.Host
	}
	if e.Port != 0 {
		m["port"] = e.Port
	}
	if e.User != "" {
		m["user"] = e.User
	}
	if e.Password != "" {
		m["password"] = e.Password
	}
	if e.Database != "" {
		m["database"] = e.Database
	}
	if e.SSLMode != "" {
		m["ssl_mode"] = e.SSLMode
	}
	if e.URL != "" {
		m["url"] = e.URL
	}
	if e.Token != "" {
		m["token"] = e.Token
	}
	if e.AccountID != "" {
		m["account_id"] = e.AccountID
	}
	return m
}

// FeatureConfig holds the named feature toggles. Defaults form an enumerated
// resolution table rather than scattered inline checks:
//
//	allowlist  off
//	rls        off
//	rest       on
//	export     on
//	import     on
//	websocket  on
//
// The env-default tags below are that table; change it here and nowhere else.
type FeatureConfig struct {
	Allowlist bool `yaml:"allowlist" env:"FEATURE_ALLOWLIST" env-default:"false"`
	RLS       bool `yaml:"rls" env:"FEATURE_RLS" env-default:"false"`
	REST      bool `yaml:"rest" env:"FEATURE_REST" env-default:"true"`
	Export    bool `yaml:"export" env:"FEATURE_EXPORT" env-default:"true"`
	Import    bool `yaml:"import" env:"FEATURE_IMPORT" env-default:"true"`
	WebSocket bool `yaml:"websocket" env:"FEATURE_WEBSOCKET" env-default:"true"`
}

// CacheConfig holds result-cache settings.
type CacheConfig struct {
	// TTLSeconds is how long a cached result stays valid.
	TTLSeconds int `yaml:"ttl_seconds" env:"CACHE_TTL_SECONDS" env-default:"60"`
	// SweepIntervalSeconds is how often the background sweep removes expired entries.
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds" env:"CACHE_SWEEP_INTERVAL_SECONDS" env-default:"30"`

	// Redis, when configured, replaces the in-process store so that identical
	// (sql, params) pairs hit the same entry across gateway instances.
	RedisHost     string `yaml:"redis_host" env:"CACHE_REDIS_HOST" env-default:""`
	RedisPort     int    `yaml:"redis_port" env:"CACHE_REDIS_PORT" env-default:"6379"`
	RedisPassword string `yaml:"-" env:"CACHE_REDIS_PASSWORD"` // Secret - env only
	RedisDB       int    `yaml:"redis_db" env:"CACHE_REDIS_DB" env-default:"0"`
}

// SecurityConfig holds allowlist and row-level security policy.
type SecurityConfig struct {
	// AllowedTables is the set of tables a statement may touch when the
	// allowlist toggle is on. Comparison is case-insensitive.
	AllowedTables []string `yaml:"allowed_tables" env:"ALLOWED_TABLES"`

	// Policies are row-visibility predicates injected for non-admin callers
	// when the rls toggle is on.
	Policies []RLSPolicy `yaml:"rls_policies"`
}

// RLSPolicy scopes rows of one table to the caller. Value is a fixed literal;
// Claim, when set, binds the predicate value from the caller's JWT claim of
// that name instead.
type RLSPolicy struct {
	Table  string `yaml:"table"`
	Column string `yaml:"column"`
	Value  string `yaml:"value"`
	Claim  string `yaml:"claim"`
}

// AuthConfig holds bearer-token verification settings.
type AuthConfig struct {
	// EnableVerification controls whether JWT signatures are validated.
	// Set to false for local development without an auth server.
	EnableVerification bool `yaml:"enable_verification" env:"AUTH_ENABLE_VERIFICATION" env-default:"false"`

	// JWKSEndpointsStr is a comma-separated list of issuer=jwks_url pairs.
	JWKSEndpointsStr string `yaml:"jwks_endpoints" env:"JWKS_ENDPOINTS" env-default:""`

	// JWKSEndpoints is the parsed map from JWKSEndpointsStr (not from config file).
	JWKSEndpoints map[string]string `yaml:"-"`
}

// Load reads configuration from config.yaml with environment variable
// overrides and validates the datasource descriptor. Constructing a gateway
// against an external source without a connection descriptor is a fatal
// configuration error, surfaced here before any request is processed.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	cfg.Auth.JWKSEndpoints = parseJWKSEndpoints(cfg.Auth.JWKSEndpointsStr)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces the invariants the rest of the system assumes.
func (c *Config) Validate() error {
	switch c.Source.Type {
	case SourceInternal:
		if c.Source.InternalURL == "" {
			return fmt.Errorf("source.internal_url is required for the internal engine")
		}
	case SourceExternal:
		if c.Source.External.Empty() {
			return fmt.Errorf("source.type is external but no external connection descriptor is configured")
		}
		if c.Source.External.Dialect == "" && c.Source.External.Provider == "" {
			return fmt.Errorf("external connection requires a dialect or provider")
		}
	default:
		return fmt.Errorf("unknown source.type %q (want %q or %q)", c.Source.Type, SourceInternal, SourceExternal)
	}

	if c.Role != RoleAdmin && c.Role != RoleClient {
		return fmt.Errorf("role must be %q or %q, got %q", RoleAdmin, RoleClient, c.Role)
	}

	if c.Cache.TTLSeconds <= 0 {
		return fmt.Errorf("cache.ttl_seconds must be positive")
	}
	if c.Cache.SweepIntervalSeconds <= 0 {
		return fmt.Errorf("cache.sweep_interval_seconds must be positive")
	}
	return nil
}

// parseJWKSEndpoints parses "issuer1=url1,issuer2=url2" into a map.
func parseJWKSEndpoints(value string) map[string]string {
	endpoints := make(map[string]string)
	if value == "" {
		return endpoints
	}
	for _, pair := range strings.Split(value, ",") {
		parts := strings.Split(pair, "=")
		if len(parts) == 2 {
			endpoints[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return endpoints
}
