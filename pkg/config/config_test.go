package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{Role: RoleClient}
	cfg.Source.Type = SourceInternal
	cfg.Source.InternalURL = "http://127.0.0.1:8686"
	cfg.Cache.TTLSeconds = 60
	cfg.Cache.SweepIntervalSeconds = 30
	return cfg
}

func TestValidate_Internal(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_InternalRequiresURL(t *testing.T) {
	cfg := validConfig()
	cfg.Source.InternalURL = ""
	assert.Error(t, cfg.Validate())
}

func TestValidate_ExternalWithoutDescriptorFails(t *testing.T) {
	cfg := validConfig()
	cfg.Source.Type = SourceExternal

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "external")
}

func TestValidate_ExternalWithDescriptor(t *testing.T) {
	cfg := validConfig()
	cfg.Source.Type = SourceExternal
	cfg.Source.External.Dialect = "postgres"
	cfg.Source.External.Host = "db.internal"

	assert.NoError(t, cfg.Validate())
}

func TestValidate_ExternalNeedsDialectOrProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Source.Type = SourceExternal
	cfg.Source.External.Host = "db.internal"

	assert.Error(t, cfg.Validate())
}

func TestValidate_UnknownSourceType(t *testing.T) {
	cfg := validConfig()
	cfg.Source.Type = "remote"
	assert.Error(t, cfg.Validate())
}

func TestValidate_Role(t *testing.T) {
	cfg := validConfig()
	cfg.Role = "superuser"
	assert.Error(t, cfg.Validate())
}

func TestValidate_CacheSettings(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.TTLSeconds = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Cache.SweepIntervalSeconds = -1
	assert.Error(t, cfg.Validate())
}

func TestExternalConfig_Empty(t *testing.T) {
	var ext ExternalConfig
	assert.True(t, ext.Empty())

	ext.URL = "https://api.example.com"
	assert.False(t, ext.Empty())
}

func TestExternalConfig_AsMap(t *testing.T) {
	ext := ExternalConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "app",
		Password: "secret",
		Database: "prod",
	}

	m := ext.AsMap()

	assert.Equal(t, "db.internal", m["host"])
	assert.Equal(t, 5432, m["port"])
	assert.Equal(t, "secret", m["password"])
	assert.NotContains(t, m, "url")
	assert.NotContains(t, m, "ssl_mode")
}

func TestParseJWKSEndpoints(t *testing.T) {
	endpoints := parseJWKSEndpoints(
		"https://a.example=https://a.example/jwks, https://b.example=https://b.example/keys")

	require.Len(t, endpoints, 2)
	assert.Equal(t, "https://a.example/jwks", endpoints["https://a.example"])
	assert.Equal(t, "https://b.example/keys", endpoints["https://b.example"])

	assert.Empty(t, parseJWKSEndpoints(""))
	assert.Empty(t, parseJWKSEndpoints("malformed"))
}
