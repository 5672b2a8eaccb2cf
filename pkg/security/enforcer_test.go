package security

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/querygate-inc/querygate-engine/pkg/apperrors"
	"github.com/querygate-inc/querygate-engine/pkg/auth"
	"github.com/querygate-inc/querygate-engine/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{Role: config.RoleClient}
}

func TestEnforce_AllStagesDisabled_PassThrough(t *testing.T) {
	enforcer := New(testConfig(), zap.NewNop())
	statements := []string{
		"SELECT * FROM secret_table",
		"DROP TABLE users",
		"UPDATE anything SET x = 1",
	}

	for _, sqlText := range statements {
		decision, err := enforcer.Enforce(context.Background(), sqlText, nil, "sqlite")
		require.NoError(t, err)
		// Disabled stages must not touch a single byte.
		assert.Equal(t, sqlText, decision.SQL)
		assert.False(t, decision.Modified)
	}
}

func TestEnforce_AllowlistDisabled_InjectionParamsPass(t *testing.T) {
	enforcer := New(testConfig(), zap.NewNop())

	_, err := enforcer.Enforce(context.Background(),
		"SELECT * FROM users WHERE name = ?",
		[]any{"x' OR '1'='1"}, "sqlite")
	assert.NoError(t, err)
}

func TestEnforce_AllowlistRejectsUnknownTable(t *testing.T) {
	cfg := testConfig()
	cfg.Features.Allowlist = true
	cfg.Security.AllowedTables = []string{"users", "orders"}
	enforcer := New(cfg, zap.NewNop())

	_, err := enforcer.Enforce(context.Background(), "SELECT * FROM payments", nil, "sqlite")
	assert.ErrorIs(t, err, apperrors.ErrSecurityRejected)
}

func TestEnforce_AllowlistAcceptsListedTables(t *testing.T) {
	cfg := testConfig()
	cfg.Features.Allowlist = true
	cfg.Security.AllowedTables = []string{"users", "orders"}
	enforcer := New(cfg, zap.NewNop())

	decision, err := enforcer.Enforce(context.Background(),
		"SELECT * FROM users JOIN orders ON orders.user_id = users.id", nil, "sqlite")
	require.NoError(t, err)
	assert.False(t, decision.Modified)
}

func TestEnforce_AllowlistCaseInsensitive(t *testing.T) {
	cfg := testConfig()
	cfg.Features.Allowlist = true
	cfg.Security.AllowedTables = []string{"Users"}
	enforcer := New(cfg, zap.NewNop())

	_, err := enforcer.Enforce(context.Background(), "SELECT * FROM USERS", nil, "sqlite")
	assert.NoError(t, err)
}

func TestEnforce_AllowlistRejectsInjectionParam(t *testing.T) {
	cfg := testConfig()
	cfg.Features.Allowlist = true
	cfg.Security.AllowedTables = []string{"users"}
	enforcer := New(cfg, zap.NewNop())

	_, err := enforcer.Enforce(context.Background(),
		"SELECT * FROM users WHERE name = ?",
		[]any{"x' OR '1'='1"}, "sqlite")
	assert.ErrorIs(t, err, apperrors.ErrSecurityRejected)
}

func TestEnforce_RLSAppendsWhere(t *testing.T) {
	cfg := testConfig()
	cfg.Features.RLS = true
	cfg.Security.Policies = []config.RLSPolicy{
		{Table: "orders", Column: "tenant_id", Value: "tenant-1"},
	}
	enforcer := New(cfg, zap.NewNop())

	decision, err := enforcer.Enforce(context.Background(), "SELECT * FROM orders", nil, "sqlite")
	require.NoError(t, err)
	assert.True(t, decision.Modified)
	assert.Equal(t, `SELECT * FROM orders WHERE "tenant_id" = 'tenant-1'`, decision.SQL)
}

func TestEnforce_RLSInjectsBeforeExistingWhere(t *testing.T) {
	cfg := testConfig()
	cfg.Features.RLS = true
	cfg.Security.Policies = []config.RLSPolicy{
		{Table: "orders", Column: "tenant_id", Value: "tenant-1"},
	}
	enforcer := New(cfg, zap.NewNop())

	decision, err := enforcer.Enforce(context.Background(),
		"SELECT * FROM orders WHERE status = 'open'", nil, "sqlite")
	require.NoError(t, err)
	assert.True(t, decision.Modified)
	assert.Equal(t,
		`SELECT * FROM orders WHERE "tenant_id" = 'tenant-1' AND (status = 'open')`,
		decision.SQL)
}

func TestEnforce_RLSParenthesizesDisjunctiveWhere(t *testing.T) {
	cfg := testConfig()
	cfg.Features.RLS = true
	cfg.Security.Policies = []config.RLSPolicy{
		{Table: "orders", Column: "tenant_id", Value: "tenant-1"},
	}
	enforcer := New(cfg, zap.NewNop())

	decision, err := enforcer.Enforce(context.Background(),
		"SELECT * FROM orders WHERE status = 'open' OR archived = 1", nil, "sqlite")
	require.NoError(t, err)
	assert.True(t, decision.Modified)
	// Without the grouping, OR precedence would leak rows past the predicate.
	assert.Equal(t,
		`SELECT * FROM orders WHERE "tenant_id" = 'tenant-1' AND (status = 'open' OR archived = 1)`,
		decision.SQL)
}

func TestEnforce_RLSGroupsConditionBeforeOrderBy(t *testing.T) {
	cfg := testConfig()
	cfg.Features.RLS = true
	cfg.Security.Policies = []config.RLSPolicy{
		{Table: "orders", Column: "tenant_id", Value: "tenant-1"},
	}
	enforcer := New(cfg, zap.NewNop())

	decision, err := enforcer.Enforce(context.Background(),
		"SELECT * FROM orders WHERE status = 'open' OR archived = 1 ORDER BY id LIMIT 5", nil, "sqlite")
	require.NoError(t, err)
	assert.True(t, decision.Modified)
	assert.Equal(t,
		`SELECT * FROM orders WHERE "tenant_id" = 'tenant-1' AND (status = 'open' OR archived = 1) ORDER BY id LIMIT 5`,
		decision.SQL)
}

func TestEnforce_RLSUsesDialectQuoting(t *testing.T) {
	cfg := testConfig()
	cfg.Features.RLS = true
	cfg.Security.Policies = []config.RLSPolicy{
		{Table: "orders", Column: "tenant_id", Value: "t1"},
	}
	enforcer := New(cfg, zap.NewNop())

	decision, err := enforcer.Enforce(context.Background(), "SELECT * FROM orders", nil, "mysql")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM orders WHERE `tenant_id` = 't1'", decision.SQL)
}

func TestEnforce_RLSAdminBypass(t *testing.T) {
	cfg := testConfig()
	cfg.Role = config.RoleAdmin
	cfg.Features.RLS = true
	cfg.Security.Policies = []config.RLSPolicy{
		{Table: "orders", Column: "tenant_id", Value: "tenant-1"},
	}
	enforcer := New(cfg, zap.NewNop())

	decision, err := enforcer.Enforce(context.Background(), "SELECT * FROM orders", nil, "sqlite")
	require.NoError(t, err)
	assert.False(t, decision.Modified)
	assert.Equal(t, "SELECT * FROM orders", decision.SQL)
}

func TestEnforce_RLSSkipsUnreferencedTables(t *testing.T) {
	cfg := testConfig()
	cfg.Features.RLS = true
	cfg.Security.Policies = []config.RLSPolicy{
		{Table: "orders", Column: "tenant_id", Value: "tenant-1"},
	}
	enforcer := New(cfg, zap.NewNop())

	decision, err := enforcer.Enforce(context.Background(), "SELECT * FROM users", nil, "sqlite")
	require.NoError(t, err)
	assert.False(t, decision.Modified)
}

func TestEnforce_RLSClaimBoundValue(t *testing.T) {
	cfg := testConfig()
	cfg.Features.RLS = true
	cfg.Security.Policies = []config.RLSPolicy{
		{Table: "orders", Column: "owner", Claim: "sub"},
	}
	enforcer := New(cfg, zap.NewNop())

	claims := &auth.Claims{}
	claims.Subject = "user-42"
	ctx := auth.WithClaims(context.Background(), claims)

	decision, err := enforcer.Enforce(ctx, "SELECT * FROM orders", nil, "sqlite")
	require.NoError(t, err)
	assert.True(t, decision.Modified)
	assert.Equal(t, `SELECT * FROM orders WHERE "owner" = 'user-42'`, decision.SQL)
}

func TestEnforce_RLSUnresolvableClaimSkipsPolicy(t *testing.T) {
	cfg := testConfig()
	cfg.Features.RLS = true
	cfg.Security.Policies = []config.RLSPolicy{
		{Table: "orders", Column: "owner", Claim: "tenant"},
	}
	enforcer := New(cfg, zap.NewNop())

	// No claims in context, so the policy value cannot be bound.
	decision, err := enforcer.Enforce(context.Background(), "SELECT * FROM orders", nil, "sqlite")
	require.NoError(t, err)
	assert.False(t, decision.Modified)
	assert.Equal(t, "SELECT * FROM orders", decision.SQL)
}

func TestEnforce_RLSSkipsInsert(t *testing.T) {
	cfg := testConfig()
	cfg.Features.RLS = true
	cfg.Security.Policies = []config.RLSPolicy{
		{Table: "orders", Column: "tenant_id", Value: "tenant-1"},
	}
	enforcer := New(cfg, zap.NewNop())

	decision, err := enforcer.Enforce(context.Background(),
		"INSERT INTO orders (id) VALUES (1)", nil, "sqlite")
	require.NoError(t, err)
	assert.False(t, decision.Modified)
}

func TestEnforce_RLSIgnoresWhereInsideSubquery(t *testing.T) {
	cfg := testConfig()
	cfg.Features.RLS = true
	cfg.Security.Policies = []config.RLSPolicy{
		{Table: "orders", Column: "tenant_id", Value: "t1"},
	}
	enforcer := New(cfg, zap.NewNop())

	decision, err := enforcer.Enforce(context.Background(),
		"SELECT * FROM orders JOIN (SELECT id FROM users WHERE active = 1) u ON u.id = orders.user_id",
		nil, "sqlite")
	require.NoError(t, err)
	assert.True(t, decision.Modified)
	// The predicate lands at the end, not inside the subquery's WHERE.
	assert.Contains(t, decision.SQL, `ON u.id = orders.user_id WHERE "tenant_id" = 't1'`)
}
