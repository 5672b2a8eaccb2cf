// Package rest maps CRUD verbs on /rest/{table} paths onto SQL statements
// and drives them through the query pipeline. It is a SQL-generation front
// end, not a parallel execution path: every statement it builds goes through
// the same validation, security, cache, and dispatch stages as raw queries.
package rest

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/querygate-inc/querygate-engine/pkg/apperrors"
	"github.com/querygate-inc/querygate-engine/pkg/backend"
	"github.com/querygate-inc/querygate-engine/pkg/config"
	"github.com/querygate-inc/querygate-engine/pkg/gateway"
	"github.com/querygate-inc/querygate-engine/pkg/shape"
)

// identifierPattern is the only shape of table and column names the REST
// layer will interpolate into SQL text. Everything else travels as a bound
// parameter.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ListOptions are the recognized query-string controls for collection reads.
// Any non-reserved query parameter becomes an equality filter.
type ListOptions struct {
	Filters map[string]string
	SortBy  string
	SortDir string
	Limit   int
	Offset  int
}

// Translator builds statements for one table at a time and executes them
// through the gateway.
type Translator struct {
	gw     *gateway.Gateway
	cfg    *config.Config
	logger *zap.Logger
}

// New creates the REST translator over an already-wired gateway.
func New(gw *gateway.Gateway, cfg *config.Config, logger *zap.Logger) *Translator {
	return &Translator{gw: gw, cfg: cfg, logger: logger}
}

// guard enforces the two availability conditions: the rest feature toggle and
// an internal datasource. External sources never expose the REST surface.
func (t *Translator) guard() error {
	if !t.cfg.Features.REST {
		return fmt.Errorf("%w: rest", apperrors.ErrFeatureDisabled)
	}
	if t.gw.DataSource().Source != backend.SourceInternal {
		return apperrors.ErrInternalOnly
	}
	return nil
}

// List reads rows from table, applying equality filters, ordering, and
// limit/offset from the query string.
func (t *Translator) List(ctx context.Context, table string, opts ListOptions) (shape.ObjectResult, error) {
	if err := t.guard(); err != nil {
		return nil, err
	}
	if err := validateIdentifier(table); err != nil {
		return nil, err
	}

	var (
		sb     strings.Builder
		params []any
	)
	sb.WriteString(`SELECT * FROM "` + table + `"`)

	if len(opts.Filters) > 0 {
		// Deterministic clause order so identical requests share a cache key.
		columns := make([]string, 0, len(opts.Filters))
		for column := range opts.Filters {
			columns = append(columns, column)
		}
		sort.Strings(columns)

		clauses := make([]string, 0, len(columns))
		for _, column := range columns {
			if err := validateIdentifier(column); err != nil {
				return nil, err
			}
			clauses = append(clauses, `"`+column+`" = ?`)
			params = append(params, opts.Filters[column])
		}
		sb.WriteString(" WHERE " + strings.Join(clauses, " AND "))
	}

	if opts.SortBy != "" {
		if err := validateIdentifier(opts.SortBy); err != nil {
			return nil, err
		}
		dir := "ASC"
		if strings.EqualFold(opts.SortDir, "desc") {
			dir = "DESC"
		}
		sb.WriteString(` ORDER BY "` + opts.SortBy + `" ` + dir)
	}

	if opts.Limit > 0 {
		sb.WriteString(" LIMIT " + strconv.Itoa(opts.Limit))
		if opts.Offset > 0 {
			sb.WriteString(" OFFSET " + strconv.Itoa(opts.Offset))
		}
	}

	return t.run(ctx, sb.String(), params)
}

// GetByID reads the single row whose primary key equals id.
func (t *Translator) GetByID(ctx context.Context, table, id string) (shape.ObjectResult, error) {
	if err := t.guard(); err != nil {
		return nil, err
	}
	if err := validateIdentifier(table); err != nil {
		return nil, err
	}
	pk, err := t.primaryKey(ctx, table)
	if err != nil {
		return nil, err
	}

	result, err := t.run(ctx, `SELECT * FROM "`+table+`" WHERE "`+pk+`" = ?`, []any{id})
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("%w: no row in %q with %s = %q", apperrors.ErrNotFound, table, pk, id)
	}
	return result, nil
}

// Create inserts one row built from the request body.
func (t *Translator) Create(ctx context.Context, table string, data map[string]any) (shape.ObjectResult, error) {
	if err := t.guard(); err != nil {
		return nil, err
	}
	if err := validateIdentifier(table); err != nil {
		return nil, err
	}
	columns, params, err := sortedColumns(data)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: request body must contain at least one column", apperrors.ErrValidation)
	}

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, column := range columns {
		quoted[i] = `"` + column + `"`
		placeholders[i] = "?"
	}
	sqlText := fmt.Sprintf(`INSERT INTO "%s" (%s) VALUES (%s)`,
		table, strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
	return t.run(ctx, sqlText, params)
}

// Update sets the body's columns on the row whose primary key equals id.
func (t *Translator) Update(ctx context.Context, table, id string, data map[string]any) (shape.ObjectResult, error) {
	if err := t.guard(); err != nil {
		return nil, err
	}
	if err := validateIdentifier(table); err != nil {
		return nil, err
	}
	columns, params, err := sortedColumns(data)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: request body must contain at least one column", apperrors.ErrValidation)
	}
	pk, err := t.primaryKey(ctx, table)
	if err != nil {
		return nil, err
	}

	assignments := make([]string, len(columns))
	for i, column := range columns {
		assignments[i] = `"` + column + `" = ?`
	}
	params = append(params, id)
	sqlText := fmt.Sprintf(`UPDATE "%s" SET %s WHERE "%s" = ?`,
		table, strings.Join(assignments, ", "), pk)
	return t.run(ctx, sqlText, params)
}

// Delete removes the row whose primary key equals id.
func (t *Translator) Delete(ctx context.Context, table, id string) (shape.ObjectResult, error) {
	if err := t.guard(); err != nil {
		return nil, err
	}
	if err := validateIdentifier(table); err != nil {
		return nil, err
	}
	pk, err := t.primaryKey(ctx, table)
	if err != nil {
		return nil, err
	}
	return t.run(ctx, `DELETE FROM "`+table+`" WHERE "`+pk+`" = ?`, []any{id})
}

// primaryKey discovers the table's primary key column from the engine's
// schema metadata, falling back to "id" when none is declared.
func (t *Translator) primaryKey(ctx context.Context, table string) (string, error) {
	result, err := t.run(ctx, `PRAGMA table_info("`+table+`")`, nil)
	if err != nil {
		return "", err
	}
	for _, row := range result {
		if !isPrimaryKeyFlag(row["pk"]) {
			continue
		}
		if name, ok := row["name"].(string); ok && name != "" {
			return name, nil
		}
	}
	return "id", nil
}

// run drives one generated statement through the full pipeline in object mode.
func (t *Translator) run(ctx context.Context, sqlText string, params []any) (shape.ObjectResult, error) {
	descriptor := gateway.QueryDescriptor{SQL: sqlText}
	if len(params) > 0 {
		descriptor.Params = params
	}
	result, err := t.gw.Query(ctx, descriptor, false)
	if err != nil {
		return nil, err
	}
	return result.Objects, nil
}

// sortedColumns validates body keys as identifiers and returns them in a
// stable order alongside the matching parameter values.
func sortedColumns(data map[string]any) ([]string, []any, error) {
	columns := make([]string, 0, len(data))
	for column := range data {
		if err := validateIdentifier(column); err != nil {
			return nil, nil, err
		}
		columns = append(columns, column)
	}
	sort.Strings(columns)

	params := make([]any, len(columns))
	for i, column := range columns {
		params[i] = data[column]
	}
	return columns, params, nil
}

func validateIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("%w: invalid identifier %q", apperrors.ErrValidation, name)
	}
	return nil
}

// isPrimaryKeyFlag interprets the pk column of table_info metadata, which
// arrives as a number in a few JSON-decoded guises.
func isPrimaryKeyFlag(value any) bool {
	switch v := value.(type) {
	case int:
		return v > 0
	case int64:
		return v > 0
	case float64:
		return v > 0
	case string:
		return v != "" && v != "0"
	default:
		return false
	}
}
