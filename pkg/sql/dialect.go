package sql

import "strings"

// Dialect names understood by the gateway.
const (
	DialectPostgres  = "postgres"
	DialectMySQL     = "mysql"
	DialectSQLServer = "sqlserver"
	DialectSQLite    = "sqlite"
)

// QuoteIdentifier quotes a table or column name using the dialect's quoting
// convention. Embedded quote characters are doubled.
func QuoteIdentifier(dialect, name string) string {
	switch dialect {
	case DialectMySQL:
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	case DialectSQLServer:
		return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
	default:
		// Postgres and the sqlite family use double quotes.
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
}

// QuoteLiteral renders a string value as a single-quoted SQL literal with
// embedded quotes doubled. Used only for row-level security predicates whose
// values come from configuration or verified token claims, never from request
// parameters.
func QuoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}
