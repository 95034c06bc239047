package notestore

import (
	"database/sql"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const sqliteDriverName = "sqlite3_notebox"

func init() {
	// casefold gives SQLite Unicode-aware case-insensitive matching; its built-in
	// lower() and LIKE only fold ASCII.
	sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("casefold", strings.ToLower, true)
		},
	})
}

// dialect isolates the SQL that differs between SQLite and PostgreSQL.
type dialect struct {
	name     string
	driver   string
	schema   string
	fold     string // case-folding SQL function
	contains string // substring test, %s = haystack, %s = needle
	dateOf   string // UTC calendar date of a timestamp column, %s = column
	dateArg  string // calendar date parameter
	greatest string
	numbered bool // $1-style placeholders
}

var sqliteDialect = dialect{
	name:     DriverSQLite,
	driver:   sqliteDriverName,
	schema:   sqliteSchemaSQL,
	fold:     "casefold",
	contains: "instr(%s, %s) > 0",
	dateOf:   "date(%s)",
	dateArg:  "date(?)",
	greatest: "MAX",
}

var postgresDialect = dialect{
	name:     DriverPostgres,
	driver:   "pgx",
	schema:   postgresSchemaSQL,
	fold:     "lower",
	contains: "strpos(%s, %s) > 0",
	dateOf:   "(%s AT TIME ZONE 'UTC')::date",
	dateArg:  "?::date",
	greatest: "GREATEST",
	numbered: true,
}

func dialectFor(driver string) (dialect, bool) {
	switch strings.ToLower(driver) {
	case "", DriverSQLite, "sqlite3":
		return sqliteDialect, true
	case DriverPostgres, "postgresql", "pgx":
		return postgresDialect, true
	}
	return dialect{}, false
}

// rebind rewrites ? placeholders into $n for dialects that number them.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// dsn applies driver-specific connection parameters.
func (d dialect) dsn(raw string) string {
	if d.name != DriverSQLite {
		return raw
	}
	sep := "?"
	if strings.Contains(raw, "?") {
		sep = "&"
	}
	return raw + sep + "_journal_mode=WAL&_busy_timeout=5000&_loc=UTC"
}
