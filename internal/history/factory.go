package history

import "strings"

// Open selects a backend from a DSN. postgres:// and postgresql:// DSNs use
// PostgreSQL; anything else is treated as a SQLite file path. An empty DSN
// returns a nil store, which disables history.
func Open(dsn string) (Store, error) {
	switch {
	case dsn == "":
		return nil, nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return NewPostgresStore(dsn)
	default:
		return NewSQLiteStore(dsn)
	}
}
