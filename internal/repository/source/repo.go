// Package source reads tender records from the authoritative relational store.
package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "modernc.org/sqlite"             // registers the "sqlite" driver

	"github.com/mapletenders/tenderindex/internal/domain"
	"github.com/mapletenders/tenderindex/internal/domain/tender"
)

// Supported drivers, as named in configuration.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DefaultTable is the source table holding tender rows.
const DefaultTable = "tenders"

// Repo is a read-only view of the tenders table.
type Repo struct {
	db       *sql.DB
	postgres bool
	table    string
}

// Open connects to the source store. driver is "postgres" or "sqlite".
func Open(driver, dsn string) (*Repo, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: source dsn is required", domain.ErrConfiguration)
	}

	var sqlDriver string
	switch driver {
	case DriverPostgres, "pgx", "":
		driver, sqlDriver = DriverPostgres, "pgx"
	case DriverSQLite:
		sqlDriver = "sqlite"
	default:
		return nil, fmt.Errorf("%w: unknown source driver %q", domain.ErrConfiguration, driver)
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open source: %w: %w", domain.ErrSourceUnavailable, err)
	}
	if driver == DriverSQLite {
		// Every connection to ":memory:" is a separate database.
		db.SetMaxOpenConns(1)
	}

	return NewFromDB(db, driver), nil
}

// NewFromDB wraps an existing connection pool.
func NewFromDB(db *sql.DB, driver string) *Repo {
	return &Repo{db: db, postgres: driver != DriverSQLite, table: DefaultTable}
}

// Close releases the connection pool.
func (r *Repo) Close() error {
	return r.db.Close()
}

// Ping checks connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping source: %w: %w", domain.ErrSourceUnavailable, err)
	}
	return nil
}

// FetchAll returns every tender row ordered by id.
func (r *Repo) FetchAll(ctx context.Context) ([]tender.Record, error) {
	q := fmt.Sprintf("SELECT * FROM %s ORDER BY id", r.table)
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetch all: %w: %w", domain.ErrSourceUnavailable, err)
	}
	defer rows.Close()

	recs, err := r.scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("fetch all: %w: %w", domain.ErrSourceUnavailable, err)
	}
	return recs, nil
}

// FetchOne returns the row with the given id; ok is false when no such row exists.
func (r *Repo) FetchOne(ctx context.Context, id string) (tender.Record, bool, error) {
	q := fmt.Sprintf("SELECT * FROM %s WHERE id = %s", r.table, r.placeholder(1))
	rows, err := r.db.QueryContext(ctx, q, id)
	if err != nil {
		return nil, false, fmt.Errorf("fetch %s: %w: %w", id, domain.ErrSourceUnavailable, err)
	}
	defer rows.Close()

	recs, err := r.scanRecords(rows)
	if err != nil {
		return nil, false, fmt.Errorf("fetch %s: %w: %w", id, domain.ErrSourceUnavailable, err)
	}
	if len(recs) == 0 {
		return nil, false, nil
	}
	return recs[0], true, nil
}

// Count returns the exact number of rows.
func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s", r.table)
	if err := r.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w: %w", domain.ErrSourceUnavailable, err)
	}
	return n, nil
}

func (r *Repo) placeholder(n int) string {
	if r.postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// scanRecords reads rows of unknown shape into records keyed by column name.
func (r *Repo) scanRecords(rows *sql.Rows) ([]tender.Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var recs []tender.Record
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		rec := make(tender.Record, len(cols))
		for i, col := range cols {
			rec[col] = r.normalize(values[i])
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}

// normalize converts driver values into the loose types the mapper understands.
func (r *Repo) normalize(v any) any {
	switch x := v.(type) {
	case []byte:
		return r.normalize(string(x))
	case string:
		if r.postgres {
			if list, ok := parseArrayLiteral(x); ok {
				return list
			}
		}
		return x
	}
	return v
}

// parseArrayLiteral decodes a Postgres text[] literal such as {Ontario,"Nova Scotia"}.
// JSON objects are left alone.
func parseArrayLiteral(s string) ([]any, bool) {
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return nil, false
	}
	body := s[1 : len(s)-1]
	if strings.ContainsAny(body, ":{}") {
		return nil, false
	}
	if body == "" {
		return []any{}, true
	}

	var (
		out     []any
		cur     strings.Builder
		quoted  bool
		escaped bool
	)
	flush := func() {
		item := cur.String()
		cur.Reset()
		if item == "NULL" {
			return
		}
		out = append(out, item)
	}
	for _, c := range body {
		switch {
		case escaped:
			cur.WriteRune(c)
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			quoted = !quoted
		case c == ',' && !quoted:
			flush()
		default:
			cur.WriteRune(c)
		}
	}
	if quoted || escaped {
		return nil, false
	}
	flush()
	return out, true
}
