// Package sqlsource reads the corpus from a table in Postgres or SQLite.
package sqlsource

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
	"github.com/kirillkom/hybrid-search/internal/core/ports"
	"github.com/kirillkom/hybrid-search/internal/infrastructure/corpus"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

type Source struct {
	db    *sql.DB
	table string
}

var _ ports.CorpusSource = (*Source)(nil)

// New reads every row of table. The name is validated because it cannot be
// bound as a query parameter.
func New(db *sql.DB, table string) (*Source, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "sql corpus source", fmt.Errorf("invalid table name %q", table))
	}
	return &Source{db: db, table: table}, nil
}

func OpenDB(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (s *Source) Rows(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+s.table)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCorpus, "query corpus", err)
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return nil, domain.WrapError(domain.ErrCorpus, "query corpus", err)
	}
	cols, err := corpus.ResolveColumns(header)
	if err != nil {
		return nil, err
	}

	values := make([]any, len(header))
	ptrs := make([]any, len(header))
	for i := range values {
		ptrs[i] = &values[i]
	}
	var docs []domain.Document
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, domain.WrapError(domain.ErrCorpus, "scan corpus row", err)
		}
		record := make([]string, len(values))
		for i, v := range values {
			record[i] = cellText(v)
		}
		docs = append(docs, cols.Document(record))
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrCorpus, "iterate corpus rows", err)
	}
	return docs, nil
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
