package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// PageSize is the number of rows fetched per query.
const PageSize = 1000

// PostgresSource reads organizations from a PostgreSQL table.
type PostgresSource struct {
	db    *sql.DB
	table string
}

// OpenPostgres opens a lib/pq connection pool. sql.Open does not connect;
// the first Load does.
func OpenPostgres(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func NewPostgresSource(db *sql.DB, table string) *PostgresSource {
	return &PostgresSource{db: db, table: table}
}

func (s *PostgresSource) Name() string { return "postgres" }

// selectQuery selects every catalogue column as text, NULLs as empty strings.
func selectQuery(table string) string {
	cols := make([]string, len(Columns))
	for i, c := range Columns {
		cols[i] = fmt.Sprintf("COALESCE(%s::text, '')", pq.QuoteIdentifier(c))
	}
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY %s LIMIT $1 OFFSET $2",
		strings.Join(cols, ", "), pq.QuoteIdentifier(table), pq.QuoteIdentifier("id"))
}

// Load implements Source, paging through the table PageSize rows at a time.
func (s *PostgresSource) Load(ctx context.Context) ([]Organization, error) {
	query := selectQuery(s.table)

	var orgs []Organization
	for offset := 0; ; offset += PageSize {
		page, err := s.loadPage(ctx, query, offset)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, page...)
		if len(page) < PageSize {
			break
		}
	}
	if orgs == nil {
		orgs = []Organization{}
	}
	return orgs, nil
}

func (s *PostgresSource) loadPage(ctx context.Context, query string, offset int) ([]Organization, error) {
	rows, err := s.db.QueryContext(ctx, query, PageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("querying organizations at offset %d: %w", offset, err)
	}
	defer rows.Close()

	var page []Organization
	values := make([]string, len(Columns))
	dest := make([]any, len(Columns))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning organization: %w", err)
		}
		var org Organization
		for i, c := range Columns {
			org.Set(c, values[i])
		}
		page = append(page, org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating organizations: %w", err)
	}
	return page, nil
}
