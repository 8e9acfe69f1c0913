package search

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	"github.com/clubfinder/clubfinder/internal/log"
	"github.com/lib/pq"
)

// DefaultImportBatchSize is the number of rows inserted per statement.
const DefaultImportBatchSize = 100

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ImportOptions controls ImportCSV.
type ImportOptions struct {
	BatchSize int
	// Replace deletes every existing row before inserting.
	Replace bool
}

// RowError is a row that could not be inserted on its own.
type RowError struct {
	Name string
	Err  error
}

// ImportResult summarizes an import.
type ImportResult struct {
	Rows     int
	Imported int
	Failed   []RowError
}

// importColumns are the catalogue columns written by an import. The id is
// left to the table default.
var importColumns = Columns[1:]

// ImportCSV loads a CSV catalogue into table. Placeholder cells become NULL
// and rows without a name are skipped. A batch that fails is retried row by
// row so one bad row does not drop its neighbours.
func ImportCSV(ctx context.Context, db Execer, table string, r io.Reader, opts ImportOptions) (ImportResult, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultImportBatchSize
	}

	orgs, err := ReadCSV(ctx, r)
	if err != nil {
		return ImportResult{}, err
	}
	rows := importRows(orgs)
	result := ImportResult{Rows: len(rows)}

	if opts.Replace {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+pq.QuoteIdentifier(table)); err != nil {
			return result, fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for start := 0; start < len(rows); start += opts.BatchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		batch := rows[start:min(start+opts.BatchSize, len(rows))]

		err := insertRows(ctx, db, table, batch)
		if err == nil {
			result.Imported += len(batch)
			log.LogDebugWithFields("import", "Inserted batch", map[string]any{
				"start": start,
				"rows":  len(batch),
			})
			continue
		}
		if len(batch) == 1 {
			result.Failed = append(result.Failed, rowError(batch[0], err))
			continue
		}

		log.LogWarnWithFields("import", "Batch insert failed, retrying row by row", map[string]any{
			"start": start,
			"error": err.Error(),
		})
		for _, row := range batch {
			if err := insertRows(ctx, db, table, [][]any{row}); err != nil {
				result.Failed = append(result.Failed, rowError(row, err))
				continue
			}
			result.Imported++
		}
	}
	return result, nil
}

// importRows turns organizations into insert arguments in importColumns
// order, nil for blank cells.
func importRows(orgs []Organization) [][]any {
	var rows [][]any
	for i := range orgs {
		if blank(orgs[i].Name) {
			continue
		}
		row := make([]any, len(importColumns))
		for j, c := range importColumns {
			if v := orgs[i].Get(c); !blank(v) {
				row[j] = strings.TrimSpace(v)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func insertRows(ctx context.Context, db Execer, table string, rows [][]any) error {
	_, err := db.ExecContext(ctx, insertQuery(table, len(rows)), flatten(rows)...)
	return err
}

func insertQuery(table string, n int) string {
	cols := make([]string, len(importColumns))
	for i, c := range importColumns {
		cols[i] = pq.QuoteIdentifier(c)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", pq.QuoteIdentifier(table), strings.Join(cols, ", "))
	arg := 1
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j := range importColumns {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", arg)
			arg++
		}
		b.WriteByte(')')
	}
	return b.String()
}

func flatten(rows [][]any) []any {
	args := make([]any, 0, len(rows)*len(importColumns))
	for _, row := range rows {
		args = append(args, row...)
	}
	return args
}

func rowError(row []any, err error) RowError {
	name, _ := row[0].(string)
	log.LogWarnWithFields("import", "Row insert failed", map[string]any{
		"name":  name,
		"error": err.Error(),
	})
	return RowError{Name: name, Err: err}
}
