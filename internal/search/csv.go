package search

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// CSVSource reads organizations from a CSV file with a header row.
type CSVSource struct {
	path string
}

func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

func (s *CSVSource) Name() string { return "csv" }

// Load implements Source. The file is re-read on every call.
func (s *CSVSource) Load(ctx context.Context) ([]Organization, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening catalogue: %w", err)
	}
	defer f.Close()

	return ReadCSV(ctx, f)
}

// ReadCSV parses organizations from r. Rows shorter than the header leave
// the missing columns empty.
func ReadCSV(ctx context.Context, r io.Reader) ([]Organization, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []Organization{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var orgs []Organization
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(orgs)+2, err)
		}

		var org Organization
		for i, value := range record {
			if i < len(header) {
				org.Set(header[i], value)
			}
		}
		orgs = append(orgs, org)
	}
	return orgs, nil
}
