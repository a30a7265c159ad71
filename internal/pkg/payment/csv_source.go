package payment

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Columns holds the zero based indexes of the payment sheet columns
type Columns struct {
	Email      int
	User       int
	Expiration int
}

// ParseColumns converts column letters into Columns
func ParseColumns(email, user, expiration string) (Columns, error) {
	var cols Columns
	var err error
	if cols.Email, err = ColumnIndex(email); err != nil {
		return cols, fmt.Errorf("email column: %w", err)
	}
	if cols.User, err = ColumnIndex(user); err != nil {
		return cols, fmt.Errorf("user column: %w", err)
	}
	if cols.Expiration, err = ColumnIndex(expiration); err != nil {
		return cols, fmt.Errorf("expiration column: %w", err)
	}
	return cols, nil
}

// CSVSource reads payment rows from a CSV file on disk
type CSVSource struct {
	path string
	cols Columns
}

// NewCSVSource creates a source for the CSV file at path
func NewCSVSource(path string, cols Columns) *CSVSource {
	return &CSVSource{path: path, cols: cols}
}

func (s *CSVSource) Name() string {
	return fmt.Sprintf("file \"%s\"", s.path)
}

func (s *CSVSource) Rows(ctx context.Context) ([]Row, error) {
	_ = ctx
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadCSVRows(f, s.cols)
}

// ReadCSVRows parses CSV payment data, skipping the header line. Rows keep their
// original line number so errors point at the right sheet row.
func ReadCSVRows(r io.Reader, cols Columns) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := reader.FieldPos(0)

		rows = append(rows, Row{
			Identity:   cell(record, cols.User),
			Email:      cell(record, cols.Email),
			Expiration: cell(record, cols.Expiration),
			Line:       line,
		})
	}
	return rows, nil
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
