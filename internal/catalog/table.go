// Package catalog loads the antibiotic and organism reference catalogs from
// their tab-delimited sources. A catalog is either loaded completely or not at
// all: any malformed row aborts the load.
package catalog

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cgps-group/AMRIE/internal/domain"
)

// Marker is the cell value that makes a boolean column true.
const Marker = "X"

const (
	tab       = "\t"
	byteOrder = "\ufeff"
	maxLine   = 1024 * 1024
)

// dateLayouts are the invariant calendar formats accepted in date columns.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04:05",
}

// table is a fully read tab-delimited source with a column-name index.
type table struct {
	source  string
	columns map[string]int
	width   int
	rows    []row
}

type row struct {
	t      *table
	line   int
	values []string
}

// readTable reads the header and every data row. Rows with a column count that
// differs from the header fail the whole read.
func readTable(source string, r io.Reader, required []string) (*table, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLine)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading %s header: %w", source, err)
		}
		return nil, &domain.CatalogRowError{Source: source, Line: 1, Reason: "missing header row"}
	}

	header := strings.Split(strings.TrimSuffix(strings.TrimPrefix(scanner.Text(), byteOrder), "\r"), tab)
	t := &table{
		source:  source,
		columns: make(map[string]int, len(header)),
		width:   len(header),
	}
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, dup := t.columns[name]; dup {
			return nil, &domain.CatalogRowError{Source: source, Line: 1, Column: name, Reason: "duplicate column"}
		}
		t.columns[name] = i
	}
	for _, name := range required {
		if _, ok := t.columns[name]; !ok {
			return nil, &domain.CatalogRowError{Source: source, Line: 1, Column: name, Reason: "required column missing"}
		}
	}

	line := 1
	for scanner.Scan() {
		line++
		text := strings.TrimSuffix(scanner.Text(), "\r")
		if text == "" {
			continue
		}
		values := strings.Split(text, tab)
		if len(values) != t.width {
			return nil, &domain.CatalogRowError{
				Source: source,
				Line:   line,
				Reason: fmt.Sprintf("expected %d columns, got %d", t.width, len(values)),
			}
		}
		t.rows = append(t.rows, row{t: t, line: line, values: values})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", source, err)
	}

	return t, nil
}

// get returns the raw cell for a column. Columns absent from the header read as
// blank; required columns are checked up front.
func (r row) get(column string) string {
	i, ok := r.t.columns[column]
	if !ok {
		return ""
	}
	return r.values[i]
}

// flag is true exactly when the cell holds the marker token.
func (r row) flag(column string) bool {
	return r.get(column) == Marker
}

// date parses an optional date cell. Blank cells yield the zero time.
func (r row) date(column string) (time.Time, error) {
	v := strings.TrimSpace(r.get(column))
	if v == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, v); err == nil {
			return d, nil
		}
	}
	return time.Time{}, r.errorf(column, "unparseable date %q", v)
}

func (r row) errorf(column, format string, args ...any) error {
	return &domain.CatalogRowError{
		Source: r.t.source,
		Line:   r.line,
		Column: column,
		Reason: fmt.Sprintf(format, args...),
	}
}
