package csvtable

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Reader reads a comma-separated table whose first line is a header row.
// Columns are bound by header name, so their order in the file does not matter.
type Reader struct {
	csv    *csv.Reader
	header []string
	index  map[string]int
}

// Row is a single data row of a table.
type Row struct {
	Line   int
	Fields []string
	index  map[string]int
}

// ErrNoHeader is returned when the source is empty.
var ErrNoHeader = errors.New("missing header row")

// NewReader reads the header row from r and checks that every required column is present.
// Header names are matched case-insensitively after trimming surrounding whitespace.
func NewReader(r io.Reader, required ...string) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // rows are validated by the caller
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		name = normalize(name)
		if name == "" {
			continue
		}
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	if len(index) == 0 {
		return nil, ErrNoHeader
	}

	var missing []string
	for _, col := range required {
		if _, ok := index[normalize(col)]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required column(s): %s", strings.Join(missing, ", "))
	}

	return &Reader{csv: cr, header: header, index: index}, nil
}

// Columns returns the number of columns declared by the header row.
func (r *Reader) Columns() int {
	return len(r.header)
}

// Next returns the next data row. It returns io.EOF when the table is exhausted.
// A row that cannot be decoded is returned as a *csv.ParseError; reading may continue after it.
func (r *Reader) Next() (*Row, error) {
	fields, err := r.csv.Read()
	if err != nil {
		return nil, err
	}
	line, _ := r.csv.FieldPos(0)
	return &Row{Line: line, Fields: fields, index: r.index}, nil
}

// Get returns the trimmed value of the named column, and false if the row is too short to carry it.
func (row *Row) Get(column string) (string, bool) {
	i, ok := row.index[normalize(column)]
	if !ok || i >= len(row.Fields) {
		return "", false
	}
	return strings.TrimSpace(row.Fields[i]), true
}

// IsBlank reports whether the row carries no data at all.
func (row *Row) IsBlank() bool {
	for _, f := range row.Fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// IsParseError reports whether err is a per-row decoding error rather than a read failure.
func IsParseError(err error) bool {
	var pe *csv.ParseError
	return errors.As(err, &pe)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
