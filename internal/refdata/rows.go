package refdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Row is one CSV record addressed by header name. Values are trimmed and
// missing columns read as empty.
type Row struct {
	index  map[string]int
	record []string
}

// ReadRows reads a headed CSV stream and calls load for each record. Header
// names are matched case-insensitively after stripping a UTF-8 BOM. Every
// column in required must be present; an empty stream with no required
// columns yields zero rows. Errors from load carry the file line number.
func ReadRows(r io.Reader, required []string, load func(Row) error) (int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("failed to read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, column := range required {
		if _, ok := index[column]; !ok {
			return 0, fmt.Errorf("missing column %q", column)
		}
	}

	rows := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		rows++
		if err := load(Row{index: index, record: record}); err != nil {
			line, _ := reader.FieldPos(0)
			return rows, fmt.Errorf("line %d: %w", line, err)
		}
	}
}

// Str returns the trimmed value of column.
func (r Row) Str(column string) string {
	i, ok := r.index[column]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

// Float parses column; an empty value is 0.
func (r Row) Float(column string) (float64, error) {
	raw := r.Str(column)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", column, raw, err)
	}
	return v, nil
}

// Int parses column as a number and truncates it.
func (r Row) Int(column string) (int, error) {
	v, err := r.Float(column)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

// Bool accepts 1/0, true/false, yes/no and won/lost; an empty value is false.
func (r Row) Bool(column string) (bool, error) {
	raw := strings.ToLower(r.Str(column))
	switch raw {
	case "", "0", "false", "no", "lost":
		return false, nil
	case "1", "true", "yes", "won":
		return true, nil
	}
	return false, fmt.Errorf("invalid %s %q", column, raw)
}
