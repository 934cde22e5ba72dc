package widgethost

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Data helper errors.
var (
	// ErrNotArray is returned when a data frame column is not a list.
	ErrNotArray = errors.New("widgethost: all fields must be arrays")

	// ErrLengthMismatch is returned when data frame columns differ in
	// length.
	ErrLengthMismatch = errors.New("widgethost: all fields must be arrays of the same length")
)

// TransposeArray2D turns a list of rows into a list of columns. The
// result has one column per element of the first row; cells missing from
// shorter rows are nil.
func TransposeArray2D(rows [][]any) [][]any {
	if len(rows) == 0 {
		return rows
	}
	out := make([][]any, len(rows[0]))
	for i := range out {
		col := make([]any, len(rows))
		for j, row := range rows {
			if i < len(row) {
				col[j] = row[i]
			}
		}
		out[i] = col
	}
	return out
}

// DataframeToRecords turns a column-oriented data frame (a map of equal
// length lists, as decoded from JSON) into one record per row.
func DataframeToRecords(df map[string]any) ([]map[string]any, error) {
	names := slices.Sorted(maps.Keys(df))
	columns := make([][]any, len(names))
	length := -1
	for i, name := range names {
		col, ok := df[name].([]any)
		if !ok {
			return nil, fmt.Errorf("%w: %q is %T", ErrNotArray, name, df[name])
		}
		if length >= 0 && len(col) != length {
			return nil, fmt.Errorf("%w: %q has %d, want %d", ErrLengthMismatch, name, len(col), length)
		}
		length = len(col)
		columns[i] = col
	}

	records := make([]map[string]any, max(length, 0))
	for row := range records {
		rec := make(map[string]any, len(names))
		for i, name := range names {
			rec[name] = columns[i][row]
		}
		records[row] = rec
	}
	return records, nil
}
