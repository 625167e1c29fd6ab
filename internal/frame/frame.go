// Package frame provides the in-memory table every pipeline stage works on:
// ordered, typed, nullable columns over row-major data. Cell values are
// string, int64, float64, bool, time.Time, or nil for null.
package frame

import (
	"fmt"
	"time"
)

// Type is the logical type of a column.
type Type int

const (
	String Type = iota
	Int
	Float
	Bool
	Timestamp
)

func (t Type) String() string {
	switch t {
	case String:
		return "string"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Timestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// Column is a named, typed column. All cells in the column are either nil or
// the Go type matching Type.
type Column struct {
	Name string
	Type Type
}

// Frame is an ordered collection of columns over row-major data.
type Frame struct {
	Columns []Column
	Rows    [][]any
}

// New returns an empty frame with the given columns.
func New(cols ...Column) *Frame {
	return &Frame{Columns: append([]Column(nil), cols...)}
}

// NumRows returns the row count.
func (f *Frame) NumRows() int { return len(f.Rows) }

// NumCols returns the column count.
func (f *Frame) NumCols() int { return len(f.Columns) }

// ColumnIndex returns the position of the named column, or -1.
func (f *Frame) ColumnIndex(name string) int {
	for i, c := range f.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the named column exists.
func (f *Frame) HasColumn(name string) bool { return f.ColumnIndex(name) >= 0 }

// ColumnNames returns the column names in order.
func (f *Frame) ColumnNames() []string {
	names := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		names[i] = c.Name
	}
	return names
}

// AppendRow adds one row. The value count must match the column count.
func (f *Frame) AppendRow(values ...any) error {
	if len(values) != len(f.Columns) {
		return fmt.Errorf("row has %d values, frame has %d columns", len(values), len(f.Columns))
	}
	f.Rows = append(f.Rows, values)
	return nil
}

// Value returns the cell at (row, named column), or nil when the column does
// not exist.
func (f *Frame) Value(row int, col string) any {
	idx := f.ColumnIndex(col)
	if idx < 0 || row < 0 || row >= len(f.Rows) {
		return nil
	}
	return f.Rows[row][idx]
}

// Set writes the cell at (row, named column). Unknown columns are ignored.
func (f *Frame) Set(row int, col string, v any) {
	idx := f.ColumnIndex(col)
	if idx < 0 || row < 0 || row >= len(f.Rows) {
		return
	}
	f.Rows[row][idx] = v
}

// AddColumn appends a column filled with the given value on every existing
// row.
func (f *Frame) AddColumn(col Column, fill any) {
	f.Columns = append(f.Columns, col)
	for i := range f.Rows {
		f.Rows[i] = append(f.Rows[i], fill)
	}
}

// RenameColumn renames a column in place. Returns false when absent.
func (f *Frame) RenameColumn(from, to string) bool {
	idx := f.ColumnIndex(from)
	if idx < 0 {
		return false
	}
	f.Columns[idx].Name = to
	return true
}

// DropColumn removes the named column and its cells. Returns false when
// absent.
func (f *Frame) DropColumn(name string) bool {
	idx := f.ColumnIndex(name)
	if idx < 0 {
		return false
	}
	f.Columns = append(f.Columns[:idx], f.Columns[idx+1:]...)
	for i, row := range f.Rows {
		f.Rows[i] = append(row[:idx], row[idx+1:]...)
	}
	return true
}

// Select returns a new frame holding only the named columns that exist, in
// the order given. Missing names are silently skipped.
func (f *Frame) Select(names ...string) *Frame {
	var idxs []int
	var cols []Column
	for _, n := range names {
		if idx := f.ColumnIndex(n); idx >= 0 {
			idxs = append(idxs, idx)
			cols = append(cols, f.Columns[idx])
		}
	}
	out := New(cols...)
	for _, row := range f.Rows {
		newRow := make([]any, len(idxs))
		for i, idx := range idxs {
			newRow[i] = row[idx]
		}
		out.Rows = append(out.Rows, newRow)
	}
	return out
}

// Partition splits the rows by predicate: rows where keep returns true land
// in the first frame, the rest in the second. Both share the column set.
func (f *Frame) Partition(keep func(row []any) bool) (kept, dropped *Frame) {
	kept = New(f.Columns...)
	dropped = New(f.Columns...)
	for _, row := range f.Rows {
		if keep(row) {
			kept.Rows = append(kept.Rows, row)
		} else {
			dropped.Rows = append(dropped.Rows, row)
		}
	}
	return kept, dropped
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	out := New(f.Columns...)
	out.Rows = make([][]any, len(f.Rows))
	for i, row := range f.Rows {
		out.Rows[i] = append([]any(nil), row...)
	}
	return out
}

// CellKey renders a cell into a stable string usable as a dedup map key.
func CellKey(v any) string {
	switch val := v.(type) {
	case nil:
		return "\x00"
	case time.Time:
		return fmt.Sprintf("t%d", val.UnixNano())
	case float64:
		return fmt.Sprintf("f%g", val)
	case int64:
		return fmt.Sprintf("i%d", val)
	case bool:
		return fmt.Sprintf("b%t", val)
	case string:
		return "s" + val
	default:
		return fmt.Sprintf("?%v", val)
	}
}

// RowKey renders a whole row into a dedup map key.
func RowKey(row []any) string {
	key := ""
	for _, v := range row {
		key += CellKey(v) + "\x1f"
	}
	return key
}
