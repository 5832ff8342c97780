package mockcte

import "sort"

// Column is a single named cell of a mock row.
type Column struct {
	Name  string
	Value any
}

// Col is shorthand for Column{Name: name, Value: value}.
func Col(name string, value any) Column {
	return Column{Name: name, Value: value}
}

// Row is an ordered list of columns. The order is the column order of the
// rendered select branch.
type Row []Column

// Table is a mock table: a CTE name and its rows.
type Table struct {
	Name string
	Rows []Row
}

// NewRow builds a row from columns.
func NewRow(cols ...Column) Row {
	return Row(cols)
}

// RowFromMap builds a row from a map. Columns are sorted by name since maps
// carry no order.
func RowFromMap(values map[string]any) Row {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}

	sort.Strings(names)

	row := make(Row, 0, len(names))
	for _, name := range names {
		row = append(row, Column{Name: name, Value: values[name]})
	}

	return row
}

// With returns a copy of the row with the given columns applied. Existing
// columns keep their position and take the new value; unknown columns are
// appended. The receiver is never modified.
func (r Row) With(cols ...Column) Row {
	result := make(Row, len(r), len(r)+len(cols))
	copy(result, r)

	for _, col := range cols {
		if i := result.index(col.Name); i >= 0 {
			result[i].Value = col.Value
			continue
		}

		result = append(result, col)
	}

	return result
}

// Get returns the value of the named column.
func (r Row) Get(name string) (any, bool) {
	if i := r.index(name); i >= 0 {
		return r[i].Value, true
	}

	return nil, false
}

// Names returns the column names in order.
func (r Row) Names() []string {
	names := make([]string, len(r))
	for i, col := range r {
		names[i] = col.Name
	}

	return names
}

// Map returns the row as a map keyed by column name.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r))
	for _, col := range r {
		m[col.Name] = col.Value
	}

	return m
}

func (r Row) index(name string) int {
	for i, col := range r {
		if col.Name == name {
			return i
		}
	}

	return -1
}
