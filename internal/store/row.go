package store

import "database/sql"

// Row is an ordered mapping from column name to value, holding one result
// row. Column names are unique within a row. Rows are built fresh per
// execution; the mutating helpers return modified copies so transforms stay
// pure.
type Row struct {
	cols []string
	vals map[string]any
}

// NewRow returns an empty row.
func NewRow() Row {
	return Row{vals: map[string]any{}}
}

// With returns a copy of the row with col set to v. A new column is appended
// at the end; an existing one keeps its position.
func (r Row) With(col string, v any) Row {
	out := r.clone()
	if _, ok := out.vals[col]; !ok {
		out.cols = append(out.cols, col)
	}
	out.vals[col] = v
	return out
}

// Value reports the value stored under col and whether the column exists.
func (r Row) Value(col string) (any, bool) {
	v, ok := r.vals[col]
	return v, ok
}

// Get returns the value stored under col, or nil when absent.
func (r Row) Get(col string) any {
	return r.vals[col]
}

// Has reports whether the row contains col.
func (r Row) Has(col string) bool {
	_, ok := r.vals[col]
	return ok
}

// Columns returns the column names in order.
func (r Row) Columns() []string {
	out := make([]string, len(r.cols))
	copy(out, r.cols)
	return out
}

// Len returns the number of columns.
func (r Row) Len() int {
	return len(r.cols)
}

// Rename returns a copy of the row with column from renamed to to, keeping
// its position. Renaming onto an existing column replaces that column's
// value and drops the source. A missing source column is a no-op.
func (r Row) Rename(from, to string) Row {
	if from == to {
		return r
	}
	if _, ok := r.vals[from]; !ok {
		return r
	}
	out := Row{vals: make(map[string]any, len(r.vals))}
	_, collision := r.vals[to]
	for _, c := range r.cols {
		switch c {
		case from:
			out.cols = append(out.cols, to)
			out.vals[to] = r.vals[from]
		case to:
			if collision {
				continue // replaced by the renamed column
			}
			out.cols = append(out.cols, c)
			out.vals[c] = r.vals[c]
		default:
			out.cols = append(out.cols, c)
			out.vals[c] = r.vals[c]
		}
	}
	return out
}

// Without returns a copy of the row with col removed.
func (r Row) Without(col string) Row {
	if _, ok := r.vals[col]; !ok {
		return r
	}
	out := Row{vals: make(map[string]any, len(r.vals))}
	for _, c := range r.cols {
		if c == col {
			continue
		}
		out.cols = append(out.cols, c)
		out.vals[c] = r.vals[c]
	}
	return out
}

func (r Row) clone() Row {
	out := Row{
		cols: make([]string, len(r.cols)),
		vals: make(map[string]any, len(r.vals)),
	}
	copy(out.cols, r.cols)
	for k, v := range r.vals {
		out.vals[k] = v
	}
	return out
}

func (r Row) toMap() map[string]any {
	out := make(map[string]any, len(r.vals))
	for k, v := range r.vals {
		out[k] = v
	}
	return out
}

// scanRows drains a result set into rows. A positive limit stops reading
// after that many rows; the remainder of the result set is discarded.
func scanRows(rows *sql.Rows, limit int) ([]Row, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []Row
	for rows.Next() {
		if limit > 0 && len(out) >= limit {
			break
		}
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := Row{
			cols: make([]string, len(cols)),
			vals: make(map[string]any, len(cols)),
		}
		copy(row.cols, cols)
		for i, c := range cols {
			row.vals[c] = vals[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
