package aggregate

import (
	"fmt"
	"strings"
)

// Table is one materialized query result: named columns and untyped cells.
// Column lookup is case-insensitive because Snowflake folds unquoted
// aliases to upper case while rule IDs are lower case.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]interface{}
}

// NewTable builds a table from driver output.
func NewTable(columns []string, rows [][]interface{}) *Table {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[strings.ToLower(c)] = i
	}
	return &Table{columns: columns, index: index, rows: rows}
}

// Len returns the row count.
func (t *Table) Len() int {
	return len(t.rows)
}

// Columns returns the column names as returned by the engine.
func (t *Table) Columns() []string {
	return t.columns
}

// Index returns the position of a column, case-insensitively.
func (t *Table) Index(column string) (int, bool) {
	i, ok := t.index[strings.ToLower(column)]
	return i, ok
}

// Value returns the cell at (row, column), case-insensitively.
func (t *Table) Value(row int, column string) interface{} {
	i, ok := t.Index(column)
	if !ok || row < 0 || row >= len(t.rows) {
		return nil
	}
	return t.rows[row][i]
}

// truthy interprets a flag cell. The synthesized flags are 0/1 integers,
// but drivers surface them as assorted numeric types or strings.
func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case int:
		return t != 0
	case int32:
		return t != 0
	case int64:
		return t != 0
	case float32:
		return t != 0
	case float64:
		return t != 0
	case string:
		return t == "1" || strings.EqualFold(t, "true")
	case []byte:
		return truthy(string(t))
	default:
		return false
	}
}

// cellString renders a cell for entity keys and diagnostic values.
func cellString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
