package mockcte

import (
	"fmt"
	"strings"
)

const (
	branchIndent = "    "
	unionAll     = " union all\n"
)

// Build renders rows as a CTE defining tableName:
//
//	with <tableName> as (
//	    select <lit> as <col>, ... union all
//	    select <lit> as <col>, ...
//	)
//
// Each row becomes one select branch in row order, its items in column order.
// Rows need not share a column set; the engine reports a mismatch when the
// statement runs.
func Build(tableName string, rows []Row) (string, error) {
	if strings.TrimSpace(tableName) == "" {
		return "", fmt.Errorf("%w: table name must not be empty", ErrInvalidInput)
	}

	if len(rows) == 0 {
		return "", fmt.Errorf("%w: rows must not be empty", ErrInvalidInput)
	}

	branches := make([]string, 0, len(rows))

	for i, row := range rows {
		branch, err := buildBranch(row)
		if err != nil {
			return "", fmt.Errorf("table %s, row %d: %w", tableName, i, err)
		}

		branches = append(branches, branch)
	}

	var sb strings.Builder

	sb.WriteString("with ")
	sb.WriteString(tableName)
	sb.WriteString(" as (\n")
	sb.WriteString(strings.Join(branches, unionAll))
	sb.WriteString("\n)")

	return sb.String(), nil
}

// BuildTable is Build for a Table value.
func BuildTable(table Table) (string, error) {
	return Build(table.Name, table.Rows)
}

func buildBranch(row Row) (string, error) {
	if len(row) == 0 {
		return "", fmt.Errorf("%w: row has no columns", ErrInvalidInput)
	}

	items := make([]string, 0, len(row))

	for _, col := range row {
		item, err := FormatColumn(col.Name, col.Value)
		if err != nil {
			return "", err
		}

		items = append(items, item)
	}

	return branchIndent + "select " + strings.Join(items, ", "), nil
}
