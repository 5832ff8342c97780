package mockcte

import (
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shibukawa/ctemock/testhelper"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name     string
		table    string
		rows     []Row
		expected string
	}{
		{
			name:  "two rows",
			table: "orders",
			rows: []Row{
				{Col("region", "North"), Col("item", "Apple"), Col("amount", 100)},
				{Col("region", "South"), Col("item", "Banana"), Col("amount", 200)},
			},
			expected: testhelper.TrimIndent(t, `
				with orders as (
				    select 'North' as region, 'Apple' as item, 100 as amount union all
				    select 'South' as region, 'Banana' as item, 200 as amount
				)`),
		},
		{
			name:  "single row has no union",
			table: "users",
			rows: []Row{
				{Col("id", 1), Col("name", "Alice")},
			},
			expected: "with users as (\n    select 1 as id, 'Alice' as name\n)",
		},
		{
			name:  "null and quotes",
			table: "products",
			rows: []Row{
				{Col("name", "O'Brien's Cider"), Col("discontinued_at", nil)},
			},
			expected: "with products as (\n    select 'O''Brien''s Cider' as name, null as discontinued_at\n)",
		},
		{
			name:  "column order follows each row",
			table: "t",
			rows: []Row{
				{Col("a", 1), Col("b", 2)},
				{Col("b", 3), Col("a", 4)},
			},
			expected: "with t as (\n    select 1 as a, 2 as b union all\n    select 3 as b, 4 as a\n)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual, err := Build(tt.table, tt.rows)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, actual)
		})
	}
}

func TestBuild_BranchCount(t *testing.T) {
	for _, n := range []int{1, 2, 3, 10, 100} {
		rows := make([]Row, n)
		for i := range rows {
			rows[i] = Row{Col("id", i)}
		}

		actual, err := Build("t", rows)
		assert.NoError(t, err)
		assert.Equal(t, n, strings.Count(actual, "    select "))
		assert.Equal(t, n-1, strings.Count(actual, " union all\n"))
		assert.False(t, strings.Contains(strings.ReplaceAll(actual, "union all", ""), "union"))
		assert.True(t, strings.HasSuffix(actual, "\n)"))
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name     string
		table    string
		rows     []Row
		expected error
	}{
		{"nil rows", "orders", nil, ErrInvalidInput},
		{"empty rows", "orders", []Row{}, ErrInvalidInput},
		{"empty table name", "", []Row{{Col("id", 1)}}, ErrInvalidInput},
		{"blank table name", "  ", []Row{{Col("id", 1)}}, ErrInvalidInput},
		{"row without columns", "orders", []Row{{Col("id", 1)}, {}}, ErrInvalidInput},
		{"empty column name", "orders", []Row{{Col("", 1)}}, ErrInvalidInput},
		{"unsupported value", "orders", []Row{{Col("id", struct{}{})}}, ErrUnsupportedValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual, err := Build(tt.table, tt.rows)
			assert.IsError(t, err, tt.expected)
			assert.Equal(t, "", actual)
		})
	}
}

func TestBuild_ErrorNamesRow(t *testing.T) {
	_, err := Build("orders", []Row{{Col("id", 1)}, {Col("id", []int{})}})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "table orders, row 1")
}

func TestBuildTable(t *testing.T) {
	actual, err := BuildTable(Table{Name: "t", Rows: []Row{{Col("x", true)}}})
	assert.NoError(t, err)
	assert.Equal(t, "with t as (\n    select true as x\n)", actual)
}
