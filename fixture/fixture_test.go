package fixture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/goccy/go-yaml"
	"github.com/shibukawa/ctemock"
	"github.com/shibukawa/ctemock/mockcte"
)

func TestLoad(t *testing.T) {
	tables, err := Load(filepath.Join("testdata", "orders.yaml"))
	assert.NoError(t, err)
	assert.Equal(t, 1, len(tables))

	orders := tables[0]
	assert.Equal(t, "orders", orders.Name)
	assert.Equal(t, []mockcte.Row{
		{{Name: "region", Value: "North"}, {Name: "item", Value: "Apple"}, {Name: "amount", Value: int64(100)}},
		{{Name: "region", Value: "South"}, {Name: "item", Value: "Banana"}, {Name: "amount", Value: int64(200)}},
		{{Name: "region", Value: "East"}, {Name: "item", Value: "Apple"}, {Name: "amount", Value: int64(300)}},
		{{Name: "region", Value: "West"}, {Name: "item", Value: "Cherry"}, {Name: "amount", Value: int64(800)}},
	}, orders.Rows)

	sql, err := mockcte.BuildTable(orders)
	assert.NoError(t, err)
	assert.Contains(t, sql, "    select 'East' as region, 'Apple' as item, 300 as amount union all\n")
}

func TestParse_SingleBlock(t *testing.T) {
	blocks, err := Parse([]byte(`
table: users
rows:
  - {id: 1, name: "O'Brien", active: true, deleted_at: null}
`))
	assert.NoError(t, err)
	assert.Equal(t, 1, len(blocks))

	table, err := blocks[0].Resolve("")
	assert.NoError(t, err)
	assert.Equal(t, mockcte.Row{
		{Name: "id", Value: int64(1)},
		{Name: "name", Value: "O'Brien"},
		{Name: "active", Value: true},
		{Name: "deleted_at", Value: nil},
	}, table.Rows[0])
}

func TestParse_ColumnOrderFollowsDocument(t *testing.T) {
	blocks, err := Parse([]byte(`
- table: t
  rows:
    - {zeta: 1, alpha: 2, mid: 3}
`))
	assert.NoError(t, err)

	table, err := blocks[0].Resolve("")
	assert.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, table.Rows[0].Names())
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("  \n"))
	assert.IsError(t, err, ctemock.ErrEmptyContent)

	_, err = Parse([]byte("- table: t\n  unknown: 1\n"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse fixture")

	_, err = Parse([]byte("table: [unclosed\n"))
	assert.Error(t, err)
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name  string
		block Block
	}{
		{"missing table", Block{Rows: []yaml.MapSlice{{{Key: "id", Value: 1}}}}},
		{"no rows", Block{Table: "t"}},
		{"only default", Block{Table: "t", Default: yaml.MapSlice{{Key: "id", Value: 1}}}},
		{"non text column", Block{Table: "t", Rows: []yaml.MapSlice{{{Key: 1, Value: 1}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.block.Resolve("")
			assert.IsError(t, err, mockcte.ErrInvalidInput)
		})
	}

	_, err := Block{Table: "t", File: "missing.yaml"}.Resolve(t.TempDir())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "table t")
}

func TestResolve_AbsoluteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rows.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("- {id: 1}\n- {id: 2}\n"), 0644))

	table, err := Block{Table: "t", File: path}.Resolve("/somewhere/else")
	assert.NoError(t, err)
	assert.Equal(t, 2, len(table.Rows))
}

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected any
	}{
		{"integral float", float64(100), int64(100)},
		{"fractional float", 1.5, 1.5},
		{"unsigned", uint64(42), int64(42)},
		{"huge unsigned", uint64(18446744073709551615), uint64(18446744073709551615)},
		{"int", 7, int64(7)},
		{"list", []any{uint64(1), "a"}, []any{int64(1), "a"}},
		{"ordered map", yaml.MapSlice{{Key: "a", Value: uint64(1)}}, map[string]any{"a": int64(1)}},
		{"string", "x", "x"},
		{"nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeValue(tt.input))
		})
	}
}
