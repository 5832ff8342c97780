// Package fixture loads mock table rows from YAML or JSON documents.
//
// A document is a list of table blocks or a single block:
//
//	- table: orders
//	  default: {region: North, item: Apple, amount: 100}
//	  rows:
//	    - {}
//	    - {region: South, amount: 200}
//	  file: more_orders.yaml
//
// Every row is the default row with the row's columns applied, so columns keep
// the order they have in the document. Rows from file follow the inline rows;
// file may be YAML, JSON, CSV or a DBUnit flat XML dataset.
package fixture

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/shibukawa/ctemock"
	"github.com/shibukawa/ctemock/mockcte"
)

// Block is one mock table of a fixture document.
type Block struct {
	Table   string          `yaml:"table"`
	Default yaml.MapSlice   `yaml:"default,omitempty"`
	Rows    []yaml.MapSlice `yaml:"rows,omitempty"`
	File    string          `yaml:"file,omitempty"`
}

// Parse decodes a fixture document.
func Parse(data []byte) ([]Block, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: fixture document", ctemock.ErrEmptyContent)
	}

	var probe any
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}

	if _, ok := probe.([]any); ok {
		var blocks []Block
		if err := yaml.UnmarshalWithOptions(data, &blocks, yaml.Strict()); err != nil {
			return nil, fmt.Errorf("failed to parse fixture: %w", err)
		}

		return blocks, nil
	}

	var block Block
	if err := yaml.UnmarshalWithOptions(data, &block, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}

	return []Block{block}, nil
}

// Load reads a fixture file and resolves its blocks. Relative file references
// are resolved against the directory of path.
func Load(path string) ([]mockcte.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
	}

	blocks, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return ResolveAll(blocks, filepath.Dir(path))
}

// ResolveAll resolves blocks in order.
func ResolveAll(blocks []Block, baseDir string) ([]mockcte.Table, error) {
	tables := make([]mockcte.Table, 0, len(blocks))

	for _, block := range blocks {
		table, err := block.Resolve(baseDir)
		if err != nil {
			return nil, err
		}

		tables = append(tables, table)
	}

	return tables, nil
}

// Resolve turns the block into a mock table, applying the default row and
// loading rows from File.
func (b Block) Resolve(baseDir string) (mockcte.Table, error) {
	if b.Table == "" {
		return mockcte.Table{}, fmt.Errorf("%w: fixture block without table name", mockcte.ErrInvalidInput)
	}

	defaultRow, err := RowFromMapSlice(b.Default)
	if err != nil {
		return mockcte.Table{}, fmt.Errorf("table %s default: %w", b.Table, err)
	}

	rows := make([]mockcte.Row, 0, len(b.Rows))

	for i, item := range b.Rows {
		row, err := RowFromMapSlice(item)
		if err != nil {
			return mockcte.Table{}, fmt.Errorf("table %s row %d: %w", b.Table, i, err)
		}

		rows = append(rows, defaultRow.With(row...))
	}

	if b.File != "" {
		path := b.File
		if !filepath.IsAbs(path) && baseDir != "" {
			path = filepath.Clean(filepath.Join(baseDir, path))
		}

		external, err := LoadTableRows(path, b.Table)
		if err != nil {
			return mockcte.Table{}, fmt.Errorf("table %s: %w", b.Table, err)
		}

		for _, row := range external {
			rows = append(rows, defaultRow.With(row...))
		}
	}

	if len(rows) == 0 {
		return mockcte.Table{}, fmt.Errorf("%w: table %s has no rows", mockcte.ErrInvalidInput, b.Table)
	}

	return mockcte.Table{Name: b.Table, Rows: rows}, nil
}

// LoadRows loads rows from an external YAML/JSON file holding a list of
// mappings.
func LoadRows(path string) ([]mockcte.Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows file: %w", err)
	}

	return ParseRows(data)
}

// ParseRows decodes a list of mappings into rows.
func ParseRows(data []byte) ([]mockcte.Row, error) {
	var items []yaml.MapSlice
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal external rows: %w", err)
	}

	rows := make([]mockcte.Row, 0, len(items))

	for i, item := range items {
		row, err := RowFromMapSlice(item)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// RowFromMapSlice converts an ordered YAML mapping into a row.
func RowFromMapSlice(ms yaml.MapSlice) (mockcte.Row, error) {
	row := make(mockcte.Row, 0, len(ms))

	for _, item := range ms {
		name, ok := item.Key.(string)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: column name must be text, got %v", mockcte.ErrInvalidInput, item.Key)
		}

		row = append(row, mockcte.Column{Name: name, Value: NormalizeValue(item.Value)})
	}

	return row, nil
}

// NormalizeValue maps decoded YAML values onto the types the rest of the
// module expects: integral floats and unsigned integers become int64 when they
// fit, and nested mappings become map[string]any.
func NormalizeValue(v any) any {
	switch val := v.(type) {
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1<<53 {
			return int64(val)
		}

		return val
	case uint64:
		if val <= math.MaxInt64 {
			return int64(val)
		}

		return val
	case int:
		return int64(val)
	case []any:
		res := make([]any, len(val))
		for i, it := range val {
			res[i] = NormalizeValue(it)
		}

		return res
	case yaml.MapSlice:
		res := make(map[string]any, len(val))
		for _, item := range val {
			if ks, ok := item.Key.(string); ok {
				res[ks] = NormalizeValue(item.Value)
			}
		}

		return res
	case map[string]any:
		res := make(map[string]any, len(val))
		for k, vv := range val {
			res[k] = NormalizeValue(vv)
		}

		return res
	default:
		return v
	}
}
