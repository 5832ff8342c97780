// Package testcase runs SQL unit tests described in YAML case files.
//
// A case file names the statement under test, the mock tables that replace
// its inputs and the rows the statement is expected to return:
//
//	sql: ../sql/pivot.sql
//	mocks:
//	  - table: orders
//	    rows:
//	      - {region: North, item: Apple, sale_amount: 100}
//	cases:
//	  - name: pivot sums every region
//	    expected:
//	      - {sales_north: 100}
//
// File level sql, query and mocks are shared by every case. A case mock with
// the same table name as a file mock replaces it.
package testcase

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/shibukawa/ctemock"
	"github.com/shibukawa/ctemock/fixture"
	"github.com/shibukawa/ctemock/mockcte"
	"github.com/shibukawa/ctemock/models"
)

// File is a parsed case file.
type File struct {
	Path  string          `yaml:"-"`
	SQL   string          `yaml:"sql,omitempty"`
	Query string          `yaml:"query,omitempty"`
	Mocks []fixture.Block `yaml:"mocks,omitempty"`
	Cases []*Case         `yaml:"cases"`
}

// Case is a single test case.
type Case struct {
	Name     string           `yaml:"name"`
	SQL      string           `yaml:"sql,omitempty"`
	Query    string           `yaml:"query,omitempty"`
	Mocks    []fixture.Block  `yaml:"mocks,omitempty"`
	Expected []map[string]any `yaml:"expected"`
	Ordered  *bool            `yaml:"ordered,omitempty"`
	Strict   *bool            `yaml:"strict,omitempty"`

	// File is the path of the case file the case was read from.
	File string `yaml:"-"`
	// Dir is the directory relative paths are resolved against.
	Dir string `yaml:"-"`
}

// ParseFile reads and parses a case file.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read case file %s: %w", path, err)
	}

	f, err := Parse(data, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return f, nil
}

// Parse decodes a case file. path locates the file for relative references
// and reports; it is not read.
func Parse(data []byte, path string) (*File, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: case file", ctemock.ErrEmptyContent)
	}

	var f File
	if err := yaml.UnmarshalWithOptions(data, &f, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("failed to parse case file: %w", err)
	}

	f.Path = path
	dir := filepath.Dir(path)

	if len(f.Cases) == 0 {
		return nil, fmt.Errorf("%w: no cases defined", ctemock.ErrTestCaseMissingData)
	}

	seen := make(map[string]bool, len(f.Cases))

	for i, c := range f.Cases {
		if c == nil {
			return nil, fmt.Errorf("%w: case %d is empty", ctemock.ErrTestCaseMissingData, i)
		}

		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			return nil, fmt.Errorf("%w: case %d has no name", ctemock.ErrTestCaseMissingData, i)
		}

		if seen[c.Name] {
			return nil, fmt.Errorf("%w: %s", ctemock.ErrDuplicateTestCase, c.Name)
		}

		seen[c.Name] = true

		if c.SQL == "" && c.Query == "" {
			c.SQL, c.Query = f.SQL, f.Query
		}

		if c.SQL == "" && c.Query == "" {
			return nil, fmt.Errorf("%w: case %q has neither sql nor query", ctemock.ErrTestCaseMissingData, c.Name)
		}

		if c.SQL != "" && c.Query != "" {
			return nil, fmt.Errorf("%w: case %q sets both sql and query", ctemock.ErrInvalidInput, c.Name)
		}

		if c.Expected == nil {
			return nil, fmt.Errorf("%w: case %q has no expected rows", ctemock.ErrTestCaseMissingData, c.Name)
		}

		c.Mocks = mergeMocks(f.Mocks, c.Mocks)
		c.File = path
		c.Dir = dir

		for j, row := range c.Expected {
			for k, v := range row {
				row[k] = fixture.NormalizeValue(v)
			}

			c.Expected[j] = row
		}
	}

	return &f, nil
}

// mergeMocks returns the shared mocks with same-named case mocks replacing
// them, followed by the remaining case mocks.
func mergeMocks(shared, own []fixture.Block) []fixture.Block {
	if len(shared) == 0 {
		return own
	}

	result := make([]fixture.Block, 0, len(shared)+len(own))
	used := make([]bool, len(own))

	for _, s := range shared {
		replaced := false

		for i, o := range own {
			if strings.EqualFold(o.Table, s.Table) {
				result = append(result, o)
				used[i] = true
				replaced = true

				break
			}
		}

		if !replaced {
			result = append(result, s)
		}
	}

	for i, o := range own {
		if !used[i] {
			result = append(result, o)
		}
	}

	return result
}

// ID returns the file-qualified case name used in reports.
func (c *Case) ID() string {
	if c.File == "" {
		return c.Name
	}

	return filepath.Base(c.File) + ": " + c.Name
}

// Statement returns the SQL under test.
func (c *Case) Statement() (string, error) {
	if c.Query != "" {
		return c.Query, nil
	}

	path := c.SQL
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.Dir, path)
	}

	return models.LoadSQL(path)
}

// Tables resolves the case mocks.
func (c *Case) Tables() ([]mockcte.Table, error) {
	return fixture.ResolveAll(c.Mocks, c.Dir)
}

// IsOrdered reports whether rows are compared by position.
func (c *Case) IsOrdered(def bool) bool {
	if c.Ordered != nil {
		return *c.Ordered
	}

	return def
}

// IsStrict reports whether an unreferenced mock table fails the case.
func (c *Case) IsStrict(def bool) bool {
	if c.Strict != nil {
		return *c.Strict
	}

	return def
}
