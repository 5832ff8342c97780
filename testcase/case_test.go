package testcase

import (
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shibukawa/ctemock"
	"github.com/shibukawa/ctemock/testhelper"
)

func TestParseInheritsFileLevelSettings(t *testing.T) {
	src := testhelper.TrimIndent(t, `
		sql: totals.sql
		mocks:
		  - table: orders
		    rows: [{region: North, amount: 1}]
		  - table: regions
		    rows: [{name: North}]
		cases:
		  - name: shared
		    expected: [{total: 1}]
		  - name: own query and mocks
		    query: select * from orders
		    ordered: false
		    strict: true
		    mocks:
		      - table: ORDERS
		        rows: [{region: South, amount: 2}]
		      - table: extra
		        rows: [{id: 1}]
		    expected: [{region: South, amount: 2.0}]
	`)

	f, err := Parse([]byte(src), filepath.Join("cases", "a.case.yaml"))
	assert.NoError(t, err)
	assert.Equal(t, 2, len(f.Cases))

	shared := f.Cases[0]
	assert.Equal(t, "totals.sql", shared.SQL)
	assert.Equal(t, "", shared.Query)
	assert.Equal(t, "cases", shared.Dir)
	assert.Equal(t, "a.case.yaml: shared", shared.ID())
	assert.Equal(t, 2, len(shared.Mocks))
	assert.True(t, shared.IsOrdered(true))
	assert.False(t, shared.IsStrict(false))

	own := f.Cases[1]
	assert.Equal(t, "", own.SQL)
	assert.Equal(t, "select * from orders", own.Query)
	assert.False(t, own.IsOrdered(true))
	assert.True(t, own.IsStrict(false))

	tables := []string{}
	for _, m := range own.Mocks {
		tables = append(tables, m.Table)
	}

	assert.Equal(t, []string{"ORDERS", "regions", "extra"}, tables)

	// integral floats are normalised like fixture values
	assert.Equal(t, any(int64(2)), own.Expected[0]["amount"])
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected error
	}{
		{
			name:     "empty document",
			src:      "  \n",
			expected: ctemock.ErrEmptyContent,
		},
		{
			name:     "no cases",
			src:      "query: select 1\n",
			expected: ctemock.ErrTestCaseMissingData,
		},
		{
			name:     "missing name",
			src:      "query: select 1\ncases:\n  - expected: []\n",
			expected: ctemock.ErrTestCaseMissingData,
		},
		{
			name:     "duplicate name",
			src:      "query: select 1\ncases:\n  - {name: a, expected: []}\n  - {name: a, expected: []}\n",
			expected: ctemock.ErrDuplicateTestCase,
		},
		{
			name:     "no statement",
			src:      "cases:\n  - {name: a, expected: []}\n",
			expected: ctemock.ErrTestCaseMissingData,
		},
		{
			name:     "sql and query",
			src:      "cases:\n  - {name: a, sql: a.sql, query: select 1, expected: []}\n",
			expected: ctemock.ErrInvalidInput,
		},
		{
			name:     "missing expected",
			src:      "query: select 1\ncases:\n  - {name: a}\n",
			expected: ctemock.ErrTestCaseMissingData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "x.case.yaml")
			assert.IsError(t, err, tt.expected)
		})
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("query: select 1\ncases:\n  - {name: a, expect: []}\n"), "x.case.yaml")
	assert.Error(t, err)
}

func TestParseFile(t *testing.T) {
	f, err := ParseFile(filepath.Join("testdata", "passing", "totals.case.yaml"))
	assert.NoError(t, err)
	assert.Equal(t, 4, len(f.Cases))

	statement, err := f.Cases[0].Statement()
	assert.NoError(t, err)
	assert.Contains(t, statement, "group by region")

	tables, err := f.Cases[0].Tables()
	assert.NoError(t, err)
	assert.Equal(t, 1, len(tables))
	assert.Equal(t, 4, len(tables[0].Rows))
	assert.Equal(t, []string{"region", "item", "amount"}, tables[0].Rows[0].Names())

	_, err = ParseFile(filepath.Join("testdata", "invalid", "duplicate.case.yaml"))
	assert.IsError(t, err, ctemock.ErrDuplicateTestCase)
}

func TestStatementFromMarkdown(t *testing.T) {
	f, err := ParseFile(filepath.Join("testdata", "passing", "sub", "report.case.yml"))
	assert.NoError(t, err)

	statement, err := f.Cases[1].Statement()
	assert.NoError(t, err)
	assert.Equal(t, "select region\nfrom orders\nwhere item = 'Pear'", statement)
}
