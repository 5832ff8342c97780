package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/alecthomas/kong"
	"github.com/beevik/etree"
)

func newTestContext(t *testing.T) (*Context, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	return &Context{
		Config: filepath.Join(t.TempDir(), "ctemock.yaml"),
		Stdout: &stdout,
		Stderr: &stderr,
	}, &stdout, &stderr
}

func TestVersionCmd(t *testing.T) {
	ctx, stdout, _ := newTestContext(t)

	assert.NoError(t, (&VersionCmd{}).Run(ctx))
	assert.Equal(t, "ctemock "+version+"\n", stdout.String())
}

func TestRenderCmd(t *testing.T) {
	t.Run("raw", func(t *testing.T) {
		ctx, stdout, _ := newTestContext(t)

		cmd := &RenderCmd{Source: "pivot", Mock: []string{filepath.Join("testdata", "orders.yaml")}}
		assert.NoError(t, cmd.Run(ctx))

		out := stdout.String()
		assert.True(t, strings.HasPrefix(out, "-- Total sales per region"))
		assert.Contains(t, out, "with orders as (\n    select 'North' as region, 'Apple' as item, 100 as amount union all\n")
		assert.Contains(t, out, "),\n region_totals as (")
		assert.Equal(t, 5, strings.Count(out, "union all"))
	})

	t.Run("pretty", func(t *testing.T) {
		ctx, stdout, _ := newTestContext(t)

		cmd := &RenderCmd{Source: "pivot", Mock: []string{filepath.Join("testdata", "orders.yaml")}, Pretty: true}
		assert.NoError(t, cmd.Run(ctx))

		out := stdout.String()
		assert.True(t, strings.HasPrefix(out, "WITH orders AS (\n    SELECT 'North' AS region"))
		assert.NotContains(t, out, "--")
	})

	t.Run("unknown source", func(t *testing.T) {
		ctx, _, _ := newTestContext(t)

		assert.Error(t, (&RenderCmd{Source: "no_such_model"}).Run(ctx))
	})
}

func TestRunCmdJSON(t *testing.T) {
	ctx, stdout, _ := newTestContext(t)

	cmd := &RunCmd{
		Source: "pivot_and_unpivot",
		Mock:   []string{filepath.Join("testdata", "orders.yaml")},
		DB:     "sqlite::memory:",
		Format: "json",
	}
	assert.NoError(t, cmd.Run(ctx))

	var decoded struct {
		Data  []map[string]any `json:"data"`
		Count int              `json:"count"`
	}

	assert.NoError(t, json.Unmarshal(stdout.Bytes(), &decoded))
	assert.Equal(t, 4, decoded.Count)
	assert.Equal(t, map[string]any{"region": "East", "sale_amount": float64(600)}, decoded.Data[0])
	assert.Equal(t, map[string]any{"region": "West", "sale_amount": float64(800)}, decoded.Data[3])

	// columns keep result order
	assert.True(t, strings.Index(stdout.String(), `"region"`) < strings.Index(stdout.String(), `"sale_amount"`))
}

func TestRunCmdVerboseAndOutputFile(t *testing.T) {
	ctx, stdout, stderr := newTestContext(t)
	ctx.Verbose = true

	output := filepath.Join(t.TempDir(), "result.csv")

	cmd := &RunCmd{
		Source:     "pivot",
		Mock:       []string{filepath.Join("testdata", "orders.yaml")},
		DB:         "sqlite::memory:",
		Format:     "csv",
		OutputFile: output,
	}
	assert.NoError(t, cmd.Run(ctx))
	assert.Equal(t, "", stdout.String())
	assert.Contains(t, stderr.String(), "WITH orders AS (")
	assert.Contains(t, stderr.String(), "Using database driver: sqlite3")

	data, err := os.ReadFile(output)
	assert.NoError(t, err)
	assert.Equal(t, "sales_east,sales_north,sales_south,sales_west\n600,100,200,800\n", string(data))
}

func TestRunCmdErrors(t *testing.T) {
	t.Run("invalid format", func(t *testing.T) {
		ctx, _, _ := newTestContext(t)

		err := (&RunCmd{Source: "pivot", DB: "sqlite::memory:", Format: "xml"}).Run(ctx)
		assert.IsError(t, err, ErrInvalidOutputFormat)
	})

	t.Run("no database", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")

		ctx, _, _ := newTestContext(t)

		err := (&RunCmd{Source: "pivot"}).Run(ctx)
		assert.IsError(t, err, ErrNoDatabasesConfigured)
	})
}

func TestTestCmd(t *testing.T) {
	casesDir := filepath.Join("..", "..", "testcase", "testdata")

	t.Run("passing", func(t *testing.T) {
		ctx, stdout, _ := newTestContext(t)
		report := filepath.Join(t.TempDir(), "junit.xml")

		cmd := &TestCmd{Dir: filepath.Join(casesDir, "passing"), DB: "sqlite::memory:", JUnit: report}
		assert.NoError(t, cmd.Run(ctx))
		assert.Contains(t, stdout.String(), "Tests: 6 total, 6 passed, 0 failed")

		doc := etree.NewDocument()
		assert.NoError(t, doc.ReadFromFile(report))
		assert.Equal(t, "6", doc.SelectElement("testsuites").SelectAttrValue("tests", ""))
	})

	t.Run("failing", func(t *testing.T) {
		ctx, stdout, _ := newTestContext(t)

		cmd := &TestCmd{Dir: filepath.Join(casesDir, "failing"), DB: "sqlite::memory:"}
		assert.IsError(t, cmd.Run(ctx), ErrTestsFailed)
		assert.Contains(t, stdout.String(), "Some tests failed! ❌")
	})

	t.Run("run pattern", func(t *testing.T) {
		ctx, stdout, _ := newTestContext(t)

		cmd := &TestCmd{Dir: filepath.Join(casesDir, "failing"), DB: "sqlite::memory:", RunPattern: "passes"}
		assert.NoError(t, cmd.Run(ctx))
		assert.Contains(t, stdout.String(), "Tests: 1 total, 1 passed, 0 failed")
	})
}

func TestCLIParse(t *testing.T) {
	parser, err := kong.New(&CLI, kong.Name("ctemock"))
	assert.NoError(t, err)

	kctx, err := parser.Parse([]string{"-v", "test", "cases", "--run", "totals", "--parallel", "2", "--strict", "--junit", "out.xml"})
	assert.NoError(t, err)
	assert.Equal(t, "test <dir>", kctx.Command())
	assert.True(t, CLI.Verbose)
	assert.Equal(t, "cases", CLI.Test.Dir)
	assert.Equal(t, "totals", CLI.Test.RunPattern)
	assert.Equal(t, 2, CLI.Test.Parallel)
	assert.True(t, CLI.Test.Strict)
	assert.Equal(t, "out.xml", filepath.Base(CLI.Test.JUnit))
}
