// Package models holds example SQL models over an orders(region, item, amount)
// table and the helpers that run them.
package models

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/shibukawa/ctemock/runner"
	"github.com/shibukawa/ctemock/sqlformat"
)

//go:embed sql/*.sql
var sqlFiles embed.FS

// ErrUnknownModel is returned for a model name without an embedded statement.
var ErrUnknownModel = errors.New("unknown model")

// Embedded model names.
const (
	ModelPivot           = "pivot"
	ModelPivotAndUnpivot = "pivot_and_unpivot"
)

// Names returns the names of the embedded models.
func Names() []string {
	entries, err := fs.ReadDir(sqlFiles, "sql")
	if err != nil {
		return nil
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".sql"))
	}

	sort.Strings(names)

	return names
}

// SQL returns the statement of an embedded model.
func SQL(name string) (string, error) {
	data, err := sqlFiles.ReadFile(path.Join("sql", name+".sql"))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}

	return string(data), nil
}

// Run executes an embedded model. When verbose is non-nil the formatted
// statement is written to it first.
func Run(ctx context.Context, q runner.Queryer, name string, verbose io.Writer) (*runner.Result, error) {
	sql, err := SQL(name)
	if err != nil {
		return nil, err
	}

	if verbose != nil {
		fmt.Fprintln(verbose, sqlformat.Format(sql))
	}

	return runner.Run(ctx, q, sql)
}

// PivotAndSum sums orders by region and returns a single row with one
// sales_<region> column per region.
func PivotAndSum(ctx context.Context, q runner.Queryer, verbose io.Writer) (*runner.Result, error) {
	return Run(ctx, q, ModelPivot, verbose)
}

// PivotAndUnpivot pivots the regional totals and unpivots them back into
// (region, sale_amount) rows ordered by region.
func PivotAndUnpivot(ctx context.Context, q runner.Queryer, verbose io.Writer) (*runner.Result, error) {
	return Run(ctx, q, ModelPivotAndUnpivot, verbose)
}
