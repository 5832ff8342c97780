package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shibukawa/ctemock"
	"github.com/shibukawa/ctemock/runner"
	"github.com/shibukawa/ctemock/sqlformat"
)

// RunCmd executes a statement and prints its rows.
type RunCmd struct {
	Source      string        `arg:"" help:"SQL file (.sql or .md) or example model name (pivot, pivot_and_unpivot)"`
	Mock        []string      `short:"m" name:"mock" help:"Fixture file with mock tables (repeatable)" type:"existingfile"`
	Environment string        `name:"env" help:"Database environment name from config"`
	DB          string        `name:"db" help:"Database URL (overrides --env and DATABASE_URL)"`
	Format      string        `name:"format" help:"Output format (table, json, csv, yaml, markdown)"`
	OutputFile  string        `short:"o" name:"output" help:"Output file (defaults to stdout)" type:"path"`
	Timeout     time.Duration `name:"timeout" help:"Query timeout (defaults to query.timeout of the config)"`
}

// Run executes the run command
func (cmd *RunCmd) Run(ctx *Context) error {
	config, err := ctemock.LoadConfig(ctx.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	format := strings.ToLower(cmd.Format)
	if format == "" {
		format = config.Query.DefaultFormat
	}

	if !IsValidOutputFormat(format) {
		return fmt.Errorf("%w: %s", ErrInvalidOutputFormat, cmd.Format)
	}

	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = config.Query.Timeout
	}

	statement, err := loadStatement(cmd.Source)
	if err != nil {
		return fmt.Errorf("failed to load statement: %w", err)
	}

	statement, err = applyMocks(statement, cmd.Mock)
	if err != nil {
		return fmt.Errorf("failed to build mock tables: %w", err)
	}

	if ctx.Verbose {
		fmt.Fprintln(ctx.Stderr, sqlformat.Format(statement))
		fmt.Fprintln(ctx.Stderr)
	}

	runCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := openDatabase(runCtx, ctx, config, cmd.Environment, cmd.DB, timeout)
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := runner.Run(runCtx, db, statement)
	if err != nil {
		return err
	}

	var output io.Writer = ctx.Stdout

	if cmd.OutputFile != "" {
		f, err := os.Create(cmd.OutputFile)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrOutputFileCreation, err)
		}
		defer f.Close()

		output = f
	}

	return NewFormatter(OutputFormat(format)).Format(result, output)
}
