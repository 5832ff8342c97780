package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/fatih/color"
	"github.com/shibukawa/ctemock"
	"github.com/shibukawa/ctemock/testcase"
)

// TestCmd represents the test command
type TestCmd struct {
	Dir         string        `arg:"" optional:"" help:"Directory or case file (defaults to cases_dir of the config)"`
	RunPattern  string        `help:"Run only cases whose name starts with the pattern" short:"r" name:"run"`
	Parallel    int           `help:"Number of parallel workers (0 uses the CPU count)"`
	Timeout     time.Duration `help:"Timeout of a single case"`
	Strict      bool          `help:"Fail cases whose mock tables are not referenced"`
	JUnit       string        `name:"junit" help:"Write a JUnit XML report to the file" type:"path"`
	Environment string        `name:"env" help:"Database environment name from config"`
	DB          string        `name:"db" help:"Database URL (overrides --env and DATABASE_URL)"`
}

// Run executes the test command
func (cmd *TestCmd) Run(ctx *Context) error {
	config, err := ctemock.LoadConfig(ctx.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dir := cmd.Dir
	if dir == "" {
		dir = config.CasesDir
	}

	options := cmd.options(config)

	if ctx.Verbose {
		fmt.Fprintf(ctx.Stderr, "Cases: %s\n", dir)
		fmt.Fprintf(ctx.Stderr, "Timeout: %s\n", options.Timeout)
		fmt.Fprintf(ctx.Stderr, "Parallel workers: %d\n", options.Parallel)
		fmt.Fprintf(ctx.Stderr, "Strict: %t\n", options.Strict)

		if options.RunPattern != "" {
			fmt.Fprintf(ctx.Stderr, "Test pattern: %s\n", options.RunPattern)
		}

		fmt.Fprintln(ctx.Stderr)
	}

	testCtx := context.Background()

	db, err := openDatabase(testCtx, ctx, config, cmd.Environment, cmd.DB, config.Query.Timeout)
	if err != nil {
		return err
	}
	defer db.Close()

	r := testcase.NewRunner(db, options)
	r.SetLogger(ctx.Logger())

	summary, err := r.RunDir(testCtx, dir)
	if err != nil {
		return fmt.Errorf("test execution failed: %w", err)
	}

	if !ctx.Quiet || !summary.Success() {
		summary.Print(ctx.Stdout, ctx.Verbose)
	}

	if cmd.JUnit != "" {
		if err := writeJUnit(cmd.JUnit, summary); err != nil {
			return err
		}

		if ctx.Verbose {
			fmt.Fprintln(ctx.Stderr, color.BlueString("JUnit report written to %s", cmd.JUnit))
		}
	}

	if !summary.Success() {
		return fmt.Errorf("%w: %d of %d", ErrTestsFailed, summary.FailedTests, summary.TotalTests)
	}

	return nil
}

func (cmd *TestCmd) options(config *ctemock.Config) *testcase.Options {
	options := &testcase.Options{
		Parallel:   config.Test.Parallel,
		Timeout:    config.Test.Timeout,
		Strict:     config.Test.Strict || cmd.Strict,
		Ordered:    config.Test.Ordered,
		RunPattern: cmd.RunPattern,
	}

	if cmd.Parallel > 0 {
		options.Parallel = cmd.Parallel
	}

	if options.Parallel <= 0 {
		options.Parallel = runtime.NumCPU()
	}

	if cmd.Timeout > 0 {
		options.Timeout = cmd.Timeout
	}

	return options
}

func writeJUnit(path string, summary *testcase.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOutputFileCreation, err)
	}
	defer f.Close()

	return summary.WriteJUnit(f)
}
