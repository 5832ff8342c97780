package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/shibukawa/ctemock"
	"github.com/shibukawa/ctemock/fixture"
	"github.com/shibukawa/ctemock/mockcte"
	"github.com/shibukawa/ctemock/models"
	"github.com/shibukawa/ctemock/runner"
)

// loadStatement reads the statement named by source: a .sql or .md file, or
// the name of an embedded example model.
func loadStatement(source string) (string, error) {
	if fileExists(source) {
		return models.LoadSQL(source)
	}

	return models.SQL(source)
}

// applyMocks splices the tables of every fixture file into sql.
func applyMocks(sql string, fixtures []string) (string, error) {
	var tables []mockcte.Table

	for _, path := range fixtures {
		loaded, err := fixture.Load(path)
		if err != nil {
			return "", err
		}

		tables = append(tables, loaded...)
	}

	return mockcte.MockAll(sql, tables...)
}

// openDatabase connects to dbURL when given, otherwise to the named
// environment of the configuration.
func openDatabase(ctx context.Context, appCtx *Context, config *ctemock.Config, env, dbURL string, timeout time.Duration) (*sql.DB, error) {
	var (
		driver, dsn string
		err         error
	)

	switch {
	case dbURL != "":
		driver, dsn, err = ctemock.OpenParams(dbURL)
	case len(config.Databases) == 0:
		return nil, fmt.Errorf("%w: set DATABASE_URL, pass --db or add databases to %s", ErrNoDatabasesConfigured, appCtx.Config)
	default:
		var db ctemock.Database

		db, err = config.Environment(env)
		if err != nil {
			return nil, err
		}

		driver, dsn, err = db.OpenParams()
	}

	if err != nil {
		return nil, err
	}

	if appCtx.Verbose {
		fmt.Fprintln(appCtx.Stderr, color.BlueString("Using database driver: %s", driver))
	}

	return runner.Open(ctx, driver, dsn, timeout)
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
