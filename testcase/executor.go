package testcase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shibukawa/ctemock"
	"github.com/shibukawa/ctemock/mockcte"
	"github.com/shibukawa/ctemock/rowmatch"
	"github.com/shibukawa/ctemock/runner"
)

// Execution is what a case produced before its result was compared.
type Execution struct {
	// SQL is the statement with every mock spliced in.
	SQL    string
	Result *runner.Result
}

// Executor runs cases against a database. Every case runs in its own
// transaction that is always rolled back.
type Executor struct {
	db      *sql.DB
	logger  *slog.Logger
	strict  bool
	ordered bool
}

// NewExecutor creates an executor. strict and ordered are the defaults for
// cases that do not set them.
func NewExecutor(db *sql.DB, strict, ordered bool) *Executor {
	return &Executor{
		db:      db,
		logger:  slog.Default(),
		strict:  strict,
		ordered: ordered,
	}
}

// SetLogger replaces the logger used for warnings.
func (e *Executor) SetLogger(logger *slog.Logger) {
	if logger != nil {
		e.logger = logger
	}
}

// Execute runs a case and compares its result. The returned error is a
// *CaseError.
func (e *Executor) Execute(ctx context.Context, c *Case) (*Execution, error) {
	statement, err := c.Statement()
	if err != nil {
		return nil, definitionFailure(err)
	}

	tables, err := c.Tables()
	if err != nil {
		return nil, definitionFailure(err)
	}

	for _, t := range tables {
		if mockcte.ReferencesTable(statement, t.Name) {
			continue
		}

		if c.IsStrict(e.strict) {
			return nil, definitionFailure(fmt.Errorf("%w: %s", ctemock.ErrTableNotReferenced, t.Name))
		}

		e.logger.Warn("mock table is not referenced by the statement",
			slog.String("case", c.ID()),
			slog.String("table", t.Name))
	}

	mocked, err := mockcte.MockAll(statement, tables...)
	if err != nil {
		return nil, definitionFailure(err)
	}

	execution := &Execution{SQL: mocked}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return execution, executionFailure(fmt.Errorf("failed to begin transaction: %w", err))
	}

	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			e.logger.Debug("rollback failed", slog.String("case", c.ID()), slog.Any("error", rbErr))
		}
	}()

	result, err := runner.Run(ctx, tx, mocked)
	if err != nil {
		return execution, executionFailure(err)
	}

	execution.Result = result

	if err := rowmatch.Compare(c.Expected, result.Maps(), c.IsOrdered(e.ordered)); err != nil {
		if ClassifyFailure(err) == FailureKindDefinition {
			return execution, definitionFailure(err)
		}

		return execution, assertionFailure(err)
	}

	return execution, nil
}
