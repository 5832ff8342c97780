package testcase

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/shibukawa/ctemock"
	"github.com/shibukawa/ctemock/testhelper"
	"github.com/stretchr/testify/require"
)

func parseCase(t *testing.T, src string) *Case {
	t.Helper()

	f, err := Parse([]byte(testhelper.TrimIndent(t, src)), filepath.Join("testdata", "inline.case.yaml"))
	require.NoError(t, err)

	return f.Cases[0]
}

func TestExecutorPasses(t *testing.T) {
	db := testhelper.OpenSQLite(t)
	executor := NewExecutor(db, false, true)

	c := parseCase(t, `
		cases:
		  - name: quoted names survive
		    query: select name, count(*) as n from customers group by name
		    mocks:
		      - table: customers
		        rows:
		          - {name: "O'Brien's Cider"}
		    expected:
		      - {name: "O'Brien's Cider", n: 1}
	`)

	execution, err := executor.Execute(t.Context(), c)
	require.NoError(t, err)
	require.Contains(t, execution.SQL, "'O''Brien''s Cider' as name")
	require.Equal(t, 1, execution.Result.Count())
}

func TestExecutorWarnsOnUnreferencedMock(t *testing.T) {
	db := testhelper.OpenSQLite(t)

	var logs bytes.Buffer

	executor := NewExecutor(db, false, true)
	executor.SetLogger(slog.New(slog.NewTextHandler(&logs, nil)))

	c := parseCase(t, `
		cases:
		  - name: extra mock
		    query: select 1 as n
		    mocks:
		      - table: unused
		        rows: [{id: 1}]
		    expected: [{n: 1}]
	`)

	_, err := executor.Execute(t.Context(), c)
	require.NoError(t, err)
	require.Contains(t, logs.String(), "mock table is not referenced by the statement")
	require.Contains(t, logs.String(), "table=unused")
}

func TestExecutorStrictDefault(t *testing.T) {
	db := testhelper.OpenSQLite(t)
	executor := NewExecutor(db, true, true)

	c := parseCase(t, `
		cases:
		  - name: extra mock
		    query: select 1 as n
		    mocks:
		      - table: unused
		        rows: [{id: 1}]
		    expected: [{n: 1}]
	`)

	_, err := executor.Execute(t.Context(), c)
	require.ErrorIs(t, err, ctemock.ErrTableNotReferenced)
	require.Equal(t, FailureKindDefinition, ClassifyFailure(err))
}

func TestExecutorFailures(t *testing.T) {
	db := testhelper.OpenSQLite(t)
	executor := NewExecutor(db, false, true)

	tests := []struct {
		name string
		src  string
		kind FailureKind
		err  error
	}{
		{
			name: "value mismatch",
			src: `
				cases:
				  - name: c
				    query: select 1 as n
				    expected: [{n: 2}]
			`,
			kind: FailureKindAssertion,
			err:  ctemock.ErrFieldValueMismatch,
		},
		{
			name: "row count",
			src: `
				cases:
				  - name: c
				    query: select 1 as n
				    expected: []
			`,
			kind: FailureKindAssertion,
			err:  ctemock.ErrResultRowCountMismatch,
		},
		{
			name: "invalid matcher",
			src: `
				cases:
				  - name: c
				    query: select 1 as n
				    expected: [{n: [between, 1, 2]}]
			`,
			kind: FailureKindDefinition,
		},
		{
			name: "empty mock",
			src: `
				cases:
				  - name: c
				    query: select * from t
				    mocks: [{table: t}]
				    expected: []
			`,
			kind: FailureKindDefinition,
			err:  ctemock.ErrInvalidInput,
		},
		{
			name: "engine error",
			src: `
				cases:
				  - name: c
				    query: select * from missing_table
				    expected: []
			`,
			kind: FailureKindExecution,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executor.Execute(t.Context(), parseCase(t, tt.src))
			require.Error(t, err)
			require.Equal(t, tt.kind, ClassifyFailure(err))

			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestExecutorRollsBack(t *testing.T) {
	db := testhelper.OpenSQLite(t)

	_, err := db.Exec("create table audit (id integer)")
	require.NoError(t, err)

	executor := NewExecutor(db, false, true)

	c := parseCase(t, `
		cases:
		  - name: insert is rolled back
		    query: insert into audit (id) values (1) returning id
		    expected: [{id: 1}]
	`)

	_, err = executor.Execute(t.Context(), c)
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow("select count(*) from audit").Scan(&count))
	require.Equal(t, 0, count)
}
