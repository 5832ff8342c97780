package models

import (
	"bytes"
	"context"
	"database/sql"
	"strconv"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shibukawa/ctemock/mockcte"
	"github.com/shibukawa/ctemock/rowmatch"
	"github.com/shibukawa/ctemock/runner"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	_ "modernc.org/sqlite"
)

var (
	pivotExpected = []map[string]any{
		{"sales_east": 600, "sales_north": 100, "sales_south": 200, "sales_west": 800},
	}
	unpivotExpected = []map[string]any{
		{"region": "East", "sale_amount": 600},
		{"region": "North", "sale_amount": 100},
		{"region": "South", "sale_amount": 200},
		{"region": "West", "sale_amount": 800},
	}
)

// orderRows returns six orders where only region and amount matter.
func orderRows() []mockcte.Row {
	def := mockcte.NewRow(
		mockcte.Col("region", "North"),
		mockcte.Col("item", "Apple"),
		mockcte.Col("amount", 100),
	)

	return []mockcte.Row{
		def.With(mockcte.Col("region", "North"), mockcte.Col("amount", 100)),
		def.With(mockcte.Col("region", "South"), mockcte.Col("amount", 200)),
		def.With(mockcte.Col("region", "East"), mockcte.Col("amount", 300)),
		def.With(mockcte.Col("region", "West"), mockcte.Col("amount", 400)),
		def.With(mockcte.Col("region", "East"), mockcte.Col("amount", 300)),
		def.With(mockcte.Col("region", "West"), mockcte.Col("amount", 400)),
	}
}

func runMocked(t *testing.T, db *sql.DB, model string) *runner.Result {
	t.Helper()

	statement, err := SQL(model)
	require.NoError(t, err)

	mocked, err := mockcte.Mock(statement, "orders", orderRows())
	require.NoError(t, err)

	result, err := runner.Run(t.Context(), db, mocked)
	require.NoError(t, err)

	return result
}

// assertModels runs both models against db with the orders table mocked.
func assertModels(t *testing.T, db *sql.DB) {
	t.Helper()

	t.Run("pivot", func(t *testing.T) {
		result := runMocked(t, db, ModelPivot)
		require.Equal(t, []string{"sales_east", "sales_north", "sales_south", "sales_west"}, result.Columns)
		require.NoError(t, rowmatch.Compare(pivotExpected, result.Maps(), true))
	})

	t.Run("pivot and unpivot", func(t *testing.T) {
		result := runMocked(t, db, ModelPivotAndUnpivot)
		require.Equal(t, []string{"region", "sale_amount"}, result.Columns)
		require.NoError(t, rowmatch.Compare(unpivotExpected, result.Maps(), true))
	})
}

// createOrders creates and fills a real orders table.
func createOrders(t *testing.T, db *sql.DB, placeholders func(i int) string) {
	t.Helper()

	_, err := db.Exec(`CREATE TABLE orders (region VARCHAR(20), item VARCHAR(20), amount INTEGER)`)
	require.NoError(t, err)

	insert := "INSERT INTO orders (region, item, amount) VALUES (" + placeholders(1) + ", " + placeholders(2) + ", " + placeholders(3) + ")"
	for _, row := range orderRows() {
		region, _ := row.Get("region")
		item, _ := row.Get("item")
		amount, _ := row.Get("amount")

		_, err := db.Exec(insert, region, item, amount)
		require.NoError(t, err)
	}
}

func questionMarks(int) string { return "?" }

func dollarNumbers(i int) string { return "$" + strconv.Itoa(i) }

func TestPivotSQLite(t *testing.T) {
	for _, driver := range []string{"sqlite3", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			db, err := sql.Open(driver, ":memory:")
			require.NoError(t, err)

			db.SetMaxOpenConns(1)
			defer db.Close()

			assertModels(t, db)
		})
	}
}

func TestPivotRealTableSQLite(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)

	db.SetMaxOpenConns(1)
	defer db.Close()

	createOrders(t, db, questionMarks)

	var verbose bytes.Buffer

	result, err := PivotAndSum(t.Context(), db, &verbose)
	require.NoError(t, err)
	require.NoError(t, rowmatch.Compare(pivotExpected, result.Maps(), true))
	require.Contains(t, verbose.String(), "WITH region_totals AS (")
	require.NotContains(t, verbose.String(), "--")

	result, err = PivotAndUnpivot(t.Context(), db, nil)
	require.NoError(t, err)
	require.NoError(t, rowmatch.Compare(unpivotExpected, result.Maps(), true))
}

func TestPivotPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping PostgreSQL integration test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %v", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("pgx", connStr)
	require.NoError(t, err)

	defer db.Close()

	assertModels(t, db)

	t.Run("real table", func(t *testing.T) {
		createOrders(t, db, dollarNumbers)

		result, err := PivotAndSum(ctx, db, nil)
		require.NoError(t, err)
		require.NoError(t, rowmatch.Compare(pivotExpected, result.Maps(), true))
	})
}

func TestPivotMySQL(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping MySQL integration test in short mode")
	}

	ctx := context.Background()

	mysqlContainer, err := mysql.Run(ctx,
		"mysql:8.4",
		mysql.WithDatabase("testdb"),
		mysql.WithUsername("testuser"),
		mysql.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("port: 3306  MySQL Community Server").
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	defer func() {
		if err := mysqlContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %v", err)
		}
	}()

	connStr, err := mysqlContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := sql.Open("mysql", connStr)
	require.NoError(t, err)

	defer db.Close()

	assertModels(t, db)

	t.Run("real table", func(t *testing.T) {
		createOrders(t, db, questionMarks)

		result, err := PivotAndUnpivot(ctx, db, nil)
		require.NoError(t, err)
		require.NoError(t, rowmatch.Compare(unpivotExpected, result.Maps(), true))
	})
}
