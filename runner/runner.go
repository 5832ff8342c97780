// Package runner executes SQL text and collects the result rows with their
// column order preserved.
package runner

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shibukawa/ctemock/mockcte"
	"github.com/shopspring/decimal"
)

// Error definitions
var (
	ErrDatabaseConnection = errors.New("database connection failed")
	ErrQueryExecution     = errors.New("query execution failed")
)

// Queryer is implemented by *sql.DB, *sql.Tx and *sql.Conn.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Result represents the result of a query execution
type Result struct {
	SQL      string        `json:"sql"`
	Duration time.Duration `json:"duration"`
	Columns  []string      `json:"columns"`
	Rows     []mockcte.Row `json:"rows"`
}

// Count returns the number of rows.
func (r *Result) Count() int {
	return len(r.Rows)
}

// Maps returns the rows as maps keyed by column name.
func (r *Result) Maps() []map[string]any {
	maps := make([]map[string]any, len(r.Rows))
	for i, row := range r.Rows {
		maps[i] = row.Map()
	}

	return maps
}

// Values returns the rows as value slices in column order.
func (r *Result) Values() [][]any {
	values := make([][]any, len(r.Rows))
	for i, row := range r.Rows {
		values[i] = make([]any, len(row))
		for j, col := range row {
			values[i][j] = col.Value
		}
	}

	return values
}

// Run executes sql on q and reads every row. NUMERIC and DECIMAL columns are
// returned as decimal.Decimal and textual []byte values as string; other values
// keep the type the driver produced.
func Run(ctx context.Context, q Queryer, sql string) (*Result, error) {
	startTime := time.Now()

	rows, err := q.QueryContext(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryExecution, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get column names: %w", err)
	}

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get column types: %w", err)
	}

	typeNames := make([]string, len(columnTypes))
	for i, ct := range columnTypes {
		name := strings.ToUpper(ct.DatabaseTypeName())
		if j := strings.IndexByte(name, '('); j >= 0 {
			name = strings.TrimSpace(name[:j])
		}

		typeNames[i] = name
	}

	result := &Result{
		SQL:     sql,
		Columns: columns,
		Rows:    []mockcte.Row{},
	}

	values := make([]any, len(columns))
	scanArgs := make([]any, len(columns))

	for i := range values {
		scanArgs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(mockcte.Row, len(columns))
		for i, v := range values {
			row[i] = mockcte.Column{Name: columns[i], Value: convertSQLValue(v, typeNames[i])}
		}

		result.Rows = append(result.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	result.Duration = time.Since(startTime)

	return result, nil
}

// Open opens a database and verifies the connection within timeout.
func Open(ctx context.Context, driver, dsn string, timeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseConnection, err)
	}

	if timeout > 0 {
		db.SetConnMaxLifetime(timeout)

		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrDatabaseConnection, err)
	}

	return db, nil
}

// convertSQLValue converts driver values to comparable Go types
func convertSQLValue(v any, typeName string) any {
	if v == nil {
		return nil
	}

	if typeName == "NUMERIC" || typeName == "DECIMAL" {
		if d, ok := toDecimal(v); ok {
			return d
		}
	}

	value, ok := v.([]byte)
	if !ok {
		return v
	}

	str := string(value)

	// JSON documents are decoded so they compare structurally
	if strings.HasPrefix(typeName, "JSON") && len(str) > 0 {
		var jsonValue any
		if err := json.Unmarshal(value, &jsonValue); err == nil {
			return jsonValue
		}
	}

	return str
}

func toDecimal(v any) (decimal.Decimal, bool) {
	var text string

	switch value := v.(type) {
	case string:
		text = value
	case []byte:
		text = string(value)
	case int64:
		return decimal.NewFromInt(value), true
	case float64:
		return decimal.NewFromFloat(value), true
	default:
		return decimal.Decimal{}, false
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, false
	}

	return d, true
}
