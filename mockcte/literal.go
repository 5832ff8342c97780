package mockcte

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FormatLiteral renders a Go value as a SQL literal.
//
//   - nil and nil pointers render as null
//   - strings, []byte, uuid.UUID and time.Time render as quoted text with
//     single quotes doubled
//   - integers, decimal.Decimal and json.Number render unquoted
//   - floats render in their shortest form and always carry a decimal point or
//     exponent; NaN and infinities are rejected
//   - bool renders as true or false
//
// Pointers are dereferenced and database/sql/driver.Valuer implementations
// (sql.NullString, decimal.NullDecimal, ...) are formatted through their Value.
func FormatLiteral(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "null", nil
	case string:
		return quote(v), nil
	case []byte:
		return quote(string(v)), nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float64:
		return formatFloat(v, 64)
	case float32:
		return formatFloat(float64(v), 32)
	case decimal.Decimal:
		return v.String(), nil
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return "", fmt.Errorf("%w: json.Number %q", ErrUnsupportedValue, v.String())
		}

		return d.String(), nil
	case uuid.UUID:
		return quote(v.String()), nil
	case time.Time:
		return quote(v.Format(time.RFC3339Nano)), nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "null", nil
		}

		// a Value method with a pointer receiver is lost by dereferencing
		elem := rv.Elem().Interface()
		if _, ok := elem.(driver.Valuer); !ok {
			if valuer, ok := value.(driver.Valuer); ok {
				return formatValuer(valuer)
			}
		}

		return FormatLiteral(elem)
	}

	if valuer, ok := value.(driver.Valuer); ok {
		return formatValuer(valuer)
	}

	// Named types such as `type Region string`.
	switch rv.Kind() {
	case reflect.String:
		return quote(rv.String()), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32:
		return formatFloat(rv.Float(), 32)
	case reflect.Float64:
		return formatFloat(rv.Float(), 64)
	}

	return "", fmt.Errorf("%w: %T", ErrUnsupportedValue, value)
}

// FormatColumn renders one select item: `<literal> as <name>`.
func FormatColumn(name string, value any) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: column name must not be empty", ErrInvalidInput)
	}

	literal, err := FormatLiteral(value)
	if err != nil {
		return "", fmt.Errorf("column %s: %w", name, err)
	}

	return literal + " as " + name, nil
}

func formatValuer(valuer driver.Valuer) (string, error) {
	v, err := valuer.Value()
	if err != nil {
		return "", fmt.Errorf("%w: %T: %v", ErrUnsupportedValue, valuer, err)
	}

	return FormatLiteral(v)
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func formatFloat(f float64, bitSize int) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedValue, f)
	}

	format := byte('f')
	if abs := math.Abs(f); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'g'
	}

	s := strconv.FormatFloat(f, format, -1, bitSize)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}

	return s, nil
}
