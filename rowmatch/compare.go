// Package rowmatch compares query results with expected rows. Expected values
// are plain values or matchers:
//
//	[null]              value must be NULL
//	[notnull]           value must not be NULL
//	[any]               any value, including NULL
//	[regexp, pattern]   textual value must match pattern
//	[expr, cel]         CEL expression over `value` must evaluate to true
package rowmatch

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shibukawa/ctemock"
)

var (
	errExpectedNull       = errors.New("expected null")
	errExpectedNotNull    = errors.New("expected notnull but got null")
	errRegexpExpectString = errors.New("regexp matcher expects text")
	errRegexpNotMatch     = errors.New("regexp not matched")
	errExprFalse          = errors.New("expression evaluated to false")

	// ErrInvalidMatcher indicates a matcher list that is not one of the known forms.
	ErrInvalidMatcher = errors.New("invalid matcher")
)

// Compare checks actual against expected. Expected rows may list a subset of
// the columns. With ordered set rows are compared by position; otherwise the
// expected rows must pair one to one with actual rows, in any order.
func Compare(expected, actual []map[string]any, ordered bool) error {
	if len(expected) != len(actual) {
		return fmt.Errorf("%w: expected %d got %d", ctemock.ErrResultRowCountMismatch, len(expected), len(actual))
	}

	if ordered {
		for i := range expected {
			if err := CompareRow(expected[i], actual[i]); err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
		}

		return nil
	}

	// candidates[i] lists the actual rows expected row i accepts
	candidates := make([][]int, len(expected))
	firstErrs := make([]error, len(expected))

	for i, exp := range expected {
		for j, act := range actual {
			err := CompareRow(exp, act)
			if err == nil {
				candidates[i] = append(candidates[i], j)
				continue
			}

			if errors.Is(err, ErrInvalidMatcher) {
				return fmt.Errorf("row %d: %w", i, err)
			}

			if firstErrs[i] == nil {
				firstErrs[i] = err
			}
		}
	}

	owner := make([]int, len(actual))
	for j := range owner {
		owner[j] = -1
	}

	for i, exp := range expected {
		if assignRow(i, candidates, owner, make([]bool, len(actual))) {
			continue
		}

		if firstErrs[i] != nil {
			return fmt.Errorf("%w: row %d %s (closest difference: %v)", ctemock.ErrUnmatchedRow, i, formatRow(exp), firstErrs[i])
		}

		return fmt.Errorf("%w: row %d %s", ctemock.ErrUnmatchedRow, i, formatRow(exp))
	}

	return nil
}

// assignRow finds an actual row for expected row i, moving earlier
// assignments to other candidates when needed (augmenting path).
func assignRow(i int, candidates [][]int, owner []int, visited []bool) bool {
	for _, j := range candidates[i] {
		if visited[j] {
			continue
		}

		visited[j] = true

		if owner[j] < 0 || assignRow(owner[j], candidates, owner, visited) {
			owner[j] = i
			return true
		}
	}

	return false
}

// CompareRow checks one row. Columns absent from expected are ignored.
func CompareRow(expected, actual map[string]any) error {
	for _, column := range sortedKeys(expected) {
		vExp := expected[column]

		vAct, ok := actual[column]
		if !ok {
			return fmt.Errorf("%w: %s", ctemock.ErrMissingField, column)
		}

		if matcher, ok := vExp.([]any); ok {
			if err := applyMatcher(column, matcher, vAct); err != nil {
				return err
			}

			continue
		}

		if !ValueEquals(vExp, vAct) {
			return fmt.Errorf("%w: column=%s expected=%v got=%v", ctemock.ErrFieldValueMismatch, column, vExp, vAct)
		}
	}

	return nil
}

func applyMatcher(column string, matcher []any, vAct any) error {
	switch {
	case len(matcher) == 1:
		switch matcher[0] {
		case nil, "null":
			if vAct != nil {
				return fmt.Errorf("%w: %w: column=%s got=%v", ctemock.ErrFieldValueMismatch, errExpectedNull, column, vAct)
			}
		case "notnull":
			if vAct == nil {
				return fmt.Errorf("%w: %w: column=%s", ctemock.ErrFieldValueMismatch, errExpectedNotNull, column)
			}
		case "any":
		default:
			return fmt.Errorf("%w: column=%s matcher=%v", ErrInvalidMatcher, column, matcher[0])
		}

		return nil
	case len(matcher) == 2 && matcher[0] == "regexp":
		pattern, ok := matcher[1].(string)
		if !ok {
			return fmt.Errorf("%w: column=%s regexp pattern must be text", ErrInvalidMatcher, column)
		}

		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("%w: column=%s: %w", ErrInvalidMatcher, column, err)
		}

		s, ok := textOf(vAct)
		if !ok {
			return fmt.Errorf("%w: %w: column=%s gotType=%T", ctemock.ErrFieldValueMismatch, errRegexpExpectString, column, vAct)
		}

		if !re.MatchString(s) {
			return fmt.Errorf("%w: %w: column=%s value=%s pattern=%s", ctemock.ErrFieldValueMismatch, errRegexpNotMatch, column, s, pattern)
		}

		return nil
	case len(matcher) == 2 && matcher[0] == "expr":
		expr, ok := matcher[1].(string)
		if !ok {
			return fmt.Errorf("%w: column=%s expression must be text", ErrInvalidMatcher, column)
		}

		matched, err := evalExpr(expr, vAct)
		if err != nil {
			return fmt.Errorf("%w: column=%s: %w", ErrInvalidMatcher, column, err)
		}

		if !matched {
			return fmt.Errorf("%w: %w: column=%s value=%v expr=%s", ctemock.ErrFieldValueMismatch, errExprFalse, column, vAct, expr)
		}

		return nil
	default:
		return fmt.Errorf("%w: column=%s raw=%v", ErrInvalidMatcher, column, matcher)
	}
}

// ValueEquals compares an expected value with a result value. Numbers compare
// by value across integer, float and decimal types, text compares with []byte,
// booleans match 0 and 1, and timestamps match their textual form.
func ValueEquals(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if sa, ok := textOf(a); ok {
		if sb, ok := textOf(b); ok {
			return sa == sb
		}
	}

	if ba, ok := a.(bool); ok {
		return boolEquals(ba, b)
	}

	if bb, ok := b.(bool); ok {
		return boolEquals(bb, a)
	}

	if isFloat(a) || isFloat(b) {
		fa, okA := toFloat(a)
		fb, okB := toFloat(b)

		if okA && okB {
			return fa == fb || math.Abs(fa-fb) < 1e-9
		}
	}

	if da, ok := toDecimal(a); ok {
		if db, ok := toDecimal(b); ok {
			return da.Equal(db)
		}
	}

	if ta, ok := a.(time.Time); ok {
		return timeEquals(ta, b)
	}

	if tb, ok := b.(time.Time); ok {
		return timeEquals(tb, a)
	}

	return reflect.DeepEqual(a, b)
}

func boolEquals(expected bool, other any) bool {
	if b, ok := other.(bool); ok {
		return expected == b
	}

	d, ok := toDecimal(other)
	if !ok {
		return false
	}

	if expected {
		return d.IntPart() == 1 && d.IsInteger()
	}

	return d.IsZero()
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

func timeEquals(expected time.Time, other any) bool {
	switch v := other.(type) {
	case time.Time:
		return expected.Equal(v)
	case string:
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, v); err == nil {
				return expected.Equal(parsed)
			}
		}
	}

	return false
}

func textOf(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	default:
		return "", false
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

func formatRow(row map[string]any) string {
	parts := make([]string, 0, len(row))
	for _, k := range sortedKeys(row) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, row[k]))
	}

	return "{" + strings.Join(parts, ", ") + "}"
}
