package rowmatch

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/shopspring/decimal"
)

var errExprNotBool = errors.New("expression must evaluate to bool")

var (
	celOnce     sync.Once
	celEnv      *cel.Env
	celEnvErr   error
	celMu       sync.Mutex
	celPrograms = map[string]cel.Program{}
)

func exprEnv() (*cel.Env, error) {
	celOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("value", cel.DynType),
			cel.CrossTypeNumericComparisons(true),
		)
	})

	return celEnv, celEnvErr
}

// program returns the compiled program for expr, compiling it once.
func program(expr string) (cel.Program, error) {
	celMu.Lock()
	defer celMu.Unlock()

	if prg, ok := celPrograms[expr]; ok {
		return prg, nil
	}

	env, err := exprEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL compilation error: %w", issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("CEL program error: %w", err)
	}

	celPrograms[expr] = prg

	return prg, nil
}

// evalExpr evaluates expr with the result value bound to `value`.
func evalExpr(expr string, value any) (bool, error) {
	prg, err := program(expr)
	if err != nil {
		return false, err
	}

	out, _, err := prg.Eval(map[string]any{"value": celValue(value)})
	if err != nil {
		return false, fmt.Errorf("CEL evaluation error: %w", err)
	}

	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: got %T", errExprNotBool, out.Value())
	}

	return b, nil
}

// celValue converts result values into types CEL understands natively.
func celValue(v any) any {
	switch n := v.(type) {
	case decimal.Decimal:
		if n.IsInteger() && n.Abs().LessThan(decimal.NewFromInt(1<<53)) {
			return n.IntPart()
		}

		return n.InexactFloat64()
	case []byte:
		return string(n)
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case uint8:
		return uint64(n)
	case uint16:
		return uint64(n)
	case uint32:
		return uint64(n)
	case uint:
		return uint64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}
