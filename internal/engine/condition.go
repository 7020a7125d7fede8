package engine

import (
	"strconv"
	"strings"

	"github.com/flowstack/flowstack/pkg/schema"
)

// comparisonOperators in detection order. The two-character operators come
// first so "a >= b" splits on ">=" rather than the bare ">".
var comparisonOperators = []string{"==", "!=", ">=", "<=", ">", "<"}

// Evaluate renders a raw condition through the template renderer and then
// evaluates the result as a boolean expression.
func Evaluate(raw string, ctx map[string]any) (bool, error) {
	return EvaluateExpression(Render(raw, ctx), ctx)
}

// EvaluateExpression evaluates a boolean condition expression against the
// context. Supported forms, in priority order:
//
//  1. Literal "true" / "false" (case-insensitive).
//  2. A whole-string {{name}} reference: looked up in the context with
//     dot-path nesting; booleans pass through, other values are truthy
//     unless they stringify to "", "0", or "false"; missing is false.
//  3. A comparison (==, !=, >=, <=, >, <): equality compares resolved
//     strings, ordering parses both operands as floats and fails with a
//     non-retryable configuration error when either is not numeric.
//  4. The whole string as a context key holding a boolean, else a literal
//     boolean parse; anything else fails listing the supported formats.
func EvaluateExpression(condition string, ctx map[string]any) (bool, error) {
	condition = strings.TrimSpace(condition)
	if condition == "" {
		return false, schema.NewError(schema.ErrCodeNodeExecution, "condition cannot be empty")
	}

	// Direct boolean literals.
	if strings.EqualFold(condition, "true") {
		return true, nil
	}
	if strings.EqualFold(condition, "false") {
		return false, nil
	}

	// Whole-string {{variable}} reference with truthiness semantics.
	if strings.HasPrefix(condition, "{{") && strings.HasSuffix(condition, "}}") {
		name := strings.TrimSpace(condition[2 : len(condition)-2])
		val := lookupPath(ctx, name)
		if b, ok := val.(bool); ok {
			return b, nil
		}
		if val != nil {
			s := Stringify(val)
			return s != "" && s != "0" && !strings.EqualFold(s, "false"), nil
		}
		return false, nil
	}

	// Comparison operators, longest first.
	for _, op := range comparisonOperators {
		if strings.Contains(condition, op) {
			return evaluateComparison(condition, op, ctx)
		}
	}

	// Fallback: the whole string as a context key, else a boolean literal.
	if val := lookupPath(ctx, condition); val != nil {
		if b, ok := val.(bool); ok {
			return b, nil
		}
	}
	if b, err := strconv.ParseBool(condition); err == nil {
		return b, nil
	}
	return false, schema.NewErrorf(schema.ErrCodeNodeExecution,
		"unable to evaluate condition: %s. Supported formats: boolean values, {{variable}}, or comparisons (==, !=, >, <, >=, <=)",
		condition)
}

func evaluateComparison(condition, op string, ctx map[string]any) (bool, error) {
	parts := strings.SplitN(condition, op, 2)
	if len(parts) != 2 {
		return false, schema.NewErrorf(schema.ErrCodeNodeExecution, "invalid comparison condition: %s", condition)
	}

	left, err := resolveOperand(parts[0], ctx)
	if err != nil {
		return false, err
	}
	right, err := resolveOperand(parts[1], ctx)
	if err != nil {
		return false, err
	}

	switch op {
	case "==":
		return left == right, nil
	case "!=":
		return left != right, nil
	}

	// Ordering operators require numeric operands.
	lf, lerr := strconv.ParseFloat(left, 64)
	rf, rerr := strconv.ParseFloat(right, 64)
	if lerr != nil || rerr != nil {
		return false, schema.NewErrorf(schema.ErrCodeInvalidInput,
			"comparison operator requires numeric values: %s", condition)
	}

	switch op {
	case ">":
		return lf > rf, nil
	case "<":
		return lf < rf, nil
	case ">=":
		return lf >= rf, nil
	case "<=":
		return lf <= rf, nil
	}
	return false, nil
}

// resolveOperand resolves one side of a comparison: quoted literals are
// unquoted, {{variable}} references must resolve (missing is a loud
// configuration error), bare context keys resolve when present, and
// anything else stands as a literal string.
func resolveOperand(expression string, ctx map[string]any) (string, error) {
	expression = strings.TrimSpace(expression)

	if len(expression) >= 2 {
		if (strings.HasPrefix(expression, `"`) && strings.HasSuffix(expression, `"`)) ||
			(strings.HasPrefix(expression, "'") && strings.HasSuffix(expression, "'")) {
			return expression[1 : len(expression)-1], nil
		}
	}

	if strings.HasPrefix(expression, "{{") && strings.HasSuffix(expression, "}}") {
		name := strings.TrimSpace(expression[2 : len(expression)-2])
		val := lookupPath(ctx, name)
		if val == nil {
			return "", schema.NewErrorf(schema.ErrCodeNodeExecution,
				"variable %q not found in context. Available keys: %s", name, strings.Join(sortedKeys(ctx), ", "))
		}
		return Stringify(val), nil
	}

	if val := lookupPath(ctx, expression); val != nil {
		return Stringify(val), nil
	}

	return expression, nil
}

// lookupPath resolves a key from the context, trying the literal key first
// and then a dot-delimited nested path (e.g. "defaults.grossIncome").
// Returns nil when the path does not resolve.
func lookupPath(ctx map[string]any, path string) any {
	if path == "" || ctx == nil {
		return nil
	}
	if val, ok := ctx[path]; ok {
		return val
	}
	if !strings.Contains(path, ".") {
		return nil
	}
	parts := strings.SplitN(path, ".", 2)
	if nested, ok := ctx[parts[0]].(map[string]any); ok {
		return lookupPath(nested, parts[1])
	}
	return nil
}

// sortedKeys returns the context keys sorted, for error listings.
func sortedKeys(m map[string]any) []string {
	if m == nil {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		key := keys[i]
		j := i - 1
		for j >= 0 && keys[j] > key {
			keys[j+1] = keys[j]
			j--
		}
		keys[j+1] = key
	}
	return keys
}
