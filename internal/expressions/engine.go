package expressions

import "context"

// Engine evaluates transform programs against a run's context snapshot.
// Two implementations: GoJQ (JSON reshaping) and Expr (general logic).
type Engine interface {
	Name() string
	Evaluate(ctx context.Context, program string, data map[string]any) (any, error)
}
