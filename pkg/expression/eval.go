package expression

import (
	"github.com/expr-lang/expr"
)

// eval compiles and runs an expr-lang expression against the node outputs
// and builtin helpers.
func (e *Env) eval(exprStr string) (any, error) {
	env := make(map[string]any, len(e.data)+len(e.funcs))
	for k, v := range e.data {
		env[k] = v
	}
	for k, v := range e.funcs {
		env[k] = v
	}

	program, err := expr.Compile(exprStr, expr.Env(env), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}
	return expr.Run(program, env)
}
