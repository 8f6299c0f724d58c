package expression

import "fmt"

// ExpressionError wraps a failure while evaluating the expression inside a
// placeholder.
type ExpressionError struct {
	Expression string
	Err        error
}

func (e *ExpressionError) Error() string {
	return fmt.Sprintf("expression %q: %v", e.Expression, e.Err)
}

func (e *ExpressionError) Unwrap() error { return e.Err }

// EnvReferenceError reports a {{ #env:NAME }} reference to an environment
// variable that is not set.
type EnvReferenceError struct {
	Name string
}

func (e *EnvReferenceError) Error() string {
	return fmt.Sprintf("environment variable %q is not set", e.Name)
}
