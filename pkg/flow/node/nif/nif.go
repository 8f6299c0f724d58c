// Package nif implements the condition node: a two-value comparison whose
// boolean result is recorded as {"result": <bool>}.
package nif

import (
	"context"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/s6s-labs/s6s-engine/pkg/flow/node"
	"github.com/s6s-labs/s6s-engine/pkg/model/mflow"
)

const (
	OpEquals     = "EQUALS"
	OpNotEquals  = "NOT_EQUALS"
	OpGT         = "GT"
	OpLT         = "LT"
	OpGTE        = "GTE"
	OpLTE        = "LTE"
	OpContains   = "CONTAINS"
	OpIsEmpty    = "IS_EMPTY"
	OpIsNotEmpty = "IS_NOT_EMPTY"
)

type NodeIf struct{}

func New() NodeIf { return NodeIf{} }

func (NodeIf) Kind() mflow.NodeKind { return mflow.NODE_KIND_CONDITION }

func (NodeIf) Execute(_ context.Context, n mflow.Node, req *node.RunRequest) node.RunResult {
	operator, err := node.ConfigString(n, req.Config, "operator")
	if err != nil {
		return node.ErrResult(err)
	}
	valueA := req.Config["valueA"]
	valueB := req.Config["valueB"]

	result, known := Compare(valueA, operator, valueB)
	if !known {
		req.Logger.Warn("unknown comparison operator, treating condition as false",
			"node", n.Name, "operator", operator)
	}
	return node.OkResult(map[string]any{"result": result})
}

// Compare applies the operator with loose coercion: when both operands
// parse as numbers the comparison is numeric, otherwise values are
// compared as strings. The second return is false for an unknown operator.
func Compare(a any, operator string, b any) (bool, bool) {
	switch operator {
	case OpEquals:
		return looseEqual(a, b), true
	case OpNotEquals:
		return !looseEqual(a, b), true
	case OpGT:
		return looseCompare(a, b) > 0, true
	case OpLT:
		return looseCompare(a, b) < 0, true
	case OpGTE:
		return looseCompare(a, b) >= 0, true
	case OpLTE:
		return looseCompare(a, b) <= 0, true
	case OpContains:
		strA, okA := a.(string)
		strB, okB := b.(string)
		return okA && okB && strings.Contains(strA, strB), true
	case OpIsEmpty:
		return isEmpty(a), true
	case OpIsNotEmpty:
		return !isEmpty(a), true
	default:
		return false, false
	}
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	str, ok := v.(string)
	return ok && str == ""
}

func looseEqual(a, b any) bool {
	numA, okA := toFloat(a)
	numB, okB := toFloat(b)
	if okA && okB {
		return numA == numB
	}
	return toString(a) == toString(b)
}

func looseCompare(a, b any) int {
	numA, okA := toFloat(a)
	numB, okB := toFloat(b)
	if okA && okB {
		switch {
		case numA < numB:
			return -1
		case numA > numB:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(toString(a), toString(b))
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		by, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(by)
	}
}
