// Package condition provides the predicate action: it evaluates a comparison
// against the execution context and returns a bool. A false result ends the
// pipeline without marking the run failed.
package condition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/redglass/conductor/pkg/models"
	"github.com/redglass/conductor/pkg/template"
)

const (
	OperatorEquals      = "equals"
	OperatorNotEquals   = "not_equals"
	OperatorContains    = "contains"
	OperatorExists      = "exists"
	OperatorGreaterThan = "greater_than"
	OperatorLessThan    = "less_than"
)

var (
	// ErrOperatorInvalid is returned for an unsupported operator.
	ErrOperatorInvalid = errors.New("unsupported condition operator")
	// ErrNotComparable is returned when ordering operands are not numeric.
	ErrNotComparable = errors.New("operands are not comparable numbers")
)

type Action struct {
	Value    any
	Operator string
	Compare  any
}

func NewAction(config map[string]any) (*Action, error) {
	operator, _ := config["operator"].(string)

	switch operator {
	case OperatorEquals, OperatorNotEquals, OperatorContains,
		OperatorExists, OperatorGreaterThan, OperatorLessThan:
	default:
		return nil, fmt.Errorf("%w: %q", ErrOperatorInvalid, operator)
	}

	return &Action{
		Value:    config["value"],
		Operator: operator,
		Compare:  config["compare"],
	}, nil
}

func (a *Action) Execute(ctx context.Context, _ models.ExecutionContext, logger *slog.Logger) (any, error) {
	logger = logger.With("module", "condition_action", "operator", a.Operator)

	result, err := a.evaluate()
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Condition evaluated", "result", result)

	return result, nil
}

func (a *Action) evaluate() (bool, error) {
	switch a.Operator {
	case OperatorExists:
		text, isString := a.Value.(string)

		return a.Value != nil && (!isString || text != ""), nil
	case OperatorEquals:
		return template.Stringify(a.Value) == template.Stringify(a.Compare), nil
	case OperatorNotEquals:
		return template.Stringify(a.Value) != template.Stringify(a.Compare), nil
	case OperatorContains:
		return strings.Contains(template.Stringify(a.Value), template.Stringify(a.Compare)), nil
	case OperatorGreaterThan, OperatorLessThan:
		left, err := toNumber(a.Value)
		if err != nil {
			return false, err
		}

		right, err := toNumber(a.Compare)
		if err != nil {
			return false, err
		}

		if a.Operator == OperatorGreaterThan {
			return left > right, nil
		}

		return left < right, nil
	default:
		return false, ErrOperatorInvalid
	}
}

func toNumber(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrNotComparable, v)
		}

		return parsed, nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrNotComparable, value)
	}
}
