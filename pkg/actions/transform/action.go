// Package transform provides data-shaping operations on values already in
// the execution context. It has no external side effects.
package transform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redglass/conductor/pkg/models"
	"github.com/redglass/conductor/pkg/template"
)

const (
	OperationParseJSON = "parse_json"
	OperationToJSON    = "to_json"
	OperationUppercase = "uppercase"
	OperationLowercase = "lowercase"
	OperationTrim      = "trim"
	OperationExtract   = "extract"
)

var (
	// ErrOperationInvalid is returned for an unsupported operation.
	ErrOperationInvalid = errors.New("unsupported transform operation")
	// ErrPathNotFound is returned when an extract path does not resolve.
	ErrPathNotFound = errors.New("extract path not found")
)

type Action struct {
	Operation string
	Input     any
	Path      string
}

func NewAction(config map[string]any) (*Action, error) {
	operation, _ := config["operation"].(string)

	switch operation {
	case OperationParseJSON, OperationToJSON, OperationUppercase,
		OperationLowercase, OperationTrim, OperationExtract:
	default:
		return nil, fmt.Errorf("%w: %q", ErrOperationInvalid, operation)
	}

	path, _ := config["path"].(string)
	if operation == OperationExtract && path == "" {
		return nil, fmt.Errorf("%w: extract requires a 'path'", ErrOperationInvalid)
	}

	return &Action{
		Operation: operation,
		Input:     config["input"],
		Path:      path,
	}, nil
}

func (a *Action) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (any, error) {
	logger = logger.With("module", "transform_action", "operation", a.Operation)
	logger.InfoContext(ctx, "Transforming data")

	input := a.Input
	if input == nil {
		input = executionCtx.Values["lastResult"]
	}

	switch a.Operation {
	case OperationParseJSON:
		text, ok := input.(string)
		if !ok {
			return nil, fmt.Errorf("%w: parse_json needs a string input", ErrOperationInvalid)
		}

		var decoded any
		if err := json.Unmarshal([]byte(text), &decoded); err != nil {
			return nil, fmt.Errorf("failed to parse input as JSON: %w", err)
		}

		return decoded, nil
	case OperationToJSON:
		encoded, err := json.Marshal(input)
		if err != nil {
			return nil, fmt.Errorf("failed to encode input as JSON: %w", err)
		}

		return string(encoded), nil
	case OperationUppercase:
		return strings.ToUpper(template.Stringify(input)), nil
	case OperationLowercase:
		return strings.ToLower(template.Stringify(input)), nil
	case OperationTrim:
		return strings.TrimSpace(template.Stringify(input)), nil
	case OperationExtract:
		return extractPath(input, a.Path)
	default:
		return nil, ErrOperationInvalid
	}
}

// extractPath walks a dotted key path through nested maps.
func extractPath(input any, path string) (any, error) {
	current := input

	for _, key := range strings.Split(path, ".") {
		asMap, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrPathNotFound, path)
		}

		current, ok = asMap[key]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrPathNotFound, path)
		}
	}

	return current, nil
}
