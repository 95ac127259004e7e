// ABOUTME: Calculator tool for basic arithmetic
// ABOUTME: Division by zero is a tool error payload, never a fault
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Calculator performs basic arithmetic on two operands.
type Calculator struct{}

type calculatorArgs struct {
	A  float64 `json:"a"`
	B  float64 `json:"b"`
	Op string  `json:"op"`
}

func (Calculator) Name() string { return "calculator" }

func (Calculator) Description() string {
	return "Perform basic arithmetic (add, sub, mul, div) on two numbers."
}

func (Calculator) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{
				"type":        "number",
				"description": "First operand",
			},
			"b": map[string]any{
				"type":        "number",
				"description": "Second operand",
			},
			"op": map[string]any{
				"type":        "string",
				"enum":        []string{"add", "sub", "mul", "div"},
				"description": "Operation to perform",
			},
		},
		"required": []string{"a", "b", "op"},
	}
}

func (Calculator) Invoke(ctx context.Context, args json.RawMessage) (any, error) {
	var parsed calculatorArgs
	if err := json.Unmarshal(args, &parsed); err != nil {
		return nil, fmt.Errorf("invalid calculator arguments: %w", err)
	}

	var result float64
	switch parsed.Op {
	case "add":
		result = parsed.A + parsed.B
	case "sub":
		result = parsed.A - parsed.B
	case "mul":
		result = parsed.A * parsed.B
	case "div":
		if parsed.B == 0 {
			return nil, errors.New("division by zero")
		}
		result = parsed.A / parsed.B
	default:
		return nil, fmt.Errorf("unsupported operation %q", parsed.Op)
	}

	return map[string]any{
		"a":      parsed.A,
		"b":      parsed.B,
		"op":     parsed.Op,
		"result": result,
	}, nil
}
