package calc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/calcbridge/go-mcp-host/pkg/protocol"
	"github.com/calcbridge/go-mcp-host/pkg/server"
)

// CalcInput is the argument shape for the n-ary arithmetic tools
type CalcInput struct {
	Numbers []float64 `json:"numbers" jsonschema:"required,description=Numbers to operate on in order"`
}

// ExpressionInput is the argument shape for evaluate_expression
type ExpressionInput struct {
	Expression string `json:"expression" jsonschema:"required,description=Math expression such as '5*2+3'"`
}

// numericOp is an arithmetic reduction over at least two numbers
type numericOp func(nums []float64) (float64, error)

// Tools returns the calculator tool catalog
func Tools() []*server.Tool {
	calcSchema := protocol.GenerateSchema[CalcInput]()
	exprSchema := protocol.GenerateSchema[ExpressionInput]()

	return []*server.Tool{
		server.NewTool("add", "Add numbers", calcSchema, numericHandler("add", Add)),
		server.NewTool("subtract", "Subtract numbers", calcSchema, numericHandler("subtract", Subtract)),
		server.NewTool("multiply", "Multiply numbers", calcSchema, numericHandler("multiply", Multiply)),
		server.NewTool("divide", "Divide numbers", calcSchema, numericHandler("divide", Divide)),
		server.NewTool("evaluate_expression", "Evaluate a math expression", exprSchema, handleExpression),
	}
}

// numericHandler adapts an arithmetic reduction into a tool handler.
// Domain failures (too few operands, division by zero) come back as error
// results, not handler errors, so the conversation can continue.
func numericHandler(name string, op numericOp) server.ToolHandler {
	return func(ctx context.Context, arguments map[string]interface{}) (*protocol.ToolsCallResult, error) {
		input, err := decodeArguments[CalcInput](arguments)
		if err != nil {
			return nil, err
		}

		result, err := op(input.Numbers)
		if err != nil {
			return protocol.NewErrorResult(err.Error()), nil
		}

		return protocol.NewTextResult(fmt.Sprintf("%s: %v -> %v", name, input.Numbers, result)), nil
	}
}

func handleExpression(ctx context.Context, arguments map[string]interface{}) (*protocol.ToolsCallResult, error) {
	input, err := decodeArguments[ExpressionInput](arguments)
	if err != nil {
		return nil, err
	}

	result, err := EvaluateExpression(input.Expression)
	if err != nil {
		return protocol.NewErrorResult(err.Error()), nil
	}

	return protocol.NewTextResult(fmt.Sprintf("expression: %s -> %v", input.Expression, result)), nil
}

// decodeArguments round-trips the generic argument map into a typed input
func decodeArguments[T any](arguments map[string]interface{}) (T, error) {
	var input T
	raw, err := json.Marshal(arguments)
	if err != nil {
		return input, fmt.Errorf("encode arguments: %w", err)
	}
	if err := json.Unmarshal(raw, &input); err != nil {
		return input, fmt.Errorf("decode arguments: %w", err)
	}
	return input, nil
}
