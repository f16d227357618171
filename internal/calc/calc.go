// Package calc implements the arithmetic operations behind the calculator
// tool catalog.
package calc

import (
	"fmt"
	"math"

	"github.com/Knetic/govaluate"
)

// ErrDivisionByZero is returned when any divisor in a division chain is zero
var ErrDivisionByZero = fmt.Errorf("division by zero")

// ErrTooFewNumbers is returned when an operation needs at least two operands
var ErrTooFewNumbers = fmt.Errorf("provide at least two numbers")

// Add sums the numbers
func Add(nums []float64) (float64, error) {
	if len(nums) < 2 {
		return 0, ErrTooFewNumbers
	}
	result := 0.0
	for _, n := range nums {
		result += n
	}
	return result, nil
}

// Subtract subtracts every following number from the first
func Subtract(nums []float64) (float64, error) {
	if len(nums) < 2 {
		return 0, ErrTooFewNumbers
	}
	result := nums[0]
	for _, n := range nums[1:] {
		result -= n
	}
	return result, nil
}

// Multiply multiplies the numbers
func Multiply(nums []float64) (float64, error) {
	if len(nums) < 2 {
		return 0, ErrTooFewNumbers
	}
	result := 1.0
	for _, n := range nums {
		result *= n
	}
	return result, nil
}

// Divide divides the first number by every following one. Each divisor is
// checked before dividing so a zero anywhere in the chain fails cleanly.
func Divide(nums []float64) (float64, error) {
	if len(nums) < 2 {
		return 0, ErrTooFewNumbers
	}
	result := nums[0]
	for _, n := range nums[1:] {
		if n == 0 {
			return 0, ErrDivisionByZero
		}
		result /= n
	}
	return result, nil
}

// exprFunctions are the math helpers available inside expressions
var exprFunctions = map[string]govaluate.ExpressionFunction{
	"sqrt":  unary(math.Sqrt),
	"abs":   unary(math.Abs),
	"floor": unary(math.Floor),
	"ceil":  unary(math.Ceil),
	"log":   unary(math.Log),
	"log2":  unary(math.Log2),
	"log10": unary(math.Log10),
	"exp":   unary(math.Exp),
	"sin":   unary(math.Sin),
	"cos":   unary(math.Cos),
	"tan":   unary(math.Tan),
	"pow": func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("pow expects 2 arguments, got %d", len(args))
		}
		x, err := asFloat(args[0])
		if err != nil {
			return nil, err
		}
		y, err := asFloat(args[1])
		if err != nil {
			return nil, err
		}
		return math.Pow(x, y), nil
	},
}

var exprConstants = map[string]interface{}{
	"pi": math.Pi,
	"e":  math.E,
}

func unary(fn func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
		}
		x, err := asFloat(args[0])
		if err != nil {
			return nil, err
		}
		return fn(x), nil
	}
}

func asFloat(v interface{}) (float64, error) {
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("expected number, got %T", v)
	}
	return f, nil
}

// EvaluateExpression evaluates a math expression such as "5*2+3". Only
// arithmetic operators, the helpers in exprFunctions, and the constants pi
// and e are available.
func EvaluateExpression(expr string) (interface{}, error) {
	parsed, err := govaluate.NewEvaluableExpressionWithFunctions(expr, exprFunctions)
	if err != nil {
		return nil, fmt.Errorf("invalid expression: %w", err)
	}

	result, err := parsed.Evaluate(exprConstants)
	if err != nil {
		return nil, fmt.Errorf("evaluate expression: %w", err)
	}
	return result, nil
}
