package engine

import (
	"errors"
	"math"
)

// Arithmetic errors. Apply turns all of them into the "Error" display.
var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrNegativeRoot   = errors.New("square root of negative number")
	ErrOverflow       = errors.New("result out of range")
)

// Evaluate applies op to first and second. Operators without arithmetic
// meaning (OpNone, OpEquals) return second unchanged.
func Evaluate(first, second float64, op Operator) (float64, error) {
	var result float64
	switch op {
	case OpAdd:
		result = first + second
	case OpSub:
		result = first - second
	case OpMul:
		result = first * second
	case OpDiv:
		if second == 0 {
			return 0, ErrDivisionByZero
		}
		result = first / second
	default:
		return second, nil
	}
	return checkFinite(result)
}

// Percentage returns v/100.
func Percentage(v float64) (float64, error) {
	return checkFinite(v / 100)
}

// SquareOf returns v².
func SquareOf(v float64) (float64, error) {
	return checkFinite(v * v)
}

// SquareRoot returns √v, or ErrNegativeRoot when v < 0.
func SquareRoot(v float64) (float64, error) {
	if v < 0 {
		return 0, ErrNegativeRoot
	}
	return checkFinite(math.Sqrt(v))
}

func checkFinite(v float64) (float64, error) {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, ErrOverflow
	}
	return v, nil
}
