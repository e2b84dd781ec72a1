// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package engine implements the calculator state machine.
//
// A State is a plain value. Apply consumes one keypad token and returns the
// next State; it never fails; arithmetic errors surface as the "Error" display.
// Binary operators chain left to right without an expression tree: each
// operator press folds the pending operation into the accumulator.
package engine

import (
	"errors"
	"strings"

	"nickandperla.net/keycalc/internal/token"
)

// ErrorDisplay is the display text shown after an arithmetic error.
const ErrorDisplay = "Error"

// Operator is the binary operation waiting for its right-hand operand.
type Operator int

const (
	OpNone Operator = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	// OpEquals is recorded after "=". It evaluates as a pass-through of the
	// right-hand operand.
	OpEquals
)

// String returns the keypad symbol of the operator.
func (o Operator) String() string {
	switch o {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpEquals:
		return "="
	}
	return ""
}

// OperatorFor returns the operator recorded by a binary token.
func OperatorFor(t token.Token) Operator {
	switch t {
	case token.Add:
		return OpAdd
	case token.Subtract:
		return OpSub
	case token.Multiply:
		return OpMul
	case token.Divide:
		return OpDiv
	case token.Equals:
		return OpEquals
	}
	return OpNone
}

// State is the complete calculator state.
type State struct {
	Display         string   `json:"display"`
	Accumulator     *float64 `json:"accumulator"`
	Pending         Operator `json:"pending"`
	AwaitingOperand bool     `json:"awaiting_operand"`
}

// New returns the initial state.
func New() State {
	return State{Display: "0"}
}

// IsError reports whether the display shows the error marker.
func (s State) IsError() bool {
	return s.Display == ErrorDisplay
}

// Apply returns the state that follows s after pressing t.
//
// Tokens outside the keypad leave s unchanged. In the error state every
// other token except AC first resets to the initial state and is then
// applied normally.
func Apply(s State, t token.Token) State {
	if !isKey(t) {
		return s
	}
	if s.IsError() && t != token.ClearAll {
		s = New()
	}

	switch {
	case t.IsDigit():
		return inputDigit(s, t)
	case t == token.Decimal:
		return inputDecimal(s)
	case t.IsBinary():
		return handleOperator(s, OperatorFor(t))
	case t.IsUnary():
		return applyUnary(s, t)
	case t == token.ClearAll:
		return New()
	case t == token.DeleteLast:
		return deleteLast(s)
	}
	return s
}

func isKey(t token.Token) bool {
	return t.IsDigit() || t == token.Decimal || t.IsBinary() || t.IsUnary() || t.IsEditing()
}

// errorState is shown after a failed binary operation.
func errorState() State {
	return State{Display: ErrorDisplay, AwaitingOperand: true}
}

func inputDigit(s State, t token.Token) State {
	digits := t.String()
	if s.AwaitingOperand {
		s.AwaitingOperand = false
		s.Display = digits
		return s
	}
	switch {
	case s.Display == "0" && t == token.DoubleZero:
	case s.Display == "0":
		s.Display = digits
	default:
		s.Display += digits
	}
	return s
}

func inputDecimal(s State) State {
	if !strings.Contains(s.Display, ".") {
		s.Display += "."
	}
	return s
}

func handleOperator(s State, next Operator) State {
	value, err := parseDisplay(s.Display)
	switch {
	case errors.Is(err, ErrOverflow):
		return errorState()
	case err != nil:
		return New()
	}

	switch {
	case s.Pending != OpNone && s.AwaitingOperand:
		// Revise the operator before any operand was entered.
		s.Pending = next
		return s
	case s.Accumulator == nil:
		s.Accumulator = &value
	default:
		result, err := Evaluate(*s.Accumulator, value, s.Pending)
		if err != nil {
			return errorState()
		}
		result = Round(result)
		s.Display = FormatNumber(result)
		s.Accumulator = &result
	}

	s.AwaitingOperand = true
	s.Pending = next
	return s
}

func applyUnary(s State, t token.Token) State {
	if t == token.Pi {
		s.Display = PiDisplay
		s.AwaitingOperand = true
		return s
	}

	value, err := parseDisplay(s.Display)
	switch {
	case errors.Is(err, ErrOverflow):
		s.Display = ErrorDisplay
		s.AwaitingOperand = true
		return s
	case err != nil:
		return New()
	}

	switch t {
	case token.Percent:
		if value == 0 {
			return s
		}
		s.Display = displayResult(Percentage(value))
	case token.Square:
		s.Display = displayResult(SquareOf(value))
	case token.SquareRoot:
		s.Display = displayResult(SquareRoot(value))
	}
	s.AwaitingOperand = true
	return s
}

func displayResult(v float64, err error) string {
	if err != nil {
		return ErrorDisplay
	}
	return FormatNumber(v)
}

func deleteLast(s State) State {
	if s.IsError() || s.AwaitingOperand {
		return s
	}
	if len(s.Display) > 1 {
		s.Display = s.Display[:len(s.Display)-1]
	} else {
		s.Display = "0"
	}
	return s
}
