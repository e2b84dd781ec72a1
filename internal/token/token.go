// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package token defines the keypad tokens accepted by the calculator engine.
package token

import "strings"

// Token is a single normalized keypress.
type Token int

const (
	Illegal Token = iota

	// Digit entry
	Digit0
	Digit1
	Digit2
	Digit3
	Digit4
	Digit5
	Digit6
	Digit7
	Digit8
	Digit9
	DoubleZero // 00
	Decimal    // .

	// Binary operators
	Add      // +
	Subtract // -
	Multiply // *
	Divide   // /
	Equals   // =

	// Unary functions
	Percent    // %
	Square     // x²
	SquareRoot // √
	Pi         // π

	// Editing
	ClearAll   // AC
	DeleteLast // DEL
)

// Special runes accepted in addition to the ASCII keypad.
const (
	RunePi       = 'π' // U+03C0
	RuneRoot     = '√' // U+221A
	RuneSquare   = '²' // U+00B2
	RuneTimes    = '×' // U+00D7
	RuneDivide   = '÷' // U+00F7
	RuneTimesAlt = 'x'
)

var labels = [...]string{
	Illegal:    "ILLEGAL",
	Digit0:     "0",
	Digit1:     "1",
	Digit2:     "2",
	Digit3:     "3",
	Digit4:     "4",
	Digit5:     "5",
	Digit6:     "6",
	Digit7:     "7",
	Digit8:     "8",
	Digit9:     "9",
	DoubleZero: "00",
	Decimal:    ".",
	Add:        "+",
	Subtract:   "-",
	Multiply:   "*",
	Divide:     "/",
	Equals:     "=",
	Percent:    "%",
	Square:     "SQUARE",
	SquareRoot: "SQRT",
	Pi:         "PI",
	ClearAll:   "AC",
	DeleteLast: "DEL",
}

// keyNames maps upper-cased keypad values and keyboard key names to tokens.
var keyNames = map[string]Token{
	"ENTER":     Equals,
	"ESCAPE":    ClearAll,
	"ESC":       ClearAll,
	"BACKSPACE": DeleteLast,
	"BS":        DeleteLast,
	"CLEAR":     ClearAll,
	"C":         ClearAll,
	"SQ":        Square,
	"ROOT":      SquareRoot,
}

func init() {
	for t := Digit0; t <= DeleteLast; t++ {
		keyNames[labels[t]] = t
	}
}

// String returns the keypad label of the token.
func (t Token) String() string {
	if t < 0 || int(t) >= len(labels) {
		return "ILLEGAL"
	}
	return labels[t]
}

// Lookup returns the token for a keypad value or keyboard key name.
// Matching is case-insensitive.
func Lookup(name string) (Token, bool) {
	t, ok := keyNames[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return Illegal, false
	}
	return t, true
}

// FromRune returns the token for a single typed character, or Illegal.
func FromRune(r rune) Token {
	if r >= '0' && r <= '9' {
		return Digit0 + Token(r-'0')
	}
	switch r {
	case '.', ',':
		return Decimal
	case '+':
		return Add
	case '-':
		return Subtract
	case '*', RuneTimes, RuneTimesAlt:
		return Multiply
	case '/', RuneDivide:
		return Divide
	case '=':
		return Equals
	case '%':
		return Percent
	case RuneSquare:
		return Square
	case RuneRoot:
		return SquareRoot
	case RunePi:
		return Pi
	}
	return Illegal
}

// IsDigit returns true for 0-9 and 00.
func (t Token) IsDigit() bool {
	return t >= Digit0 && t <= DoubleZero
}

// IsBinary returns true for + - * / and =.
func (t Token) IsBinary() bool {
	return t >= Add && t <= Equals
}

// IsUnary returns true for the functions that transform the display in place.
func (t Token) IsUnary() bool {
	return t >= Percent && t <= Pi
}

// IsEditing returns true for AC and DEL.
func (t Token) IsEditing() bool {
	return t == ClearAll || t == DeleteLast
}
