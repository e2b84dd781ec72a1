package engine

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Fractional digits kept when a binary result is displayed.
const resultPrecision = 7

// exactDigits is enough fractional digits to print any float64 exactly.
const exactDigits = 1074

var errNotANumber = errors.New("display is not a number")

// PiDisplay is π rounded to 8 fractional digits.
var PiDisplay = strconv.FormatFloat(math.Pi, 'f', 8, 64)

// Round rounds v to 7 fractional digits. Ties are broken away from zero on
// the exact binary value, so 1/256 (0.00390625) rounds to 0.0039063.
// Magnitudes of 1e21 and above are returned unchanged.
func Round(v float64) float64 {
	if v == 0 || math.IsInf(v, 0) || math.IsNaN(v) || math.Abs(v) >= 1e21 {
		return v
	}

	exact := strconv.FormatFloat(math.Abs(v), 'f', exactDigits, 64)
	intPart, frac, _ := strings.Cut(exact, ".")
	digits := []byte(intPart + frac[:resultPrecision])
	if frac[resultPrecision] >= '5' {
		digits = increment(digits)
	}
	point := len(digits) - resultPrecision
	rounded := string(digits[:point]) + "." + string(digits[point:])

	r, err := strconv.ParseFloat(rounded, 64)
	if err != nil {
		return v
	}
	if v < 0 {
		r = -r
	}
	return r
}

// increment adds one to a decimal digit string, growing it on carry out.
func increment(digits []byte) []byte {
	for i := len(digits) - 1; i >= 0; i-- {
		if digits[i] < '9' {
			digits[i]++
			return digits
		}
		digits[i] = '0'
	}
	return append([]byte{'1'}, digits...)
}

// FormatNumber renders v in its shortest round-trip form. Magnitudes in
// [1e-6, 1e21) print as plain decimals, others in exponent form ("1e+21",
// "1.5e-7"). Negative zero prints as "0".
func FormatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	abs := math.Abs(v)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}

	s := strconv.FormatFloat(v, 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	sign := exp[:1]
	digits := strings.TrimLeft(exp[1:], "0")
	if digits == "" {
		digits = "0"
	}
	return mant + "e" + sign + digits
}

// parseDisplay reads the display as a number. Only finite decimal literals
// are accepted. A literal too large for a float64 reports ErrOverflow;
// anything else that is not a number, "Error" included, reports
// errNotANumber.
func parseDisplay(display string) (float64, error) {
	v, err := strconv.ParseFloat(display, 64)
	switch {
	case errors.Is(err, strconv.ErrRange) && math.IsInf(v, 0):
		return 0, ErrOverflow
	case err != nil, math.IsInf(v, 0), math.IsNaN(v):
		return 0, errNotANumber
	}
	return v, nil
}
