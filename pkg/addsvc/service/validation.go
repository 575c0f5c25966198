package service

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidParameters is returned when either input of a pair does not
// parse to a finite number. It never says which one.
var ErrInvalidParameters = errors.New("invalid number parameters")

// ValidatedPair holds two finite numbers. The only way to build one from
// untrusted input is ParsePair.
type ValidatedPair struct {
	first  float64
	second float64
}

// First returns the first operand.
func (p ValidatedPair) First() float64 { return p.first }

// Second returns the second operand.
func (p ValidatedPair) Second() float64 { return p.second }

// ParsePair converts two raw strings into a ValidatedPair. Each string is
// parsed on its own; if either is empty, non-numeric, NaN, infinite or out of
// float64 range the result is ErrInvalidParameters.
func ParsePair(i, j string) (ValidatedPair, error) {
	a, ok := parseFinite(i)
	if !ok {
		return ValidatedPair{}, ErrInvalidParameters
	}
	b, ok := parseFinite(j)
	if !ok {
		return ValidatedPair{}, ErrInvalidParameters
	}
	return ValidatedPair{first: a, second: b}, nil
}

// parseFinite accepts integers, decimals, a leading sign and exponential
// notation. strconv also understands "inf", "nan" and hex floats; the first
// two are rejected by the finiteness check, hex mantissas by the prefix check.
func parseFinite(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || isHex(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func isHex(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}
