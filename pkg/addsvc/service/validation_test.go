package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePair_Valid(t *testing.T) {
	tests := []struct {
		name   string
		i, j   string
		first  float64
		second float64
	}{
		{name: "integers", i: "5", j: "3", first: 5, second: 3},
		{name: "negative", i: "-2", j: "3", first: -2, second: 3},
		{name: "decimals", i: "2.5", j: "1.5", first: 2.5, second: 1.5},
		{name: "leading dot", i: ".5", j: "5.", first: 0.5, second: 5},
		{name: "explicit plus", i: "+7", j: "0", first: 7, second: 0},
		{name: "exponent", i: "1e3", j: "-2.5E-1", first: 1000, second: -0.25},
		{name: "surrounding spaces", i: " 4 ", j: "\t6", first: 4, second: 6},
		{name: "max safe integer", i: "9007199254740991", j: "0", first: 9007199254740991, second: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pair, err := ParsePair(tt.i, tt.j)
			require.NoError(t, err)
			assert.Equal(t, tt.first, pair.First())
			assert.Equal(t, tt.second, pair.Second())
		})
	}
}

func TestParsePair_Invalid(t *testing.T) {
	tests := []struct {
		name string
		i, j string
	}{
		{name: "first non-numeric", i: "abc", j: "3"},
		{name: "second non-numeric", i: "5", j: "xyz"},
		{name: "both non-numeric", i: "abc", j: "def"},
		{name: "empty first", i: "", j: "3"},
		{name: "blank second", i: "3", j: "   "},
		{name: "NaN", i: "NaN", j: "1"},
		{name: "Infinity", i: "1", j: "Infinity"},
		{name: "negative Infinity", i: "-Infinity", j: "1"},
		{name: "inf shorthand", i: "inf", j: "1"},
		{name: "overflow", i: "1e400", j: "1"},
		{name: "trailing garbage", i: "12px", j: "1"},
		{name: "hex float", i: "0x1p-2", j: "1"},
		{name: "underscores", i: "1_000", j: "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pair, err := ParsePair(tt.i, tt.j)
			assert.Equal(t, ErrInvalidParameters, err)
			assert.Equal(t, ValidatedPair{}, pair)
		})
	}
}

func TestParsePair_ErrorDoesNotNameParameter(t *testing.T) {
	_, errFirst := ParsePair("bad", "1")
	_, errSecond := ParsePair("1", "bad")
	assert.Equal(t, errFirst.Error(), errSecond.Error())
}
