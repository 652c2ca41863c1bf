package mathexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"2+2", 4},
		{"2+2*3", 8},
		{"(2+2)*3", 12},
		{"10/4", 2.5},
		{"1.5*2", 3},
		{"-3+5", 2},
		{"-(2+3)", -5},
		{"--4", 4},
		{"2 * ( 3 + 4 )", 14},
		{"  7  ", 7},
		{".5+.5", 1},
		{"100-10*5", 50},
		{"8/2/2", 2},
		{"1-2-3", -4},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Evaluate(tt.expr)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"2+",
		"*3",
		"(2+3",
		"2+3)",
		"2..3",
		"()",
		"2 3",
		"1+a",
	}

	for _, expr := range tests {
		t.Run(expr, func(t *testing.T) {
			_, err := Evaluate(expr)
			assert.Error(t, err)
		})
	}
}

func TestEvaluate_NonFinite(t *testing.T) {
	for _, expr := range []string{"1/0", "0/0", "-1/0"} {
		t.Run(expr, func(t *testing.T) {
			_, err := Evaluate(expr)
			assert.ErrorIs(t, err, ErrNotFinite)
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "8", Format(8))
	assert.Equal(t, "2.5", Format(2.5))
	assert.Equal(t, "-3", Format(-3))
	assert.Equal(t, "0.1", Format(0.1))
}
