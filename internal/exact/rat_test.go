package exact

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRat(t *testing.T, num, den int64) Rat {
	t.Helper()
	r, err := New(num, den)
	require.NoError(t, err)
	return r
}

func TestNew_Normalizes(t *testing.T) {
	tests := []struct {
		name      string
		num, den  int64
		wantNum   int64
		wantDenom int64
	}{
		{"lowest terms", 6, 8, 3, 4},
		{"sign moves to numerator", 3, -9, -1, 3},
		{"double negative", -4, -2, 2, 1},
		{"zero", 0, -5, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mustRat(t, tt.num, tt.den)
			assert.Equal(t, tt.wantNum, r.Num().Int64())
			assert.Equal(t, tt.wantDenom, r.Denom().Int64())
			assert.Positive(t, r.Denom().Sign())
		})
	}
}

func TestNew_ZeroDenominator(t *testing.T) {
	_, err := New(1, 0)
	assert.ErrorIs(t, err, ErrDivisionByZero)

	_, err = FromBig(big.NewInt(3), big.NewInt(0))
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestCanonicalInstances(t *testing.T) {
	r := mustRat(t, 7, 7)
	assert.Same(t, One.v, r.v)

	z := mustRat(t, 3, 4).Sub(mustRat(t, 6, 8))
	assert.Same(t, Zero.v, z.v)
	assert.True(t, z.IsZero())

	var unset Rat
	assert.True(t, unset.IsZero())
	assert.Equal(t, "0", unset.String())
}

func TestArithmetic(t *testing.T) {
	half := mustRat(t, 1, 2)
	third := mustRat(t, 1, 3)

	assert.Equal(t, "5/6", half.Add(third).String())
	assert.Equal(t, "1/6", half.Sub(third).String())
	assert.Equal(t, "1/6", half.Mul(third).String())
	assert.Equal(t, "-1/2", half.Neg().String())
	assert.Equal(t, "1/2", half.Neg().Abs().String())

	q, err := half.Quo(third)
	require.NoError(t, err)
	assert.Equal(t, "3/2", q.String())

	inv, err := third.Neg().Inv()
	require.NoError(t, err)
	assert.Equal(t, "-3", inv.String())

	_, err = half.Quo(Zero)
	assert.ErrorIs(t, err, ErrDivisionByZero)

	_, err = Zero.Inv()
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestArithmetic_Immutable(t *testing.T) {
	a := mustRat(t, 2, 3)
	b := mustRat(t, 1, 5)
	_ = a.Add(b)
	_ = a.Mul(b)
	assert.Equal(t, "2/3", a.String())
	assert.Equal(t, "1/5", b.String())
}

func TestCmpAndEqual(t *testing.T) {
	a := mustRat(t, 2, 4)
	b := mustRat(t, 1, 2)
	c := mustRat(t, -3, 4)

	assert.True(t, a.Equal(b))
	assert.Equal(t, 0, a.Cmp(b))
	assert.Equal(t, 1, a.Cmp(c))
	assert.Equal(t, -1, c.Cmp(a))
	assert.Equal(t, -1, c.Sign())
}

func TestFloat64_Rounding(t *testing.T) {
	tests := []struct {
		name     string
		num, den int64
		want     float64
	}{
		{"half", 1, 2, 0.5},
		{"third", 1, 3, 1.0 / 3.0},
		{"negative twelfth", -1, 12, -1.0 / 12.0},
		{"four thirds", 4, 3, 4.0 / 3.0},
		{"integer", -5, 2, -2.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mustRat(t, tt.num, tt.den).Float64())
		})
	}
}

func TestFloat64_LargeDenominator(t *testing.T) {
	// (2^80 + 1) / 3^50 exceeds int64 in both parts.
	num := new(big.Int).Lsh(big.NewInt(1), 80)
	num.Add(num, big.NewInt(1))
	den := new(big.Int).Exp(big.NewInt(3), big.NewInt(50), nil)

	r, err := FromBig(num, den)
	require.NoError(t, err)

	want, _ := new(big.Rat).SetFrac(num, den).Float64()
	assert.Equal(t, want, r.Float64())
	assert.False(t, math.IsInf(r.Float64(), 0))
}

func TestFactorial(t *testing.T) {
	assert.Equal(t, "1", Factorial(0).String())
	assert.Equal(t, "1", Factorial(1).String())
	assert.Equal(t, "120", Factorial(5).String())
	assert.Equal(t, "2432902008176640000", Factorial(20).String())
}
