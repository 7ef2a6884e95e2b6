// Package exact implements the exact rational arithmetic and linear solver
// used to derive finite-difference weights.
//
// Values are immutable: every operation returns a fresh, normalized Rat.
// Normalization (lowest terms, sign carried by the numerator, positive
// denominator) is delegated to math/big.Rat.
package exact

import (
	"errors"
	"math/big"
)

// Sentinel errors returned by this package.
var (
	// ErrDivisionByZero indicates a rational with a zero denominator was requested.
	ErrDivisionByZero = errors.New("findiff: division by zero")

	// ErrSingularMatrix indicates Gauss-Jordan elimination found no nonzero pivot.
	ErrSingularMatrix = errors.New("findiff: singular matrix")

	// ErrDimension indicates mismatched matrix and vector sizes.
	ErrDimension = errors.New("findiff: dimension mismatch")
)

// guardBits is the extra working precision used by Float64 beyond the
// denominator's bit length.
const guardBits = 64

// Rat is an exact fraction in lowest terms. The zero value is 0.
type Rat struct {
	v *big.Rat
}

// Canonical constants.
var (
	Zero = Rat{v: new(big.Rat)}
	One  = Rat{v: big.NewRat(1, 1)}
)

// New returns num/den in lowest terms.
func New(num, den int64) (Rat, error) {
	if den == 0 {
		return Rat{}, ErrDivisionByZero
	}
	return canonical(big.NewRat(num, den)), nil
}

// Int returns n/1.
func Int(n int64) Rat {
	return canonical(new(big.Rat).SetInt64(n))
}

// FromBig returns num/den in lowest terms. The arguments are not retained.
func FromBig(num, den *big.Int) (Rat, error) {
	if den.Sign() == 0 {
		return Rat{}, ErrDivisionByZero
	}
	return canonical(new(big.Rat).SetFrac(num, den)), nil
}

// canonical maps zero and one to their shared instances.
func canonical(r *big.Rat) Rat {
	if r.Sign() == 0 {
		return Zero
	}
	if r.IsInt() && r.Num().IsInt64() && r.Num().Int64() == 1 {
		return One
	}
	return Rat{v: r}
}

func (r Rat) val() *big.Rat {
	if r.v == nil {
		return Zero.v
	}
	return r.v
}

func (r Rat) Add(o Rat) Rat { return canonical(new(big.Rat).Add(r.val(), o.val())) }
func (r Rat) Sub(o Rat) Rat { return canonical(new(big.Rat).Sub(r.val(), o.val())) }
func (r Rat) Mul(o Rat) Rat { return canonical(new(big.Rat).Mul(r.val(), o.val())) }
func (r Rat) Neg() Rat      { return canonical(new(big.Rat).Neg(r.val())) }
func (r Rat) Abs() Rat      { return canonical(new(big.Rat).Abs(r.val())) }

// Quo returns r/o, or ErrDivisionByZero when o is zero.
func (r Rat) Quo(o Rat) (Rat, error) {
	if o.IsZero() {
		return Rat{}, ErrDivisionByZero
	}
	return canonical(new(big.Rat).Quo(r.val(), o.val())), nil
}

// Inv returns 1/r, or ErrDivisionByZero when r is zero.
func (r Rat) Inv() (Rat, error) {
	if r.IsZero() {
		return Rat{}, ErrDivisionByZero
	}
	return canonical(new(big.Rat).Inv(r.val())), nil
}

// Cmp compares r and o and returns -1, 0 or +1.
func (r Rat) Cmp(o Rat) int { return r.val().Cmp(o.val()) }

func (r Rat) Sign() int        { return r.val().Sign() }
func (r Rat) IsZero() bool     { return r.Sign() == 0 }
func (r Rat) Equal(o Rat) bool { return r.Cmp(o) == 0 }

// Num returns a copy of the numerator, which carries the sign.
func (r Rat) Num() *big.Int { return new(big.Int).Set(r.val().Num()) }

// Denom returns a copy of the denominator, which is always positive.
func (r Rat) Denom() *big.Int { return new(big.Int).Set(r.val().Denom()) }

func (r Rat) String() string { return r.val().RatString() }

// Float64 converts r to the nearest float64.
//
// The quotient is formed at 53 + bitlen(denominator) + 64 bits and then
// rounded half-to-even, so the result is correctly rounded even for the
// large denominators produced by high-order stencils.
func (r Rat) Float64() float64 {
	v := r.val()
	if v.Sign() == 0 {
		return 0
	}
	prec := uint(53 + v.Denom().BitLen() + guardBits)
	num := new(big.Float).SetInt(v.Num())
	den := new(big.Float).SetInt(v.Denom())
	q := new(big.Float).SetPrec(prec).SetMode(big.ToNearestEven).Quo(num, den)
	f, _ := q.Float64()
	return f
}

// Factorial returns n! as an exact integer.
func Factorial(n int) Rat {
	f := new(big.Int).MulRange(1, int64(n))
	return canonical(new(big.Rat).SetInt(f))
}
