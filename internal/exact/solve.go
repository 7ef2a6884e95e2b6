package exact

import "fmt"

// Solve returns x such that a·x = b exactly, using Gauss-Jordan elimination
// with partial pivoting.
//
// a must be square with len(a) == len(b). Neither argument is modified.
// A column without a nonzero pivot yields ErrSingularMatrix.
func Solve(a [][]Rat, b []Rat) ([]Rat, error) {
	n := len(b)
	if len(a) != n {
		return nil, fmt.Errorf("%w: %d rows, %d right-hand values", ErrDimension, len(a), n)
	}

	m := make([][]Rat, n)
	for i, row := range a {
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrDimension, i, len(row), n)
		}
		m[i] = append([]Rat(nil), row...)
	}
	rhs := append([]Rat(nil), b...)

	for col := 0; col < n; col++ {
		// Partial pivot: largest magnitude among the remaining rows.
		pivot := col
		best := m[col][col].Abs()
		for row := col + 1; row < n; row++ {
			if v := m[row][col].Abs(); v.Cmp(best) > 0 {
				pivot, best = row, v
			}
		}
		if best.IsZero() {
			return nil, fmt.Errorf("%w: no pivot in column %d", ErrSingularMatrix, col)
		}
		m[col], m[pivot] = m[pivot], m[col]
		rhs[col], rhs[pivot] = rhs[pivot], rhs[col]

		for row := col + 1; row < n; row++ {
			if m[row][col].IsZero() {
				continue
			}
			factor, err := m[row][col].Quo(m[col][col])
			if err != nil {
				return nil, err
			}
			for k := col; k < n; k++ {
				m[row][k] = m[row][k].Sub(factor.Mul(m[col][k]))
			}
			rhs[row] = rhs[row].Sub(factor.Mul(rhs[col]))
		}
	}

	x := make([]Rat, n)
	for row := n - 1; row >= 0; row-- {
		sum := rhs[row]
		for k := row + 1; k < n; k++ {
			sum = sum.Sub(m[row][k].Mul(x[k]))
		}
		v, err := sum.Quo(m[row][row])
		if err != nil {
			return nil, err
		}
		x[row] = v
	}
	return x, nil
}
