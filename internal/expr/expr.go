// Package expr compiles Starlark expressions into functions that findiff
// can differentiate.
//
// A univariate expression sees the evaluation point as the float x; a
// multivariate expression sees it as the tuple x, indexed x[0], x[1], ...
// The math module from go.starlark.net/lib/math is predeclared:
//
//	math.sin(x) * math.exp(-x*x)
//	x[0]*x[0] + 3*x[1]*x[2] + math.sin(x[2])
package expr

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/alexshd/findiff"
	starmath "go.starlark.net/lib/math"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// ErrNotNumber is recorded when an expression yields something other than
// an int or a float.
var ErrNotNumber = errors.New("expr: result is not a number")

// maxSteps bounds the work done by a single evaluation.
const maxSteps = 1 << 20

var predeclared = func() starlark.StringDict {
	env := starlark.StringDict{"math": starmath.Module}
	env.Freeze()
	return env
}()

var fileOptions = &syntax.FileOptions{}

// compile checks that src is a single expression and wraps it in a frozen
// one-argument lambda, so the resolved body is shared by every call.
func compile(src string) (*starlark.Function, error) {
	if _, err := fileOptions.ParseExpr("expr", src, 0); err != nil {
		return nil, fmt.Errorf("parse %q: %w", src, err)
	}

	thread := newThread()
	v, err := starlark.EvalOptions(fileOptions, thread, "expr", "lambda x: ("+src+"\n)", predeclared)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", src, err)
	}
	fn, ok := v.(*starlark.Function)
	if !ok {
		return nil, fmt.Errorf("compile %q: not a single expression", src)
	}
	fn.Freeze()
	return fn, nil
}

func newThread() *starlark.Thread {
	thread := &starlark.Thread{
		Name:  "findiff",
		Print: func(_ *starlark.Thread, _ string) {},
	}
	thread.SetMaxExecutionSteps(maxSteps)
	return thread
}

// call evaluates fn with arg on a fresh thread.
func call(fn *starlark.Function, arg starlark.Value) (float64, error) {
	v, err := starlark.Call(newThread(), fn, starlark.Tuple{arg}, nil)
	if err != nil {
		return math.NaN(), err
	}
	f, ok := starlark.AsFloat(v)
	if !ok {
		return math.NaN(), fmt.Errorf("%w: got %s", ErrNotNumber, v.Type())
	}
	return f, nil
}

// recorder keeps the first evaluation error.
type recorder struct {
	mu  sync.Mutex
	err error
}

func (r *recorder) record(err error) {
	r.mu.Lock()
	if r.err == nil {
		r.err = err
	}
	r.mu.Unlock()
}

// Err returns the first error seen by the function adapter, if any.
func (r *recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Univariate is a compiled expression in x. It is safe for concurrent use.
type Univariate struct {
	recorder
	src string
	fn  *starlark.Function
}

// CompileUnivariate compiles src, an expression in the float x.
func CompileUnivariate(src string) (*Univariate, error) {
	fn, err := compile(src)
	if err != nil {
		return nil, err
	}
	return &Univariate{src: src, fn: fn}, nil
}

// String returns the source expression.
func (u *Univariate) String() string { return u.src }

// Eval evaluates the expression at x.
func (u *Univariate) Eval(x float64) (float64, error) {
	v, err := call(u.fn, starlark.Float(x))
	if err != nil {
		return v, fmt.Errorf("%s at x=%g: %w", u.src, x, err)
	}
	return v, nil
}

// Func adapts u for findiff. Failed evaluations return NaN and the first
// failure is kept for Err.
func (u *Univariate) Func() findiff.Func {
	return func(x float64) float64 {
		v, err := u.Eval(x)
		if err != nil {
			u.record(err)
		}
		return v
	}
}

// Multivariate is a compiled expression in the tuple x. It is safe for
// concurrent use.
type Multivariate struct {
	recorder
	src string
	fn  *starlark.Function
}

// CompileMultivariate compiles src, an expression in the tuple x.
func CompileMultivariate(src string) (*Multivariate, error) {
	fn, err := compile(src)
	if err != nil {
		return nil, err
	}
	return &Multivariate{src: src, fn: fn}, nil
}

// String returns the source expression.
func (m *Multivariate) String() string { return m.src }

// Eval evaluates the expression at x.
func (m *Multivariate) Eval(x []float64) (float64, error) {
	t := make(starlark.Tuple, len(x))
	for i, v := range x {
		t[i] = starlark.Float(v)
	}
	v, err := call(m.fn, t)
	if err != nil {
		return v, fmt.Errorf("%s at x=%v: %w", m.src, x, err)
	}
	return v, nil
}

// MultiFunc adapts m for findiff. Failed evaluations return NaN and the
// first failure is kept for Err.
func (m *Multivariate) MultiFunc() findiff.MultiFunc {
	return func(x []float64) float64 {
		v, err := m.Eval(x)
		if err != nil {
			m.record(err)
		}
		return v
	}
}
