package equation

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// ErrZeroDivision is the only runtime failure an expression can produce.
var ErrZeroDivision = errors.New("division by zero")

// NameError is a reference to a name that is neither a declared variable nor
// part of the function vocabulary.
type NameError struct {
	Name string
	Pos  int
}

func (e *NameError) Error() string { return fmt.Sprintf("name '%s' is not defined", e.Name) }

// UsageError is a name used in the wrong role: a function without a call,
// a call of something that is not a function, or the wrong number of
// arguments.
type UsageError struct {
	Name string
	Pos  int
	Msg  string
}

func (e *UsageError) Error() string { return e.Msg }

type function struct {
	arity int
	fn    func(args []float64) float64
}

func unary(f func(float64) float64) function {
	return function{arity: 1, fn: func(a []float64) float64 { return f(a[0]) }}
}

var functions = map[string]function{
	"pow":   {arity: 2, fn: func(a []float64) float64 { return math.Pow(a[0], a[1]) }},
	"sqrt":  unary(math.Sqrt),
	"sin":   unary(math.Sin),
	"asin":  unary(math.Asin),
	"cos":   unary(math.Cos),
	"acos":  unary(math.Acos),
	"tan":   unary(math.Tan),
	"atan":  unary(math.Atan),
	"exp":   unary(math.Exp),
	"log":   unary(math.Log),
	"log10": unary(math.Log10),
}

var constants = map[string]float64{
	"pi": math.Pi,
}

// Vocabulary lists the names every expression may use besides its variables.
// The result is sorted.
func Vocabulary() []string {
	out := make([]string, 0, len(functions)+len(constants))
	for name := range functions {
		out = append(out, name)
	}
	for name := range constants {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func isRange(err error) bool { return errors.Is(err, strconv.ErrRange) }

// Bind checks every name in the expression against the declared variables
// and the vocabulary. The first offending name, left to right, is returned.
func (e *Expr) Bind(vars []string) error {
	declared := make(map[string]bool, len(vars))
	for _, v := range vars {
		declared[v] = true
	}
	return bind(e.root, declared)
}

func bind(n node, declared map[string]bool) error {
	switch n := n.(type) {
	case *nameNode:
		if _, ok := functions[n.name]; ok {
			return &UsageError{Name: n.name, Pos: n.pos, Msg: fmt.Sprintf("'%s' is a function and must be called", n.name)}
		}
		if _, ok := constants[n.name]; ok || declared[n.name] {
			return nil
		}
		return &NameError{Name: n.name, Pos: n.pos}
	case *callNode:
		f, ok := functions[n.name]
		if !ok {
			if _, isConst := constants[n.name]; isConst || declared[n.name] {
				return &UsageError{Name: n.name, Pos: n.pos, Msg: fmt.Sprintf("'%s' is not callable", n.name)}
			}
			return &NameError{Name: n.name, Pos: n.pos}
		}
		if len(n.args) != f.arity {
			return &UsageError{Name: n.name, Pos: n.pos,
				Msg: fmt.Sprintf("%s() takes %d argument%s (%d given)", n.name, f.arity, plural(f.arity), len(n.args))}
		}
		for _, a := range n.args {
			if err := bind(a, declared); err != nil {
				return err
			}
		}
	case *unaryNode:
		return bind(n.x, declared)
	case *binaryNode:
		if err := bind(n.l, declared); err != nil {
			return err
		}
		return bind(n.r, declared)
	}
	return nil
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// Eval computes the expression. Names missing from env evaluate as NameError;
// call Bind first for a complete check.
func (e *Expr) Eval(env map[string]float64) (float64, error) {
	return e.root.eval(env)
}

func (n numberNode) eval(map[string]float64) (float64, error) { return float64(n), nil }

func (n *nameNode) eval(env map[string]float64) (float64, error) {
	if v, ok := env[n.name]; ok {
		return v, nil
	}
	if v, ok := constants[n.name]; ok {
		return v, nil
	}
	return 0, &NameError{Name: n.name, Pos: n.pos}
}

func (n *unaryNode) eval(env map[string]float64) (float64, error) {
	x, err := n.x.eval(env)
	if err != nil {
		return 0, err
	}
	if n.op == '-' {
		return -x, nil
	}
	return x, nil
}

func (n *binaryNode) eval(env map[string]float64) (float64, error) {
	l, err := n.l.eval(env)
	if err != nil {
		return 0, err
	}
	r, err := n.r.eval(env)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case tokPlus:
		return l + r, nil
	case tokMinus:
		return l - r, nil
	case tokStar:
		return l * r, nil
	case tokSlash:
		if r == 0 {
			return 0, ErrZeroDivision
		}
		return l / r, nil
	default: // tokPower
		if l == 0 && r < 0 {
			return 0, ErrZeroDivision
		}
		return math.Pow(l, r), nil
	}
}

func (n *callNode) eval(env map[string]float64) (float64, error) {
	f, ok := functions[n.name]
	if !ok {
		return 0, &NameError{Name: n.name, Pos: n.pos}
	}
	if len(n.args) != f.arity {
		return 0, &UsageError{Name: n.name, Pos: n.pos, Msg: fmt.Sprintf("%s() takes %d argument%s (%d given)", n.name, f.arity, plural(f.arity), len(n.args))}
	}
	args := make([]float64, len(n.args))
	for i, a := range n.args {
		v, err := a.eval(env)
		if err != nil {
			return 0, err
		}
		args[i] = v
	}
	return f.fn(args), nil
}
