package def

import (
	"strconv"
	"strings"
)

/*
	Visitor is implemented once per consumer of expression trees: the
	float evaluator, the exact evaluator, the cost model, each code
	generator.  `Fold` drives it bottom-up, so `Op` receives its
	children's results already computed.
*/
type Visitor[T any] interface {
	Num(*Num) T
	Var(*Var) T
	Const(*Const) T
	Op(o *Op, args []T) T
}

func Fold[T any](e Expr, v Visitor[T]) T {
	switch e := e.(type) {
	case *Num:
		return v.Num(e)
	case *Var:
		return v.Var(e)
	case *Const:
		return v.Const(e)
	case *Op:
		args := make([]T, len(e.Args))
		for i, a := range e.Args {
			args[i] = Fold(a, v)
		}
		return v.Op(e, args)
	}
	panic(ValidationError.New("unknown expression node %T", e))
}

/*
	Path addresses a subexpression as the sequence of argument indexes
	taken from the root.  The empty path is the root itself.
*/
type Path []int

func (p Path) String() string {
	if len(p) == 0 {
		return "."
	}
	parts := make([]string, len(p))
	for i, n := range p {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}

func (p Path) child(i int) Path {
	c := make(Path, len(p)+1)
	copy(c, p)
	c[len(p)] = i
	return c
}

/*
	Walk visits every node in pre-order.  Returning false from the
	callback skips that node's children.
*/
func Walk(e Expr, fn func(Path, Expr) bool) {
	walk(nil, e, fn)
}

func walk(p Path, e Expr, fn func(Path, Expr) bool) {
	if !fn(p, e) {
		return
	}
	if o, ok := e.(*Op); ok {
		for i, a := range o.Args {
			walk(p.child(i), a, fn)
		}
	}
}

// At returns the subexpression at the path, or nil if there is none.
func At(e Expr, p Path) Expr {
	for _, i := range p {
		o, ok := e.(*Op)
		if !ok || i < 0 || i >= len(o.Args) {
			return nil
		}
		e = o.Args[i]
	}
	return e
}

/*
	Replace returns a new tree with the subexpression at the path swapped
	for `sub`.  Nodes off the path are shared with the input, never
	copied or mutated.
*/
func Replace(e Expr, p Path, sub Expr) Expr {
	if len(p) == 0 {
		return sub
	}
	o, ok := e.(*Op)
	if !ok || p[0] < 0 || p[0] >= len(o.Args) {
		panic(ValidationError.New("path %s does not exist in %s", p, e))
	}
	args := make([]Expr, len(o.Args))
	copy(args, o.Args)
	args[p[0]] = Replace(o.Args[p[0]], p[1:], sub)
	return &Op{Op: o.Op, Args: args}
}

// FreeVars lists variable names in order of first appearance.
func FreeVars(e Expr) []string {
	var names []string
	seen := map[string]bool{}
	Walk(e, func(_ Path, n Expr) bool {
		if v, ok := n.(*Var); ok && !seen[v.Name] {
			seen[v.Name] = true
			names = append(names, v.Name)
		}
		return true
	})
	return names
}
