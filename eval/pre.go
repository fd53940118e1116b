package eval

import (
	"math"
	"math/big"

	"polydawn.net/fperr/def"
)

/*
	Pre reports whether a point satisfies the formula's precondition.
	Comparisons are made between exact values, so a point right at a
	boundary is judged by the real numbers rather than by rounding.
	A formula without a precondition accepts every point.
*/
func Pre(f *def.Formula, inputs []float64) bool {
	if f.Pre() == nil {
		return true
	}
	vars := make(map[string]*big.Float, f.Arity())
	for i, name := range f.Inputs() {
		if math.IsNaN(inputs[i]) {
			return false
		}
		vars[name] = new(big.Float).SetFloat64(inputs[i])
	}
	return holds(f.Pre(), vars)
}

func holds(e def.Expr, vars map[string]*big.Float) bool {
	o, ok := e.(*def.Op)
	if !ok || !o.Op.Boolean() {
		r, st, _ := exactAdaptive(e, vars, nil)
		return st == Valid && r != 0
	}
	switch o.Op {
	case def.OpAnd:
		for _, a := range o.Args {
			if !holds(a, vars) {
				return false
			}
		}
		return true
	case def.OpOr:
		for _, a := range o.Args {
			if holds(a, vars) {
				return true
			}
		}
		return false
	case def.OpNot:
		return !holds(o.Args[0], vars)
	}
	values := make([]float64, len(o.Args))
	for i, a := range o.Args {
		r, st, _ := exactAdaptive(a, vars, nil)
		if st == Invalid || st == Unsure {
			return false
		}
		values[i] = r
	}
	return chain(o.Op, values, func(x, y float64) int {
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	})
}
