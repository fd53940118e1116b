package eval

import (
	"math"

	"polydawn.net/fperr/def"
)

/*
	Float evaluates the formula's body in binary64 at one point, the way
	a straightforward C translation would.
*/
func Float(f *def.Formula, inputs []float64) float64 {
	return def.Fold[float64](f.Body(), floatVisitor{env(f, inputs)})
}

// Floats evaluates at every point in order.
func Floats(f *def.Formula, points [][]float64) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = Float(f, p)
	}
	return out
}

func env(f *def.Formula, inputs []float64) map[string]float64 {
	m := make(map[string]float64, f.Arity())
	for i, name := range f.Inputs() {
		m[name] = inputs[i]
	}
	return m
}

type floatVisitor struct {
	vars map[string]float64
}

func (v floatVisitor) Num(n *def.Num) float64     { return n.Float64() }
func (v floatVisitor) Var(x *def.Var) float64     { return v.vars[x.Name] }
func (v floatVisitor) Const(c *def.Const) float64 { return constFloat(c.Name) }
func (v floatVisitor) Op(o *def.Op, args []float64) float64 {
	return applyFloat(o.Op, args)
}

func constFloat(name string) float64 {
	switch name {
	case "PI":
		return math.Pi
	case "E":
		return math.E
	case "INFINITY":
		return math.Inf(1)
	default:
		return math.NaN()
	}
}

/*
	applyFloat applies one operator in binary64.  Boolean operators
	return 1 for true and 0 for false.
*/
func applyFloat(op def.Operator, a []float64) float64 {
	switch op {
	case def.OpNeg:
		return -a[0]
	case def.OpAdd:
		return a[0] + a[1]
	case def.OpSub:
		return a[0] - a[1]
	case def.OpMul:
		return a[0] * a[1]
	case def.OpDiv:
		return a[0] / a[1]
	case def.OpSqrt:
		return math.Sqrt(a[0])
	case def.OpCbrt:
		return math.Cbrt(a[0])
	case def.OpFabs:
		return math.Abs(a[0])
	case def.OpExp:
		return math.Exp(a[0])
	case def.OpExpm1:
		return math.Expm1(a[0])
	case def.OpLog:
		return math.Log(a[0])
	case def.OpLog1p:
		return math.Log1p(a[0])
	case def.OpPow:
		return math.Pow(a[0], a[1])
	case def.OpSin:
		return math.Sin(a[0])
	case def.OpCos:
		return math.Cos(a[0])
	case def.OpTan:
		return math.Tan(a[0])
	case def.OpAtan:
		return math.Atan(a[0])
	case def.OpAtan2:
		return math.Atan2(a[0], a[1])
	case def.OpHypot:
		return math.Hypot(a[0], a[1])
	case def.OpFma:
		return math.FMA(a[0], a[1], a[2])
	case def.OpFmin:
		// C semantics: a NaN argument loses to the other one.
		switch {
		case math.IsNaN(a[0]):
			return a[1]
		case math.IsNaN(a[1]):
			return a[0]
		}
		return math.Min(a[0], a[1])
	case def.OpFmax:
		switch {
		case math.IsNaN(a[0]):
			return a[1]
		case math.IsNaN(a[1]):
			return a[0]
		}
		return math.Max(a[0], a[1])
	case def.OpFloor:
		return math.Floor(a[0])
	case def.OpCeil:
		return math.Ceil(a[0])
	case def.OpRound:
		return math.Round(a[0])
	case def.OpLess, def.OpLessEq, def.OpGreater, def.OpGreaterEq, def.OpEqual, def.OpNotEqual:
		return truth(chain(op, a, func(x, y float64) int {
			switch {
			case math.IsNaN(x) || math.IsNaN(y):
				return 2 // unordered: every comparison but != fails
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}))
	case def.OpAnd:
		for _, x := range a {
			if x == 0 {
				return 0
			}
		}
		return 1
	case def.OpOr:
		for _, x := range a {
			if x != 0 {
				return 1
			}
		}
		return 0
	case def.OpNot:
		return truth(a[0] == 0)
	}
	panic(def.ValidationError.New("no float semantics for %s", op))
}

func truth(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

/*
	chain evaluates a comparison over every adjacent pair, FPCore style:
	`(< a b c)` means a<b and b<c.  `!=` is the exception: it means all
	arguments are pairwise distinct.
*/
func chain[T any](op def.Operator, a []T, cmp func(x, y T) int) bool {
	if op == def.OpNotEqual {
		for i := range a {
			for j := i + 1; j < len(a); j++ {
				if cmp(a[i], a[j]) == 0 {
					return false
				}
			}
		}
		return true
	}
	for i := 0; i+1 < len(a); i++ {
		c := cmp(a[i], a[i+1])
		var ok bool
		switch op {
		case def.OpLess:
			ok = c == -1
		case def.OpLessEq:
			ok = c == -1 || c == 0
		case def.OpGreater:
			ok = c == 1
		case def.OpGreaterEq:
			ok = c == 1 || c == 0
		case def.OpEqual:
			ok = c == 0
		}
		if !ok {
			return false
		}
	}
	return true
}
