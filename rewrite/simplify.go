package rewrite

import (
	"math/big"

	"polydawn.net/fperr/def"
)

/*
	Simplify folds constant subexpressions exactly and strips identity
	operations.  It never changes the real-valued meaning of a formula,
	and it never introduces an operation that wasn't already present.
*/
func Simplify(e def.Expr) def.Expr {
	return def.Fold[def.Expr](e, simplifier{})
}

type simplifier struct{}

func (simplifier) Num(n *def.Num) def.Expr     { return n }
func (simplifier) Var(v *def.Var) def.Expr     { return v }
func (simplifier) Const(c *def.Const) def.Expr { return c }
func (simplifier) Op(o *def.Op, args []def.Expr) def.Expr {
	same := true
	for i := range args {
		if args[i] != o.Args[i] {
			same = false
			break
		}
	}
	if !same {
		o = def.NewOp(o.Op, args...)
	}
	return simplifyOp(o)
}

// Largest result we'll materialize when folding an integer power.
const maxFoldBits = 4096

func simplifyOp(o *def.Op) def.Expr {
	if v, ok := foldConstant(o); ok {
		return def.NewNum(v)
	}
	a := o.Args
	switch o.Op {
	case def.OpNeg:
		if inner, ok := a[0].(*def.Op); ok && inner.Op == def.OpNeg {
			return inner.Args[0]
		}
	case def.OpAdd:
		if isLit(a[1], 0) {
			return a[0]
		}
		if isLit(a[0], 0) {
			return a[1]
		}
		if n, ok := a[1].(*def.Op); ok && n.Op == def.OpNeg {
			return simplifyOp(def.NewOp(def.OpSub, a[0], n.Args[0]))
		}
	case def.OpSub:
		if isLit(a[1], 0) {
			return a[0]
		}
		if isLit(a[0], 0) {
			return simplifyOp(def.NewOp(def.OpNeg, a[1]))
		}
		if def.Equal(a[0], a[1]) {
			return def.NewInt(0)
		}
		if n, ok := a[1].(*def.Op); ok && n.Op == def.OpNeg {
			return simplifyOp(def.NewOp(def.OpAdd, a[0], n.Args[0]))
		}
		// (a+b)-a and (a+b)-b
		if sum, ok := a[0].(*def.Op); ok && sum.Op == def.OpAdd {
			if def.Equal(sum.Args[0], a[1]) {
				return sum.Args[1]
			}
			if def.Equal(sum.Args[1], a[1]) {
				return sum.Args[0]
			}
		}
	case def.OpMul:
		if isLit(a[1], 1) {
			return a[0]
		}
		if isLit(a[0], 1) {
			return a[1]
		}
		if isLit(a[1], -1) {
			return simplifyOp(def.NewOp(def.OpNeg, a[0]))
		}
		if isLit(a[0], -1) {
			return simplifyOp(def.NewOp(def.OpNeg, a[1]))
		}
	case def.OpDiv:
		if isLit(a[1], 1) {
			return a[0]
		}
	}
	return o
}

func isLit(e def.Expr, v int64) bool {
	n, ok := e.(*def.Num)
	return ok && n.Value.IsInt() && n.Value.Num().IsInt64() && n.Value.Num().Int64() == v
}

/*
	foldConstant evaluates an operation whose arguments are all literals,
	when the result is itself a rational that can be written down exactly.
*/
func foldConstant(o *def.Op) (*big.Rat, bool) {
	vals := make([]*big.Rat, len(o.Args))
	for i, a := range o.Args {
		n, ok := a.(*def.Num)
		if !ok {
			return nil, false
		}
		vals[i] = n.Value
	}
	r := new(big.Rat)
	switch o.Op {
	case def.OpNeg:
		return r.Neg(vals[0]), true
	case def.OpAdd:
		return r.Add(vals[0], vals[1]), true
	case def.OpSub:
		return r.Sub(vals[0], vals[1]), true
	case def.OpMul:
		return r.Mul(vals[0], vals[1]), true
	case def.OpDiv:
		if vals[1].Sign() == 0 {
			return nil, false
		}
		return r.Quo(vals[0], vals[1]), true
	case def.OpFabs:
		return r.Abs(vals[0]), true
	case def.OpFmin:
		if vals[0].Cmp(vals[1]) <= 0 {
			return r.Set(vals[0]), true
		}
		return r.Set(vals[1]), true
	case def.OpFmax:
		if vals[0].Cmp(vals[1]) >= 0 {
			return r.Set(vals[0]), true
		}
		return r.Set(vals[1]), true
	case def.OpFloor:
		return r.SetInt(ratFloor(vals[0])), true
	case def.OpCeil:
		return r.SetInt(new(big.Int).Neg(ratFloor(new(big.Rat).Neg(vals[0])))), true
	case def.OpRound:
		// half away from zero
		half := new(big.Rat).Add(new(big.Rat).Abs(vals[0]), big.NewRat(1, 2))
		r.SetInt(ratFloor(half))
		if vals[0].Sign() < 0 {
			r.Neg(r)
		}
		return r, true
	case def.OpPow:
		return foldPow(vals[0], vals[1])
	case def.OpSqrt:
		if vals[0].Sign() < 0 {
			return nil, false
		}
		num, ok1 := intSqrt(vals[0].Num())
		den, ok2 := intSqrt(vals[0].Denom())
		if !ok1 || !ok2 {
			return nil, false
		}
		return r.SetFrac(num, den), true
	case def.OpCbrt:
		if vals[0].IsInt() && vals[0].Num().CmpAbs(big.NewInt(1)) <= 0 {
			return r.Set(vals[0]), true
		}
	case def.OpLog:
		if vals[0].Cmp(big.NewRat(1, 1)) == 0 {
			return r, true
		}
	case def.OpExp:
		if vals[0].Sign() == 0 {
			return r.SetInt64(1), true
		}
	}
	return nil, false
}

func ratFloor(x *big.Rat) *big.Int {
	// Euclidean division; with a positive divisor that's floor.
	return new(big.Int).Div(x.Num(), x.Denom())
}

func foldPow(base, exp *big.Rat) (*big.Rat, bool) {
	if !exp.IsInt() || !exp.Num().IsInt64() {
		return nil, false
	}
	n := exp.Num().Int64()
	if n == 0 {
		if base.Sign() == 0 {
			return nil, false
		}
		return big.NewRat(1, 1), true
	}
	if n < 0 && base.Sign() == 0 {
		return nil, false
	}
	abs := n
	if abs < 0 {
		abs = -abs
	}
	bits := int64(base.Num().BitLen() + base.Denom().BitLen())
	if abs > maxFoldBits || bits*abs > maxFoldBits {
		return nil, false
	}
	e := big.NewInt(abs)
	num := new(big.Int).Exp(base.Num(), e, nil)
	den := new(big.Int).Exp(base.Denom(), e, nil)
	if n < 0 {
		num, den = den, num
	}
	return new(big.Rat).SetFrac(num, den), true
}

func intSqrt(n *big.Int) (*big.Int, bool) {
	if n.Sign() < 0 {
		return nil, false
	}
	s := new(big.Int).Sqrt(n)
	return s, new(big.Int).Mul(s, s).Cmp(n) == 0
}
