package eval

import (
	"math"
	"math/big"

	"polydawn.net/fperr/def"
)

/*
	Exact evaluation.

	Values are math/big.Floats.  Addition, subtraction, and multiplication
	of exact operands are carried out with as many bits as the result
	needs, so they stay exact; everything else rounds to the working
	precision.  Each value carries `acc`, the number of leading bits
	believed correct, which shrinks under cancellation and ill
	conditioning.

	A point is evaluated at 128 bits first; the precision doubles, up to
	4096 bits, until a result is both accurate enough to round correctly
	and stable across two successive precisions.  Results that are exact
	outright are accepted immediately.
*/

const (
	startPrec = 128
	maxPrec   = 4096

	// Above this many bits, exact sums and products round instead.
	maxExactBits = 1 << 16

	// A result with fewer trustworthy bits than this isn't rounded to binary64.
	reliableBits = 64

	exactAcc = math.MaxInt32
)

// xval is a value under exact evaluation.  A nil `v` is NaN.
type xval struct {
	v   *big.Float
	acc int
}

func (x xval) nan() bool   { return x.v == nil }
func (x xval) inf() bool   { return x.v != nil && x.v.IsInf() }
func (x xval) exact() bool { return x.acc == exactAcc }

func nanVal(certain bool) xval {
	if certain {
		return xval{acc: exactAcc}
	}
	return xval{}
}

/*
	Exact evaluates the formula's body at one point and returns the real
	result correctly rounded to binary64, with its status.  An Invalid
	result is NaN; an Unsure one is the last rounding attempted.
*/
func Exact(f *def.Formula, inputs []float64) (float64, Status) {
	vars := make(map[string]*big.Float, f.Arity())
	for i, name := range f.Inputs() {
		if math.IsNaN(inputs[i]) {
			return math.NaN(), Invalid
		}
		vars[name] = new(big.Float).SetFloat64(inputs[i])
	}
	r, st, _ := exactAdaptive(f.Body(), vars, nil)
	return r, st
}

// Truth is the exact result of every point of a sample.
type Truth struct {
	Values []float64
	Status []Status
}

// Valid counts points whose exact value is a finite number.
func (t Truth) Valid() int {
	n := 0
	for _, s := range t.Status {
		if s == Valid {
			n++
		}
	}
	return n
}

/*
	Exacts evaluates every point, spreading the work over all CPUs.
	Results are in point order regardless.
*/
func Exacts(f *def.Formula, points [][]float64) Truth {
	t := Truth{
		Values: make([]float64, len(points)),
		Status: make([]Status, len(points)),
	}
	parallel(len(points), func(i int) {
		t.Values[i], t.Status[i] = Exact(f, points[i])
	})
	return t
}

/*
	exactAdaptive runs the precision-doubling loop.  If `record` is
	non-nil it is filled with every node's value at the precision that
	was finally accepted.
*/
func exactAdaptive(e def.Expr, vars map[string]*big.Float, record map[def.Expr]xval) (float64, Status, uint) {
	last := math.NaN()
	havePrev := false
	for prec := uint(startPrec); prec <= maxPrec; prec *= 2 {
		var rec map[def.Expr]xval
		if record != nil {
			rec = make(map[def.Expr]xval)
		}
		x := def.Fold[xval](e, &exactVisitor{prec: prec, vars: vars, record: rec})
		if prec == maxPrec {
			copyRecord(record, rec)
		}
		if x.nan() {
			if x.acc >= reliableBits {
				copyRecord(record, rec)
				return math.NaN(), Invalid, prec
			}
			last, havePrev = math.NaN(), false
			continue
		}
		r, _ := x.v.Float64()
		reliable := x.acc >= reliableBits || beyondBinary64(x.v)
		if reliable && (x.exact() || (havePrev && math.Float64bits(r) == math.Float64bits(last))) {
			copyRecord(record, rec)
			if math.IsInf(r, 0) {
				return r, Infinite, prec
			}
			return r, Valid, prec
		}
		last, havePrev = r, reliable
	}
	return last, Unsure, maxPrec
}

func copyRecord(dst, src map[def.Expr]xval) {
	for k, v := range src {
		dst[k] = v
	}
}

// beyondBinary64 is true when rounding can only give an infinity or a zero.
func beyondBinary64(v *big.Float) bool {
	if v.IsInf() {
		return true
	}
	e := exponent(v)
	return v.Sign() != 0 && (e > 1025 || e < -1080)
}

type exactVisitor struct {
	prec   uint
	vars   map[string]*big.Float
	record map[def.Expr]xval
}

func (v *exactVisitor) keep(e def.Expr, x xval) xval {
	if v.record != nil {
		v.record[e] = x
	}
	return x
}

func (v *exactVisitor) Num(n *def.Num) xval {
	r := n.Value
	if isDyadic(r) {
		f := new(big.Float).SetPrec(uint(max(r.Num().BitLen(), 64)))
		f.SetRat(r)
		return v.keep(n, xval{f, exactAcc})
	}
	return v.keep(n, xval{newf(v.prec).SetRat(r), int(v.prec)})
}

func (v *exactVisitor) Var(x *def.Var) xval {
	return v.keep(x, xval{v.vars[x.Name], exactAcc})
}

func (v *exactVisitor) Const(c *def.Const) xval {
	switch c.Name {
	case "PI":
		return v.keep(c, xval{bigPi(v.prec), int(v.prec)})
	case "E":
		return v.keep(c, xval{bigExp(one(v.prec), v.prec), int(v.prec)})
	case "INFINITY":
		return v.keep(c, xval{newf(v.prec).SetInf(false), exactAcc})
	}
	return v.keep(c, nanVal(true))
}

func (v *exactVisitor) Op(o *def.Op, args []xval) xval {
	return v.keep(o, applyExact(o.Op, args, v.prec))
}

func isDyadic(r *big.Rat) bool {
	d := r.Denom()
	return d.BitLen() == int(d.TrailingZeroBits())+1
}

/*
	applyExact applies one operator at working precision `prec`.
*/
func applyExact(op def.Operator, a []xval, prec uint) xval {
	for _, x := range a {
		if x.nan() {
			return xval{acc: minAcc(a)}
		}
	}
	for _, x := range a {
		if x.inf() {
			return viaFloat(op, a)
		}
	}

	switch op {
	case def.OpNeg:
		return xval{newf(a[0].v.Prec()).Neg(a[0].v), a[0].acc}
	case def.OpFabs:
		return xval{newf(a[0].v.Prec()).Abs(a[0].v), a[0].acc}
	case def.OpAdd:
		return addExact(a[0], a[1], false, prec)
	case def.OpSub:
		return addExact(a[0], a[1], true, prec)
	case def.OpMul:
		return mulExact(a[0], a[1], prec)
	case def.OpDiv:
		if a[1].v.Sign() == 0 {
			// x/0 is undefined over the reals, whatever IEEE says.
			return nanVal(a[1].exact())
		}
		if a[0].v.Sign() == 0 {
			return xval{newf(prec), min(a[0].acc, a[1].acc)}
		}
		return xval{newf(prec).Quo(a[0].v, a[1].v), lose(min(a[0].acc, a[1].acc, int(prec)), 1)}
	case def.OpFma:
		p := mulExact(a[0], a[1], prec)
		return addExact(p, a[2], false, prec)
	case def.OpHypot:
		s := addExact(mulExact(a[0], a[0], prec), mulExact(a[1], a[1], prec), false, prec)
		return sqrtExact(s, prec)
	case def.OpSqrt:
		return sqrtExact(a[0], prec)
	case def.OpCbrt:
		return xval{bigCbrt(a[0].v, prec), min(a[0].acc, int(prec))}
	case def.OpExp:
		// relative error grows by |x|
		return xval{bigExp(a[0].v, prec), lose(min(a[0].acc, int(prec)), max(exponent(a[0].v), 0))}
	case def.OpExpm1:
		x := a[0].v
		if x.Sign() == 0 {
			return xval{newf(prec), a[0].acc}
		}
		if exponent(x) < 0 {
			return xval{expm1Series(x, prec), min(a[0].acc, int(prec))}
		}
		r := bigExp(x, prec)
		r.Sub(r, one(prec))
		return xval{r, lose(min(a[0].acc, int(prec)), max(exponent(x), 0))}
	case def.OpLog:
		return logExact(a[0], prec)
	case def.OpLog1p:
		x := a[0].v
		if x.Sign() == 0 {
			return xval{newf(prec), a[0].acc}
		}
		if exponent(x) < 0 {
			return xval{log1pSeries(x, prec), min(a[0].acc, int(prec))}
		}
		return logExact(addExact(xval{one(prec), exactAcc}, a[0], false, prec), prec)
	case def.OpPow:
		return powExact(a[0], a[1], prec)
	case def.OpSin, def.OpCos, def.OpTan:
		return trigExact(op, a[0], prec)
	case def.OpAtan:
		return xval{bigAtan(a[0].v, prec), min(a[0].acc, int(prec))}
	case def.OpAtan2:
		return atan2Exact(a[0], a[1], prec)
	case def.OpFmin, def.OpFmax:
		c := a[0].v.Cmp(a[1].v)
		if (op == def.OpFmin) == (c <= 0) {
			return a[0]
		}
		return a[1]
	case def.OpFloor, def.OpCeil, def.OpRound:
		return roundExact(op, a[0])
	}
	panic(def.ValidationError.New("no exact semantics for %s", op))
}

func minAcc(a []xval) int {
	m := exactAcc
	for _, x := range a {
		m = min(m, x.acc)
	}
	return m
}

func lose(acc, bits int) int {
	if acc == exactAcc {
		return acc
	}
	return acc - bits
}

/*
	viaFloat handles infinite operands by deferring to IEEE semantics,
	which already describe the limits correctly (1/inf = 0, exp(-inf) =
	0, inf-inf undefined, ...).
*/
func viaFloat(op def.Operator, a []xval) xval {
	fs := make([]float64, len(a))
	for i, x := range a {
		fs[i], _ = x.v.Float64()
	}
	r := applyFloat(op, fs)
	if math.IsNaN(r) {
		return nanVal(minAcc(a) >= reliableBits)
	}
	return xval{new(big.Float).SetFloat64(r), minAcc(a)}
}

func addExact(x, y xval, subtract bool, prec uint) xval {
	yv := y.v
	if subtract {
		yv = new(big.Float).Neg(y.v)
	}
	if x.v.Sign() == 0 {
		return xval{yv, y.acc}
	}
	if yv.Sign() == 0 {
		return x
	}
	ex, ey := exponent(x.v), exponent(yv)
	// Bits needed to hold the sum without rounding.
	lo := min(ex-int(x.v.MinPrec()), ey-int(yv.MinPrec()))
	need := max(ex, ey) - lo + 2
	p := prec
	exactOp := x.exact() && y.exact() && need <= maxExactBits
	if exactOp {
		p = uint(max(need, 64))
	}
	z := newf(p).Add(x.v, yv)
	if exactOp {
		return xval{z, exactAcc}
	}
	if z.Sign() == 0 {
		// Cancellation down to nothing: the true value could be anything small.
		return xval{z, 0}
	}
	// Each inexact operand's absolute error, measured against the result.
	ez := exponent(z)
	acc := int(prec)
	if !x.exact() {
		acc = min(acc, x.acc-(ex-ez))
	}
	if !y.exact() {
		acc = min(acc, y.acc-(ey-ez))
	}
	return xval{z, acc}
}

func mulExact(x, y xval, prec uint) xval {
	if x.exact() && y.exact() {
		need := x.v.MinPrec() + y.v.MinPrec()
		if need <= maxExactBits {
			return xval{newf(max(need, 64)).Mul(x.v, y.v), exactAcc}
		}
	}
	z := newf(prec).Mul(x.v, y.v)
	if z.Sign() == 0 {
		// One side is exactly zero; the product is too.
		return xval{z, exactAcc}
	}
	acc := lose(min(x.acc, y.acc, int(prec)), 1)
	return xval{z, acc}
}

func sqrtExact(x xval, prec uint) xval {
	switch x.v.Sign() {
	case 0:
		return xval{newf(prec), x.acc}
	case -1:
		return nanVal(x.acc > 0)
	}
	return xval{newf(prec).Sqrt(x.v), min(x.acc, int(prec))}
}

func logExact(x xval, prec uint) xval {
	if x.v.Sign() <= 0 {
		return nanVal(x.exact() || (x.v.Sign() < 0 && x.acc > 0))
	}
	r := bigLog(x.v, prec)
	if r.Sign() == 0 {
		return xval{r, x.acc}
	}
	// Near 1 the result is much smaller than the argument and inherits its error.
	return xval{r, lose(min(x.acc, int(prec)), max(-exponent(r), 0))}
}

func trigExact(op def.Operator, x xval, prec uint) xval {
	s, c := bigSinCos(x.v, prec)
	// Absolute error in x is about |x| * 2^-acc; a result near zero loses relative accuracy.
	acc := min(x.acc, int(prec))
	ex := max(exponent(x.v), 0)
	switch op {
	case def.OpSin:
		return xval{s, lose(acc, ex+max(-exponent(s), 0))}
	case def.OpCos:
		return xval{c, lose(acc, ex+max(-exponent(c), 0))}
	}
	if c.Sign() == 0 {
		return nanVal(false)
	}
	t := newf(prec).Quo(s, c)
	return xval{t, lose(acc, ex+max(-exponent(s), 0)+max(-exponent(c), 0)+1)}
}

func atan2Exact(y, x xval, prec uint) xval {
	acc := min(y.acc, x.acc, int(prec))
	switch x.v.Sign() {
	case 0:
		switch y.v.Sign() {
		case 0:
			return nanVal(x.exact() && y.exact())
		case 1:
			h := bigPi(prec)
			return xval{h.SetMantExp(h, -1), acc}
		default:
			h := bigPi(prec)
			h.SetMantExp(h, -1)
			return xval{h.Neg(h), acc}
		}
	case 1:
		q := newf(prec + guardBits).Quo(y.v, x.v)
		return xval{bigAtan(q, prec), lose(acc, 1)}
	default:
		q := newf(prec + guardBits).Quo(y.v, x.v)
		r := bigAtan(q, prec+guardBits)
		pi := bigPi(prec + guardBits)
		if y.v.Sign() >= 0 {
			r.Add(r, pi)
		} else {
			r.Sub(r, pi)
		}
		return xval{newf(prec).Set(r), lose(acc, 1)}
	}
}

func powExact(x, y xval, prec uint) xval {
	if y.v.Sign() == 0 {
		if x.v.Sign() == 0 {
			return nanVal(x.exact() && y.exact())
		}
		return xval{one(prec), y.acc}
	}
	if x.v.Sign() == 0 {
		if y.v.Sign() < 0 {
			return nanVal(x.exact() && y.exact())
		}
		return xval{newf(prec), x.acc}
	}
	if y.exact() && y.v.IsInt() {
		n, _ := y.v.Int64()
		if x.exact() && n > 0 && n <= 64 {
			r := x
			for i := int64(1); i < n; i++ {
				r = mulExact(r, x, prec)
			}
			return r
		}
		if math.Abs(float64(n)) <= 1<<20 {
			bits := int(math.Ceil(math.Log2(math.Abs(float64(n))))) + 1
			return xval{bigPowInt(x.v, n, prec), lose(min(x.acc, int(prec)), bits)}
		}
	}
	if x.v.Sign() < 0 {
		// Non-integer powers of negative numbers aren't real.
		return nanVal(y.exact())
	}
	w := prec + guardBits
	l := bigLog(x.v, w)
	l.Mul(l, y.v)
	r := bigExp(l, prec)
	acc := lose(min(x.acc, y.acc, int(prec)), max(exponent(l), 0)+1)
	return xval{r, acc}
}

func roundExact(op def.Operator, x xval) xval {
	var i *big.Int
	switch op {
	case def.OpFloor:
		i = floorInt(x.v)
	case def.OpCeil:
		i = ceilInt(x.v)
	default:
		i = roundInt(x.v)
	}
	r := new(big.Float).SetInt(i)
	if x.exact() {
		return xval{r, exactAcc}
	}
	// Only trust the result if x is further from the rounding boundary than its error.
	var boundary *big.Float
	if op == def.OpRound {
		boundary = new(big.Float).SetPrec(x.v.Prec() + 2).Add(new(big.Float).SetInt(floorInt(x.v)), big.NewFloat(0.5))
	} else {
		boundary = new(big.Float).SetInt(roundInt(x.v))
	}
	d := newf(x.v.Prec()).Sub(x.v, boundary)
	if d.Sign() == 0 || exponent(d) <= exponent(x.v)-x.acc {
		return xval{r, 0}
	}
	return xval{r, exactAcc}
}
