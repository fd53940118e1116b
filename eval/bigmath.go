package eval

import (
	"math"
	"math/big"
	"sync"
)

/*
	Elementary functions over math/big.Float.

	Every function here takes the precision the caller wants and works
	internally with `guardBits` more, so the result is accurate to about
	the requested precision for arguments that are themselves exact.
	Inputs must be finite; the exact evaluator routes non-finite values
	elsewhere before getting here.
*/

const guardBits = 64

// Arguments beyond 2**hugeExp make exp overflow anything representable.
const hugeExp = 40

func newf(prec uint) *big.Float {
	return new(big.Float).SetPrec(prec)
}

func one(prec uint) *big.Float {
	return newf(prec).SetInt64(1)
}

// exponent returns e such that 2**(e-1) <= |x| < 2**e; zero for x == 0.
func exponent(x *big.Float) int {
	if x.Sign() == 0 {
		return 0
	}
	return x.MantExp(nil)
}

// negligible reports whether `term` no longer affects `sum` at precision w.
func negligible(term, sum *big.Float, w uint) bool {
	return term.Sign() == 0 || (sum.Sign() != 0 && exponent(term) < exponent(sum)-int(w)-2)
}

var consts = struct {
	sync.Mutex
	pi  *big.Float
	ln2 *big.Float
}{}

// bigPi returns pi to at least `prec` bits, computed by Machin's formula.
func bigPi(prec uint) *big.Float {
	consts.Lock()
	defer consts.Unlock()
	if consts.pi == nil || consts.pi.Prec() < prec {
		w := prec + guardBits
		// pi = 16 arccot(5) - 4 arccot(239)
		a := arccot(5, w)
		a.Mul(a, newf(w).SetInt64(16))
		b := arccot(239, w)
		b.Mul(b, newf(w).SetInt64(4))
		consts.pi = newf(prec).Sub(a, b)
	}
	return newf(prec).Set(consts.pi)
}

// bigLn2 returns log(2) to at least `prec` bits, as 2 atanh(1/3).
func bigLn2(prec uint) *big.Float {
	consts.Lock()
	defer consts.Unlock()
	if consts.ln2 == nil || consts.ln2.Prec() < prec {
		w := prec + guardBits
		z := newf(w).Quo(one(w), newf(w).SetInt64(3))
		s := atanhSeries(z, w)
		consts.ln2 = newf(prec).Mul(s, newf(w).SetInt64(2))
	}
	return newf(prec).Set(consts.ln2)
}

// arccot(n) = sum (-1)^k / ((2k+1) n^(2k+1))
func arccot(n int64, w uint) *big.Float {
	nf := newf(w).SetInt64(n)
	n2 := newf(w).Mul(nf, nf)
	pow := newf(w).Quo(one(w), nf)
	sum := newf(w).Set(pow)
	for k := int64(1); ; k++ {
		pow.Quo(pow, n2)
		term := newf(w).Quo(pow, newf(w).SetInt64(2*k+1))
		if k%2 == 1 {
			sum.Sub(sum, term)
		} else {
			sum.Add(sum, term)
		}
		if negligible(term, sum, w) {
			return sum
		}
	}
}

// atanhSeries(z) = z + z^3/3 + z^5/5 + ...  for |z| < 1.
func atanhSeries(z *big.Float, w uint) *big.Float {
	z2 := newf(w).Mul(z, z)
	pow := newf(w).Set(z)
	sum := newf(w).Set(z)
	for k := int64(3); ; k += 2 {
		pow.Mul(pow, z2)
		term := newf(w).Quo(pow, newf(w).SetInt64(k))
		sum.Add(sum, term)
		if negligible(term, sum, w) {
			return sum
		}
	}
}

func bigExp(x *big.Float, prec uint) *big.Float {
	if x.Sign() == 0 {
		return one(prec)
	}
	if exponent(x) > hugeExp {
		if x.Sign() > 0 {
			return newf(prec).SetInf(false)
		}
		// Far below the smallest binary64, but still positive.
		return newf(prec).SetMantExp(one(prec), math.MinInt32/2)
	}
	w := prec + guardBits
	kbits := uint(max(exponent(x), 0)) + 2
	wide := w + kbits
	ln2 := bigLn2(wide)

	// x = k ln2 + r, |r| <= ln2/2
	k := roundInt(newf(wide).Quo(x, ln2))
	r := newf(wide).Mul(ln2, newf(wide).SetInt(k))
	r.Sub(x, r)
	r.SetPrec(w)

	// exp(r) = exp(r / 2^s)^(2^s)
	const s = 8
	r.SetMantExp(r, -s)
	sum := one(w)
	term := one(w)
	for n := int64(1); ; n++ {
		term.Mul(term, r)
		term.Quo(term, newf(w).SetInt64(n))
		sum.Add(sum, term)
		if negligible(term, sum, w) {
			break
		}
	}
	for i := 0; i < s; i++ {
		sum.Mul(sum, sum)
	}
	return newf(prec).SetMantExp(sum, int(k.Int64()))
}

// expm1Series computes exp(x)-1 directly, for |x| < 1/2 where subtracting would cancel.
func expm1Series(x *big.Float, prec uint) *big.Float {
	w := prec + guardBits
	sum := newf(w).Set(x)
	term := newf(w).Set(x)
	for n := int64(2); ; n++ {
		term.Mul(term, x)
		term.Quo(term, newf(w).SetInt64(n))
		sum.Add(sum, term)
		if negligible(term, sum, w) {
			return newf(prec).Set(sum)
		}
	}
}

// bigLog requires x > 0.
func bigLog(x *big.Float, prec uint) *big.Float {
	w := prec + guardBits
	mp := max(w, x.Prec())
	m := newf(mp)
	e := x.MantExp(m)
	m.SetPrec(mp)
	// Bring m into [sqrt(1/2), sqrt(2)) so that log(m) never cancels against e*ln2.
	if m.Cmp(newf(64).SetFloat64(math.Sqrt2/2)) < 0 {
		m.SetMantExp(m, 1)
		e--
	}
	d := newf(mp).Sub(m, one(mp))
	if d.Sign() == 0 && e == 0 {
		return newf(prec)
	}

	// log(m) = 2^j log(m^(1/2^j)); take square roots while m is far from 1.
	j := 0
	if d.Sign() != 0 && exponent(d) > -10 {
		m.SetPrec(w)
		for j < 8 && exponent(d) > -10 {
			m.Sqrt(m)
			d = newf(w).Sub(m, one(w))
			j++
		}
	}
	// log(m) = 2 atanh((m-1)/(m+1))
	z := newf(w).Quo(d, newf(w).Add(m, one(w)))
	res := newf(w)
	if z.Sign() != 0 {
		res = atanhSeries(z, w)
		res.SetMantExp(res, j+1)
	}
	if e != 0 {
		ebits := uint(64)
		t := newf(w + ebits).Mul(bigLn2(w+ebits), newf(w+ebits).SetInt64(int64(e)))
		res = newf(w).Add(t, res)
	}
	return newf(prec).Set(res)
}

// log1pSeries computes log(1+x) as 2 atanh(x/(2+x)), for |x| < 1/2.
func log1pSeries(x *big.Float, prec uint) *big.Float {
	w := prec + guardBits
	z := newf(w).Quo(x, newf(w).Add(newf(w).SetInt64(2), x))
	res := atanhSeries(z, w)
	res.SetMantExp(res, 1)
	return newf(prec).Set(res)
}

// bigSinCos reduces x modulo pi/2 and evaluates both Taylor series on the remainder.
func bigSinCos(x *big.Float, prec uint) (sin, cos *big.Float) {
	if x.Sign() == 0 {
		return newf(prec), one(prec)
	}
	w := prec + guardBits
	wide := w + uint(max(exponent(x), 0)) + 8
	halfPi := bigPi(wide)
	halfPi.SetMantExp(halfPi, -1)

	k := roundInt(newf(wide).Quo(x, halfPi))
	r := newf(wide).Mul(halfPi, newf(wide).SetInt(k))
	r.Sub(x, r)
	r.SetPrec(w)

	r2 := newf(w).Mul(r, r)
	s := newf(w).Set(r)
	term := newf(w).Set(r)
	for n := int64(1); ; n += 2 {
		term.Mul(term, r2)
		term.Quo(term, newf(w).SetInt64((n+1)*(n+2)))
		term.Neg(term)
		s.Add(s, term)
		if negligible(term, s, w) {
			break
		}
	}
	c := one(w)
	term = one(w)
	for n := int64(0); ; n += 2 {
		term.Mul(term, r2)
		term.Quo(term, newf(w).SetInt64((n+1)*(n+2)))
		term.Neg(term)
		c.Add(c, term)
		if negligible(term, c, w) {
			break
		}
	}

	q := new(big.Int).Mod(k, big.NewInt(4)).Int64()
	switch q {
	case 0:
		return newf(prec).Set(s), newf(prec).Set(c)
	case 1:
		return newf(prec).Set(c), newf(prec).Neg(s)
	case 2:
		return newf(prec).Neg(s), newf(prec).Neg(c)
	default:
		return newf(prec).Neg(c), newf(prec).Set(s)
	}
}

func bigAtan(x *big.Float, prec uint) *big.Float {
	if x.Sign() == 0 {
		return newf(prec)
	}
	w := prec + guardBits
	a := newf(w).Abs(x)
	inverted := a.Cmp(one(w)) > 0
	if inverted {
		a.Quo(one(w), a)
	}
	// atan(a) = 2 atan(a / (1 + sqrt(1 + a^2)))
	j := 0
	for exponent(a) > -8 {
		d := newf(w).Mul(a, a)
		d.Add(d, one(w))
		d.Sqrt(d)
		d.Add(d, one(w))
		a.Quo(a, d)
		j++
	}
	a2 := newf(w).Mul(a, a)
	sum := newf(w).Set(a)
	pow := newf(w).Set(a)
	for k := int64(3); ; k += 2 {
		pow.Mul(pow, a2)
		pow.Neg(pow)
		term := newf(w).Quo(pow, newf(w).SetInt64(k))
		sum.Add(sum, term)
		if negligible(term, sum, w) {
			break
		}
	}
	sum.SetMantExp(sum, j)
	if inverted {
		halfPi := bigPi(w)
		halfPi.SetMantExp(halfPi, -1)
		sum.Sub(halfPi, sum)
	}
	if x.Sign() < 0 {
		sum.Neg(sum)
	}
	return newf(prec).Set(sum)
}

// bigCbrt refines the binary64 cube root with Newton's method.
func bigCbrt(x *big.Float, prec uint) *big.Float {
	if x.Sign() == 0 {
		return newf(prec)
	}
	w := prec + guardBits
	a := newf(max(w, x.Prec())).Abs(x)
	m := newf(a.Prec())
	e := a.MantExp(m)
	// Make the exponent a multiple of three.
	r := ((e % 3) + 3) % 3
	m.SetMantExp(m, r)
	e -= r
	mf, _ := m.Float64()
	y := newf(w).SetFloat64(math.Cbrt(mf))
	y.SetMantExp(y, e/3)

	three := newf(w).SetInt64(3)
	for bits := uint(40); ; bits *= 2 {
		// y = (2y + a/y^2) / 3
		y2 := newf(w).Mul(y, y)
		t := newf(w).Quo(a, y2)
		y.Add(y, y)
		y.Add(y, t)
		y.Quo(y, three)
		if bits > w {
			break
		}
	}
	if x.Sign() < 0 {
		y.Neg(y)
	}
	return newf(prec).Set(y)
}

// bigPowInt computes x^n by repeated squaring.  x^0 is 1.
func bigPowInt(x *big.Float, n int64, prec uint) *big.Float {
	w := prec + guardBits + 64
	neg := n < 0
	if neg {
		n = -n
	}
	acc := one(w)
	base := newf(w).Set(x)
	for n > 0 {
		if n&1 == 1 {
			acc.Mul(acc, base)
		}
		n >>= 1
		if n > 0 {
			base.Mul(base, base)
		}
	}
	if neg {
		acc.Quo(one(w), acc)
	}
	return newf(prec).Set(acc)
}

// roundInt rounds half away from zero.
func roundInt(x *big.Float) *big.Int {
	half := newf(x.Prec() + 2).SetFloat64(0.5)
	t := newf(x.Prec() + 2)
	if x.Sign() < 0 {
		t.Sub(x, half)
	} else {
		t.Add(x, half)
	}
	i, _ := t.Int(nil)
	return i
}

func floorInt(x *big.Float) *big.Int {
	i, acc := x.Int(nil)
	if acc == big.Above { // truncated a negative non-integer upward
		i.Sub(i, big.NewInt(1))
	}
	return i
}

func ceilInt(x *big.Float) *big.Int {
	i, acc := x.Int(nil)
	if acc == big.Below {
		i.Add(i, big.NewInt(1))
	}
	return i
}
