package codegen

import (
	"math"
	"math/big"
	"strings"

	"polydawn.net/fperr/def"
)

// Binding strength of a rendered fragment.  Higher binds tighter.
const (
	precAdd  = 2
	precMul  = 3
	precNeg  = 4
	precAtom = 100
)

/*
	piece is a rendered subexpression.

	In fully parenthesized languages every infix node carries its own
	parentheses in `text`, and `bare` keeps the unparenthesized form so
	the outermost pair can be dropped at the root.
*/
type piece struct {
	text string
	bare string
	prec int
}

func atom(s string) piece { return piece{text: s, prec: precAtom} }

// top is the rendering used when a piece is the whole expression.
func (p piece) top() string {
	if p.bare != "" {
		return p.bare
	}
	return p.text
}

// renderer is the single expression walk shared by every target.
type renderer struct {
	lang *language
	vars map[string]string // input name to target identifier
}

func (r renderer) Var(v *def.Var) piece { return atom(r.vars[v.Name]) }

func (r renderer) Const(c *def.Const) piece { return atom(r.lang.consts[c.Name]) }

func (r renderer) Num(n *def.Num) piece {
	// A fraction that isn't a binary64 value is rendered as a division,
	// so the target rounds it the same way the evaluator does.
	if strings.Contains(n.Text, "/") && !dyadicFloat(n.Value) {
		p, q := n.Value.Num(), n.Value.Denom()
		if p.CmpAbs(maxExactInt) <= 0 && q.Cmp(maxExactInt) <= 0 {
			div := def.NewOp(def.OpDiv,
				def.NewNum(new(big.Rat).SetInt(p)),
				def.NewNum(new(big.Rat).SetInt(q)),
			)
			return def.Fold[piece](div, r)
		}
	}
	v := n.Float64()
	if math.IsInf(v, 0) {
		inf := r.lang.consts["INFINITY"]
		if v < 0 {
			return piece{text: "-" + inf, prec: precNeg}
		}
		return atom(inf)
	}
	s := r.lang.literal(v)
	if strings.HasPrefix(s, "-") {
		return piece{text: s, prec: precNeg}
	}
	return atom(s)
}

func (r renderer) Op(o *def.Op, args []piece) piece {
	l := r.lang
	var p piece
	if special, ok := l.special[o.Op]; ok {
		p = special(l, args)
	} else if name, ok := l.funcs[o.Op]; ok {
		texts := make([]string, len(args))
		for i, a := range args {
			texts[i] = a.text
		}
		p = atom(l.call(name, texts))
	} else if o.Op == def.OpNeg {
		p = l.negate(args[0])
	} else if _, ok := l.infixes[o.Op]; ok {
		p = l.binary(o.Op, args[0], args[1])
	} else {
		panic(UnsupportedTargetError.New("%s has no rendering for %s", l.name, o.Op))
	}
	if l.wrap != nil {
		p = l.wrap(o.Op, p)
	}
	return p
}

func (l *language) negate(a piece) piece {
	arg := a.text
	if a.prec < precNeg || strings.HasPrefix(arg, "-") {
		arg = l.paren(arg)
	}
	return l.infix("-"+arg, precNeg)
}

func (l *language) binary(op def.Operator, left, right piece) piece {
	prec := precAdd
	if op == def.OpMul || op == def.OpDiv {
		prec = precMul
	}
	lt, rt := left.text, right.text
	if left.prec < prec {
		lt = l.paren(lt)
	}
	// - and / don't associate to the right.
	if right.prec < prec || (right.prec == prec && (op == def.OpSub || op == def.OpDiv)) {
		rt = l.paren(rt)
	}
	return l.infix(lt+" "+l.infixes[op]+" "+rt, prec)
}

// infix finishes an operator expression in the language's parenthesization style.
func (l *language) infix(core string, prec int) piece {
	if l.minimal {
		return piece{text: core, prec: prec}
	}
	return piece{text: l.paren(core), bare: core, prec: precAtom}
}

// operand parenthesizes a piece that binds looser than `prec`.
func (l *language) operand(p piece, prec int) string {
	if p.prec < prec {
		return l.paren(p.text)
	}
	return p.text
}

func (l *language) paren(s string) string {
	return l.open + s + l.close
}

// 2^53: every integer up to here is exactly a binary64.
var maxExactInt = new(big.Int).Lsh(big.NewInt(1), 53)

func dyadicFloat(r *big.Rat) bool {
	f, exact := r.Float64()
	return exact && !math.IsInf(f, 0)
}
