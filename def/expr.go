package def

import (
	"math/big"
	"strings"
)

/*
	Expr is a node in a formula's expression tree.

	The set of node types is closed: `*Num`, `*Var`, `*Const`, and `*Op`.
	Consumers switch on the concrete type (or use `Fold` with a `Visitor`);
	nothing outside this package implements Expr.
*/
type Expr interface {
	// FPCore rendering of the subtree.
	String() string

	isExpr()
}

// A numeric literal.  Value is exact; Text is what the user wrote.
type Num struct {
	Value *big.Rat
	Text  string
}

type Var struct {
	Name string
}

// A named constant (PI, E, INFINITY, NAN).
type Const struct {
	Name string
}

type Op struct {
	Op   Operator
	Args []Expr
}

func (*Num) isExpr()   {}
func (*Var) isExpr()   {}
func (*Const) isExpr() {}
func (*Op) isExpr()    {}

func NewNum(r *big.Rat) *Num {
	r = new(big.Rat).Set(r)
	return &Num{Value: r, Text: ratText(r)}
}

func NewInt(n int64) *Num {
	return NewNum(new(big.Rat).SetInt64(n))
}

// Float64 returns the binary64 value nearest the literal.
func (n *Num) Float64() float64 {
	f, _ := n.Value.Float64()
	return f
}

func (n *Num) IsInt() bool { return n.Value.IsInt() }

/*
	NewOp builds an operator node.  Arity must already have been checked
	by the caller (the parser and the rewriter both do); a mismatch here
	is a bug and panics.
*/
func NewOp(op Operator, args ...Expr) *Op {
	if !op.Accepts(len(args)) {
		panic(ValidationError.New("operator %s given %d args", op, len(args)))
	}
	return &Op{Op: op, Args: args}
}

func (n *Num) String() string   { return n.Text }
func (v *Var) String() string   { return v.Name }
func (c *Const) String() string { return c.Name }
func (o *Op) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	if o.Op == OpNeg {
		sb.WriteByte('-')
	} else {
		sb.WriteString(o.Op.String())
	}
	for _, a := range o.Args {
		sb.WriteByte(' ')
		sb.WriteString(a.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

func ratText(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String()
	}
	return r.RatString()
}

var constants = map[string]bool{
	"PI":       true,
	"E":        true,
	"INFINITY": true,
	"NAN":      true,
}

func IsConstant(name string) bool { return constants[name] }

// Equal reports structural equality; literals compare by exact value.
func Equal(a, b Expr) bool {
	switch a := a.(type) {
	case *Num:
		b, ok := b.(*Num)
		return ok && a.Value.Cmp(b.Value) == 0
	case *Var:
		b, ok := b.(*Var)
		return ok && a.Name == b.Name
	case *Const:
		b, ok := b.(*Const)
		return ok && a.Name == b.Name
	case *Op:
		b, ok := b.(*Op)
		if !ok || a.Op != b.Op || len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !Equal(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Size counts the nodes in the tree.
func Size(e Expr) int {
	o, ok := e.(*Op)
	if !ok {
		return 1
	}
	n := 1
	for _, a := range o.Args {
		n += Size(a)
	}
	return n
}
