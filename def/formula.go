package def

import (
	"strconv"
	"strings"
)

/*
	Formula describes `f(inputs) -> real`: an ordered list of named
	real-valued inputs, an optional precondition restricting which input
	points are meaningful, and the body expression.

	Formulas are constructed only by `Parse` or `NewFormula`, both of
	which validate the tree, and are never mutated afterwards.
*/
type Formula struct {
	name   string
	inputs []string
	pre    Expr // may be nil
	body   Expr
}

/*
	NewFormula checks that every variable in the body and precondition is
	declared, that input names are unique, and that boolean operators
	appear only in the precondition.
*/
func NewFormula(name string, inputs []string, pre Expr, body Expr) (*Formula, error) {
	if body == nil {
		return nil, ParseError.New("formula has no body")
	}
	declared := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		if declared[in] {
			return nil, ParseError.New("duplicate input %q", in)
		}
		if IsConstant(in) {
			return nil, ParseError.New("input %q shadows a constant", in)
		}
		declared[in] = true
	}
	if err := checkTree(body, declared, false); err != nil {
		return nil, err
	}
	if pre != nil {
		if err := checkTree(pre, declared, true); err != nil {
			return nil, err
		}
	}
	return &Formula{
		name:   name,
		inputs: append([]string(nil), inputs...),
		pre:    pre,
		body:   body,
	}, nil
}

func checkTree(e Expr, declared map[string]bool, allowBool bool) (err error) {
	Walk(e, func(_ Path, n Expr) bool {
		if err != nil {
			return false
		}
		switch n := n.(type) {
		case *Var:
			if !declared[n.Name] {
				err = ParseError.New("unknown variable %q", n.Name)
			}
		case *Op:
			if !n.Op.Accepts(len(n.Args)) {
				err = ParseError.New("operator %s given %d args", n.Op, len(n.Args))
			} else if n.Op.Boolean() && !allowBool {
				err = ParseError.New("boolean operator %s outside of a precondition", n.Op)
			}
		}
		return true
	})
	return
}

func (f *Formula) Name() string       { return f.name }
func (f *Formula) Inputs() []string   { return append([]string(nil), f.inputs...) }
func (f *Formula) Arity() int         { return len(f.inputs) }
func (f *Formula) Body() Expr         { return f.body }
func (f *Formula) Pre() Expr          { return f.pre }
func (f *Formula) Input(i int) string { return f.inputs[i] }

/*
	With returns a new formula sharing this one's name, inputs, and
	precondition but computing `body` instead.  Used by the rewriter to
	produce alternatives.
*/
func (f *Formula) With(body Expr) *Formula {
	return &Formula{
		name:   f.name,
		inputs: f.inputs,
		pre:    f.pre,
		body:   body,
	}
}

// String renders the canonical FPCore text.  Parsing it yields an equal formula.
func (f *Formula) String() string {
	var sb strings.Builder
	sb.WriteString("(FPCore (")
	sb.WriteString(strings.Join(f.inputs, " "))
	sb.WriteString(")")
	if f.name != "" {
		sb.WriteString(" :name ")
		sb.WriteString(strconv.Quote(f.name))
	}
	if f.pre != nil {
		sb.WriteString(" :pre ")
		sb.WriteString(f.pre.String())
	}
	sb.WriteByte(' ')
	sb.WriteString(f.body.String())
	sb.WriteByte(')')
	return sb.String()
}

/*
	Returns a hash covering the canonical text of the formula.  Two formulas
	hash alike exactly when their canonical renderings match, so literal
	spellings (`1.0` vs `1`) are the only thing that can make equal
	formulas hash apart.

	The returned string is the base58 encoding of a SHA-384 hash, though
	there is no reason you should treat it as anything but opaque.
*/
func (f *Formula) Hash() string {
	return HashOf(f.String())
}
