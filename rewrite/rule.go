/*
	The rewrite package holds the algebraic identities the search explores,
	and the simplifier that tidies up after them.

	Rules are written in FPCore syntax.  Every variable in a rule is a
	pattern variable; a variable used more than once must match equal
	subtrees each time.  Literals match by exact value; named constants
	match by name.
*/
package rewrite

import (
	"github.com/spacemonkeygo/errors"

	"polydawn.net/fperr/def"
)

var RuleError *errors.ErrorClass = errors.NewClass("RuleError")

type Rule struct {
	Name string
	From def.Expr
	To   def.Expr
}

/*
	NewRule parses both sides of an identity.  Every variable on the right
	must be bound on the left, and the left may not be a bare variable
	(it would match everything).
*/
func NewRule(name, from, to string) (Rule, error) {
	lhs, err := def.ParseExpr(from)
	if err != nil {
		return Rule{}, RuleError.Wrap(err)
	}
	rhs, err := def.ParseExpr(to)
	if err != nil {
		return Rule{}, RuleError.Wrap(err)
	}
	if _, ok := lhs.(*def.Op); !ok {
		return Rule{}, RuleError.New("rule %q: pattern %s must be an operation", name, lhs)
	}
	bound := map[string]bool{}
	for _, v := range def.FreeVars(lhs) {
		bound[v] = true
	}
	for _, v := range def.FreeVars(rhs) {
		if !bound[v] {
			return Rule{}, RuleError.New("rule %q: %s is not bound by %s", name, v, lhs)
		}
	}
	return Rule{Name: name, From: lhs, To: rhs}, nil
}

func MustRule(name, from, to string) Rule {
	r, err := NewRule(name, from, to)
	if err != nil {
		panic(err)
	}
	return r
}

func (r Rule) String() string {
	return r.Name + ": " + r.From.String() + " -> " + r.To.String()
}

/*
	Apply tries the rule at the root of `e` only.  The result shares the
	matched subtrees with `e`.
*/
func (r Rule) Apply(e def.Expr) (def.Expr, bool) {
	b := bindings{}
	if !b.match(r.From, e) {
		return nil, false
	}
	return b.subst(r.To), true
}

type bindings map[string]def.Expr

func (b bindings) match(pat, e def.Expr) bool {
	switch p := pat.(type) {
	case *def.Var:
		if prev, ok := b[p.Name]; ok {
			return def.Equal(prev, e)
		}
		b[p.Name] = e
		return true
	case *def.Num:
		n, ok := e.(*def.Num)
		return ok && n.Value.Cmp(p.Value) == 0
	case *def.Const:
		c, ok := e.(*def.Const)
		return ok && c.Name == p.Name
	case *def.Op:
		o, ok := e.(*def.Op)
		if !ok || o.Op != p.Op || len(o.Args) != len(p.Args) {
			return false
		}
		for i := range p.Args {
			if !b.match(p.Args[i], o.Args[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func (b bindings) subst(tmpl def.Expr) def.Expr {
	switch t := tmpl.(type) {
	case *def.Var:
		return b[t.Name]
	case *def.Op:
		args := make([]def.Expr, len(t.Args))
		for i, a := range t.Args {
			args[i] = b.subst(a)
		}
		return def.NewOp(t.Op, args...)
	default:
		// literals and constants are immutable; share them.
		return tmpl
	}
}
