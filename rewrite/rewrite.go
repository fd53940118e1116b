package rewrite

import (
	"polydawn.net/fperr/def"
)

// Rewrite is the result of applying one rule at one place.
type Rewrite struct {
	Rule   string
	Path   def.Path
	Result def.Expr // the whole rewritten tree, not just the subtree
}

/*
	All applies every rule at every subexpression of `e` and returns each
	successful application, in pre-order of the paths and then rule order.
*/
func All(e def.Expr, rules []Rule) []Rewrite {
	var out []Rewrite
	def.Walk(e, func(p def.Path, sub def.Expr) bool {
		if _, ok := sub.(*def.Op); !ok {
			return false
		}
		for _, r := range rules {
			if replaced, ok := r.Apply(sub); ok {
				out = append(out, Rewrite{
					Rule:   r.Name,
					Path:   append(def.Path(nil), p...),
					Result: def.Replace(e, p, replaced),
				})
			}
		}
		return true
	})
	return out
}
