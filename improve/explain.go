package improve

import (
	"math"
	"sort"

	"polydawn.net/fperr/def"
	"polydawn.net/fperr/eval"
)

// A node must lose more than this many bits at a point to be blamed for it.
const explainThreshold = 1

// Operators whose output amplifies relative error in their input.
var illConditioned = map[def.Operator]bool{
	def.OpExp:   true,
	def.OpExpm1: true,
	def.OpLog:   true,
	def.OpLog1p: true,
	def.OpPow:   true,
	def.OpSin:   true,
	def.OpCos:   true,
	def.OpTan:   true,
	def.OpAtan2: true,
}

/*
	Explain lists the operations that lose accuracy on the sample, and
	why, most frequent first.  The list is never empty: a formula that
	loses nothing gets a single "accurate" item covering the whole body.
*/
func Explain(f *def.Formula, sample def.SampleSet) ([]def.Explanation, error) {
	inputs := sample.Inputs()
	traces := eval.Traces(f, inputs)

	type key struct {
		path string
		kind string
	}
	found := map[key]*def.Explanation{}
	var order []key
	usable := 0
	for i, tr := range traces {
		if tr == nil {
			continue
		}
		usable++
		for _, n := range tr {
			o, ok := n.Expr.(*def.Op)
			if !ok || n.Local <= explainThreshold {
				continue
			}
			k := key{n.Path.String(), classify(o.Op, n)}
			if e, ok := found[k]; ok {
				e.Count++
				continue
			}
			found[k] = &def.Explanation{
				Op:      o.Op.String(),
				Expr:    o.String(),
				Kind:    k.kind,
				Count:   1,
				Example: inputs[i],
			}
			order = append(order, k)
		}
	}
	if usable == 0 {
		return []def.Explanation{}, eval.DomainError.New("no sample point has a defined exact value")
	}
	if len(order) == 0 {
		root := def.Explanation{Expr: f.Body().String(), Kind: def.ExplainAccurate, Count: usable}
		if o, ok := f.Body().(*def.Op); ok {
			root.Op = o.Op.String()
		}
		return []def.Explanation{root}, nil
	}
	out := make([]def.Explanation, len(order))
	for i, k := range order {
		out[i] = *found[k]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out, nil
}

/*
	classify names the mechanism by which one operation lost accuracy at
	one point, looking at its correctly rounded inputs and exact output.
*/
func classify(op def.Operator, n eval.NodeTrace) string {
	switch {
	case math.IsInf(n.Alone, 0) && !math.IsInf(n.Exact, 0):
		return def.ExplainOverflow
	case anyInf(n.Args) && !math.IsInf(n.Exact, 0):
		return def.ExplainOverflow
	case len(n.Args) == 2 && subtracting(op, n.Args[0], n.Args[1]) && cancels(n):
		return def.ExplainCancellation
	case n.Exact != 0 && math.Abs(n.Alone) < smallestNormal:
		return def.ExplainUnderflow
	case illConditioned[op]:
		return def.ExplainSensitivity
	}
	return def.ExplainRounding
}

const smallestNormal = 0x1p-1022

// subtracting reports whether an add or subtract combines opposite signs.
func subtracting(op def.Operator, a, b float64) bool {
	switch op {
	case def.OpAdd:
		return math.Signbit(a) != math.Signbit(b)
	case def.OpSub:
		return math.Signbit(a) == math.Signbit(b)
	}
	return false
}

// cancels reports whether the result is much smaller than what went in.
func cancels(n eval.NodeTrace) bool {
	if n.Exact == 0 {
		return true
	}
	_, out := math.Frexp(n.Exact)
	_, a := math.Frexp(n.Args[0])
	_, b := math.Frexp(n.Args[1])
	return out < max(a, b)-1
}

func anyInf(xs []float64) bool {
	for _, x := range xs {
		if math.IsInf(x, 0) {
			return true
		}
	}
	return false
}
