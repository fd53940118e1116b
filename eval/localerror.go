package eval

import (
	"math"
	"math/big"

	"polydawn.net/fperr/def"
)

// NodeTrace is one subexpression measured at one point.
type NodeTrace struct {
	Path  def.Path
	Expr  def.Expr
	Float float64   // the subtree evaluated in floating point
	Exact float64   // the subtree's exact value, correctly rounded
	Args  []float64 // children's exact values, correctly rounded
	Alone float64   // the operator alone applied in floating point to Args
	Bits  float64   // error of Float against Exact
	Local float64   // error of the operator alone, applied to Args
}

/*
	Trace evaluates every subexpression of the body at one point, both
	ways, in pre-order.  Nodes with no operator have zero local error.

	If the exact value of the whole body is undefined or unsure there is
	nothing meaningful to attribute; the status says why and the trace
	is nil.
*/
func Trace(f *def.Formula, inputs []float64) ([]NodeTrace, Status) {
	vars := make(map[string]*big.Float, f.Arity())
	fvars := make(map[string]float64, f.Arity())
	for j, name := range f.Inputs() {
		x := inputs[j]
		if math.IsNaN(x) {
			return nil, Invalid
		}
		vars[name] = new(big.Float).SetFloat64(x)
		fvars[name] = x
	}
	exacts := make(map[def.Expr]xval)
	_, st, _ := exactAdaptive(f.Body(), vars, exacts)
	if st != Valid && st != Infinite {
		return nil, st
	}
	floats := make(map[def.Expr]float64)
	def.Fold[float64](f.Body(), recordingFloat{floatVisitor{fvars}, floats})

	var trace []NodeTrace
	def.Walk(f.Body(), func(p def.Path, e def.Expr) bool {
		n := NodeTrace{Path: p, Expr: e, Float: floats[e], Exact: rounded(exacts[e])}
		n.Bits, _ = ErrorBits(n.Float, n.Exact)
		if o, ok := e.(*def.Op); ok {
			n.Args = make([]float64, len(o.Args))
			for a, child := range o.Args {
				n.Args[a] = rounded(exacts[child])
			}
			n.Alone = applyFloat(o.Op, n.Args)
			n.Local, _ = ErrorBits(n.Alone, n.Exact)
		}
		trace = append(trace, n)
		return true
	})
	return trace, st
}

// Traces runs Trace at every point, in parallel.  Unusable points get a nil trace.
func Traces(f *def.Formula, inputs [][]float64) [][]NodeTrace {
	traces := make([][]NodeTrace, len(inputs))
	parallel(len(inputs), func(i int) {
		traces[i], _ = Trace(f, inputs[i])
	})
	return traces
}

/*
	LocalError attributes error to each subexpression of the body.

	At every sample point with a defined exact result, each node is
	scored twice: its subtree evaluated in floating point against the
	subtree's exact value (AvgError), and its operator alone applied in
	floating point to its children's correctly rounded exact values
	(LocalError).  The tree reports the averages over those points.
*/
func LocalError(f *def.Formula, sample def.SampleSet) (*def.ErrorTree, error) {
	traces := Traces(f, sample.Inputs())

	var shape []NodeTrace
	var avgSum, localSum []float64
	counted := 0
	for _, tr := range traces {
		if tr == nil {
			continue
		}
		if shape == nil {
			shape = tr
			avgSum = make([]float64, len(tr))
			localSum = make([]float64, len(tr))
		}
		counted++
		for k := range tr {
			avgSum[k] += tr[k].Bits
			localSum[k] += tr[k].Local
		}
	}
	if counted == 0 {
		return nil, DomainError.New("no sample point has a defined exact value")
	}

	trees := make(map[string]*def.ErrorTree, len(shape))
	for k, n := range shape {
		t := &def.ErrorTree{
			Expr:       n.Expr.String(),
			Path:       n.Path.String(),
			AvgError:   avgSum[k] / float64(counted),
			LocalError: localSum[k] / float64(counted),
		}
		trees[t.Path] = t
		if len(n.Path) > 0 {
			parent := trees[n.Path[:len(n.Path)-1].String()]
			parent.Children = append(parent.Children, t)
		}
	}
	return trees[def.Path(nil).String()], nil
}

func rounded(x xval) float64 {
	if x.nan() {
		return math.NaN()
	}
	r, _ := x.v.Float64()
	return r
}

// Fills `record` with every node's float value as the fold passes it.
type recordingFloat struct {
	floatVisitor
	record map[def.Expr]float64
}

func (v recordingFloat) Num(n *def.Num) float64 {
	r := v.floatVisitor.Num(n)
	v.record[n] = r
	return r
}

func (v recordingFloat) Var(x *def.Var) float64 {
	r := v.floatVisitor.Var(x)
	v.record[x] = r
	return r
}

func (v recordingFloat) Const(c *def.Const) float64 {
	r := v.floatVisitor.Const(c)
	v.record[c] = r
	return r
}

func (v recordingFloat) Op(o *def.Op, args []float64) float64 {
	r := v.floatVisitor.Op(o, args)
	v.record[o] = r
	return r
}
