package def

/*
	A Point pairs an input tuple with the formula's output there.

	Points produced by the sampler carry the exact output rounded to
	binary64.  Points supplied by callers carry whatever output they
	claim; the engine never trusts it for error measurement and
	recomputes exact values when it needs them.
*/
type Point struct {
	Inputs []float64 `json:"inputs"`
	Output float64   `json:"output"`
}

/*
	SampleSet is an ordered sequence of points.  Order is significant:
	it is part of the job identity and is reproduced exactly by the
	sampler for a given seed.
*/
type SampleSet []Point

// Check rejects sets whose points don't match the formula's arity.
func (s SampleSet) Check(arity int) error {
	for i, p := range s {
		if len(p.Inputs) != arity {
			return ValidationError.New("sample point %d has %d inputs; formula takes %d", i, len(p.Inputs), arity)
		}
	}
	return nil
}

// Inputs returns just the input tuples, in order.
func (s SampleSet) Inputs() [][]float64 {
	xs := make([][]float64, len(s))
	for i, p := range s {
		xs[i] = p.Inputs
	}
	return xs
}
