package def

// Bits of error are capped here: two binary64 values can't be further apart.
const MaxErrorBits = 64

/*
	PointError is the error measured at one sample point.

	Flag is set when something at the point deserves a note that a number
	can't carry: the float result overflowed while the exact one didn't,
	or the float result is NaN.  Such points still score (at the cap)
	rather than aborting the analysis.
*/
type PointError struct {
	Inputs []float64 `json:"inputs"`
	Float  float64   `json:"float"`
	Exact  float64   `json:"exact"`
	Bits   float64   `json:"bits"`
	Flag   string    `json:"flag,omitempty"`
}

const (
	FlagOverflow  = "overflow"  // float result infinite, exact finite
	FlagInvalid   = "invalid"   // float result NaN, exact defined
	FlagUndefined = "undefined" // exact result NaN: the point is outside the domain
	FlagUnsure    = "unsure"    // exact evaluation didn't settle
)

type ErrorReport struct {
	Points  []PointError `json:"points"`
	Average float64      `json:"average"`
	Max     float64      `json:"max"`
	Flagged int          `json:"flagged"`
}

/*
	ErrorTree mirrors a formula's expression tree.  Each node reports two
	averages over the sample, in bits:

	  - AvgError: the subtree evaluated in floating point against the
	    exact value of the subtree.  At the root this is the formula's
	    average error.
	  - LocalError: the error introduced by this node's operator alone,
	    i.e. the operator applied in floating point to the correctly
	    rounded exact values of its children.

	Leaves have zero local error; literals may still have nonzero
	AvgError when they aren't representable.
*/
type ErrorTree struct {
	Expr       string       `json:"e"`
	Path       string       `json:"path"`
	AvgError   float64      `json:"avg-error"`
	LocalError float64      `json:"local-error"`
	Children   []*ErrorTree `json:"children,omitempty"`
}

/*
	Alternative is one candidate formulation.  Derivation lists the rules
	applied, in order, to get here from the original.
*/
type Alternative struct {
	Formula    string   `json:"formula"`
	Error      float64  `json:"error"`
	Cost       float64  `json:"cost"`
	Derivation []string `json:"derivation"`
}

/*
	Explanation says where error arises and what kind it is.  Count is
	the number of sample points on which the node misbehaved that way;
	Example is one such input.
*/
type Explanation struct {
	Op      string    `json:"op"`
	Expr    string    `json:"expr"`
	Kind    string    `json:"kind"`
	Count   int       `json:"count"`
	Example []float64 `json:"example,omitempty"`
}

const (
	ExplainCancellation = "cancellation"
	ExplainOverflow     = "overflow"
	ExplainUnderflow    = "underflow"
	ExplainSensitivity  = "sensitivity"
	ExplainRounding     = "rounding"
	ExplainAccurate     = "accurate"
)
