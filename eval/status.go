package eval

// Status classifies the outcome of exact evaluation at one point.
type Status int

const (
	// The exact value is a finite binary64 number.
	Valid Status = iota

	// The expression is undefined there (sqrt of a negative, 0/0, ...).
	Invalid

	// The exact value exists but rounds to an infinity.
	Infinite

	// Precision ran out before the result settled.
	Unsure
)

func (s Status) String() string {
	switch s {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	case Infinite:
		return "infinite"
	case Unsure:
		return "unsure"
	default:
		return "?"
	}
}
