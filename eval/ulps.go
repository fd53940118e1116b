package eval

import (
	"math"

	"polydawn.net/fperr/def"
)

/*
	ordinal maps binary64 values onto the integers so that adjacent
	floats are adjacent integers.  Both zeros map to 0.
*/
func ordinal(x float64) int64 {
	u := math.Float64bits(x)
	if u>>63 == 1 {
		return -int64(u &^ (1 << 63))
	}
	return int64(u)
}

// Ulps counts the representable values between a and b.
func Ulps(a, b float64) uint64 {
	oa, ob := ordinal(a), ordinal(b)
	if oa < ob {
		oa, ob = ob, oa
	}
	return uint64(oa) - uint64(ob)
}

/*
	ErrorBits is log2(1 + ulps) between the float and exact results,
	capped at 64.  When the float result is non-finite but the exact one
	isn't, the point scores the cap and a flag says why.  A NaN exact
	value has nothing to be measured against and scores zero.
*/
func ErrorBits(approx, exact float64) (bits float64, flag string) {
	switch {
	case math.IsNaN(exact):
		if math.IsNaN(approx) {
			return 0, ""
		}
		return 0, def.FlagUndefined
	case math.IsNaN(approx):
		return def.MaxErrorBits, def.FlagInvalid
	case math.IsInf(approx, 0) && !math.IsInf(exact, 0):
		return def.MaxErrorBits, def.FlagOverflow
	}
	bits = math.Log2(1 + float64(Ulps(approx, exact)))
	return math.Min(bits, def.MaxErrorBits), ""
}
