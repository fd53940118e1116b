package def

import (
	"math"
	"strconv"

	"github.com/ugorji/go/codec"
)

/*
	Real is a float64 that survives JSON: finite values encode as numbers,
	and the non-finite ones as the strings "+inf", "-inf", and "nan".
	Decoding accepts either form (and integers).
*/
type Real float64

var _ codec.Selfer = new(Real)

func (r Real) CodecEncodeSelf(c *codec.Encoder) {
	f := float64(r)
	switch {
	case math.IsNaN(f):
		c.MustEncode("nan")
	case math.IsInf(f, 1):
		c.MustEncode("+inf")
	case math.IsInf(f, -1):
		c.MustEncode("-inf")
	default:
		c.MustEncode(f)
	}
}

func (r *Real) CodecDecodeSelf(c *codec.Decoder) {
	var val interface{}
	c.MustDecode(&val)
	switch val2 := val.(type) {
	case float64:
		*r = Real(val2)
	case int64:
		*r = Real(val2)
	case uint64:
		*r = Real(val2)
	case string:
		f, err := ParseReal(val2)
		if err != nil {
			panic(err)
		}
		*r = Real(f)
	default:
		panic(ValidationError.New("expected a number, got %T", val))
	}
}

// ParseReal reads a number in any of the forms Real encodes to, plus Go float syntax.
func ParseReal(s string) (float64, error) {
	switch s {
	case "nan", "NaN", "NAN":
		return math.NaN(), nil
	case "+inf", "inf", "+Inf", "Inf", "INFINITY", "+INFINITY":
		return math.Inf(1), nil
	case "-inf", "-Inf", "-INFINITY":
		return math.Inf(-1), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ValidationError.New("bad number %q", s)
	}
	return f, nil
}

func Reals(xs []float64) []Real {
	rs := make([]Real, len(xs))
	for i, x := range xs {
		rs[i] = Real(x)
	}
	return rs
}

func Floats(rs []Real) []float64 {
	xs := make([]float64, len(rs))
	for i, r := range rs {
		xs[i] = float64(r)
	}
	return xs
}
