package server

import (
	"fmt"
	"io"

	"github.com/ugorji/go/codec"

	"polydawn.net/fperr/def"
)

var jsonHandle = &codec.JsonHandle{}

func init() {
	jsonHandle.Canonical = true
	// Big whole-number floats go out without a point or exponent; they
	// must come back in as floats, not overflow an int.
	jsonHandle.PreferFloat = true
}

func decodeJSON(r io.Reader, v interface{}) error {
	if err := codec.NewDecoder(r, jsonHandle).Decode(v); err != nil {
		return def.ValidationError.New("bad request body: %s", err)
	}
	return nil
}

/*
	The body of every `/api/*` call.  Fields a kind has no use for are
	ignored.
*/
type apiRequest struct {
	Formula  string      `json:"formula"`
	Seed     *uint64     `json:"seed"`
	Size     int         `json:"size"`
	Sample   []wirePoint `json:"sample"`
	Language string      `json:"language"`
}

/*
	A point on the wire is a pair: `[[x0, x1, ...], y]`.  Non-finite
	numbers are the strings "+inf", "-inf", and "nan".
*/
type wirePoint def.Point

var _ codec.Selfer = &wirePoint{}

func (p *wirePoint) CodecEncodeSelf(e *codec.Encoder) {
	e.MustEncode([]interface{}{def.Reals(p.Inputs), def.Real(p.Output)})
}

func (p *wirePoint) CodecDecodeSelf(d *codec.Decoder) {
	var raw []interface{}
	d.MustDecode(&raw)
	if len(raw) != 2 {
		panic(def.ValidationError.New("a sample point is [[inputs...], output]; got %d elements", len(raw)))
	}
	xs, ok := raw[0].([]interface{})
	if !ok {
		panic(def.ValidationError.New("a sample point's inputs must be a list"))
	}
	p.Inputs = make([]float64, len(xs))
	for i, x := range xs {
		p.Inputs[i] = mustNumber(x)
	}
	p.Output = mustNumber(raw[1])
}

func mustNumber(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	case string:
		f, err := def.ParseReal(n)
		if err != nil {
			panic(err)
		}
		return f
	default:
		panic(def.ValidationError.New("expected a number, got %T", v))
	}
}

func toWire(points []def.Point) []*wirePoint {
	out := make([]*wirePoint, len(points))
	for i := range points {
		p := wirePoint(points[i])
		out[i] = &p
	}
	return out
}

func fromWire(points []wirePoint) def.SampleSet {
	if len(points) == 0 {
		return nil
	}
	out := make(def.SampleSet, len(points))
	for i, p := range points {
		out[i] = def.Point(p)
	}
	return out
}

/*
	The response body for a finished job: its id and result path, plus
	the kind's own fields.
*/
func payload(rec def.JobRecord) map[string]interface{} {
	body := map[string]interface{}{
		"job":  rec.ID,
		"path": rec.Path,
	}
	res := rec.Result
	if res == nil {
		return body
	}
	switch rec.Kind {
	case def.KindSample:
		body["points"] = toWire(res.Points)
		body["seed"] = res.Seed
	case def.KindAnalyze:
		points := make([][]interface{}, len(res.Analysis.Points))
		for i, p := range res.Analysis.Points {
			points[i] = []interface{}{def.Reals(p.Inputs), fmt.Sprintf("%.1f", p.Bits)}
		}
		body["points"] = points
		body["error"] = res.Analysis.Average
	case def.KindLocalError:
		body["tree"] = res.Tree
	case def.KindAlternatives, def.KindImprove:
		formulas := make([]string, len(res.Alternatives))
		for i, alt := range res.Alternatives {
			formulas[i] = alt.Formula
		}
		body["alternatives"] = formulas
		body["details"] = res.Alternatives
		if res.Original != nil {
			body["original"] = res.Original
		}
	case def.KindExplanations:
		body["explanation"] = res.Explanations
	case def.KindExacts, def.KindCalculate:
		body["points"] = toWire(res.Points)
	case def.KindCost:
		body["cost"] = res.Cost
	case def.KindTranslate:
		body["result"] = res.Source
		body["language"] = res.Language
	case def.KindMathJS:
		body["mathjs"] = res.Source
	}
	if res.Seed != 0 && rec.Kind != def.KindSample {
		body["seed"] = res.Seed
	}
	return body
}
