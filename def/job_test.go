package def_test

import (
	"bytes"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/ugorji/go/codec"

	"polydawn.net/fperr/def"
	"polydawn.net/fperr/testutil"
)

func TestRequestIdentity(t *testing.T) {
	Convey("Job IDs should reflect the whole request", t, func() {
		f := def.MustParse("(FPCore (x) (- (sqrt (+ x 1)) (sqrt x)))")
		base := def.Request{
			Kind:    def.KindAnalyze,
			Formula: f,
			Sample:  def.SampleSet{{Inputs: []float64{1}, Output: 1e308}},
		}

		Convey("identical requests share an ID", func() {
			again := base
			again.Formula = def.MustParse("(FPCore (x)  (- (sqrt (+ x 1))\n (sqrt x)))")
			So(again.ID(), ShouldEqual, base.ID())
			So(base.Path(), ShouldEqual, string(base.ID())+".analyze")
		})

		Convey("any change to the sample changes the ID", func() {
			other := base
			other.Sample = def.SampleSet{{Inputs: []float64{math.Nextafter(1, 2)}, Output: 1e308}}
			So(other.ID(), ShouldNotEqual, base.ID())

			Convey("even just the sign of zero", func() {
				a, b := base, base
				a.Sample = def.SampleSet{{Inputs: []float64{0}, Output: 0}}
				b.Sample = def.SampleSet{{Inputs: []float64{math.Copysign(0, -1)}, Output: 0}}
				So(a.ID(), ShouldNotEqual, b.ID())
			})
		})

		Convey("the kind is part of the identity", func() {
			other := base
			other.Kind = def.KindLocalError
			So(other.ID(), ShouldNotEqual, base.ID())
		})

		Convey("fields the kind doesn't use are ignored", func() {
			a := def.Request{Kind: def.KindTranslate, Formula: f, Language: "c"}
			b := a
			b.Seed = 5
			b.Size = 100
			So(b.ID(), ShouldEqual, a.ID())
			c := a
			c.Language = "python"
			So(c.ID(), ShouldNotEqual, a.ID())
		})

		Convey("seeds distinguish sampled requests", func() {
			a := def.Request{Kind: def.KindSample, Formula: f, Seed: 5, Size: 8000}
			b := a
			b.Seed = 6
			So(b.ID(), ShouldNotEqual, a.ID())
		})
	})

	Convey("Request validation", t, func() {
		f := def.MustParse("(FPCore (x y) (+ x y))")
		Convey("rejects sample points of the wrong arity", func() {
			req := def.Request{Kind: def.KindAnalyze, Formula: f, Sample: def.SampleSet{{Inputs: []float64{1}}}}
			So(req.Validate(), testutil.ShouldBeErrorClass, def.ValidationError)
		})
		Convey("rejects unknown kinds", func() {
			req := def.Request{Kind: "frobnicate", Formula: f}
			So(req.Validate(), testutil.ShouldBeErrorClass, def.ValidationError)
		})
		Convey("rejects translations with no language", func() {
			req := def.Request{Kind: def.KindTranslate, Formula: f}
			So(req.Validate(), testutil.ShouldBeErrorClass, def.ValidationError)
		})
		Convey("accepts a seeded request", func() {
			req := def.Request{Kind: def.KindAnalyze, Formula: f, Seed: 1, Size: 10}
			So(req.Validate(), ShouldBeNil)
		})
	})
}

func TestRealSerialization(t *testing.T) {
	Convey("Reals should survive JSON", t, func() {
		values := []def.Real{1.5, def.Real(math.Inf(1)), def.Real(math.Inf(-1)), def.Real(math.NaN()), -0.25}
		var buf bytes.Buffer
		So(codec.NewEncoder(&buf, &codec.JsonHandle{}).Encode(values), ShouldBeNil)
		So(buf.String(), ShouldEqual, `[1.5,"+inf","-inf","nan",-0.25]`)

		var back []def.Real
		So(codec.NewDecoderBytes(buf.Bytes(), &codec.JsonHandle{}).Decode(&back), ShouldBeNil)
		So(len(back), ShouldEqual, 5)
		So(float64(back[0]), ShouldEqual, 1.5)
		So(math.IsInf(float64(back[1]), 1), ShouldBeTrue)
		So(math.IsInf(float64(back[2]), -1), ShouldBeTrue)
		So(math.IsNaN(float64(back[3])), ShouldBeTrue)

		Convey("and integers decode too", func() {
			var r def.Real
			So(codec.NewDecoderBytes([]byte(`3`), &codec.JsonHandle{}).Decode(&r), ShouldBeNil)
			So(float64(r), ShouldEqual, 3)
		})
	})
}
