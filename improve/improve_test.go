package improve

import (
	"context"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"polydawn.net/fperr/def"
	"polydawn.net/fperr/eval"
	"polydawn.net/fperr/sample"
	"polydawn.net/fperr/testutil"
)

func TestSearch(t *testing.T) {
	f := def.MustParse("(FPCore (x) (- (sqrt (+ x 1)) (sqrt x)))")
	points, _, err := sample.Sample(f, 1, 256)
	if err != nil {
		t.Fatal(err)
	}
	opts := DefaultOptions()
	opts.Iterations = 2

	Convey("Search should find the conjugate form", t, func() {
		res, err := Search(context.Background(), f, points, opts)
		So(err, ShouldBeNil)
		So(res.Original.Formula, ShouldEqual, f)
		So(res.Original.Error, ShouldBeGreaterThan, 10)
		So(res.Alternatives, ShouldNotBeEmpty)

		So(res.Alternatives[0].Error, ShouldBeLessThan, 2)
		var conjugate *Candidate
		for i, c := range res.Alternatives {
			if c.Formula.Body().String() == "(/ 1 (+ (sqrt (+ x 1)) (sqrt x)))" {
				conjugate = &res.Alternatives[i]
			}
		}
		So(conjugate, ShouldNotBeNil)
		So(conjugate.Error, ShouldBeLessThan, 2)
		So(conjugate.Derivation, ShouldResemble, []string{"flip--"})

		Convey("and return a frontier", func() {
			for i := 1; i < len(res.Alternatives); i++ {
				So(res.Alternatives[i].Error, ShouldBeGreaterThanOrEqualTo, res.Alternatives[i-1].Error)
				So(res.Alternatives[i].Cost, ShouldBeLessThan, res.Alternatives[i-1].Cost)
			}
			for _, c := range res.Alternatives {
				So(c.Formula.String(), ShouldNotEqual, f.String())
				So(c.Error < res.Original.Error || c.Cost < res.Original.Cost, ShouldBeTrue)
				So(c.Formula.Body().String(), ShouldNotEqual, "(- (sqrt (+ 1 x)) (sqrt x))")
			}
		})

		Convey("and not offer a mere reshuffle of an exact formula", func() {
			g := def.MustParse("(FPCore (x) (+ x 1))")
			res, err := Search(context.Background(), g, points, opts)
			So(err, ShouldBeNil)
			for _, c := range res.Alternatives {
				So(c.Error < res.Original.Error || c.Cost < res.Original.Cost, ShouldBeTrue)
				So(c.Formula.Body().String(), ShouldNotEqual, "(+ 1 x)")
			}
		})
	})

	Convey("Alternatives should never be nil", t, func() {
		alts, orig, err := Alternatives(context.Background(), def.MustParse("(FPCore (x) x)"), points, opts)
		So(err, ShouldBeNil)
		So(alts, ShouldNotBeNil)
		So(alts, ShouldBeEmpty)
		So(orig.Error, ShouldEqual, 0)

		alts, _, err = Alternatives(context.Background(), f, def.SampleSet{{Inputs: []float64{-2}}}, opts)
		So(err, testutil.ShouldBeErrorClass, eval.DomainError)
		So(alts, ShouldNotBeNil)
	})

	Convey("Search should stop when cancelled", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Search(ctx, f, points, opts)
		So(err, ShouldEqual, context.Canceled)
	})
}

func TestExplain(t *testing.T) {
	Convey("Explain", t, func() {
		Convey("should blame cancellation in the subtraction", func() {
			f := def.MustParse("(FPCore (x) (- (sqrt (+ x 1)) (sqrt x)))")
			points, _, err := sample.Sample(f, 1, 256)
			So(err, ShouldBeNil)
			expl, err := Explain(f, points)
			So(err, ShouldBeNil)
			So(expl, ShouldNotBeEmpty)
			So(expl[0].Op, ShouldEqual, "-")
			So(expl[0].Kind, ShouldEqual, def.ExplainCancellation)
			So(expl[0].Count, ShouldBeGreaterThan, 10)
			So(expl[0].Example, ShouldHaveLength, 1)
			for i := 1; i < len(expl); i++ {
				So(expl[i].Count, ShouldBeLessThanOrEqualTo, expl[i-1].Count)
			}
		})

		Convey("should blame overflow in a square", func() {
			f := def.MustParse("(FPCore (x) (sqrt (* x x)))")
			expl, err := Explain(f, def.SampleSet{{Inputs: []float64{1e200}}, {Inputs: []float64{3}}})
			So(err, ShouldBeNil)
			So(expl, ShouldHaveLength, 1)
			So(expl[0].Kind, ShouldEqual, def.ExplainOverflow)
			So(expl[0].Expr, ShouldEqual, "(sqrt (* x x))")
		})

		Convey("should say so when nothing goes wrong", func() {
			f := def.MustParse("(FPCore (x) (* x 2))")
			expl, err := Explain(f, def.SampleSet{{Inputs: []float64{1}}, {Inputs: []float64{-3.5}}})
			So(err, ShouldBeNil)
			So(expl, ShouldHaveLength, 1)
			So(expl[0].Kind, ShouldEqual, def.ExplainAccurate)
			So(expl[0].Count, ShouldEqual, 2)
			So(strings.Contains(expl[0].Expr, "x"), ShouldBeTrue)
		})
	})
}
