package engine

import (
	"context"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"polydawn.net/fperr/codegen"
	"polydawn.net/fperr/def"
	"polydawn.net/fperr/eval"
	"polydawn.net/fperr/executor/tests"
	"polydawn.net/fperr/improve"
	"polydawn.net/fperr/testutil"
)

func TestEngine(t *testing.T) {
	f := def.MustParse("(FPCore (x) (- (sqrt (+ x 1)) (sqrt x)))")
	opts := improve.DefaultOptions()
	opts.Iterations = 1
	e := New(opts)
	given := def.SampleSet{{Inputs: []float64{1}}, {Inputs: []float64{1e15}}, {Inputs: []float64{-1}}}

	Convey("The engine executor", t, func(c C) {
		log := testutil.TestLogger(c)
		run := func(req def.Request) (*def.Result, error) {
			return e.Run(context.Background(), req, log)
		}

		Convey("should draw samples from the seed", func() {
			res, err := run(def.Request{Kind: def.KindSample, Formula: f, Seed: 4, Size: 32})
			So(err, ShouldBeNil)
			So(res.Points, ShouldHaveLength, 32)
			So(res.Seed, ShouldEqual, 4)
		})

		Convey("should compute exacts at given points", func() {
			res, err := run(def.Request{Kind: def.KindExacts, Formula: f, Sample: given})
			So(err, ShouldBeNil)
			So(res.Points, ShouldHaveLength, 3)
			So(res.Points[0].Output, ShouldEqual, 0.41421356237309503)
			So(res.Points[1].Output, ShouldEqual, 1.5811388300841893e-08)
			So(math.IsNaN(res.Points[2].Output), ShouldBeTrue)
		})

		Convey("should compute floats at given points", func() {
			res, err := run(def.Request{Kind: def.KindCalculate, Formula: f, Sample: given})
			So(err, ShouldBeNil)
			So(res.Points[0].Output, ShouldEqual, 0.41421356237309515)
			So(res.Points[0].Inputs, ShouldResemble, []float64{1})
		})

		Convey("should analyze and attribute error", func() {
			res, err := run(def.Request{Kind: def.KindAnalyze, Formula: f, Sample: given})
			So(err, ShouldBeNil)
			So(res.Analysis.Points, ShouldHaveLength, 3)
			So(res.Analysis.Average, ShouldBeGreaterThan, 0)

			res, err = run(def.Request{Kind: def.KindLocalError, Formula: f, Sample: given})
			So(err, ShouldBeNil)
			So(res.Tree.AvgError, ShouldBeGreaterThan, 0)
		})

		Convey("should explain and search", func() {
			res, err := run(def.Request{Kind: def.KindExplanations, Formula: f, Seed: 1, Size: 64})
			So(err, ShouldBeNil)
			So(res.Explanations, ShouldNotBeEmpty)

			res, err = run(def.Request{Kind: def.KindAlternatives, Formula: f, Seed: 1, Size: 64})
			So(err, ShouldBeNil)
			So(res.Alternatives, ShouldNotBeNil)
			So(res.Original.Formula, ShouldEqual, f.String())
		})

		Convey("should price and translate without a sample", func() {
			res, err := run(def.Request{Kind: def.KindCost, Formula: f})
			So(err, ShouldBeNil)
			So(res.Cost, ShouldEqual, eval.Cost(f))

			res, err = run(def.Request{Kind: def.KindTranslate, Formula: f, Language: "js"})
			So(err, ShouldBeNil)
			So(res.Source, ShouldStartWith, "function expr(x)")

			res, err = run(def.Request{Kind: def.KindMathJS, Formula: f})
			So(err, ShouldBeNil)
			So(res.Source, ShouldEqual, "sqrt(x + 1.0) - sqrt(x)")

			_, err = run(def.Request{Kind: def.KindTranslate, Formula: f, Language: "cobol"})
			So(err, testutil.ShouldBeErrorClass, codegen.UnsupportedTargetError)
		})

		Convey("should surface domain failures", func() {
			g := def.MustParse("(FPCore (x) (sqrt (- -1 (* x x))))")
			_, err := run(def.Request{Kind: def.KindAnalyze, Formula: g, Seed: 1, Size: 8})
			So(err, testutil.ShouldBeErrorClass, eval.DomainError)
		})
	})
}

func TestEngineConformance(t *testing.T) {
	opts := improve.DefaultOptions()
	opts.Iterations = 1
	Convey("The engine executor", t, func() {
		e := New(opts)
		tests.CheckEveryKind(e)
		tests.CheckDeterminism(e)
		tests.CheckErrors(e)
	})
}
