/*
	Behaviors every executor must have, whatever it wraps.  Each
	executor's own tests call these with a configured instance.
*/
package tests

import (
	"context"

	"github.com/inconshreveable/log15"
	. "github.com/smartystreets/goconvey/convey"

	"polydawn.net/fperr/codegen"
	"polydawn.net/fperr/def"
	"polydawn.net/fperr/executor"
	"polydawn.net/fperr/testutil"
)

var formula = def.MustParse("(FPCore (x) (- (+ x 1) x))")

func quiet() log15.Logger {
	log := log15.New()
	log.SetHandler(log15.DiscardHandler())
	return log
}

func run(execEng executor.Executor, req def.Request) (*def.Result, error) {
	return execEng.Run(context.Background(), req, quiet())
}

func CheckEveryKind(execEng executor.Executor) {
	Convey("Every kind should produce its own fields", func() {
		for _, tc := range []struct {
			kind  def.Kind
			check func(*def.Result)
		}{
			{def.KindSample, func(r *def.Result) { So(r.Points, ShouldHaveLength, 16) }},
			{def.KindAnalyze, func(r *def.Result) { So(r.Analysis.Points, ShouldHaveLength, 16) }},
			{def.KindLocalError, func(r *def.Result) { So(r.Tree.Expr, ShouldEqual, "(- (+ x 1) x)") }},
			{def.KindAlternatives, func(r *def.Result) {
				So(r.Alternatives, ShouldNotBeNil)
				So(r.Original, ShouldNotBeNil)
			}},
			{def.KindExplanations, func(r *def.Result) { So(len(r.Explanations), ShouldBeGreaterThan, 0) }},
			{def.KindExacts, func(r *def.Result) { So(r.Points, ShouldHaveLength, 16) }},
			{def.KindCalculate, func(r *def.Result) { So(r.Points, ShouldHaveLength, 16) }},
			{def.KindCost, func(r *def.Result) { So(r.Cost, ShouldBeGreaterThan, 0) }},
			{def.KindMathJS, func(r *def.Result) { So(r.Source, ShouldEqual, "x + 1.0 - x") }},
		} {
			res, err := run(execEng, def.Request{Kind: tc.kind, Formula: formula, Seed: 9, Size: 16})
			So(err, ShouldBeNil)
			So(res.Kind, ShouldEqual, tc.kind)
			tc.check(res)
		}
	})
}

func CheckDeterminism(execEng executor.Executor) {
	Convey("The same sampled request should get the same points", func() {
		req := def.Request{Kind: def.KindSample, Formula: formula, Seed: 3, Size: 8}
		a, err := run(execEng, req)
		So(err, ShouldBeNil)
		b, err := run(execEng, req)
		So(err, ShouldBeNil)
		So(b.Points, ShouldResemble, a.Points)
	})
}

func CheckErrors(execEng executor.Executor) {
	Convey("Unknown kinds should be refused", func() {
		_, err := run(execEng, def.Request{Kind: "frobnicate", Formula: formula})
		So(err, testutil.ShouldBeErrorClass, executor.UnknownOperationError)

		Convey("before drawing a single point", func() {
			hopeless := def.MustParse("(FPCore (x) (sqrt (- (fabs x) (+ (fabs x) 1))))")
			_, err := run(execEng, def.Request{Kind: "frobnicate", Formula: hopeless, Seed: 1, Size: 10})
			So(err, testutil.ShouldBeErrorClass, executor.UnknownOperationError)
		})
	})

	Convey("Unknown languages should be refused", func() {
		_, err := run(execEng, def.Request{Kind: def.KindTranslate, Formula: formula, Language: "cobol"})
		So(err, testutil.ShouldBeErrorClass, codegen.UnsupportedTargetError)
	})
}
