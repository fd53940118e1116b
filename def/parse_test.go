package def_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"polydawn.net/fperr/def"
	"polydawn.net/fperr/testutil"
)

func TestParse(t *testing.T) {
	Convey("Parsing FPCore", t, func() {
		Convey("a plain formula should expose its inputs and body", func() {
			f, err := def.Parse("(FPCore (x) (- (sqrt (+ x 1)) (sqrt x)))")
			So(err, ShouldBeNil)
			So(f.Inputs(), ShouldResemble, []string{"x"})
			So(f.Arity(), ShouldEqual, 1)
			So(f.Pre(), ShouldBeNil)
			So(f.Body().String(), ShouldEqual, "(- (sqrt (+ x 1)) (sqrt x))")
			So(f.String(), ShouldEqual, "(FPCore (x) (- (sqrt (+ x 1)) (sqrt x)))")
		})

		Convey("unary minus should become negation", func() {
			f := def.MustParse("(FPCore (x) (- (sqrt (+ x 1))))")
			op, ok := f.Body().(*def.Op)
			So(ok, ShouldBeTrue)
			So(op.Op, ShouldEqual, def.OpNeg)
			So(f.Body().String(), ShouldEqual, "(- (sqrt (+ x 1)))")
		})

		Convey("properties should be read and survive canonicalization", func() {
			f, err := def.Parse(`(FPCore (x y) :name "hypot-ish" :precision binary64 :pre (< 0 x 10) (sqrt (+ (* x x) (* y y))))`)
			So(err, ShouldBeNil)
			So(f.Name(), ShouldEqual, "hypot-ish")
			So(f.Pre().String(), ShouldEqual, "(< 0 x 10)")
			again, err := def.Parse(f.String())
			So(err, ShouldBeNil)
			So(again.String(), ShouldEqual, f.String())
			So(again.Hash(), ShouldEqual, f.Hash())
		})

		Convey("variadic arithmetic should fold left", func() {
			f := def.MustParse("(FPCore (a b c) (+ a b c))")
			So(f.Body().String(), ShouldEqual, "(+ (+ a b) c)")
		})

		Convey("literals of every form should parse exactly", func() {
			f := def.MustParse("(FPCore (x) (+ (* 1/3 x) (- 2.5e-3 .5)))")
			op := f.Body().(*def.Op)
			third := op.Args[0].(*def.Op).Args[0].(*def.Num)
			So(third.Value.RatString(), ShouldEqual, "1/3")
			lit := op.Args[1].(*def.Op).Args[0].(*def.Num)
			So(lit.Value.RatString(), ShouldEqual, "1/400")
		})

		Convey("bare expressions take their free variables as inputs", func() {
			f, err := def.Parse("(+ y (* x y))")
			So(err, ShouldBeNil)
			So(f.Inputs(), ShouldResemble, []string{"y", "x"})
		})

		Convey("constants are not variables", func() {
			f, err := def.Parse("(* PI x)")
			So(err, ShouldBeNil)
			So(f.Inputs(), ShouldResemble, []string{"x"})
		})

		Convey("malformed text should be a ParseError", func() {
			for _, text := range []string{
				"",
				"(FPCore (x) (+ x 1)",
				"(FPCore (x) (+ x 1)))",
				"(FPCore (x) ())",
				"(FPCore (x) (frobnicate x))",
				"(FPCore (x) (sqrt x x))",
				"(FPCore (x) (+ x))",
				"(FPCore (x) (+ x y))",
				"(FPCore (x x) x)",
				"(FPCore (x) x x)",
				"(FPCore (x) :precision binary32 x)",
				"(FPCore (x) (< x 1))",
				"(FPCore (x) (+ x 1e99999))",
				"(FPCore (x) (+ x 1/0))",
				"(FPCore (x) (+ x 1..2))",
			} {
				_, err := def.Parse(text)
				So(err, testutil.ShouldBeErrorClass, def.ParseError)
			}
		})
	})
}

func TestExprTraversal(t *testing.T) {
	Convey("Given an expression tree", t, func() {
		f := def.MustParse("(FPCore (x) (- (sqrt (+ x 1)) (sqrt x)))")
		body := f.Body()

		Convey("Walk should visit nodes in pre-order with their paths", func() {
			var seen []string
			def.Walk(body, func(p def.Path, e def.Expr) bool {
				seen = append(seen, p.String()+" "+e.String())
				return true
			})
			So(seen, ShouldResemble, []string{
				". (- (sqrt (+ x 1)) (sqrt x))",
				"0 (sqrt (+ x 1))",
				"0.0 (+ x 1)",
				"0.0.0 x",
				"0.0.1 1",
				"1 (sqrt x)",
				"1.0 x",
			})
		})

		Convey("At and Replace should agree on paths", func() {
			p := def.Path{0, 0}
			So(def.At(body, p).String(), ShouldEqual, "(+ x 1)")
			So(def.At(body, def.Path{5}), ShouldBeNil)

			replaced := def.Replace(body, p, &def.Var{Name: "x"})
			So(replaced.String(), ShouldEqual, "(- (sqrt x) (sqrt x))")
			Convey("and leave the original untouched", func() {
				So(body.String(), ShouldEqual, "(- (sqrt (+ x 1)) (sqrt x))")
				So(def.At(replaced, def.Path{1}), ShouldEqual, def.At(body, def.Path{1}))
			})
		})

		Convey("Fold should compute bottom-up", func() {
			So(def.Fold[int](body, depthVisitor{}), ShouldEqual, 4)
			So(def.Size(body), ShouldEqual, 7)
		})

		Convey("Equal should compare structure and exact literal values", func() {
			a, _ := def.ParseExpr("(+ x 1.0)")
			b, _ := def.ParseExpr("(+ x 1)")
			c, _ := def.ParseExpr("(+ 1 x)")
			So(def.Equal(a, b), ShouldBeTrue)
			So(def.Equal(a, c), ShouldBeFalse)
		})

		Convey("NewOp should refuse wrong arity", func() {
			So(func() { def.NewOp(def.OpSqrt) }, testutil.ShouldPanicWith, def.ValidationError)
		})
	})
}

type depthVisitor struct{}

func (depthVisitor) Num(*def.Num) int     { return 1 }
func (depthVisitor) Var(*def.Var) int     { return 1 }
func (depthVisitor) Const(*def.Const) int { return 1 }
func (depthVisitor) Op(_ *def.Op, args []int) int {
	max := 0
	for _, a := range args {
		if a > max {
			max = a
		}
	}
	return max + 1
}
