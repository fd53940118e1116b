package codegen

import (
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"polydawn.net/fperr/def"
	"polydawn.net/fperr/testutil"
)

func TestTranslate(t *testing.T) {
	f := def.MustParse("(FPCore (x) (- (sqrt (+ x 1)) (sqrt x)))")

	Convey("Translation of the sqrt difference", t, func() {
		for _, tc := range []struct {
			lang string
			want string
		}{
			{"c", "double expr(double x) {\n\treturn sqrt((x + 1.0)) - sqrt(x);\n}\n"},
			{"python", "def expr(x):\n\treturn math.sqrt((x + 1.0)) - math.sqrt(x)\n"},
			{"java", "public static double expr(double x) {\n\treturn Math.sqrt((x + 1.0)) - Math.sqrt(x);\n}\n"},
			{"js", "function expr(x) {\n\treturn Math.sqrt((x + 1.0)) - Math.sqrt(x);\n}\n"},
			{"julia", "function expr(x)\n\treturn Float64(sqrt(Float64(x + 1.0)) - sqrt(x))\nend\n"},
			{"matlab", "function tmp = expr(x)\n\ttmp = sqrt((x + 1.0)) - sqrt(x);\nend\n"},
			{"fortran", "real(8) function expr(x)\n    real(8), intent (in) :: x\n    expr = sqrt((x + 1.0d0)) - sqrt(x)\nend function\n"},
			{"wls", "expr[x_] := N[(N[Sqrt[N[(x + 1), $MachinePrecision]], $MachinePrecision] - N[Sqrt[x], $MachinePrecision]), $MachinePrecision]\n"},
			{"tex", "\\mathsf{expr}\\left(x\\right) = \\sqrt{x + 1} - \\sqrt{x}\n"},
			{"mathjs", "sqrt(x + 1.0) - sqrt(x)"},
			{"fpcore", "(FPCore (x) (- (sqrt (+ x 1)) (sqrt x)))\n"},
		} {
			Convey("into "+tc.lang, func() {
				out, err := Translate(f, tc.lang)
				So(err, ShouldBeNil)
				So(out, ShouldEqual, tc.want)

				again, _ := Translate(f, tc.lang)
				So(again, ShouldEqual, out)
			})
		}
	})

	Convey("Unknown targets should be refused", t, func() {
		_, err := Translate(f, "cobol")
		So(err, testutil.ShouldBeErrorClass, UnsupportedTargetError)
	})

	Convey("Every target should render every operator", t, func() {
		for _, lang := range Languages() {
			for _, op := range def.Operators() {
				args := make([]def.Expr, op.Arity())
				for i := range args {
					args[i] = &def.Var{Name: string(rune('a' + i))}
				}
				g, err := def.NewFormula("", []string{"a", "b", "c"}, nil, def.NewOp(op, args...))
				So(err, ShouldBeNil)
				out, err := Translate(g, lang)
				So(err, ShouldBeNil)
				So(out, ShouldNotBeBlank)
			}
		}
	})

	Convey("Python fma should not need a 3.13 math module", t, func() {
		out, err := Translate(def.MustParse("(FPCore (a b c) (fma a b c))"), "python")
		So(err, ShouldBeNil)
		So(out, ShouldEqual, "def expr(a, b, c):\n\treturn (a * b) + c\n")
		So(out, ShouldNotContainSubstring, "math.fma")
	})

	Convey("Precedence", t, func() {
		g := def.MustParse("(FPCore (x y) (/ (- x (- y 1)) (* (+ x y) 2)))")
		Convey("should be minimal where the target allows", func() {
			out, _ := Translate(g, "mathjs")
			So(out, ShouldEqual, "(x - (y - 1.0)) / ((x + y) * 2.0)")
			out, _ = Translate(g, "tex")
			So(out, ShouldEqual, "\\mathsf{expr}\\left(x, y\\right) = \\frac{x - \\left(y - 1\\right)}{\\left(x + y\\right) \\cdot 2}\n")
		})
		Convey("and explicit everywhere else", func() {
			out, _ := Translate(g, "c")
			So(out, ShouldEqual, "double expr(double x, double y) {\n\treturn (x - (y - 1.0)) / ((x + y) * 2.0);\n}\n")
		})
	})

	Convey("Literals", t, func() {
		Convey("should follow each language's conventions", func() {
			g := def.MustParse("(FPCore (x) (+ (* x 0.5) 1e-300))")
			out, _ := Translate(g, "c")
			So(out, ShouldContainSubstring, "return (x * 0.5) + 1e-300;")
			out, _ = Translate(g, "fortran")
			So(out, ShouldContainSubstring, "expr = (x * 0.5d0) + 1d-300")
			out, _ = Translate(g, "wls")
			So(out, ShouldContainSubstring, "1*^-300")
		})
		Convey("should spell out fractions that aren't binary64 values", func() {
			g := def.MustParse("(FPCore (x) (* x 1/3))")
			out, _ := Translate(g, "c")
			So(out, ShouldContainSubstring, "x * (1.0 / 3.0)")
			out, _ = Translate(g, "tex")
			So(out, ShouldContainSubstring, "x \\cdot \\frac{1}{3}")
		})
		Convey("should render constants", func() {
			g := def.MustParse("(FPCore (x) (* x PI))")
			out, _ := Translate(g, "python")
			So(out, ShouldContainSubstring, "x * math.pi")
			out, _ = Translate(g, "tex")
			So(out, ShouldContainSubstring, "x \\cdot \\pi")
		})
	})

	Convey("Identifiers should be made safe for the target", t, func() {
		g := def.MustParse("(FPCore (a.b return) (+ a.b return))")
		out, _ := Translate(g, "c")
		So(out, ShouldStartWith, "double expr(double a_b, double return_)")
		out, _ = Translate(g, "wls")
		So(strings.HasPrefix(out, "expr[ab_, return_] := "), ShouldBeTrue)
	})
}
