package sample

import (
	"math"
	"testing"

	"github.com/spacemonkeygo/errors"
	. "github.com/smartystreets/goconvey/convey"

	"polydawn.net/fperr/def"
	"polydawn.net/fperr/eval"
	"polydawn.net/fperr/testutil"
)

func TestSample(t *testing.T) {
	f := def.MustParse("(FPCore (x) (- (sqrt (+ x 1)) (sqrt x)))")

	Convey("Sampling", t, func() {
		Convey("should be deterministic for a seed", func() {
			a, statsA, err := Sample(f, 1, 64)
			So(err, ShouldBeNil)
			b, statsB, err := Sample(f, 1, 64)
			So(err, ShouldBeNil)
			So(a, ShouldHaveLength, 64)
			So(statsA, ShouldResemble, statsB)
			for i := range a {
				So(a[i].Inputs, testutil.ShouldHaveSameBits, b[i].Inputs)
				So([]float64{a[i].Output}, testutil.ShouldHaveSameBits, []float64{b[i].Output})
			}

			Convey("and a prefix of a larger draw", func() {
				c, _, err := Sample(f, 1, 80)
				So(err, ShouldBeNil)
				for i := range a {
					So(c[i].Inputs, testutil.ShouldHaveSameBits, a[i].Inputs)
				}
			})
		})

		Convey("should differ across seeds", func() {
			a, _, _ := Sample(f, 1, 16)
			b, _, _ := Sample(f, 2, 16)
			same := 0
			for i := range a {
				if math.Float64bits(a[i].Inputs[0]) == math.Float64bits(b[i].Inputs[0]) {
					same++
				}
			}
			So(same, ShouldBeLessThan, 16)
		})

		Convey("should only keep points inside the domain", func() {
			points, stats, err := Sample(f, 7, 100)
			So(err, ShouldBeNil)
			for _, p := range points {
				So(p.Inputs[0], ShouldBeGreaterThanOrEqualTo, 0)
				So(math.IsNaN(p.Output), ShouldBeFalse)
				So(math.IsInf(p.Output, 0), ShouldBeFalse)
				want, st := eval.Exact(f, p.Inputs)
				So(st, ShouldEqual, eval.Valid)
				So(p.Output, ShouldEqual, want)
			}
			So(stats.Accepted, ShouldEqual, 100)
			So(stats.Invalid, ShouldBeGreaterThan, 0)
			So(stats.Drawn, ShouldEqual, stats.Accepted+stats.NonFinite+stats.FailedPre+stats.Invalid+stats.Infinite+stats.Unsure)
		})

		Convey("should honor preconditions", func() {
			g := def.MustParse("(FPCore (x y) :pre (and (< 0 x) (< y 0)) (+ x y))")
			points, stats, err := Sample(g, 3, 20)
			So(err, ShouldBeNil)
			for _, p := range points {
				So(p.Inputs, ShouldHaveLength, 2)
				So(p.Inputs[0], ShouldBeGreaterThan, 0)
				So(p.Inputs[1], ShouldBeLessThan, 0)
			}
			So(stats.FailedPre, ShouldBeGreaterThan, 0)
		})

		Convey("should give up on formulas defined nowhere", func() {
			g := def.MustParse("(FPCore (x) (sqrt (- -1 (* x x))))")
			_, stats, err := Sample(g, 1, 10)
			So(err, testutil.ShouldBeErrorClass, eval.DomainError)
			So(stats.Accepted, ShouldEqual, 0)
			So(stats.MaxRejects, ShouldEqual, maxConsecutiveRejects)
			attached, ok := errors.GetData(err, StatsKey).(*Stats)
			So(ok, ShouldBeTrue)
			So(attached.Drawn, ShouldEqual, stats.Drawn)
		})

		Convey("should reject a nonsense size", func() {
			_, _, err := Sample(f, 1, 0)
			So(err, testutil.ShouldBeErrorClass, def.ValidationError)
		})
	})
}
