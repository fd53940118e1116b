/*
	Behaviors every results index must have, written once and run
	against each implementation from that implementation's own tests.
*/
package tests

import (
	"context"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"polydawn.net/fperr/def"
	"polydawn.net/fperr/model/cassandra"
)

func summary(id string, status def.JobStatus) def.Summary {
	return def.Summary{
		Job:      def.JobID(id),
		Kind:     def.KindAnalyze,
		Path:     def.JobPath(def.JobID(id), def.KindAnalyze),
		Status:   status,
		Formula:  "(FPCore (x) (- (sqrt (+ x 1)) (sqrt x)))",
		Finished: time.Date(2016, 6, 1, 12, 0, 0, 0, time.UTC),
		Elapsed:  12.5,
	}
}

func CheckPublishing(kb cassandra.Cassandra) {
	ctx := context.Background()

	Convey("An empty index lists nothing", func() {
		list, err := kb.ListResults(ctx)
		So(err, ShouldBeNil)
		So(list, ShouldHaveLength, 0)
		s, err := kb.Result(ctx, "nope")
		So(err, ShouldBeNil)
		So(s, ShouldBeNil)
	})

	Convey("Published summaries are listed in publish order", func() {
		for _, id := range []string{"j1", "j3", "j2"} {
			ok, err := kb.PublishResult(ctx, summary(id, def.JobComplete))
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
		}
		list, err := kb.ListResults(ctx)
		So(err, ShouldBeNil)
		So(list, ShouldHaveLength, 3)
		So(list[0].Job, ShouldEqual, def.JobID("j1"))
		So(list[1].Job, ShouldEqual, def.JobID("j3"))
		So(list[2].Job, ShouldEqual, def.JobID("j2"))
		So(list[0].Path, ShouldEqual, "j1.analyze")
		So(list[0].Elapsed, ShouldEqual, 12.5)
		So(list[0].Finished.Equal(summary("j1", def.JobComplete).Finished), ShouldBeTrue)

		Convey("and can be fetched one at a time", func() {
			s, err := kb.Result(ctx, "j3")
			So(err, ShouldBeNil)
			So(s, ShouldNotBeNil)
			So(s.Status, ShouldEqual, def.JobComplete)
			So(s.Formula, ShouldEqual, "(FPCore (x) (- (sqrt (+ x 1)) (sqrt x)))")
		})
	})

	Convey("A job is only ever published once", func() {
		ok, err := kb.PublishResult(ctx, summary("once", def.JobFailed))
		So(err, ShouldBeNil)
		So(ok, ShouldBeTrue)
		ok, err = kb.PublishResult(ctx, summary("once", def.JobComplete))
		So(err, ShouldBeNil)
		So(ok, ShouldBeFalse)

		list, err := kb.ListResults(ctx)
		So(err, ShouldBeNil)
		So(list, ShouldHaveLength, 1)
		So(list[0].Status, ShouldEqual, def.JobFailed)
	})

	Convey("Observers hear about each accepted publish", func() {
		ch := make(chan def.Summary, 4)
		stop := kb.ObserveResults(ch)
		kb.PublishResult(ctx, summary("seen", def.JobComplete))
		kb.PublishResult(ctx, summary("seen", def.JobComplete))
		So((<-ch).Job, ShouldEqual, def.JobID("seen"))
		So(ch, ShouldHaveLength, 0)

		Convey("until they stop listening", func() {
			stop()
			kb.PublishResult(ctx, summary("unseen", def.JobComplete))
			So(ch, ShouldHaveLength, 0)
		})
	})
}
