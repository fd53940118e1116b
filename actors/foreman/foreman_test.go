package foreman

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/inconshreveable/log15"
	. "github.com/smartystreets/goconvey/convey"

	"polydawn.net/fperr/def"
	"polydawn.net/fperr/eval"
	"polydawn.net/fperr/executor"
	"polydawn.net/fperr/executor/impl/engine"
	"polydawn.net/fperr/improve"
	"polydawn.net/fperr/model/cassandra/impl/mem"
	"polydawn.net/fperr/scheduler/linear"
	"polydawn.net/fperr/testutil"
)

var sqrtDiff = def.MustParse("(FPCore (x) (- (sqrt (+ x 1)) (sqrt x)))")

func request(kind def.Kind, text string) def.Request {
	return def.Request{Kind: kind, Formula: def.MustParse(text), Seed: 1, Size: 64}
}

// An executor that counts its runs and answers with a cost.
func counting(n *int32) executor.Executor {
	return executor.Func(func(_ context.Context, req def.Request, log log15.Logger) (*def.Result, error) {
		atomic.AddInt32(n, 1)
		log.Info("counted")
		return &def.Result{Kind: req.Kind, Cost: eval.Cost(req.Formula)}, nil
	})
}

func newForeman(c C, e executor.Executor, max int) (*Foreman, *cassandra_mem.Base) {
	kb := cassandra_mem.New()
	s := &linear.Scheduler{}
	s.Configure(e, 1)
	s.Start()
	return New(Config{
		Executor:   e,
		Scheduler:  s,
		Results:    kb,
		MaxJobs:    max,
		SampleSize: 100,
		Log:        testutil.TestLogger(c),
	}), kb
}

func TestSubmit(t *testing.T) {
	Convey("Given a foreman over the engine", t, func(c C) {
		opts := improve.DefaultOptions()
		opts.Iterations = 1
		man, kb := newForeman(c, engine.New(opts), 0)
		ctx := context.Background()

		Convey("submitting an analysis should complete it inline", func() {
			req := def.Request{Kind: def.KindAnalyze, Formula: sqrtDiff, Seed: 1, Size: 64}
			rec, err := man.Submit(ctx, req)
			So(err, ShouldBeNil)
			So(rec.Status, ShouldEqual, def.JobComplete)
			So(rec.ID, ShouldEqual, req.ID())
			So(rec.Path, ShouldEqual, string(req.ID())+".analyze")
			So(rec.Result.Analysis.Points, ShouldHaveLength, 64)
			So(rec.Result.Seed, ShouldEqual, 1)
			So(rec.Finished.Before(rec.Started), ShouldBeFalse)

			Convey("and publish it exactly once", func() {
				list, _ := kb.ListResults(ctx)
				So(list, ShouldHaveLength, 1)
				So(list[0].Job, ShouldEqual, rec.ID)
				So(list[0].Status, ShouldEqual, def.JobComplete)

				again, err := man.Submit(ctx, req)
				So(err, ShouldBeNil)
				So(again.ID, ShouldEqual, rec.ID)
				So(again.Finished.Equal(rec.Finished), ShouldBeTrue)
				list, _ = kb.ListResults(ctx)
				So(list, ShouldHaveLength, 1)
			})
		})

		Convey("a request without a size should get the default", func() {
			rec, err := man.Submit(ctx, def.Request{Kind: def.KindSample, Formula: sqrtDiff, Seed: 3})
			So(err, ShouldBeNil)
			So(rec.Result.Points, ShouldHaveLength, 100)
		})

		Convey("a different sample should be a different job", func() {
			a := def.Request{Kind: def.KindExacts, Formula: sqrtDiff, Sample: def.SampleSet{{Inputs: []float64{1}}}}
			b := def.Request{Kind: def.KindExacts, Formula: sqrtDiff, Sample: def.SampleSet{{Inputs: []float64{2}}}}
			ra, err := man.Submit(ctx, a)
			So(err, ShouldBeNil)
			rb, err := man.Submit(ctx, b)
			So(err, ShouldBeNil)
			So(ra.ID, ShouldNotEqual, rb.ID)
			So(rb.Result.Points[0].Output, ShouldAlmostEqual, 0.3178372451957822, 1e-15)
		})

		Convey("an invalid request should be refused before it becomes a job", func() {
			_, err := man.Submit(ctx, def.Request{Kind: def.KindCost})
			So(err, testutil.ShouldBeErrorClass, def.ValidationError)
			_, err = man.Submit(ctx, def.Request{Kind: def.KindExacts, Formula: sqrtDiff,
				Sample: def.SampleSet{{Inputs: []float64{1, 2}}}})
			So(err, testutil.ShouldBeErrorClass, def.ValidationError)
			list, _ := kb.ListResults(ctx)
			So(list, ShouldHaveLength, 0)
		})

		Convey("an unsampleable formula should fail with a domain error", func() {
			rec, err := man.Submit(ctx, request(def.KindAnalyze, "(FPCore (x) (sqrt (- (fabs x))))"))
			So(err, testutil.ShouldBeErrorClass, eval.DomainError)
			So(rec.Status, ShouldEqual, def.JobFailed)
			So(rec.Failure, ShouldNotEqual, "")

			Convey("and still be published, as failed", func() {
				s, _ := kb.Result(ctx, rec.ID)
				So(s, ShouldNotBeNil)
				So(s.Status, ShouldEqual, def.JobFailed)
				So(s.Failure, ShouldEqual, rec.Failure)
			})
			Convey("and stay failed rather than rerun", func() {
				again, err := man.Submit(ctx, request(def.KindAnalyze, "(FPCore (x) (sqrt (- (fabs x))))"))
				So(err, testutil.ShouldBeErrorClass, eval.DomainError)
				So(again.Finished.Equal(rec.Finished), ShouldBeTrue)
			})
		})
	})
}

func TestJobLifecycle(t *testing.T) {
	ctx := context.Background()

	Convey("Identical requests should share one run", t, func(c C) {
		gate := make(chan struct{})
		var runs int32
		e := executor.Func(func(_ context.Context, req def.Request, _ log15.Logger) (*def.Result, error) {
			atomic.AddInt32(&runs, 1)
			<-gate
			return &def.Result{Kind: req.Kind, Cost: 1}, nil
		})
		man, kb := newForeman(c, e, 0)
		req := request(def.KindCost, "(FPCore (x) x)")

		var wg sync.WaitGroup
		ids := make([]def.JobID, 4)
		for i := range ids {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				rec, err := man.Submit(ctx, req)
				if err == nil && rec.Status == def.JobComplete {
					ids[i] = rec.ID
				}
			}(i)
		}
		close(gate)
		wg.Wait()
		for _, id := range ids {
			So(id, ShouldEqual, req.ID())
		}
		So(atomic.LoadInt32(&runs), ShouldEqual, 1)
		list, _ := kb.ListResults(ctx)
		So(list, ShouldHaveLength, 1)
	})

	Convey("Dispatched jobs should run on the scheduler", t, func(c C) {
		gate := make(chan struct{})
		e := executor.Func(func(_ context.Context, req def.Request, log log15.Logger) (*def.Result, error) {
			<-gate
			log.Info("searched", "rounds", 1)
			return &def.Result{Kind: req.Kind, Alternatives: []def.Alternative{}}, nil
		})
		man, kb := newForeman(c, e, 0)
		req := request(def.KindImprove, "(FPCore (x) (- (+ x 1) x))")

		rec, err := man.Dispatch(req)
		So(err, ShouldBeNil)
		So(rec.Status, ShouldBeIn, def.JobQueued, def.JobRunning)
		st, err := man.Status(rec.ID)
		So(err, ShouldBeNil)
		So(st.Status.Terminal(), ShouldBeFalse)

		Convey("and dispatching it again should not queue another", func() {
			again, err := man.Dispatch(req)
			So(err, ShouldBeNil)
			So(again.ID, ShouldEqual, rec.ID)
		})

		close(gate)
		done, err := man.Wait(ctx, rec.ID)
		So(err, ShouldBeNil)
		So(done.Status, ShouldEqual, def.JobComplete)
		list, _ := kb.ListResults(ctx)
		So(list, ShouldHaveLength, 1)

		Convey("with a timeline of every transition and log", func() {
			events, err := man.Timeline(rec.ID)
			So(err, ShouldBeNil)
			var statuses []def.JobStatus
			var msgs []string
			for i, evt := range events {
				So(evt.Seq, ShouldEqual, i)
				if evt.Status != "" {
					statuses = append(statuses, evt.Status)
				}
				if evt.Log != nil {
					msgs = append(msgs, evt.Log.Msg)
				}
			}
			So(statuses, ShouldResemble, []def.JobStatus{def.JobQueued, def.JobRunning, def.JobComplete})
			So(msgs, ShouldContain, "job started")
			So(msgs, ShouldContain, "searched")
			for _, evt := range events {
				if evt.Log != nil && evt.Log.Msg == "searched" {
					So(evt.Log.Ctx["rounds"], ShouldEqual, "1")
					So(evt.Log.Ctx["job"], ShouldEqual, string(rec.ID))
				}
			}
		})
	})

	Convey("A panicking executor should fail the job, not the process", t, func(c C) {
		e := executor.Func(func(_ context.Context, _ def.Request, _ log15.Logger) (*def.Result, error) {
			panic("boom")
		})
		man, kb := newForeman(c, e, 0)
		rec, err := man.Submit(ctx, request(def.KindCost, "(FPCore (x) x)"))
		So(err, testutil.ShouldBeErrorClass, executor.UnknownError)
		So(rec.Status, ShouldEqual, def.JobFailed)
		list, _ := kb.ListResults(ctx)
		So(list, ShouldHaveLength, 1)
	})

	Convey("An inline run should stop when its caller gives up", t, func(c C) {
		var calls int32
		e := executor.Func(func(ctx context.Context, req def.Request, _ log15.Logger) (*def.Result, error) {
			if atomic.AddInt32(&calls, 1) == 1 {
				<-ctx.Done()
				return nil, ctx.Err()
			}
			return &def.Result{Kind: req.Kind, Cost: 1}, nil
		})
		man, kb := newForeman(c, e, 0)
		req := request(def.KindCost, "(FPCore (x) x)")

		short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		rec, err := man.Submit(short, req)
		So(err, ShouldEqual, context.DeadlineExceeded)
		So(rec.Status, ShouldEqual, def.JobFailed)

		Convey("publishing the failure, but forgetting the job", func() {
			list, _ := kb.ListResults(ctx)
			So(list, ShouldHaveLength, 1)
			So(list[0].Status, ShouldEqual, def.JobFailed)
			_, err := man.Status(rec.ID)
			So(err, testutil.ShouldBeErrorClass, JobNotFoundError)
		})

		Convey("so that asking again really runs", func() {
			again, err := man.Submit(ctx, req)
			So(err, ShouldBeNil)
			So(again.Status, ShouldEqual, def.JobComplete)
			So(atomic.LoadInt32(&calls), ShouldEqual, 2)
		})

		Convey("and a context already done should run nothing", func() {
			done, cancel := context.WithCancel(ctx)
			cancel()
			_, err := man.Submit(done, request(def.KindCost, "(FPCore (x) (+ x 1))"))
			So(err, ShouldEqual, context.Canceled)
			So(atomic.LoadInt32(&calls), ShouldEqual, 1)
		})
	})

	Convey("Unknown ids should not be found", t, func(c C) {
		var n int32
		man, _ := newForeman(c, counting(&n), 0)
		_, err := man.Status("nope")
		So(err, testutil.ShouldBeErrorClass, JobNotFoundError)
		_, err = man.Wait(ctx, "nope")
		So(err, testutil.ShouldBeErrorClass, JobNotFoundError)
		_, err = man.Timeline("nope")
		So(err, testutil.ShouldBeErrorClass, JobNotFoundError)
	})

	Convey("Old finished jobs should be evicted past the limit", t, func(c C) {
		var n int32
		man, kb := newForeman(c, counting(&n), 2)
		var recs []def.JobRecord
		for _, text := range []string{"(FPCore (x) x)", "(FPCore (x) (+ x 1))", "(FPCore (x) (* x 2))"} {
			rec, err := man.Submit(ctx, request(def.KindCost, text))
			So(err, ShouldBeNil)
			recs = append(recs, rec)
		}
		_, err := man.Status(recs[0].ID)
		So(err, testutil.ShouldBeErrorClass, JobNotFoundError)
		_, err = man.Status(recs[1].ID)
		So(err, ShouldBeNil)
		_, err = man.Status(recs[2].ID)
		So(err, ShouldBeNil)

		Convey("while their summaries stay in the index", func() {
			list, _ := kb.ListResults(ctx)
			So(list, ShouldHaveLength, 3)
			So(list[0].Job, ShouldEqual, recs[0].ID)
		})
	})

	Convey("Transitions out of order should be refused", t, func(c C) {
		j := newJob(request(def.KindCost, "(FPCore (x) x)"), testutil.TestLogger(c), func(*job) {})
		So(func() {
			j.mutex.Lock()
			defer j.mutex.Unlock()
			j.transition(def.JobComplete)
		}, testutil.ShouldPanicWith, TransitionError)
	})
}

func TestSeed(t *testing.T) {
	Convey("Seeds should resolve given, then default, then fresh", t, func() {
		seven, nine := uint64(7), uint64(9)
		man := New(Config{DefaultSeed: &nine})
		So(man.Seed(&seven), ShouldEqual, 7)
		So(man.Seed(nil), ShouldEqual, 9)
		man = New(Config{})
		So(man.Seed(nil), ShouldNotEqual, man.Seed(nil))
	})
}
