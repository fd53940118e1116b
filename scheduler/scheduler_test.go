package scheduler_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/inconshreveable/log15"
	. "github.com/smartystreets/goconvey/convey"

	"polydawn.net/fperr/def"
	"polydawn.net/fperr/executor"
	"polydawn.net/fperr/scheduler/dispatch"
	"polydawn.net/fperr/testutil"
)

type countingJob struct {
	wg   *sync.WaitGroup
	mu   *sync.Mutex
	seen *[]def.Kind
}

func (j countingJob) Run(e executor.Executor) {
	defer j.wg.Done()
	res, _ := e.Run(context.Background(), def.Request{Kind: def.KindCost}, log15.New())
	j.mu.Lock()
	*j.seen = append(*j.seen, res.Kind)
	j.mu.Unlock()
}

func TestSchedulers(t *testing.T) {
	echo := executor.Func(func(_ context.Context, req def.Request, _ log15.Logger) (*def.Result, error) {
		return &def.Result{Kind: req.Kind}, nil
	})

	for _, name := range []string{"linear", "group"} {
		Convey("The "+name+" scheduler should run everything it's given", t, func() {
			s, err := schedulerdispatch.Start(name, echo, 4)
			So(err, ShouldBeNil)

			var wg sync.WaitGroup
			var mu sync.Mutex
			var seen []def.Kind
			for i := 0; i < 20; i++ {
				wg.Add(1)
				s.Schedule(countingJob{&wg, &mu, &seen})
			}
			done := make(chan struct{})
			go func() { wg.Wait(); close(done) }()
			select {
			case <-done:
			case <-time.After(10 * time.Second):
			}
			mu.Lock()
			defer mu.Unlock()
			So(seen, ShouldHaveLength, 20)
		})
	}

	Convey("Asking for a scheduler that doesn't exist should fail", t, func() {
		_, err := schedulerdispatch.Start("quantum", echo, 1)
		So(err, testutil.ShouldBeErrorClass, def.ValidationError)
		So(err.Error(), ShouldContainSubstring, "group, linear")
	})

	Convey("Every scheduler name should be known", t, func() {
		So(schedulerdispatch.Names(), ShouldResemble, []string{"group", "linear"})
	})
}
