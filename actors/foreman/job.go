package foreman

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/inconshreveable/log15"
	"github.com/spacemonkeygo/errors"
	"github.com/spacemonkeygo/errors/try"

	"polydawn.net/fperr/def"
	"polydawn.net/fperr/executor"
	"polydawn.net/fperr/scheduler"
)

var _ scheduler.Job = &job{}

/*
	The live state of one job.  Everything but `req` and `done` is
	guarded by the job's own mutex; the foreman's table lock is never
	held while a job runs.
*/
type job struct {
	req def.Request
	log log15.Logger

	mutex    sync.Mutex
	record   def.JobRecord
	timeline []def.Event
	err      error

	// Set when the run was cut short by its caller's context.
	abandoned bool

	// Closed once the job is terminal and `finished` has returned.
	done chan struct{}

	// Called exactly once, when the job becomes terminal.
	finished func(*job)
}

func newJob(req def.Request, parent log15.Logger, finished func(*job)) *job {
	id := req.ID()
	j := &job{
		req:      req,
		done:     make(chan struct{}),
		finished: finished,
		record: def.JobRecord{
			ID:      id,
			Kind:    req.Kind,
			Status:  def.JobQueued,
			Path:    def.JobPath(id, req.Kind),
			Formula: req.Formula.String(),
			Created: time.Now(),
		},
	}
	j.timeline = []def.Event{{Seq: 0, Status: def.JobQueued}}
	j.log = parent.New("job", id, "kind", req.Kind)
	j.log.SetHandler(log15.MultiHandler(&timelineHandler{j}, parent.GetHandler()))
	return j
}

var transitions = map[def.JobStatus][]def.JobStatus{
	def.JobQueued:  {def.JobRunning},
	def.JobRunning: {def.JobComplete, def.JobFailed},
}

// Caller must hold the mutex.
func (j *job) transition(to def.JobStatus) {
	from := j.record.Status
	for _, allowed := range transitions[from] {
		if allowed == to {
			j.record.Status = to
			j.timeline = append(j.timeline, def.Event{Seq: len(j.timeline), Status: to})
			return
		}
	}
	panic(TransitionError.New("job %s cannot go from %s to %s", j.record.ID, from, to))
}

/*
	Run the job to completion on the given executor.  Never panics: a
	panic inside the executor fails the job with the panic as reason.
*/
func (j *job) Run(e executor.Executor) {
	j.run(context.Background(), e)
}

/*
	As Run, but the executor sees ctx.  A run that ends because ctx did
	fails, and is marked abandoned so the foreman can forget it.
*/
func (j *job) run(ctx context.Context, e executor.Executor) {
	j.mutex.Lock()
	j.transition(def.JobRunning)
	j.record.Started = time.Now()
	j.mutex.Unlock()
	j.log.Info("job started")

	var result *def.Result
	var err error
	try.Do(func() {
		result, err = e.Run(ctx, j.req, j.log)
	}).CatchAll(func(caught error) {
		j.log.Error("job panicked", "err", caught)
		err = executor.UnknownError.Wrap(caught)
	}).Done()
	if err == nil && result == nil {
		err = executor.UnknownError.New("executor returned no result")
	}

	j.mutex.Lock()
	j.record.Finished = time.Now()
	if err != nil {
		j.err = err
		j.record.Failure = errors.GetMessage(err)
		j.abandoned = ctx.Err() != nil
		j.transition(def.JobFailed)
	} else {
		j.record.Result = result
		j.transition(def.JobComplete)
	}
	j.mutex.Unlock()
	if err != nil {
		j.log.Warn("job failed", "err", errors.GetMessage(err))
	} else {
		j.log.Info("job complete")
	}

	j.finished(j)
	close(j.done)
}

func (j *job) snapshot() def.JobRecord {
	j.mutex.Lock()
	defer j.mutex.Unlock()
	return j.record
}

func (j *job) events() []def.Event {
	j.mutex.Lock()
	defer j.mutex.Unlock()
	return append([]def.Event{}, j.timeline...)
}

func (j *job) failure() error {
	j.mutex.Lock()
	defer j.mutex.Unlock()
	return j.err
}

func (j *job) summary() def.Summary {
	j.mutex.Lock()
	defer j.mutex.Unlock()
	r := j.record
	return def.Summary{
		Job:      r.ID,
		Kind:     r.Kind,
		Path:     r.Path,
		Status:   r.Status,
		Formula:  r.Formula,
		Name:     j.req.Formula.Name(),
		Failure:  r.Failure,
		Finished: r.Finished,
		Elapsed:  float64(r.Finished.Sub(r.Started)) / float64(time.Millisecond),
	}
}

/*
	Copies each log record onto the job's timeline.
*/
type timelineHandler struct {
	j *job
}

var _ log15.Handler = &timelineHandler{}

func (x *timelineHandler) Log(r *log15.Record) error {
	item := &def.LogItem{
		Time:  r.Time,
		Level: r.Lvl.String(),
		Msg:   r.Msg,
	}
	if len(r.Ctx) > 0 {
		item.Ctx = make(map[string]string, len(r.Ctx)/2)
		for i := 0; i+1 < len(r.Ctx); i += 2 {
			item.Ctx[fmt.Sprint(r.Ctx[i])] = fmt.Sprint(r.Ctx[i+1])
		}
	}
	x.j.mutex.Lock()
	x.j.timeline = append(x.j.timeline, def.Event{Seq: len(x.j.timeline), Log: item})
	x.j.mutex.Unlock()
	return nil
}
