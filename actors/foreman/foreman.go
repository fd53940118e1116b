/*
	The foreman owns the table of jobs: it names each request, decides
	whether it is new work, gets it run (inline or through the scheduler),
	and reports every finished job to the results index exactly once.
*/
package foreman

import (
	"context"
	"sync"

	"github.com/inconshreveable/log15"

	"polydawn.net/fperr/def"
	"polydawn.net/fperr/executor"
	"polydawn.net/fperr/model/cassandra"
	"polydawn.net/fperr/sample"
	"polydawn.net/fperr/scheduler"
)

type Config struct {
	Executor executor.Executor

	// Runs dispatched jobs.  Must already be configured and started.
	Scheduler scheduler.Scheduler

	Results cassandra.Cassandra

	// Finished jobs to keep answering status queries for; zero keeps all.
	MaxJobs int

	// Points to draw for requests that don't say.
	SampleSize int

	// Used when a request doesn't name a seed.  Nil means a fresh random one each time.
	DefaultSeed *uint64

	Log log15.Logger
}

type Foreman struct {
	// configuration

	cassy       cassandra.Cassandra
	executor    executor.Executor
	scheduler   scheduler.Scheduler
	sampleSize  int
	defaultSeed *uint64
	log         log15.Logger

	// work state

	mutex   sync.Mutex
	jobs    map[def.JobID]*job
	retired retirees
}

func New(cfg Config) *Foreman {
	log := cfg.Log
	if log == nil {
		log = log15.New()
		log.SetHandler(log15.DiscardHandler())
	}
	size := cfg.SampleSize
	if size <= 0 {
		size = sample.DefaultSize
	}
	return &Foreman{
		cassy:       cfg.Results,
		executor:    cfg.Executor,
		scheduler:   cfg.Scheduler,
		sampleSize:  size,
		defaultSeed: cfg.DefaultSeed,
		log:         log.New("module", "foreman"),
		jobs:        make(map[def.JobID]*job),
		retired:     retirees{max: cfg.MaxJobs},
	}
}

func (man *Foreman) Results() cassandra.Cassandra {
	return man.cassy
}

/*
	Seed resolves the seed for a request: the one given, else the
	configured default, else a fresh one.  Callers echo it back so a run
	can be reproduced.
*/
func (man *Foreman) Seed(given *uint64) uint64 {
	switch {
	case given != nil:
		return *given
	case man.defaultSeed != nil:
		return *man.defaultSeed
	default:
		return sample.NewSeed()
	}
}

/*
	Submit runs the request on the calling goroutine and returns the
	finished job.  If an identical request is already known, nothing is
	run again: a finished job is returned as is, and one in flight is
	waited for.

	A failed job is returned along with the error it failed with.

	The run happens under ctx.  If ctx ends first the job fails, and is
	dropped from the job table once published, so the same request can
	be submitted again and actually run.
*/
func (man *Foreman) Submit(ctx context.Context, req def.Request) (def.JobRecord, error) {
	if err := ctx.Err(); err != nil {
		return def.JobRecord{}, err
	}
	if err := man.prepare(&req); err != nil {
		return def.JobRecord{}, err
	}
	j, fresh := man.claim(req)
	if fresh {
		j.run(ctx, man.executor)
		return j.snapshot(), j.failure()
	}
	return man.await(ctx, j)
}

/*
	Dispatch queues the request with the scheduler and returns at once
	with the job as it stands (Queued, unless an identical request was
	already known).
*/
func (man *Foreman) Dispatch(req def.Request) (def.JobRecord, error) {
	if err := man.prepare(&req); err != nil {
		return def.JobRecord{}, err
	}
	j, fresh := man.claim(req)
	if fresh {
		man.scheduler.Schedule(j)
	}
	return j.snapshot(), nil
}

// Status never blocks.
func (man *Foreman) Status(id def.JobID) (def.JobRecord, error) {
	j, err := man.lookup(id)
	if err != nil {
		return def.JobRecord{}, err
	}
	return j.snapshot(), nil
}

// Wait blocks until the job is terminal or the context ends.
func (man *Foreman) Wait(ctx context.Context, id def.JobID) (def.JobRecord, error) {
	j, err := man.lookup(id)
	if err != nil {
		return def.JobRecord{}, err
	}
	return man.await(ctx, j)
}

// Timeline returns the job's status changes and log records so far, in order.
func (man *Foreman) Timeline(id def.JobID) ([]def.Event, error) {
	j, err := man.lookup(id)
	if err != nil {
		return nil, err
	}
	return j.events(), nil
}

func (man *Foreman) prepare(req *def.Request) error {
	if req.Kind.UsesSample() && len(req.Sample) == 0 && req.Size <= 0 {
		req.Size = man.sampleSize
	}
	req.Normalize()
	return req.Validate()
}

// Finds the job for this request, creating it if there is none.
func (man *Foreman) claim(req def.Request) (*job, bool) {
	id := req.ID()
	man.mutex.Lock()
	defer man.mutex.Unlock()
	if j, ok := man.jobs[id]; ok {
		return j, false
	}
	j := newJob(req, man.log, man.retire)
	man.jobs[id] = j
	j.log.Debug("job created")
	return j, true
}

func (man *Foreman) lookup(id def.JobID) (*job, error) {
	man.mutex.Lock()
	defer man.mutex.Unlock()
	j, ok := man.jobs[id]
	if !ok {
		return nil, JobNotFoundError.New("no job %q", id)
	}
	return j, nil
}

func (man *Foreman) await(ctx context.Context, j *job) (def.JobRecord, error) {
	select {
	case <-j.done:
		return j.snapshot(), j.failure()
	case <-ctx.Done():
		return j.snapshot(), ctx.Err()
	}
}

// Called by each job as it finishes.
func (man *Foreman) retire(j *job) {
	publishResult(man.cassy, j)

	man.mutex.Lock()
	defer man.mutex.Unlock()
	if j.abandoned {
		if man.jobs[j.record.ID] == j {
			delete(man.jobs, j.record.ID)
		}
		man.log.Debug("forgot abandoned job", "job", j.record.ID)
		return
	}
	man.retired.push(j.record.ID)
	for _, id := range man.retired.evictions() {
		delete(man.jobs, id)
		man.log.Debug("evicted finished job", "job", id)
	}
}
