package scheduler

import (
	"polydawn.net/fperr/executor"
)

/*
	Job is a unit of scheduled work.  The scheduler doesn't look inside;
	it hands the job an executor on some worker and moves on.  Jobs are
	responsible for their own state and for recovering their own panics.
*/
type Job interface {
	Run(executor.Executor)
}

/*
	"No one has ever looked at a cloud scheduler and thought, 'this is everything I need!'".

	Schedulers manage a stream of Jobs and run them on some pool of workers.
	Here that's always goroutines in this process, but nothing in the
	interface says it has to be.

	Schedulers are presumed to know environmental context that a Job provider may not:
	how many workers there are, and in what order queued jobs get them.
*/
type Scheduler interface {

	/*
		Configure executor to use. Must be already configured.

		It is guaranteed that calling Configure() before scheduling work will behave as expected.
		Calling Configure() after scheduling work is left for the Scheduler to decide - it might change, panic, ignore, etc.
	*/
	Configure(e executor.Executor, workers int)

	/*
		Start consuming Jobs.
		It is expected that you call Configure(), then Start(), before scheduling Jobs.
	*/
	Start()

	/*
		Schedules a Job to be ran.  Never blocks: the job waits in the
		queue until a worker is free.
	*/
	Schedule(Job)
}

/*
	ADDITIONALLY, we have some patterns that are merely conventions:

	// The run loop, which is ran in a dedicated goroutine when Start() is called.
	func (s Scheduler) Run() {
*/
