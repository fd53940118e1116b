package group

import (
	"runtime"

	"polydawn.net/fperr/executor"
	"polydawn.net/fperr/scheduler"
)

// interface assertion
var _ scheduler.Scheduler = &Scheduler{}

type Scheduler struct {
	groupSize int
	executor  executor.Executor
	queue     chan scheduler.Job
}

// Configure with `workers` of zero or less runs one worker per CPU.
func (s *Scheduler) Configure(e executor.Executor, workers int) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	s.groupSize = workers
	s.executor = e
	s.queue = make(chan scheduler.Job)
}

func (s *Scheduler) Start() {
	for w := 1; w <= s.groupSize; w++ {
		go s.Run()
	}
}

func (s *Scheduler) Schedule(j scheduler.Job) {
	go func() {
		s.queue <- j
	}()
}

// Each worker runs jobs one at a time
func (s *Scheduler) Run() {
	for j := range s.queue {
		j.Run(s.executor)
	}
}
