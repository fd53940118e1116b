package linear

import (
	"polydawn.net/fperr/executor"
	"polydawn.net/fperr/scheduler"
)

// interface assertion
var _ scheduler.Scheduler = &Scheduler{}

type Scheduler struct {
	executor executor.Executor
	queue    chan scheduler.Job
}

// Configure ignores the worker count: this scheduler only ever has one.
func (s *Scheduler) Configure(e executor.Executor, _ int) {
	s.executor = e
	s.queue = make(chan scheduler.Job)
}

func (s *Scheduler) Start() {
	go s.Run()
}

func (s *Scheduler) Schedule(j scheduler.Job) {
	go func() {
		s.queue <- j
	}()
}

// Run jobs one at a time
func (s *Scheduler) Run() {
	for j := range s.queue {
		j.Run(s.executor)
	}
}
