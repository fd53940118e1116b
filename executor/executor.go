package executor

import (
	"context"

	"github.com/inconshreveable/log15"

	"polydawn.net/fperr/def"
)

/*
	Executor does the work of one job: it turns a request into a result.

	Run must not touch any job state; the foreman owns that.  Errors
	returned become the job's failure reason.  `log` is the job's own
	logger, and everything written to it lands on the job's timeline.
*/
type Executor interface {
	Run(ctx context.Context, req def.Request, log log15.Logger) (*def.Result, error)
}

// Func adapts a plain function to an Executor.
type Func func(ctx context.Context, req def.Request, log log15.Logger) (*def.Result, error)

func (f Func) Run(ctx context.Context, req def.Request, log log15.Logger) (*def.Result, error) {
	return f(ctx, req, log)
}
