package memo

import (
	"context"

	"github.com/inconshreveable/log15"

	"polydawn.net/fperr/def"
	"polydawn.net/fperr/executor"
)

/*
	Executor remembers results on disk, keyed by job id, and answers
	repeats of a request from there instead of running the delegate.

	Since the job id covers the whole request (seed and sample included),
	a memoized result is exactly what the delegate would compute again.
*/
type Executor struct {
	memoDir  string
	delegate executor.Executor
}

var _ executor.Executor = &Executor{}

func NewExecutor(memoDir string, delegate executor.Executor) (*Executor, error) {
	if err := ensureDir(memoDir); err != nil {
		return nil, err
	}
	return &Executor{memoDir, delegate}, nil
}

func (cfg *Executor) Run(ctx context.Context, req def.Request, log log15.Logger) (*def.Result, error) {
	id := req.ID()

	// Consider possibility of early return of memoization data.
	//  If the memo dir contains a relevant record, we just echo it.
	result, err := loadMemo(id, cfg.memoDir)
	if err != nil {
		return nil, err
	}
	if result != nil {
		log.Info("memoized result found for job; eliding run", "job", id)
		return result, nil
	}

	// If no shortcut: delegate to the real executor to do work!
	result, err = cfg.delegate.Run(ctx, req, log)

	// Save memo for next time (unless there was an executor error).
	if err == nil {
		if err := saveMemo(id, cfg.memoDir, result); err != nil {
			log.Warn("saving memoized result failed", "err", err)
		}
	}
	return result, err
}
