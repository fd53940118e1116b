package foreman

import (
	"github.com/spacemonkeygo/errors"
)

// grouping, do not instantiate
var Error *errors.ErrorClass = errors.NewClass("ForemanError")

/*
	Raised when asking after a job id the foreman doesn't hold: either it
	never existed, or it finished long enough ago to have been evicted.
	Evicted jobs' summaries are still in the results index.
*/
var JobNotFoundError *errors.ErrorClass = Error.NewClass("JobNotFoundError")

/*
	Raised (as a panic) on an illegal status change.  Seeing one is
	always a bug in the foreman.
*/
var TransitionError *errors.ErrorClass = Error.NewClass("JobTransitionError")
