package foreman

import (
	"context"

	"polydawn.net/fperr/model/cassandra"
)

/*
	Publish a finished job's summary to the results index.  Each job gets
	here exactly once, from its own run; the index refusing it as a
	duplicate means someone else published under our id, which is worth
	a warning but nothing more.
*/
func publishResult(kb cassandra.Cassandra, j *job) {
	s := j.summary()
	fresh, err := kb.PublishResult(context.Background(), s)
	switch {
	case err != nil:
		j.log.Error("could not publish result", "err", err)
	case !fresh:
		j.log.Warn("result was already published")
	}
}
