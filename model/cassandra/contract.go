package cassandra

import (
	"context"

	"github.com/spacemonkeygo/errors"

	"polydawn.net/fperr/def"
)

/*
	Sees everything; powerless to change it.

	This knowledgebase keeps the summary of every finished job, in the
	order they finished.  It accepts new summaries, dispatches messages
	on changes, and proxies any reads.  See the `actors` package for the
	systems that publish to it.

	The index is append-only.  A job is published at most once: a second
	publish of the same job id is refused and reported, never recorded.
*/
type Cassandra interface {

	/*
		Append a finished job's summary.  Returns false (and records
		nothing) if a summary for that job was already published.
	*/
	PublishResult(ctx context.Context, s def.Summary) (bool, error)

	// Every summary so far, in publish order.
	ListResults(ctx context.Context) ([]def.Summary, error)

	// One job's summary, or nil if it was never published.
	Result(ctx context.Context, id def.JobID) (*def.Summary, error)

	/*
		Subscribe to new results.  Every summary accepted by PublishResult
		after this call is sent to the channel.

		Sends don't block the publisher: an observer that isn't keeping up
		misses results rather than stalling jobs.  Observers wanting the
		complete picture should subscribe first, then list, then merge.
		The returned func ends the subscription; nothing is sent to the
		channel after it returns.
	*/
	ObserveResults(ch chan<- def.Summary) (cancel func())
}

// grouping, do not instantiate
var Error *errors.ErrorClass = errors.NewClass("CassandraError")

// Raised when the backing store can't be reached or answers nonsense.
var StorageError *errors.ErrorClass = Error.NewClass("CassandraStorageError")
