package foreman

import (
	"polydawn.net/fperr/def"
)

/*
	The foreman's memory of which jobs are finished, oldest first, so that
	when it holds too many it knows which to forget.

	Not safe for concurrent use; the foreman guards it with the table lock.
*/
type retirees struct {
	// flat list of finished job ids, in the order they finished.  0->oldest.
	queue []def.JobID

	// how many finished jobs to keep.  Zero means all of them.
	max int
}

func (rs *retirees) push(id def.JobID) {
	rs.queue = append(rs.queue, id)
}

// Pops every id over the limit, oldest first.
func (rs *retirees) evictions() []def.JobID {
	if rs.max <= 0 || len(rs.queue) <= rs.max {
		return nil
	}
	n := len(rs.queue) - rs.max
	out := append([]def.JobID{}, rs.queue[:n]...)
	rs.queue = append(rs.queue[:0], rs.queue[n:]...)
	return out
}
