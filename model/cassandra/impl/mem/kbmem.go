package cassandra_mem

import (
	"context"
	"sync"

	"polydawn.net/fperr/def"
	"polydawn.net/fperr/model/cassandra"
)

var _ cassandra.Cassandra = &Base{}

type Base struct {
	mutex   sync.Mutex
	results []def.Summary
	index   map[def.JobID]int

	observers cassandra.Observers
}

func New() *Base {
	return &Base{
		index: make(map[def.JobID]int),
	}
}

func (kb *Base) PublishResult(_ context.Context, s def.Summary) (bool, error) {
	kb.mutex.Lock()
	if _, exists := kb.index[s.Job]; exists {
		kb.mutex.Unlock()
		return false, nil
	}
	kb.index[s.Job] = len(kb.results)
	kb.results = append(kb.results, s)
	kb.mutex.Unlock()

	kb.observers.Notify(s)
	return true, nil
}

func (kb *Base) ListResults(_ context.Context) ([]def.Summary, error) {
	kb.mutex.Lock()
	defer kb.mutex.Unlock()
	return append([]def.Summary{}, kb.results...), nil
}

func (kb *Base) Result(_ context.Context, id def.JobID) (*def.Summary, error) {
	kb.mutex.Lock()
	defer kb.mutex.Unlock()
	i, ok := kb.index[id]
	if !ok {
		return nil, nil
	}
	s := kb.results[i]
	return &s, nil
}

func (kb *Base) ObserveResults(ch chan<- def.Summary) (cancel func()) {
	return kb.observers.Add(ch)
}
