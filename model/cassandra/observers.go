package cassandra

import (
	"sync"

	"polydawn.net/fperr/def"
)

/*
	Observers is the fan-out shared by the implementations.  The zero
	value is ready to use.
*/
type Observers struct {
	mutex sync.Mutex
	chans []chan<- def.Summary
}

// Add subscribes ch.  Calling the returned func unsubscribes it.
func (o *Observers) Add(ch chan<- def.Summary) (cancel func()) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.chans = append(o.chans, ch)
	return func() { o.remove(ch) }
}

func (o *Observers) remove(ch chan<- def.Summary) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	for i, c := range o.chans {
		if c == ch {
			o.chans = append(o.chans[:i:i], o.chans[i+1:]...)
			return
		}
	}
}

func (o *Observers) Notify(s def.Summary) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	for _, ch := range o.chans {
		select {
		case ch <- s:
		default:
		}
	}
}
