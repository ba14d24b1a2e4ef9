package remotecore

import "sync"

// Observations counts the events each owner observes, so an owner can only
// stop what it started and its observations can be released together.
type Observations struct {
	mu      sync.Mutex
	byOwner map[string]map[string]int
}

// Observes reports whether owner observes event.
func (o *Observations) Observes(owner string, event string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.byOwner[owner][event] > 0
}

// Observe records one observation of event by owner.
func (o *Observations) Observe(owner string, event string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.byOwner == nil {
		o.byOwner = map[string]map[string]int{}
	}
	events := o.byOwner[owner]
	if events == nil {
		events = map[string]int{}
		o.byOwner[owner] = events
	}
	events[event]++
}

// Unobserve drops one observation and reports whether owner held one.
func (o *Observations) Unobserve(owner string, event string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	events := o.byOwner[owner]
	if events[event] == 0 {
		return false
	}
	events[event]--
	if events[event] == 0 {
		delete(events, event)
	}
	if len(events) == 0 {
		delete(o.byOwner, owner)
	}
	return true
}

// Release forgets owner and returns its observation counts.
func (o *Observations) Release(owner string) map[string]int {
	o.mu.Lock()
	defer o.mu.Unlock()
	events := o.byOwner[owner]
	delete(o.byOwner, owner)
	return events
}
