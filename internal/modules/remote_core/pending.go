package remotecore

// pendingQueue holds callers waiting on the in-flight connection attempt.
// It is non-empty only while an attempt runs and is drained in enqueue
// order when the attempt completes.
type pendingQueue struct {
	waiters []chan error
}

// Push enqueues a waiter and reports whether it is the first one, in which
// case the caller must start the attempt.
func (q *pendingQueue) Push(waiter chan error) bool {
	q.waiters = append(q.waiters, waiter)
	return len(q.waiters) == 1
}

// Len returns the number of waiters.
func (q *pendingQueue) Len() int {
	return len(q.waiters)
}

// Drain removes and returns all waiters, oldest first.
func (q *pendingQueue) Drain() []chan error {
	out := q.waiters
	q.waiters = nil
	return out
}
