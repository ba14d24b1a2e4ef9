package remotecore

import (
	"sync"

	"github.com/mikey-austin/spotify_remote/pkg/sr"
)

// Sequencer runs work in arrival order per key. Work for different keys
// runs concurrently. The zero value is ready to use.
type Sequencer struct {
	mu     sync.Mutex
	queues map[string][]func()
	wg     sync.WaitGroup
}

// Submit queues fn behind earlier work for key.
func (s *Sequencer) Submit(key string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queues == nil {
		s.queues = map[string][]func(){}
	}
	queue, running := s.queues[key]
	s.queues[key] = append(queue, fn)
	if running {
		return
	}
	s.wg.Add(1)
	go s.drain(key)
}

// Wait blocks until all submitted work has run.
func (s *Sequencer) Wait() {
	s.wg.Wait()
}

func (s *Sequencer) drain(key string) {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		queue := s.queues[key]
		if len(queue) == 0 {
			delete(s.queues, key)
			s.mu.Unlock()
			return
		}
		fn := queue[0]
		queue[0] = nil
		s.queues[key] = queue[1:]
		s.mu.Unlock()

		fn()
	}
}

// LongRunning reports whether a command waits on the user or the remote
// rather than completing promptly. Such commands are not bounded by the
// command timeout and do not hold up the sender's queue.
func LongRunning(cmdType string) bool {
	switch cmdType {
	case sr.CmdAuthorize, sr.CmdConnect, sr.CmdConnectWithoutAuth:
		return true
	}
	return false
}
