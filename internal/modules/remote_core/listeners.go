package remotecore

import (
	"sync"

	"go.uber.org/zap"

	"github.com/mikey-austin/spotify_remote/pkg/sr"
)

// Listeners tracks observers per event. The first observer of a player
// event turns its subscription on and the last one turns it off.
type Listeners struct {
	log  *zap.Logger
	conn *Connection

	mu         sync.Mutex
	observers  map[string]int
	registered int
}

// NewListeners creates a registry driving conn's subscription flags.
func NewListeners(log *zap.Logger, conn *Connection) *Listeners {
	if log == nil {
		log = zap.NewNop()
	}
	return &Listeners{log: log, conn: conn, observers: map[string]int{}}
}

// AddListener records a controller-side listener. Subscriptions are driven
// by StartObserving, not by this count.
func (l *Listeners) AddListener(event string) {
	l.mu.Lock()
	l.registered++
	count := l.registered
	l.mu.Unlock()
	l.log.Debug("listener added", zap.String("event", event), zap.Int("registered", count))
}

// RemoveListeners drops count controller-side listeners.
func (l *Listeners) RemoveListeners(count int) {
	l.mu.Lock()
	l.registered -= count
	if l.registered < 0 {
		l.registered = 0
	}
	remaining := l.registered
	l.mu.Unlock()
	l.log.Debug("listeners removed", zap.Int("count", count), zap.Int("registered", remaining))
}

// StartObserving adds an observer for event.
func (l *Listeners) StartObserving(event string) {
	l.mu.Lock()
	l.observers[event]++
	first := l.observers[event] == 1
	l.mu.Unlock()
	if first {
		l.apply(event, true)
	}
}

// StopObserving removes an observer for event.
func (l *Listeners) StopObserving(event string) {
	l.mu.Lock()
	if l.observers[event] == 0 {
		l.mu.Unlock()
		return
	}
	l.observers[event]--
	last := l.observers[event] == 0
	if last {
		delete(l.observers, event)
	}
	l.mu.Unlock()
	if last {
		l.apply(event, false)
	}
}

// Observers returns the observer count for event.
func (l *Listeners) Observers(event string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.observers[event]
}

// Registered returns the controller-side listener count.
func (l *Listeners) Registered() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.registered
}

func (l *Listeners) apply(event string, active bool) {
	if l.conn == nil {
		return
	}
	switch event {
	case sr.EventPlayerContextChanged:
		l.conn.SetListenerActive(ContextListeners, active)
	case sr.EventPlayerStateChanged:
		l.conn.SetListenerActive(StateListeners, active)
	}
}
