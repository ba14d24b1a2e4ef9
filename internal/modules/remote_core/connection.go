package remotecore

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/mikey-austin/spotify_remote/internal/convert"
	"github.com/mikey-austin/spotify_remote/internal/remote"
	"github.com/mikey-austin/spotify_remote/pkg/sr"
)

// ListenerKind identifies one of the two remote event subscriptions.
type ListenerKind int

// Subscription kinds.
const (
	ContextListeners ListenerKind = iota
	StateListeners
)

func (k ListenerKind) String() string {
	switch k {
	case ContextListeners:
		return "context"
	case StateListeners:
		return "state"
	default:
		return "unknown"
	}
}

// ConnectionStatus is a snapshot of the coordinator.
type ConnectionStatus struct {
	Connected         bool
	Connecting        bool
	Pending           int
	ContextListeners  bool
	StateListeners    bool
	ContextSubscribed bool
	StateSubscribed   bool
}

// Connection owns the remote handle, the pending connect queue and the
// player context/state subscriptions.
//
// A live subscription exists only while its listener flag is set and a
// handle is held.
type Connection struct {
	log       *zap.Logger
	connector remote.Connector
	emitter   Emitter
	baseCtx   context.Context

	mu            sync.Mutex
	appRemote     remote.AppRemote
	pending       pendingQueue
	contextActive bool
	stateActive   bool
	contextSub    remote.Subscription
	stateSub      remote.Subscription
	generation    uint64

	// announceMu orders connected/disconnected events. announced is the
	// newest generation already reported.
	announceMu sync.Mutex
	announced  uint64
}

// NewConnection creates a coordinator. baseCtx bounds connection attempts.
func NewConnection(ctx context.Context, log *zap.Logger, connector remote.Connector, emitter Emitter) *Connection {
	if log == nil {
		log = zap.NewNop()
	}
	if emitter == nil {
		emitter = nopEmitter{}
	}
	return &Connection{log: log, connector: connector, emitter: emitter, baseCtx: ctx}
}

// Connect waits for a connection. Calls made while an attempt is in flight
// join that attempt instead of starting another.
func (c *Connection) Connect(ctx context.Context, params remote.ConnectionParams) (bool, error) {
	waiter := make(chan error, 1)

	c.mu.Lock()
	start := c.pending.Push(waiter)
	c.mu.Unlock()

	if start {
		c.log.Debug("connecting remote", zap.String("client_id", params.ClientID))
		go c.attempt(params)
	} else {
		c.log.Debug("joining in-flight connection attempt")
	}

	select {
	case err := <-waiter:
		if err != nil {
			return false, err
		}
		return true, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (c *Connection) attempt(params remote.ConnectionParams) {
	appRemote, err := c.connector.Connect(c.baseCtx, params)
	if err != nil {
		c.onFailure(err)
		return
	}
	c.onConnected(appRemote)
}

func (c *Connection) onConnected(appRemote remote.AppRemote) {
	c.mu.Lock()
	previous := c.appRemote
	if previous != nil && previous != appRemote {
		c.cancelSubscriptionsLocked()
	}
	c.appRemote = appRemote
	c.reevaluateLocked()
	waiters := c.pending.Drain()
	gen := c.nextGenerationLocked()
	c.mu.Unlock()

	if previous != nil && previous != appRemote {
		if err := previous.Disconnect(); err != nil {
			c.log.Warn("disconnect replaced remote", zap.Error(err))
		}
	}

	c.log.Info("remote connected", zap.Int("waiters", len(waiters)))
	for _, waiter := range waiters {
		waiter <- nil
	}
	c.announce(gen, sr.EventRemoteConnected)
}

func (c *Connection) onFailure(err error) {
	c.mu.Lock()
	previous := c.appRemote
	c.cancelSubscriptionsLocked()
	c.appRemote = nil
	waiters := c.pending.Drain()
	gen := c.nextGenerationLocked()
	c.mu.Unlock()

	if previous != nil {
		_ = previous.Disconnect()
	}

	classified := classifyConnectError(err)
	c.log.Warn("remote connection failed", zap.Error(err), zap.Int("waiters", len(waiters)))
	for _, waiter := range waiters {
		waiter <- classified
	}
	c.announce(gen, sr.EventRemoteDisconnected)
}

// Disconnect tears down the remote if one is held.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	appRemote := c.appRemote
	if appRemote == nil {
		c.mu.Unlock()
		return
	}
	c.cancelSubscriptionsLocked()
	c.appRemote = nil
	gen := c.nextGenerationLocked()
	c.mu.Unlock()

	if err := appRemote.Disconnect(); err != nil {
		c.log.Warn("remote disconnect", zap.Error(err))
	}
	c.log.Info("remote disconnected")
	c.announce(gen, sr.EventRemoteDisconnected)
}

func (c *Connection) nextGenerationLocked() uint64 {
	c.generation++
	return c.generation
}

// announce emits a connection event for the state change numbered gen.
// An event overtaken by a later change is dropped, so the last event seen
// always matches the current handle.
func (c *Connection) announce(gen uint64, name string) {
	c.announceMu.Lock()
	defer c.announceMu.Unlock()
	if gen <= c.announced {
		c.log.Debug("dropping stale connection event", zap.String("event", name), zap.Uint64("generation", gen))
		return
	}
	c.announced = gen
	c.emitter.Emit(name, nil)
}

// IsConnected reports whether a handle is held and reports itself connected.
func (c *Connection) IsConnected() bool {
	appRemote := c.handle()
	return appRemote != nil && appRemote.IsConnected()
}

// SetListenerActive toggles a subscription flag and re-evaluates the
// subscriptions.
func (c *Connection) SetListenerActive(kind ListenerKind, active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch kind {
	case ContextListeners:
		c.contextActive = active
	case StateListeners:
		c.stateActive = active
	default:
		return
	}
	c.log.Debug("listener flag", zap.Stringer("kind", kind), zap.Bool("active", active))
	c.reevaluateLocked()
}

// Status returns a snapshot of the coordinator.
func (c *Connection) Status() ConnectionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ConnectionStatus{
		Connected:         c.appRemote != nil && c.appRemote.IsConnected(),
		Connecting:        c.pending.Len() > 0,
		Pending:           c.pending.Len(),
		ContextListeners:  c.contextActive,
		StateListeners:    c.stateActive,
		ContextSubscribed: live(c.contextSub),
		StateSubscribed:   live(c.stateSub),
	}
}

func (c *Connection) handle() remote.AppRemote {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.appRemote
}

// reevaluateLocked brings the subscriptions in line with the flags. It is
// idempotent.
func (c *Connection) reevaluateLocked() {
	if c.appRemote == nil {
		return
	}
	player := c.appRemote.Player()

	c.contextSub = c.syncSubscription(ContextListeners, c.contextActive, c.contextSub, func() (remote.Subscription, error) {
		return player.SubscribeToPlayerContext(func(ctx remote.PlayerContext) {
			c.emitter.Emit(sr.EventPlayerContextChanged, convert.PlayerContext(ctx))
		})
	})
	c.stateSub = c.syncSubscription(StateListeners, c.stateActive, c.stateSub, func() (remote.Subscription, error) {
		return player.SubscribeToPlayerState(func(state remote.PlayerState) {
			c.emitter.Emit(sr.EventPlayerStateChanged, convert.PlayerState(state))
		})
	})
}

func (c *Connection) syncSubscription(kind ListenerKind, active bool, current remote.Subscription, subscribe func() (remote.Subscription, error)) remote.Subscription {
	if active {
		if live(current) {
			return current
		}
		next, err := subscribe()
		if err != nil {
			c.log.Warn("subscribe failed", zap.Stringer("kind", kind), zap.Error(err))
			return nil
		}
		return next
	}
	if live(current) {
		current.Cancel()
	}
	return nil
}

func (c *Connection) cancelSubscriptionsLocked() {
	if live(c.contextSub) {
		c.contextSub.Cancel()
	}
	if live(c.stateSub) {
		c.stateSub.Cancel()
	}
	c.contextSub = nil
	c.stateSub = nil
}

func live(sub remote.Subscription) bool {
	return sub != nil && !sub.IsCanceled()
}
