package remotecore

import (
	"context"
	"sync"

	"github.com/mikey-austin/spotify_remote/internal/remote"
)

type fakeConnector struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
	remote  *fakeRemote
	err     error
}

func (c *fakeConnector) Connect(ctx context.Context, params remote.ConnectionParams) (remote.AppRemote, error) {
	c.mu.Lock()
	c.calls++
	release := c.release
	c.mu.Unlock()
	if release != nil {
		<-release
	}
	if c.err != nil {
		return nil, c.err
	}
	c.remote.mu.Lock()
	c.remote.params = params
	c.remote.mu.Unlock()
	return c.remote, nil
}

func (c *fakeConnector) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fakeRemote struct {
	mu           sync.Mutex
	params       remote.ConnectionParams
	disconnected int
	player       *fakePlayer
	content      *fakeContent
	notConnected bool
	playerCalls  int
	contentCalls int
}

func newFakeRemote() *fakeRemote {
	r := &fakeRemote{}
	r.player = &fakePlayer{remote: r}
	r.content = &fakeContent{remote: r}
	return r
}

func (r *fakeRemote) IsConnected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.notConnected
}

func (r *fakeRemote) Player() remote.PlayerAPI {
	r.mu.Lock()
	r.playerCalls++
	r.mu.Unlock()
	return r.player
}

func (r *fakeRemote) Content() remote.ContentAPI {
	r.mu.Lock()
	r.contentCalls++
	r.mu.Unlock()
	return r.content
}

func (r *fakeRemote) Disconnect() error {
	r.mu.Lock()
	r.disconnected++
	r.mu.Unlock()
	return nil
}

type fakePlayer struct {
	remote *fakeRemote

	mu            sync.Mutex
	ops           []string
	lastURI       string
	lastIndex     int
	lastSeek      int64
	lastShuffle   bool
	lastRepeat    int
	state         remote.PlayerState
	crossfade     remote.CrossfadeState
	err           error
	stateSubs     []*remote.FuncSubscription
	contextSubs   []*remote.FuncSubscription
	stateHandler  func(remote.PlayerState)
	contextHandle func(remote.PlayerContext)
}

func (p *fakePlayer) record(op string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ops = append(p.ops, op)
	return p.err
}

func (p *fakePlayer) Ops() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.ops...)
}

func (p *fakePlayer) Play(ctx context.Context, uri string) error {
	p.mu.Lock()
	p.lastURI = uri
	p.mu.Unlock()
	return p.record("play")
}

func (p *fakePlayer) Queue(ctx context.Context, uri string) error {
	p.mu.Lock()
	p.lastURI = uri
	p.mu.Unlock()
	return p.record("queue")
}

func (p *fakePlayer) SkipToIndex(ctx context.Context, uri string, index int) error {
	p.mu.Lock()
	p.lastURI = uri
	p.lastIndex = index
	p.mu.Unlock()
	return p.record("skipToIndex")
}

func (p *fakePlayer) Seek(ctx context.Context, positionMS int64) error {
	p.mu.Lock()
	p.lastSeek = positionMS
	p.mu.Unlock()
	return p.record("seek")
}

func (p *fakePlayer) Resume(ctx context.Context) error       { return p.record("resume") }
func (p *fakePlayer) Pause(ctx context.Context) error        { return p.record("pause") }
func (p *fakePlayer) SkipNext(ctx context.Context) error     { return p.record("next") }
func (p *fakePlayer) SkipPrevious(ctx context.Context) error { return p.record("prev") }

func (p *fakePlayer) SetShuffle(ctx context.Context, shuffle bool) error {
	p.mu.Lock()
	p.lastShuffle = shuffle
	p.mu.Unlock()
	return p.record("shuffle")
}

func (p *fakePlayer) SetRepeat(ctx context.Context, mode int) error {
	p.mu.Lock()
	p.lastRepeat = mode
	p.mu.Unlock()
	return p.record("repeat")
}

func (p *fakePlayer) PlayerState(ctx context.Context) (remote.PlayerState, error) {
	if err := p.record("state"); err != nil {
		return remote.PlayerState{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state, nil
}

func (p *fakePlayer) CrossfadeState(ctx context.Context) (remote.CrossfadeState, error) {
	if err := p.record("crossfade"); err != nil {
		return remote.CrossfadeState{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.crossfade, nil
}

func (p *fakePlayer) SubscribeToPlayerState(handler func(remote.PlayerState)) (remote.Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sub := remote.NewSubscription(nil)
	p.stateSubs = append(p.stateSubs, sub)
	p.stateHandler = handler
	return sub, nil
}

func (p *fakePlayer) SubscribeToPlayerContext(handler func(remote.PlayerContext)) (remote.Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sub := remote.NewSubscription(nil)
	p.contextSubs = append(p.contextSubs, sub)
	p.contextHandle = handler
	return sub, nil
}

func (p *fakePlayer) liveStateSubs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return countLive(p.stateSubs)
}

func (p *fakePlayer) liveContextSubs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return countLive(p.contextSubs)
}

func countLive(subs []*remote.FuncSubscription) int {
	n := 0
	for _, sub := range subs {
		if !sub.IsCanceled() {
			n++
		}
	}
	return n
}

type fakeContent struct {
	remote *fakeRemote

	mu       sync.Mutex
	played   []remote.ListItem
	children []remote.ListItem
	lastPage [2]int
	lastType string
	err      error
}

func (c *fakeContent) PlayContentItem(ctx context.Context, item remote.ListItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.played = append(c.played, item)
	return c.err
}

func (c *fakeContent) RecommendedContentItems(ctx context.Context, contentType string) (remote.ListItems, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastType = contentType
	if c.err != nil {
		return remote.ListItems{}, c.err
	}
	return remote.ListItems{Items: c.children, Total: len(c.children)}, nil
}

func (c *fakeContent) ChildrenOfItem(ctx context.Context, item remote.ListItem, perPage int, offset int) (remote.ListItems, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastPage = [2]int{perPage, offset}
	if c.err != nil {
		return remote.ListItems{}, c.err
	}
	return remote.ListItems{Items: c.children, Limit: perPage, Offset: offset, Total: len(c.children)}, nil
}

type recordedEvent struct {
	name    string
	payload any
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (e *recordingEmitter) Emit(name string, payload any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, recordedEvent{name: name, payload: payload})
}

func (e *recordingEmitter) Names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.events))
	for _, evt := range e.events {
		out = append(out, evt.name)
	}
	return out
}

func (e *recordingEmitter) Last() recordedEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.events) == 0 {
		return recordedEvent{}
	}
	return e.events[len(e.events)-1]
}

type fakeLauncher struct {
	mu       sync.Mutex
	requests []remote.AuthorizationRequest
	codes    []int
	cleared  int
	err      error
	opened   chan struct{}
}

func (l *fakeLauncher) OpenLogin(ctx context.Context, requestCode int, req remote.AuthorizationRequest) error {
	l.mu.Lock()
	l.requests = append(l.requests, req)
	l.codes = append(l.codes, requestCode)
	opened := l.opened
	err := l.err
	l.mu.Unlock()
	if opened != nil {
		opened <- struct{}{}
	}
	return err
}

func (l *fakeLauncher) ClearSession() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cleared++
}
