// Package remote describes the typed remote-control client the bridge drives.
//
// Backends implement Connector; the bridge only ever talks to these
// interfaces, so tests substitute fakes.
package remote

import (
	"context"
	"sync"
)

// Repeat modes reported in PlayerOptions and accepted by SetRepeat.
const (
	RepeatOff     = 0
	RepeatTrack   = 1
	RepeatContext = 2
)

// Content types accepted by RecommendedContentItems.
const (
	ContentTypeDefault    = "default"
	ContentTypeNavigation = "navigation"
	ContentTypeFitness    = "fitness"
)

// ImageURI references artwork. Backends that have no artwork leave Raw empty.
type ImageURI struct {
	Raw string
}

// ListItem is a navigable content catalog entry.
type ListItem struct {
	ID          string
	URI         string
	ImageURI    ImageURI
	Title       string
	Subtitle    string
	Playable    bool
	HasChildren bool
}

// ListItems is a page of content items.
type ListItems struct {
	Limit  int
	Offset int
	Total  int
	Items  []ListItem
}

// Artist is a track artist.
type Artist struct {
	Name string
	URI  string
}

// Album is a track album.
type Album struct {
	Name string
	URI  string
}

// Track describes the playing track or episode.
type Track struct {
	Artist     Artist
	Artists    []Artist
	Album      Album
	DurationMS int64
	Name       string
	URI        string
	ImageURI   ImageURI
	IsEpisode  bool
	IsPodcast  bool
}

// PlayerOptions are the shuffle and repeat settings.
type PlayerOptions struct {
	IsShuffling bool
	RepeatMode  int
}

// PlayerRestrictions reports which player actions are currently allowed.
type PlayerRestrictions struct {
	CanSkipNext      bool
	CanSkipPrev      bool
	CanRepeatTrack   bool
	CanRepeatContext bool
	CanToggleShuffle bool
	CanSeek          bool
}

// PlayerState is a snapshot of the player.
type PlayerState struct {
	Track                *Track
	IsPaused             bool
	PlaybackSpeed        float64
	PlaybackPosition     int64
	PlaybackOptions      PlayerOptions
	PlaybackRestrictions PlayerRestrictions
}

// PlayerContext describes the collection being played.
type PlayerContext struct {
	URI      string
	Title    string
	Subtitle string
	Type     string
}

// CrossfadeState describes track-to-track crossfading.
type CrossfadeState struct {
	IsEnabled bool
	Duration  int
}

// ConnectionParams configure a connection attempt.
type ConnectionParams struct {
	ClientID     string
	RedirectURI  string
	ShowAuthView bool
	AccessToken  string
}

// Connector opens remote-control connections.
type Connector interface {
	Connect(ctx context.Context, params ConnectionParams) (AppRemote, error)
}

// AppRemote is an open control channel to the playback application.
type AppRemote interface {
	IsConnected() bool
	Player() PlayerAPI
	Content() ContentAPI
	Disconnect() error
}

// PlayerAPI controls playback.
type PlayerAPI interface {
	Play(ctx context.Context, uri string) error
	Queue(ctx context.Context, uri string) error
	SkipToIndex(ctx context.Context, uri string, index int) error
	Seek(ctx context.Context, positionMS int64) error
	Resume(ctx context.Context) error
	Pause(ctx context.Context) error
	SkipNext(ctx context.Context) error
	SkipPrevious(ctx context.Context) error
	SetShuffle(ctx context.Context, shuffle bool) error
	SetRepeat(ctx context.Context, mode int) error
	PlayerState(ctx context.Context) (PlayerState, error)
	CrossfadeState(ctx context.Context) (CrossfadeState, error)
	SubscribeToPlayerState(handler func(PlayerState)) (Subscription, error)
	SubscribeToPlayerContext(handler func(PlayerContext)) (Subscription, error)
}

// ContentAPI browses and plays catalog content.
type ContentAPI interface {
	PlayContentItem(ctx context.Context, item ListItem) error
	RecommendedContentItems(ctx context.Context, contentType string) (ListItems, error)
	ChildrenOfItem(ctx context.Context, item ListItem, perPage int, offset int) (ListItems, error)
}

// Subscription is a live event stream from the remote.
type Subscription interface {
	Cancel()
	IsCanceled() bool
}

// FuncSubscription runs a stop function once on Cancel.
type FuncSubscription struct {
	mu       sync.Mutex
	stop     func()
	canceled bool
}

// NewSubscription wraps stop as a Subscription.
func NewSubscription(stop func()) *FuncSubscription {
	return &FuncSubscription{stop: stop}
}

// Cancel stops the subscription. Repeated calls are no-ops.
func (s *FuncSubscription) Cancel() {
	s.mu.Lock()
	if s.canceled {
		s.mu.Unlock()
		return
	}
	s.canceled = true
	stop := s.stop
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// IsCanceled reports whether Cancel was called.
func (s *FuncSubscription) IsCanceled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canceled
}
