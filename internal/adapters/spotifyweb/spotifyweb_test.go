package spotifyweb

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zmb3/spotify/v2"

	"github.com/mikey-austin/spotify_remote/internal/remote"
)

func newTestConnector(api *fakeAPI, cfg Config) *Connector {
	c := NewConnector(nil, cfg)
	c.newAPI = func(context.Context, string) spotifyAPI { return api }
	return c
}

func phone() spotify.PlayerDevice {
	return spotify.PlayerDevice{ID: "dev-1", Name: "Phone", Active: true}
}

func connect(t *testing.T, api *fakeAPI, cfg Config) remote.AppRemote {
	t.Helper()
	appRemote, err := newTestConnector(api, cfg).Connect(context.Background(), remote.ConnectionParams{AccessToken: "tok"})
	require.NoError(t, err)
	return appRemote
}

func TestConnectClassifiesFailures(t *testing.T) {
	_, err := newTestConnector(&fakeAPI{}, Config{}).Connect(context.Background(), remote.ConnectionParams{})
	assert.ErrorIs(t, err, remote.ErrNotLoggedIn)

	api := &fakeAPI{userErr: spotify.Error{Status: 401, Message: "The access token expired"}}
	_, err = newTestConnector(api, Config{}).Connect(context.Background(), remote.ConnectionParams{AccessToken: "tok"})
	assert.ErrorIs(t, err, remote.ErrUserNotAuthorized)

	api = &fakeAPI{userErr: errors.New("dns failure")}
	_, err = newTestConnector(api, Config{}).Connect(context.Background(), remote.ConnectionParams{AccessToken: "tok"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, remote.ErrUserNotAuthorized)

	_, err = newTestConnector(&fakeAPI{}, Config{}).Connect(context.Background(), remote.ConnectionParams{AccessToken: "tok"})
	assert.ErrorIs(t, err, remote.ErrCouldNotFindApp)
}

func TestPickDevice(t *testing.T) {
	devices := []spotify.PlayerDevice{
		{ID: "a", Name: "Speaker", Restricted: true},
		{ID: "b", Name: "Laptop"},
		{ID: "c", Name: "Phone", Active: true},
	}
	device, ok := pickDevice(devices, "")
	require.True(t, ok)
	assert.Equal(t, spotify.ID("c"), device.ID)

	device, ok = pickDevice(devices, "laptop")
	require.True(t, ok)
	assert.Equal(t, spotify.ID("b"), device.ID)

	_, ok = pickDevice(devices, "Kitchen")
	assert.False(t, ok)

	device, ok = pickDevice(devices[:2], "")
	require.True(t, ok)
	assert.Equal(t, spotify.ID("b"), device.ID)
}

func TestPlayUsesContextOrURIs(t *testing.T) {
	api := &fakeAPI{devices: []spotify.PlayerDevice{phone()}}
	player := connect(t, api, Config{}).Player()
	ctx := context.Background()

	require.NoError(t, player.Play(ctx, "spotify:playlist:p1"))
	require.NoError(t, player.Play(ctx, "spotify:track:t1"))
	require.Error(t, player.Play(ctx, "not-a-uri"))

	plays := api.Plays()
	require.Len(t, plays, 2)
	require.NotNil(t, plays[0].PlaybackContext)
	assert.Equal(t, spotify.URI("spotify:playlist:p1"), *plays[0].PlaybackContext)
	assert.Equal(t, spotify.ID("dev-1"), *plays[0].DeviceID)
	assert.Nil(t, plays[1].PlaybackContext)
	assert.Equal(t, []spotify.URI{"spotify:track:t1"}, plays[1].URIs)
}

func TestSkipToIndexResolvesOffsetTrack(t *testing.T) {
	api := &fakeAPI{devices: []spotify.PlayerDevice{phone()}}
	api.albumPage = &spotify.SimpleTrackPage{Tracks: []spotify.SimpleTrack{{URI: "spotify:track:third"}}}
	player := connect(t, api, Config{})

	require.NoError(t, player.Player().SkipToIndex(context.Background(), "spotify:album:a1", 2))
	plays := api.Plays()
	require.Len(t, plays, 1)
	require.NotNil(t, plays[0].PlaybackOffset)
	assert.Equal(t, spotify.URI("spotify:track:third"), plays[0].PlaybackOffset.URI)
	assert.Contains(t, api.Calls(), "albumTracks:a1")

	require.Error(t, player.Player().SkipToIndex(context.Background(), "spotify:track:t1", 0))
}

func TestPlayerControls(t *testing.T) {
	api := &fakeAPI{devices: []spotify.PlayerDevice{phone()}}
	player := connect(t, api, Config{}).Player()
	ctx := context.Background()

	require.NoError(t, player.Queue(ctx, "spotify:track:t9"))
	assert.Equal(t, []spotify.ID{"t9"}, api.queued)
	require.Error(t, player.Queue(ctx, "spotify:album:a"))

	require.NoError(t, player.Seek(ctx, 12345))
	assert.Equal(t, []int{12345}, api.seeks)

	require.NoError(t, player.SetRepeat(ctx, remote.RepeatTrack))
	require.NoError(t, player.SetRepeat(ctx, remote.RepeatOff))
	require.Error(t, player.SetRepeat(ctx, 7))
	assert.Equal(t, []string{"track", "off"}, api.repeats)

	require.NoError(t, player.Pause(ctx))
	require.NoError(t, player.SkipNext(ctx))
	require.NoError(t, player.SkipPrevious(ctx))
	require.NoError(t, player.SetShuffle(ctx, true))
	assert.Equal(t, []string{"pause", "next", "previous", "shuffle"}, api.Calls())

	require.NoError(t, player.Resume(ctx))
	plays := api.Plays()
	require.Len(t, plays, 1)
	assert.Nil(t, plays[0].PlaybackContext)
	assert.Empty(t, plays[0].URIs)

	_, err := player.CrossfadeState(ctx)
	assert.ErrorIs(t, err, remote.ErrUnsupported)
}

func TestPlayerStateMapping(t *testing.T) {
	state := &spotify.PlayerState{ShuffleState: true, RepeatState: "context"}
	state.Playing = true
	state.Progress = 4200
	state.Item = &spotify.FullTrack{}
	state.Item.Name = "Song"
	state.Item.URI = "spotify:track:t1"
	state.Item.Duration = 180000
	state.Item.Artists = []spotify.SimpleArtist{{Name: "Band", URI: "spotify:artist:b"}}
	state.Item.Album.Name = "Record"
	state.Item.Album.URI = "spotify:album:r"

	got := playerState(state)
	assert.False(t, got.IsPaused)
	assert.Equal(t, float64(1), got.PlaybackSpeed)
	assert.Equal(t, int64(4200), got.PlaybackPosition)
	assert.Equal(t, remote.PlayerOptions{IsShuffling: true, RepeatMode: remote.RepeatContext}, got.PlaybackOptions)
	assert.True(t, got.PlaybackRestrictions.CanSeek)
	require.NotNil(t, got.Track)
	assert.Equal(t, "Song", got.Track.Name)
	assert.Equal(t, int64(180000), got.Track.DurationMS)
	assert.Equal(t, remote.Artist{Name: "Band", URI: "spotify:artist:b"}, got.Track.Artist)
	assert.Equal(t, remote.Album{Name: "Record", URI: "spotify:album:r"}, got.Track.Album)

	idle := playerState(&spotify.PlayerState{})
	assert.True(t, idle.IsPaused)
	assert.Nil(t, idle.Track)
	assert.Zero(t, idle.PlaybackSpeed)
}

func TestStateSubscriptionEmitsOnChange(t *testing.T) {
	api := &fakeAPI{devices: []spotify.PlayerDevice{phone()}}
	appRemote := connect(t, api, Config{PollInterval: 5 * time.Millisecond})

	var mu sync.Mutex
	var seen []remote.PlayerState
	sub, err := appRemote.Player().SubscribeToPlayerState(func(state remote.PlayerState) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, state)
	})
	require.NoError(t, err)
	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(seen)
	}

	require.Eventually(t, func() bool { return count() == 1 }, time.Second, time.Millisecond)
	polls := func() int {
		api.mu.Lock()
		defer api.mu.Unlock()
		return api.stateCalls
	}
	before := polls()
	require.Eventually(t, func() bool { return polls() > before+2 }, time.Second, time.Millisecond)
	assert.Equal(t, 1, count())

	next := &spotify.PlayerState{}
	next.Playing = true
	api.setState(next)
	require.Eventually(t, func() bool { return count() == 2 }, time.Second, time.Millisecond)

	sub.Cancel()
	assert.True(t, sub.IsCanceled())
	after := polls()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, polls())
}

func TestContextSubscriptionResolvesTitle(t *testing.T) {
	api := &fakeAPI{devices: []spotify.PlayerDevice{phone()}}
	state := &spotify.PlayerState{}
	state.PlaybackContext = spotify.PlaybackContext{URI: "spotify:playlist:p1", Type: "playlist"}
	api.setState(state)
	appRemote := connect(t, api, Config{PollInterval: 5 * time.Millisecond})

	got := make(chan remote.PlayerContext, 4)
	_, err := appRemote.Player().SubscribeToPlayerContext(func(ctx remote.PlayerContext) { got <- ctx })
	require.NoError(t, err)

	select {
	case ctx := <-got:
		assert.Equal(t, "spotify:playlist:p1", ctx.URI)
		assert.Equal(t, "Playlist p1", ctx.Title)
	case <-time.After(time.Second):
		t.Fatalf("no context event")
	}

	require.NoError(t, appRemote.Disconnect())
	assert.False(t, appRemote.IsConnected())
}

func TestContentListings(t *testing.T) {
	api := &fakeAPI{devices: []spotify.PlayerDevice{phone()}}
	page := &spotify.SimplePlaylistPage{Playlists: []spotify.SimplePlaylist{{ID: "p1", URI: "spotify:playlist:p1", Name: "Daily"}}}
	page.Total = 1
	api.featured = page
	api.mine = page
	content := connect(t, api, Config{}).Content()
	ctx := context.Background()

	items, err := content.RecommendedContentItems(ctx, remote.ContentTypeDefault)
	require.NoError(t, err)
	require.Len(t, items.Items, 1)
	assert.Equal(t, remote.ListItem{ID: "p1", URI: "spotify:playlist:p1", Title: "Daily", Playable: true, HasChildren: true}, items.Items[0])
	assert.Equal(t, 1, items.Total)

	_, err = content.RecommendedContentItems(ctx, remote.ContentTypeNavigation)
	require.NoError(t, err)
	_, err = content.RecommendedContentItems(ctx, remote.ContentTypeFitness)
	require.NoError(t, err)
	assert.Equal(t, "workout", api.searched)
	assert.Equal(t, []string{"featured", "mine"}, api.Calls())

	track := spotify.FullTrack{}
	track.Name = "One"
	track.URI = "spotify:track:1"
	api.playlist = &spotify.PlaylistItemPage{Items: []spotify.PlaylistItem{{Track: spotify.PlaylistItemTrack{Track: &track}}, {}}}
	children, err := content.ChildrenOfItem(ctx, remote.ListItem{URI: "spotify:playlist:p1"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, children.Items, 1)
	assert.Equal(t, "One", children.Items[0].Title)

	children, err = content.ChildrenOfItem(ctx, remote.ListItem{ID: "x"}, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, children.Items)
	assert.Equal(t, 5, children.Offset)

	require.NoError(t, content.PlayContentItem(ctx, remote.ListItem{URI: "spotify:album:a"}))
	require.Error(t, content.PlayContentItem(ctx, remote.ListItem{ID: "x"}))
}
