package remotecore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey-austin/spotify_remote/internal/remote"
	"github.com/mikey-austin/spotify_remote/pkg/sr"
)

func TestDispatchWithoutConnectionNeverCallsRemote(t *testing.T) {
	fr := newFakeRemote()
	conn := NewConnection(context.Background(), nil, &fakeConnector{remote: fr}, nil)
	d := NewDispatcher(nil, conn, nil)
	ctx := context.Background()

	errs := []error{
		d.PlayURI(ctx, "spotify:track:1"),
		d.PlayItem(ctx, map[string]any{"uri": "spotify:album:1"}),
		d.PlayItemWithIndex(ctx, map[string]any{"uri": "spotify:album:1"}, 2),
		d.QueueURI(ctx, "spotify:track:1"),
		d.Seek(ctx, 10),
		d.Resume(ctx),
		d.Pause(ctx),
		d.SkipToNext(ctx),
		d.SkipToPrevious(ctx),
		d.SetShuffling(ctx, true),
		d.SetRepeatMode(ctx, remote.RepeatTrack),
	}
	_, err := d.GetPlayerState(ctx)
	errs = append(errs, err)
	_, err = d.GetRecommendedContentItems(ctx, remote.ContentTypeDefault)
	errs = append(errs, err)
	_, err = d.GetChildrenOfItem(ctx, map[string]any{"id": "x"}, 10, 0)
	errs = append(errs, err)
	_, err = d.GetCrossfadeState(ctx)
	errs = append(errs, err)

	for _, err := range errs {
		require.ErrorIs(t, err, ErrNotConnected)
		assert.Equal(t, "Spotify App Remote not connected", err.Error())
	}
	assert.Zero(t, fr.playerCalls)
	assert.Zero(t, fr.contentCalls)
}

func TestDispatchForwardsArguments(t *testing.T) {
	conn, fr, _ := connectedFixture(t)
	d := NewDispatcher(nil, conn, nil)
	ctx := context.Background()

	require.NoError(t, d.PlayItemWithIndex(ctx, map[string]any{"uri": "spotify:album:9"}, 3))
	assert.Equal(t, "spotify:album:9", fr.player.lastURI)
	assert.Equal(t, 3, fr.player.lastIndex)

	require.NoError(t, d.Seek(ctx, 1500.9))
	assert.Equal(t, int64(1500), fr.player.lastSeek)

	require.NoError(t, d.SetShuffling(ctx, true))
	assert.True(t, fr.player.lastShuffle)

	require.NoError(t, d.SetRepeatMode(ctx, remote.RepeatContext))
	assert.Equal(t, remote.RepeatContext, fr.player.lastRepeat)

	require.NoError(t, d.PlayItem(ctx, map[string]any{"id": "a", "uri": "spotify:playlist:1", "container": true}))
	require.Len(t, fr.content.played, 1)
	assert.Equal(t, "spotify:playlist:1", fr.content.played[0].URI)
	assert.True(t, fr.content.played[0].HasChildren)

	require.NoError(t, d.Resume(ctx))
	require.NoError(t, d.Pause(ctx))
	require.NoError(t, d.SkipToNext(ctx))
	require.NoError(t, d.SkipToPrevious(ctx))
	assert.Equal(t, []string{"skipToIndex", "seek", "shuffle", "repeat", "resume", "pause", "next", "prev"}, fr.player.Ops())
}

func TestQueueURIRejectsNonTrackBeforeRemote(t *testing.T) {
	conn, fr, _ := connectedFixture(t)
	d := NewDispatcher(nil, conn, nil)

	err := d.QueueURI(context.Background(), "spotify:album:1")
	require.ErrorIs(t, err, ErrInvalidTrackURI)
	assert.Empty(t, fr.player.Ops())

	require.NoError(t, d.QueueURI(context.Background(), "spotify:track:1"))
	assert.Equal(t, []string{"queue"}, fr.player.Ops())
}

func TestDispatchForwardsRemoteErrorsUnchanged(t *testing.T) {
	conn, fr, _ := connectedFixture(t)
	d := NewDispatcher(nil, conn, nil)
	boom := errors.New("player restricted")
	fr.player.err = boom

	assert.Same(t, boom, d.Pause(context.Background()))
	_, err := d.GetPlayerState(context.Background())
	assert.Same(t, boom, err)
}

func TestGetPlayerStateEmitsEvent(t *testing.T) {
	conn, fr, _ := connectedFixture(t)
	emitter := &recordingEmitter{}
	d := NewDispatcher(nil, conn, emitter)
	fr.player.state = remote.PlayerState{
		Track:    &remote.Track{Name: "Song", URI: "spotify:track:1", DurationMS: 1000},
		IsPaused: false,
	}

	state, err := d.GetPlayerState(context.Background())
	require.NoError(t, err)
	track := state["track"].(map[string]any)
	assert.Equal(t, "Song", track["name"])
	assert.Equal(t, float64(1000), track["duration"])

	last := emitter.Last()
	assert.Equal(t, sr.EventPlayerStateChanged, last.name)
	assert.Equal(t, state, last.payload)
}

func TestContentQueries(t *testing.T) {
	conn, fr, _ := connectedFixture(t)
	d := NewDispatcher(nil, conn, nil)
	fr.content.children = []remote.ListItem{{ID: "1", URI: "spotify:track:1", Title: "One", Playable: true}}
	fr.player.crossfade = remote.CrossfadeState{IsEnabled: true, Duration: 5000}

	items, err := d.GetChildrenOfItem(context.Background(), map[string]any{"id": "parent"}, 20, 40)
	require.NoError(t, err)
	assert.Equal(t, [2]int{20, 40}, fr.content.lastPage)
	require.Len(t, items, 1)
	assert.Equal(t, "One", items[0]["title"])
	assert.Equal(t, false, items[0]["availableOffline"])

	items, err = d.GetRecommendedContentItems(context.Background(), remote.ContentTypeNavigation)
	require.NoError(t, err)
	assert.Equal(t, remote.ContentTypeNavigation, fr.content.lastType)
	assert.Len(t, items, 1)

	crossfade, err := d.GetCrossfadeState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"enabled": true, "duration": 5000}, crossfade)
}

func TestUnsupportedReadsAreConstant(t *testing.T) {
	d := NewDispatcher(nil, NewConnection(context.Background(), nil, &fakeConnector{}, nil), nil)

	root := d.GetRootContentItems(remote.ContentTypeDefault)
	require.NotNil(t, root)
	assert.Empty(t, root)
	assert.Nil(t, d.GetContentItemForURI("spotify:track:1"))
}
