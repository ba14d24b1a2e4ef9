package convert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey-austin/spotify_remote/internal/remote"
)

func TestAuthorizationResponseNil(t *testing.T) {
	assert.Nil(t, AuthorizationResponse(nil, time.Now()))
}

func TestAuthorizationResponseToken(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	out := AuthorizationResponse(&remote.AuthorizationResponse{
		Type:        remote.ResponseToken,
		AccessToken: "tok",
		Code:        "ignored",
		ExpiresIn:   3600,
	}, now)

	assert.Equal(t, "tok", out["accessToken"])
	assert.Equal(t, "2026-01-02T04:04:05Z", out["expirationDate"])
	assert.Equal(t, false, out["expired"])
}

func TestAuthorizationResponseCodeZeroExpiryIsExpired(t *testing.T) {
	out := AuthorizationResponse(&remote.AuthorizationResponse{
		Type: remote.ResponseCode,
		Code: "abc",
	}, time.Now())

	assert.Equal(t, "abc", out["accessToken"])
	assert.Equal(t, true, out["expired"])
}

func TestAuthorizationResponseRecomputedPerCall(t *testing.T) {
	resp := &remote.AuthorizationResponse{Type: remote.ResponseToken, AccessToken: "tok", ExpiresIn: 60}
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	first := AuthorizationResponse(resp, start)
	later := AuthorizationResponse(resp, start.Add(2*time.Minute))

	assert.NotEqual(t, first["expirationDate"], later["expirationDate"])
	assert.Equal(t, false, later["expired"])
}

func TestListItemRoundTrip(t *testing.T) {
	in := map[string]any{
		"title":            "Daily Mix",
		"subtitle":         "Made for you",
		"id":               "mix-1",
		"uri":              "spotify:playlist:mix1",
		"playable":         true,
		"container":        true,
		"children":         []any{map[string]any{"id": "x"}},
		"availableOffline": true,
	}

	item := ToItem(in)
	assert.Equal(t, remote.ImageURI{}, item.ImageURI)

	out := ListItem(item)
	for _, key := range []string{"title", "subtitle", "id", "uri", "playable", "container"} {
		assert.Equal(t, in[key], out[key], key)
	}
	assert.Equal(t, []map[string]any{}, out["children"])
	assert.Equal(t, false, out["availableOffline"])
}

func TestToItemMissingKeys(t *testing.T) {
	item := ToItem(map[string]any{"uri": 42})
	assert.Equal(t, remote.ListItem{}, item)
}

func TestListItems(t *testing.T) {
	out := ListItems(remote.ListItems{Items: []remote.ListItem{{ID: "a"}, {ID: "b"}}})
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[1]["id"])

	assert.Empty(t, ListItems(remote.ListItems{}))
}

func TestPlayerState(t *testing.T) {
	state := remote.PlayerState{
		Track: &remote.Track{
			Name:       "Song",
			URI:        "spotify:track:1",
			DurationMS: 180000,
			Artist:     remote.Artist{Name: "Band", URI: "spotify:artist:1"},
			Album:      remote.Album{Name: "Record", URI: "spotify:album:1"},
		},
		IsPaused:         true,
		PlaybackSpeed:    1,
		PlaybackPosition: 1500,
		PlaybackOptions:  remote.PlayerOptions{IsShuffling: true, RepeatMode: remote.RepeatContext},
		PlaybackRestrictions: remote.PlayerRestrictions{
			CanSkipPrev: true,
			CanSeek:     true,
		},
	}

	out := PlayerState(state)
	assert.Equal(t, true, out["isPaused"])
	assert.Equal(t, float64(1500), out["playbackPosition"])

	options := out["playbackOptions"].(map[string]any)
	assert.Equal(t, float64(2), options["repeatMode"])
	assert.Equal(t, true, options["isShuffling"])

	restrictions := out["playbackRestrictions"].(map[string]any)
	assert.Equal(t, true, restrictions["canSkipPrevious"])
	assert.Equal(t, false, restrictions["canSkipNext"])

	track := out["track"].(map[string]any)
	assert.Equal(t, float64(180000), track["duration"])
	assert.Equal(t, "Band", track["artist"].(map[string]any)["name"])
	assert.Equal(t, "Record", track["album"].(map[string]any)["name"])
}

func TestPlayerStateWithoutTrack(t *testing.T) {
	out := PlayerState(remote.PlayerState{})
	assert.Nil(t, out["track"])
	assert.Nil(t, Track(nil))
}

func TestCrossfadeAndContext(t *testing.T) {
	assert.Equal(t, map[string]any{"enabled": true, "duration": 5000}, CrossfadeState(remote.CrossfadeState{IsEnabled: true, Duration: 5000}))
	assert.Equal(t, map[string]any{"title": "Focus", "uri": "spotify:playlist:f"}, PlayerContext(remote.PlayerContext{Title: "Focus", URI: "spotify:playlist:f", Type: "playlist"}))
}
