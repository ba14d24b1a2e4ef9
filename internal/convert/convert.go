// Package convert maps remote domain objects to the generic key/value
// form carried in replies and events, and back.
package convert

import (
	"time"

	"github.com/mikey-austin/spotify_remote/internal/remote"
)

// AuthorizationResponse converts an authorization response. Expiration is
// computed from now, so every call recomputes expirationDate and expired.
func AuthorizationResponse(resp *remote.AuthorizationResponse, now time.Time) map[string]any {
	if resp == nil {
		return nil
	}
	out := map[string]any{}
	switch resp.Type {
	case remote.ResponseToken:
		out["accessToken"] = resp.AccessToken
	case remote.ResponseCode:
		out["accessToken"] = resp.Code
	}
	expiration := now.Add(time.Duration(resp.ExpiresIn) * time.Second)
	out["expirationDate"] = expiration.UTC().Format(time.RFC3339)
	out["expired"] = !now.Before(expiration)
	return out
}

// ListItems converts a page of content items.
func ListItems(items remote.ListItems) []map[string]any {
	out := make([]map[string]any, 0, len(items.Items))
	for _, item := range items.Items {
		out = append(out, ListItem(item))
	}
	return out
}

// ListItem converts a content item. Children are never listed eagerly and
// offline availability is not reported, so both are fixed values.
func ListItem(item remote.ListItem) map[string]any {
	return map[string]any{
		"title":            item.Title,
		"subtitle":         item.Subtitle,
		"id":               item.ID,
		"uri":              item.URI,
		"playable":         item.Playable,
		"children":         []map[string]any{},
		"container":        item.HasChildren,
		"availableOffline": false,
	}
}

// ToItem builds a content item from its map form. The image reference is
// always empty.
func ToItem(m map[string]any) remote.ListItem {
	return remote.ListItem{
		ID:          stringValue(m, "id"),
		URI:         stringValue(m, "uri"),
		ImageURI:    remote.ImageURI{},
		Title:       stringValue(m, "title"),
		Subtitle:    stringValue(m, "subtitle"),
		Playable:    boolValue(m, "playable"),
		HasChildren: boolValue(m, "container"),
	}
}

// CrossfadeState converts crossfade settings.
func CrossfadeState(state remote.CrossfadeState) map[string]any {
	return map[string]any{
		"enabled":  state.IsEnabled,
		"duration": state.Duration,
	}
}

// Album converts an album.
func Album(album remote.Album) map[string]any {
	return map[string]any{
		"name": album.Name,
		"uri":  album.URI,
	}
}

// Artist converts an artist.
func Artist(artist remote.Artist) map[string]any {
	return map[string]any{
		"name": artist.Name,
		"uri":  artist.URI,
	}
}

// Track converts a track. A nil track converts to nil.
func Track(track *remote.Track) map[string]any {
	if track == nil {
		return nil
	}
	return map[string]any{
		"duration":  float64(track.DurationMS),
		"isPodcast": track.IsPodcast,
		"isEpisode": track.IsEpisode,
		"uri":       track.URI,
		"name":      track.Name,
		"artist":    Artist(track.Artist),
		"album":     Album(track.Album),
	}
}

// PlayerOptions converts shuffle and repeat settings.
func PlayerOptions(options remote.PlayerOptions) map[string]any {
	return map[string]any{
		"repeatMode":  float64(options.RepeatMode),
		"isShuffling": options.IsShuffling,
	}
}

// PlayerRestrictions converts player restrictions.
func PlayerRestrictions(r remote.PlayerRestrictions) map[string]any {
	return map[string]any{
		"canRepeatContext": r.CanRepeatContext,
		"canRepeatTrack":   r.CanRepeatTrack,
		"canSeek":          r.CanSeek,
		"canSkipNext":      r.CanSkipNext,
		"canSkipPrevious":  r.CanSkipPrev,
		"canToggleShuffle": r.CanToggleShuffle,
	}
}

// PlayerState converts a player snapshot.
func PlayerState(state remote.PlayerState) map[string]any {
	return map[string]any{
		"isPaused":             state.IsPaused,
		"playbackPosition":     float64(state.PlaybackPosition),
		"playbackSpeed":        state.PlaybackSpeed,
		"playbackOptions":      PlayerOptions(state.PlaybackOptions),
		"playbackRestrictions": PlayerRestrictions(state.PlaybackRestrictions),
		"track":                Track(state.Track),
	}
}

// PlayerContext converts a playback context.
func PlayerContext(ctx remote.PlayerContext) map[string]any {
	return map[string]any{
		"title": ctx.Title,
		"uri":   ctx.URI,
	}
}

func stringValue(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func boolValue(m map[string]any, key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}
