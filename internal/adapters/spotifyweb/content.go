package spotifyweb

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"

	"github.com/mikey-austin/spotify_remote/internal/remote"
)

type content appRemote

func (c *content) PlayContentItem(ctx context.Context, item remote.ListItem) error {
	if item.URI == "" {
		return fmt.Errorf("content item %q has no uri", item.ID)
	}
	return (*player)(c).Play(ctx, item.URI)
}

// RecommendedContentItems maps content types onto Web API listings:
// featured playlists, the user's playlists and a workout search.
func (c *content) RecommendedContentItems(ctx context.Context, contentType string) (remote.ListItems, error) {
	limit := spotify.Limit(c.config.PageSize)
	switch contentType {
	case remote.ContentTypeNavigation:
		page, err := c.api.CurrentUsersPlaylists(ctx, limit)
		if err != nil {
			return remote.ListItems{}, err
		}
		return playlistItems(page), nil
	case remote.ContentTypeFitness:
		result, err := c.api.Search(ctx, "workout", spotify.SearchTypePlaylist, c.withMarket(limit)...)
		if err != nil {
			return remote.ListItems{}, err
		}
		return playlistItems(result.Playlists), nil
	default:
		_, page, err := c.api.FeaturedPlaylists(ctx, c.withMarket(limit)...)
		if err != nil {
			return remote.ListItems{}, err
		}
		return playlistItems(page), nil
	}
}

func (c *content) ChildrenOfItem(ctx context.Context, item remote.ListItem, perPage int, offset int) (remote.ListItems, error) {
	if perPage <= 0 {
		perPage = c.config.PageSize
	}
	kind, id, ok := uriKind(item.URI)
	if !ok {
		return remote.ListItems{Limit: perPage, Offset: offset}, nil
	}
	opts := c.withMarket(spotify.Limit(perPage), spotify.Offset(offset))
	switch kind {
	case "playlist":
		page, err := c.api.GetPlaylistItems(ctx, id, opts...)
		if err != nil {
			return remote.ListItems{}, err
		}
		out := remote.ListItems{Limit: int(page.Limit), Offset: int(page.Offset), Total: int(page.Total)}
		for _, entry := range page.Items {
			if entry.Track.Track == nil {
				continue
			}
			out.Items = append(out.Items, trackItem(entry.Track.Track.SimpleTrack))
		}
		return out, nil
	case "album":
		page, err := c.api.GetAlbumTracks(ctx, id, opts...)
		if err != nil {
			return remote.ListItems{}, err
		}
		out := remote.ListItems{Limit: int(page.Limit), Offset: int(page.Offset), Total: int(page.Total)}
		for _, t := range page.Tracks {
			out.Items = append(out.Items, trackItem(t))
		}
		return out, nil
	default:
		return remote.ListItems{Limit: perPage, Offset: offset}, nil
	}
}

func (c *content) withMarket(opts ...spotify.RequestOption) []spotify.RequestOption {
	if c.config.Market != "" {
		opts = append(opts, spotify.Market(c.config.Market))
	}
	return opts
}

func playlistItems(page *spotify.SimplePlaylistPage) remote.ListItems {
	if page == nil {
		return remote.ListItems{}
	}
	out := remote.ListItems{Limit: int(page.Limit), Offset: int(page.Offset), Total: int(page.Total)}
	for _, playlist := range page.Playlists {
		item := remote.ListItem{
			ID:          string(playlist.ID),
			URI:         string(playlist.URI),
			Title:       playlist.Name,
			Subtitle:    playlist.Owner.DisplayName,
			Playable:    true,
			HasChildren: true,
		}
		if len(playlist.Images) > 0 {
			item.ImageURI = remote.ImageURI{Raw: playlist.Images[0].URL}
		}
		out.Items = append(out.Items, item)
	}
	return out
}

func trackItem(t spotify.SimpleTrack) remote.ListItem {
	subtitle := ""
	if len(t.Artists) > 0 {
		subtitle = t.Artists[0].Name
	}
	return remote.ListItem{
		ID:       string(t.ID),
		URI:      string(t.URI),
		Title:    t.Name,
		Subtitle: subtitle,
		Playable: true,
	}
}
