package spotifyweb

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"

	"github.com/mikey-austin/spotify_remote/internal/remote"
)

type player appRemote

func (p *player) owner() *appRemote {
	return (*appRemote)(p)
}

func (p *player) Play(ctx context.Context, uri string) error {
	opts := &spotify.PlayOptions{DeviceID: p.owner().deviceID()}
	if isContextURI(uri) {
		contextURI := spotify.URI(uri)
		opts.PlaybackContext = &contextURI
	} else {
		if _, _, ok := uriKind(uri); !ok {
			return invalidURI(uri)
		}
		opts.URIs = []spotify.URI{spotify.URI(uri)}
	}
	return p.api.PlayOpt(ctx, opts)
}

func (p *player) Queue(ctx context.Context, uri string) error {
	kind, id, ok := uriKind(uri)
	if !ok || kind != "track" {
		return invalidURI(uri)
	}
	return p.api.QueueSong(ctx, id)
}

// SkipToIndex starts the context at index. The Web API offsets by track
// uri, so the track at index is looked up first.
func (p *player) SkipToIndex(ctx context.Context, uri string, index int) error {
	if !isContextURI(uri) {
		return invalidURI(uri)
	}
	contextURI := spotify.URI(uri)
	opts := &spotify.PlayOptions{DeviceID: p.owner().deviceID(), PlaybackContext: &contextURI}

	trackURI, err := p.trackAt(ctx, uri, index)
	if err != nil {
		return err
	}
	if trackURI != "" {
		opts.PlaybackOffset = &spotify.PlaybackOffset{URI: trackURI}
	}
	return p.api.PlayOpt(ctx, opts)
}

func (p *player) trackAt(ctx context.Context, uri string, index int) (spotify.URI, error) {
	kind, id, _ := uriKind(uri)
	if index < 0 {
		return "", fmt.Errorf("index %d out of range", index)
	}
	switch kind {
	case "playlist":
		page, err := p.api.GetPlaylistItems(ctx, id, spotify.Limit(1), spotify.Offset(index))
		if err != nil {
			return "", err
		}
		if len(page.Items) == 0 {
			return "", fmt.Errorf("index %d out of range", index)
		}
		if item := page.Items[0].Track.Track; item != nil {
			return item.URI, nil
		}
		return "", nil
	case "album":
		page, err := p.api.GetAlbumTracks(ctx, id, spotify.Limit(1), spotify.Offset(index))
		if err != nil {
			return "", err
		}
		if len(page.Tracks) == 0 {
			return "", fmt.Errorf("index %d out of range", index)
		}
		return page.Tracks[0].URI, nil
	default:
		return "", nil
	}
}

func (p *player) Seek(ctx context.Context, positionMS int64) error {
	return p.api.Seek(ctx, int(positionMS))
}

func (p *player) Resume(ctx context.Context) error {
	return p.api.PlayOpt(ctx, &spotify.PlayOptions{DeviceID: p.owner().deviceID()})
}

func (p *player) Pause(ctx context.Context) error {
	return p.api.Pause(ctx)
}

func (p *player) SkipNext(ctx context.Context) error {
	return p.api.Next(ctx)
}

func (p *player) SkipPrevious(ctx context.Context) error {
	return p.api.Previous(ctx)
}

func (p *player) SetShuffle(ctx context.Context, shuffle bool) error {
	return p.api.Shuffle(ctx, shuffle)
}

func (p *player) SetRepeat(ctx context.Context, mode int) error {
	state, err := repeatState(mode)
	if err != nil {
		return err
	}
	return p.api.Repeat(ctx, state)
}

func (p *player) PlayerState(ctx context.Context) (remote.PlayerState, error) {
	state, err := p.api.PlayerState(ctx, p.marketOptions()...)
	if err != nil {
		return remote.PlayerState{}, err
	}
	return playerState(state), nil
}

// CrossfadeState is not exposed by the Web API.
func (p *player) CrossfadeState(ctx context.Context) (remote.CrossfadeState, error) {
	return remote.CrossfadeState{}, fmt.Errorf("crossfade state: %w", remote.ErrUnsupported)
}

func (p *player) SubscribeToPlayerState(handler func(remote.PlayerState)) (remote.Subscription, error) {
	return p.owner().subscribe("state", func(ctx context.Context, last any) (any, bool, error) {
		state, err := p.PlayerState(ctx)
		if err != nil {
			return last, false, err
		}
		if last != nil && playerStateEqual(last.(remote.PlayerState), state) {
			return last, false, nil
		}
		handler(state)
		return state, true, nil
	})
}

func (p *player) SubscribeToPlayerContext(handler func(remote.PlayerContext)) (remote.Subscription, error) {
	return p.owner().subscribe("context", func(ctx context.Context, last any) (any, bool, error) {
		state, err := p.api.PlayerState(ctx, p.marketOptions()...)
		if err != nil {
			return last, false, err
		}
		if state == nil || state.PlaybackContext.URI == "" {
			return last, false, nil
		}
		uri := string(state.PlaybackContext.URI)
		if last != nil && last.(remote.PlayerContext).URI == uri {
			return last, false, nil
		}
		playerContext := remote.PlayerContext{
			URI:   uri,
			Type:  state.PlaybackContext.Type,
			Title: p.contextTitle(ctx, uri),
		}
		handler(playerContext)
		return playerContext, true, nil
	})
}

func (p *player) contextTitle(ctx context.Context, uri string) string {
	kind, id, ok := uriKind(uri)
	if !ok {
		return ""
	}
	switch kind {
	case "playlist":
		playlist, err := p.api.GetPlaylist(ctx, id)
		if err == nil {
			return playlist.Name
		}
	case "album":
		album, err := p.api.GetAlbum(ctx, id, p.marketOptions()...)
		if err == nil {
			return album.Name
		}
	}
	return ""
}

func (p *player) marketOptions() []spotify.RequestOption {
	if p.config.Market == "" {
		return nil
	}
	return []spotify.RequestOption{spotify.Market(p.config.Market)}
}

func repeatState(mode int) (string, error) {
	switch mode {
	case remote.RepeatOff:
		return "off", nil
	case remote.RepeatTrack:
		return "track", nil
	case remote.RepeatContext:
		return "context", nil
	default:
		return "", fmt.Errorf("invalid repeat mode %d", mode)
	}
}

func repeatMode(state string) int {
	switch state {
	case "track":
		return remote.RepeatTrack
	case "context":
		return remote.RepeatContext
	default:
		return remote.RepeatOff
	}
}

func playerState(state *spotify.PlayerState) remote.PlayerState {
	if state == nil {
		return remote.PlayerState{IsPaused: true}
	}
	out := remote.PlayerState{
		IsPaused:         !state.Playing,
		PlaybackPosition: int64(state.Progress),
		PlaybackOptions: remote.PlayerOptions{
			IsShuffling: state.ShuffleState,
			RepeatMode:  repeatMode(state.RepeatState),
		},
		PlaybackRestrictions: remote.PlayerRestrictions{
			CanSkipNext:      !state.Device.Restricted,
			CanSkipPrev:      !state.Device.Restricted,
			CanRepeatTrack:   !state.Device.Restricted,
			CanRepeatContext: !state.Device.Restricted,
			CanToggleShuffle: !state.Device.Restricted,
			CanSeek:          !state.Device.Restricted,
		},
	}
	if state.Playing {
		out.PlaybackSpeed = 1
	}
	if state.Item != nil {
		out.Track = track(state.Item)
	}
	return out
}

func track(item *spotify.FullTrack) *remote.Track {
	out := &remote.Track{
		Name:       item.Name,
		URI:        string(item.URI),
		DurationMS: int64(item.Duration),
		Album:      remote.Album{Name: item.Album.Name, URI: string(item.Album.URI)},
	}
	for _, artist := range item.Artists {
		out.Artists = append(out.Artists, remote.Artist{Name: artist.Name, URI: string(artist.URI)})
	}
	if len(out.Artists) > 0 {
		out.Artist = out.Artists[0]
	}
	if len(item.Album.Images) > 0 {
		out.ImageURI = remote.ImageURI{Raw: item.Album.Images[0].URL}
	}
	return out
}

// playerStateEqual ignores position drift while playing.
func playerStateEqual(a, b remote.PlayerState) bool {
	if a.IsPaused != b.IsPaused || a.PlaybackOptions != b.PlaybackOptions || a.PlaybackRestrictions != b.PlaybackRestrictions {
		return false
	}
	if (a.Track == nil) != (b.Track == nil) {
		return false
	}
	if a.Track != nil && a.Track.URI != b.Track.URI {
		return false
	}
	if a.IsPaused && a.PlaybackPosition != b.PlaybackPosition {
		return false
	}
	return true
}
