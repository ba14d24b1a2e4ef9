package spotifyweb

import (
	"context"
	"sync"

	"github.com/zmb3/spotify/v2"
)

type fakeAPI struct {
	mu sync.Mutex

	userErr    error
	devices    []spotify.PlayerDevice
	state      *spotify.PlayerState
	stateCalls int
	plays      []spotify.PlayOptions
	queued     []spotify.ID
	seeks      []int
	repeats    []string
	calls      []string
	playlist   *spotify.PlaylistItemPage
	albumPage  *spotify.SimpleTrackPage
	featured   *spotify.SimplePlaylistPage
	mine       *spotify.SimplePlaylistPage
	searched   string
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAPI) CurrentUser(ctx context.Context) (*spotify.PrivateUser, error) {
	if f.userErr != nil {
		return nil, f.userErr
	}
	user := &spotify.PrivateUser{}
	user.ID = "user-1"
	return user, nil
}

func (f *fakeAPI) PlayerDevices(ctx context.Context) ([]spotify.PlayerDevice, error) {
	return f.devices, nil
}

func (f *fakeAPI) PlayerState(ctx context.Context, opts ...spotify.RequestOption) (*spotify.PlayerState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stateCalls++
	if f.state == nil {
		return &spotify.PlayerState{}, nil
	}
	copied := *f.state
	return &copied, nil
}

func (f *fakeAPI) setState(state *spotify.PlayerState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = state
}

func (f *fakeAPI) PlayOpt(ctx context.Context, opts *spotify.PlayOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays = append(f.plays, *opts)
	return nil
}

func (f *fakeAPI) Pause(ctx context.Context) error    { f.record("pause"); return nil }
func (f *fakeAPI) Next(ctx context.Context) error     { f.record("next"); return nil }
func (f *fakeAPI) Previous(ctx context.Context) error { f.record("previous"); return nil }

func (f *fakeAPI) Seek(ctx context.Context, position int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeks = append(f.seeks, position)
	return nil
}

func (f *fakeAPI) Shuffle(ctx context.Context, shuffle bool) error {
	f.record("shuffle")
	return nil
}

func (f *fakeAPI) Repeat(ctx context.Context, state string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.repeats = append(f.repeats, state)
	return nil
}

func (f *fakeAPI) QueueSong(ctx context.Context, trackID spotify.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queued = append(f.queued, trackID)
	return nil
}

func (f *fakeAPI) GetPlaylist(ctx context.Context, playlistID spotify.ID, opts ...spotify.RequestOption) (*spotify.FullPlaylist, error) {
	playlist := &spotify.FullPlaylist{}
	playlist.Name = "Playlist " + string(playlistID)
	return playlist, nil
}

func (f *fakeAPI) GetPlaylistItems(ctx context.Context, playlistID spotify.ID, opts ...spotify.RequestOption) (*spotify.PlaylistItemPage, error) {
	f.record("playlistItems:" + string(playlistID))
	if f.playlist == nil {
		return &spotify.PlaylistItemPage{}, nil
	}
	return f.playlist, nil
}

func (f *fakeAPI) GetAlbum(ctx context.Context, id spotify.ID, opts ...spotify.RequestOption) (*spotify.FullAlbum, error) {
	album := &spotify.FullAlbum{}
	album.Name = "Album " + string(id)
	return album, nil
}

func (f *fakeAPI) GetAlbumTracks(ctx context.Context, id spotify.ID, opts ...spotify.RequestOption) (*spotify.SimpleTrackPage, error) {
	f.record("albumTracks:" + string(id))
	if f.albumPage == nil {
		return &spotify.SimpleTrackPage{}, nil
	}
	return f.albumPage, nil
}

func (f *fakeAPI) CurrentUsersPlaylists(ctx context.Context, opts ...spotify.RequestOption) (*spotify.SimplePlaylistPage, error) {
	f.record("mine")
	return f.mine, nil
}

func (f *fakeAPI) FeaturedPlaylists(ctx context.Context, opts ...spotify.RequestOption) (string, *spotify.SimplePlaylistPage, error) {
	f.record("featured")
	return "", f.featured, nil
}

func (f *fakeAPI) Search(ctx context.Context, query string, t spotify.SearchType, opts ...spotify.RequestOption) (*spotify.SearchResult, error) {
	f.mu.Lock()
	f.searched = query
	f.mu.Unlock()
	return &spotify.SearchResult{Playlists: f.featured}, nil
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) Plays() []spotify.PlayOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]spotify.PlayOptions(nil), f.plays...)
}
