// Package spotifyweb implements the remote interfaces on top of the Spotify
// Web API. Playback is driven through a Spotify Connect device and player
// events are produced by polling.
package spotifyweb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/zmb3/spotify/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/mikey-austin/spotify_remote/internal/remote"
)

// spotifyAPI is the subset of the Web API client the backend uses.
type spotifyAPI interface {
	CurrentUser(ctx context.Context) (*spotify.PrivateUser, error)
	PlayerDevices(ctx context.Context) ([]spotify.PlayerDevice, error)
	PlayerState(ctx context.Context, opts ...spotify.RequestOption) (*spotify.PlayerState, error)
	PlayOpt(ctx context.Context, opts *spotify.PlayOptions) error
	Pause(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	Seek(ctx context.Context, position int) error
	Shuffle(ctx context.Context, shuffle bool) error
	Repeat(ctx context.Context, state string) error
	QueueSong(ctx context.Context, trackID spotify.ID) error
	GetPlaylist(ctx context.Context, playlistID spotify.ID, opts ...spotify.RequestOption) (*spotify.FullPlaylist, error)
	GetPlaylistItems(ctx context.Context, playlistID spotify.ID, opts ...spotify.RequestOption) (*spotify.PlaylistItemPage, error)
	GetAlbum(ctx context.Context, id spotify.ID, opts ...spotify.RequestOption) (*spotify.FullAlbum, error)
	GetAlbumTracks(ctx context.Context, id spotify.ID, opts ...spotify.RequestOption) (*spotify.SimpleTrackPage, error)
	CurrentUsersPlaylists(ctx context.Context, opts ...spotify.RequestOption) (*spotify.SimplePlaylistPage, error)
	FeaturedPlaylists(ctx context.Context, opts ...spotify.RequestOption) (string, *spotify.SimplePlaylistPage, error)
	Search(ctx context.Context, query string, t spotify.SearchType, opts ...spotify.RequestOption) (*spotify.SearchResult, error)
}

var _ spotifyAPI = (*spotify.Client)(nil)

// Config configures the Web API backend.
type Config struct {
	// BaseURL overrides the API endpoint. It must end with a slash.
	BaseURL      string
	Market       string
	DeviceName   string
	PollInterval time.Duration
	PageSize     int
}

// Connector opens Web API sessions for an access token.
type Connector struct {
	log    *zap.Logger
	config Config
	newAPI func(ctx context.Context, token string) spotifyAPI
}

// NewConnector creates a connector.
func NewConnector(log *zap.Logger, cfg Config) *Connector {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	c := &Connector{log: log, config: cfg}
	c.newAPI = c.webAPI
	return c
}

func (c *Connector) webAPI(ctx context.Context, token string) spotifyAPI {
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
	var opts []spotify.ClientOption
	if c.config.BaseURL != "" {
		opts = append(opts, spotify.WithBaseURL(c.config.BaseURL))
	}
	return spotify.New(httpClient, opts...)
}

// Connect verifies the token and picks a playback device.
func (c *Connector) Connect(ctx context.Context, params remote.ConnectionParams) (remote.AppRemote, error) {
	if strings.TrimSpace(params.AccessToken) == "" {
		return nil, remote.ErrNotLoggedIn
	}
	api := c.newAPI(ctx, params.AccessToken)

	user, err := api.CurrentUser(ctx)
	if err != nil {
		if status(err) == http.StatusUnauthorized || status(err) == http.StatusForbidden {
			return nil, fmt.Errorf("%w: %v", remote.ErrUserNotAuthorized, err)
		}
		return nil, fmt.Errorf("current user: %w", err)
	}

	devices, err := api.PlayerDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("player devices: %w", err)
	}
	device, ok := pickDevice(devices, c.config.DeviceName)
	if !ok {
		return nil, remote.ErrCouldNotFindApp
	}

	c.log.Info("spotify connected",
		zap.String("user", user.ID),
		zap.String("device", device.Name),
		zap.String("device_id", string(device.ID)),
		zap.String("client_id", params.ClientID))
	return newAppRemote(c.log, api, device, c.config), nil
}

// pickDevice prefers the named device, then the active one, then the first
// unrestricted one.
func pickDevice(devices []spotify.PlayerDevice, name string) (spotify.PlayerDevice, bool) {
	if name != "" {
		for _, device := range devices {
			if strings.EqualFold(device.Name, name) {
				return device, true
			}
		}
		return spotify.PlayerDevice{}, false
	}
	for _, device := range devices {
		if device.Active {
			return device, true
		}
	}
	for _, device := range devices {
		if !device.Restricted {
			return device, true
		}
	}
	return spotify.PlayerDevice{}, false
}

func status(err error) int {
	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
