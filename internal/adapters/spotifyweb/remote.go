package spotifyweb

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/zmb3/spotify/v2"
	"go.uber.org/zap"

	"github.com/mikey-austin/spotify_remote/internal/remote"
)

type appRemote struct {
	log    *zap.Logger
	api    spotifyAPI
	device spotify.PlayerDevice
	config Config

	connected atomic.Bool

	mu      sync.Mutex
	pollers []*poller
}

func newAppRemote(log *zap.Logger, api spotifyAPI, device spotify.PlayerDevice, cfg Config) *appRemote {
	r := &appRemote{log: log, api: api, device: device, config: cfg}
	r.connected.Store(true)
	return r
}

func (r *appRemote) IsConnected() bool {
	return r.connected.Load()
}

func (r *appRemote) Player() remote.PlayerAPI {
	return (*player)(r)
}

func (r *appRemote) Content() remote.ContentAPI {
	return (*content)(r)
}

func (r *appRemote) Disconnect() error {
	if !r.connected.CompareAndSwap(true, false) {
		return nil
	}
	r.mu.Lock()
	pollers := r.pollers
	r.pollers = nil
	r.mu.Unlock()
	for _, p := range pollers {
		p.stop()
	}
	r.log.Info("spotify disconnected", zap.String("device", r.device.Name))
	return nil
}

func (r *appRemote) deviceID() *spotify.ID {
	id := r.device.ID
	return &id
}

func (r *appRemote) track(p *poller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pollers = append(r.pollers, p)
}

func (r *appRemote) untrack(p *poller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.pollers {
		if existing == p {
			r.pollers = append(r.pollers[:i], r.pollers[i+1:]...)
			return
		}
	}
}

// uriKind splits "spotify:<kind>:<id>".
func uriKind(uri string) (kind string, id spotify.ID, ok bool) {
	parts := strings.Split(uri, ":")
	if len(parts) != 3 || parts[0] != "spotify" || parts[2] == "" {
		return "", "", false
	}
	return parts[1], spotify.ID(parts[2]), true
}

func isContextURI(uri string) bool {
	kind, _, ok := uriKind(uri)
	if !ok {
		return false
	}
	switch kind {
	case "album", "artist", "playlist", "show":
		return true
	default:
		return false
	}
}

func invalidURI(uri string) error {
	return fmt.Errorf("invalid spotify uri %q", uri)
}
