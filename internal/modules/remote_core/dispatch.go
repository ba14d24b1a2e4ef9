package remotecore

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey-austin/spotify_remote/internal/convert"
	"github.com/mikey-austin/spotify_remote/internal/remote"
	"github.com/mikey-austin/spotify_remote/pkg/sr"
)

// TrackURIPrefix is the only uri form accepted by QueueURI.
const TrackURIPrefix = "spotify:track:"

// Dispatcher forwards player and content commands to the connected remote.
type Dispatcher struct {
	log     *zap.Logger
	conn    *Connection
	emitter Emitter
}

// NewDispatcher creates a dispatcher over a connection coordinator.
func NewDispatcher(log *zap.Logger, conn *Connection, emitter Emitter) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	if emitter == nil {
		emitter = nopEmitter{}
	}
	return &Dispatcher{log: log, conn: conn, emitter: emitter}
}

// call runs op against the held remote. Without a remote it fails with
// ErrNotConnected and op is never invoked. Remote errors are returned as is.
func call[T any](ctx context.Context, d *Dispatcher, op func(context.Context, remote.AppRemote) (T, error)) (T, error) {
	appRemote := d.conn.handle()
	if appRemote == nil {
		var zero T
		return zero, ErrNotConnected
	}
	return op(ctx, appRemote)
}

func exec(ctx context.Context, d *Dispatcher, op func(context.Context, remote.AppRemote) error) error {
	_, err := call(ctx, d, func(ctx context.Context, r remote.AppRemote) (struct{}, error) {
		return struct{}{}, op(ctx, r)
	})
	return err
}

// PlayURI plays a uri.
func (d *Dispatcher) PlayURI(ctx context.Context, uri string) error {
	return exec(ctx, d, func(ctx context.Context, r remote.AppRemote) error {
		return r.Player().Play(ctx, uri)
	})
}

// PlayItem plays a content item.
func (d *Dispatcher) PlayItem(ctx context.Context, item map[string]any) error {
	return exec(ctx, d, func(ctx context.Context, r remote.AppRemote) error {
		return r.Content().PlayContentItem(ctx, convert.ToItem(item))
	})
}

// PlayItemWithIndex plays the item's uri starting at index.
func (d *Dispatcher) PlayItemWithIndex(ctx context.Context, item map[string]any, index int) error {
	uri := convert.ToItem(item).URI
	return exec(ctx, d, func(ctx context.Context, r remote.AppRemote) error {
		return r.Player().SkipToIndex(ctx, uri, index)
	})
}

// QueueURI queues a track uri. Non-track uris are rejected before the
// remote is called.
func (d *Dispatcher) QueueURI(ctx context.Context, uri string) error {
	if !strings.HasPrefix(uri, TrackURIPrefix) {
		return ErrInvalidTrackURI
	}
	return exec(ctx, d, func(ctx context.Context, r remote.AppRemote) error {
		return r.Player().Queue(ctx, uri)
	})
}

// Seek moves the playback position. Fractional milliseconds are truncated.
func (d *Dispatcher) Seek(ctx context.Context, positionMS float64) error {
	return exec(ctx, d, func(ctx context.Context, r remote.AppRemote) error {
		return r.Player().Seek(ctx, int64(positionMS))
	})
}

// Resume resumes playback.
func (d *Dispatcher) Resume(ctx context.Context) error {
	return exec(ctx, d, func(ctx context.Context, r remote.AppRemote) error {
		return r.Player().Resume(ctx)
	})
}

// Pause pauses playback.
func (d *Dispatcher) Pause(ctx context.Context) error {
	return exec(ctx, d, func(ctx context.Context, r remote.AppRemote) error {
		return r.Player().Pause(ctx)
	})
}

// SkipToNext skips to the next track.
func (d *Dispatcher) SkipToNext(ctx context.Context) error {
	return exec(ctx, d, func(ctx context.Context, r remote.AppRemote) error {
		return r.Player().SkipNext(ctx)
	})
}

// SkipToPrevious skips to the previous track.
func (d *Dispatcher) SkipToPrevious(ctx context.Context) error {
	return exec(ctx, d, func(ctx context.Context, r remote.AppRemote) error {
		return r.Player().SkipPrevious(ctx)
	})
}

// SetShuffling toggles shuffle.
func (d *Dispatcher) SetShuffling(ctx context.Context, shuffle bool) error {
	return exec(ctx, d, func(ctx context.Context, r remote.AppRemote) error {
		return r.Player().SetShuffle(ctx, shuffle)
	})
}

// SetRepeatMode sets the repeat mode.
func (d *Dispatcher) SetRepeatMode(ctx context.Context, mode int) error {
	return exec(ctx, d, func(ctx context.Context, r remote.AppRemote) error {
		return r.Player().SetRepeat(ctx, mode)
	})
}

// GetPlayerState fetches the player state. Every successful fetch is also
// emitted as a playerStateChanged event.
func (d *Dispatcher) GetPlayerState(ctx context.Context) (map[string]any, error) {
	state, err := call(ctx, d, func(ctx context.Context, r remote.AppRemote) (remote.PlayerState, error) {
		return r.Player().PlayerState(ctx)
	})
	if err != nil {
		return nil, err
	}
	d.emitter.Emit(sr.EventPlayerStateChanged, convert.PlayerState(state))
	return convert.PlayerState(state), nil
}

// GetRecommendedContentItems lists recommended items for a content type.
func (d *Dispatcher) GetRecommendedContentItems(ctx context.Context, contentType string) ([]map[string]any, error) {
	items, err := call(ctx, d, func(ctx context.Context, r remote.AppRemote) (remote.ListItems, error) {
		return r.Content().RecommendedContentItems(ctx, contentType)
	})
	if err != nil {
		return nil, err
	}
	return convert.ListItems(items), nil
}

// GetChildrenOfItem pages through the children of a content item.
func (d *Dispatcher) GetChildrenOfItem(ctx context.Context, item map[string]any, perPage int, offset int) ([]map[string]any, error) {
	items, err := call(ctx, d, func(ctx context.Context, r remote.AppRemote) (remote.ListItems, error) {
		return r.Content().ChildrenOfItem(ctx, convert.ToItem(item), perPage, offset)
	})
	if err != nil {
		return nil, err
	}
	return convert.ListItems(items), nil
}

// GetCrossfadeState fetches crossfade settings.
func (d *Dispatcher) GetCrossfadeState(ctx context.Context) (map[string]any, error) {
	state, err := call(ctx, d, func(ctx context.Context, r remote.AppRemote) (remote.CrossfadeState, error) {
		return r.Player().CrossfadeState(ctx)
	})
	if err != nil {
		return nil, err
	}
	return convert.CrossfadeState(state), nil
}

// GetRootContentItems is not available from the remote and always returns
// an empty list.
func (d *Dispatcher) GetRootContentItems(contentType string) []map[string]any {
	d.log.Warn("getRootContentItems is not implemented by the remote, returning []", zap.String("type", contentType))
	return []map[string]any{}
}

// GetContentItemForURI is not available from the remote and always returns
// nil.
func (d *Dispatcher) GetContentItemForURI(uri string) map[string]any {
	d.log.Warn("getContentItemForUri is not implemented by the remote, returning null", zap.String("uri", uri))
	return nil
}
