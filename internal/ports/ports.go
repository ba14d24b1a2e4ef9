package ports

import (
	"context"

	"github.com/mikey-austin/spotify_remote/pkg/sr"
)

// Broker publishes commands and reads retained presence and events.
type Broker interface {
	ReplyTopic() string
	PublishCommand(ctx context.Context, nodeID string, cmd sr.CommandEnvelope) (sr.ReplyEnvelope, error)
	ListPresence(ctx context.Context) ([]sr.Presence, error)
	WatchEvents(ctx context.Context, nodeID string) (<-chan sr.Event, <-chan error)
}

// Clock returns the current unix time in seconds.
type Clock interface {
	NowUnix() int64
}

// IDGen returns unique correlation IDs.
type IDGen interface {
	NewID() string
}
