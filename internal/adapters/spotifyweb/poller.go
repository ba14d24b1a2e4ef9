package spotifyweb

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mikey-austin/spotify_remote/internal/remote"
)

// pollFunc fetches the current value and calls the subscriber when it
// differs from last. It returns the value to compare against next time.
type pollFunc func(ctx context.Context, last any) (next any, changed bool, err error)

type poller struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (p *poller) stop() {
	p.cancel()
	<-p.done
}

// subscribe polls fn until the subscription is cancelled or the remote
// disconnects. The first successful poll always reaches the subscriber.
func (r *appRemote) subscribe(name string, fn pollFunc) (remote.Subscription, error) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &poller{cancel: cancel, done: make(chan struct{})}
	r.track(p)

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(r.config.PollInterval)
		defer ticker.Stop()

		var last any
		failures := 0
		for {
			next, changed, err := fn(ctx, last)
			switch {
			case err != nil && ctx.Err() == nil:
				failures++
				if failures == 1 || failures%30 == 0 {
					r.log.Warn("spotify poll failed", zap.String("subscription", name), zap.Int("failures", failures), zap.Error(err))
				}
			case err == nil:
				failures = 0
				if changed {
					r.log.Debug("spotify poll change", zap.String("subscription", name))
				}
			}
			last = next

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return remote.NewSubscription(func() {
		r.untrack(p)
		p.stop()
	}), nil
}
