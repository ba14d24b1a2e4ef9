package clock

import "time"

// Clock stamps command envelopes with wall clock time.
type Clock struct{}

// NowUnix returns current unix seconds.
func (Clock) NowUnix() int64 {
	return time.Now().Unix()
}
