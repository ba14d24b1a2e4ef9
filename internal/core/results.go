package core

import "github.com/mikey-austin/spotify_remote/pkg/sr"

// NodesResult holds a list of presence records.
type NodesResult struct {
	Nodes []sr.Presence
}

// StatusResult reports a bridge's connection and session.
type StatusResult struct {
	Bridge    sr.Presence
	Connected bool
	Session   map[string]any
}

// AckResult reports a command the bridge accepted.
type AckResult struct {
	BridgeID string
	Command  string
}

// PlayerStateResult holds a converted player state.
type PlayerStateResult struct {
	BridgeID string
	State    map[string]any
}

// ItemsResult holds content items from a listing.
type ItemsResult struct {
	BridgeID string
	Items    []map[string]any
}

// RawResult holds arbitrary JSON data for output.
type RawResult struct {
	Data any
}
