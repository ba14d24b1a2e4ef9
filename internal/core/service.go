package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mikey-austin/spotify_remote/internal/ports"
	"github.com/mikey-austin/spotify_remote/pkg/sr"
)

// Service orchestrates sr CLI use cases.
type Service struct {
	Broker   ports.Broker
	Resolver Resolver
	Clock    ports.Clock
	IDGen    ports.IDGen
	Config   Config
}

// AuthorizeOptions are the CLI's authorize inputs.
type AuthorizeOptions struct {
	ClientID    string
	RedirectURL string
	Scopes      []string
	ShowDialog  bool
	AuthType    string
}

// ListBridges returns bridge presence entries.
func (s Service) ListBridges(ctx context.Context, all bool) (NodesResult, error) {
	nodes, err := s.Broker.ListPresence(ctx)
	if err != nil {
		return NodesResult{}, WrapError(ExitRuntime, "list nodes", err)
	}
	if !all {
		nodes = filterPresenceByKind(nodes, sr.KindRemoteBridge)
	}
	return NodesResult{Nodes: nodes}, nil
}

// Status reports whether the bridge is connected and its stored session.
func (s Service) Status(ctx context.Context, selector string) (StatusResult, error) {
	bridge, err := s.Resolver.ResolveBridge(ctx, selector)
	if err != nil {
		return StatusResult{}, err
	}

	var connected bool
	if err := s.call(ctx, bridge, sr.CmdIsConnected, nil, &connected); err != nil {
		return StatusResult{}, err
	}
	var session map[string]any
	if err := s.call(ctx, bridge, sr.CmdGetSession, nil, &session); err != nil {
		return StatusResult{}, err
	}
	return StatusResult{Bridge: bridge, Connected: connected, Session: session}, nil
}

// Authorize asks the bridge to start a login and waits for the result.
func (s Service) Authorize(ctx context.Context, selector string, opts AuthorizeOptions) (RawResult, error) {
	if opts.ClientID == "" {
		opts.ClientID = s.Config.Defaults.ClientID
	}
	if opts.RedirectURL == "" {
		opts.RedirectURL = s.Config.Defaults.Redirect
	}
	if opts.ClientID == "" || opts.RedirectURL == "" {
		return RawResult{}, &CLIError{Code: ExitUsage, Msg: "client id and redirect url required"}
	}
	if len(opts.Scopes) == 0 {
		return RawResult{}, &CLIError{Code: ExitUsage, Msg: "at least one scope required"}
	}
	showDialog := opts.ShowDialog
	body := sr.AuthorizeBody{
		ClientID:    opts.ClientID,
		RedirectURL: opts.RedirectURL,
		ShowDialog:  &showDialog,
		Scopes:      opts.Scopes,
		AuthType:    strings.ToUpper(opts.AuthType),
	}

	var session map[string]any
	if _, err := s.send(ctx, selector, sr.CmdAuthorize, body, &session); err != nil {
		return RawResult{}, err
	}
	return RawResult{Data: session}, nil
}

// Session returns the bridge's stored session, nil when there is none.
func (s Service) Session(ctx context.Context, selector string) (RawResult, error) {
	var session map[string]any
	if _, err := s.send(ctx, selector, sr.CmdGetSession, nil, &session); err != nil {
		return RawResult{}, err
	}
	return RawResult{Data: session}, nil
}

// EndSession clears the bridge's stored session.
func (s Service) EndSession(ctx context.Context, selector string) (AckResult, error) {
	return s.ack(ctx, selector, sr.CmdEndSession, nil)
}

// Connect connects the bridge using its stored session. A non-empty token
// replaces the session's access token.
func (s Service) Connect(ctx context.Context, selector string, token string) (AckResult, error) {
	return s.ack(ctx, selector, sr.CmdConnect, sr.ConnectBody{Token: token})
}

// ConnectWithoutAuth connects the bridge with caller supplied credentials.
func (s Service) ConnectWithoutAuth(ctx context.Context, selector string, token string, clientID string, redirectURI string) (AckResult, error) {
	if clientID == "" {
		clientID = s.Config.Defaults.ClientID
	}
	if redirectURI == "" {
		redirectURI = s.Config.Defaults.Redirect
	}
	if clientID == "" {
		return AckResult{}, &CLIError{Code: ExitUsage, Msg: "client id required"}
	}
	return s.ack(ctx, selector, sr.CmdConnectWithoutAuth, sr.ConnectWithoutAuthBody{Token: token, ClientID: clientID, RedirectURI: redirectURI})
}

// Disconnect drops the bridge's remote connection.
func (s Service) Disconnect(ctx context.Context, selector string) (AckResult, error) {
	return s.ack(ctx, selector, sr.CmdDisconnect, nil)
}

// PlayURI starts playback of uri.
func (s Service) PlayURI(ctx context.Context, selector string, uri string) (AckResult, error) {
	if strings.TrimSpace(uri) == "" {
		return AckResult{}, &CLIError{Code: ExitUsage, Msg: "uri required"}
	}
	return s.ack(ctx, selector, sr.CmdPlayURI, sr.URIBody{URI: uri})
}

// PlayItem plays a content item, optionally starting at index.
func (s Service) PlayItem(ctx context.Context, selector string, item map[string]any, index *int) (AckResult, error) {
	if len(item) == 0 {
		return AckResult{}, &CLIError{Code: ExitUsage, Msg: "item required"}
	}
	if index != nil {
		return s.ack(ctx, selector, sr.CmdPlayItemWithIndex, sr.ItemWithIndexBody{Item: item, Index: *index})
	}
	return s.ack(ctx, selector, sr.CmdPlayItem, sr.ItemBody{Item: item})
}

// QueueURI appends a track to the play queue.
func (s Service) QueueURI(ctx context.Context, selector string, uri string) (AckResult, error) {
	return s.ack(ctx, selector, sr.CmdQueueURI, sr.URIBody{URI: uri})
}

// Seek moves the playhead. Position accepts milliseconds or a duration
// such as 1m30s.
func (s Service) Seek(ctx context.Context, selector string, position string) (AckResult, error) {
	ms, err := ParsePosition(position)
	if err != nil {
		return AckResult{}, WrapError(ExitUsage, "invalid position", err)
	}
	return s.ack(ctx, selector, sr.CmdSeek, sr.SeekBody{PositionMS: ms})
}

// Resume resumes playback.
func (s Service) Resume(ctx context.Context, selector string) (AckResult, error) {
	return s.ack(ctx, selector, sr.CmdResume, nil)
}

// Pause pauses playback.
func (s Service) Pause(ctx context.Context, selector string) (AckResult, error) {
	return s.ack(ctx, selector, sr.CmdPause, nil)
}

// Next skips to the next track.
func (s Service) Next(ctx context.Context, selector string) (AckResult, error) {
	return s.ack(ctx, selector, sr.CmdSkipToNext, nil)
}

// Previous skips to the previous track.
func (s Service) Previous(ctx context.Context, selector string) (AckResult, error) {
	return s.ack(ctx, selector, sr.CmdSkipToPrevious, nil)
}

// Shuffle sets shuffle on or off.
func (s Service) Shuffle(ctx context.Context, selector string, value string) (AckResult, error) {
	on, err := parseToggle(value)
	if err != nil {
		return AckResult{}, err
	}
	return s.ack(ctx, selector, sr.CmdSetShuffling, sr.ShuffleBody{Shuffling: on})
}

// Repeat sets the repeat mode: off, track or context.
func (s Service) Repeat(ctx context.Context, selector string, mode string) (AckResult, error) {
	value, err := ParseRepeatMode(mode)
	if err != nil {
		return AckResult{}, err
	}
	return s.ack(ctx, selector, sr.CmdSetRepeatMode, sr.RepeatModeBody{Mode: value})
}

// PlayerState fetches the current player state.
func (s Service) PlayerState(ctx context.Context, selector string) (PlayerStateResult, error) {
	var state map[string]any
	bridge, err := s.send(ctx, selector, sr.CmdGetPlayerState, nil, &state)
	if err != nil {
		return PlayerStateResult{}, err
	}
	return PlayerStateResult{BridgeID: bridge.NodeID, State: state}, nil
}

// Crossfade fetches the crossfade settings.
func (s Service) Crossfade(ctx context.Context, selector string) (RawResult, error) {
	var state map[string]any
	if _, err := s.send(ctx, selector, sr.CmdGetCrossfadeState, nil, &state); err != nil {
		return RawResult{}, err
	}
	return RawResult{Data: state}, nil
}

// Recommended lists recommended content for a content type.
func (s Service) Recommended(ctx context.Context, selector string, contentType string) (ItemsResult, error) {
	var items []map[string]any
	bridge, err := s.send(ctx, selector, sr.CmdGetRecommendedContentItems, sr.RecommendedOptions{Type: contentType}, &items)
	if err != nil {
		return ItemsResult{}, err
	}
	return ItemsResult{BridgeID: bridge.NodeID, Items: items}, nil
}

// Children lists a page of an item's children.
func (s Service) Children(ctx context.Context, selector string, item map[string]any, perPage int, offset int) (ItemsResult, error) {
	if len(item) == 0 {
		return ItemsResult{}, &CLIError{Code: ExitUsage, Msg: "item required"}
	}
	body := sr.ChildrenBody{Item: item, Options: sr.ChildrenOptions{PerPage: perPage, Offset: offset}}
	var items []map[string]any
	bridge, err := s.send(ctx, selector, sr.CmdGetChildrenOfItem, body, &items)
	if err != nil {
		return ItemsResult{}, err
	}
	return ItemsResult{BridgeID: bridge.NodeID, Items: items}, nil
}

// RootItems lists root content items. Bridges answer with an empty list.
func (s Service) RootItems(ctx context.Context, selector string, contentType string) (ItemsResult, error) {
	var items []map[string]any
	bridge, err := s.send(ctx, selector, sr.CmdGetRootContentItems, sr.RootContentBody{Type: contentType}, &items)
	if err != nil {
		return ItemsResult{}, err
	}
	return ItemsResult{BridgeID: bridge.NodeID, Items: items}, nil
}

// ItemForURI looks up a content item. Bridges answer with null.
func (s Service) ItemForURI(ctx context.Context, selector string, uri string) (RawResult, error) {
	var item map[string]any
	if _, err := s.send(ctx, selector, sr.CmdGetContentItemForURI, sr.URIBody{URI: uri}, &item); err != nil {
		return RawResult{}, err
	}
	return RawResult{Data: item}, nil
}

// Watch observes events on a bridge and streams them until ctx ends. The
// observations are released when the stream stops.
func (s Service) Watch(ctx context.Context, selector string, events []string) (<-chan sr.Event, <-chan error, error) {
	bridge, err := s.Resolver.ResolveBridge(ctx, selector)
	if err != nil {
		return nil, nil, err
	}
	for _, name := range events {
		if !sr.IsObservableEvent(name) {
			return nil, nil, &CLIError{Code: ExitUsage, Msg: fmt.Sprintf("unknown event %q", name)}
		}
	}

	stream, errs := s.Broker.WatchEvents(ctx, bridge.NodeID)
	observed := make([]string, 0, len(events))
	for _, name := range events {
		if err := s.call(ctx, bridge, sr.CmdEventStartObserving, sr.ListenerBody{EventName: name}, nil); err != nil {
			s.releaseObservations(bridge, observed)
			return nil, nil, err
		}
		observed = append(observed, name)
	}

	out := make(chan sr.Event)
	go func() {
		defer close(out)
		defer s.releaseObservations(bridge, observed)
		for evt := range stream {
			select {
			case out <- evt:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, errs, nil
}

func (s Service) releaseObservations(bridge sr.Presence, events []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for _, name := range events {
		_ = s.call(ctx, bridge, sr.CmdEventStopObserving, sr.ListenerBody{EventName: name}, nil)
	}
}

func (s Service) ack(ctx context.Context, selector string, cmdType string, body any) (AckResult, error) {
	bridge, err := s.send(ctx, selector, cmdType, body, nil)
	if err != nil {
		return AckResult{}, err
	}
	return AckResult{BridgeID: bridge.NodeID, Command: cmdType}, nil
}

func (s Service) send(ctx context.Context, selector string, cmdType string, body any, out any) (sr.Presence, error) {
	bridge, err := s.Resolver.ResolveBridge(ctx, selector)
	if err != nil {
		return sr.Presence{}, err
	}
	return bridge, s.call(ctx, bridge, cmdType, body, out)
}

// call publishes a command to bridge and decodes the reply body into out.
func (s Service) call(ctx context.Context, bridge sr.Presence, cmdType string, body any, out any) error {
	cmd, err := sr.NewCommand(cmdType, body)
	if err != nil {
		return WrapError(ExitRuntime, "build command", err)
	}
	cmd = s.decorateCommand(cmd)

	reply, err := s.Broker.PublishCommand(ctx, bridge.NodeID, cmd)
	if err != nil {
		return WrapError(ExitRuntime, "publish command", err)
	}
	if reply.Err != nil {
		return ErrorForReplyCode(reply.Err.Code, reply.Err.Message)
	}
	if !reply.OK {
		return &CLIError{Code: ExitRuntime, Msg: fmt.Sprintf("%s failed", cmdType)}
	}
	if out == nil || len(reply.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(reply.Body, out); err != nil {
		return WrapError(ExitRuntime, "decode reply", err)
	}
	return nil
}

func (s Service) decorateCommand(cmd sr.CommandEnvelope) sr.CommandEnvelope {
	cmd.ID = s.IDGen.NewID()
	cmd.TS = s.Clock.NowUnix()
	cmd.From = s.Config.Identity
	cmd.ReplyTo = s.Broker.ReplyTopic()
	return cmd
}

// ParsePosition parses milliseconds, a duration, or mm:ss.
func ParsePosition(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("position required")
	}
	if ms, err := strconv.ParseFloat(value, 64); err == nil {
		if ms < 0 {
			return 0, fmt.Errorf("negative position")
		}
		return ms, nil
	}
	if parts := strings.Split(value, ":"); len(parts) == 2 {
		minutes, errM := strconv.Atoi(parts[0])
		seconds, errS := strconv.Atoi(parts[1])
		if errM == nil && errS == nil && minutes >= 0 && seconds >= 0 && seconds < 60 {
			return float64((time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second).Milliseconds()), nil
		}
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("unrecognised position %q", value)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative position")
	}
	return float64(d.Milliseconds()), nil
}

// ParseRepeatMode maps off, track and context (or 0-2) to repeat modes.
func ParseRepeatMode(mode string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "off", "0":
		return 0, nil
	case "track", "one", "1":
		return 1, nil
	case "context", "all", "2":
		return 2, nil
	}
	return 0, &CLIError{Code: ExitUsage, Msg: fmt.Sprintf("invalid repeat mode %q", mode)}
}

func parseToggle(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	}
	return false, &CLIError{Code: ExitUsage, Msg: fmt.Sprintf("expected on or off, got %q", value)}
}
