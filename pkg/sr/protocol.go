package sr

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// BaseTopic is the default MQTT topic prefix for the protocol.
const BaseTopic = "sr/v1"

// KindRemoteBridge is the presence kind published by bridge nodes.
const KindRemoteBridge = "remote_bridge"

// Command types accepted by a remote bridge node.
const (
	CmdAuthorize                  = "authorize"
	CmdGetSession                 = "getSession"
	CmdEndSession                 = "endSession"
	CmdConnect                    = "connect"
	CmdConnectWithoutAuth         = "connectWithoutAuth"
	CmdDisconnect                 = "disconnect"
	CmdIsConnected                = "isConnectedAsync"
	CmdPlayURI                    = "playUri"
	CmdPlayItem                   = "playItem"
	CmdPlayItemWithIndex          = "playItemWithIndex"
	CmdQueueURI                   = "queueUri"
	CmdSeek                       = "seek"
	CmdResume                     = "resume"
	CmdPause                      = "pause"
	CmdSkipToNext                 = "skipToNext"
	CmdSkipToPrevious             = "skipToPrevious"
	CmdSetShuffling               = "setShuffling"
	CmdSetRepeatMode              = "setRepeatMode"
	CmdGetPlayerState             = "getPlayerState"
	CmdGetRecommendedContentItems = "getRecommendedContentItems"
	CmdGetChildrenOfItem          = "getChildrenOfItem"
	CmdGetCrossfadeState          = "getCrossfadeState"
	CmdGetRootContentItems        = "getRootContentItems"
	CmdGetContentItemForURI       = "getContentItemForUri"
	CmdAddListener                = "addListener"
	CmdRemoveListeners            = "removeListeners"
	CmdEventStartObserving        = "eventStartObserving"
	CmdEventStopObserving         = "eventStopObserving"
)

// Event names emitted by a remote bridge node.
const (
	EventRemoteConnected        = "remoteConnected"
	EventRemoteDisconnected     = "remoteDisconnected"
	EventPlayerContextChanged   = "playerContextChanged"
	EventPlayerStateChanged     = "playerStateChanged"
	EventAuthorizationRequested = "authorizationRequested"
)

// Reply error codes.
const (
	CodeInvalid       = "INVALID"
	CodeNotConnected  = "NOT_CONNECTED"
	CodeNotAuthorized = "NOT_AUTHORIZED"
	CodeConnectFailed = "CONNECT_FAILED"
	CodeRemoteError   = "REMOTE_ERROR"
	CodeUnsupported   = "UNSUPPORTED"
	CodeTimeout       = "TIMEOUT"
)

var knownCommands = map[string]struct{}{
	CmdAuthorize: {}, CmdGetSession: {}, CmdEndSession: {},
	CmdConnect: {}, CmdConnectWithoutAuth: {}, CmdDisconnect: {}, CmdIsConnected: {},
	CmdPlayURI: {}, CmdPlayItem: {}, CmdPlayItemWithIndex: {}, CmdQueueURI: {},
	CmdSeek: {}, CmdResume: {}, CmdPause: {}, CmdSkipToNext: {}, CmdSkipToPrevious: {},
	CmdSetShuffling: {}, CmdSetRepeatMode: {}, CmdGetPlayerState: {},
	CmdGetRecommendedContentItems: {}, CmdGetChildrenOfItem: {}, CmdGetCrossfadeState: {},
	CmdGetRootContentItems: {}, CmdGetContentItemForURI: {},
	CmdAddListener: {}, CmdRemoveListeners: {}, CmdEventStartObserving: {}, CmdEventStopObserving: {},
}

// CommandEnvelope is the common controller command envelope.
type CommandEnvelope struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	TS      int64           `json:"ts"`
	From    string          `json:"from"`
	ReplyTo string          `json:"replyTo,omitempty"`
	Body    json.RawMessage `json:"body"`
}

// ReplyEnvelope is the response envelope for commands.
type ReplyEnvelope struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	OK   bool            `json:"ok"`
	TS   int64           `json:"ts"`
	Body json.RawMessage `json:"body,omitempty"`
	Err  *ReplyError     `json:"err,omitempty"`
}

// ReplyError describes an error response.
type ReplyError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Presence describes a node presence payload.
type Presence struct {
	NodeID string         `json:"nodeId"`
	Kind   string         `json:"kind"`
	Name   string         `json:"name"`
	Caps   map[string]any `json:"caps,omitempty"`
	EPs    map[string]any `json:"endpoints,omitempty"`
	TS     int64          `json:"ts"`
}

// Event is an emitted bridge event. Body is absent for connection events.
type Event struct {
	Type string          `json:"type"`
	TS   int64           `json:"ts"`
	Body json.RawMessage `json:"body,omitempty"`
}

// NewCommand builds a command envelope with a JSON body.
func NewCommand(cmdType string, body any) (CommandEnvelope, error) {
	if body == nil {
		body = struct{}{}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return CommandEnvelope{}, fmt.Errorf("marshal body: %w", err)
	}

	return CommandEnvelope{
		Type: cmdType,
		Body: payload,
	}, nil
}

// NewEvent builds an event with an optional JSON body.
func NewEvent(eventType string, ts int64, body any) (Event, error) {
	evt := Event{Type: eventType, TS: ts}
	if body == nil {
		return evt, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return Event{}, fmt.Errorf("marshal event: %w", err)
	}
	evt.Body = payload
	return evt, nil
}

// ValidateCommandEnvelope validates required fields.
func ValidateCommandEnvelope(cmd CommandEnvelope) error {
	if strings.TrimSpace(cmd.ID) == "" {
		return errors.New("id is required")
	}
	if strings.TrimSpace(cmd.Type) == "" {
		return errors.New("type is required")
	}
	if !IsKnownCommand(cmd.Type) {
		return fmt.Errorf("unknown command type %q", cmd.Type)
	}
	if cmd.TS <= 0 {
		return errors.New("ts must be a positive unix timestamp")
	}
	if strings.TrimSpace(cmd.From) == "" {
		return errors.New("from is required")
	}
	if len(cmd.Body) == 0 {
		return errors.New("body is required")
	}
	return nil
}

// IsKnownCommand reports whether a command type is part of the protocol.
func IsKnownCommand(cmdType string) bool {
	_, ok := knownCommands[cmdType]
	return ok
}

// IsObservableEvent reports whether listeners can observe the event.
func IsObservableEvent(name string) bool {
	switch name {
	case EventRemoteConnected, EventRemoteDisconnected, EventPlayerContextChanged,
		EventPlayerStateChanged, EventAuthorizationRequested:
		return true
	default:
		return false
	}
}

// TopicPresence builds the presence topic for a node.
func TopicPresence(topicBase, nodeID string) string {
	return fmt.Sprintf("%s/node/%s/presence", topicBase, nodeID)
}

// TopicCommands builds the command topic for a node.
func TopicCommands(topicBase, nodeID string) string {
	return fmt.Sprintf("%s/node/%s/cmd", topicBase, nodeID)
}

// TopicEvents builds the events topic for a node.
func TopicEvents(topicBase, nodeID string) string {
	return fmt.Sprintf("%s/node/%s/evt", topicBase, nodeID)
}

// TopicReply builds the reply topic for a controller instance.
func TopicReply(topicBase, controllerID string) string {
	return fmt.Sprintf("%s/reply/%s", topicBase, controllerID)
}
