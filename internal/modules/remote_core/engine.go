package remotecore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mikey-austin/spotify_remote/internal/remote"
	"github.com/mikey-austin/spotify_remote/pkg/sr"
)

// Engine routes protocol commands to the bridge coordinators.
type Engine struct {
	Auth      *Auth
	Conn      *Connection
	Dispatch  *Dispatcher
	Listeners *Listeners
	Owners    *Observations

	log *zap.Logger
}

// NewEngine wires the coordinators together. ctx bounds connection attempts.
func NewEngine(ctx context.Context, log *zap.Logger, connector remote.Connector, launcher LoginLauncher, emitter Emitter) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	conn := NewConnection(ctx, log.Named("connection"), connector, emitter)
	return &Engine{
		Auth:      NewAuth(log.Named("auth"), launcher, conn),
		Conn:      conn,
		Dispatch:  NewDispatcher(log.Named("dispatch"), conn, emitter),
		Listeners: NewListeners(log.Named("listeners"), conn),
		Owners:    &Observations{},
		log:       log,
	}
}

// Connect connects with the parameters derived from authorization. A
// non-empty token replaces the stored access token.
func (e *Engine) Connect(ctx context.Context, token string) (bool, error) {
	params, ok := e.Auth.ConnectionParams()
	if !ok {
		return false, ErrNotAuthorized
	}
	if token != "" {
		params.AccessToken = token
	}
	return e.Conn.Connect(ctx, params)
}

// ConnectWithoutAuth connects with caller supplied parameters.
func (e *Engine) ConnectWithoutAuth(ctx context.Context, token string, clientID string, redirectURI string) (bool, error) {
	if clientID == "" {
		return false, invalidf("clientId required")
	}
	return e.Conn.Connect(ctx, remote.ConnectionParams{
		ClientID:     clientID,
		RedirectURI:  redirectURI,
		ShowAuthView: false,
		AccessToken:  token,
	})
}

// HandleCommand executes a command on behalf of its sender.
func (e *Engine) HandleCommand(ctx context.Context, cmd sr.CommandEnvelope) sr.ReplyEnvelope {
	return e.HandleCommandFor(ctx, cmd.From, cmd)
}

// HandleCommandFor executes a command and returns its reply. Observations
// are held by owner, which may only stop what it started.
func (e *Engine) HandleCommandFor(ctx context.Context, owner string, cmd sr.CommandEnvelope) sr.ReplyEnvelope {
	reply := sr.ReplyEnvelope{ID: cmd.ID, Type: "ack", OK: true, TS: time.Now().Unix()}

	switch cmd.Type {
	case sr.CmdAuthorize:
		return e.handleAuthorize(ctx, cmd, reply)
	case sr.CmdGetSession:
		return withBody(reply, e.Auth.Session())
	case sr.CmdEndSession:
		e.Auth.EndSession()
		return reply
	case sr.CmdConnect:
		return e.handleConnect(ctx, cmd, reply)
	case sr.CmdConnectWithoutAuth:
		return e.handleConnectWithoutAuth(ctx, cmd, reply)
	case sr.CmdDisconnect:
		e.Conn.Disconnect()
		return reply
	case sr.CmdIsConnected:
		return withBody(reply, e.Conn.IsConnected())
	case sr.CmdPlayURI:
		var body sr.URIBody
		if err := decode(cmd, &body); err != nil {
			return errorReply(cmd, sr.CodeInvalid, "invalid body")
		}
		return result(cmd, reply, e.Dispatch.PlayURI(ctx, body.URI))
	case sr.CmdPlayItem:
		var body sr.ItemBody
		if err := decode(cmd, &body); err != nil {
			return errorReply(cmd, sr.CodeInvalid, "invalid body")
		}
		return result(cmd, reply, e.Dispatch.PlayItem(ctx, body.Item))
	case sr.CmdPlayItemWithIndex:
		var body sr.ItemWithIndexBody
		if err := decode(cmd, &body); err != nil {
			return errorReply(cmd, sr.CodeInvalid, "invalid body")
		}
		return result(cmd, reply, e.Dispatch.PlayItemWithIndex(ctx, body.Item, body.Index))
	case sr.CmdQueueURI:
		var body sr.URIBody
		if err := decode(cmd, &body); err != nil {
			return errorReply(cmd, sr.CodeInvalid, "invalid body")
		}
		return result(cmd, reply, e.Dispatch.QueueURI(ctx, body.URI))
	case sr.CmdSeek:
		var body sr.SeekBody
		if err := decode(cmd, &body); err != nil {
			return errorReply(cmd, sr.CodeInvalid, "invalid body")
		}
		return result(cmd, reply, e.Dispatch.Seek(ctx, body.PositionMS))
	case sr.CmdResume:
		return result(cmd, reply, e.Dispatch.Resume(ctx))
	case sr.CmdPause:
		return result(cmd, reply, e.Dispatch.Pause(ctx))
	case sr.CmdSkipToNext:
		return result(cmd, reply, e.Dispatch.SkipToNext(ctx))
	case sr.CmdSkipToPrevious:
		return result(cmd, reply, e.Dispatch.SkipToPrevious(ctx))
	case sr.CmdSetShuffling:
		var body sr.ShuffleBody
		if err := decode(cmd, &body); err != nil {
			return errorReply(cmd, sr.CodeInvalid, "invalid body")
		}
		return result(cmd, reply, e.Dispatch.SetShuffling(ctx, body.Shuffling))
	case sr.CmdSetRepeatMode:
		var body sr.RepeatModeBody
		if err := decode(cmd, &body); err != nil {
			return errorReply(cmd, sr.CodeInvalid, "invalid body")
		}
		return result(cmd, reply, e.Dispatch.SetRepeatMode(ctx, body.Mode))
	case sr.CmdGetPlayerState:
		state, err := e.Dispatch.GetPlayerState(ctx)
		if err != nil {
			return failure(cmd, err)
		}
		return withBody(reply, state)
	case sr.CmdGetRecommendedContentItems:
		var body sr.RecommendedOptions
		if err := decode(cmd, &body); err != nil {
			return errorReply(cmd, sr.CodeInvalid, "invalid body")
		}
		items, err := e.Dispatch.GetRecommendedContentItems(ctx, body.Type)
		if err != nil {
			return failure(cmd, err)
		}
		return withBody(reply, items)
	case sr.CmdGetChildrenOfItem:
		var body sr.ChildrenBody
		if err := decode(cmd, &body); err != nil {
			return errorReply(cmd, sr.CodeInvalid, "invalid body")
		}
		items, err := e.Dispatch.GetChildrenOfItem(ctx, body.Item, body.Options.PerPage, body.Options.Offset)
		if err != nil {
			return failure(cmd, err)
		}
		return withBody(reply, items)
	case sr.CmdGetCrossfadeState:
		state, err := e.Dispatch.GetCrossfadeState(ctx)
		if err != nil {
			return failure(cmd, err)
		}
		return withBody(reply, state)
	case sr.CmdGetRootContentItems:
		var body sr.RootContentBody
		_ = decode(cmd, &body)
		return withBody(reply, e.Dispatch.GetRootContentItems(body.Type))
	case sr.CmdGetContentItemForURI:
		var body sr.URIBody
		_ = decode(cmd, &body)
		return withBody(reply, e.Dispatch.GetContentItemForURI(body.URI))
	case sr.CmdAddListener:
		var body sr.ListenerBody
		if err := decode(cmd, &body); err != nil {
			return errorReply(cmd, sr.CodeInvalid, "invalid body")
		}
		e.Listeners.AddListener(body.EventName)
		return reply
	case sr.CmdRemoveListeners:
		var body sr.RemoveListenersBody
		if err := decode(cmd, &body); err != nil {
			return errorReply(cmd, sr.CodeInvalid, "invalid body")
		}
		e.Listeners.RemoveListeners(body.Count)
		return reply
	case sr.CmdEventStartObserving, sr.CmdEventStopObserving:
		var body sr.ListenerBody
		if err := decode(cmd, &body); err != nil || !sr.IsObservableEvent(body.EventName) {
			return errorReply(cmd, sr.CodeInvalid, "unknown event")
		}
		if cmd.Type == sr.CmdEventStartObserving {
			e.Owners.Observe(owner, body.EventName)
			e.Listeners.StartObserving(body.EventName)
		} else if e.Owners.Unobserve(owner, body.EventName) {
			e.Listeners.StopObserving(body.EventName)
		}
		return reply
	default:
		return errorReply(cmd, sr.CodeInvalid, "unsupported command")
	}
}

// ReleaseOwner stops every observation owner holds and returns how many
// were released.
func (e *Engine) ReleaseOwner(owner string) int {
	released := 0
	for event, count := range e.Owners.Release(owner) {
		for i := 0; i < count; i++ {
			e.Listeners.StopObserving(event)
			released++
		}
	}
	return released
}

func (e *Engine) handleAuthorize(ctx context.Context, cmd sr.CommandEnvelope, reply sr.ReplyEnvelope) sr.ReplyEnvelope {
	var body sr.AuthorizeBody
	if err := decode(cmd, &body); err != nil {
		return errorReply(cmd, sr.CodeInvalid, "invalid body")
	}
	session, err := e.Auth.Authorize(ctx, AuthConfig{
		ClientID:    body.ClientID,
		RedirectURL: body.RedirectURL,
		ShowDialog:  body.ShowDialog,
		Scopes:      body.Scopes,
		AuthType:    body.AuthType,
	})
	if err != nil {
		return failure(cmd, err)
	}
	return withBody(reply, session)
}

func (e *Engine) handleConnect(ctx context.Context, cmd sr.CommandEnvelope, reply sr.ReplyEnvelope) sr.ReplyEnvelope {
	var body sr.ConnectBody
	if err := decode(cmd, &body); err != nil {
		return errorReply(cmd, sr.CodeInvalid, "invalid body")
	}
	connected, err := e.Connect(ctx, body.Token)
	if err != nil {
		return connectFailure(cmd, err)
	}
	return withBody(reply, connected)
}

func (e *Engine) handleConnectWithoutAuth(ctx context.Context, cmd sr.CommandEnvelope, reply sr.ReplyEnvelope) sr.ReplyEnvelope {
	var body sr.ConnectWithoutAuthBody
	if err := decode(cmd, &body); err != nil {
		return errorReply(cmd, sr.CodeInvalid, "invalid body")
	}
	connected, err := e.ConnectWithoutAuth(ctx, body.Token, body.ClientID, body.RedirectURI)
	if err != nil {
		return connectFailure(cmd, err)
	}
	return withBody(reply, connected)
}

// connectFailure reports unclassified connection errors as CONNECT_FAILED
// while keeping the remote's message.
func connectFailure(cmd sr.CommandEnvelope, err error) sr.ReplyEnvelope {
	code := ReplyCode(err)
	if code == sr.CodeRemoteError && !errors.Is(err, context.Canceled) {
		code = sr.CodeConnectFailed
	}
	return errorReply(cmd, code, err.Error())
}

func decode(cmd sr.CommandEnvelope, out any) error {
	if len(cmd.Body) == 0 {
		return nil
	}
	return json.Unmarshal(cmd.Body, out)
}

func result(cmd sr.CommandEnvelope, reply sr.ReplyEnvelope, err error) sr.ReplyEnvelope {
	if err != nil {
		return failure(cmd, err)
	}
	return reply
}

func failure(cmd sr.CommandEnvelope, err error) sr.ReplyEnvelope {
	return errorReply(cmd, ReplyCode(err), err.Error())
}

func withBody(reply sr.ReplyEnvelope, body any) sr.ReplyEnvelope {
	payload, err := json.Marshal(body)
	if err != nil {
		return errorReply(sr.CommandEnvelope{ID: reply.ID}, sr.CodeRemoteError, "encode reply body: "+err.Error())
	}
	reply.Body = payload
	return reply
}

func errorReply(cmd sr.CommandEnvelope, code string, message string) sr.ReplyEnvelope {
	return sr.ReplyEnvelope{
		ID:   cmd.ID,
		Type: "error",
		OK:   false,
		TS:   time.Now().Unix(),
		Err:  &sr.ReplyError{Code: code, Message: message},
	}
}
