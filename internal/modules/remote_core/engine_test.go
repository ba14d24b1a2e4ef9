package remotecore

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey-austin/spotify_remote/internal/remote"
	"github.com/mikey-austin/spotify_remote/pkg/sr"
)

func command(t *testing.T, cmdType string, body any) sr.CommandEnvelope {
	t.Helper()
	cmd, err := sr.NewCommand(cmdType, body)
	require.NoError(t, err)
	cmd.ID = "cmd-1"
	cmd.From = "test"
	cmd.TS = time.Now().Unix()
	return cmd
}

func newTestEngine(t *testing.T) (*Engine, *fakeRemote, *fakeLauncher, *recordingEmitter) {
	t.Helper()
	fr := newFakeRemote()
	launcher := &fakeLauncher{opened: make(chan struct{}, 1)}
	emitter := &recordingEmitter{}
	engine := NewEngine(context.Background(), nil, &fakeConnector{remote: fr}, launcher, emitter)
	return engine, fr, launcher, emitter
}

func TestEngineConnectRequiresAuthorization(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	reply := engine.HandleCommand(context.Background(), command(t, sr.CmdConnect, nil))
	require.False(t, reply.OK)
	assert.Equal(t, "error", reply.Type)
	assert.Equal(t, sr.CodeNotAuthorized, reply.Err.Code)
	assert.Equal(t, "Auth module has not been authorized.", reply.Err.Message)
}

func TestEngineAuthorizeThenConnect(t *testing.T) {
	engine, fr, launcher, emitter := newTestEngine(t)
	show := false

	authorize := command(t, sr.CmdAuthorize, sr.AuthorizeBody{
		ClientID:    "client",
		RedirectURL: "http://localhost/cb",
		ShowDialog:  &show,
		Scopes:      []string{"app-remote-control"},
	})
	done := make(chan sr.ReplyEnvelope, 1)
	go func() {
		done <- engine.HandleCommand(context.Background(), authorize)
	}()
	<-launcher.opened
	engine.Auth.OnLoginResult(RequestCode, remote.AuthorizationResponse{Type: remote.ResponseToken, AccessToken: "tok", ExpiresIn: 60})
	reply := <-done
	require.True(t, reply.OK, "%+v", reply.Err)

	var session map[string]any
	require.NoError(t, json.Unmarshal(reply.Body, &session))
	assert.Equal(t, "tok", session["accessToken"])

	reply = engine.HandleCommand(context.Background(), command(t, sr.CmdConnect, nil))
	require.True(t, reply.OK)
	assert.JSONEq(t, "true", string(reply.Body))
	assert.Equal(t, "tok", fr.params.AccessToken)
	assert.Equal(t, []string{sr.EventRemoteConnected}, emitter.Names())

	reply = engine.HandleCommand(context.Background(), command(t, sr.CmdIsConnected, nil))
	assert.JSONEq(t, "true", string(reply.Body))

	reply = engine.HandleCommand(context.Background(), command(t, sr.CmdEndSession, nil))
	require.True(t, reply.OK)
	reply = engine.HandleCommand(context.Background(), command(t, sr.CmdGetSession, nil))
	assert.JSONEq(t, "null", string(reply.Body))
	reply = engine.HandleCommand(context.Background(), command(t, sr.CmdIsConnected, nil))
	assert.JSONEq(t, "false", string(reply.Body))
}

func TestEngineConnectWithoutAuth(t *testing.T) {
	engine, fr, _, _ := newTestEngine(t)

	reply := engine.HandleCommand(context.Background(), command(t, sr.CmdConnectWithoutAuth, sr.ConnectWithoutAuthBody{
		Token: "tok", ClientID: "client", RedirectURI: "app://cb",
	}))
	require.True(t, reply.OK)
	assert.Equal(t, remote.ConnectionParams{ClientID: "client", RedirectURI: "app://cb", AccessToken: "tok"}, fr.params)
}

func TestEngineConnectFailureCode(t *testing.T) {
	emitter := &recordingEmitter{}
	engine := NewEngine(context.Background(), nil, &fakeConnector{err: remote.ErrCouldNotFindApp}, nil, emitter)

	reply := engine.HandleCommand(context.Background(), command(t, sr.CmdConnectWithoutAuth, sr.ConnectWithoutAuthBody{ClientID: "client"}))
	require.False(t, reply.OK)
	assert.Equal(t, sr.CodeConnectFailed, reply.Err.Code)
	assert.Equal(t, "Spotify connection failed: could not find the Spotify app, it may need to be installed.", reply.Err.Message)
}

func TestEngineReplyCodes(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	reply := engine.HandleCommand(context.Background(), command(t, sr.CmdPause, nil))
	assert.Equal(t, sr.CodeNotConnected, reply.Err.Code)

	reply = engine.HandleCommand(context.Background(), command(t, sr.CmdGetChildrenOfItem, sr.ChildrenBody{Item: map[string]any{"id": "x"}}))
	assert.Equal(t, sr.CodeNotConnected, reply.Err.Code)

	reply = engine.HandleCommand(context.Background(), command(t, "nope", nil))
	assert.Equal(t, sr.CodeInvalid, reply.Err.Code)

	cmd := command(t, sr.CmdSeek, nil)
	cmd.Body = json.RawMessage(`{"ms":"soon"}`)
	reply = engine.HandleCommand(context.Background(), cmd)
	assert.Equal(t, sr.CodeInvalid, reply.Err.Code)

	reply = engine.HandleCommand(context.Background(), command(t, sr.CmdEventStartObserving, sr.ListenerBody{EventName: "unknown"}))
	assert.Equal(t, sr.CodeInvalid, reply.Err.Code)
}

func TestEngineUnsupportedReads(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	reply := engine.HandleCommand(context.Background(), command(t, sr.CmdGetRootContentItems, sr.RootContentBody{Type: "default"}))
	require.True(t, reply.OK)
	assert.JSONEq(t, "[]", string(reply.Body))

	reply = engine.HandleCommand(context.Background(), command(t, sr.CmdGetContentItemForURI, sr.URIBody{URI: "spotify:track:1"}))
	require.True(t, reply.OK)
	assert.JSONEq(t, "null", string(reply.Body))
}

func TestEnginePlayerCommands(t *testing.T) {
	engine, fr, _, emitter := newTestEngine(t)
	reply := engine.HandleCommand(context.Background(), command(t, sr.CmdConnectWithoutAuth, sr.ConnectWithoutAuthBody{ClientID: "client"}))
	require.True(t, reply.OK)

	reply = engine.HandleCommand(context.Background(), command(t, sr.CmdQueueURI, sr.URIBody{URI: "spotify:episode:1"}))
	assert.Equal(t, sr.CodeInvalid, reply.Err.Code)

	reply = engine.HandleCommand(context.Background(), command(t, sr.CmdPlayURI, sr.URIBody{URI: "spotify:track:1"}))
	require.True(t, reply.OK)
	assert.Equal(t, "spotify:track:1", fr.player.lastURI)

	reply = engine.HandleCommand(context.Background(), command(t, sr.CmdEventStartObserving, sr.ListenerBody{EventName: sr.EventPlayerStateChanged}))
	require.True(t, reply.OK)
	assert.Equal(t, 1, fr.player.liveStateSubs())

	reply = engine.HandleCommand(context.Background(), command(t, sr.CmdGetPlayerState, nil))
	require.True(t, reply.OK)
	assert.Equal(t, sr.EventPlayerStateChanged, emitter.Last().name)

	reply = engine.HandleCommand(context.Background(), command(t, sr.CmdEventStopObserving, sr.ListenerBody{EventName: sr.EventPlayerStateChanged}))
	require.True(t, reply.OK)
	assert.Equal(t, 0, fr.player.liveStateSubs())

	reply = engine.HandleCommand(context.Background(), command(t, sr.CmdDisconnect, nil))
	require.True(t, reply.OK)
	assert.Equal(t, sr.EventRemoteDisconnected, emitter.Last().name)
}

func TestEngineObservationsBelongToSender(t *testing.T) {
	engine, fr, _, _ := newTestEngine(t)
	reply := engine.HandleCommand(context.Background(), command(t, sr.CmdConnectWithoutAuth, sr.ConnectWithoutAuthBody{ClientID: "client"}))
	require.True(t, reply.OK)

	start := command(t, sr.CmdEventStartObserving, sr.ListenerBody{EventName: sr.EventPlayerStateChanged})
	start.From = "kitchen"
	require.True(t, engine.HandleCommand(context.Background(), start).OK)
	require.Equal(t, 1, fr.player.liveStateSubs())

	stop := command(t, sr.CmdEventStopObserving, sr.ListenerBody{EventName: sr.EventPlayerStateChanged})
	stop.From = "lounge"
	reply = engine.HandleCommand(context.Background(), stop)
	require.True(t, reply.OK)
	assert.Equal(t, 1, engine.Listeners.Observers(sr.EventPlayerStateChanged))
	assert.Equal(t, 1, fr.player.liveStateSubs())

	assert.Equal(t, 1, engine.ReleaseOwner("kitchen"))
	assert.Equal(t, 0, engine.Listeners.Observers(sr.EventPlayerStateChanged))
	assert.Equal(t, 0, fr.player.liveStateSubs())
	assert.Equal(t, 0, engine.ReleaseOwner("kitchen"))
}

func TestEngineUnencodableBodyIsAnError(t *testing.T) {
	reply := withBody(sr.ReplyEnvelope{ID: "cmd-1", Type: "ack", OK: true}, math.NaN())
	assert.False(t, reply.OK)
	require.NotNil(t, reply.Err)
	assert.Equal(t, sr.CodeRemoteError, reply.Err.Code)
	assert.Equal(t, "cmd-1", reply.ID)
	assert.Empty(t, reply.Body)
}
