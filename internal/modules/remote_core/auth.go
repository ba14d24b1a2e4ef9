package remotecore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mikey-austin/spotify_remote/internal/convert"
	"github.com/mikey-austin/spotify_remote/internal/remote"
)

// RequestCode correlates login UI results with the pending authorization.
const RequestCode = 1337

// LoginLauncher opens the platform login UI. Results come back through
// Auth.OnLoginResult with the same request code.
type LoginLauncher interface {
	OpenLogin(ctx context.Context, requestCode int, req remote.AuthorizationRequest) error
	ClearSession()
}

// AuthState is the authorization state.
type AuthState int

// Authorization states.
const (
	AuthIdle AuthState = iota
	AuthAwaitingLoginResult
	AuthAuthorized
	AuthFailed
	AuthCancelled
)

func (s AuthState) String() string {
	switch s {
	case AuthIdle:
		return "idle"
	case AuthAwaitingLoginResult:
		return "awaiting_login_result"
	case AuthAuthorized:
		return "authorized"
	case AuthFailed:
		return "failed"
	case AuthCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// AuthConfig is the authorization request configuration.
type AuthConfig struct {
	ClientID    string
	RedirectURL string
	ShowDialog  *bool
	Scopes      []string
	AuthType    string
}

type authOutcome struct {
	session map[string]any
	err     error
}

// Auth coordinates the login flow and keeps the last successful result.
type Auth struct {
	log      *zap.Logger
	launcher LoginLauncher
	conn     *Connection
	now      func() time.Time

	mu      sync.Mutex
	state   AuthState
	pending chan authOutcome
	result  *remote.AuthorizationResponse
	params  *remote.ConnectionParams
	config  *AuthConfig
}

// NewAuth creates an authorization coordinator.
func NewAuth(log *zap.Logger, launcher LoginLauncher, conn *Connection) *Auth {
	if log == nil {
		log = zap.NewNop()
	}
	return &Auth{log: log, launcher: launcher, conn: conn, now: time.Now}
}

// Authorize opens the login UI and waits for its result. A newer call
// replaces the pending one, whose caller receives ErrAuthorizationSuperseded.
func (a *Auth) Authorize(ctx context.Context, cfg AuthConfig) (map[string]any, error) {
	responseType, err := validateAuthConfig(cfg)
	if err != nil {
		return nil, err
	}
	if a.launcher == nil {
		return nil, fmt.Errorf("authorize: %w", remote.ErrUnsupported)
	}

	req := remote.AuthorizationRequest{
		ClientID:     cfg.ClientID,
		RedirectURI:  cfg.RedirectURL,
		ResponseType: responseType,
		Scopes:       append([]string(nil), cfg.Scopes...),
		ShowDialog:   *cfg.ShowDialog,
	}
	ch := make(chan authOutcome, 1)

	a.mu.Lock()
	if a.pending != nil {
		a.pending <- authOutcome{err: ErrAuthorizationSuperseded}
		a.log.Warn("authorization superseded")
	}
	a.config = &cfg
	a.params = &remote.ConnectionParams{
		ClientID:     cfg.ClientID,
		RedirectURI:  cfg.RedirectURL,
		ShowAuthView: *cfg.ShowDialog,
	}
	a.pending = ch
	a.state = AuthAwaitingLoginResult
	a.mu.Unlock()

	a.log.Info("opening login", zap.String("client_id", cfg.ClientID), zap.String("response_type", string(responseType)), zap.Strings("scopes", cfg.Scopes))
	if err := a.launcher.OpenLogin(ctx, RequestCode, req); err != nil {
		a.mu.Lock()
		if a.pending == ch {
			a.pending = nil
			a.params = nil
			a.state = AuthFailed
		}
		a.mu.Unlock()
		return nil, fmt.Errorf("open login: %w", err)
	}

	select {
	case out := <-ch:
		return out.session, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// OnLoginResult receives the login UI result. Results for other request
// codes are ignored.
func (a *Auth) OnLoginResult(requestCode int, resp remote.AuthorizationResponse) {
	if requestCode != RequestCode {
		return
	}

	a.mu.Lock()
	ch := a.pending
	if ch == nil {
		a.mu.Unlock()
		a.log.Warn("login result without pending authorization", zap.String("type", string(resp.Type)))
		return
	}
	a.pending = nil

	var out authOutcome
	switch resp.Type {
	case remote.ResponseToken, remote.ResponseCode:
		a.state = AuthAuthorized
		stored := resp
		a.result = &stored
		if a.params != nil && resp.Type == remote.ResponseToken {
			a.params.AccessToken = resp.AccessToken
		}
		out.session = convert.AuthorizationResponse(a.result, a.now())
	case remote.ResponseError:
		a.state = AuthFailed
		a.params = nil
		out.err = &AuthError{Code: resp.Code, Message: resp.Error}
	default:
		a.state = AuthCancelled
		a.params = nil
		out.err = &AuthError{Code: "500", Message: "Cancelled"}
	}
	state := a.state
	a.mu.Unlock()

	a.log.Info("login result", zap.Stringer("state", state))
	ch <- out
}

// Session returns the converted current authorization result, or nil.
func (a *Auth) Session() map[string]any {
	a.mu.Lock()
	defer a.mu.Unlock()
	return convert.AuthorizationResponse(a.result, a.now())
}

// EndSession forgets the authorization and disconnects the remote.
func (a *Auth) EndSession() {
	a.mu.Lock()
	a.result = nil
	a.params = nil
	a.config = nil
	a.state = AuthIdle
	a.mu.Unlock()

	if a.launcher != nil {
		a.launcher.ClearSession()
	}
	if a.conn != nil {
		a.conn.Disconnect()
	}
}

// ConnectionParams returns the parameters derived from authorization.
func (a *Auth) ConnectionParams() (remote.ConnectionParams, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.params == nil {
		return remote.ConnectionParams{}, false
	}
	return *a.params, true
}

// State returns the current authorization state.
func (a *Auth) State() AuthState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func validateAuthConfig(cfg AuthConfig) (remote.ResponseType, error) {
	if strings.TrimSpace(cfg.ClientID) == "" {
		return "", invalidf("clientID required")
	}
	if strings.TrimSpace(cfg.RedirectURL) == "" {
		return "", invalidf("redirectURL required")
	}
	if cfg.ShowDialog == nil {
		return "", invalidf("showDialog required")
	}
	if cfg.Scopes == nil {
		return "", invalidf("scopes required")
	}
	responseType, err := remote.ParseResponseType(cfg.AuthType)
	if err != nil {
		return "", invalidf("%v", err)
	}
	return responseType, nil
}
