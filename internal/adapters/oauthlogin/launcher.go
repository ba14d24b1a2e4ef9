// Package oauthlogin opens the Spotify login page for the bridge and
// receives the redirect on a local callback server.
//
// The login URL is published as an authorizationRequested event; the user
// (or a controller UI) opens it in a browser. The redirect must point at
// this server's callback path.
package oauthlogin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	remotecore "github.com/mikey-austin/spotify_remote/internal/modules/remote_core"
	"github.com/mikey-austin/spotify_remote/internal/remote"
	"github.com/mikey-austin/spotify_remote/pkg/sr"
)

// ResultFunc receives login results.
type ResultFunc func(requestCode int, resp remote.AuthorizationResponse)

// Config configures the launcher.
type Config struct {
	Listen       string
	CallbackPath string
	ClientSecret string
}

type pendingLogin struct {
	requestCode int
	request     remote.AuthorizationRequest
	state       string
	url         string
	auth        *spotifyauth.Authenticator
}

// Launcher implements the bridge's LoginLauncher.
type Launcher struct {
	log     *zap.Logger
	config  Config
	emitter remotecore.Emitter

	mu       sync.Mutex
	onResult ResultFunc
	pending  *pendingLogin

	exchange func(ctx context.Context, auth *spotifyauth.Authenticator, code string) (*oauth2.Token, error)
	now      func() time.Time
}

// New creates a launcher. Results are dropped until Bind is called.
func New(log *zap.Logger, cfg Config, emitter remotecore.Emitter) *Launcher {
	if log == nil {
		log = zap.NewNop()
	}
	if strings.TrimSpace(cfg.Listen) == "" {
		cfg.Listen = "127.0.0.1:8888"
	}
	if strings.TrimSpace(cfg.CallbackPath) == "" {
		cfg.CallbackPath = "/callback"
	}
	return &Launcher{
		log:     log,
		config:  cfg,
		emitter: emitter,
		exchange: func(ctx context.Context, auth *spotifyauth.Authenticator, code string) (*oauth2.Token, error) {
			return auth.Exchange(ctx, code)
		},
		now: time.Now,
	}
}

// Bind sets the result receiver.
func (l *Launcher) Bind(fn ResultFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onResult = fn
}

// OpenLogin builds the authorize URL and announces it.
func (l *Launcher) OpenLogin(ctx context.Context, requestCode int, req remote.AuthorizationRequest) error {
	if req.ResponseType == remote.ResponseToken && l.config.ClientSecret == "" {
		return errors.New("token logins need a client secret to exchange the code")
	}

	auth := spotifyauth.New(
		spotifyauth.WithClientID(req.ClientID),
		spotifyauth.WithClientSecret(l.config.ClientSecret),
		spotifyauth.WithRedirectURL(req.RedirectURI),
		spotifyauth.WithScopes(req.Scopes...),
	)
	state := uuid.NewString()
	var opts []oauth2.AuthCodeOption
	if req.ShowDialog {
		opts = append(opts, spotifyauth.ShowDialog)
	}
	url := auth.AuthURL(state, opts...)

	l.mu.Lock()
	l.pending = &pendingLogin{requestCode: requestCode, request: req, state: state, url: url, auth: auth}
	l.mu.Unlock()

	l.log.Info("login requested", zap.String("url", url), zap.String("response_type", string(req.ResponseType)))
	if l.emitter != nil {
		l.emitter.Emit(sr.EventAuthorizationRequested, sr.AuthorizationRequestedEvent{URL: url, RequestCode: requestCode})
	}
	return nil
}

// ClearSession forgets any pending login.
func (l *Launcher) ClearSession() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = nil
}

// PendingURL returns the login URL awaiting a callback.
func (l *Launcher) PendingURL() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pending == nil {
		return "", false
	}
	return l.pending.url, true
}

// Handler serves the callback and a /login redirect to the pending URL.
func (l *Launcher) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Get(l.config.CallbackPath, l.handleCallback)
	router.Get("/login", func(w http.ResponseWriter, r *http.Request) {
		url, ok := l.PendingURL()
		if !ok {
			http.Error(w, "no login pending", http.StatusNotFound)
			return
		}
		http.Redirect(w, r, url, http.StatusFound)
	})
	return router
}

// Run serves the callback server until ctx ends.
func (l *Launcher) Run(ctx context.Context) error {
	server := &http.Server{Addr: l.config.Listen, Handler: l.Handler(), ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	l.log.Info("login callback listening", zap.String("listen", l.config.Listen), zap.String("path", l.config.CallbackPath))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("login callback server: %w", err)
	}
}

func (l *Launcher) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	state := query.Get("state")

	l.mu.Lock()
	pending := l.pending
	if pending == nil || pending.state != state {
		l.mu.Unlock()
		l.log.Warn("login callback with unknown state")
		http.Error(w, "unknown login state", http.StatusBadRequest)
		return
	}
	l.pending = nil
	onResult := l.onResult
	l.mu.Unlock()

	resp := l.response(r.Context(), pending, query.Get("code"), query.Get("error"), state)
	if onResult != nil {
		onResult(pending.requestCode, resp)
	}

	switch resp.Type {
	case remote.ResponseToken, remote.ResponseCode:
		_, _ = w.Write([]byte("Login complete. You can close this window.\n"))
	default:
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = fmt.Fprintf(w, "Login failed: %s\n", resp.Error)
	}
}

func (l *Launcher) response(ctx context.Context, pending *pendingLogin, code string, errParam string, state string) remote.AuthorizationResponse {
	switch {
	case errParam != "":
		return remote.AuthorizationResponse{Type: remote.ResponseError, Error: errParam, State: state}
	case code == "":
		return remote.AuthorizationResponse{Type: remote.ResponseEmpty, State: state}
	case pending.request.ResponseType == remote.ResponseCode:
		return remote.AuthorizationResponse{Type: remote.ResponseCode, Code: code, State: state}
	}

	token, err := l.exchange(ctx, pending.auth, code)
	if err != nil {
		l.log.Warn("token exchange failed", zap.Error(err))
		return remote.AuthorizationResponse{Type: remote.ResponseError, Error: err.Error(), State: state}
	}
	expiresIn := 0
	if !token.Expiry.IsZero() {
		expiresIn = int(token.Expiry.Sub(l.now()).Seconds())
	}
	return remote.AuthorizationResponse{
		Type:        remote.ResponseToken,
		AccessToken: token.AccessToken,
		ExpiresIn:   expiresIn,
		State:       state,
	}
}
