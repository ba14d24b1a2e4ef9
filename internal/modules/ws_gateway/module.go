// Package wsgateway serves the bridge command protocol over websockets.
//
// Clients send command envelopes and receive reply and event frames.
// Events reach a client only after it observes them with
// eventStartObserving; its observations are released when it disconnects.
package wsgateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	remotecore "github.com/mikey-austin/spotify_remote/internal/modules/remote_core"
	"github.com/mikey-austin/spotify_remote/pkg/sr"
)

// Config configures the websocket gateway.
type Config struct {
	Listen         string
	AllowedOrigins []string
	CommandTimeout time.Duration
	SendBuffer     int
	PingInterval   time.Duration
}

// Module runs the websocket gateway.
type Module struct {
	log      *zap.Logger
	config   Config
	engine   *remotecore.Engine
	hub      *Hub
	upgrader websocket.Upgrader

	runCtx context.Context
	wg     sync.WaitGroup
}

// NewModule creates a gateway for engine. hub must be among the engine's
// emitters.
func NewModule(log *zap.Logger, cfg Config, engine *remotecore.Engine, hub *Hub) (*Module, error) {
	if engine == nil || hub == nil {
		return nil, errors.New("engine and hub required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if strings.TrimSpace(cfg.Listen) == "" {
		cfg.Listen = "127.0.0.1:8765"
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = 10 * time.Second
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 64
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	hub.bind(engine.Owners)
	m := &Module{log: log, config: cfg, engine: engine, hub: hub, runCtx: context.Background()}
	m.upgrader = websocket.Upgrader{CheckOrigin: m.checkOrigin}
	return m, nil
}

// Handler returns the gateway routes.
func (m *Module) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Get("/ws", m.handleWebsocket)
	router.Get("/healthz", m.handleHealth)
	return router
}

// Run serves the gateway until ctx ends.
func (m *Module) Run(ctx context.Context) error {
	m.runCtx = ctx
	server := &http.Server{Addr: m.config.Listen, Handler: m.Handler(), ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	m.log.Info("websocket gateway listening", zap.String("listen", m.config.Listen))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		m.wg.Wait()
		return err
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("websocket gateway: %w", err)
	}
}

func (m *Module) checkOrigin(r *http.Request) bool {
	if len(m.config.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range m.config.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

func (m *Module) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := m.engine.Conn.Status()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"connected":  status.Connected,
		"connecting": status.Connecting,
		"auth":       m.engine.Auth.State().String(),
		"clients":    m.hub.Clients(),
	})
}

func (m *Module) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	c := newClient(uuid.NewString(), m.config.SendBuffer)
	m.hub.add(c)
	m.log.Info("websocket client connected", zap.String("client", c.id), zap.String("remote", r.RemoteAddr))

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.writeLoop(conn, c)
	}()
	m.readLoop(conn, c)

	m.hub.remove(c)
	released := m.engine.ReleaseOwner(c.id)
	c.close()
	m.log.Info("websocket client disconnected", zap.String("client", c.id), zap.Int("released", released))
}

// readLoop runs a client's commands in the order they arrive. Long running
// commands are answered whenever they complete.
func (m *Module) readLoop(conn *websocket.Conn, c *client) {
	var (
		queue    remotecore.Sequencer
		inflight sync.WaitGroup
	)
	defer inflight.Wait()
	defer queue.Wait()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				m.log.Warn("websocket read", zap.String("client", c.id), zap.Error(err))
			}
			return
		}

		var cmd sr.CommandEnvelope
		if err := json.Unmarshal(message, &cmd); err != nil {
			m.reply(c, errorReply(cmd, sr.CodeInvalid, "invalid command"))
			continue
		}
		if cmd.From == "" {
			cmd.From = c.id
		}
		if cmd.TS == 0 {
			cmd.TS = time.Now().Unix()
		}
		if len(cmd.Body) == 0 {
			cmd.Body = json.RawMessage("{}")
		}
		if err := sr.ValidateCommandEnvelope(cmd); err != nil {
			m.reply(c, errorReply(cmd, sr.CodeInvalid, err.Error()))
			continue
		}

		run := func() {
			m.reply(c, m.dispatch(c, cmd))
		}
		if remotecore.LongRunning(cmd.Type) {
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				run()
			}()
			continue
		}
		queue.Submit(c.id, run)
	}
}

// dispatch runs a command for c. Observations belong to the connection so
// a dropped client releases them.
func (m *Module) dispatch(c *client, cmd sr.CommandEnvelope) sr.ReplyEnvelope {
	ctx := m.runCtx
	if !remotecore.LongRunning(cmd.Type) {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.CommandTimeout)
		defer cancel()
	}
	return m.engine.HandleCommandFor(ctx, c.id, cmd)
}

func (m *Module) reply(c *client, reply sr.ReplyEnvelope) {
	data, err := json.Marshal(Frame{Kind: FrameReply, Reply: &reply})
	if err != nil {
		m.log.Warn("encode reply", zap.Error(err))
		return
	}
	if !c.enqueue(data) {
		m.log.Warn("websocket client too slow, reply dropped", zap.String("client", c.id), zap.String("id", reply.ID))
	}
}

func (m *Module) writeLoop(conn *websocket.Conn, c *client) {
	ticker := time.NewTicker(m.config.PingInterval)
	defer ticker.Stop()
	defer conn.Close()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				m.log.Debug("websocket write", zap.String("client", c.id), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
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
