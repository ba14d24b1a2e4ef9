package remotebridge

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	remotecore "github.com/mikey-austin/spotify_remote/internal/modules/remote_core"
	"github.com/mikey-austin/spotify_remote/internal/remote"
	"github.com/mikey-austin/spotify_remote/pkg/sr"
)

const defaultName = "Spotify Remote"

type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
	Subscribe(topic string, qos byte, handler paho.MessageHandler) error
	Unsubscribe(topic string) error
}

// Config configures the remote bridge module.
type Config struct {
	NodeID         string
	TopicBase      string
	Name           string
	CommandTimeout time.Duration
}

// Module exposes a remote bridge engine on the MQTT command topic and
// publishes its events.
type Module struct {
	log      *zap.Logger
	client   mqttClient
	engine   *remotecore.Engine
	config   Config
	cmdTopic string
	evtTopic string

	runCtx context.Context
	seq    remotecore.Sequencer
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewModule creates a bridge module. Events are published on the node's
// event topic and forwarded to extra.
func NewModule(ctx context.Context, log *zap.Logger, client mqttClient, cfg Config, connector remote.Connector, launcher remotecore.LoginLauncher, extra remotecore.Emitter) (*Module, error) {
	if strings.TrimSpace(cfg.NodeID) == "" {
		return nil, errors.New("node_id required")
	}
	if connector == nil {
		return nil, errors.New("connector required")
	}
	if strings.TrimSpace(cfg.TopicBase) == "" {
		cfg.TopicBase = sr.BaseTopic
	}
	if strings.TrimSpace(cfg.Name) == "" {
		cfg.Name = defaultName
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}

	m := &Module{
		log:      log,
		client:   client,
		config:   cfg,
		cmdTopic: sr.TopicCommands(cfg.TopicBase, cfg.NodeID),
		evtTopic: sr.TopicEvents(cfg.TopicBase, cfg.NodeID),
		runCtx:   ctx,
	}
	emitter := remotecore.MultiEmitter{m}
	if extra != nil {
		emitter = append(emitter, extra)
	}
	m.engine = remotecore.NewEngine(ctx, log, connector, launcher, emitter)
	return m, nil
}

// Engine returns the bridge engine.
func (m *Module) Engine() *remotecore.Engine {
	return m.engine
}

// Run subscribes to commands until ctx ends.
func (m *Module) Run(ctx context.Context) error {
	m.mu.Lock()
	m.runCtx = ctx
	m.mu.Unlock()

	if err := m.publishPresence(false); err != nil {
		return err
	}

	handler := func(_ paho.Client, msg paho.Message) {
		m.handleMessage(msg)
	}
	if err := m.client.Subscribe(m.cmdTopic, 1, handler); err != nil {
		return err
	}
	m.log.Info("remote bridge ready", zap.String("cmd_topic", m.cmdTopic), zap.String("evt_topic", m.evtTopic))

	<-ctx.Done()
	_ = m.client.Unsubscribe(m.cmdTopic)
	m.engine.Conn.Disconnect()
	m.seq.Wait()
	m.wg.Wait()
	return nil
}

// Emit publishes a bridge event. Connection events also refresh presence.
func (m *Module) Emit(name string, payload any) {
	evt, err := sr.NewEvent(name, time.Now().Unix(), payload)
	if err != nil {
		m.log.Warn("encode event", zap.String("event", name), zap.Error(err))
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		m.log.Warn("encode event", zap.String("event", name), zap.Error(err))
		return
	}
	if err := m.client.Publish(m.evtTopic, 1, false, data); err != nil {
		m.log.Warn("publish event", zap.String("event", name), zap.Error(err))
	}

	switch name {
	case sr.EventRemoteConnected:
		_ = m.publishPresence(true)
	case sr.EventRemoteDisconnected:
		_ = m.publishPresence(false)
	}
}

func (m *Module) publishPresence(connected bool) error {
	payload, err := presencePayload(m.config.NodeID, m.config.Name, connected)
	if err != nil {
		return err
	}
	return m.client.Publish(sr.TopicPresence(m.config.TopicBase, m.config.NodeID), 1, true, payload)
}

// OfflinePresence is the presence payload for a bridge that has gone away,
// suitable as the MQTT last will.
func OfflinePresence(nodeID string, name string) ([]byte, error) {
	if strings.TrimSpace(name) == "" {
		name = defaultName
	}
	return presencePayload(nodeID, name, false)
}

func presencePayload(nodeID string, name string, connected bool) ([]byte, error) {
	presence := sr.Presence{
		NodeID: nodeID,
		Kind:   sr.KindRemoteBridge,
		Name:   name,
		Caps: map[string]any{
			"connected": connected,
			"events": []string{
				sr.EventRemoteConnected,
				sr.EventRemoteDisconnected,
				sr.EventPlayerContextChanged,
				sr.EventPlayerStateChanged,
				sr.EventAuthorizationRequested,
			},
		},
		TS: time.Now().Unix(),
	}
	return json.Marshal(presence)
}

func (m *Module) handleMessage(msg paho.Message) {
	var cmd sr.CommandEnvelope
	if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
		m.log.Warn("invalid command", zap.Error(err))
		return
	}
	if err := sr.ValidateCommandEnvelope(cmd); err != nil {
		m.log.Warn("invalid command", zap.String("id", cmd.ID), zap.String("type", cmd.Type), zap.Error(err))
		m.publishReply(cmd.ReplyTo, errorReply(cmd, sr.CodeInvalid, err.Error()))
		return
	}

	run := func() {
		m.publishReply(cmd.ReplyTo, m.dispatch(cmd))
	}
	if remotecore.LongRunning(cmd.Type) {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			run()
		}()
		return
	}
	// A sender's commands run in the order they arrived.
	m.seq.Submit(cmd.From, run)
}

// dispatch runs a command. Authorization and connection wait on the user or
// the remote and are bounded only by the module lifetime.
func (m *Module) dispatch(cmd sr.CommandEnvelope) sr.ReplyEnvelope {
	m.mu.Lock()
	ctx := m.runCtx
	m.mu.Unlock()

	if !remotecore.LongRunning(cmd.Type) {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.CommandTimeout)
		defer cancel()
	}

	start := time.Now()
	reply := m.engine.HandleCommand(ctx, cmd)
	fields := []zap.Field{
		zap.String("id", cmd.ID),
		zap.String("type", cmd.Type),
		zap.String("from", cmd.From),
		zap.Duration("elapsed", time.Since(start)),
	}
	if reply.Err != nil {
		m.log.Info("command failed", append(fields, zap.String("code", reply.Err.Code), zap.String("message", reply.Err.Message))...)
	} else {
		m.log.Debug("command handled", fields...)
	}
	return reply
}

func (m *Module) publishReply(replyTo string, reply sr.ReplyEnvelope) {
	if replyTo == "" {
		return
	}
	payload, err := json.Marshal(reply)
	if err != nil {
		m.log.Warn("encode reply", zap.Error(err))
		return
	}
	if err := m.client.Publish(replyTo, 1, false, payload); err != nil {
		m.log.Warn("publish reply", zap.String("topic", replyTo), zap.Error(err))
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
