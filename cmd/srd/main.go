package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mikey-austin/spotify_remote/internal/adapters/mqttserver"
	"github.com/mikey-austin/spotify_remote/internal/adapters/oauthlogin"
	"github.com/mikey-austin/spotify_remote/internal/adapters/spotifyweb"
	embeddedmqtt "github.com/mikey-austin/spotify_remote/internal/modules/embedded_mqtt"
	remotebridge "github.com/mikey-austin/spotify_remote/internal/modules/remote_bridge"
	remotecore "github.com/mikey-austin/spotify_remote/internal/modules/remote_core"
	wsgateway "github.com/mikey-austin/spotify_remote/internal/modules/ws_gateway"
	"github.com/mikey-austin/spotify_remote/internal/srd"
	"github.com/mikey-austin/spotify_remote/pkg/sr"
)

func main() {
	var (
		configPath  string
		broker      string
		identity    string
		topicBase   string
		logLevel    string
		logFormat   string
		logOutput   string
		logSource   bool
		logUTC      bool
		logColor    bool
		printConfig bool
		dryRun      bool
		moduleOnly  string
	)

	defaultConfig, err := srd.DefaultConfigPath()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	flag.StringVar(&configPath, "config", defaultConfig, "config file path")
	flag.StringVar(&broker, "broker", "", "MQTT broker URL override")
	flag.StringVar(&identity, "identity", "", "server identity override")
	flag.StringVar(&topicBase, "topic-base", "", "topic base override")
	flag.StringVar(&logLevel, "log-level", "", "log level override")
	flag.StringVar(&logFormat, "log-format", "", "log format override (text|json)")
	flag.StringVar(&logOutput, "log-output", "", "log output override (stdout|stderr)")
	flag.BoolVar(&logSource, "log-source", false, "include source file in logs")
	flag.BoolVar(&logUTC, "log-utc", false, "use UTC timestamps in logs")
	flag.BoolVar(&logColor, "log-color", false, "enable colored log output (text only)")
	flag.StringVar(&moduleOnly, "module", "", "limit to a single module")
	flag.BoolVar(&printConfig, "print-config", false, "print resolved config and exit")
	flag.BoolVar(&dryRun, "dry-run", false, "validate config and exit")
	flag.Parse()

	cfg, err := srd.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	applyOverrides(&cfg, broker, identity, topicBase, logLevel, logFormat, logOutput, logSource, logUTC, logColor)

	if printConfig {
		printResolvedConfig(cfg)
		return
	}
	if dryRun {
		return
	}

	logger := srd.NewLogger(srd.LogConfig{
		Level:     cfg.Server.LogLevel,
		Format:    cfg.Server.LogFormat,
		Output:    cfg.Server.LogOutput,
		AddSource: cfg.Server.LogSource,
		UTC:       cfg.Server.LogUTC,
		Color:     cfg.Server.LogColor,
	})
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("srd starting",
		zap.String("broker", cfg.Server.Broker),
		zap.String("identity", cfg.Server.Identity),
		zap.String("topic_base", cfg.Server.TopicBase),
		zap.Strings("modules", enabledModules(cfg)),
	)

	runners := []srd.ModuleRunner{}
	embeddedURL := embeddedBrokerURL(cfg)
	if cfg.Modules.EmbeddedMQTT.Enabled && wants(moduleOnly, "embedded_mqtt") {
		embedded, err := newEmbeddedBroker(cfg, logger)
		if err != nil {
			logger.Error("embedded mqtt failed", zap.Error(err))
			os.Exit(1)
		}
		if cfg.Server.Broker == embeddedURL && moduleOnly != "embedded_mqtt" {
			// The bridge client connects at startup, so the broker must be
			// accepting connections first.
			if err := startEmbeddedBroker(ctx, embedded, logger, cancel); err != nil {
				logger.Error("embedded mqtt failed", zap.Error(err))
				os.Exit(1)
			}
		} else {
			runners = append(runners, srd.ModuleRunner{Name: "embedded_mqtt", Run: embedded.Run})
		}
	}

	var client *mqttserver.Client
	if cfg.Modules.RemoteBridge.Enabled && wants(moduleOnly, "remote_bridge") {
		if cfg.Server.Broker == "" {
			logger.Error("broker is required")
			os.Exit(1)
		}
		client, err = mqttserver.NewClient(mqttserver.Options{
			BrokerURL: cfg.Server.Broker,
			ClientID:  fmt.Sprintf("srd-%d", time.Now().UnixNano()),
			Username:  cfg.Server.Auth.User,
			Password:  cfg.Server.Auth.Pass,
			TLSCA:     cfg.Server.TLS.CA,
			TLSCert:   cfg.Server.TLS.Cert,
			TLSKey:    cfg.Server.TLS.Key,
			Timeout:   2 * time.Second,
			Logger:    logger.With(zap.String("module", "mqtt")),
			Will:      presenceWill(cfg),
		})
		if err != nil {
			logger.Error("mqtt connection failed", zap.Error(err))
			os.Exit(1)
		}
		defer client.Disconnect(250 * time.Millisecond)
	}

	modules, err := buildModules(ctx, cfg, client, logger, moduleOnly)
	if err != nil {
		logger.Error("failed to build modules", zap.Error(err))
		os.Exit(1)
	}
	runners = append(runners, modules...)

	supervisor := srd.Supervisor{Logger: logger}
	if err := supervisor.Run(ctx, runners); err != nil {
		logger.Error("supervisor error", zap.Error(err))
		os.Exit(1)
	}
}

func applyOverrides(cfg *srd.Config, broker string, identity string, topicBase string, logLevel string, logFormat string, logOutput string, logSource bool, logUTC bool, logColor bool) {
	if broker != "" {
		cfg.Server.Broker = broker
	}
	if identity != "" {
		cfg.Server.Identity = identity
	}
	if topicBase != "" {
		cfg.Server.TopicBase = topicBase
	}
	if logLevel != "" {
		cfg.Server.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.Server.LogFormat = logFormat
	}
	if logOutput != "" {
		cfg.Server.LogOutput = logOutput
	}
	if logSource {
		cfg.Server.LogSource = true
	}
	if logUTC {
		cfg.Server.LogUTC = true
	}
	if logColor {
		cfg.Server.LogColor = true
	}
	if cfg.Server.TopicBase == "" {
		cfg.Server.TopicBase = sr.BaseTopic
	}
	if cfg.Server.Broker == "" && cfg.Modules.EmbeddedMQTT.Enabled {
		cfg.Server.Broker = embeddedBrokerURL(*cfg)
	}
	if cfg.Modules.RemoteBridge.NodeID == "" {
		name := cfg.Server.Identity
		if name == "" {
			name, _ = os.Hostname()
		}
		if name == "" {
			name = "default"
		}
		cfg.Modules.RemoteBridge.NodeID = "sr:bridge:" + name
	}
}

// buildModules wires the bridge engine and its surfaces. The websocket hub
// and login launcher are created before the engine because both receive
// its events.
func buildModules(ctx context.Context, cfg srd.Config, client *mqttserver.Client, logger *zap.Logger, moduleOnly string) ([]srd.ModuleRunner, error) {
	modules := []srd.ModuleRunner{}
	bridgeOn := cfg.Modules.RemoteBridge.Enabled && wants(moduleOnly, "remote_bridge")
	gatewayOn := cfg.Modules.WSGateway.Enabled && wants(moduleOnly, "ws_gateway")
	loginOn := cfg.Modules.OAuthLogin.Enabled && (bridgeOn || gatewayOn)

	if !bridgeOn && !gatewayOn {
		if moduleOnly != "" && moduleOnly != "embedded_mqtt" {
			return nil, errors.New("no modules enabled")
		}
		return modules, nil
	}

	connector := spotifyweb.NewConnector(logger.With(zap.String("module", "spotify")), spotifyweb.Config{
		BaseURL:      cfg.Modules.Spotify.BaseURL,
		Market:       cfg.Modules.Spotify.Market,
		DeviceName:   cfg.Modules.Spotify.DeviceName,
		PollInterval: time.Duration(cfg.Modules.Spotify.PollIntervalMS) * time.Millisecond,
		PageSize:     cfg.Modules.Spotify.PageSize,
	})

	var hub *wsgateway.Hub
	var extra remotecore.Emitter
	if gatewayOn {
		hub = wsgateway.NewHub(logger.With(zap.String("module", "ws_gateway")))
		extra = hub
	}

	// Login events go wherever engine events go. The bridge is assigned
	// below, before any module runs.
	var bridge *remotebridge.Module
	loginEvents := remotecore.EmitterFunc(func(name string, payload any) {
		if bridge != nil {
			bridge.Emit(name, payload)
		}
		if hub != nil {
			hub.Emit(name, payload)
		}
	})

	var launcher remotecore.LoginLauncher
	var login *oauthlogin.Launcher
	if loginOn {
		login = oauthlogin.New(logger.With(zap.String("module", "oauth_login")), oauthlogin.Config{
			Listen:       cfg.Modules.OAuthLogin.Listen,
			CallbackPath: cfg.Modules.OAuthLogin.CallbackPath,
			ClientSecret: cfg.Modules.OAuthLogin.ClientSecret,
		}, loginEvents)
		launcher = login
	}

	var engine *remotecore.Engine
	if bridgeOn {
		if client == nil {
			return nil, errors.New("remote_bridge requires an mqtt client")
		}
		var err error
		bridge, err = remotebridge.NewModule(ctx, logger.With(zap.String("module", "remote_bridge")), client, remotebridge.Config{
			NodeID:         cfg.Modules.RemoteBridge.NodeID,
			TopicBase:      cfg.Server.TopicBase,
			Name:           cfg.Modules.RemoteBridge.Name,
			CommandTimeout: time.Duration(cfg.Modules.RemoteBridge.CommandTimeoutMS) * time.Millisecond,
		}, connector, launcher, extra)
		if err != nil {
			return nil, err
		}
		engine = bridge.Engine()
		modules = append(modules, srd.ModuleRunner{Name: "remote_bridge", Run: bridge.Run})
	} else {
		engine = remotecore.NewEngine(ctx, logger.With(zap.String("module", "remote_core")), connector, launcher, hub)
	}

	if login != nil {
		login.Bind(engine.Auth.OnLoginResult)
		modules = append(modules, srd.ModuleRunner{Name: "oauth_login", Run: login.Run})
	}

	if gatewayOn {
		gateway, err := wsgateway.NewModule(logger.With(zap.String("module", "ws_gateway")), wsgateway.Config{
			Listen:         cfg.Modules.WSGateway.Listen,
			AllowedOrigins: cfg.Modules.WSGateway.AllowedOrigins,
			CommandTimeout: time.Duration(cfg.Modules.WSGateway.CommandTimeoutMS) * time.Millisecond,
		}, engine, hub)
		if err != nil {
			return nil, err
		}
		modules = append(modules, srd.ModuleRunner{Name: "ws_gateway", Run: gateway.Run})
	}

	return modules, nil
}

func wants(moduleOnly string, name string) bool {
	return moduleOnly == "" || moduleOnly == name
}

// presenceWill marks the bridge offline if srd drops off the broker.
func presenceWill(cfg srd.Config) *mqttserver.Will {
	payload, err := remotebridge.OfflinePresence(cfg.Modules.RemoteBridge.NodeID, cfg.Modules.RemoteBridge.Name)
	if err != nil {
		return nil
	}
	return &mqttserver.Will{
		Topic:   sr.TopicPresence(cfg.Server.TopicBase, cfg.Modules.RemoteBridge.NodeID),
		Payload: payload,
	}
}

func enabledModules(cfg srd.Config) []string {
	out := []string{}
	if cfg.Modules.EmbeddedMQTT.Enabled {
		out = append(out, "embedded_mqtt")
	}
	if cfg.Modules.RemoteBridge.Enabled {
		out = append(out, "remote_bridge")
	}
	if cfg.Modules.OAuthLogin.Enabled {
		out = append(out, "oauth_login")
	}
	if cfg.Modules.WSGateway.Enabled {
		out = append(out, "ws_gateway")
	}
	return out
}

func printResolvedConfig(cfg srd.Config) {
	fmt.Fprintf(os.Stdout,
		"broker=%s identity=%s topic_base=%s node_id=%s log_level=%s log_format=%s log_output=%s modules=%v\n",
		cfg.Server.Broker,
		cfg.Server.Identity,
		cfg.Server.TopicBase,
		cfg.Modules.RemoteBridge.NodeID,
		cfg.Server.LogLevel,
		cfg.Server.LogFormat,
		cfg.Server.LogOutput,
		enabledModules(cfg),
	)
}

func embeddedConfig(cfg srd.Config) embeddedmqtt.Config {
	return embeddedmqtt.Config{
		Listen:          cfg.Modules.EmbeddedMQTT.Listen,
		WebsocketListen: cfg.Modules.EmbeddedMQTT.WebsocketListen,
		TopicBase:       cfg.Server.TopicBase,
		AllowAnonymous:  cfg.Modules.EmbeddedMQTT.AllowAnonymous,
		Username:        cfg.Modules.EmbeddedMQTT.Username,
		Password:        cfg.Modules.EmbeddedMQTT.Password,
		TLSCA:           cfg.Modules.EmbeddedMQTT.TLSCA,
		TLSCert:         cfg.Modules.EmbeddedMQTT.TLSCert,
		TLSKey:          cfg.Modules.EmbeddedMQTT.TLSKey,
	}
}

func embeddedBrokerURL(cfg srd.Config) string {
	listen := cfg.Modules.EmbeddedMQTT.Listen
	if listen == "" {
		listen = "127.0.0.1:1883"
	}
	tlsEnabled := cfg.Modules.EmbeddedMQTT.TLSCert != "" || cfg.Modules.EmbeddedMQTT.TLSKey != "" || cfg.Modules.EmbeddedMQTT.TLSCA != ""
	return embeddedmqtt.BrokerURL(listen, tlsEnabled)
}

func newEmbeddedBroker(cfg srd.Config, logger *zap.Logger) (*embeddedmqtt.Module, error) {
	return embeddedmqtt.NewModule(logger.With(zap.String("module", "embedded_mqtt")), embeddedConfig(cfg))
}

func startEmbeddedBroker(ctx context.Context, mod *embeddedmqtt.Module, logger *zap.Logger, cancel context.CancelFunc) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- mod.Run(ctx)
	}()

	select {
	case <-mod.Ready():
	case err := <-errCh:
		return err
	case <-time.After(3 * time.Second):
		return errors.New("embedded mqtt not ready")
	}

	go func() {
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("embedded mqtt exited", zap.Error(err))
			cancel()
		}
	}()
	return nil
}
