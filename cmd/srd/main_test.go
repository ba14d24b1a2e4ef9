package main

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/mikey-austin/spotify_remote/internal/srd"
)

func TestBuildModulesGatewayOnly(t *testing.T) {
	cfg := srd.Config{}
	cfg.Modules.WSGateway.Enabled = true
	cfg.Modules.OAuthLogin.Enabled = true

	modules, err := buildModules(context.Background(), cfg, nil, zap.NewNop(), "")
	if err != nil {
		t.Fatalf("buildModules: %v", err)
	}
	names := map[string]bool{}
	for _, m := range modules {
		names[m.Name] = true
	}
	if !names["ws_gateway"] || !names["oauth_login"] || len(modules) != 2 {
		t.Fatalf("unexpected modules %v", names)
	}
}

func TestBuildModulesModuleOnlyFilter(t *testing.T) {
	cfg := srd.Config{}
	cfg.Modules.WSGateway.Enabled = true

	if _, err := buildModules(context.Background(), cfg, nil, zap.NewNop(), "remote_bridge"); err == nil {
		t.Fatalf("expected error for filtered module")
	}
}

func TestBuildModulesBridgeNeedsClient(t *testing.T) {
	cfg := srd.Config{}
	cfg.Modules.RemoteBridge.Enabled = true
	cfg.Modules.RemoteBridge.NodeID = "sr:bridge:test"

	if _, err := buildModules(context.Background(), cfg, nil, zap.NewNop(), ""); err == nil {
		t.Fatalf("expected error without mqtt client")
	}
}

func TestApplyOverridesDefaults(t *testing.T) {
	cfg := srd.Config{}
	cfg.Server.Identity = "kitchen"
	cfg.Modules.EmbeddedMQTT.Enabled = true
	applyOverrides(&cfg, "", "", "", "debug", "", "", false, false, false)

	if cfg.Server.TopicBase != "sr/v1" {
		t.Fatalf("unexpected topic base %s", cfg.Server.TopicBase)
	}
	if cfg.Server.Broker != "mqtt://127.0.0.1:1883" {
		t.Fatalf("expected embedded broker url, got %s", cfg.Server.Broker)
	}
	if cfg.Modules.RemoteBridge.NodeID != "sr:bridge:kitchen" {
		t.Fatalf("unexpected node id %s", cfg.Modules.RemoteBridge.NodeID)
	}
	if cfg.Server.LogLevel != "debug" {
		t.Fatalf("expected log level override")
	}
}

func TestPresenceWill(t *testing.T) {
	cfg := srd.Config{}
	cfg.Server.TopicBase = "sr/v1"
	cfg.Modules.RemoteBridge.NodeID = "sr:bridge:kitchen"
	will := presenceWill(cfg)
	if will == nil || will.Topic != "sr/v1/node/sr:bridge:kitchen/presence" || len(will.Payload) == 0 {
		t.Fatalf("unexpected will %+v", will)
	}
}
