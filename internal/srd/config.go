package srd

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the top-level configuration for srd.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Modules ModulesConfig `toml:"modules"`
}

// ServerConfig defines shared server settings.
type ServerConfig struct {
	Broker    string     `toml:"broker"`
	Identity  string     `toml:"identity"`
	TopicBase string     `toml:"topic_base"`
	LogLevel  string     `toml:"log_level"`
	LogFormat string     `toml:"log_format"`
	LogOutput string     `toml:"log_output"`
	LogSource bool       `toml:"log_source"`
	LogUTC    bool       `toml:"log_utc"`
	LogColor  bool       `toml:"log_color"`
	TLS       TLSConfig  `toml:"tls"`
	Auth      AuthConfig `toml:"auth"`
}

// TLSConfig holds TLS paths for MQTT.
type TLSConfig struct {
	CA   string `toml:"ca"`
	Cert string `toml:"cert"`
	Key  string `toml:"key"`
}

// AuthConfig holds MQTT auth credentials.
type AuthConfig struct {
	User string `toml:"user"`
	Pass string `toml:"pass"`
}

// ModulesConfig holds module configurations.
type ModulesConfig struct {
	RemoteBridge RemoteBridgeConfig `toml:"remote_bridge"`
	Spotify      SpotifyConfig      `toml:"spotify"`
	OAuthLogin   OAuthLoginConfig   `toml:"oauth_login"`
	WSGateway    WSGatewayConfig    `toml:"ws_gateway"`
	EmbeddedMQTT EmbeddedMQTTConfig `toml:"embedded_mqtt"`
}

// RemoteBridgeConfig configures the MQTT bridge node.
type RemoteBridgeConfig struct {
	Enabled          bool   `toml:"enabled"`
	NodeID           string `toml:"node_id"`
	Name             string `toml:"name"`
	CommandTimeoutMS int64  `toml:"command_timeout_ms"`
}

// SpotifyConfig configures the Web API playback backend.
type SpotifyConfig struct {
	BaseURL        string `toml:"base_url"`
	Market         string `toml:"market"`
	DeviceName     string `toml:"device_name"`
	PollIntervalMS int64  `toml:"poll_interval_ms"`
	PageSize       int    `toml:"page_size"`
}

// OAuthLoginConfig configures the browser login callback server.
type OAuthLoginConfig struct {
	Enabled      bool   `toml:"enabled"`
	Listen       string `toml:"listen"`
	CallbackPath string `toml:"callback_path"`
	ClientSecret string `toml:"client_secret"`
}

// WSGatewayConfig configures the websocket gateway.
type WSGatewayConfig struct {
	Enabled          bool     `toml:"enabled"`
	Listen           string   `toml:"listen"`
	AllowedOrigins   []string `toml:"allowed_origins"`
	CommandTimeoutMS int64    `toml:"command_timeout_ms"`
}

// EmbeddedMQTTConfig configures the embedded MQTT broker.
type EmbeddedMQTTConfig struct {
	Enabled         bool   `toml:"enabled"`
	Listen          string `toml:"listen"`
	WebsocketListen string `toml:"websocket_listen"`
	AllowAnonymous  bool   `toml:"allow_anonymous"`
	Username        string `toml:"username"`
	Password        string `toml:"password"`
	TLSCA           string `toml:"tls_ca"`
	TLSCert         string `toml:"tls_cert"`
	TLSKey          string `toml:"tls_key"`
}

// LoadConfig loads a config file from path.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path required")
	}
	info, err := os.Stat(path)
	if err != nil {
		return Config{}, err
	}
	if info.IsDir() {
		return Config{}, errors.New("config path is a directory")
	}

	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, &UnknownKeysError{Keys: keyStrings(undecoded)}
	}
	return cfg, nil
}

// UnknownKeysError reports config keys srd does not recognise.
type UnknownKeysError struct {
	Keys []string
}

func (e *UnknownKeysError) Error() string {
	msg := "unknown config keys:"
	for _, key := range e.Keys {
		msg += " " + key
	}
	return msg
}

func keyStrings(keys []toml.Key) []string {
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		out = append(out, key.String())
	}
	return out
}

// DefaultConfigPath returns the default config location.
func DefaultConfigPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "sr", "srd.toml"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "sr", "srd.toml"), nil
}
