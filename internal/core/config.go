package core

// Config is runtime configuration for the CLI.
type Config struct {
	Broker    string
	Identity  string
	TopicBase string
	Aliases   map[string]string
	Defaults  Defaults
}

// Defaults defines default selector and authorization values.
type Defaults struct {
	Bridge   string
	ClientID string
	Redirect string
}
