package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/user"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/mikey-austin/spotify_remote/internal/adapters/clock"
	"github.com/mikey-austin/spotify_remote/internal/adapters/config"
	"github.com/mikey-austin/spotify_remote/internal/adapters/idgen"
	"github.com/mikey-austin/spotify_remote/internal/adapters/mqtt"
	"github.com/mikey-austin/spotify_remote/internal/adapters/output"
	"github.com/mikey-austin/spotify_remote/internal/core"
	"github.com/mikey-austin/spotify_remote/pkg/sr"
)

type app struct {
	service core.Service
	printer output.Printer
	quiet   bool
	json    bool
	timeout time.Duration
	close   func()
}

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		os.Exit(core.ExitCode(err))
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "sr",
		Short:         "Spotify Remote CLI",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	var (
		broker    string
		topicBase string
		identity  string
		timeout   time.Duration
		quiet     bool
		jsonOut   bool
		noColor   bool
		tlsCA     string
		tlsCert   string
		tlsKey    string
		userOpt   string
		passOpt   string
	)

	root.PersistentFlags().StringVarP(&broker, "broker", "b", "", "MQTT broker URL")
	root.PersistentFlags().StringVar(&topicBase, "topic-base", sr.BaseTopic, "MQTT topic base")
	root.PersistentFlags().StringVarP(&identity, "identity", "i", "", "controller identity")
	root.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 5*time.Second, "command timeout")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	root.PersistentFlags().BoolVarP(&jsonOut, "json", "j", false, "output json")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable color")
	root.PersistentFlags().StringVar(&tlsCA, "tls-ca", "", "TLS CA path")
	root.PersistentFlags().StringVar(&tlsCert, "tls-cert", "", "TLS cert path")
	root.PersistentFlags().StringVar(&tlsKey, "tls-key", "", "TLS key path")
	root.PersistentFlags().StringVar(&userOpt, "user", "", "MQTT username")
	root.PersistentFlags().StringVar(&passOpt, "pass", "", "MQTT password")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if noColor || jsonOut {
			pterm.DisableColor()
		}

		cfg, err := config.Load()
		if err != nil {
			return core.WrapError(core.ExitUsage, "load config", err)
		}
		identity = defaultIdentity(identity, cfg.Identity)
		if broker == "" {
			broker = cfg.Broker
		}
		if topicBase == sr.BaseTopic && cfg.TopicBase != "" {
			topicBase = cfg.TopicBase
		}
		if !cmd.Flags().Changed("timeout") && cfg.Timeout != "" {
			parsed, err := time.ParseDuration(cfg.Timeout)
			if err != nil {
				return core.WrapError(core.ExitUsage, "invalid config timeout", err)
			}
			timeout = parsed
		}
		if userOpt == "" {
			userOpt, passOpt = cfg.Auth.Username, cfg.Auth.Password
		}
		if tlsCA == "" && tlsCert == "" && tlsKey == "" {
			tlsCA, tlsCert, tlsKey = cfg.TLS.CA, cfg.TLS.Cert, cfg.TLS.Key
		}
		if broker == "" {
			return &core.CLIError{Code: core.ExitUsage, Msg: "broker is required (set --broker or config)"}
		}

		clientID := fmt.Sprintf("sr-%d", time.Now().UnixNano())
		mqttClient, err := mqtt.NewClient(mqtt.Options{
			BrokerURL: broker,
			ClientID:  clientID,
			Username:  userOpt,
			Password:  passOpt,
			TLSCA:     tlsCA,
			TLSCert:   tlsCert,
			TLSKey:    tlsKey,
			TopicBase: topicBase,
			Timeout:   timeout,
		})
		if err != nil {
			return core.WrapError(core.ExitRuntime, "connect broker", err)
		}

		coreCfg := core.Config{
			Broker:    broker,
			Identity:  identity,
			TopicBase: topicBase,
			Aliases:   cfg.Aliases,
			Defaults: core.Defaults{
				Bridge:   cfg.Defaults.Bridge,
				ClientID: cfg.Defaults.ClientID,
				Redirect: cfg.Defaults.Redirect,
			},
		}

		service := core.Service{
			Broker:   mqttClient,
			Resolver: core.Resolver{Presence: mqttClient, Config: coreCfg},
			Clock:    clock.Clock{},
			IDGen:    idgen.Generator{},
			Config:   coreCfg,
		}

		var printer output.Printer
		if jsonOut {
			printer = output.JSONPrinter{}
		} else {
			printer = output.HumanPrinter{}
		}

		cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, &app{
			service: service,
			printer: printer,
			quiet:   quiet,
			json:    jsonOut,
			timeout: timeout,
			close:   mqttClient.Close,
		}))
		return nil
	}
	root.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if app := fromContext(cmd); app != nil && app.close != nil {
			app.close()
		}
	}

	root.AddCommand(lsCommand())
	root.AddCommand(statusCommand())
	root.AddCommand(authorizeCommand())
	root.AddCommand(sessionCommand())
	root.AddCommand(endSessionCommand())
	root.AddCommand(connectCommand())
	root.AddCommand(connectWithoutAuthCommand())
	root.AddCommand(disconnectCommand())
	root.AddCommand(playCommand())
	root.AddCommand(playItemCommand())
	root.AddCommand(queueCommand())
	root.AddCommand(seekCommand())
	root.AddCommand(resumeCommand())
	root.AddCommand(pauseCommand())
	root.AddCommand(nextCommand())
	root.AddCommand(prevCommand())
	root.AddCommand(shuffleCommand())
	root.AddCommand(repeatCommand())
	root.AddCommand(stateCommand())
	root.AddCommand(crossfadeCommand())
	root.AddCommand(recommendedCommand())
	root.AddCommand(childrenCommand())
	root.AddCommand(rootItemsCommand())
	root.AddCommand(itemCommand())
	root.AddCommand(watchCommand())

	return root
}

type appKey struct{}

func fromContext(cmd *cobra.Command) *app {
	if cmd.Context() == nil {
		return nil
	}
	val := cmd.Context().Value(appKey{})
	if val == nil {
		return nil
	}
	return val.(*app)
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

// print renders a result unless quiet output was requested. Acks are
// only printed in json mode or when not quiet.
func (a *app) print(v any) error {
	if a.quiet && !a.json {
		return nil
	}
	return a.printer.Print(v)
}

func defaultIdentity(flagVal string, cfgVal string) string {
	if flagVal != "" {
		return flagVal
	}
	if cfgVal != "" {
		return cfgVal
	}
	usr, _ := user.Current()
	host, _ := os.Hostname()
	if usr != nil && host != "" {
		return fmt.Sprintf("%s@%s", usr.Username, host)
	}
	if host != "" {
		return host
	}
	return "sr-unknown"
}

// splitSelector separates an optional leading bridge selector from want
// trailing arguments.
func splitSelector(args []string, want int) (string, []string) {
	if len(args) > want {
		return args[0], args[1:]
	}
	return "", args
}

// parseItem accepts a JSON content item or a bare URI.
func parseItem(arg string) (map[string]any, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return nil, &core.CLIError{Code: core.ExitUsage, Msg: "item required"}
	}
	if strings.HasPrefix(arg, "{") {
		var item map[string]any
		if err := json.Unmarshal([]byte(arg), &item); err != nil {
			return nil, core.WrapError(core.ExitUsage, "invalid item json", err)
		}
		return item, nil
	}
	if !strings.HasPrefix(arg, "spotify:") {
		return nil, &core.CLIError{Code: core.ExitUsage, Msg: fmt.Sprintf("expected a spotify uri or item json, got %q", arg)}
	}
	return map[string]any{"id": arg, "uri": arg, "playable": true}, nil
}
