package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/chatship/internal/cliconfig"
	"github.com/bft-labs/chatship/pkg/chatship"
	"github.com/bft-labs/chatship/pkg/log"
)

const helpDescription = `
Deliver text notifications to Matrix rooms and Mattermost channels.

Highlights:
  - Coalesces bursts into batched posts so chat stays readable.
  - Honours provider rate limits and retries transient failures.
  - Configure via file, env (CHATSHIP_*, .env), or flags.
`

var exampleUsage = strings.TrimSpace(`
  chatship send --webhook-url https://chat.example.org/hooks/abc "deploy finished"
  tail -n 20 build.log | chatship send --home-server mybot --room-id '!abc:example.org'
  chatship watch --file /var/log/deploy.log --metrics-addr :9102
  chatship login --home-server matrix.example.org --user bot --password ...
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// app carries state shared by the subcommands.
type app struct {
	cfg     cliconfig.Config
	cfgPath string
	envPath string
	log     zerolog.Logger
}

func main() {
	a := &app{
		cfg: cliconfig.DefaultConfig(),
		log: log.NewConsoleLogger(os.Stderr, zerolog.InfoLevel),
	}

	root := &cobra.Command{
		Use:           "chatship",
		Short:         "Deliver batched notifications to chat backends",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig(cmd)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.cfgPath, "config", "", "path to config file (default: $HOME/.chatship/config.toml)")
	f.StringVar(&a.envPath, "env-file", ".env", "dotenv file loaded before reading CHATSHIP_* variables")
	f.StringVar(&a.cfg.Provider, "provider", a.cfg.Provider, "chat provider: matrix or mattermost (inferred when omitted)")

	f.StringVar(&a.cfg.HomeServer, "home-server", a.cfg.HomeServer, "Matrix home server URL or EMS name")
	f.StringVar(&a.cfg.RoomID, "room-id", a.cfg.RoomID, "Matrix room id")
	f.StringVar(&a.cfg.AccessToken, "access-token", a.cfg.AccessToken, "Matrix access token")
	f.StringVar(&a.cfg.User, "user", a.cfg.User, "Matrix user for password login")
	f.StringVar(&a.cfg.Password, "password", a.cfg.Password, "Matrix password for password login")

	f.StringVar(&a.cfg.WebhookURL, "webhook-url", a.cfg.WebhookURL, "Mattermost incoming webhook URL")
	f.StringVar(&a.cfg.Username, "username", a.cfg.Username, "Mattermost post author name")
	f.StringVar(&a.cfg.IconURL, "icon-url", a.cfg.IconURL, "Mattermost post icon URL")

	f.IntVar(&a.cfg.MaxBatch, "max-batch", a.cfg.MaxBatch, "messages per batch that force a flush")
	f.IntVar(&a.cfg.MaxRetries, "max-retries", a.cfg.MaxRetries, "failed attempts before a batch is discarded")
	f.DurationVar(&a.cfg.FlushInterval, "flush-interval", a.cfg.FlushInterval, "maximum time a partial batch waits")
	f.DurationVar(&a.cfg.SendTimeout, "send-timeout", a.cfg.SendTimeout, "timeout of a single delivery attempt")
	f.DurationVar(&a.cfg.DrainTimeout, "drain-timeout", a.cfg.DrainTimeout, "time allowed to flush pending messages on exit")
	f.DurationVar(&a.cfg.HTTPTimeout, "timeout", a.cfg.HTTPTimeout, "HTTP timeout")
	f.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "log level: debug, info, warn, error")

	root.AddCommand(a.sendCommand(), a.watchCommand(), a.loginCommand())

	if err := root.Execute(); err != nil {
		a.log.Error().Err(err).Msg("chatship")
		os.Exit(1)
	}
}

// loadConfig layers file, environment and flags, in increasing precedence.
func (a *app) loadConfig(cmd *cobra.Command) error {
	cfgFile := a.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&a.cfg, fc, changed); err != nil {
			return err
		}
	}

	if err := cliconfig.LoadDotEnv(a.envPath); err != nil {
		return err
	}
	if err := cliconfig.ApplyEnvConfig(&a.cfg, changed); err != nil {
		return err
	}

	level, err := log.ParseLevel(a.cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	a.log = log.NewConsoleLogger(os.Stderr, level)
	return nil
}

// newClient validates the configuration and creates a client for the
// configured provider.
func (a *app) newClient(ctx context.Context, opts ...chatship.Option) (*chatship.Client, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	a.log.Debug().Interface("config", a.cfg.Masked()).Msg("configuration")

	opts = append([]chatship.Option{
		chatship.WithLogger(log.NewZerologAdapterWithLogger(a.log)),
	}, opts...)

	return a.cfg.NewClient(ctx, opts...)
}
