package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/DaveMcBlame1/chatroom/internal/config"
	chatlog "github.com/DaveMcBlame1/chatroom/internal/log"
)

type rootOptions struct {
	configPath string
	overrides  config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "chatroom",
		Short:        "Single-room real-time chat server",
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config.yaml (default $CHATROOM_CONFIG_DEFAULT_PATH or ./config.yaml)")
	flags.StringVar(&opts.overrides.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&opts.overrides.LogFormat, "log-format", "", "log format: console, json")
	flags.StringVar(&opts.overrides.StoreDriver, "store", "", "storage driver: sqlite, badger, memory")
	flags.StringVar(&opts.overrides.DatabasePath, "db", "", "sqlite database path")
	flags.StringVar(&opts.overrides.RedisAddr, "redis-addr", "", "redis address for the shared ban list")

	cmd.AddCommand(newServeCmd(opts), newBansCmd(opts))
	return cmd
}

// load resolves configuration: defaults < file < env < flags.
func (o *rootOptions) load() (config.Config, *zerolog.Logger, error) {
	bootLog := chatlog.New("info", chatlog.FormatConsole)

	cfg, path, err := config.Load(bootLog, o.configPath)
	if err != nil {
		return cfg, bootLog, err
	}
	cfg.UpdateFrom(o.overrides)
	if err := cfg.Validate(); err != nil {
		return cfg, bootLog, err
	}

	logger := chatlog.New(cfg.LogLevel, cfg.LogFormat)
	logger.Debug().Str("config", path).Msg("configuration loaded")
	return cfg, logger, nil
}
