package main

import (
	"github.com/spf13/cobra"

	"github.com/vovakirdan/roomchat/internal/config"
	"github.com/vovakirdan/roomchat/internal/log"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "chat",
		Short:         "Multi-room chat server and client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(newListenCmd(opts), newConnectCmd(opts))
	return cmd
}

// load resolves configuration: defaults < file < env < flags.
func (o *rootOptions) load() (config.Config, error) {
	bootstrap := log.New("info")
	cfg, path, err := config.Load(bootstrap, o.configPath)
	if err != nil {
		return config.Config{}, err
	}
	cfg.UpdateFrom(config.Config{LogLevel: o.logLevel})
	bootstrap.Debug().Str("path", path).Msg("config loaded")
	return cfg, nil
}
