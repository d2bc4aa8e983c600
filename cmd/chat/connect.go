package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/roomchat/internal/client"
	"github.com/vovakirdan/roomchat/internal/log"
	"github.com/vovakirdan/roomchat/internal/social"
)

func newConnectCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "connect <host> <port>",
		Short: "Connect to a chat server and open the interactive menu",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if _, err := strconv.Atoi(args[1]); err != nil {
				return fmt.Errorf("invalid port %q", args[1])
			}
			logger := log.NewWithWriter(os.Stderr, cfg.LogLevel)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			chat, err := client.Dial(ctx, net.JoinHostPort(args[0], args[1]),
				client.WithMaxFrameBytes(cfg.MaxFrameBytes),
				client.WithPushBuffer(cfg.SendBuffer),
				client.WithDialTimeout(cfg.WriteTimeout),
			)
			if err != nil {
				return err
			}
			defer chat.Close()

			var api *social.Client
			if cfg.Social.Enabled() {
				api, err = social.NewClient(social.Config{
					BaseURL:        cfg.Social.BaseURL,
					ConsumerKey:    cfg.Social.ConsumerKey,
					ConsumerSecret: cfg.Social.ConsumerSecret,
					AccessToken:    cfg.Social.AccessToken,
					AccessSecret:   cfg.Social.AccessSecret,
					Timeout:        cfg.Social.Timeout,
					MaxAttempts:    cfg.Social.MaxAttempts,
					Logger:         logger,
				})
				if err != nil {
					return err
				}
				if acct, err := api.VerifyCredentials(ctx); err != nil {
					logger.Warn().Err(err).Msg("social credentials rejected, T options disabled")
					api = nil
				} else {
					logger.Info().Str("screen_name", acct.ScreenName).Msg("social account verified")
				}
			}

			m := newMenu(os.Stdin, cmd.OutOrStdout(), chat, api)
			return m.run(ctx)
		},
	}
}
