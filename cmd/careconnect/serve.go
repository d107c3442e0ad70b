package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tavonga/careconnect/internal/api"
	"github.com/tavonga/careconnect/internal/config"
	"github.com/tavonga/careconnect/internal/notify"
	"github.com/tavonga/careconnect/internal/reminder"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the CareConnect API server",
		Long: `Starts the HTTP API server. When reminders are enabled in config, also
runs the reminder delivery loop in the background.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "careconnect.yaml", "path to CareConnect config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if port == 0 {
		port = cfg.Server.Port
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	if cfg.Reminders.Enabled {
		notifiers, err := buildNotifiers(cfg)
		if err != nil {
			return err
		}
		runner := &reminder.Runner{
			DB:        gormDB,
			Notifiers: notifiers,
			PollCron:  cfg.Reminders.PollCron,
		}
		go func() {
			if err := runner.Run(ctx); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "reminder loop stopped: %v\n", err)
			}
		}()
		names := make([]string, len(notifiers))
		for i, n := range notifiers {
			names[i] = n.Name()
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reminders enabled via %v (cron %q)\n", names, cfg.Reminders.PollCron)
	}

	return api.Start(ctx, api.StartOpts{
		DB:   gormDB,
		Port: port,
		Out:  cmd.OutOrStdout(),
	})
}

// buildNotifiers constructs the delivery channels configured for reminders.
func buildNotifiers(cfg *config.Config) ([]notify.Notifier, error) {
	var notifiers []notify.Notifier
	if cfg.Reminders.Slack.BotToken != "" {
		n, err := notify.NewSlack(notify.SlackOpts{
			BotToken:  cfg.Reminders.Slack.BotToken,
			ChannelID: cfg.Reminders.Slack.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, n)
	}
	if cfg.Reminders.Discord.BotToken != "" {
		n, err := notify.NewDiscord(notify.DiscordOpts{
			BotToken:  cfg.Reminders.Discord.BotToken,
			ChannelID: cfg.Reminders.Discord.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, n)
	}
	return notifiers, nil
}
