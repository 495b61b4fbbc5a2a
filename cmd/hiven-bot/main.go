// hiven-bot is a minimal bot that prints gateway events and answers pings.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/luciancaetano/hiven/client"
	"github.com/luciancaetano/hiven/internal/config"
)

func main() {
	configPath := flag.String("config", "hiven-bot.toml", "path to the TOML or YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "hiven-bot: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Logging, os.Stderr)
	if err != nil {
		return err
	}
	color.NoColor = color.NoColor || !cfg.Bot.Color

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.New(cfg.Token,
		client.WithAPIHost(cfg.API.Host),
		client.WithGatewayHost(cfg.Gateway.Host),
		client.WithQueueSize(cfg.Gateway.QueueSize),
		client.WithLogger(logger),
	)

	me, err := c.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("checking token: %w", err)
	}
	logger.Info("logged in", "user", me.Username, "user_id", me.ID)

	b := newBot(me.ID, cfg.Bot.CommandPrefix, color.Output, logger)
	err = c.Start(ctx, b)
	if errors.Is(err, context.Canceled) {
		logger.Info("shutting down")
		return nil
	}
	return err
}

func newLogger(cfg config.LoggingConfig, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
