package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"

	"github.com/catuhana/YuriEveryHour-bot/bot"
	"github.com/catuhana/YuriEveryHour-bot/config"
	"github.com/catuhana/YuriEveryHour-bot/db"
	"github.com/catuhana/YuriEveryHour-bot/metrics"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	app := cli.App{
		Name:  "yuri-bot",
		Usage: "community Yuri submission and approval bot",
	}
	app.Commands = []*cli.Command{
		startCmd,
	}
	return app.Run(args)
}

var startCmd = &cli.Command{
	Name:  "start",
	Usage: "start the bot",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "config",
			Usage:    "path to the configuration file",
			EnvVars:  []string{"YURI_CONFIG"},
			Required: true,
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "address to serve /metrics on; empty disables",
			EnvVars: []string{"YURI_METRICS_LISTEN"},
		},
		&cli.IntFlag{
			Name:    "max-db-connections",
			EnvVars: []string{"YURI_MAX_DB_CONNECTIONS"},
			Value:   20,
		},
	},
	Action: func(cctx *cli.Context) error {
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		slog.SetDefault(logger)

		cfg, err := config.Load(cctx.String("config"))
		if err != nil {
			return err
		}

		database, err := db.Open(cfg.Database.URL, cctx.Int("max-db-connections"))
		if err != nil {
			return err
		}
		if err := db.Migrate(database); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			if err := metrics.RunServer(ctx, cctx.String("metrics-listen")); err != nil {
				logger.Error("metrics server failed", "err", err)
			}
		}()

		yuriBot, err := bot.New(cfg, database, logger)
		if err != nil {
			return err
		}
		return yuriBot.Run(ctx)
	},
}
