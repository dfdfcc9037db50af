package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"QuoteTrack/internal/collector"
	"QuoteTrack/internal/config"
	"QuoteTrack/internal/emitter"
	"QuoteTrack/internal/logger"
	"QuoteTrack/internal/model"
	"QuoteTrack/internal/recorder"
	"QuoteTrack/internal/scheduler"
	"QuoteTrack/internal/tracker"
)

var dateLayouts = []string{"2006-01-02", time.RFC3339}

func main() {
	logger.Init()

	cmd := &cli.Command{
		Name:  "quotetrack",
		Usage: "Track rolling price statistics for a set of symbols",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config file",
				Value:   "configs/config.yaml",
				Sources: cli.EnvVars("CONFIG_PATH"),
			},
			&cli.StringFlag{
				Name:    "symbols",
				Aliases: []string{"s"},
				Usage:   "Comma-separated ticker symbols",
			},
			&cli.TimestampFlag{
				Name:    "from",
				Aliases: []string{"f"},
				Usage:   "Start of the tracked period in `YYYY-MM-DD` format (or RFC3339)",
				Config: cli.TimestampConfig{
					Layouts: dateLayouts,
				},
			},
			&cli.IntFlag{
				Name:  "window",
				Usage: "Trailing moving-average window in bars",
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "Maximum simultaneous fetches",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: text, csv or webhook",
			},
			&cli.StringFlag{
				Name:  "webhook",
				Usage: "Webhook endpoint for the webhook format",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "SQLite path for run recording (empty disables)",
			},
		},
		Action: runOnce,
		Commands: []*cli.Command{
			{
				Name:  "watch",
				Usage: "Run tracking passes on a cron schedule",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "cron",
						Usage: "Cron expression for the refresh schedule",
					},
				},
				Action: runWatch,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.L().Fatal().Err(err).Msg("quotetrack failed")
	}
}

// runOnce executes a single tracking pass and exits.
func runOnce(ctx context.Context, cmd *cli.Command) error {
	cfg, symbols, since, err := resolve(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tr, cleanup, err := buildTracker(ctx, cfg, since)
	if err != nil {
		return err
	}
	defer cleanup()

	return tr.Run(ctx, symbols, since)
}

// runWatch keeps executing tracking passes on the configured schedule
// until interrupted. The first pass runs immediately.
func runWatch(ctx context.Context, cmd *cli.Command) error {
	cfg, symbols, since, err := resolve(cmd)
	if err != nil {
		return err
	}
	if v := cmd.String("cron"); v != "" {
		cfg.Schedule.RefreshCron = v
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tr, cleanup, err := buildTracker(ctx, cfg, since)
	if err != nil {
		return err
	}
	defer cleanup()

	sched := scheduler.New()
	if err := sched.Register(cfg.Schedule.RefreshCron, func() {
		if err := tr.Run(ctx, symbols, since); err != nil {
			logger.L().Error().Err(err).Msg("scheduled pass failed")
		}
	}); err != nil {
		return err
	}

	sched.RunNow()
	sched.Start()
	defer sched.Stop()
	logger.L().Info().Str("schedule", cfg.Schedule.RefreshCron).Msg("watching")

	<-ctx.Done()
	logger.L().Info().Msg("shutdown signal received, stopping")
	return nil
}

// resolve loads the config file and layers CLI flag overrides on top.
func resolve(cmd *cli.Command) (*config.Config, []model.Symbol, time.Time, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, nil, time.Time{}, err
	}
	if v := cmd.String("symbols"); v != "" {
		cfg.Symbols = v
	}
	if v := cmd.Int("window"); v != 0 {
		cfg.Window = int(v)
	}
	if v := cmd.Int("concurrency"); v != 0 {
		cfg.Concurrency = int(v)
	}
	if v := cmd.String("format"); v != "" {
		cfg.Output.Format = v
	}
	if v := cmd.String("webhook"); v != "" {
		cfg.Output.WebhookURL = v
	}
	if v := cmd.String("db"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := cmd.Timestamp("from"); !v.IsZero() {
		cfg.From = v.Format(time.RFC3339)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, time.Time{}, fmt.Errorf("config validation: %w", err)
	}

	symbols := model.ParseSymbolList(cfg.Symbols)
	if len(symbols) == 0 {
		return nil, nil, time.Time{}, fmt.Errorf("no symbols to track")
	}

	since, err := parseSince(cfg.From)
	if err != nil {
		return nil, nil, time.Time{}, err
	}
	return cfg, symbols, since, nil
}

// parseSince interprets the period start; empty means 6 months back.
func parseSince(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC().AddDate(0, -6, 0), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable period start %q", raw)
}

// buildTracker wires fetcher, pool, emitter and recorder from config.
// cleanup flushes and closes whatever was opened.
func buildTracker(ctx context.Context, cfg *config.Config, since time.Time) (*tracker.Tracker, func(), error) {
	var fetcher collector.Fetcher
	if cfg.DataSource.BaseURL != "" {
		fetcher = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	} else {
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	logger.L().Info().Str("source", fetcher.Name()).Msg("data source ready")

	var em emitter.Emitter
	switch cfg.Output.Format {
	case "csv":
		em = emitter.NewCSVEmitter(os.Stdout, since)
	case "webhook":
		em = emitter.NewWebhookEmitter(ctx, cfg.Output.WebhookURL, cfg.Proxy)
	default:
		em = emitter.NewTextEmitter(os.Stdout, since)
	}

	var rec recorder.Recorder = recorder.NoopRecorder{}
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			logger.L().Warn().Err(err).Msg("sqlite recorder unavailable, persistence disabled")
		} else {
			rec = sr
		}
	}

	cleanup := func() {
		if err := em.Close(); err != nil {
			logger.L().Error().Err(err).Msg("close emitter")
		}
		if err := rec.Close(); err != nil {
			logger.L().Error().Err(err).Msg("close recorder")
		}
	}

	pool := collector.NewPool(fetcher, cfg.Concurrency)
	return tracker.New(pool, cfg.Window, em, rec), cleanup, nil
}
