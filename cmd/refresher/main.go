// Command refresher re-fetches platform statistics for every tracked video,
// either once or on a cron schedule. With -once a failed run exits with
// status 1.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/filmchain/track-shorts/internal/app"
	"github.com/filmchain/track-shorts/internal/config"
	"github.com/filmchain/track-shorts/internal/logger"
	"github.com/filmchain/track-shorts/internal/services"
)

const (
	exitOK     = 0
	exitFailed = 1
)

type refreshJob interface {
	Run(ctx context.Context) (services.RefreshReport, error)
}

func main() {
	os.Exit(realMain())
}

func realMain() int {
	once := flag.Bool("once", false, "run a single refresh and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Print("Failed to load config: ", err)
		return exitFailed
	}

	zapLogger := logger.New(cfg.LogLevel, cfg.LogFormat).Named("refresher")
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := app.NewApplication(ctx, cfg, zapLogger)
	if err != nil {
		zapLogger.Error("Failed to start refresher", zap.Error(err))
		return exitFailed
	}
	defer app.Close()

	if *once {
		return runOnce(ctx, app.Refresher, zapLogger)
	}

	c := cron.New(cron.WithLogger(cron.DiscardLogger), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(cfg.RefreshSchedule, func() {
		if _, err := run(ctx, app.Refresher, zapLogger); err != nil {
			zapLogger.Error("Refresh failed", zap.Error(err))
		}
	}); err != nil {
		zapLogger.Error("Invalid refresh schedule", zap.String("schedule", cfg.RefreshSchedule), zap.Error(err))
		return exitFailed
	}

	zapLogger.Info("Refresher scheduled", zap.String("schedule", cfg.RefreshSchedule))
	c.Start()

	<-ctx.Done()
	zapLogger.Info("Stopping refresher")
	<-c.Stop().Done()
	return exitOK
}

// runOnce performs a single refresh and returns the process exit code.
func runOnce(ctx context.Context, job refreshJob, logger *zap.Logger) int {
	if _, err := run(ctx, job, logger); err != nil {
		logger.Error("Refresh failed", zap.Error(err))
		return exitFailed
	}
	return exitOK
}

func run(ctx context.Context, job refreshJob, logger *zap.Logger) (services.RefreshReport, error) {
	report, err := job.Run(ctx)
	if err != nil {
		return report, err
	}
	if report.Skipped {
		logger.Info("Refresh skipped, another run holds the lock")
		return report, nil
	}
	logger.Info("Refresh finished",
		zap.Int("total", report.Total),
		zap.Int("batches", report.Batches),
		zap.Int("updated", report.Updated),
		zap.Int("missing", report.Missing),
	)
	return report, nil
}
