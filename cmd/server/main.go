// Package main is the entry point for the FundLens ETF exposure
// aggregation server. The application fronts the rate-limited Alpha
// Vantage API with a persistent time-bounded cache and serves a
// consolidated view of true underlying exposure across the investor's
// ETF positions.
//
// Startup sequence:
//  1. Load configuration from environment variables (.env honored)
//  2. Initialize structured logging
//  3. Open and migrate the portfolio and cache databases
//  4. Wire services explicitly (no DI container at this size)
//  5. Rehydrate persisted positions from the profile cache
//  6. Start the scheduler (cache cleanup, daily snapshot, backup)
//  7. Start the HTTP server and wait for a shutdown signal
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fundlens/internal/backup"
	"github.com/aristath/fundlens/internal/clientdata"
	"github.com/aristath/fundlens/internal/clients/alphavantage"
	"github.com/aristath/fundlens/internal/config"
	"github.com/aristath/fundlens/internal/database"
	"github.com/aristath/fundlens/internal/events"
	"github.com/aristath/fundlens/internal/modules/portfolio"
	"github.com/aristath/fundlens/internal/modules/snapshots"
	"github.com/aristath/fundlens/internal/scheduler"
	"github.com/aristath/fundlens/internal/server"
	"github.com/aristath/fundlens/pkg/logger"
)

const (
	// Cron schedules, interpreted in UTC by the scheduler.
	cleanupSchedule  = "30 3 * * *"  // daily cache cleanup
	snapshotSchedule = "30 21 * * *" // daily, after US market close
	backupSchedule   = "0 4 * * *"   // daily backup, after cleanup
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting FundLens")

	if cfg.AlphaVantageAPIKey == "" {
		log.Warn().Msg("ALPHAVANTAGE_API_KEY not set, profile fetches will fail")
	}

	// Databases. Portfolio data is durable; the cache profile trades
	// fsync guarantees for speed since every entry can be refetched.
	portfolioDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath("portfolio.db"),
		Profile: database.ProfileStandard,
		Name:    "portfolio",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open portfolio database")
	}
	defer portfolioDB.Close()

	cacheDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath("cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	if err := portfolioDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate portfolio database")
	}
	if err := cacheDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate cache database")
	}

	// Services, wired explicitly.
	bus := events.NewBus(log)
	cacheRepo := clientdata.NewRepository(cacheDB.Conn())
	avClient := alphavantage.NewClient(cfg.AlphaVantageAPIKey, log)

	profileService := portfolio.NewProfileService(
		avClient, cacheRepo, cfg.ProfileCacheTTL, cfg.SearchDelay, log,
	)
	positionRepo := portfolio.NewPositionRepository(portfolioDB.Conn())
	portfolioService := portfolio.NewService(positionRepo, profileService, bus, log)

	snapshotRepo := snapshots.NewRepository(portfolioDB.Conn())
	snapshotService := snapshots.NewService(portfolioService, snapshotRepo, bus, log)

	// Persisted positions re-resolve in the background; the cache makes
	// this free unless entries expired while the server was down.
	if err := portfolioService.Rehydrate(); err != nil {
		log.Error().Err(err).Msg("Failed to rehydrate positions")
	}

	// Background jobs.
	sched := scheduler.New(log)
	registerJob(sched, cleanupSchedule, clientdata.NewCleanupJob(cacheRepo, log), log)
	registerJob(sched, snapshotSchedule, snapshots.NewJob(snapshotService), log)

	if cfg.S3Bucket != "" {
		uploader := backup.NewUploader(backup.Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		}, cfg.DataDir, log)
		registerJob(sched, backupSchedule, uploader, log)
	} else {
		log.Info().Msg("BACKUP_S3_BUCKET not set, backups disabled")
	}

	sched.Start()

	// Daily provider budget resets at midnight UTC.
	resetJob := &counterResetJob{client: avClient}
	registerJob(sched, "0 0 * * *", resetJob, log)

	srv := server.New(server.Config{
		Log:         log,
		Port:        cfg.Port,
		DevMode:     cfg.DevMode,
		DataDir:     cfg.DataDir,
		PortfolioDB: portfolioDB,
		CacheDB:     cacheDB,
		Portfolio:   portfolioService,
		Snapshots:   snapshotService,
		CacheRepo:   cacheRepo,
		Provider:    avClient,
		EventBus:    bus,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Forced shutdown")
	}

	log.Info().Msg("Stopped")
}

// registerJob schedules a job, treating failure to register as fatal:
// a misconfigured schedule is a programming error.
func registerJob(sched *scheduler.Scheduler, spec string, job scheduler.Job, log zerolog.Logger) {
	if err := sched.Register(spec, job); err != nil {
		log.Fatal().Err(err).Str("job", job.Name()).Msg("Failed to schedule job")
	}
}

// counterResetJob resets the provider's local daily request counter.
type counterResetJob struct {
	client *alphavantage.Client
}

func (j *counterResetJob) Run() error {
	j.client.ResetDailyCounter()
	return nil
}

func (j *counterResetJob) Name() string { return "request_counter_reset" }
