// Package main is the entry point for the stock dashboard backend. The
// service fetches quotes and price history from the market data provider,
// backtests hypothetical portfolios, and serves the dashboard API.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aristath/stockdash/internal/config"
	"github.com/aristath/stockdash/internal/database"
	"github.com/aristath/stockdash/internal/jobs"
	"github.com/aristath/stockdash/internal/marketdata"
	"github.com/aristath/stockdash/internal/marketdata/yahoo"
	"github.com/aristath/stockdash/internal/modules/market"
	"github.com/aristath/stockdash/internal/modules/performance"
	"github.com/aristath/stockdash/internal/modules/scenarios"
	"github.com/aristath/stockdash/internal/modules/screener"
	"github.com/aristath/stockdash/internal/server"
	"github.com/aristath/stockdash/pkg/logger"
)

// snapshotRetention bounds how long stale quote snapshots are kept for
// provider-outage fallback.
const snapshotRetention = 7 * 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting stockdash")

	// Two databases: scenarios are durable user data, the snapshot cache is
	// ephemeral and tuned for churn.
	scenariosDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "scenarios.db"),
		Profile: database.ProfileStandard,
		Name:    "scenarios",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open scenarios database")
	}
	defer scenariosDB.Close()

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	if err := scenariosDB.Migrate(scenarios.Schema); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate scenarios database")
	}
	if err := cacheDB.Migrate(marketdata.SnapshotSchema); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate cache database")
	}

	// Provider chain: Yahoo client behind the bounded TTL cache.
	yahooClient := yahoo.NewClient(cfg.ProviderBaseURL, cfg.ProviderTimeout, log)
	provider := marketdata.NewCachedProvider(yahooClient, cfg.CacheTTL, cfg.CacheMaxEntries, log)
	snapshots := marketdata.NewSnapshotStore(cacheDB.Conn(), log)

	// Services
	marketService := market.NewService(provider, snapshots, log)
	analyzer := performance.NewService(provider, cfg.ProviderTimeout, log)
	screenerService := screener.NewService(provider, log)
	scenarioRepo := scenarios.NewRepository(scenariosDB.Conn(), log)
	scenarioService := scenarios.NewService(scenarioRepo, provider, log)

	srv := server.New(server.Config{
		Log:             log,
		Config:          cfg,
		ScenariosDB:     scenariosDB,
		CacheDB:         cacheDB,
		Provider:        provider,
		MarketService:   marketService,
		ScenarioService: scenarioService,
		ScreenerService: screenerService,
		Analyzer:        analyzer,
	})

	// Background jobs: keep the overview warm, prune stale snapshots.
	scheduler := jobs.New(log)
	refreshJob := jobs.NewRefreshOverviewJob(marketService, cfg.ProviderTimeout*4, log)
	if err := scheduler.AddJob(cfg.RefreshSchedule, refreshJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register overview refresh job")
	}
	cleanupJob := jobs.NewCleanupSnapshotsJob(snapshots, snapshotRetention, log)
	if err := scheduler.AddJob("@daily", cleanupJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register snapshot cleanup job")
	}
	scheduler.Start()

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
