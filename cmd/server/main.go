package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scermak/theportfolio/internal/clients/yahoo"
	"github.com/scermak/theportfolio/internal/config"
	"github.com/scermak/theportfolio/internal/database"
	"github.com/scermak/theportfolio/internal/modules/accounting"
	"github.com/scermak/theportfolio/internal/modules/analysis"
	"github.com/scermak/theportfolio/internal/modules/dividends"
	"github.com/scermak/theportfolio/internal/modules/importer"
	"github.com/scermak/theportfolio/internal/modules/ledger"
	"github.com/scermak/theportfolio/internal/modules/news"
	"github.com/scermak/theportfolio/internal/modules/portfolio"
	"github.com/scermak/theportfolio/internal/modules/securities"
	"github.com/scermak/theportfolio/internal/scheduler"
	"github.com/scermak/theportfolio/internal/server"
	"github.com/scermak/theportfolio/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting portfolio server")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Repositories
	lotRepo := ledger.NewLotRepository(db.Conn(), log)
	historyRepo := ledger.NewHistoryRepository(db.Conn(), log)
	tickerRepo := ledger.NewTickerRepository(db.Conn(), log)
	dividendRepo := dividends.NewRepository(db.Conn(), log)
	analysisRepo := analysis.NewRepository(db.Conn(), log)

	// Clients and services
	marketClient := yahoo.NewClient(cfg.BaseCurrency, log)
	newsService := news.NewService(cfg.RSSFeeds, log)

	engine := accounting.NewEngine(db, lotRepo, historyRepo, log)
	securitiesService := securities.NewService(tickerRepo, marketClient, log)
	portfolioService := portfolio.NewService(lotRepo, historyRepo, tickerRepo, marketClient, log)
	dividendService := dividends.NewService(dividendRepo, marketClient, securitiesService, log)
	analysisService := analysis.NewService(
		analysisRepo, lotRepo, tickerRepo, marketClient, newsService,
		cfg.GeminiAPIKey, cfg.GeminiModel, log,
	)
	importService := importer.NewService(engine, securitiesService, log)

	// Scheduler and background jobs
	sched := scheduler.New(log)
	quoteRefresh := scheduler.NewQuoteRefreshJob(lotRepo, marketClient, log)
	schedule := fmt.Sprintf("@every %dm", cfg.QuoteRefreshMinutes)
	if err := sched.AddJob(schedule, quoteRefresh); err != nil {
		log.Fatal().Err(err).Msg("Failed to register quote refresh job")
	}
	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Port:    cfg.Port,
		DevMode: cfg.DevMode,
		Log:     log,
		DB:      db,
		Handlers: server.Handlers{
			Trades:     accounting.NewHandler(engine, securitiesService, log),
			Portfolio:  portfolio.NewHandler(portfolioService, log),
			Securities: securities.NewHandler(securitiesService, log),
			Dividends:  dividends.NewHandler(dividendService, log),
			Analysis:   analysis.NewHandler(analysisService, log),
			Importer:   importer.NewHandler(importService, log),
		},
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
