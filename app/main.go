package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/purplecheck/purple-check/app/api"
	"github.com/purplecheck/purple-check/app/cfg"
	"github.com/purplecheck/purple-check/app/classifier"
	"github.com/purplecheck/purple-check/app/config"
	"github.com/purplecheck/purple-check/app/database"
	"github.com/purplecheck/purple-check/app/fetcher"
	"github.com/purplecheck/purple-check/app/instagram"
	"github.com/purplecheck/purple-check/app/pipeline"
	"github.com/purplecheck/purple-check/app/reddit"
	"github.com/purplecheck/purple-check/app/tasks"
	"github.com/purplecheck/purple-check/app/transport"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Purple Check server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	loader := config.NewLoader(appCfg.ChannelsDir)
	channelConfigs, err := loader.LoadAll()
	if err != nil {
		slog.Error("Failed to load channel configurations", "dir", appCfg.ChannelsDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded channel configurations", "count", len(channelConfigs))

	channelRepo := database.NewChannelRepository(db)
	postRepo := database.NewPostRepository(db)
	feedbackRepo := database.NewFeedbackRepository(db)

	redditTransport := transport.NewClient(appCfg.UserAgent, appCfg.RedditCookie, 30*time.Second)
	redditClient := reddit.NewClient(redditTransport, appCfg.RedditBaseURL)
	channelFetcher := fetcher.NewFetcher(redditClient, channelRepo, postRepo)

	classifierTransport := transport.NewClient(appCfg.UserAgent, "", 60*time.Second)
	classifierClient := classifier.NewClient(appCfg.GeminiAPIKey, classifierTransport,
		classifier.WithModel(appCfg.GeminiModel),
		classifier.WithBaseURL(appCfg.GeminiBaseURL))

	webTransport := transport.NewClient(appCfg.UserAgent, "", 30*time.Second)
	profileChecker := instagram.NewChecker(webTransport, "")

	pipe := pipeline.NewPipeline(classifierClient, redditClient, profileChecker, postRepo, feedbackRepo)

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "interval", appCfg.SchedulerInterval)
	scheduler := tasks.NewScheduler(channelConfigs, channelFetcher, pipe, channelRepo)
	scheduler.Start()
	defer scheduler.Stop()

	apiHandler := api.NewHandler(channelConfigs, channelRepo, postRepo, feedbackRepo, channelFetcher, scheduler)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}
