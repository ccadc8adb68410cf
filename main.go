package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	handler "moviefinder-tg-bot/api"
	"moviefinder-tg-bot/internal/catalog"
	"moviefinder-tg-bot/internal/config"
	"moviefinder-tg-bot/internal/search"
	"moviefinder-tg-bot/internal/tg"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	db, err := catalog.NewMongo(ctx, cfg.MongoURI)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("mongo")
	}

	engine := search.New(db, search.Options{
		ResultLimit:  cfg.ResultLimit,
		BroadLimit:   cfg.BroadLimit,
		ScoreCutoff:  cfg.ScoreCutoff,
		MatchWorkers: cfg.MatchWorkers,
		Languages:    cfg.Languages,
		Logger:       logger,
	})

	bot := tg.NewClient(cfg.BotToken)
	app := handler.New(cfg, bot, db, engine, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/", app.Health)
	mux.HandleFunc("/api/webhook", app.Webhook)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Port).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	_ = db.Close(shutdownCtx)
	logger.Info().Msg("server stopped")
}
