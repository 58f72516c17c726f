package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"vidmill/internal/application/convert"
	"vidmill/internal/application/reaper"
	"vidmill/internal/application/session"
	"vidmill/internal/config"
	"vidmill/internal/infrastructure/fetch"
	"vidmill/internal/infrastructure/ffmpeg"
	"vidmill/internal/infrastructure/filesystem"
	"vidmill/internal/logger"
	httptransport "vidmill/internal/transport/http"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	store := filesystem.NewStore(cfg.DownloadDir, cfg.ConvertedDir)
	if err := store.EnsureDirs(); err != nil {
		log.Error("storage init failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	transcoder := ffmpeg.NewTranscoder()
	checkCtx, checkCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := transcoder.Available(checkCtx); err != nil {
		checkCancel()
		log.Error("ffmpeg check failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	checkCancel()

	table := session.NewTable()
	fetcher := fetch.NewHTTPFetcher(int64(cfg.MaxSourceMB) * 1024 * 1024)
	jobs := convert.NewService(table, store, fetcher, transcoder, transcoder, log, convert.Config{
		FetchTimeout:   cfg.FetchTimeout,
		ConvertTimeout: cfg.ConvertTimeout,
		CancelGrace:    cfg.CancelGrace,
		Concurrency:    cfg.ConvertConcurrency,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reap := reaper.New(table, jobs, store, cfg.RetentionWindow, cfg.ReapInterval, log)
	go reap.Run(ctx)

	handler := httptransport.NewHandler(jobs, reap, log)
	router := httptransport.NewRouter(handler)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
	})

	server := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: c.Handler(router),
	}

	go func() {
		log.Info("server started",
			slog.String("addr", cfg.ServerAddr),
			slog.Duration("retention_window", cfg.RetentionWindow),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}
