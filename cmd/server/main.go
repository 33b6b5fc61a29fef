package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"personmatch/internal/match/events"
	"personmatch/internal/match/metrics"
	"personmatch/internal/names"
	"personmatch/internal/normalize"
	"personmatch/internal/platform/config"
	"personmatch/internal/platform/httpserver"
	"personmatch/internal/platform/logger"
	"personmatch/internal/platform/redis"
	"personmatch/internal/probability"
	"personmatch/internal/search"
	"personmatch/internal/service"
	httptransport "personmatch/internal/transport/http"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "personmatch: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	srvCfg, matchCfg := config.FromEnv()
	if err := matchCfg.Validate(); err != nil {
		return err
	}
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", srvCfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	defer db.Close()

	stats := names.New(names.NewPostgresStore(db))
	if err := stats.Load(ctx); err != nil {
		return fmt.Errorf("load name statistics: %w", err)
	}
	log.Info("name statistics loaded")

	var engineOpts []probability.Option
	if srvCfg.RedisURL != "" {
		rdb, err := redis.New(ctx, srvCfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()
		engineOpts = append(engineOpts,
			probability.WithCache(probability.NewRedisCache(rdb.Client, 24*time.Hour, log)))
		log.Info("combination cache on redis")
	}

	engine, err := probability.New(ctx, matchCfg, stats.Store(), engineOpts...)
	if err != nil {
		return fmt.Errorf("build probability engine: %w", err)
	}

	var phone normalize.PhoneClient
	if srvCfg.PhoneURL != "" {
		phone = normalize.NewHTTPPhoneClient(srvCfg.PhoneURL, matchCfg.ValidationTimeout)
	}
	var email normalize.EmailClient
	if srvCfg.EmailURL != "" {
		email = normalize.NewHTTPEmailClient(srvCfg.EmailURL, matchCfg.ValidationTimeout)
	}
	normalizer := normalize.New(stats, phone, email, matchCfg, log)

	publisher, err := events.New(srvCfg.KafkaBrokers, srvCfg.KafkaTopic, log)
	if err != nil {
		return fmt.Errorf("connect kafka: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		publisher.Close(closeCtx)
	}()

	matcher := service.New(
		normalizer,
		engine,
		search.NewHTTPClient(srvCfg.SearchURL, srvCfg.SearchIndex),
		matchCfg,
		log,
		service.WithMetrics(metrics.New()),
		service.WithEvents(publisher),
	)

	handler := httptransport.New(matcher, log)
	srv := httpserver.New(srvCfg.Addr, handler.Router())

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srvCfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
