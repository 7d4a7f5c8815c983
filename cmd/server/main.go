// main wires the disclaimer engine's dependencies and keeps the server
// lifecycle small. Business logic lives in the internal packages.
package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sigclause/internal/disclaimer/handler"
	"sigclause/internal/disclaimer/metrics"
	"sigclause/internal/disclaimer/service"
	"sigclause/internal/disclaimer/store"
	"sigclause/internal/platform/config"
	"sigclause/internal/platform/httpserver"
	"sigclause/internal/platform/logger"
	platformredis "sigclause/internal/platform/redis"
	auditkafka "sigclause/pkg/platform/audit/kafka"
	"sigclause/pkg/platform/audit/publisher"
	auditmemory "sigclause/pkg/platform/audit/store/memory"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	// Storage: Postgres in production, memory for local runs without a DSN.
	var st store.Store
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("open postgres", "error", err.Error())
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Error("ping postgres", "error", err.Error())
			os.Exit(1)
		}
		st = store.NewPostgres(db)
	} else {
		log.Warn("no postgres DSN configured, using in-memory store")
		st = store.NewInMemoryStore()
	}

	m := metrics.New()

	// Audit trail: Kafka when brokers are configured, memory otherwise.
	var pub *publisher.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := auditkafka.NewProducer(context.Background(), cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("connect kafka audit producer", "error", err.Error())
			os.Exit(1)
		}
		defer producer.Close()
		pub = publisher.NewPublisher(producer, publisher.WithAsyncBuffer(256), publisher.WithLogger(log))
	} else {
		log.Warn("no kafka brokers configured, audit trail is in-memory only")
		pub = publisher.NewPublisher(auditmemory.NewInMemoryStore(), publisher.WithLogger(log))
	}
	defer pub.Close()

	// Rule-set cache, optional.
	var loader store.RuleLoader = st
	var invalidator service.CacheInvalidator
	if cfg.RedisURL != "" {
		redisClient, err := platformredis.New(cfg.RedisURL)
		if err != nil {
			log.Error("connect redis", "error", err.Error())
			os.Exit(1)
		}
		defer redisClient.Close()
		cached := store.NewCachedLoader(st, redisClient.Client, cfg.RuleCacheTTL, log, m)
		loader = cached
		invalidator = cached
	}

	resolver, err := service.New(loader, log, m, pub)
	if err != nil {
		log.Error("build resolution service", "error", err.Error())
		os.Exit(1)
	}
	admin, err := service.NewAdmin(st, log, invalidator, pub)
	if err != nil {
		log.Error("build admin service", "error", err.Error())
		os.Exit(1)
	}

	router := chi.NewRouter()
	handler.New(resolver, admin, log).Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting sigclause", "addr", cfg.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
		os.Exit(1)
	}
}
