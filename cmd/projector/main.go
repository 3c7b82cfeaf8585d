// Command projector runs the search projector: a consumer-group subscriber
// that folds question events into the search index.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/javidhasanzade/J-Overflow/internal/config"
	"github.com/javidhasanzade/J-Overflow/internal/messaging"
	"github.com/javidhasanzade/J-Overflow/internal/observability"
	"github.com/javidhasanzade/J-Overflow/internal/search"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName: "joverflow-search",
		Environment: cfg.Env,
		Enabled:     cfg.Env != "development",
		Exporter:    "otlp",
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	var opts *redis.Options
	if strings.Contains(cfg.RedisURL, "://") {
		opts, err = redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Invalid REDIS_URL: %v", err)
		}
	} else {
		opts = &redis.Options{Addr: cfg.RedisURL}
	}
	rdb := redis.NewClient(opts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := search.EnsureIndex(ctx, rdb, cfg.SearchIndex); err != nil {
		log.Printf("Search index setup warning: %v (search queries may fail until created)", err)
	}

	store := search.NewRedisDocumentStore(rdb, cfg.SearchIndex)
	projector := search.NewProjector(store)

	hostname, _ := os.Hostname()
	subscriber := messaging.NewSubscriber(rdb, cfg.EventStream, cfg.ProjectorGroup, hostname)

	log.Printf("Projector consuming %s as %s", cfg.EventStream, cfg.ProjectorGroup)
	if err := subscriber.Run(ctx, projector.Apply); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Projector error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("Tracing shutdown error: %v", err)
	}
}
