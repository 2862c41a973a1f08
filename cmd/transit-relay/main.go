package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	lib "github.com/subwaypi/transit-relay"
	"github.com/subwaypi/transit-relay/config"
	"github.com/subwaypi/transit-relay/gtfsrt"
	"github.com/subwaypi/transit-relay/internal"
	"github.com/subwaypi/transit-relay/telemetry"
)

func main() {
	_ = godotenv.Load()
	internal.InitLogging()
	if err := config.LoadAppConfig(); err != nil {
		log.Fatalf("config error: %v", err)
	}
	cfg := config.Config

	shutdownTelemetry := telemetry.Init(cfg.Telemetry)
	defer shutdownTelemetry()

	client := gtfsrt.NewClient(cfg.FetchTimeout(), os.Getenv(cfg.Fetch.APIKeyEnv))
	fetcher := gtfsrt.NewFetcher(client, cfg.Lines)

	cache := lib.NewCache(cfg.CacheDuration(), lib.TrainLabel(cfg.LineIDs()), nil)
	telemetry.RegisterCacheAge(func() int { return cache.Stats().AgeSeconds })

	refresher := lib.NewRefresher(cache, fetcher, cfg.LineIDs(), cfg.UpdateInterval(), cfg.RetryDelay())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// The first cycle starts right away; the service answers with the
	// startup placeholder until it lands.
	go refresher.Run(ctx)

	handlers := lib.NewHandlers(cache, refresher, cfg)
	var router http.Handler = handlers.Router()
	if cfg.Telemetry.Enabled {
		router = otelhttp.NewHandler(router, "transit-relay")
	}

	lib.StartServer(cfg.Server.Port, router)
	log.Printf("relay ready: lines=%v cache=%s interval=%s", cfg.LineIDs(), cfg.CacheDuration(), cfg.UpdateInterval())
	lib.HandleGracefulShutdown()
}
