package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hon0319/polymarket-insights/internal/aggregator"
	"github.com/hon0319/polymarket-insights/internal/config"
	"github.com/hon0319/polymarket-insights/internal/database"
	"github.com/hon0319/polymarket-insights/internal/logger"
	"github.com/hon0319/polymarket-insights/internal/models"
	"github.com/hon0319/polymarket-insights/internal/notifier"
	"github.com/hon0319/polymarket-insights/internal/scheduler"
	"github.com/hon0319/polymarket-insights/internal/scoring"
	"github.com/hon0319/polymarket-insights/internal/subgraph"
	"github.com/hon0319/polymarket-insights/internal/syncer"
)

func main() {
	envFile := flag.String("envFile", "", "path to a .env file to load")
	once := flag.Bool("once", false, "run the full pipeline once and exit")
	flag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			fmt.Fprintf(os.Stderr, "failed to load env file %s: %v\n", *envFile, err)
			os.Exit(1)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log, *once); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("Service terminated")
	}
}

func run(cfg config.Config, log zerolog.Logger, once bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect()
	if err != nil {
		return err
	}

	graph := subgraph.NewClient(cfg.OrderbookSubgraphURL, cfg.PositionsSubgraphURL, log)

	hub := notifier.NewHub(log)
	alerts := notifier.New(hub, cfg.AlertScoreThreshold, log)

	sync, err := syncer.New(graph, syncer.NewTradeRepo(db), syncer.NewSyncStateRepo(db), syncer.Config{
		BatchSize:           cfg.SyncBatchSize,
		MaxRetries:          cfg.MaxRetries,
		RetryDelay:          cfg.RetryDelay,
		WhaleTradeThreshold: cfg.WhaleTradeThreshold,
		OnWhaleTrade: func(trade models.Trade) {
			alerts.NotifyWhaleTrade(notifier.WhaleTradeAlert{
				TradeID:   trade.TradeID,
				Address:   trade.TakerAddress,
				Amount:    models.ToUSD(trade.TakerAmount),
				Side:      string(trade.Side),
				Timestamp: trade.Timestamp.Unix(),
			})
		},
	}, log)
	if err != nil {
		return err
	}

	agg, err := aggregator.NewService(db, aggregator.Config{
		WhaleTradeThreshold:   cfg.WhaleTradeThreshold,
		WhaleAddressThreshold: cfg.WhaleAddressThreshold,
	}, log)
	if err != nil {
		return err
	}

	sweeper, err := scoring.NewSweeper(scoring.NewRepo(db), log)
	if err != nil {
		return err
	}
	sweeper.OnScore(func(address string, total int) {
		alerts.NotifySuspiciousAddress(address, total)
	})

	sched := scheduler.New(log)
	jobs := []scheduler.Job{
		{Name: "orderbook_collector", Interval: cfg.SyncInterval, Run: sync.Run},
		{Name: "market_resolution", Interval: cfg.ResolutionInterval, Run: func(ctx context.Context) error {
			if _, err := agg.SyncMarketResolutions(ctx, graph); err != nil {
				return err
			}
			_, err := agg.RecomputeOutcomes(ctx)
			return err
		}},
		{Name: "address_aggregation", Interval: cfg.DiscoveryInterval, Run: func(ctx context.Context) error {
			if _, err := agg.LinkTradeMarkets(ctx); err != nil {
				return err
			}
			if _, err := agg.DiscoverAddresses(ctx); err != nil {
				return err
			}
			if _, _, err := agg.RebuildAddressTrades(ctx); err != nil {
				return err
			}
			_, err := agg.RecomputeStats(ctx)
			return err
		}},
		{Name: "suspicion_sweep", Interval: cfg.SweepInterval, Run: func(ctx context.Context) error {
			_, _, err := sweeper.Run(ctx)
			return err
		}},
	}
	for _, job := range jobs {
		if err := sched.Register(job); err != nil {
			return err
		}
	}

	if once {
		return sched.RunAll(ctx)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return sched.Run(ctx) })
	g.Go(func() error { return hub.Run(ctx) })
	g.Go(func() error { return serveWS(ctx, cfg.WSListenAddr, hub, log) })
	g.Go(func() error { return serveMetrics(ctx, cfg.MetricsPort, log) })

	log.Info().Msg("Insights backend started")
	return g.Wait()
}

func serveWS(ctx context.Context, addr string, hub *notifier.Hub, log zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)

	srv := &http.Server{Addr: addr, Handler: mux}
	return serve(ctx, srv, "websocket", log)
}

func serveMetrics(ctx context.Context, port string, log zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: ":" + port, Handler: mux}
	return serve(ctx, srv, "metrics", log)
}

func serve(ctx context.Context, srv *http.Server, name string, log zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("server", name).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
