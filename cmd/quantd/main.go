// quantd runs the paper trading loop: it pulls ticks from the configured
// provider, feeds indicators and the strategy, executes signals against the
// paper broker, and serves the WebSocket/REST surface.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"paperquant/config"
	"paperquant/internal/broker"
	"paperquant/internal/engine"
	"paperquant/internal/gateway"
	"paperquant/internal/logger"
	"paperquant/internal/metrics"
	"paperquant/internal/model"
	"paperquant/internal/provider"
	redisstore "paperquant/internal/store/redis"
)

// healthSink feeds tick timestamps into the liveness tracker.
type healthSink struct {
	health *metrics.HealthStatus
}

func (s healthSink) Broadcast(evt model.Event) {
	if evt.Type == model.EventTick {
		s.health.SetLastTickTime(evt.TS)
	}
}

func main() {
	cfg := config.Load()
	log := logger.Init("quantd", logger.ParseLevel(cfg.LogLevel))

	log.Info("starting quantd",
		"symbols", cfg.Symbols,
		"provider", cfg.Provider,
		"strategy", cfg.Strategy,
		"interval", cfg.Interval.String(),
	)

	prom := metrics.New()
	health := metrics.NewHealthStatus()

	prov, err := provider.Build(cfg.ProviderConfig())
	if err != nil {
		log.Error("provider init failed", "err", err)
		os.Exit(1)
	}

	var journal *broker.Journal
	if cfg.JournalPath != "" {
		if dir := filepath.Dir(cfg.JournalPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				log.Error("journal dir create failed", "path", dir, "err", err)
				os.Exit(1)
			}
		}
		journal, err = broker.NewJournal(cfg.JournalPath)
		if err != nil {
			log.Error("trade journal init failed", "path", cfg.JournalPath, "err", err)
			os.Exit(1)
		}
		defer journal.Close()
		log.Info("trade journal open", "path", cfg.JournalPath)
	}
	health.SetJournalOK(true)

	var redisPub *redisstore.Publisher
	if cfg.RedisAddr != "" {
		health.SetRedisEnabled(true)
		redisPub, err = redisstore.New(redisstore.PublisherConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			// The mirror is best-effort; the engine runs without it.
			log.Warn("redis event mirror unavailable", "addr", cfg.RedisAddr, "err", err)
			redisPub = nil
		} else {
			defer redisPub.Close()
		}
	}

	var sinks engine.MultiBroadcaster

	var recorder engine.FillRecorder
	if journal != nil {
		recorder = journal
	}

	eng, err := engine.New(engine.Config{
		Symbols:      cfg.Symbols,
		Interval:     cfg.Interval,
		OrderSize:    cfg.OrderSize,
		StartingCash: cfg.StartingCash,
		WindowCap:    cfg.WindowCap,
		Strategy:     cfg.StrategyConfig(),
	}, prov, &sinks, recorder, prom)
	if err != nil {
		log.Error("engine init failed", "err", err)
		os.Exit(1)
	}

	hub := gateway.NewHub(eng, prom)
	sinks = append(sinks, hub, healthSink{health: health})
	if redisPub != nil {
		sinks = append(sinks, redisPub)
	}

	mux := http.NewServeMux()
	var trades gateway.TradeSource
	if journal != nil {
		trades = journal
	}
	gateway.RegisterRoutes(mux, hub, eng, trades)

	apiSrv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	go func() {
		log.Info("api server listening", "addr", cfg.ListenAddr)
		if err := apiSrv.ListenAndServe(); err != http.ErrServerClosed {
			log.Error("api server error", "err", err)
		}
	}()

	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	liveCtx, liveCancel := context.WithCancel(context.Background())
	defer liveCancel()
	var rdb *goredis.Client
	if redisPub != nil {
		rdb = redisPub.Client()
	}
	var journalDB *sql.DB
	if journal != nil {
		journalDB = journal.DB()
	}
	health.StartLivenessChecker(liveCtx, rdb, journalDB, 15*time.Second)

	eng.Start()
	health.SetEngineRunning(true)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig.String())

	eng.Stop()
	health.SetEngineRunning(false)

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiSrv.Shutdown(shutCtx); err != nil {
		log.Error("api shutdown error", "err", err)
	}
	metricsSrv.Stop(shutCtx)

	slog.Info("quantd stopped")
}
