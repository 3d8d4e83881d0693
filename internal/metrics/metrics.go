// Package metrics exposes Prometheus metrics plus a /metrics + /healthz HTTP
// server for the paper trading engine.
package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	TicksTotal     *prometheus.CounterVec // labels: symbol
	ProviderErrors *prometheus.CounterVec // labels: symbol
	SignalsTotal   *prometheus.CounterVec // labels: signal
	OrdersExecuted *prometheus.CounterVec // labels: side
	OrdersSkipped  *prometheus.CounterVec // labels: side
	CycleDur       prometheus.Histogram
	Equity         prometheus.Gauge
	WSClients      prometheus.Gauge
	BroadcastDrops prometheus.Counter
}

// New registers and returns all engine metrics.
func New() *Metrics {
	m := &Metrics{
		TicksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quantd_ticks_total",
			Help: "Ticks successfully fetched, per symbol",
		}, []string{"symbol"}),
		ProviderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quantd_provider_errors_total",
			Help: "Tick fetch failures, per symbol",
		}, []string{"symbol"}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quantd_signals_total",
			Help: "Strategy signals, per action (BUY/SELL/HOLD)",
		}, []string{"signal"}),
		OrdersExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quantd_orders_executed_total",
			Help: "Paper orders that filled, per side",
		}, []string{"side"}),
		OrdersSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quantd_orders_skipped_total",
			Help: "Paper orders that were silent no-ops (insufficient cash, nothing held)",
		}, []string{"side"}),
		CycleDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quantd_cycle_duration_seconds",
			Help:    "Wall-clock time to process all symbols in one cycle",
			Buckets: prometheus.DefBuckets,
		}),
		Equity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quantd_equity",
			Help: "Current marked-to-market equity of the paper ledger",
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quantd_ws_clients",
			Help: "Connected WebSocket observers",
		}),
		BroadcastDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quantd_broadcast_drops_total",
			Help: "Events dropped because an observer send buffer was full",
		}),
	}

	prometheus.MustRegister(
		m.TicksTotal,
		m.ProviderErrors,
		m.SignalsTotal,
		m.OrdersExecuted,
		m.OrdersSkipped,
		m.CycleDur,
		m.Equity,
		m.WSClients,
		m.BroadcastDrops,
	)
	return m
}

// HealthStatus tracks dependency liveness for the /healthz endpoint.
type HealthStatus struct {
	mu             sync.RWMutex
	StartedAt      time.Time
	EngineRunning  bool
	LastTickTime   time.Time
	RedisEnabled   bool
	RedisConnected bool
	RedisLatencyMs float64
	JournalOK      bool
	LastCheckAt    time.Time
}

// NewHealthStatus creates a health tracker with the start time set.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{StartedAt: time.Now()}
}

func (h *HealthStatus) SetEngineRunning(v bool) {
	h.mu.Lock()
	h.EngineRunning = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastTickTime(t time.Time) {
	h.mu.Lock()
	h.LastTickTime = t
	h.mu.Unlock()
}

func (h *HealthStatus) SetRedisEnabled(v bool) {
	h.mu.Lock()
	h.RedisEnabled = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetJournalOK(v bool) {
	h.mu.Lock()
	h.JournalOK = v
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckJournal pings the journal database.
func (h *HealthStatus) CheckJournal(ctx context.Context, db *sql.DB) {
	err := db.PingContext(ctx)
	h.mu.Lock()
	h.JournalOK = err == nil
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks until ctx is cancelled.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, db *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if db != nil {
					h.CheckJournal(probeCtx, db)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overall := "healthy"
	code := http.StatusOK
	if !h.EngineRunning || (h.RedisEnabled && !h.RedisConnected) || !h.JournalOK {
		overall = "degraded"
		code = http.StatusServiceUnavailable
	}

	tickAge := ""
	if !h.LastTickTime.IsZero() {
		tickAge = time.Since(h.LastTickTime).Round(time.Millisecond).String()
	}

	status := struct {
		Status         string  `json:"status"`
		Uptime         string  `json:"uptime"`
		EngineRunning  bool    `json:"engine_running"`
		LastTickTime   string  `json:"last_tick_time"`
		TickAge        string  `json:"tick_age"`
		RedisEnabled   bool    `json:"redis_enabled"`
		RedisConnected bool    `json:"redis_connected"`
		RedisLatencyMs float64 `json:"redis_latency_ms"`
		JournalOK      bool    `json:"journal_ok"`
		LastCheckAt    string  `json:"last_check_at"`
	}{
		Status:         overall,
		Uptime:         time.Since(h.StartedAt).Round(time.Second).String(),
		EngineRunning:  h.EngineRunning,
		LastTickTime:   h.LastTickTime.Format(time.RFC3339),
		TickAge:        tickAge,
		RedisEnabled:   h.RedisEnabled,
		RedisConnected: h.RedisConnected,
		RedisLatencyMs: h.RedisLatencyMs,
		JournalOK:      h.JournalOK,
		LastCheckAt:    h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if code != http.StatusOK {
		w.WriteHeader(code)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer creates the metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		addr: addr,
		srv:  &http.Server{Addr: addr, Handler: mux},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		slog.Info("metrics server listening", "addr", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("metrics server error", "err", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
