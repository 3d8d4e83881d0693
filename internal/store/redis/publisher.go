// Package redis mirrors engine events to Redis pub/sub so out-of-process
// consumers can observe the stream without holding a WebSocket to the engine.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"paperquant/internal/model"
)

const publishTimeout = 2 * time.Second

// PublisherConfig configures the Redis event mirror.
type PublisherConfig struct {
	Addr     string
	Password string
	DB       int
}

// Publisher publishes engine events to per-symbol pub/sub channels.
type Publisher struct {
	client *goredis.Client
}

// New creates a Publisher and pings the server.
func New(cfg PublisherConfig) (*Publisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	slog.Info("redis event mirror connected", "addr", cfg.Addr)
	return &Publisher{client: client}, nil
}

// Client returns the underlying Redis client for liveness checks.
func (p *Publisher) Client() *goredis.Client { return p.client }

// Broadcast publishes the event to "pub:quant:events:<symbol>". Publish
// failures are logged and swallowed; the mirror is best-effort and must
// never stall the engine.
func (p *Publisher) Broadcast(evt model.Event) {
	payload, err := json.Marshal(evt)
	if err != nil {
		slog.Error("event marshal failed", "type", evt.Type, "err", err)
		return
	}

	channel := "pub:quant:events:" + evt.Symbol
	if evt.Symbol == "" {
		channel = "pub:quant:events"
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		slog.Warn("redis publish failed", "channel", channel, "err", err)
	}
}

// Close releases the client.
func (p *Publisher) Close() error { return p.client.Close() }
