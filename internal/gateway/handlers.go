package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"paperquant/internal/broker"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// TradeSource reads back journalled trades. Satisfied by *broker.Journal.
type TradeSource interface {
	Trades(limit int) ([]broker.TradeRecord, error)
}

// setCORS sets CORS headers for REST endpoints.
func setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, v any) {
	setCORS(w)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// RegisterRoutes registers the WS endpoint and REST queries on the mux.
// trades may be nil when the journal is disabled.
func RegisterRoutes(mux *http.ServeMux, hub *Hub, engine StateSource, trades TradeSource) {
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("ws upgrade failed", "err", err)
			return
		}
		hub.HandleConn(conn)
	})

	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, engine.Health())
	})

	mux.HandleFunc("/api/snapshot", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, engine.Snapshot())
	})

	mux.HandleFunc("/api/ws_clients", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]int{"clients": hub.ClientCount()})
	})

	mux.HandleFunc("/api/trades", func(w http.ResponseWriter, r *http.Request) {
		if trades == nil {
			http.Error(w, `{"error":"journal disabled"}`, http.StatusNotFound)
			return
		}
		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}
		records, err := trades.Trades(limit)
		if err != nil {
			slog.Error("trade query failed", "err", err)
			http.Error(w, `{"error":"journal query failed"}`, http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []broker.TradeRecord{}
		}
		writeJSON(w, records)
	})
}
