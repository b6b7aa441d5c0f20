// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/okian/bandboard/internal/adapters/stream"
)

// SessionServer runs a broadcast session on an upgraded connection.
type SessionServer interface {
	ServeSession(ctx context.Context, conn stream.Conn) error
}

// Server wires HTTP routes for the feed and its surroundings.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	streamHandler *StreamHandler
	site          http.Handler
}

// NewServer creates a new API server with all handlers. site serves every
// non-upgrade request under /.
func NewServer(sessions SessionServer, statsProvider StatsProvider, site http.Handler) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		streamHandler: NewStreamHandler(sessions),
		site:          site,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	// Upgraded connections are hijacked, so the stream routes are not wrapped.
	mux.HandleFunc("/ws", s.streamHandler.HandleStream)
	mux.HandleFunc("/", s.handleRoot)
}

// handleRoot accepts feed connections on / as well, since dashboards connect
// to ws://host without a path.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if isWebSocketUpgrade(r) {
		s.streamHandler.HandleStream(w, r)
		return
	}
	if s.site == nil {
		http.NotFound(w, r)
		return
	}
	MetricsMiddleware(s.site.ServeHTTP, "site")(w, r)
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
