package api

import (
	"net/http"

	"github.com/okian/bandboard/internal/adapters/stream"
	"github.com/okian/bandboard/pkg/logger"
	"github.com/okian/bandboard/pkg/metrics"
)

// StreamHandler upgrades requests and hands the connection to a SessionServer.
type StreamHandler struct {
	sessions SessionServer
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(sessions SessionServer) *StreamHandler {
	return &StreamHandler{sessions: sessions}
}

// HandleStream handles GET /ws requests. It blocks for the session's lifetime.
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	if !isWebSocketUpgrade(r) {
		metrics.RecordHTTPRequest("ws", r.Method, "400")
		writeError(w, http.StatusBadRequest, "not_upgrade", ErrNotUpgrade)
		return
	}

	conn, err := stream.Upgrade(w, r)
	if err != nil {
		metrics.RecordHTTPRequest("ws", r.Method, "400")
		metrics.RecordErrorByComponent("http", "upgrade")
		logger.Named("api").Warn(r.Context(), "websocket upgrade failed",
			logger.String("remote", r.RemoteAddr), logger.Error(err))
		return
	}
	metrics.RecordHTTPRequest("ws", r.Method, "101")

	if err := h.sessions.ServeSession(r.Context(), conn); err != nil {
		logger.Named("api").Warn(r.Context(), "session ended with error",
			logger.String("remote", r.RemoteAddr), logger.Error(err))
	}
}
