// Package site serves the dashboard webapp.
package site

import (
	"context"
	"net/http"
	"os"

	"github.com/okian/bandboard/pkg/logger"
)

// Handler serves the webapp directory, or the embedded feed page when the
// directory is missing.
type Handler struct {
	dir   string
	files http.Handler
}

// New creates a Handler for webappDir.
func New(ctx context.Context, webappDir string) *Handler {
	h := &Handler{dir: webappDir}
	if info, err := os.Stat(webappDir); err == nil && info.IsDir() {
		h.files = http.FileServer(http.Dir(webappDir))
		return h
	}
	logger.Named("site").Warn(ctx, "webapp directory not found, serving embedded page",
		logger.String("dir", webappDir))
	h.dir = ""
	h.files = http.FileServer(FS())
	return h
}

// Embedded reports whether the embedded page is served.
func (h *Handler) Embedded() bool { return h.dir == "" }

// ServeHTTP serves static files for GET and HEAD requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	h.files.ServeHTTP(w, r)
}
