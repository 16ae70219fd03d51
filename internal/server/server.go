package server

import (
	"context"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sjawhar/transcript-viewer/internal/observe"
	"github.com/sjawhar/transcript-viewer/internal/session"
)

const readyTimeout = 5 * time.Second

// Options wires the HTTP surface. Archive, Metrics, MetricsHandler and Ready
// are optional.
type Options struct {
	Static         fs.FS
	Hub            *Hub
	Intents        session.Intents
	Archive        ArchiveStore
	Metrics        *observe.Metrics
	MetricsHandler http.Handler
	Ready          func(ctx context.Context) error
}

func Handler(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(observe.Middleware(opts.Metrics))

	r.Get("/healthz", healthz(opts.Ready))
	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}
	r.Get("/ws", serveWS(opts.Hub, opts.Intents))

	a := &api{intents: opts.Intents, archive: opts.Archive}
	r.Route("/api", a.RegisterRoutes)

	if opts.Static != nil {
		r.NotFound(serveSPA(opts.Static))
	}

	return r
}

func healthz(ready func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
			defer cancel()
			if err := ready(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "fail", "error": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func serveSPA(static fs.FS) http.HandlerFunc {
	fileServer := http.FileServer(http.FS(static))
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") || r.URL.Path == "/ws" {
			writeJSONError(w, http.StatusNotFound, "not found")
			return
		}

		cleanPath := path.Clean(strings.TrimPrefix(r.URL.Path, "/"))
		if cleanPath != "." && !strings.Contains(cleanPath, ".") {
			// Client-side routes fall back to the app shell.
			http.ServeFileFS(w, r, static, "index.html")
			return
		}
		if cleanPath != "." {
			r.URL.Path = "/" + cleanPath
		}

		fileServer.ServeHTTP(w, r)
	}
}
