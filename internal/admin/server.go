// Package admin serves the HTTP API, the HTML overview and the live event
// stream over the entity store.
package admin

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"regard/internal/metrics"
	"regard/internal/notify"
	"regard/internal/tracking"
)

//go:embed templates/index.html
var content embed.FS

const (
	maxBodyBytes    = 64 << 10
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Requester dispatches interpretation requests.
type Requester interface {
	RequestInterpretation(ctx context.Context, id string) (string, error)
}

// MapConfig is what the browser needs to render the map.
type MapConfig struct {
	Provider string
	APIKey   string
}

// Enabled reports whether a map credential is configured.
func (m MapConfig) Enabled() bool { return m.APIKey != "" }

// Options wires the server's collaborators. Store and Requester are required.
type Options struct {
	Store         *tracking.Store
	Requester     Requester
	Notifications *notify.Center
	Metrics       *metrics.Metrics
	Map           MapConfig
	CorsOrigins   []string
	Logger        *slog.Logger
}

type Server struct {
	store   *tracking.Store
	view    *tracking.View
	req     Requester
	notes   *notify.Center
	metrics *metrics.Metrics
	mapCfg  MapConfig
	logger  *slog.Logger
	tpl     *template.Template
	hub     *Hub
	router  chi.Router
	unsubs  []func()
}

func NewServer(opts Options) *Server {
	tpl := template.Must(template.New("index.html").Funcs(template.FuncMap{
		"pct":   func(f float64) string { return fmt.Sprintf("%.0f%%", f*100) },
		"clock": func(t time.Time) string { return t.Format("15:04:05") },
	}).ParseFS(content, "templates/index.html"))
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		store:   opts.Store,
		view:    tracking.NewView(),
		req:     opts.Requester,
		notes:   opts.Notifications,
		metrics: opts.Metrics,
		mapCfg:  opts.Map,
		logger:  logger,
		tpl:     tpl,
		hub:     NewHub(logger),
	}
	s.unsubs = append(s.unsubs, s.store.Subscribe(s.hub.HandleEvent))
	if s.notes != nil {
		s.unsubs = append(s.unsubs, s.notes.Subscribe(s.hub.HandleNotification))
	}
	s.router = s.routes(opts.CorsOrigins)
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// View returns the session view shared by the HTTP entry points.
func (s *Server) View() *tracking.View { return s.view }

func (s *Server) routes(origins []string) chi.Router {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleIndex)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	r.Get("/ws", s.hub.ServeWS)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Route("/entities", func(r chi.Router) {
			r.Get("/", s.handleListEntities)
			r.Get("/{id}", s.handleGetEntity)
			r.Post("/{id}/interpret", s.handleInterpret)
		})
		r.Route("/view", func(r chi.Router) {
			r.Get("/", s.handleGetView)
			r.Get("/selected", s.handleGetSelected)
			r.Put("/search", s.handleSetSearch)
			r.Put("/tags", s.handleSetTags)
			r.Put("/selection", s.handleSetSelection)
		})
		r.Get("/tags", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, tracking.AllTags)
		})
		r.Get("/map-config", s.handleMapConfig)
		r.Get("/notifications", s.handleNotifications)
	})
	return r
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("admin server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("admin server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	s.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("admin shutdown: %w", err)
	}
	return nil
}

// Close detaches the server from the store and disconnects stream clients.
func (s *Server) Close() {
	for _, u := range s.unsubs {
		u()
	}
	s.unsubs = nil
	s.hub.Close()
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	var recent []notify.Notification
	if s.notes != nil {
		recent = s.notes.Recent(10)
	}
	data := struct {
		Entities      []tracking.Entity
		Tags          []string
		MapEnabled    bool
		MapProvider   string
		Notifications []notify.Notification
	}{
		Entities:      s.view.Visible(s.store.Snapshot()),
		Tags:          tracking.AllTags,
		MapEnabled:    s.mapCfg.Enabled(),
		MapProvider:   s.mapCfg.Provider,
		Notifications: recent,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tpl.Execute(w, data); err != nil {
		s.logger.Error("render index", "err", err)
	}
}
