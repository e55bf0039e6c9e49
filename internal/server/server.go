package server

import (
	"context"
	"log"
	"net/http"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/strefethen/soundbar-hub-go/internal/api"
	"github.com/strefethen/soundbar-hub-go/internal/auth"
	"github.com/strefethen/soundbar-hub-go/internal/config"
	"github.com/strefethen/soundbar-hub-go/internal/db"
	"github.com/strefethen/soundbar-hub-go/internal/eventlog"
	"github.com/strefethen/soundbar-hub-go/internal/notify"
	"github.com/strefethen/soundbar-hub-go/internal/openapi"
	"github.com/strefethen/soundbar-hub-go/internal/push"
	"github.com/strefethen/soundbar-hub-go/internal/registry"
	"github.com/strefethen/soundbar-hub-go/internal/soundbar"
	"github.com/strefethen/soundbar-hub-go/internal/system"
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// requestLoggerMiddleware logs all incoming HTTP requests
func requestLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, wrapped.status, time.Since(start).Round(time.Millisecond))
	})
}

// Options controls server wiring.
type Options struct {
	// Dial overrides the soundbar transport, used by tests.
	Dial soundbar.Dialer
}

// NewHandler builds the HTTP handler and returns a shutdown function.
func NewHandler(cfg config.Config, options Options) (http.Handler, func(context.Context) error, error) {
	log.Printf("Using database: %s", cfg.SQLiteDBPath)
	dbPair, err := db.Init(cfg.SQLiteDBPath)
	if err != nil {
		return nil, nil, err
	}

	router := chi.NewRouter()
	router.Use(middleware.StripSlashes)
	router.Use(requestLoggerMiddleware)
	router.Use(api.RequestIDMiddleware)
	router.Use(api.RecovererMiddleware)
	router.Use(auth.Middleware(cfg))

	registerHealthRoutes(router)
	openapi.RegisterRoutes(router)

	pairingStore := auth.NewPairingStore(5 * time.Minute)
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())
	pairingStore.StartCleanup(shutdownCtx, time.Minute)
	auth.RegisterRoutes(router, pairingStore, cfg)

	eventService := eventlog.NewService(cfg, dbPair)
	var publisher *notify.Publisher

	cleanup := func() {
		shutdownCancel()
		eventService.StopPruneJob()
		if publisher != nil {
			publisher.Close()
		}
		dbPair.Close()
	}

	eventlog.RegisterRoutes(router, eventService)
	if err := eventService.StartPruneJob(); err != nil {
		cleanup()
		return nil, nil, err
	}

	registryService := registry.NewService(cfg, dbPair, eventService, options.Dial)

	hub := push.NewHub()
	push.RegisterRoutes(router, hub)
	registryService.AddNotifier(hub)

	if cfg.MQTTBrokerURL != "" {
		publisher, err = notify.NewPublisher(cfg)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		registryService.AddNotifier(publisher)
	}

	registry.RegisterRoutes(router, registryService)

	systemService := system.NewService(cfg, dbPair, registryService, hub)
	system.RegisterRoutes(router, systemService)

	var seeds []config.SeedSoundbar
	if cfg.SoundbarsFile != "" {
		seeds, err = config.LoadSeedSoundbars(cfg.SoundbarsFile)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
	}
	if err := registryService.Start(seeds); err != nil {
		cleanup()
		return nil, nil, err
	}

	shutdown := func(ctx context.Context) error {
		shutdownCancel()
		registryService.Shutdown()
		eventService.StopPruneJob()
		hub.Close()
		if publisher != nil {
			publisher.Close()
		}
		if ctx == nil {
			ctx = context.Background()
		}
		return dbPair.Close()
	}

	return router, shutdown, nil
}

func registerHealthRoutes(router chi.Router) {
	router.Method(http.MethodGet, "/v1/health", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		response := map[string]any{
			"status":    "healthy",
			"service":   "soundbar-hub",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
		return api.WriteJSON(w, http.StatusOK, response)
	}))
	router.Method(http.MethodGet, "/v1/health/live", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		return api.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	}))
	router.Method(http.MethodGet, "/v1/health/ready", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		return api.WriteJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	}))
}
