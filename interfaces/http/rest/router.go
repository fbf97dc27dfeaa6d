// Package rest wires the HTTP surface of the markup engine.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"markup-backend/application/clipboard"
	"markup-backend/application/detect"
	"markup-backend/application/history"
	"markup-backend/application/ports"
	"markup-backend/application/save"
	"markup-backend/application/store"
	"markup-backend/infrastructure/surface"
	"markup-backend/interfaces/http/rest/handlers"
	"markup-backend/interfaces/http/rest/middleware"
)

// Router creates and configures the HTTP router.
type Router struct {
	store        *store.MarkupStore
	history      *history.Manager
	clipboard    *clipboard.Service
	orchestrator *save.Orchestrator
	detect       *detect.Service
	converter    ports.ConverterService
	surface      *surface.Surface
	registry     *prometheus.Registry
	logger       *zap.Logger
	enableCORS   bool
}

// NewRouter creates a new router instance.
func NewRouter(
	s *store.MarkupStore,
	h *history.Manager,
	c *clipboard.Service,
	o *save.Orchestrator,
	d *detect.Service,
	converter ports.ConverterService,
	surf *surface.Surface,
	registry *prometheus.Registry,
	logger *zap.Logger,
	enableCORS bool,
) *Router {
	return &Router{
		store:        s,
		history:      h,
		clipboard:    c,
		orchestrator: o,
		detect:       d,
		converter:    converter,
		surface:      surf,
		registry:     registry,
		logger:       logger,
		enableCORS:   enableCORS,
	}
}

// Setup configures all routes and middleware.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.enableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:*", "https://localhost:*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health and metrics
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.registry != nil {
		router.Handle("/metrics", promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{}))
	}

	router.Route("/api/v1", func(r chi.Router) {
		markupHandler := handlers.NewMarkupHandler(rt.store, rt.history, rt.logger)
		historyHandler := handlers.NewHistoryHandler(rt.history, rt.logger)
		clipboardHandler := handlers.NewClipboardHandler(rt.clipboard, rt.logger)
		saveHandler := handlers.NewSaveHandler(rt.orchestrator, rt.logger)
		documentHandler := handlers.NewDocumentHandler(rt.store, rt.history, rt.converter, rt.surface, rt.logger)
		detectHandler := handlers.NewDetectHandler(rt.detect, rt.logger)

		// Document lifecycle
		r.Post("/documents/upload", saveHandler.Upload)
		r.Route("/documents/{filename}", func(r chi.Router) {
			r.Get("/", documentHandler.GetStatus)
			r.Post("/open", documentHandler.OpenDocument)
			r.Post("/annotations", documentHandler.IngestAnnotations)
			r.Get("/body", documentHandler.GetBody)
			r.Delete("/", documentHandler.CloseDocument)

			// Markups
			r.Get("/markups", markupHandler.ListMarkups)
			r.Post("/markups", markupHandler.CreateMarkup)

			// History
			r.Get("/history", historyHandler.GetDepths)
			r.Post("/undo", historyHandler.Undo)
			r.Post("/redo", historyHandler.Redo)
			r.Post("/history/jump", historyHandler.JumpToHistory)
			r.Post("/future/jump", historyHandler.JumpToFuture)

			// Clipboard
			r.Post("/pages/{page}/paste", clipboardHandler.Paste)

			// Save
			r.Post("/save", saveHandler.SaveInPlace)
			r.Post("/download", saveHandler.Download)

			// Detection
			r.Post("/detect", detectHandler.Detect)
		})

		// Markup operations by id
		r.Route("/markups/{markupID}", func(r chi.Router) {
			r.Get("/", markupHandler.GetMarkup)
			r.Put("/", markupHandler.UpdateMarkup)
			r.Delete("/", markupHandler.DeleteMarkup)
			r.Post("/move", markupHandler.MoveMarkup)
			r.Post("/resize", markupHandler.ResizeMarkup)
			r.Put("/text", markupHandler.SetText)
			r.Put("/style", markupHandler.SetStyle)
			r.Get("/bounds", markupHandler.GetBounds)
		})

		// Defaults and interaction state
		r.Put("/defaults/{type}", markupHandler.SetDefaultStyle)
		r.Get("/defaults/{type}", markupHandler.GetDefaultStyle)
		r.Put("/interaction", markupHandler.SetInteraction)
		r.Get("/interaction", markupHandler.GetInteraction)

		// Clipboard and symbol library
		r.Get("/clipboard", clipboardHandler.GetClipboard)
		r.Post("/clipboard/copy", clipboardHandler.Copy)
		r.Route("/symbols", func(r chi.Router) {
			r.Get("/", clipboardHandler.ListSymbols)
			r.Post("/", clipboardHandler.SaveSymbol)
			r.Get("/default-signature", clipboardHandler.GetDefaultSignature)
			r.Put("/default-signature", clipboardHandler.SetDefaultSignature)
			r.Post("/{name}/place", clipboardHandler.PlaceSymbol)
			r.Delete("/{name}", clipboardHandler.DeleteSymbol)
		})
	})

	return router
}

// healthCheck handles health check requests.
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness probe requests. The service has no
// startup dependencies of its own; converter availability is reported
// per request through the 502 mapping.
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
