// Package di assembles the application's dependency graph.
package di

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"markup-backend/application/clipboard"
	"markup-backend/application/detect"
	"markup-backend/application/history"
	"markup-backend/application/ports"
	"markup-backend/application/save"
	"markup-backend/application/store"
	"markup-backend/domain/session"
	"markup-backend/infrastructure/config"
	"markup-backend/infrastructure/converter"
	"markup-backend/infrastructure/detector"
	"markup-backend/infrastructure/persistence/file"
	"markup-backend/infrastructure/surface"
	"markup-backend/pkg/observability"
)

// Container holds all application dependencies.
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	Registry     *prometheus.Registry
	Metrics      *observability.Metrics
	Sessions     *session.Registry
	Store        *store.MarkupStore
	History      *history.Manager
	Clipboard    *clipboard.Service
	Orchestrator *save.Orchestrator
	Detect       *detect.Service
	Converter    *converter.Client
	Surface      *surface.Surface
	SymbolStore  *file.SymbolStore
}

// InitializeContainer builds the full dependency graph from config.
func InitializeContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	sessions := session.NewRegistry()
	markupStore := store.New(sessions)
	historyManager := history.NewManager(markupStore)

	symbolStore, err := file.NewSymbolStore(cfg.DataDir, logger)
	if err != nil {
		return nil, err
	}

	converterClient := converter.NewClient(
		cfg.ConverterBaseURL,
		cfg.ConverterTimeout,
		cfg.MinDownloadBytes,
		logger,
	)
	renderSurface := surface.New(logger)

	clipboardService := clipboard.NewService(markupStore, historyManager, symbolStore, logger)
	orchestrator := save.NewOrchestrator(
		markupStore,
		historyManager,
		converterClient,
		renderSurface,
		logger,
		metrics,
	)

	var detectorPort ports.DetectorService
	if client := detector.NewClient(cfg.DetectorBaseURL, cfg.DetectorTimeout, logger); client != nil {
		detectorPort = client
	}
	detectService := detect.NewService(markupStore, historyManager, detectorPort, logger, metrics)

	return &Container{
		Config:       cfg,
		Logger:       logger,
		Registry:     registry,
		Metrics:      metrics,
		Sessions:     sessions,
		Store:        markupStore,
		History:      historyManager,
		Clipboard:    clipboardService,
		Orchestrator: orchestrator,
		Detect:       detectService,
		Converter:    converterClient,
		Surface:      renderSurface,
		SymbolStore:  symbolStore,
	}, nil
}
