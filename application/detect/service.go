// Package detect turns detector-service hits into markups placed on
// the document, with history tracking.
package detect

import (
	"context"

	"go.uber.org/zap"

	"markup-backend/application/history"
	"markup-backend/application/ports"
	"markup-backend/application/store"
	"markup-backend/domain/markup"
	pkgerrors "markup-backend/pkg/errors"
	"markup-backend/pkg/observability"
)

// Service runs detection over a document and inserts the results as
// rectangle markups (labelled hits) and text markups (OCR text).
type Service struct {
	store    *store.MarkupStore
	history  *history.Manager
	detector ports.DetectorService
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewService creates the detection service. detector may be nil when
// no detector endpoint is configured; Run then reports unavailable.
func NewService(
	s *store.MarkupStore,
	h *history.Manager,
	detector ports.DetectorService,
	logger *zap.Logger,
	metrics *observability.Metrics,
) *Service {
	return &Service{
		store:    s,
		history:  h,
		detector: detector,
		logger:   logger,
		metrics:  metrics,
	}
}

// Enabled reports whether a detector endpoint is configured.
func (s *Service) Enabled() bool {
	return s.detector != nil
}

// Run detects template/OCR hits in the document and inserts one markup
// per detection. History is snapshotted once before the batch insert,
// so a single undo removes the whole batch.
func (s *Service) Run(ctx context.Context, filename string, models []string) ([]*markup.Markup, error) {
	if s.detector == nil {
		return nil, pkgerrors.NewUnavailable("no detector service configured", nil)
	}

	detections, err := s.detector.Detect(ctx, filename, models)
	if err != nil {
		return nil, pkgerrors.NewUnavailable("detection failed for "+filename, err)
	}
	if len(detections) == 0 {
		return nil, nil
	}

	s.history.SetActiveDocument(filename)
	s.history.SaveHistory()

	inserted := make([]*markup.Markup, 0, len(detections))
	for _, d := range detections {
		m, err := s.markupFor(filename, d)
		if err != nil {
			s.logger.Warn("Skipping detection",
				zap.String("filename", filename),
				zap.String("label", d.Label),
				zap.Error(err),
			)
			continue
		}
		if err := s.store.Insert(m); err != nil {
			return nil, err
		}
		inserted = append(inserted, m)
	}

	s.metrics.DetectionsTotal.Add(float64(len(inserted)))
	s.logger.Info("Detections inserted as markups",
		zap.String("filename", filename),
		zap.Int("count", len(inserted)),
	)
	return inserted, nil
}

func (s *Service) markupFor(filename string, d ports.Detection) (*markup.Markup, error) {
	t := markup.TypeRectangle
	if d.Text != "" {
		t = markup.TypeText
	}
	m, err := markup.New(t, filename, d.Page)
	if err != nil {
		return nil, err
	}
	if style, ok := s.store.DefaultStyle(t); ok {
		m.Style = style
	}
	switch t {
	case markup.TypeText:
		m.X = d.MinX
		m.Y = d.MinY
		m.Width = d.MaxX - d.MinX
		m.Height = d.MaxY - d.MinY
		m.Text = d.Text
	default:
		m.Start = &markup.Point{X: d.MinX, Y: d.MinY}
		m.End = &markup.Point{X: d.MaxX, Y: d.MaxY}
	}
	return m, nil
}
