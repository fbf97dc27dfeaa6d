package save

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"markup-backend/application/history"
	"markup-backend/application/ports"
	"markup-backend/application/store"
	"markup-backend/domain/markup"
	pkgerrors "markup-backend/pkg/errors"
	"markup-backend/pkg/observability"
)

// Options carries the parameters of one save call.
type Options struct {
	Filename     string
	Flatten      bool
	CanvasWidth  float64
	CanvasHeight float64
	SourceFolder string
}

// Outcome reports what a save-in-place call did.
type Outcome struct {
	// NoOp is true when the document already matched its body and no
	// mutation request was issued.
	NoOp bool `json:"noOp"`
	// MarkupsSaved is the number of markups transmitted.
	MarkupsSaved int `json:"markupsSaved"`
	// AnnotationsRemoved is the number of embedded annotations removed.
	AnnotationsRemoved int `json:"annotationsRemoved"`
	// PageCount is the surface's page count after reload, when known.
	PageCount int `json:"pageCount,omitempty"`
	// Reparsed is true when the markup-preserving reload failed and the
	// document was reloaded the naive way (markups discarded).
	Reparsed bool `json:"reparsed,omitempty"`
}

// Orchestrator drives the save round-trip: classification, the
// converter call, and the markup-preserving reload. At most one save
// sequence is active per document; a second request while one is in
// flight is dropped with a conflict error, never queued.
type Orchestrator struct {
	store     *store.MarkupStore
	history   *history.Manager
	converter ports.ConverterService
	surface   ports.RenderSurface
	logger    *zap.Logger
	metrics   *observability.Metrics

	mu       sync.Mutex
	inFlight map[string]struct{}

	// uploaded caches local filename -> backend filename for the
	// session so repeat saves skip the upload step.
	uploaded map[string]string
}

// NewOrchestrator creates a save orchestrator.
func NewOrchestrator(
	s *store.MarkupStore,
	h *history.Manager,
	converter ports.ConverterService,
	surface ports.RenderSurface,
	logger *zap.Logger,
	metrics *observability.Metrics,
) *Orchestrator {
	return &Orchestrator{
		store:     s,
		history:   h,
		converter: converter,
		surface:   surface,
		logger:    logger,
		metrics:   metrics,
		inFlight:  make(map[string]struct{}),
		uploaded:  make(map[string]string),
	}
}

// RegisterLocalDocument uploads a local-only file once and caches the
// assigned backend filename for the rest of the session.
func (o *Orchestrator) RegisterLocalDocument(ctx context.Context, filename string, body []byte) (string, error) {
	o.mu.Lock()
	if backend, ok := o.uploaded[filename]; ok {
		o.mu.Unlock()
		return backend, nil
	}
	o.mu.Unlock()

	backend, err := o.converter.UploadDocument(ctx, filename, body)
	if err != nil {
		o.metrics.ConverterErrors.WithLabelValues("upload").Inc()
		return "", pkgerrors.NewUnavailable("failed to upload "+filename, err)
	}
	o.metrics.UploadedBytes.Add(float64(len(body)))

	o.mu.Lock()
	o.uploaded[filename] = backend
	o.mu.Unlock()

	o.logger.Info("Local document uploaded",
		zap.String("filename", filename),
		zap.String("backendFilename", backend),
	)
	return backend, nil
}

// SaveInPlace overwrites the source document with the mutation result
// and reloads the rendering surface without discarding in-memory
// markups.
func (o *Orchestrator) SaveInPlace(ctx context.Context, opts Options) (*Outcome, error) {
	start := time.Now()
	outcome, err := o.saveInPlace(ctx, opts, start)
	if err != nil {
		if pkgerrors.IsConflict(err) {
			o.metrics.SavesTotal.WithLabelValues("inplace", "busy").Inc()
		} else {
			o.metrics.ObserveSave("inplace", "error", start, 0)
		}
		return nil, err
	}
	if outcome.NoOp {
		o.metrics.ObserveSave("inplace", "noop", start, 0)
	} else {
		o.metrics.ObserveSave("inplace", "ok", start, outcome.MarkupsSaved)
	}
	return outcome, nil
}

// Download produces a new document body with the markups embedded and
// hands it back to the caller; the source document is left untouched.
// When there is nothing to embed or remove, the existing body is
// fetched and returned unmodified, without a mutation call.
func (o *Orchestrator) Download(ctx context.Context, opts Options) ([]byte, error) {
	start := time.Now()
	body, saved, err := o.download(ctx, opts)
	if err != nil {
		if pkgerrors.IsConflict(err) {
			o.metrics.SavesTotal.WithLabelValues("download", "busy").Inc()
		} else {
			o.metrics.ObserveSave("download", "error", start, 0)
		}
		return nil, err
	}
	o.metrics.ObserveSave("download", "ok", start, saved)
	return body, nil
}

func (o *Orchestrator) saveInPlace(ctx context.Context, opts Options, start time.Time) (*Outcome, error) {
	if err := o.beginSave(opts.Filename); err != nil {
		return nil, err
	}
	defer o.endSave(opts.Filename)

	ctx, span := o.startSpan(ctx, "save.inplace", opts)
	defer span.End()

	snapshot := o.store.Snapshot(opts.Filename)
	sess := o.store.Sessions().Get(opts.Filename)
	cls := Classify(snapshot, sess.DeletedIDs())
	span.SetAttributes(
		attribute.Int("markups.new", len(cls.New)),
		attribute.Int("markups.modified", len(cls.Modified)),
		attribute.Int("markups.unmodified", len(cls.Unmodified)),
		attribute.Int("annotations.remove", len(cls.AnnotationsToRemove)),
	)

	if cls.IsNoOp() {
		o.logger.Debug("Save is a no-op, document already matches",
			zap.String("filename", opts.Filename),
		)
		return &Outcome{NoOp: true}, nil
	}

	if _, err := o.converter.SaveMarkups(ctx, o.buildRequest(opts, cls, true)); err != nil {
		o.metrics.ConverterErrors.WithLabelValues("request").Inc()
		o.logger.Error("Mutation request failed",
			zap.String("filename", opts.Filename),
			zap.Error(err),
		)
		return nil, err
	}

	outcome := &Outcome{
		MarkupsSaved:       len(cls.MarkupsToSave),
		AnnotationsRemoved: len(cls.AnnotationsToRemove),
	}

	// The store is only mutated after the confirmed success above.
	pages, err := o.reloadPreservingMarkups(ctx, opts.Filename, snapshot, cls.AnnotationsToRemove)
	if err != nil {
		o.metrics.ReloadFallbacks.Inc()
		o.logger.Warn("Markup-preserving reload failed, falling back to reparse",
			zap.String("filename", opts.Filename),
			zap.Error(err),
		)
		pages, err = o.reloadDiscardingMarkups(ctx, opts.Filename)
		if err != nil {
			// Data is safe server-side; only the client view is stale.
			return nil, pkgerrors.NewInternal(
				"document saved, but the view could not be refreshed; please reopen "+opts.Filename, err)
		}
		outcome.Reparsed = true
	}
	outcome.PageCount = pages

	o.logger.Info("Document saved in place",
		zap.String("filename", opts.Filename),
		zap.Int("markupsSaved", outcome.MarkupsSaved),
		zap.Int("annotationsRemoved", outcome.AnnotationsRemoved),
		zap.Bool("reparsed", outcome.Reparsed),
		zap.Duration("duration", time.Since(start)),
	)
	return outcome, nil
}

func (o *Orchestrator) download(ctx context.Context, opts Options) ([]byte, int, error) {
	if err := o.beginSave(opts.Filename); err != nil {
		return nil, 0, err
	}
	defer o.endSave(opts.Filename)

	ctx, span := o.startSpan(ctx, "save.download", opts)
	defer span.End()

	snapshot := o.store.Snapshot(opts.Filename)
	sess := o.store.Sessions().Get(opts.Filename)
	cls := Classify(snapshot, sess.DeletedIDs())

	if cls.IsNoOp() {
		body, err := o.converter.FetchDocument(ctx, o.backendFilename(opts.Filename))
		if err != nil {
			o.metrics.ConverterErrors.WithLabelValues("request").Inc()
			return nil, 0, err
		}
		return body, 0, nil
	}

	result, err := o.converter.SaveMarkups(ctx, o.buildRequest(opts, cls, false))
	if err != nil {
		o.metrics.ConverterErrors.WithLabelValues("request").Inc()
		return nil, 0, err
	}
	return result.Body, len(cls.MarkupsToSave), nil
}

// reloadPreservingMarkups refreshes the rendering surface after an
// in-place save without discarding in-memory markup objects: the new
// body is fetched, stripped of all annotations so the surface shows a
// clean background, and every markup from the save snapshot is
// re-flagged as baseline-correct and owned by the editable layer.
// Edits made while the converter call was in flight survive: a markup
// that diverged from its snapshot stays modified, and only the
// annotation ids the save actually removed leave the deleted set.
func (o *Orchestrator) reloadPreservingMarkups(ctx context.Context, filename string, snapshot []*markup.Markup, removed []string) (int, error) {
	body, err := o.converter.FetchDocument(ctx, o.backendFilename(filename))
	if err != nil {
		return 0, pkgerrors.Wrap(err, "fetch after save failed")
	}
	clean, err := o.converter.StripAnnotations(ctx, body)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "strip annotations failed")
	}
	pages, err := o.surface.LoadDocument(ctx, filename, clean)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "surface reload failed")
	}

	flagged := o.store.RebaselineDocument(filename, snapshot)

	sess := o.store.Sessions().Get(filename)
	for _, id := range flagged {
		sess.Own(id)
	}
	sess.MarkAnnotationsLoaded()
	sess.ClearDeleted(removed)

	o.surface.ResetPages(filename)
	return pages, nil
}

// reloadDiscardingMarkups is the naive fallback: drop the document's
// markups and let the surface re-parse annotations fresh from the new
// body.
func (o *Orchestrator) reloadDiscardingMarkups(ctx context.Context, filename string) (int, error) {
	body, err := o.converter.FetchDocument(ctx, o.backendFilename(filename))
	if err != nil {
		return 0, err
	}

	o.store.ClearDocument(filename, false)
	o.history.DropDocument(filename)
	sess := o.store.Sessions().Get(filename)
	sess.ResetAnnotationsLoaded()
	sess.ResetDeleted()

	pages, err := o.surface.LoadDocument(ctx, filename, body)
	if err != nil {
		return 0, err
	}
	o.surface.ResetPages(filename)
	return pages, nil
}

func (o *Orchestrator) buildRequest(opts Options, cls Classification, inPlace bool) ports.SaveRequest {
	return ports.SaveRequest{
		PDFFilename:         o.backendFilename(opts.Filename),
		Markups:             cls.MarkupsToSave,
		AnnotationsToRemove: cls.AnnotationsToRemove,
		Flatten:             opts.Flatten,
		SaveInPlace:         inPlace,
		CanvasWidth:         opts.CanvasWidth,
		CanvasHeight:        opts.CanvasHeight,
		SourceFolder:        opts.SourceFolder,
	}
}

func (o *Orchestrator) backendFilename(filename string) string {
	o.mu.Lock()
	defer o.mu.Unlock()

	if backend, ok := o.uploaded[filename]; ok {
		return backend
	}
	return filename
}

// beginSave acquires the per-document in-flight guard. Two overlapping
// mutation requests against the same backing file risk a file-access
// conflict on the remote side.
func (o *Orchestrator) beginSave(filename string) error {
	if filename == "" {
		return pkgerrors.NewValidation("filename cannot be empty")
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if _, busy := o.inFlight[filename]; busy {
		return pkgerrors.NewConflict("a save is already in progress for " + filename)
	}
	o.inFlight[filename] = struct{}{}
	return nil
}

func (o *Orchestrator) endSave(filename string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	delete(o.inFlight, filename)
}

func (o *Orchestrator) startSpan(ctx context.Context, name string, opts Options) (context.Context, trace.Span) {
	return otel.Tracer("markup-backend").Start(ctx, name,
		trace.WithAttributes(
			attribute.String("document.filename", opts.Filename),
			attribute.Bool("save.flatten", opts.Flatten),
		),
	)
}
