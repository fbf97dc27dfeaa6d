// Package ports declares the interfaces the application layer consumes
// from the infrastructure layer.
package ports

import (
	"context"

	"markup-backend/domain/markup"
)

// SaveRequest is the single mutation request the converter service
// accepts: embed the given markups into the document body and remove
// the listed embedded annotations.
type SaveRequest struct {
	PDFFilename         string           `json:"pdfFilename"`
	Markups             []*markup.Markup `json:"markups"`
	AnnotationsToRemove []string         `json:"annotationsToRemove"`
	Flatten             bool             `json:"flatten"`
	SaveInPlace         bool             `json:"saveInPlace"`
	CanvasWidth         float64          `json:"canvasWidth"`
	CanvasHeight        float64          `json:"canvasHeight"`
	SourceFolder        string           `json:"sourceFolder,omitempty"`
}

// SaveResult is the converter's answer: an acknowledgment for the
// in-place path, or the new document body for the download path.
type SaveResult struct {
	InPlace bool
	Body    []byte
}

// ConverterService is the remote document-mutation service.
type ConverterService interface {
	// SaveMarkups performs the mutation round-trip.
	SaveMarkups(ctx context.Context, req SaveRequest) (*SaveResult, error)

	// UploadDocument transfers a local-only file to the backend and
	// returns the assigned backend filename.
	UploadDocument(ctx context.Context, filename string, body []byte) (string, error)

	// FetchDocument retrieves the current body of a document the
	// backend already knows.
	FetchDocument(ctx context.Context, filename string) ([]byte, error)

	// StripAnnotations returns a working copy of body with every
	// annotation removed.
	StripAnnotations(ctx context.Context, body []byte) ([]byte, error)
}

// RenderSurface is the page-rendering side of the engine: it receives
// document bodies to display and reports how many pages they have.
type RenderSurface interface {
	// LoadDocument hands the surface a body to render and returns the
	// page count.
	LoadDocument(ctx context.Context, filename string, body []byte) (int, error)

	// ResetPages signals the surface to drop its rendered page cache
	// for the document.
	ResetPages(filename string)
}

// Detection is one hit returned by the detector service: a labelled
// box on a page, in normalized page fractions.
type Detection struct {
	Page       int     `json:"page"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	MinX       float64 `json:"minX"`
	MinY       float64 `json:"minY"`
	MaxX       float64 `json:"maxX"`
	MaxY       float64 `json:"maxY"`
	Text       string  `json:"text,omitempty"`
}

// DetectorService runs template/OCR detection over a document and
// returns labelled boxes that can be turned into markups.
type DetectorService interface {
	Detect(ctx context.Context, filename string, models []string) ([]Detection, error)
}
