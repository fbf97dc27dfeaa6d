package converter

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"markup-backend/application/ports"
	pkgerrors "markup-backend/pkg/errors"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, 64, zap.NewNop())
}

func TestSaveMarkups_InPlaceSuccess(t *testing.T) {
	// Arrange
	var received ports.SaveRequest
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/save-markups", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true}`))
	}))

	// Act
	result, err := client.SaveMarkups(context.Background(), ports.SaveRequest{
		PDFFilename:         "doc.pdf",
		AnnotationsToRemove: []string{"ann1"},
		SaveInPlace:         true,
	})

	// Assert
	require.NoError(t, err)
	assert.True(t, result.InPlace)
	assert.Nil(t, result.Body)
	assert.Equal(t, "doc.pdf", received.PDFFilename)
	assert.Equal(t, []string{"ann1"}, received.AnnotationsToRemove)
}

func TestSaveMarkups_BinaryDownload(t *testing.T) {
	// Arrange
	body := bytes.Repeat([]byte("%PDF"), 100)
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(body)
	}))

	// Act
	result, err := client.SaveMarkups(context.Background(), ports.SaveRequest{PDFFilename: "doc.pdf"})

	// Assert
	require.NoError(t, err)
	assert.False(t, result.InPlace)
	assert.Equal(t, body, result.Body)
}

func TestSaveMarkups_CorruptResponseRejected(t *testing.T) {
	// Arrange
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("err"))
	}))

	// Act
	result, err := client.SaveMarkups(context.Background(), ports.SaveRequest{PDFFilename: "doc.pdf"})

	// Assert
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, pkgerrors.IsUnavailable(err))
	assert.Contains(t, err.Error(), "corrupt")
}

func TestSaveMarkups_ServerErrorStringPreferred(t *testing.T) {
	// Arrange
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success": false, "error": "page 3 is encrypted"}`))
	}))

	// Act
	_, err := client.SaveMarkups(context.Background(), ports.SaveRequest{PDFFilename: "doc.pdf"})

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page 3 is encrypted")
}

func TestSaveMarkups_StatusFallbackWhenNoErrorString(t *testing.T) {
	// Arrange
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"success": false}`))
	}))

	// Act
	_, err := client.SaveMarkups(context.Background(), ports.SaveRequest{PDFFilename: "doc.pdf"})

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestUploadDocument(t *testing.T) {
	// Arrange
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/upload", r.URL.Path)
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "local.pdf", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"filename": "local-1234.pdf"}`))
	}))

	// Act
	name, err := client.UploadDocument(context.Background(), "local.pdf", []byte("%PDF-1.7"))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "local-1234.pdf", name)
}

func TestFetchDocument(t *testing.T) {
	// Arrange
	body := bytes.Repeat([]byte("%PDF"), 50)
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/documents/doc.pdf", r.URL.Path)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(body)
	}))

	// Act
	got, err := client.FetchDocument(context.Background(), "doc.pdf")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestFetchDocument_NotFound(t *testing.T) {
	// Arrange
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "no such document"}`))
	}))

	// Act
	_, err := client.FetchDocument(context.Background(), "missing.pdf")

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such document")
}

func TestStripAnnotations(t *testing.T) {
	// Arrange
	clean := bytes.Repeat([]byte("%PDF"), 40)
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/strip-annotations", r.URL.Path)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(clean)
	}))

	// Act
	got, err := client.StripAnnotations(context.Background(), []byte("%PDF with annots"))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, clean, got)
}

func TestDo_ServerDown(t *testing.T) {
	// Arrange
	client := NewClient("http://127.0.0.1:1", 500*time.Millisecond, 64, zap.NewNop())

	// Act
	_, err := client.SaveMarkups(context.Background(), ports.SaveRequest{PDFFilename: "doc.pdf"})

	// Assert
	require.Error(t, err)
	assert.True(t, pkgerrors.IsUnavailable(err))
}
