// Package converter is the HTTP client for the remote document-mutation
// service: one mutation request type, an upload endpoint for local-only
// files, and the fetch/strip endpoints the reload protocol needs.
package converter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"markup-backend/application/ports"
	pkgerrors "markup-backend/pkg/errors"
)

// Client talks to the converter service over HTTP. A circuit breaker
// sits in front of every request so a dead converter fails fast instead
// of tying up save calls until their timeouts.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger

	// minDownloadBytes is the corruption heuristic for binary bodies;
	// adjustable at runtime through the dynamic config watcher.
	minDownloadBytes atomic.Int64
}

var _ ports.ConverterService = (*Client)(nil)

// NewClient creates a converter client.
func NewClient(baseURL string, timeout time.Duration, minDownloadBytes int, logger *zap.Logger) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
	c.minDownloadBytes.Store(int64(minDownloadBytes))

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "converter",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.8
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return c
}

// SetMinDownloadBytes adjusts the corrupt-response threshold.
func (c *Client) SetMinDownloadBytes(n int) {
	c.minDownloadBytes.Store(int64(n))
}

// SaveMarkups performs the mutation round-trip. The response is JSON on
// the in-place path and a raw document body on the download path; the
// two are told apart by content type.
func (c *Client) SaveMarkups(ctx context.Context, req ports.SaveRequest) (*ports.SaveResult, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, pkgerrors.NewInternal("failed to encode save request", err)
	}

	resp, body, err := c.do(ctx, http.MethodPost, "/save-markups", "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	if isJSON(resp) {
		var ack struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal(body, &ack); err != nil {
			return nil, pkgerrors.NewUnavailable("unreadable converter response", err)
		}
		if !ack.Success {
			return nil, converterError(resp.StatusCode, ack.Error)
		}
		return &ports.SaveResult{InPlace: true}, nil
	}

	// Binary document body: download path.
	if len(body) < int(c.minDownloadBytes.Load()) {
		c.logger.Error("Converter returned an implausibly small document",
			zap.Int("bytes", len(body)),
		)
		return nil, pkgerrors.NewUnavailable(
			fmt.Sprintf("converted document is corrupt (%d bytes)", len(body)), nil)
	}
	return &ports.SaveResult{Body: body}, nil
}

// UploadDocument transfers a local file to the converter backend and
// returns the filename it assigned.
func (c *Client) UploadDocument(ctx context.Context, filename string, body []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", pkgerrors.NewInternal("failed to build upload request", err)
	}
	if _, err := part.Write(body); err != nil {
		return "", pkgerrors.NewInternal("failed to build upload request", err)
	}
	if err := mw.Close(); err != nil {
		return "", pkgerrors.NewInternal("failed to build upload request", err)
	}

	resp, respBody, err := c.do(ctx, http.MethodPost, "/upload", mw.FormDataContentType(), &buf)
	if err != nil {
		return "", err
	}

	var result struct {
		Filename string `json:"filename"`
		Error    string `json:"error"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", pkgerrors.NewUnavailable("unreadable upload response", err)
	}
	if result.Filename == "" {
		return "", converterError(resp.StatusCode, result.Error)
	}
	return result.Filename, nil
}

// FetchDocument retrieves the current body of a known document.
func (c *Client) FetchDocument(ctx context.Context, filename string) ([]byte, error) {
	path := "/documents/" + url.PathEscape(filename)
	resp, body, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, err
	}
	if isJSON(resp) {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(body, &e)
		return nil, converterError(resp.StatusCode, e.Error)
	}
	return body, nil
}

// StripAnnotations returns a copy of body with every annotation
// removed, used to show a clean background after an in-place save.
func (c *Client) StripAnnotations(ctx context.Context, body []byte) ([]byte, error) {
	resp, clean, err := c.do(ctx, http.MethodPost, "/strip-annotations", "application/pdf", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if isJSON(resp) {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(clean, &e)
		return nil, converterError(resp.StatusCode, e.Error)
	}
	return clean, nil
}

// do issues one request through the circuit breaker and reads the whole
// response body. Non-2xx JSON responses are left to the caller, which
// knows how to extract the server's error string; other non-2xx
// responses become generic status errors.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, []byte, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return nil, err
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode >= 400 && !isJSON(resp) {
			return nil, fmt.Errorf("converter returned status %d", resp.StatusCode)
		}
		return &response{resp: resp, body: data}, nil
	})
	if err != nil {
		return nil, nil, pkgerrors.NewUnavailable("converter request failed", err)
	}
	r := result.(*response)
	return r.resp, r.body, nil
}

type response struct {
	resp *http.Response
	body []byte
}

func isJSON(resp *http.Response) bool {
	return strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json")
}

// converterError prefers the server-supplied error string, falling back
// to a generic status-based message.
func converterError(status int, serverMsg string) error {
	if serverMsg != "" {
		return pkgerrors.NewUnavailable(serverMsg, nil)
	}
	return pkgerrors.NewUnavailable(fmt.Sprintf("converter returned status %d", status), nil)
}
