// Package detector is the HTTP client for the optional symbol-detection
// sidecar.
package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"markup-backend/application/ports"
	pkgerrors "markup-backend/pkg/errors"
)

// Client calls the detection service. The service is slow (model
// inference per page) so the client carries its own, longer timeout.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

var _ ports.DetectorService = (*Client)(nil)

// NewClient creates a detector client, or nil when no base URL is
// configured so callers can treat detection as absent.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if baseURL == "" {
		return nil
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Detect runs the requested models against a document already known to
// the backend and returns page-normalized detection boxes.
func (c *Client) Detect(ctx context.Context, filename string, models []string) ([]ports.Detection, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"filename": filename,
		"models":   models,
	})
	if err != nil {
		return nil, pkgerrors.NewInternal("failed to encode detect request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/detect", bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.NewInternal("failed to build detect request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, pkgerrors.NewUnavailable("detector request failed", err)
	}
	defer resp.Body.Close()

	var result struct {
		Detections []ports.Detection `json:"detections"`
		Error      string            `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, pkgerrors.NewUnavailable("unreadable detector response", err)
	}
	if resp.StatusCode >= 400 {
		if result.Error != "" {
			return nil, pkgerrors.NewUnavailable(result.Error, nil)
		}
		return nil, pkgerrors.NewUnavailable(fmt.Sprintf("detector returned status %d", resp.StatusCode), nil)
	}

	c.logger.Debug("Detection complete",
		zap.String("filename", filename),
		zap.Int("detections", len(result.Detections)),
	)
	return result.Detections, nil
}
