// Package remote implements the client for the upstream file-processing API.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/file-tracker/backend/internal/logging"
	"github.com/file-tracker/backend/internal/models"
)

// Client is the read-only interface to the upstream service. It is stateless
// per call; all state lives in the cache.
type Client interface {
	// ListFiles returns up to limit listing entries starting at offset.
	// Upstream failures that are not transport errors yield an empty slice.
	ListFiles(ctx context.Context, offset, limit int) ([]models.ListEntry, error)

	// FileDetails returns the metadata object for a file. Any non-200
	// response is an error.
	FileDetails(ctx context.Context, fileID string) (map[string]any, error)

	// FileSegments returns the segment list for a file. Any non-200
	// response is an error.
	FileSegments(ctx context.Context, fileID string) ([]any, error)
}

// HTTPClient talks to the upstream API over HTTP with a bounded per-request
// timeout.
type HTTPClient struct {
	baseURI string
	httpc   *http.Client
	log     zerolog.Logger
}

// NewHTTPClient creates a client for the given base URI.
func NewHTTPClient(baseURI string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURI: baseURI,
		httpc:   &http.Client{Timeout: timeout},
		log:     logging.Component("remote"),
	}
}

// ListFiles fetches a page of the upstream file listing. A non-200 response
// is logged and treated as an empty page; transport errors are returned.
func (c *HTTPClient) ListFiles(ctx context.Context, offset, limit int) ([]models.ListEntry, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURI+"/file/all?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building listing request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing files at offset %d: %w", offset, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode).Int("offset", offset).
			Msg("file listing request failed")
		return nil, nil
	}

	var entries []models.ListEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decoding listing response: %w", err)
	}
	return entries, nil
}

// FileDetails fetches the metadata object for a file.
func (c *HTTPClient) FileDetails(ctx context.Context, fileID string) (map[string]any, error) {
	var details map[string]any
	if err := c.getJSON(ctx, c.baseURI+"/file/details/"+url.PathEscape(fileID), &details); err != nil {
		return nil, fmt.Errorf("file details for %s: %w", fileID, err)
	}
	return details, nil
}

// FileSegments fetches the segment list for a file.
func (c *HTTPClient) FileSegments(ctx context.Context, fileID string) ([]any, error) {
	var segments []any
	if err := c.getJSON(ctx, c.baseURI+"/file/segments/"+url.PathEscape(fileID), &segments); err != nil {
		return nil, fmt.Errorf("file segments for %s: %w", fileID, err)
	}
	return segments, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

var _ Client = (*HTTPClient)(nil)
