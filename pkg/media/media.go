// Package media removes uploaded media assets when the questions that
// reference them are deleted. Deletion is best-effort: a failed removal
// leaves an orphaned asset behind but never blocks or fails the graph
// mutation that triggered it.
package media

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/joey603/surveypro/pkg/cache"
	"github.com/joey603/surveypro/pkg/core/flow"
)

// Deleter removes a media asset from its storage backend.
type Deleter interface {
	Delete(ctx context.Context, ref flow.MediaRef) error
}

// =============================================================================
// HTTPDeleter - Remote Asset Removal
// =============================================================================

// HTTPDeleter removes assets by issuing DELETE requests against the URL
// stored on the media reference. Transient failures (network errors and
// 5xx responses) are retried with backoff.
type HTTPDeleter struct {
	client *http.Client
}

// NewHTTPDeleter creates a deleter with a bounded request timeout.
func NewHTTPDeleter(client *http.Client) *HTTPDeleter {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPDeleter{client: client}
}

func (d *HTTPDeleter) Delete(ctx context.Context, ref flow.MediaRef) error {
	if ref.URL == "" {
		return fmt.Errorf("media %s: no url", ref.ID)
	}

	return cache.RetryWithBackoff(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, ref.URL, nil)
		if err != nil {
			return fmt.Errorf("build delete request: %w", err)
		}

		resp, err := d.client.Do(req)
		if err != nil {
			return cache.Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 500:
			return cache.Retryable(fmt.Errorf("%w: status %d", cache.ErrNetwork, resp.StatusCode))
		case resp.StatusCode == http.StatusNotFound:
			// Already gone; treat as success.
			return nil
		case resp.StatusCode >= 400:
			return fmt.Errorf("delete media %s: status %d", ref.ID, resp.StatusCode)
		}
		return nil
	})
}

var _ Deleter = (*HTTPDeleter)(nil)

// =============================================================================
// NopDeleter
// =============================================================================

// NopDeleter discards deletions. Used in tests and when no media
// backend is configured.
type NopDeleter struct{}

func (NopDeleter) Delete(context.Context, flow.MediaRef) error { return nil }

var _ Deleter = NopDeleter{}
