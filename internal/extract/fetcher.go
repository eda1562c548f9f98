package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// pageUserAgent matches a regular browser; the merchant portal serves an
// interstitial to unknown clients.
const pageUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// maxPageBytes bounds the fallback fetch response size.
const maxPageBytes = 2 << 20

// pageFetcher implements PageFetcher with a hard client timeout.
type pageFetcher struct {
	client *http.Client
	logger zerolog.Logger
}

// NewPageFetcher creates a PageFetcher whose requests never outlive timeout.
func NewPageFetcher(timeout time.Duration, logger zerolog.Logger) PageFetcher {
	return &pageFetcher{
		client: &http.Client{Timeout: timeout},
		logger: logger.With().Str("component", "page-fetcher").Logger(),
	}
}

// Fetch issues a single GET and returns the page body as text.
func (f *pageFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build page request: %w", err)
	}
	req.Header.Set("User-Agent", pageUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch voucher page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("voucher page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read voucher page: %w", err)
	}

	f.logger.Debug().Int("bytes", len(body)).Msg("voucher page fetched")

	return string(body), nil
}
