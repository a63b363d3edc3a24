package reader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const acceptHeader = "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.5"

type fetcher struct {
	httpClient      *http.Client
	userAgent       string
	timeout         time.Duration
	maxResponseSize int64
}

// Run loads the raw document behind a location: absolute http(s) URLs are
// fetched, anything else must name an existing local file. Surrounding
// whitespace is not part of the location.
func (f *fetcher) Run(ctx context.Context, location string) ([]byte, error) {
	location = strings.TrimSpace(location)

	if isHTTPURL(location) {
		return f.fetchHTTP(ctx, location)
	}

	info, err := os.Stat(location)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrFeedNotFound, location)
	}

	file, err := os.Open(location)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return f.readLimited(file)
}

func (f *fetcher) fetchHTTP(ctx context.Context, location string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", acceptHeader)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{URL: location, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	return f.readLimited(resp.Body)
}

func (f *fetcher) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, f.maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > f.maxResponseSize {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrResponseTooLarge, f.maxResponseSize)
	}
	return data, nil
}

func isHTTPURL(location string) bool {
	parsed, err := url.Parse(location)
	if err != nil || parsed.Host == "" {
		return false
	}
	return strings.EqualFold(parsed.Scheme, "http") || strings.EqualFold(parsed.Scheme, "https")
}
