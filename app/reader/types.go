package reader

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lysyi3m/feed-reader/app/feed"
)

const (
	DefaultTimeout         = 30 * time.Second
	DefaultMaxResponseSize = 10 << 20
	DefaultUserAgent       = "feed-reader/dev"
)

var (
	ErrFeedNotFound     = errors.New("feed not found")
	ErrResponseTooLarge = errors.New("feed exceeds maximum response size")
)

// Options configures a Reader. Zero values select the defaults.
type Options struct {
	Normalizer      feed.Normalizer[*feed.Item]
	ThrowOnError    bool
	HTTPClient      *http.Client
	UserAgent       string
	Timeout         time.Duration
	MaxResponseSize int64
	Feeds           map[string]string // feed name -> location
}

// HTTPError is returned when a feed URL answers with a non-2xx status.
type HTTPError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error fetching %s: %s", e.URL, e.Status)
}
