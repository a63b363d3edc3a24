package reader

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"

	"github.com/lysyi3m/feed-reader/app/feed"
	"github.com/lysyi3m/feed-reader/app/syndication"
	"golang.org/x/sync/errgroup"
)

// Reader retrieves RSS and Atom feeds from URLs, local files or streams and
// normalizes their entries.
//
// With ThrowOnError unset, failures are logged and an empty result is returned
// in place of the error.
type Reader struct {
	normalizer   feed.Normalizer[*feed.Item]
	throwOnError bool
	feeds        map[string]string
	parser       *syndication.Parser
	fetcher      *fetcher
}

func NewReader(opts Options) *Reader {
	normalizer := opts.Normalizer
	if normalizer == nil {
		normalizer = feed.NewDefaultNormalizer(nil)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	feeds := make(map[string]string, len(opts.Feeds))
	for name, location := range opts.Feeds {
		feeds[name] = location
	}

	return &Reader{
		normalizer:   normalizer,
		throwOnError: opts.ThrowOnError,
		feeds:        feeds,
		parser:       syndication.NewParser(),
		fetcher: &fetcher{
			httpClient:      httpClient,
			userAgent:       cmp.Or(opts.UserAgent, DefaultUserAgent),
			timeout:         cmp.Or(opts.Timeout, DefaultTimeout),
			maxResponseSize: cmp.Or(opts.MaxResponseSize, DefaultMaxResponseSize),
		},
	}
}

func (r *Reader) Normalizer() feed.Normalizer[*feed.Item] {
	return r.normalizer
}

func (r *Reader) ThrowOnError() bool {
	return r.throwOnError
}

// FeedNames returns the configured feed names in sorted order.
func (r *Reader) FeedNames() []string {
	names := make([]string, 0, len(r.feeds))
	for name := range r.feeds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Location resolves a configured feed name.
func (r *Reader) Location(name string) (string, error) {
	location, ok := r.feeds[name]
	if !ok {
		return "", fmt.Errorf("%w: no feed named %q", ErrFeedNotFound, name)
	}
	return location, nil
}

// Fetch loads and parses the feed at location. It always reports errors,
// regardless of ThrowOnError.
func (r *Reader) Fetch(ctx context.Context, location string) (*syndication.Feed, error) {
	data, err := r.fetcher.Run(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to load feed %s: %w", location, err)
	}

	source, err := r.parser.Run(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", location, err)
	}

	return source, nil
}

func (r *Reader) RetrieveFeed(ctx context.Context, location string) ([]*feed.Item, error) {
	return RetrieveFeedWith(ctx, r, r.normalizer, location)
}

func (r *Reader) RetrieveFeeds(ctx context.Context, locations []string) ([]*feed.Item, error) {
	return RetrieveFeedsWith(ctx, r, r.normalizer, locations)
}

func (r *Reader) RetrieveNamedFeed(ctx context.Context, name string) ([]*feed.Item, error) {
	location, err := r.Location(name)
	if err != nil {
		return recoverError[*feed.Item](r, err, "feed", name)
	}
	return r.RetrieveFeed(ctx, location)
}

func (r *Reader) Read(ctx context.Context, src io.Reader) ([]*feed.Item, error) {
	return ReadWith(ctx, r, r.normalizer, src)
}

// RetrieveFeedWith retrieves a single feed and maps its entries with normalizer.
func RetrieveFeedWith[T any](ctx context.Context, r *Reader, normalizer feed.Normalizer[T], location string) ([]T, error) {
	items, err := retrieve(ctx, r, normalizer, location)
	if err != nil {
		return recoverError[T](r, err, "location", location)
	}
	return items, nil
}

// RetrieveFeedsWith retrieves all locations concurrently. Items keep their
// order within a feed and feeds are concatenated in the order given.
func RetrieveFeedsWith[T any](ctx context.Context, r *Reader, normalizer feed.Normalizer[T], locations []string) ([]T, error) {
	results := make([][]T, len(locations))

	g, gctx := errgroup.WithContext(ctx)
	for i, location := range locations {
		g.Go(func() error {
			items, err := retrieve(gctx, r, normalizer, location)
			if err != nil {
				if r.throwOnError {
					return err
				}
				slog.Error("Feed retrieval failed", "location", location, "error", err)
				return nil
			}
			results[i] = items
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, items := range results {
		total += len(items)
	}

	merged := make([]T, 0, total)
	for _, items := range results {
		merged = append(merged, items...)
	}
	return merged, nil
}

// ReadWith parses a feed document from src.
func ReadWith[T any](ctx context.Context, r *Reader, normalizer feed.Normalizer[T], src io.Reader) ([]T, error) {
	items, err := read(ctx, r, normalizer, src)
	if err != nil {
		return recoverError[T](r, err, "location", "stream")
	}
	return items, nil
}

// NormalizeFeed maps every entry of source, stopping at the first error.
func NormalizeFeed[T any](source *syndication.Feed, normalizer feed.Normalizer[T]) ([]T, error) {
	items := make([]T, 0, len(source.Items))
	for i, item := range source.Items {
		normalized, err := normalizer.Normalize(source, item)
		if err != nil {
			return nil, fmt.Errorf("failed to normalize item %d: %w", i, err)
		}
		items = append(items, normalized)
	}
	return items, nil
}

func retrieve[T any](ctx context.Context, r *Reader, normalizer feed.Normalizer[T], location string) ([]T, error) {
	if normalizer == nil {
		return nil, fmt.Errorf("normalizer is nil")
	}

	source, err := r.Fetch(ctx, location)
	if err != nil {
		return nil, err
	}

	items, err := NormalizeFeed(source, normalizer)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize feed %s: %w", location, err)
	}
	return items, nil
}

func read[T any](ctx context.Context, r *Reader, normalizer feed.Normalizer[T], src io.Reader) ([]T, error) {
	if src == nil {
		return nil, fmt.Errorf("source reader is nil")
	}
	if normalizer == nil {
		return nil, fmt.Errorf("normalizer is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := r.fetcher.readLimited(src)
	if err != nil {
		return nil, err
	}

	source, err := r.parser.Run(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	return NormalizeFeed(source, normalizer)
}

func recoverError[T any](r *Reader, err error, args ...any) ([]T, error) {
	if r.throwOnError {
		return nil, err
	}
	slog.Error("Feed retrieval failed", append(args, "error", err)...)
	return []T{}, nil
}
