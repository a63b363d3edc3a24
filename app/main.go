package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/feed-reader/app/api"
	"github.com/lysyi3m/feed-reader/app/cfg"
	"github.com/lysyi3m/feed-reader/app/feed"
	"github.com/lysyi3m/feed-reader/app/reader"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	configCache := feed.NewConfigCache(appCfg.FeedsDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load feed configurations", "error", err)
		os.Exit(1)
	}
	slog.Debug("Feed configurations loaded", "count", configCache.GetConfigCount(), "dir", appCfg.FeedsDir)

	var normalizer feed.Normalizer[*feed.Item] = feed.NewDefaultNormalizer(feed.NewTextNormalizer(appCfg.MaxDecodeIterations))
	if appCfg.ExtractContent {
		normalizer = feed.NewArticleNormalizer(normalizer)
	}

	feedReader := reader.NewReader(reader.Options{
		Normalizer:      normalizer,
		ThrowOnError:    appCfg.ThrowOnError,
		UserAgent:       appCfg.UserAgent,
		Timeout:         time.Duration(appCfg.Timeout) * time.Second,
		MaxResponseSize: appCfg.MaxResponseSize,
		Feeds:           configCache.GetFeedURLs(),
	})

	if appCfg.Serve {
		if err := serve(appCfg, configCache, feedReader); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := printItems(appCfg, feedReader); err != nil {
		slog.Error("Failed to read feeds", "error", err)
		os.Exit(1)
	}
}

// printItems writes the items of the given locations, or of every named feed
// when none are given, to stdout as JSON.
func printItems(appCfg *cfg.Cfg, feedReader *reader.Reader) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	locations := appCfg.Locations
	if len(locations) == 0 {
		for _, name := range feedReader.FeedNames() {
			location, err := feedReader.Location(name)
			if err != nil {
				return err
			}
			locations = append(locations, location)
		}
	}
	if len(locations) == 0 {
		return fmt.Errorf("no feed locations given and no feeds configured in %s", appCfg.FeedsDir)
	}

	items, err := feedReader.RetrieveFeeds(ctx, locations)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(api.NewItemResponses(items))
}

func serve(appCfg *cfg.Cfg, configCache *feed.ConfigCache, feedReader *reader.Reader) error {
	slog.Info("Starting feed reader", "version", appCfg.Version, "port", appCfg.Port, "feeds", configCache.GetConfigCount())

	handler := api.NewHandler(configCache, feedReader, feed.NewFilterer(), feed.NewGenerator(appCfg.BaseUrl, appCfg.Version))

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      api.NewServer(handler, appCfg.APIAccessKey),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Duration(appCfg.Timeout)*time.Second + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig)
	case err := <-serverErrChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}

	slog.Info("Feed reader stopped")
	return nil
}
