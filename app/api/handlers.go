package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/feed-reader/app/feed"
	"github.com/lysyi3m/feed-reader/app/reader"
	"github.com/lysyi3m/feed-reader/app/syndication"
)

func NewHandler(configCache *feed.ConfigCache, r *reader.Reader, filterer *feed.Filterer, generator GeneratorInterface) *Handler {
	return &Handler{
		reader:      r,
		generator:   generator,
		configCache: configCache,
		filterer:    filterer,
	}
}

func (h *Handler) GetFeed(c *gin.Context) {
	name := c.Param("name")

	feedConfig, status := h.enabledConfig(name)
	if status != http.StatusOK {
		c.Status(status)
		return
	}

	source, items, err := h.retrieve(c.Request.Context(), feedConfig)
	if err != nil {
		slog.Error("Feed retrieval failed", "feed", name, "error", err)
		c.Status(http.StatusBadGateway)
		return
	}

	rss, err := h.generator.Run(name, source, items)
	if err != nil {
		slog.Error("RSS generation error", "feed", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(items)))
	c.Header("X-Feed-Name", name)

	c.String(http.StatusOK, rss)
}

func (h *Handler) GetFeedItems(c *gin.Context) {
	name := c.Param("name")

	feedConfig, status := h.enabledConfig(name)
	if status != http.StatusOK {
		c.JSON(status, gin.H{"error": http.StatusText(status)})
		return
	}

	_, items, err := h.retrieve(c.Request.Context(), feedConfig)
	if err != nil {
		slog.Error("Feed retrieval failed", "feed", name, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Feed retrieval failed", "details": err.Error()})
		return
	}

	c.Header("X-Feed-Items", strconv.Itoa(len(items)))
	c.JSON(http.StatusOK, NewItemResponses(items))
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"timestamp":             time.Now().In(time.Local).Format(time.RFC3339),
		"loaded_configurations": h.configCache.GetConfigCount(),
	})
}

func (h *Handler) APIListFeeds(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	feeds := make([]gin.H, 0, len(configs))
	for _, feedConfig := range configs {
		feeds = append(feeds, gin.H{
			"name":            feedConfig.Name,
			"url":             feedConfig.URL,
			"enabled":         feedConfig.Settings.Enabled,
			"max_items":       feedConfig.Settings.MaxItems,
			"timeout":         (time.Duration(feedConfig.Settings.Timeout) * time.Second).String(),
			"extract_content": feedConfig.Settings.ExtractContent,
			"filters":         len(feedConfig.Filters),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"feeds": feeds,
		"total": len(feeds),
	})
}

func (h *Handler) APIReloadFeed(c *gin.Context) {
	name := c.Param("name")

	if _, err := h.configCache.GetConfig(name); err != nil {
		slog.Error("Feed configuration not found", "feed", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed configuration not found"})
		return
	}

	feedConfig, err := h.configCache.LoadConfig(name)
	if err != nil {
		slog.Error("Error reloading configuration", "feed", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to reload configuration",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Configuration reloaded successfully",
		"feed": gin.H{
			"name":    name,
			"url":     feedConfig.URL,
			"enabled": feedConfig.Settings.Enabled,
		},
	})
}

func (h *Handler) enabledConfig(name string) (*feed.Config, int) {
	feedConfig, err := h.configCache.GetConfig(name)
	if err != nil {
		slog.Debug("Feed configuration not found", "feed", name, "error", err)
		return nil, http.StatusNotFound
	}
	if !feedConfig.Settings.Enabled {
		slog.Debug("Feed disabled", "feed", name)
		return nil, http.StatusNotFound
	}
	return feedConfig, http.StatusOK
}

// retrieve fetches the configured feed and returns its normalized, filtered
// items capped at the configured maximum.
func (h *Handler) retrieve(ctx context.Context, feedConfig *feed.Config) (*syndication.Feed, []*feed.Item, error) {
	if feedConfig.Settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(feedConfig.Settings.Timeout)*time.Second)
		defer cancel()
	}

	source, err := h.reader.Fetch(ctx, feedConfig.URL)
	if err != nil {
		return nil, nil, err
	}

	items, err := reader.NormalizeFeed(source, feedNormalizer(h.reader.Normalizer(), feedConfig.Settings))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to normalize feed %s: %w", feedConfig.Name, err)
	}

	items = h.filterer.Run(items, feedConfig)
	if feedConfig.Settings.MaxItems > 0 && len(items) > feedConfig.Settings.MaxItems {
		items = items[:feedConfig.Settings.MaxItems]
	}

	slog.Debug("Feed retrieved", "feed", feedConfig.Name, "items", len(items))

	return source, items, nil
}

// feedNormalizer adds article extraction for feeds that ask for it, unless
// the reader's normalizer already extracts.
func feedNormalizer(base feed.Normalizer[*feed.Item], settings feed.ConfigSettings) feed.Normalizer[*feed.Item] {
	if !settings.ExtractContent {
		return base
	}
	if _, ok := base.(*feed.ArticleNormalizer); ok {
		return base
	}
	return feed.NewArticleNormalizer(base)
}
