package feed

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

var ErrFeedNotConfigured = errors.New("feed is not configured")

const (
	defaultMaxItems = 100
	defaultTimeout  = 30
)

// ConfigCache holds the named feeds declared as one YAML file per feed.
type ConfigCache struct {
	feedsDir string
	cache    map[string]*Config
	mu       sync.RWMutex
}

func NewConfigCache(feedsDir string) *ConfigCache {
	return &ConfigCache{
		feedsDir: feedsDir,
		cache:    make(map[string]*Config),
	}
}

func (cc *ConfigCache) Run() error {
	if cc.feedsDir == "" {
		return nil
	}
	if _, err := os.Stat(cc.feedsDir); os.IsNotExist(err) {
		slog.Debug("Feeds directory does not exist", "dir", cc.feedsDir)
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.feedsDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		feedName := strings.TrimSuffix(filepath.Base(file), ".yml")

		config, err := cc.LoadConfig(feedName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Configuration loaded", "feed", feedName, "enabled", config.Settings.Enabled, "extract_content", config.Settings.ExtractContent)
	}

	return nil
}

func (cc *ConfigCache) LoadConfig(feedName string) (*Config, error) {
	configFile := filepath.Join(cc.feedsDir, feedName+".yml")
	feedConfig, err := cc.parseConfig(configFile)
	if err != nil {
		return nil, err
	}

	feedConfig.Name = feedName

	if err := cc.validateConfig(feedConfig); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[feedConfig.Name] = feedConfig

	return feedConfig, nil
}

func (cc *ConfigCache) GetConfig(feedName string) (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	feedConfig, ok := cc.cache[feedName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFeedNotConfigured, feedName)
	}
	return feedConfig, nil
}

// GetConfigs returns the configured feeds sorted by name.
func (cc *ConfigCache) GetConfigs() []*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	configs := make([]*Config, 0, len(cc.cache))
	for _, v := range cc.cache {
		configs = append(configs, v)
	}
	sort.Slice(configs, func(i, j int) bool { return configs[i].Name < configs[j].Name })
	return configs
}

// GetFeedURLs maps the name of every enabled feed to its location.
func (cc *ConfigCache) GetFeedURLs() map[string]string {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	urls := make(map[string]string)
	for name, v := range cc.cache {
		if v.Settings.Enabled {
			urls[name] = v.URL
		}
	}
	return urls
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func (cc *ConfigCache) parseConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	feedConfig := Config{Settings: ConfigSettings{Enabled: true}}
	if err := yaml.Unmarshal(data, &feedConfig); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if feedConfig.Settings.MaxItems == 0 {
		feedConfig.Settings.MaxItems = defaultMaxItems
	}
	if feedConfig.Settings.Timeout == 0 {
		feedConfig.Settings.Timeout = defaultTimeout
	}

	return &feedConfig, nil
}

func (cc *ConfigCache) validateConfig(feedConfig *Config) error {
	if feedConfig.URL == "" {
		return fmt.Errorf("feed URL is required")
	}

	if feedConfig.Settings.MaxItems < 0 {
		return fmt.Errorf("max items must be non-negative")
	}
	if feedConfig.Settings.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}

	validFields := map[string]bool{
		"title":      true,
		"content":    true,
		"summary":    true,
		"categories": true,
		"uri":        true,
	}

	for i, filter := range feedConfig.Filters {
		if !validFields[filter.Field] {
			return fmt.Errorf("invalid filter field at index %d: %s", i, filter.Field)
		}
		if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
			return fmt.Errorf("filter at index %d must have at least one include or exclude rule", i)
		}
	}

	return nil
}
