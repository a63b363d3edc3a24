package cfg

import (
	"cmp"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Feed retrieval
	FeedsDir            string `long:"feeds-dir" env:"FEEDS_DIR" default:"./feeds" description:"Directory containing named feed configuration files"`
	UserAgent           string `long:"user-agent" env:"USER_AGENT" default:"feed-reader/1.0" description:"User agent string for HTTP requests"`
	Timeout             int    `long:"timeout" env:"TIMEOUT" default:"30" description:"HTTP timeout in seconds per feed"`
	MaxResponseSize     int64  `long:"max-response-size" env:"MAX_RESPONSE_SIZE" default:"10485760" description:"Maximum feed document size in bytes"`
	MaxDecodeIterations int    `long:"max-decode-iterations" env:"MAX_DECODE_ITERATIONS" default:"5" description:"Entity decoding passes before a text value is discarded"`
	ThrowOnError        bool   `long:"throw-on-error" env:"THROW_ON_ERROR" description:"Fail on the first retrieval error instead of logging it"`
	ExtractContent      bool   `long:"extract-content" env:"EXTRACT_CONTENT" description:"Run readability over HTML item bodies"`

	// HTTP service
	Serve        bool   `long:"serve" env:"SERVE" description:"Run the HTTP service instead of printing feed items"`
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl      string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://feeds.example.com)"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`

	Args struct {
		Locations []string `positional-arg-name:"LOCATION" description:"Feed URLs or file paths to read"`
	} `positional-args:"yes"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	return LoadArgs(os.Args[1:])
}

// LoadArgs parses args and the environment. It returns nil, nil when help was requested.
func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if raw.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %d", raw.Timeout)
	}
	if raw.MaxResponseSize <= 0 {
		return nil, fmt.Errorf("max response size must be positive, got %d", raw.MaxResponseSize)
	}
	if raw.MaxDecodeIterations <= 0 {
		return nil, fmt.Errorf("max decode iterations must be positive, got %d", raw.MaxDecodeIterations)
	}

	cfg := &Cfg{
		FeedsDir:            raw.FeedsDir,
		UserAgent:           raw.UserAgent,
		Timeout:             raw.Timeout,
		MaxResponseSize:     raw.MaxResponseSize,
		MaxDecodeIterations: raw.MaxDecodeIterations,
		ThrowOnError:        raw.ThrowOnError,
		ExtractContent:      raw.ExtractContent,
		Serve:               raw.Serve,
		Port:                raw.Port,
		BaseUrl:             raw.BaseUrl,
		APIAccessKey:        raw.APIAccessKey,
		Locations:           raw.Args.Locations,
		Timezone:            raw.Timezone,
		Debug:               raw.Debug,
		Version:             GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		loc, err := time.LoadLocation(timezone)
		if err != nil {
			return err
		}
		time.Local = loc
	}
	return nil
}
