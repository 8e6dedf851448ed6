package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/education-choropleth/internal/domain"
)

const (
	DefaultTopologyURL  = "https://cdn.freecodecamp.org/testable-projects-fcc/data/choropleth_map/counties.json"
	DefaultEducationURL = "https://cdn.freecodecamp.org/testable-projects-fcc/data/choropleth_map/for_user_education.json"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	TopologyURL  string
	EducationURL string
	FetchTimeout time.Duration

	Palette         domain.Palette
	RenderCacheSize int
	OutputPath      string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Export of joined county records; disabled when no brokers are set.
	KafkaBrokers  []string
	KafkaTopic    string
	ExportEnabled bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("FETCH_TIMEOUT", "10s"))
	if err != nil || fetchTimeout <= 0 {
		return nil, errors.New("invalid FETCH_TIMEOUT")
	}

	paletteSize, err := strconv.Atoi(sharedcfg.EnvOrDefault("PALETTE_SIZE", strconv.Itoa(domain.DefaultPaletteSize)))
	if err != nil {
		return nil, errors.New("invalid PALETTE_SIZE")
	}
	palette, err := domain.PaletteFor(sharedcfg.EnvOrDefault("PALETTE_SCHEME", domain.DefaultScheme), paletteSize)
	if err != nil {
		return nil, fmt.Errorf("invalid PALETTE_SCHEME/PALETTE_SIZE: %w", err)
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		TopologyURL:     sharedcfg.EnvOrDefault("TOPOLOGY_URL", DefaultTopologyURL),
		EducationURL:    sharedcfg.EnvOrDefault("EDUCATION_URL", DefaultEducationURL),
		FetchTimeout:    fetchTimeout,
		Palette:         palette,
		RenderCacheSize: parseRenderCacheSize(),
		OutputPath:      os.Getenv("OUTPUT_PATH"),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		KafkaBrokers:    brokers,
		KafkaTopic:      sharedcfg.EnvOrDefault("KAFKA_TOPIC", "county-education"),
		ExportEnabled:   len(brokers) > 0,
	}

	if cfg.TopologyURL == "" {
		return nil, errors.New("TOPOLOGY_URL is required")
	}
	if cfg.EducationURL == "" {
		return nil, errors.New("EDUCATION_URL is required")
	}
	if cfg.ExportEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func parseRenderCacheSize() int {
	if s := os.Getenv("RENDER_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 16
}
