package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // FEED_TIMEZONE must resolve in minimal images

	"github.com/couchcryptid/seismic-map/internal/projection"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Map drawing area and projection.
	MapWidth   float64
	MapHeight  float64
	Projection string

	// Static datasets.
	ContinentsPath  string
	ContinentsKey   string
	PlatesPath      string
	PlatesKey       string
	LayerStylesPath string

	// Seismic feed.
	FeedURL       string
	FeedTimeout   time.Duration
	FeedTimezone  *time.Location
	FeedLookback  time.Duration
	FeedCacheSize int

	// Change notifications.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	FrameInterval time.Duration
	FadeDuration  time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	width, err := parsePositiveFloat("MAP_WIDTH", "800")
	if err != nil {
		return nil, err
	}
	height, err := parsePositiveFloat("MAP_HEIGHT", "480")
	if err != nil {
		return nil, err
	}

	proj := sharedcfg.EnvOrDefault("PROJECTION", "winkel3")
	if _, err := projection.ByName(proj); err != nil {
		return nil, fmt.Errorf("invalid PROJECTION: %w", err)
	}

	feedTimeout, err := parsePositiveDuration("FEED_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	lookback, err := parsePositiveDuration("FEED_LOOKBACK", "168h")
	if err != nil {
		return nil, err
	}
	frameInterval, err := parsePositiveDuration("FRAME_INTERVAL", "16ms")
	if err != nil {
		return nil, err
	}
	fade, err := parsePositiveDuration("FADE_DURATION", "500ms")
	if err != nil {
		return nil, err
	}

	tz, err := time.LoadLocation(sharedcfg.EnvOrDefault("FEED_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid FEED_TIMEZONE: %w", err)
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		MapWidth:   width,
		MapHeight:  height,
		Projection: proj,

		ContinentsPath:  sharedcfg.EnvOrDefault("CONTINENTS_PATH", "data/continents.json"),
		ContinentsKey:   sharedcfg.EnvOrDefault("CONTINENTS_KEY", "CONTINENT"),
		PlatesPath:      sharedcfg.EnvOrDefault("PLATES_PATH", "data/tectonic_plates.json"),
		PlatesKey:       sharedcfg.EnvOrDefault("PLATES_KEY", "PlateName"),
		LayerStylesPath: os.Getenv("LAYER_STYLES_PATH"),

		FeedURL:       sharedcfg.EnvOrDefault("FEED_URL", "https://earthquake.usgs.gov/fdsnws/event/1/query"),
		FeedTimeout:   feedTimeout,
		FeedTimezone:  tz,
		FeedLookback:  lookback,
		FeedCacheSize: parseFeedCacheSize(),

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "seismic-layer-changes"),

		FrameInterval: frameInterval,
		FadeDuration:  fade,
	}

	if cfg.ContinentsPath == "" {
		return nil, errors.New("CONTINENTS_PATH is required")
	}
	if cfg.PlatesPath == "" {
		return nil, errors.New("PLATES_PATH is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveFloat(key, def string) (float64, error) {
	f, err := strconv.ParseFloat(sharedcfg.EnvOrDefault(key, def), 64)
	if err != nil || !(f > 0) {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return f, nil
}

func parseFeedCacheSize() int {
	if s := os.Getenv("FEED_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 64
}
