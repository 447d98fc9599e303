package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Ingest sources selectable with INGEST_SOURCE.
const (
	SourceFIRMS = "firms"
	SourceKafka = "kafka"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	IngestSource string

	// FIRMS area API.
	FIRMSAPIKey       string
	FIRMSBaseURL      string
	FIRMSSource       string
	FIRMSArea         string
	FIRMSDayRange     int
	FIRMSDate         string
	FIRMSPollInterval time.Duration
	FIRMSTimeout      time.Duration

	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	KafkaSinkEnabled bool

	HTTPAddr           string
	CORSAllowedOrigins []string
	RateLimitRPM       int

	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	StoreRetention time.Duration

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
	MapboxCacheTTL  time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	mapboxCacheTTL, err := parsePositiveDuration("MAPBOX_CACHE_TTL", "24h")
	if err != nil {
		return nil, err
	}
	pollInterval, err := parsePositiveDuration("FIRMS_POLL_INTERVAL", "10m")
	if err != nil {
		return nil, err
	}
	firmsTimeout, err := parsePositiveDuration("FIRMS_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	retention, err := parsePositiveDuration("STORE_RETENTION", "48h")
	if err != nil {
		return nil, err
	}

	dayRange, err := parseIntInRange("FIRMS_DAY_RANGE", 1, 1, 10)
	if err != nil {
		return nil, err
	}
	rateLimit, err := parseIntInRange("RATE_LIMIT_RPM", 120, 1, 100000)
	if err != nil {
		return nil, err
	}
	mapboxCacheSize, err := parseIntInRange("MAPBOX_CACHE_SIZE", 1000, 1, 1000000)
	if err != nil {
		return nil, err
	}

	firmsDate := strings.TrimSpace(os.Getenv("FIRMS_DATE"))
	if firmsDate != "" {
		if _, err := time.Parse(time.DateOnly, firmsDate); err != nil {
			return nil, fmt.Errorf("invalid FIRMS_DATE %q: want YYYY-MM-DD", firmsDate)
		}
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		IngestSource: strings.ToLower(sharedcfg.EnvOrDefault("INGEST_SOURCE", SourceFIRMS)),

		FIRMSAPIKey:       os.Getenv("FIRMS_API_KEY"),
		FIRMSBaseURL:      strings.TrimRight(sharedcfg.EnvOrDefault("FIRMS_BASE_URL", "https://firms.modaps.eosdis.nasa.gov"), "/"),
		FIRMSSource:       sharedcfg.EnvOrDefault("FIRMS_SOURCE", "VIIRS_SNPP_NRT"),
		FIRMSArea:         sharedcfg.EnvOrDefault("FIRMS_AREA", "world"),
		FIRMSDayRange:     dayRange,
		FIRMSDate:         firmsDate,
		FIRMSPollInterval: pollInterval,
		FIRMSTimeout:      firmsTimeout,

		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic: sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "raw-fire-detections"),
		KafkaSinkTopic:   sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "classified-fire-detections"),
		KafkaGroupID:     sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "fire-hotspot-etl"),
		KafkaSinkEnabled: os.Getenv("KAFKA_SINK_ENABLED") == "true",

		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		CORSAllowedOrigins: parseList(sharedcfg.EnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		RateLimitRPM:       rateLimit,

		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
		StoreRetention:     retention,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: mapboxCacheSize,
		MapboxCacheTTL:  mapboxCacheTTL,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SnapshotRetention is the store retention to use. A pinned FIRMS_DATE
// serves a fixed historic snapshot, which is never pruned.
func (c *Config) SnapshotRetention() time.Duration {
	if c.IngestSource == SourceFIRMS && c.FIRMSDate != "" {
		return 0
	}
	return c.StoreRetention
}

func (c *Config) validate() error {
	switch c.IngestSource {
	case SourceFIRMS:
		if c.FIRMSAPIKey == "" {
			return errors.New("FIRMS_API_KEY is required when INGEST_SOURCE=firms")
		}
		if c.FIRMSSource == "" || c.FIRMSArea == "" {
			return errors.New("FIRMS_SOURCE and FIRMS_AREA must not be empty")
		}
	case SourceKafka:
		if c.KafkaSourceTopic == "" {
			return errors.New("KAFKA_SOURCE_TOPIC is required")
		}
	default:
		return fmt.Errorf("invalid INGEST_SOURCE %q: want %s or %s", c.IngestSource, SourceFIRMS, SourceKafka)
	}

	needsKafka := c.IngestSource == SourceKafka || c.KafkaSinkEnabled
	if needsKafka && len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required")
	}
	if c.KafkaSinkEnabled && c.KafkaSinkTopic == "" {
		return errors.New("KAFKA_SINK_TOPIC is required")
	}
	if c.MapboxEnabled && c.MapboxToken == "" {
		return errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	return nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	raw := sharedcfg.EnvOrDefault(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive duration", key, raw)
	}
	return d, nil
}

func parseIntInRange(key string, def, lo, hi int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s %q: must be an integer between %d and %d", key, raw, lo, hi)
	}
	return n, nil
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
