package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/swot-monitor-service/internal/domain"
)

// Config holds all service settings, populated from environment variables and
// the sites descriptor file.
type Config struct {
	Sites     []domain.Site
	SitesFile string

	LookbackDays          int
	AnomalyThresholdSigma float64

	// Remote retrieval. Empty credentials select simulated mode; that is not
	// an error.
	EarthdataUsername string
	EarthdataPassword string
	EarthdataBaseURL  string
	RequestTimeout    time.Duration
	RetryAttempts     int
	RetryBackoff      time.Duration

	ReportPath string
	DBPath     string

	// Optional observation stream for downstream consumers.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	// Optional metrics endpoint served for the duration of the run.
	MetricsAddr string

	LogLevel  string
	LogFormat string
}

const defaultEarthdataURL = "https://soto.podaac.earthdatacloud.nasa.gov/hydrocron/v1/timeseries"

// Load reads configuration from the environment (and an optional .env file),
// applying defaults where unset, then loads the sites descriptor file.
func Load() (*Config, error) {
	// Best effort: a missing .env file is the normal case in production.
	_ = godotenv.Load()

	timeout, err := parseDuration("REQUEST_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	backoff, err := parseDuration("RETRY_BACKOFF", "2s")
	if err != nil {
		return nil, err
	}

	lookback, err := parseInt("LOOKBACK_DAYS", 365)
	if err != nil {
		return nil, err
	}
	retries, err := parseInt("RETRY_ATTEMPTS", 3)
	if err != nil {
		return nil, err
	}

	threshold, err := parseFloat("ANOMALY_THRESHOLD_SIGMA", 2.0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		SitesFile:             envOrDefault("SITES_FILE", "config/sites.yaml"),
		LookbackDays:          lookback,
		AnomalyThresholdSigma: threshold,
		EarthdataUsername:     os.Getenv("EARTHDATA_USERNAME"),
		EarthdataPassword:     os.Getenv("EARTHDATA_PASSWORD"),
		EarthdataBaseURL:      envOrDefault("EARTHDATA_BASE_URL", defaultEarthdataURL),
		RequestTimeout:        timeout,
		RetryAttempts:         retries,
		RetryBackoff:          backoff,
		ReportPath:            envOrDefault("REPORT_PATH", "results/swot_report.json"),
		DBPath:                envOrDefault("DB_PATH", "data/observations.db"),
		KafkaBrokers:          parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:            envOrDefault("KAFKA_TOPIC", "water-observations"),
		MetricsAddr:           os.Getenv("METRICS_ADDR"),
		LogLevel:              envOrDefault("LOG_LEVEL", "info"),
		LogFormat:             envOrDefault("LOG_FORMAT", "json"),
	}
	cfg.KafkaEnabled = len(cfg.KafkaBrokers) > 0

	if cfg.LookbackDays <= 0 {
		return nil, errors.New("LOOKBACK_DAYS must be positive")
	}
	if cfg.AnomalyThresholdSigma <= 0 {
		return nil, errors.New("ANOMALY_THRESHOLD_SIGMA must be positive")
	}
	if cfg.RetryAttempts < 0 {
		return nil, errors.New("RETRY_ATTEMPTS must not be negative")
	}
	if cfg.ReportPath == "" {
		return nil, errors.New("REPORT_PATH is required")
	}

	sites, err := LoadSites(cfg.SitesFile)
	if err != nil {
		return nil, err
	}
	cfg.Sites = sites

	return cfg, nil
}

// HasCredentials reports whether both Earthdata secrets are present.
func (c *Config) HasCredentials() bool {
	return c.EarthdataUsername != "" && c.EarthdataPassword != ""
}

// sitesFile is the YAML shape of the descriptor file:
//
//	sites:
//	  - id: LakeA
//	    lat: 46.51
//	    lon: 6.63
type sitesFile struct {
	Sites []domain.Site `yaml:"sites"`
}

// LoadSites parses the sites descriptor file. Descriptor validation happens
// per site in the pipeline so one bad entry does not block the others.
func LoadSites(path string) ([]domain.Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sites file: %w", err)
	}

	var f sitesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sites file %s: %w", path, err)
	}
	if len(f.Sites) == 0 {
		return nil, fmt.Errorf("sites file %s lists no sites", path)
	}
	return f.Sites, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func parseDuration(key, fallback string) (time.Duration, error) {
	s := envOrDefault(key, fallback)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
