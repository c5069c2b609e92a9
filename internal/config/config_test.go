package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSitesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sites.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validSites = `
sites:
  - id: LakeA
    lat: 46.512
    lon: 6.631
  - id: LakeB
    lat: 61.852
    lon: -112.641
`

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SITES_FILE", writeSitesFile(t, validSites))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 365, cfg.LookbackDays)
	assert.Equal(t, 2.0, cfg.AnomalyThresholdSigma)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Equal(t, 2*time.Second, cfg.RetryBackoff)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, defaultEarthdataURL, cfg.EarthdataBaseURL)
	assert.Equal(t, "results/swot_report.json", cfg.ReportPath)
	assert.Equal(t, "data/observations.db", cfg.DBPath)
	assert.False(t, cfg.KafkaEnabled)
	assert.Empty(t, cfg.MetricsAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.False(t, cfg.HasCredentials())

	require.Len(t, cfg.Sites, 2)
	assert.Equal(t, "LakeA", cfg.Sites[0].ID)
	assert.Equal(t, 46.512, cfg.Sites[0].Lat)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("SITES_FILE", writeSitesFile(t, validSites))
	t.Setenv("LOOKBACK_DAYS", "90")
	t.Setenv("ANOMALY_THRESHOLD_SIGMA", "3.5")
	t.Setenv("RETRY_ATTEMPTS", "5")
	t.Setenv("RETRY_BACKOFF", "500ms")
	t.Setenv("REQUEST_TIMEOUT", "10s")
	t.Setenv("EARTHDATA_USERNAME", "svc-user")
	t.Setenv("EARTHDATA_PASSWORD", "svc-pass")
	t.Setenv("REPORT_PATH", "/tmp/out.json")
	t.Setenv("DB_PATH", "/tmp/obs.db")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_TOPIC", "obs-stream")
	t.Setenv("METRICS_ADDR", ":9100")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 90, cfg.LookbackDays)
	assert.Equal(t, 3.5, cfg.AnomalyThresholdSigma)
	assert.Equal(t, 5, cfg.RetryAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryBackoff)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.HasCredentials())
	assert.Equal(t, "/tmp/out.json", cfg.ReportPath)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "obs-stream", cfg.KafkaTopic)
	assert.Equal(t, ":9100", cfg.MetricsAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "non-numeric lookback", key: "LOOKBACK_DAYS", value: "soon"},
		{name: "zero lookback", key: "LOOKBACK_DAYS", value: "0"},
		{name: "negative threshold", key: "ANOMALY_THRESHOLD_SIGMA", value: "-1"},
		{name: "negative retries", key: "RETRY_ATTEMPTS", value: "-2"},
		{name: "bad backoff", key: "RETRY_BACKOFF", value: "fast"},
		{name: "zero timeout", key: "REQUEST_TIMEOUT", value: "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SITES_FILE", writeSitesFile(t, validSites))
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadSites_MissingFile(t *testing.T) {
	_, err := LoadSites(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadSites_EmptyList(t *testing.T) {
	_, err := LoadSites(writeSitesFile(t, "sites: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no sites")
}

func TestLoadSites_MalformedYAML(t *testing.T) {
	_, err := LoadSites(writeSitesFile(t, "sites: [unterminated"))
	assert.Error(t, err)
}
