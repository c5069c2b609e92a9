package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/swot-monitor-service/internal/domain"
)

func sampleResults() map[string]domain.AnalysisResult {
	return map[string]domain.AnalysisResult{
		"LakeA": {
			SiteID:            "LakeA",
			ObservationCount:  5,
			MeanElevationM:    10.24,
			MedianElevationM:  10.2,
			StdElevationM:     0.23,
			MinElevationM:     10.0,
			MaxElevationM:     10.6,
			TotalAreaKm2:      62.1,
			TrendSlopeMPerDay: 0.0062,
			TrendRSquared:     0.81,
			Anomalies:         []time.Time{time.Date(2025, 3, 26, 0, 0, 0, 0, time.UTC)},
			QualityDistribution: map[domain.QualityFlag]int{
				domain.QualityGood: 5,
			},
		},
		"LakeB": {
			SiteID:              "LakeB",
			Anomalies:           []time.Time{},
			QualityDistribution: map[domain.QualityFlag]int{},
		},
	}
}

func TestAggregate_KeysMatchInput(t *testing.T) {
	results := sampleResults()

	rep := Aggregate(results, domain.ModeReal)

	require.Len(t, rep.Results, len(results))
	for id := range results {
		assert.Contains(t, rep.Results, id)
	}
	assert.Equal(t, domain.ModeReal, rep.SourceMode)
}

func TestAggregate_StampsGenerationTime(t *testing.T) {
	frozen := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(frozen))
	defer domain.SetClock(nil)

	rep := Aggregate(sampleResults(), domain.ModeSimulated)

	assert.True(t, rep.GeneratedAt.Equal(frozen))
}

func TestAggregate_EmptyResults(t *testing.T) {
	rep := Aggregate(map[string]domain.AnalysisResult{}, domain.ModeSimulated)

	assert.NotNil(t, rep.Results)
	assert.Empty(t, rep.Results)
}

func TestReport_FileRoundTrip(t *testing.T) {
	frozen := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(frozen))
	defer domain.SetClock(nil)

	path := filepath.Join(t.TempDir(), "report.json")
	rep := Aggregate(sampleResults(), domain.ModeSimulated)

	require.NoError(t, NewFileWriter(path).Write(rep))

	got, err := ReadFile(path)
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(rep, got), "report must survive a serialize/parse round trip")
	assert.Equal(t, domain.ModeSimulated, got.SourceMode)
}

func TestFileWriter_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "report.json")

	require.NoError(t, NewFileWriter(path).Write(Aggregate(nil, domain.ModeSimulated)))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestFileWriter_FailsOnUnwritablePath(t *testing.T) {
	dir := t.TempDir()
	// The target path is an existing directory, so the write must fail.
	err := NewFileWriter(dir).Write(Aggregate(nil, domain.ModeSimulated))
	assert.Error(t, err)
}

func TestReadFile_MalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := ReadFile(path)
	assert.Error(t, err)
}
