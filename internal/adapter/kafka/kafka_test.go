package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/swot-monitor-service/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	ts := time.Date(2025, 1, 5, 10, 30, 0, 0, time.UTC)
	o := domain.Observation{
		SiteID:     "LakeA",
		Timestamp:  ts,
		Lat:        46.512,
		Lon:        6.631,
		ElevationM: 372.15,
		AreaKm2:    12.4,
		Quality:    domain.QualityGood,
	}

	msg, err := serializeToMessage(o)
	require.NoError(t, err)

	assert.Equal(t, []byte("LakeA"), msg.Key)
	assert.Contains(t, string(msg.Value), `"water_surface_elevation_m":372.15`)
	assert.Contains(t, string(msg.Value), `"quality_flag":"good"`)

	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "quality_flag", msg.Headers[0].Key)
	assert.Equal(t, []byte("good"), msg.Headers[0].Value)
	assert.Equal(t, "observed_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(ts.Format(time.RFC3339)), msg.Headers[1].Value)
}
