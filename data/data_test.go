package data

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/gr-butler/envnode/sensors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatest(t *testing.T) {
	l := NewLatest()
	_, ok := l.Get()
	assert.False(t, ok)

	l.Set(sensors.Reading{Rain: 12, Valid: sensors.MetricRain})
	r, ok := l.Get()
	assert.True(t, ok)
	assert.Equal(t, sensors.RainIntensity(12), r.Rain)
}

func TestWebDataNullsInvalid(t *testing.T) {
	r := sensors.Reading{
		Time:        time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Temperature: 21.5,
		Rain:        40,
		Valid:       sensors.MetricTemperature | sensors.MetricRain,
	}
	js, err := json.Marshal(NewWebData(r))
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(js, &out))
	assert.Equal(t, 21.5, out["temperature_C"])
	assert.Equal(t, float64(40), out["rain_intensity"])
	assert.Nil(t, out["pressure_hPa"])
	assert.Nil(t, out["humidity_RH"])
	assert.Nil(t, out["illuminance_lux"])
	assert.Equal(t, "01 Mar 24 12:00 UTC", out["time"])
}
