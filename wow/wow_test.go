package wow

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/gr-butler/envnode/sensors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reading(minute int) sensors.Reading {
	return sensors.Reading{
		Time:        time.Date(2024, 3, 1, 10, minute, 0, 0, time.UTC),
		Temperature: 20,
		Pressure:    1000,
		Humidity:    50,
		Valid:       sensors.AllMetrics,
	}
}

func TestValues(t *testing.T) {
	w := NewReporter("1234", "9876", "envnode-test", 0)
	vals, err := w.values(reading(15))
	require.NoError(t, err)

	assert.Equal(t, "1234", vals.Get("siteid"))
	assert.Equal(t, "9876", vals.Get("siteAuthenticationKey"))
	assert.Equal(t, "2024-03-01 10:15:00", vals.Get("dateutc"))
	assert.Equal(t, "envnode-test", vals.Get("softwaretype"))
	assert.Equal(t, "68", vals.Get("tempf"))
	assert.Equal(t, "50", vals.Get("humidity"))
	// 20 - 50/5 = 10C
	assert.Equal(t, "50", vals.Get("dewptf"))
	// altitude zero leaves the pressure as observed
	baro, err := strconv.ParseFloat(vals.Get("baromin"), 64)
	require.NoError(t, err)
	assert.InDelta(t, 29.53, baro, 0.001)

	// the encoded form escapes the date separators
	assert.Contains(t, vals.Encode(), "dateutc=2024-03-01+10%3A15%3A00")
}

func TestSeaLevel(t *testing.T) {
	assert.InDelta(t, 1000.0, seaLevel(1000, 15, 0), 0.0001)
	assert.Greater(t, seaLevel(1000, 15, 100), 1011.0)
	assert.Less(t, seaLevel(1000, 15, 100), 1013.0)
}

func TestValuesWithoutAtmosphere(t *testing.T) {
	w := NewReporter("1234", "9876", "envnode-test", 0)
	r := reading(0)
	r.Valid = sensors.MetricRain
	vals, err := w.values(r)
	require.NoError(t, err)
	assert.Nil(t, vals)
}

func TestRecordOnQuarterHour(t *testing.T) {
	got := make(chan url.Values, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		got <- r.URL.Query()
		rw.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	w := NewReporter("1234", "9876", "envnode-test", 24.71)
	w.baseURL = srv.URL + "/automaticreading?"

	require.NoError(t, w.Record(context.Background(), reading(7)))
	assert.Len(t, got, 0)

	require.NoError(t, w.Record(context.Background(), reading(30)))
	require.Len(t, got, 1)
	assert.Equal(t, "1234", (<-got).Get("siteid"))
}

func TestRecordHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	w := NewReporter("1234", "bad", "envnode-test", 0)
	w.baseURL = srv.URL + "/automaticreading?"
	assert.Error(t, w.Record(context.Background(), reading(45)))
}
