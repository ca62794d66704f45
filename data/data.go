package data

import (
	"sync"
	"time"

	"github.com/gr-butler/envnode/sensors"
)

// holder for the last reading produced by the sensors, shared with the web handler

type Latest struct {
	lock    sync.RWMutex
	reading sensors.Reading
	set     bool
}

func NewLatest() *Latest {
	return &Latest{}
}

func (l *Latest) Set(r sensors.Reading) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.reading = r
	l.set = true
}

// Get returns the last reading and whether there has been one.
func (l *Latest) Get() (sensors.Reading, bool) {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.reading, l.set
}

// WebData is the JSON view of a reading. Metrics not read in the last cycle
// are null.
type WebData struct {
	TimeNow     string   `json:"time"`
	Temperature *float64 `json:"temperature_C"`
	Humidity    *float64 `json:"humidity_RH"`
	Pressure    *float64 `json:"pressure_hPa"`
	Illuminance *float64 `json:"illuminance_lux"`
	Rain        *int     `json:"rain_intensity"`
}

func NewWebData(r sensors.Reading) WebData {
	wd := WebData{TimeNow: r.Time.Format(time.RFC822)}
	if r.IsValid(sensors.MetricTemperature) {
		v := r.Temperature.Float64()
		wd.Temperature = &v
	}
	if r.IsValid(sensors.MetricHumidity) {
		v := r.Humidity.Float64()
		wd.Humidity = &v
	}
	if r.IsValid(sensors.MetricPressure) {
		v := r.Pressure.Float64()
		wd.Pressure = &v
	}
	if r.IsValid(sensors.MetricIlluminance) {
		v := r.Illuminance.Float64()
		wd.Illuminance = &v
	}
	if r.IsValid(sensors.MetricRain) {
		v := int(r.Rain)
		wd.Rain = &v
	}
	return wd
}
