package station

import (
	"github.com/gr-butler/envnode/sensors"
	"github.com/prometheus/client_golang/prometheus"
	logger "github.com/sirupsen/logrus"
)

var Prom_temperature = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "temperature",
		Help: "Temperature C",
	},
)

var Prom_humidity = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "relative_humidity",
		Help: "Relative Humidity",
	},
)

var Prom_atmPressure = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "atmospheric_pressure",
		Help: "Atmospheric pressure hPa",
	},
)

var Prom_illuminance = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "illuminance",
		Help: "Ambient light lux",
	},
)

var Prom_rainIntensity = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "rain_intensity",
		Help: "Rain sensor intensity 0-1023",
	},
)

var promCycles = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "acquisition_cycles_total",
		Help: "Sampling cycles run",
	},
)

var promPublishFailures = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "publish_failures_total",
		Help: "Metric publishes that failed",
	},
)

var promState = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "station_state",
		Help: "0 awaiting network, 1 awaiting broker, 2 sampling",
	},
)

func init() {
	logger.Info("Initialize prometheus...")
	prometheus.MustRegister(
		Prom_temperature,
		Prom_humidity,
		Prom_atmPressure,
		Prom_illuminance,
		Prom_rainIntensity,
		promCycles,
		promPublishFailures,
		promState)
}

// updateGauges only moves the gauges for metrics read this cycle.
func updateGauges(r sensors.Reading) {
	if r.IsValid(sensors.MetricTemperature) {
		Prom_temperature.Set(r.Temperature.Float64())
	}
	if r.IsValid(sensors.MetricHumidity) {
		Prom_humidity.Set(r.Humidity.Float64())
	}
	if r.IsValid(sensors.MetricPressure) {
		Prom_atmPressure.Set(r.Pressure.Float64())
	}
	if r.IsValid(sensors.MetricIlluminance) {
		Prom_illuminance.Set(r.Illuminance.Float64())
	}
	if r.IsValid(sensors.MetricRain) {
		Prom_rainIntensity.Set(float64(r.Rain))
	}
}
