package sensors

import (
	"time"

	"github.com/gr-butler/envnode/env"
	"github.com/gr-butler/envnode/iic"
	"github.com/jonboulle/clockwork"
	logger "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
)

/*
 * Sensors is responsible for reading the sensors and converting sensor output to real values.
 */

// Metric identifies one published value. Metrics combine as a set.
type Metric uint8

const (
	MetricTemperature Metric = 1 << iota
	MetricPressure
	MetricHumidity
	MetricIlluminance
	MetricRain

	MetricAtmosphere = MetricTemperature | MetricPressure | MetricHumidity
	AllMetrics       = MetricAtmosphere | MetricIlluminance | MetricRain
)

func (m Metric) String() string {
	switch m {
	case MetricTemperature:
		return "temperature"
	case MetricPressure:
		return "pressure"
	case MetricHumidity:
		return "humidity"
	case MetricIlluminance:
		return "illuminance"
	case MetricRain:
		return "rain"
	}
	return "metrics"
}

// Reading is the output of one acquisition cycle. Only the metrics in Valid
// were read successfully this cycle; the others hold zero values.
type Reading struct {
	Time        time.Time
	Temperature TemperatureC
	Pressure    PressurehPa
	Humidity    RelHumidity
	Illuminance Lux
	Rain        RainIntensity
	Valid       Metric
}

func (r Reading) IsValid(m Metric) bool {
	return r.Valid&m == m
}

type Sensors struct {
	Atm   *Atmosphere
	Light *Illuminance
	Rain  *Rainmeter
	clock clockwork.Clock
	args  env.Args
}

// InitSensors brings up each sensor on the bus. A sensor that fails to start
// is logged and left nil; its metrics are reported invalid on every read.
func InitSensors(bus i2c.Bus, args env.Args) *Sensors {
	s := &Sensors{
		clock: clockwork.NewRealClock(),
		args:  args,
	}
	tr := iic.NewTransactor(bus, env.BusTimeout)

	if *args.Atmon {
		atm, err := NewAtmosphere(tr, env.AtmosphereAddr)
		if err != nil {
			logger.Errorf("Failed to initialise BME280 [%v]", err)
		} else {
			s.Atm = atm
		}
	}

	if *args.Luxon {
		light, err := NewIlluminance(tr, env.IlluminanceAddr, s.clock)
		if err != nil {
			logger.Errorf("Failed to initialise BH1750 [%v]", err)
		} else {
			s.Light = light
		}
	}

	if *args.Rainon {
		rain, err := newADSRainmeter(bus)
		if err != nil {
			logger.Errorf("Failed to initialise rain gauge [%v]", err)
		} else {
			s.Rain = rain
		}
	}

	logger.Info("Sensors initialized.")
	return s
}

func newADSRainmeter(bus i2c.Bus) (*Rainmeter, error) {
	logger.Infof("Starting rain ADC I2C [%x]", env.RainADCAddr)
	opts := ads1x15.DefaultOpts
	opts.I2cAddress = env.RainADCAddr
	adc, err := ads1x15.NewADS1115(bus, &opts)
	if err != nil {
		return nil, err
	}
	// the module runs from 3.3V, the next gain step up is the ±4.096V range
	pin, err := adc.PinForChannel(ads1x15.Channel0, 3300*physic.MilliVolt, 128*physic.Hertz, ads1x15.BestQuality)
	if err != nil {
		return nil, err
	}
	return NewRainmeter(pin)
}

// Read samples every sensor in turn. A failure is logged and clears the
// affected metrics from Valid; the remaining sensors are still read.
func (s *Sensors) Read() Reading {
	r := Reading{Time: s.clock.Now()}

	if s.Atm != nil {
		a, err := s.Atm.Sense()
		if err != nil {
			logger.Errorf("Atmosphere read failed [%v]", err)
		} else {
			r.Temperature = a.TemperatureC()
			r.Pressure = a.PressurehPa()
			r.Humidity = a.RelHumidity()
			r.Valid |= MetricAtmosphere
		}
	}

	if s.Light != nil {
		lux, err := s.Light.Sense()
		if err != nil {
			logger.Errorf("Illuminance read failed [%v]", err)
		} else {
			r.Illuminance = lux
			r.Valid |= MetricIlluminance
		}
	}

	if s.Rain != nil {
		rain, err := s.Rain.Sense()
		if err != nil {
			logger.Errorf("Rain read failed [%v]", err)
		} else {
			r.Rain = rain
			r.Valid |= MetricRain
		}
	}

	if *s.args.Verbose {
		logger.Infof("Temp [%.2f], Pressure [%.2f]hPa, Hum [%.2f], Lux [%.2f], Rain [%v], valid [%05b]",
			r.Temperature, r.Pressure, r.Humidity, r.Illuminance, r.Rain, r.Valid)
	}
	return r
}
