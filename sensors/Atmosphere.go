package sensors

import (
	"fmt"

	"github.com/gr-butler/envnode/iic"
	logger "github.com/sirupsen/logrus"
)

// BME280 registers
const (
	regChipID   = 0xD0
	regCalib1   = 0x88
	regCalib2   = 0xE1
	regCtrlHum  = 0xF2
	regCtrlMeas = 0xF4
	regConfig   = 0xF5
	regData     = 0xF7

	bme280ChipID = 0x60

	ctrlHumX1 = 0b00000001 // humidity oversampling x1
	// temperature x1, pressure x1, forced mode. Writing it starts one conversion.
	ctrlMeasForced = 0b00100110
	// 1000ms standby, filter off, 3 wire SPI off
	configStandby = 0b10100000
)

type Atmosphere struct {
	bus   *iic.Transactor
	addr  uint16
	calib CalibrationSet
}

type PressurehPa float64
type RelHumidity float64
type TemperatureC float64

func (p PressurehPa) Float64() float64 {
	return float64(p)
}

func (r RelHumidity) Float64() float64 {
	return float64(r)
}

func (t TemperatureC) Float64() float64 {
	return float64(t)
}

// AtmosphereSample is one compensated reading in the device's fixed point units.
type AtmosphereSample struct {
	Temperature int32  // 1/100 °C
	Pressure    uint32 // Pa
	Humidity    uint32 // 1/1024 %RH
}

func (s AtmosphereSample) TemperatureC() TemperatureC {
	return TemperatureC(float64(s.Temperature) / 100)
}

func (s AtmosphereSample) PressurehPa() PressurehPa {
	return PressurehPa(float64(s.Pressure) / 100)
}

func (s AtmosphereSample) RelHumidity() RelHumidity {
	return RelHumidity(float64(s.Humidity) / 1024)
}

// NewAtmosphere configures the sensor and reads its calibration. The
// oversampling registers are written before ctrl_meas; a ctrl_hum change only
// takes effect after a ctrl_meas write.
func NewAtmosphere(bus *iic.Transactor, addr uint16) (*Atmosphere, error) {
	a := &Atmosphere{bus: bus, addr: addr}
	logger.Infof("Starting BME280 reader [%x]", addr)

	id, err := bus.Read(addr, regChipID, 1)
	if err != nil {
		return nil, err
	}
	if id[0] != bme280ChipID {
		// a BMP280 answers 0x58 and has no humidity calibration
		logger.Warnf("BME280 chip id is [%#02x], expected [%#02x]", id[0], bme280ChipID)
	}

	for _, w := range [][2]byte{
		{regCtrlHum, ctrlHumX1},
		{regCtrlMeas, ctrlMeasForced},
		{regConfig, configStandby},
	} {
		if err := bus.WriteReg(addr, w[0], w[1]); err != nil {
			return nil, err
		}
	}

	block1, err := bus.Read(addr, regCalib1, calib1Len)
	if err != nil {
		return nil, err
	}
	block2, err := bus.Read(addr, regCalib2, calib2Len)
	if err != nil {
		return nil, err
	}
	a.calib, err = DecodeCalibration(block1, block2)
	if err != nil {
		return nil, err
	}
	logger.Debugf("BME280 calibration [%+v]", a.calib)
	return a, nil
}

// Sense triggers a forced conversion and returns the compensated values.
func (a *Atmosphere) Sense() (AtmosphereSample, error) {
	if err := a.bus.WriteReg(a.addr, regCtrlMeas, ctrlMeasForced); err != nil {
		return AtmosphereSample{}, fmt.Errorf("BME280 trigger failed: %w", err)
	}
	b, err := a.bus.Read(a.addr, regData, rawLen)
	if err != nil {
		return AtmosphereSample{}, fmt.Errorf("BME280 read failed: %w", err)
	}
	raw, err := AssembleRaw(b)
	if err != nil {
		return AtmosphereSample{}, err
	}
	return a.compensate(raw), nil
}

func (a *Atmosphere) compensate(raw RawSample) AtmosphereSample {
	s := AtmosphereSample{}
	var fine FineTemperature
	s.Temperature, fine = a.calib.CompensateTemperature(raw.Temperature)
	s.Pressure = a.calib.CompensatePressure(raw.Pressure, fine)
	if s.Pressure == 0 {
		logger.Warnf("BME280 pressure compensation undefined at t_fine [%v]", fine)
	}
	s.Humidity = a.calib.CompensateHumidity(raw.Humidity, fine)
	return s
}
