package sensors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Trimming values from the worked example in the Bosch BMP280 datasheet
// (section 3.12), with humidity values taken from a production BME280.
var (
	datasheetCalib1 = []byte{
		0x70, 0x6B, 0x43, 0x67, 0x18, 0xFC, 0x7D, 0x8E, 0x43, 0xD6, 0xD0, 0x0B, 0x27,
		0x0B, 0x8C, 0x00, 0xF9, 0xFF, 0x8C, 0x3C, 0xF8, 0xC6, 0x70, 0x17, 0x00, 0x4B,
	}
	datasheetCalib2 = []byte{0x6A, 0x01, 0x00, 0x13, 0x29, 0x03, 0x1E}

	datasheetRaw = []byte{0x65, 0x5A, 0xC0, 0x7E, 0xED, 0x00, 0x75, 0x30}

	datasheetSet = CalibrationSet{
		T1: 27504, T2: 26435, T3: -1000,
		P1: 36477, P2: -10685, P3: 3024, P4: 2855, P5: 140, P6: -7, P7: 15500, P8: -14600, P9: 6000,
		H1: 75, H2: 362, H3: 0, H4: 313, H5: 50, H6: 30,
	}
)

func TestDecodeCalibration(t *testing.T) {
	c, err := DecodeCalibration(datasheetCalib1, datasheetCalib2)
	require.NoError(t, err)
	assert.Equal(t, datasheetSet, c)
}

func TestDecodeCalibrationNegativeNibbleFields(t *testing.T) {
	block2 := []byte{0x00, 0x00, 0x00, 0xF0, 0xA5, 0xFF, 0x80}
	c, err := DecodeCalibration(datasheetCalib1, block2)
	require.NoError(t, err)
	// 0xF0<<4 | 0x5 and 0xFF<<4 | 0xA, sign taken from the MSB register
	assert.Equal(t, int16(-251), c.H4)
	assert.Equal(t, int16(-6), c.H5)
	assert.Equal(t, int8(-128), c.H6)
}

func TestDecodeCalibrationBadLength(t *testing.T) {
	_, err := DecodeCalibration(datasheetCalib1[:24], datasheetCalib2)
	assert.Error(t, err)
	_, err = DecodeCalibration(datasheetCalib1, datasheetCalib2[:6])
	assert.Error(t, err)
}

func TestAssembleRaw(t *testing.T) {
	raw, err := AssembleRaw(datasheetRaw)
	require.NoError(t, err)
	assert.Equal(t, RawSample{Temperature: 519888, Pressure: 415148, Humidity: 30000}, raw)

	// the low nibble of xlsb is not part of the code
	raw, err = AssembleRaw([]byte{0xFF, 0xFF, 0xFF, 0x00, 0x00, 0x0F, 0x00, 0x01})
	require.NoError(t, err)
	assert.Equal(t, int32(0xFFFFF), raw.Pressure)
	assert.Equal(t, int32(0), raw.Temperature)
	assert.Equal(t, int32(1), raw.Humidity)

	_, err = AssembleRaw(datasheetRaw[:7])
	assert.Error(t, err)
}

func TestCompensateDatasheetExample(t *testing.T) {
	c := datasheetSet

	temp, fine := c.CompensateTemperature(519888)
	assert.Equal(t, int32(2508), temp)
	assert.Equal(t, FineTemperature(128422), fine)

	assert.Equal(t, uint32(100656), c.CompensatePressure(415148, fine))
	assert.Equal(t, uint32(56317), c.CompensateHumidity(30000, fine))
}

func TestCompensateBelowFreezing(t *testing.T) {
	c := datasheetSet

	temp, fine := c.CompensateTemperature(400000)
	assert.Equal(t, int32(-1264), temp)
	assert.Equal(t, FineTemperature(-64736), fine)
	assert.Equal(t, uint32(113636), c.CompensatePressure(300000, fine))
	assert.Equal(t, uint32(2118), c.CompensateHumidity(20000, fine))
}

func TestCompensatePressureZeroDivisor(t *testing.T) {
	c := datasheetSet
	c.P1 = 0
	_, fine := c.CompensateTemperature(519888)
	assert.Equal(t, uint32(0), c.CompensatePressure(415148, fine))
}

func TestCompensateHumidityClamps(t *testing.T) {
	c := datasheetSet
	_, fine := c.CompensateTemperature(519888)

	// pre-clamp value is negative
	assert.Equal(t, uint32(0), c.CompensateHumidity(0, fine))
	// pre-clamp value is 1035415128, clamped to 419430400
	assert.Equal(t, uint32(419430400>>12), c.CompensateHumidity(65535, fine))

	for adc := int32(0); adc <= 65535; adc += 97 {
		h := c.CompensateHumidity(adc, fine)
		assert.LessOrEqual(t, h, uint32(102400), "adc [%v]", adc)
	}
}

func TestCompensateHumidityMonotonic(t *testing.T) {
	c := datasheetSet
	_, fine := c.CompensateTemperature(519888)
	last := uint32(0)
	for adc := int32(20000); adc <= 40000; adc += 250 {
		h := c.CompensateHumidity(adc, fine)
		assert.GreaterOrEqual(t, h, last, "adc [%v]", adc)
		last = h
	}
}
