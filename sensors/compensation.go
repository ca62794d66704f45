package sensors

import "fmt"

/*
 * BME280 integer compensation, Bosch BME280 datasheet rev 1.6 section 4.2.3.
 *
 * Temperature must be compensated first in every cycle: its fine temperature
 * is an input to both the pressure and humidity formulas.
 */

const (
	calib1Len = 26 // 0x88 .. 0xA1
	calib2Len = 7  // 0xE1 .. 0xE7
	rawLen    = 8  // 0xF7 .. 0xFE

	humidityMax = 419430400 // 100 %RH in Q22.10 before the final >>12
)

// CalibrationSet holds the factory trimming constants of one BME280.
type CalibrationSet struct {
	T1 uint16
	T2 int16
	T3 int16

	P1 uint16
	P2 int16
	P3 int16
	P4 int16
	P5 int16
	P6 int16
	P7 int16
	P8 int16
	P9 int16

	H1 uint8
	H2 int16
	H3 uint8
	H4 int16 // 12 bit
	H5 int16 // 12 bit
	H6 int8
}

// RawSample is one set of uncompensated ADC codes.
type RawSample struct {
	Temperature int32 // 20 bit
	Pressure    int32 // 20 bit
	Humidity    int32 // 16 bit
}

// FineTemperature is the intermediate produced by CompensateTemperature.
type FineTemperature int32

// DecodeCalibration parses the 26 byte block read from 0x88 and the 7 byte
// block read from 0xE1.
func DecodeCalibration(block1, block2 []byte) (CalibrationSet, error) {
	c := CalibrationSet{}
	if len(block1) != calib1Len || len(block2) != calib2Len {
		return c, fmt.Errorf("calibration blocks are [%v] and [%v] bytes, want [%v] and [%v]",
			len(block1), len(block2), calib1Len, calib2Len)
	}

	u16 := func(b []byte, i int) uint16 {
		return uint16(b[i]) | uint16(b[i+1])<<8
	}
	s16 := func(b []byte, i int) int16 {
		return int16(u16(b, i))
	}

	c.T1 = u16(block1, 0)
	c.T2 = s16(block1, 2)
	c.T3 = s16(block1, 4)

	c.P1 = u16(block1, 6)
	c.P2 = s16(block1, 8)
	c.P3 = s16(block1, 10)
	c.P4 = s16(block1, 12)
	c.P5 = s16(block1, 14)
	c.P6 = s16(block1, 16)
	c.P7 = s16(block1, 18)
	c.P8 = s16(block1, 20)
	c.P9 = s16(block1, 22)
	// block1[24] (0xA0) is reserved
	c.H1 = block1[25]

	c.H2 = s16(block2, 0)
	c.H3 = block2[2]
	// 0xE4 [11:4] | 0xE5 [3:0], and 0xE6 [11:4] | 0xE5 [7:4]. The MSB register
	// is signed, so the 12 bit values carry its sign.
	c.H4 = int16(int8(block2[3]))<<4 | int16(block2[4]&0x0F)
	c.H5 = int16(int8(block2[5]))<<4 | int16(block2[4]>>4)
	c.H6 = int8(block2[6])

	return c, nil
}

// AssembleRaw builds the ADC codes from the 8 bytes read at 0xF7:
// press msb/lsb/xlsb, temp msb/lsb/xlsb, hum msb/lsb.
func AssembleRaw(b []byte) (RawSample, error) {
	if len(b) != rawLen {
		return RawSample{}, fmt.Errorf("raw data is [%v] bytes, want [%v]", len(b), rawLen)
	}
	return RawSample{
		Pressure:    int32(b[0])<<12 | int32(b[1])<<4 | int32(b[2]>>4),
		Temperature: int32(b[3])<<12 | int32(b[4])<<4 | int32(b[5]>>4),
		Humidity:    int32(b[6])<<8 | int32(b[7]),
	}, nil
}

// CompensateTemperature returns hundredths of a degree Celsius and the fine
// temperature needed by the pressure and humidity steps.
func (c *CalibrationSet) CompensateTemperature(adcT int32) (int32, FineTemperature) {
	t1 := int32(c.T1)
	var1 := (((adcT >> 3) - (t1 << 1)) * int32(c.T2)) >> 11
	var2 := (((((adcT >> 4) - t1) * ((adcT >> 4) - t1)) >> 12) * int32(c.T3)) >> 14
	fine := var1 + var2
	return (fine*5 + 128) >> 8, FineTemperature(fine)
}

// CompensatePressure returns pressure in Pa, or 0 when the calibration makes
// the divisor zero.
func (c *CalibrationSet) CompensatePressure(adcP int32, fine FineTemperature) uint32 {
	var1 := (int32(fine) >> 1) - 64000
	var2 := (((var1 >> 2) * (var1 >> 2)) >> 11) * int32(c.P6)
	var2 = var2 + ((var1 * int32(c.P5)) << 1)
	var2 = (var2 >> 2) + (int32(c.P4) << 16)
	var1 = (((int32(c.P3) * (((var1 >> 2) * (var1 >> 2)) >> 13)) >> 3) + ((int32(c.P2) * var1) >> 1)) >> 18
	var1 = ((32768 + var1) * int32(c.P1)) >> 15
	if var1 == 0 {
		return 0
	}

	p := (uint32(1048576-adcP) - uint32(var2>>12)) * 3125
	if p < 0x80000000 {
		p = (p << 1) / uint32(var1)
	} else {
		p = (p / uint32(var1)) * 2
	}
	var1 = (int32(c.P9) * int32(((p>>3)*(p>>3))>>13)) >> 12
	var2 = (int32(p>>2) * int32(c.P8)) >> 13
	return uint32(int32(p) + ((var1 + var2 + int32(c.P7)) >> 4))
}

// CompensateHumidity returns relative humidity in 1024ths of a percent.
func (c *CalibrationSet) CompensateHumidity(adcH int32, fine FineTemperature) uint32 {
	v := int32(fine) - 76800
	a := (((adcH << 14) - (int32(c.H4) << 20) - (int32(c.H5) * v)) + 16384) >> 15
	b := (((((v * int32(c.H6)) >> 10) * (((v * int32(c.H3)) >> 11) + 32768)) >> 10) + 2097152) * int32(c.H2)
	v = a * ((b + 8192) >> 14)
	v = v - (((((v >> 15) * (v >> 15)) >> 7) * int32(c.H1)) >> 4)
	if v < 0 {
		v = 0
	}
	if v > humidityMax {
		v = humidityMax
	}
	return uint32(v >> 12)
}
