package sensors

import (
	"fmt"

	"github.com/gr-butler/envnode/buffer"
	"github.com/gr-butler/envnode/env"
	logger "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/physic"
)

// AnalogChannel is satisfied by periph analog.PinADC, e.g. an ads1x15 channel.
type AnalogChannel interface {
	Range() (analog.Sample, analog.Sample)
	Read() (analog.Sample, error)
}

// RainIntensity is the rain module output on a 0-1023 scale, wetter is higher.
type RainIntensity int

type Rainmeter struct {
	pin     AnalogChannel
	samples *buffer.SampleBuffer
	// millivolts indexed by raw code, built once for this channel
	mvTable []uint32
}

func NewRainmeter(pin AnalogChannel) (*Rainmeter, error) {
	r := &Rainmeter{
		pin:     pin,
		samples: buffer.NewBuffer(env.RainSamples),
	}
	table, err := characterize(pin)
	if err != nil {
		return nil, err
	}
	r.mvTable = table
	logger.Infof("Rain ADC characterised, [%v] codes, full scale [%v]mV", len(table), table[len(table)-1])
	return r, nil
}

// characterize builds the raw code to millivolt table from the channel's
// reported full scale.
func characterize(pin AnalogChannel) ([]uint32, error) {
	_, max := pin.Range()
	if max.Raw <= 0 || max.V <= 0 {
		return nil, fmt.Errorf("rain ADC reports unusable range [%v]", max)
	}
	fullMV := uint64(max.V / physic.MilliVolt)
	table := make([]uint32, max.Raw+1)
	for code := range table {
		table[code] = uint32(uint64(code) * fullMV / uint64(max.Raw))
	}
	return table, nil
}

func (r *Rainmeter) rawToMillivolts(raw int32) uint32 {
	if raw < 0 {
		raw = 0
	}
	if int(raw) >= len(r.mvTable) {
		raw = int32(len(r.mvTable) - 1)
	}
	return r.mvTable[raw]
}

// Sense averages env.RainSamples consecutive conversions. The samples are
// taken one after another, not at a single instant.
func (r *Rainmeter) Sense() (RainIntensity, error) {
	r.samples.Reset()
	for i := 0; i < int(r.samples.GetSize()); i++ {
		s, err := r.pin.Read()
		if err != nil {
			return 0, fmt.Errorf("rain ADC read failed: %w", err)
		}
		r.samples.AddItem(s.Raw)
	}
	if !r.samples.Full() {
		return 0, fmt.Errorf("rain ADC buffer short of samples")
	}
	avg, mn, mx, _ := r.samples.GetAverageMinMaxSum()
	mv := r.rawToMillivolts(int32(avg))
	logger.Debugf("Rain raw avg [%v] min [%v] max [%v] last [%v] = [%v]mV", avg, mn, mx, r.samples.GetLast(), mv)
	return millivoltsToIntensity(mv), nil
}

// millivoltsToIntensity clamps at env.RainScaleMax; the ADC range reaches
// past the module's 3250mV full scale.
func millivoltsToIntensity(mv uint32) RainIntensity {
	i := mv * env.RainScaleMax / env.RainFullScaleMV
	if i > env.RainScaleMax {
		i = env.RainScaleMax
	}
	return RainIntensity(i)
}
