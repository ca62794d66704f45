package sensors

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/gr-butler/envnode/env"
	"github.com/gr-butler/envnode/iic"
	"github.com/jonboulle/clockwork"
	logger "github.com/sirupsen/logrus"
)

// BH1750 opcodes
const (
	bh1750PowerDown    = 0x00
	bh1750PowerOn      = 0x01
	bh1750OneTimeHiRes = 0x20
)

type Lux float64

func (l Lux) Float64() float64 {
	return float64(l)
}

type Illuminance struct {
	bus    *iic.Transactor
	addr   uint16
	settle time.Duration
	clock  clockwork.Clock
}

func NewIlluminance(bus *iic.Transactor, addr uint16, clock clockwork.Clock) (*Illuminance, error) {
	l := &Illuminance{
		bus:    bus,
		addr:   addr,
		settle: env.IlluminanceSettle,
		clock:  clock,
	}
	logger.Infof("Starting BH1750 light sensor [%x]", addr)
	if err := l.command(bh1750PowerDown); err != nil {
		return nil, err
	}
	if err := l.command(bh1750PowerOn); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Illuminance) command(op byte) error {
	return l.bus.Write(l.addr, nil, []byte{op})
}

// Sense starts a one time high resolution measurement and blocks until the
// integration time has passed. One time mode powers the device down after
// the measurement, so it is powered on first.
func (l *Illuminance) Sense() (Lux, error) {
	if err := l.command(bh1750PowerOn); err != nil {
		return 0, fmt.Errorf("BH1750 power on failed: %w", err)
	}
	if err := l.command(bh1750OneTimeHiRes); err != nil {
		return 0, fmt.Errorf("BH1750 mode set failed: %w", err)
	}
	l.clock.Sleep(l.settle)
	b, err := l.bus.ReadRaw(l.addr, 2)
	if err != nil {
		return 0, fmt.Errorf("BH1750 read failed: %w", err)
	}
	return rawToLux(binary.BigEndian.Uint16(b)), nil
}

func rawToLux(raw uint16) Lux {
	return Lux(float64(raw) / env.LuxSensitivity)
}
