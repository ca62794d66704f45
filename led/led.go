package led

import (
	"sync"

	"github.com/gr-butler/envnode/env"
	"github.com/jonboulle/clockwork"
	logger "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

type LED struct {
	Name    string
	lock    sync.Mutex
	blink   chan bool
	done    chan struct{}
	clock   clockwork.Clock
	gpioPin gpio.PinIO
}

// NewLED returns nil if the pin does not exist.
func NewLED(name string, GPIOPin string) *LED {
	logger.Infof("Creating new LED on pin [%v] called [%v]", GPIOPin, name)
	pin := gpioreg.ByName(GPIOPin)
	if pin == nil {
		logger.Errorf("Failed to find %v pin", GPIOPin)
		return nil
	}
	return newLED(name, pin, clockwork.NewRealClock())
}

func newLED(name string, pin gpio.PinIO, clock clockwork.Clock) *LED {
	l := &LED{
		Name:    name,
		blink:   make(chan bool, 1),
		done:    make(chan struct{}),
		clock:   clock,
		gpioPin: pin,
	}
	_ = l.gpioPin.Out(gpio.Low)

	go func() {
		for {
			select {
			case <-l.blink:
				l.pulse()
			case <-l.done:
				l.Off()
				return
			}
		}
	}()
	return l
}

func (l *LED) Off() {
	l.lock.Lock()
	defer l.lock.Unlock()
	_ = l.gpioPin.Out(gpio.Low)
}

// Flash queues a single heartbeat blink. A request made while one is pending
// is dropped.
func (l *LED) Flash() {
	select {
	case l.blink <- true:
	default:
		logger.Debugf("LED busy [%v]", l.Name)
	}
}

func (l *LED) pulse() {
	l.lock.Lock()
	defer l.lock.Unlock()
	_ = l.gpioPin.Out(gpio.High)
	l.clock.Sleep(env.LEDFlashDuration)
	_ = l.gpioPin.Out(gpio.Low)
}

func (l *LED) Close() {
	close(l.done)
}
