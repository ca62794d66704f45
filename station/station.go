// Package station runs the acquisition loop: wait for the network, then the
// broker, then read and publish every sensor once per interval.
package station

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gr-butler/envnode/env"
	"github.com/gr-butler/envnode/sensors"
	"github.com/jonboulle/clockwork"
	logger "github.com/sirupsen/logrus"
)

type State int

const (
	AwaitingNetwork State = iota
	AwaitingBroker
	Sampling
)

func (s State) String() string {
	switch s {
	case AwaitingNetwork:
		return "awaiting-network"
	case AwaitingBroker:
		return "awaiting-broker"
	case Sampling:
		return "sampling"
	}
	return "unknown"
}

type Network interface {
	Status() <-chan bool
}

type Broker interface {
	Connect()
	Status() <-chan bool
	Publish(topic, payload string) error
}

type Reader interface {
	Read() sensors.Reading
}

type Kicker interface {
	Kick()
}

// Store keeps the latest reading for local consumers.
type Store interface {
	Set(r sensors.Reading)
}

// Recorder is a side output written once per cycle, such as the archive.
type Recorder interface {
	Record(ctx context.Context, r sensors.Reading) error
}

type Flasher interface {
	Flash()
}

type Station struct {
	net      Network
	broker   Broker
	sensors  Reader
	dog      Kicker
	clock    clockwork.Clock
	interval time.Duration

	// optional side outputs
	Store   Store
	Outputs []Recorder
	LED     Flasher

	state     State
	current   atomic.Int32
	lastCycle time.Time
	netUp     bool
	brokerUp  bool
}

func New(net Network, broker Broker, reader Reader, dog Kicker, clock clockwork.Clock) *Station {
	return &Station{
		net:      net,
		broker:   broker,
		sensors:  reader,
		dog:      dog,
		clock:    clock,
		interval: env.SampleInterval,
		state:    AwaitingNetwork,
	}
}

// State is safe to call while Run is active.
func (s *Station) State() State {
	return State(s.current.Load())
}

func (s *Station) setState(next State) {
	s.state = next
	s.current.Store(int32(next))
	promState.Set(float64(next))
}

// target is the state the latest signals call for.
func (s *Station) target() State {
	if !s.netUp {
		return AwaitingNetwork
	}
	if !s.brokerUp {
		return AwaitingBroker
	}
	return Sampling
}

// Run drives the state machine until ctx is cancelled.
func (s *Station) Run(ctx context.Context) error {
	logger.Infof("Station starting [%v]", s.state)
	s.setState(s.state)

	var timer clockwork.Timer
	var tick <-chan time.Time
	stopTimer := func() {
		if timer != nil {
			timer.Stop()
			timer = nil
			tick = nil
		}
	}
	defer stopTimer()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Station stopping")
			return nil
		case up := <-s.net.Status():
			s.netUp = up
		case up := <-s.broker.Status():
			s.brokerUp = up
		case <-tick:
			s.cycle(ctx)
			timer.Reset(s.interval)
			continue
		}

		want := s.target()
		if want == s.state {
			continue
		}
		if s.state == Sampling {
			stopTimer()
		}
		s.moveTo(want)
		if s.state == Sampling {
			// a reconnect inside the interval waits out the rest of it
			wait := s.untilDue()
			if wait <= 0 {
				s.cycle(ctx)
				wait = s.interval
			}
			timer = s.clock.NewTimer(wait)
			tick = timer.Chan()
		}
	}
}

// moveTo steps forward one state at a time so the broker is always asked to
// connect before sampling starts. Losses drop straight back.
func (s *Station) moveTo(want State) {
	for s.state != want {
		next := want
		if want > s.state {
			next = s.state + 1
		}
		logger.Infof("State [%v] -> [%v]", s.state, next)
		s.setState(next)
		if next == AwaitingBroker {
			s.broker.Connect()
		}
	}
}

// untilDue is how long until the next cycle may run, zero before the first.
func (s *Station) untilDue() time.Duration {
	if s.lastCycle.IsZero() {
		return 0
	}
	return s.interval - s.clock.Since(s.lastCycle)
}

// cycle reads every sensor once and publishes what was read.
func (s *Station) cycle(ctx context.Context) {
	s.lastCycle = s.clock.Now()
	r := s.sensors.Read()
	promCycles.Inc()

	for _, m := range Messages(r) {
		if err := s.broker.Publish(m.Topic, m.Payload); err != nil {
			logger.Errorf("Publish failed [%v] [%v]", m.Topic, err)
			promPublishFailures.Inc()
			continue
		}
		logger.Debugf("Published [%v] [%v]", m.Topic, m.Payload)
	}

	updateGauges(r)
	if s.Store != nil {
		s.Store.Set(r)
	}
	for _, o := range s.Outputs {
		if err := o.Record(ctx, r); err != nil {
			logger.Errorf("Failed to record reading [%v]", err)
		}
	}
	s.dog.Kick()
	if s.LED != nil {
		s.LED.Flash()
	}
}
