package connectivity

import (
	"context"
	"net"
	"time"

	"github.com/jonboulle/clockwork"
	logger "github.com/sirupsen/logrus"
)

// Monitor polls the host's interfaces and signals when routable connectivity
// appears or goes away.
type Monitor struct {
	signal *Signal
	period time.Duration
	clock  clockwork.Clock
	check  func() bool
}

func NewMonitor(period time.Duration) *Monitor {
	return &Monitor{
		signal: NewSignal(),
		period: period,
		clock:  clockwork.NewRealClock(),
		check:  hasRoutableAddress,
	}
}

func (m *Monitor) Status() <-chan bool {
	return m.signal.C()
}

// Run polls until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	logger.Info("Starting network monitor")
	ticker := m.clock.NewTicker(m.period)
	defer ticker.Stop()
	for {
		up := m.check()
		if up != m.signal.Last() {
			logger.Infof("Network up [%v]", up)
		}
		m.signal.Set(up)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
		}
	}
}

// hasRoutableAddress is true when a non-loopback interface is up and has a
// global unicast address.
func hasRoutableAddress() bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		logger.Errorf("Failed to list interfaces [%v]", err)
		return false
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			if ipn, ok := a.(*net.IPNet); ok && ipn.IP.IsGlobalUnicast() {
				return true
			}
		}
	}
	return false
}
