// Package watchdog ends the process when the main loop stops making progress.
package watchdog

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	logger "github.com/sirupsen/logrus"
)

type Watchdog struct {
	timeout  time.Duration
	clock    clockwork.Clock
	lock     sync.Mutex
	deadline time.Time
	OnExpire func()
}

// New returns a watchdog that is armed when Run starts. If Kick is not called
// within timeout the process exits and is restarted by its supervisor.
func New(timeout time.Duration, clock clockwork.Clock) *Watchdog {
	return &Watchdog{
		timeout: timeout,
		clock:   clock,
		OnExpire: func() {
			logger.Fatal("Watchdog expired, exiting")
		},
	}
}

func (w *Watchdog) Kick() {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.deadline = w.clock.Now().Add(w.timeout)
}

func (w *Watchdog) remaining() time.Duration {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.deadline.Sub(w.clock.Now())
}

func (w *Watchdog) Run(ctx context.Context) error {
	logger.Infof("Watchdog armed [%v]", w.timeout)
	w.Kick()
	timer := w.clock.NewTimer(w.timeout)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.Chan():
			left := w.remaining()
			if left <= 0 {
				w.OnExpire()
				return nil
			}
			timer.Reset(left)
		}
	}
}
