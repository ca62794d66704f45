// Package connectivity reports whether the node has a usable network.
package connectivity

import "sync"

// Signal carries up/down transitions to a single consumer. Set never blocks:
// an unread value is replaced, so the consumer always sees the latest state.
type Signal struct {
	lock sync.Mutex
	ch   chan bool
	last *bool
}

func NewSignal() *Signal {
	return &Signal{ch: make(chan bool, 1)}
}

func (s *Signal) Set(up bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.last != nil && *s.last == up {
		return
	}
	s.last = &up
	select {
	case <-s.ch:
	default:
	}
	s.ch <- up
}

// Last returns the most recent value set, false if none.
func (s *Signal) Last() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.last != nil && *s.last
}

func (s *Signal) C() <-chan bool {
	return s.ch
}
