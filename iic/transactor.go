// Package iic runs bounded register transactions on the shared I²C bus.
package iic

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	logger "github.com/sirupsen/logrus"
)

var (
	ErrNoAck   = errors.New("device did not acknowledge")
	ErrTimeout = errors.New("transaction timed out")
	ErrBusy    = errors.New("bus busy (previous transaction not completed)")
)

// Bus is the part of periph's i2c.Bus the transactor needs.
type Bus interface {
	Tx(addr uint16, w, r []byte) error
}

// BusError describes a failed transaction. Kind is one of ErrNoAck, ErrTimeout
// or ErrBusy; Err is the underlying driver error, if any.
type BusError struct {
	Op   string
	Addr uint16
	Reg  *byte
	Kind error
	Err  error
}

func (e *BusError) Error() string {
	reg := ""
	if e.Reg != nil {
		reg = fmt.Sprintf(" reg [%#02x]", *e.Reg)
	}
	if e.Err != nil {
		return fmt.Sprintf("i2c %s addr [%#02x]%s: %v: %v", e.Op, e.Addr, reg, e.Kind, e.Err)
	}
	return fmt.Sprintf("i2c %s addr [%#02x]%s: %v", e.Op, e.Addr, reg, e.Kind)
}

func (e *BusError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

type Transactor struct {
	bus     Bus
	timeout time.Duration
	clock   clockwork.Clock
	lock    sync.Mutex
	// set while a timed out transaction is still running on the bus
	stuck chan error
}

func NewTransactor(bus Bus, timeout time.Duration) *Transactor {
	return NewTransactorWithClock(bus, timeout, clockwork.NewRealClock())
}

func NewTransactorWithClock(bus Bus, timeout time.Duration, clock clockwork.Clock) *Transactor {
	return &Transactor{
		bus:     bus,
		timeout: timeout,
		clock:   clock,
	}
}

// Write sends the optional register address followed by payload in one
// transaction: start, address+W, [reg], payload..., stop.
func (t *Transactor) Write(addr uint16, reg *byte, payload []byte) error {
	w := make([]byte, 0, len(payload)+1)
	if reg != nil {
		w = append(w, *reg)
	}
	w = append(w, payload...)
	return t.tx("write", addr, reg, w, nil)
}

// WriteReg is Write for the common single register, single value case.
func (t *Transactor) WriteReg(addr uint16, reg byte, value byte) error {
	return t.Write(addr, &reg, []byte{value})
}

// Read writes reg and reads n bytes after a repeated start.
func (t *Transactor) Read(addr uint16, reg byte, n int) ([]byte, error) {
	r := make([]byte, n)
	if err := t.tx("read", addr, &reg, []byte{reg}, r); err != nil {
		return nil, err
	}
	return r, nil
}

// ReadRaw reads n bytes with no register phase.
func (t *Transactor) ReadRaw(addr uint16, n int) ([]byte, error) {
	r := make([]byte, n)
	if err := t.tx("read", addr, nil, nil, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (t *Transactor) tx(op string, addr uint16, reg *byte, w, r []byte) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.stuck != nil {
		select {
		case <-t.stuck:
			logger.Info("I2C bus released by stalled transaction")
			t.stuck = nil
		default:
			return &BusError{Op: op, Addr: addr, Reg: reg, Kind: ErrBusy}
		}
	}

	// the driver writes into r; give it its own buffer so a late completion
	// can't scribble over a slice we've already handed back
	rr := make([]byte, len(r))
	done := make(chan error, 1)
	go func() {
		done <- t.bus.Tx(addr, w, rr)
	}()

	select {
	case err := <-done:
		if err != nil {
			return &BusError{Op: op, Addr: addr, Reg: reg, Kind: ErrNoAck, Err: err}
		}
		copy(r, rr)
		return nil
	case <-t.clock.After(t.timeout):
		t.stuck = done
		return &BusError{Op: op, Addr: addr, Reg: reg, Kind: ErrTimeout}
	}
}
