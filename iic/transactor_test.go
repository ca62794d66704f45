package iic

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

func TestWriteReg(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x76, W: []byte{0xF4, 0x26}},
		},
	}
	tr := NewTransactor(bus, time.Second)

	require.NoError(t, tr.WriteReg(0x76, 0xF4, 0x26))
	require.NoError(t, bus.Close())
}

func TestWriteWithoutRegister(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x23, W: []byte{0x01}},
		},
	}
	tr := NewTransactor(bus, time.Second)

	require.NoError(t, tr.Write(0x23, nil, []byte{0x01}))
	require.NoError(t, bus.Close())
}

func TestRead(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x76, W: []byte{0xF7}, R: []byte{1, 2, 3, 4, 5, 6, 7, 8}},
			{Addr: 0x23, R: []byte{0x12, 0x34}},
		},
	}
	tr := NewTransactor(bus, time.Second)

	b, err := tr.Read(0x76, 0xF7, 8)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, b)

	b, err = tr.ReadRaw(0x23, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x12, 0x34}, b)
	require.NoError(t, bus.Close())
}

type failingBus struct{}

func (failingBus) Tx(addr uint16, w, r []byte) error {
	return errors.New("remote I/O error")
}

func TestNoAck(t *testing.T) {
	tr := NewTransactor(failingBus{}, time.Second)

	_, err := tr.Read(0x76, 0xD0, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoAck))
	assert.False(t, errors.Is(err, ErrTimeout))

	var be *BusError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, uint16(0x76), be.Addr)
	assert.Equal(t, byte(0xD0), *be.Reg)
	assert.Contains(t, err.Error(), "remote I/O error")
}

// blockingBus holds every transaction until release is closed.
type blockingBus struct {
	release chan struct{}
}

func (b *blockingBus) Tx(addr uint16, w, r []byte) error {
	<-b.release
	for i := range r {
		r[i] = 0xFF
	}
	return nil
}

func TestTimeoutThenBusyThenRecover(t *testing.T) {
	clock := clockwork.NewFakeClock()
	bus := &blockingBus{release: make(chan struct{})}
	tr := NewTransactorWithClock(bus, time.Second, clock)

	errc := make(chan error, 1)
	go func() {
		_, err := tr.ReadRaw(0x23, 2)
		errc <- err
	}()
	clock.BlockUntil(1)
	clock.Advance(time.Second)

	err := <-errc
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))

	// the stalled transaction still owns the bus
	_, err = tr.ReadRaw(0x23, 2)
	assert.True(t, errors.Is(err, ErrBusy))

	close(bus.release)
	// wait for the stalled goroutine to report back
	require.Eventually(t, func() bool {
		_, err := tr.ReadRaw(0x23, 2)
		return err == nil
	}, time.Second, time.Millisecond*10)
}
