package serial

import (
	"testing"

	"github.com/kaelindev/pocketcore/internal/interrupts"
	"github.com/kaelindev/pocketcore/internal/types"
	"github.com/stretchr/testify/require"
)

func TestInternalClockTransferCompletesAndRequestsInterrupt(t *testing.T) {
	irq := interrupts.NewService()
	irq.Enable = 0xFF
	c := New(irq)

	c.Write(types.SB, 0x42)
	c.Write(types.SC, 0x81) // start, internal clock

	c.Tick(transferCycles - 1)
	_, ok := irq.Pending()
	require.False(t, ok, "transfer must not complete early")

	c.Tick(1)
	_, ok = irq.Pending()
	require.True(t, ok)
	require.Equal(t, uint8(0xFF), c.data)
	require.Equal(t, uint8(0), c.Read(types.SC)&0x80, "transfer-in-progress bit clears on completion")
}

func TestExternalClockTransferNeverCompletes(t *testing.T) {
	irq := interrupts.NewService()
	irq.Enable = 0xFF
	c := New(irq)

	c.Write(types.SC, 0x80) // start, external clock (bit0 clear)
	c.Tick(transferCycles * 10)

	_, ok := irq.Pending()
	require.False(t, ok, "an external-clock transfer has no peer and never completes")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	irq := interrupts.NewService()
	c := New(irq)
	c.Write(types.SB, 0x77)
	c.Write(types.SC, 0x81)
	c.Tick(100)

	st := types.NewState()
	c.Save(st)

	loaded := New(interrupts.NewService())
	loaded.Load(types.StateFromBytes(st.Bytes()))

	require.Equal(t, c.data, loaded.data)
	require.Equal(t, c.transferring, loaded.transferring)
	require.Equal(t, c.remaining, loaded.remaining)
}
