package joypad

import (
	"testing"

	"github.com/kaelindev/pocketcore/internal/interrupts"
	"github.com/kaelindev/pocketcore/internal/types"
	"github.com/stretchr/testify/require"
)

func TestReadReflectsSelectedRow(t *testing.T) {
	irq := interrupts.NewService()
	s := New(irq)

	s.Write(0x10) // bit5=0 selects buttons, bit4=1 deselects direction
	s.SetInputs(ButtonA | ButtonUp)

	out := s.Read(0)
	require.Equal(t, uint8(0), out&0x01, "A is pressed and its row selected")
	require.NotEqual(t, uint8(0), out&0x10, "direction row not selected, its select bit reads 1")
}

func TestSetInputsRequestsInterruptOnNewPress(t *testing.T) {
	irq := interrupts.NewService()
	irq.Enable = 0xFF
	s := New(irq)
	s.Write(0x20) // bit4=0 selects direction, bit5=1 deselects buttons

	s.SetInputs(ButtonUp)
	_, ok := irq.Pending()
	require.True(t, ok, "a newly pressed, currently-selected button requests Joypad")

	irq.Clear(interrupts.Joypad)
	s.SetInputs(ButtonUp) // already pressed, not newly pressed
	_, ok = irq.Pending()
	require.False(t, ok)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	irq := interrupts.NewService()
	s := New(irq)
	s.Write(0x20)
	s.SetInputs(ButtonB)

	st := types.NewState()
	s.Save(st)

	loaded := New(interrupts.NewService())
	loaded.Load(types.StateFromBytes(st.Bytes()))

	require.Equal(t, s.pressed, loaded.pressed)
	require.Equal(t, s.selectButtons, loaded.selectButtons)
}
