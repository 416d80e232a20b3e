package interrupts

import (
	"testing"

	"github.com/kaelindev/pocketcore/internal/types"
	"github.com/stretchr/testify/require"
)

func TestPendingPriority(t *testing.T) {
	s := NewService()
	s.Enable = 0xFF
	s.Request(Joypad)
	s.Request(VBlank)

	flag, ok := s.Pending()
	require.True(t, ok)
	require.Equal(t, VBlank, flag, "VBlank has higher priority than Joypad")
}

func TestPendingRequiresEnable(t *testing.T) {
	s := NewService()
	s.Request(Timer)

	_, ok := s.Pending()
	require.False(t, ok, "a requested but un-enabled interrupt is not pending")
	require.False(t, s.HasAny())
}

func TestHasAnyWakesRegardlessOfIME(t *testing.T) {
	s := NewService()
	s.Enable = 1 << Timer
	s.Request(Timer)
	s.IME = false

	require.True(t, s.HasAny())
}

func TestScheduleEnableDelaysByOneInstruction(t *testing.T) {
	s := NewService()
	s.ScheduleEnable()

	s.Step() // EI's own instruction boundary
	require.False(t, s.IME, "IME must not be set until the instruction after EI")

	s.Step() // next instruction boundary
	require.True(t, s.IME)
}

func TestClearAndRegisterIO(t *testing.T) {
	s := NewService()
	s.Request(VBlank)
	s.Write(0xFFFF, 0x1F)

	require.Equal(t, uint8(0x01|0xE0), s.Read(0xFF0F))

	s.Clear(VBlank)
	require.Equal(t, uint8(0x00|0xE0), s.Read(0xFF0F))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := NewService()
	s.Enable = 0x1F
	s.Request(Serial)
	s.ScheduleEnable()

	st := types.NewState()
	s.Save(st)

	loaded := NewService()
	loaded.Load(types.StateFromBytes(st.Bytes()))

	require.Equal(t, s.Flag, loaded.Flag)
	require.Equal(t, s.Enable, loaded.Enable)
	require.Equal(t, s.IME, loaded.IME)
}
