package apu

import (
	"testing"

	"github.com/kaelindev/pocketcore/internal/types"
	"github.com/stretchr/testify/require"
)

func TestAPUOffSilencesOutput(t *testing.T) {
	a := New()
	a.SetSampleRate(4096) // small rate so a handful of ticks emits samples

	a.Write(0xFF26, 0x80) // power on
	a.Write(0xFF11, 0x80) // ch1 duty
	a.Write(0xFF12, 0xF0) // ch1 volume envelope, DAC on
	a.Write(0xFF14, 0x87) // trigger, frequency high bits
	a.Write(0xFF25, 0xFF) // NR51: all channels to both speakers
	a.Write(0xFF24, 0x77) // NR50: full volume both sides

	a.Tick(gbClockHz / 4096 * 4) // enough ticks to emit a few samples

	out := make([]float32, 8)
	n := a.Drain(out)
	require.Greater(t, n, 0)

	anyNonZero := false
	for _, s := range out[:n*2] {
		if s != 0 {
			anyNonZero = true
		}
	}
	require.True(t, anyNonZero, "an enabled channel with its DAC on must produce non-silent samples")

	a.Write(0xFF26, 0x00) // power off
	a.Tick(gbClockHz / 4096 * 4)

	out2 := make([]float32, 8)
	n2 := a.Drain(out2)
	require.Greater(t, n2, 0)
	for _, s := range out2[:n2*2] {
		require.Equal(t, float32(0), s, "a powered-off APU must emit silence")
	}
}

func TestPowerOffClearsChannelRegistersButKeepsWaveRAM(t *testing.T) {
	a := New()
	a.Write(0xFF26, 0x80)
	a.Write(0xFF30, 0xAB) // wave RAM byte 0
	a.Write(0xFF11, 0x3F)

	a.Write(0xFF26, 0x00) // power off

	require.Equal(t, uint8(0xAB), a.Read(0xFF30), "wave RAM survives a power cycle")
	require.Equal(t, uint8(0), a.Read(0xFF26)&0x0F, "every channel-enabled bit clears on power-off")
}

func TestWritesIgnoredWhilePoweredOff(t *testing.T) {
	a := New()
	a.Write(0xFF26, 0x00) // ensure powered off
	a.Write(0xFF12, 0xF0) // should be dropped

	require.Equal(t, uint8(0x00), a.Read(0xFF12))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	a := New()
	a.Write(0xFF26, 0x80)
	a.Write(0xFF24, 0x77)
	a.Tick(1000)

	st := types.NewState()
	a.Save(st)

	loaded := New()
	loaded.Load(types.StateFromBytes(st.Bytes()))

	require.Equal(t, a.enabled, loaded.enabled)
	require.Equal(t, a.volumeLeft, loaded.volumeLeft)
}
