package core

import (
	"testing"

	"github.com/kaelindev/pocketcore/internal/cartridge"
	"github.com/kaelindev/pocketcore/internal/ppu"
	"github.com/stretchr/testify/require"
)

// buildROM constructs a minimal ROM image with a valid header, for cartridge
// types that need extra ROM banks it pads with zeroed banks beyond the
// first.
func buildROM(cartType cartridge.Type, romSizeCode, ramSizeCode uint8, title string) []byte {
	romSize := (32 * 1024) << romSizeCode
	rom := make([]byte, romSize)
	copy(rom[0x134:0x144], title)
	rom[0x147] = uint8(cartType)
	rom[0x148] = romSizeCode
	rom[0x149] = ramSizeCode
	return rom
}

func TestNewRejectsInvalidHeader(t *testing.T) {
	_, err := New(make([]byte, 0x10), nil, nil)
	require.Error(t, err)
}

func TestNewRejectsUnsupportedMapper(t *testing.T) {
	rom := buildROM(cartridge.MMM01, 0, 0, "X")
	_, err := New(rom, nil, nil)
	require.Error(t, err)
}

func TestRunFrameAdvancesExactlyOneFrame(t *testing.T) {
	rom := buildROM(cartridge.ROM, 0, 0, "IDLE")
	c, err := New(rom, nil, nil)
	require.NoError(t, err)

	out := c.RunFrame(Inputs{})
	require.Equal(t, uint64(1), out.FrameIndex)
	require.Equal(t, ppu.ScreenWidth, out.Width)
	require.Equal(t, ppu.ScreenHeight, out.Height)
	require.Len(t, out.Frame, ppu.ScreenWidth*ppu.ScreenHeight*4)

	out2 := c.RunFrame(Inputs{})
	require.Equal(t, uint64(2), out2.FrameIndex)
}

func TestMBC1BankSwitchingThroughCore(t *testing.T) {
	rom := buildROM(cartridge.MBC1, 4, 0, "BANKS") // 512KiB, 32 banks
	for bank := 0; bank < 32; bank++ {
		rom[bank*0x4000] = byte(bank)
	}
	c, err := New(rom, nil, nil)
	require.NoError(t, err)

	c.mapper.Write(0x2000, 0x00) // aliases to bank 1
	require.Equal(t, uint8(1), c.mapper.Read(0x4000))

	c.mapper.Write(0x2000, 0x0A)
	require.Equal(t, uint8(10), c.mapper.Read(0x4000))
}

func TestMBC3RAMAccessThroughCore(t *testing.T) {
	rom := buildROM(cartridge.MBC3RAMBATT, 0, 0x03, "CLOCK") // 32 KiB, 4 RAM banks
	c, err := New(rom, nil, nil)
	require.NoError(t, err)

	c.mapper.Write(0x0000, 0x0A) // enable RAM
	c.mapper.Write(0x4000, 0x01) // select RAM bank 1
	c.mapper.Write(0xA000, 0x5A)
	require.Equal(t, uint8(0x5A), c.mapper.Read(0xA000))

	c.mapper.Write(0x4000, 0x00) // switch back to bank 0, independent storage
	require.NotEqual(t, uint8(0x5A), c.mapper.Read(0xA000))
}

func TestAPUOffSilencesOutputThroughCore(t *testing.T) {
	rom := buildROM(cartridge.ROM, 0, 0, "AUDIO")
	c, err := New(rom, nil, nil, WithSampleRate(4096))
	require.NoError(t, err)

	c.mmu.Write(0xFF26, 0x80) // power on
	c.mmu.Write(0xFF11, 0x80)
	c.mmu.Write(0xFF12, 0xF0)
	c.mmu.Write(0xFF14, 0x87)
	c.mmu.Write(0xFF25, 0xFF)
	c.mmu.Write(0xFF24, 0x77)

	c.apu.Tick(4096)

	buf := make([]float32, 16)
	n := c.DrainAudio(buf)
	require.Greater(t, n, 0)

	c.mmu.Write(0xFF26, 0x00) // power off
	c.apu.Tick(4096)

	buf2 := make([]float32, 16)
	n2 := c.DrainAudio(buf2)
	require.Greater(t, n2, 0)
	for _, s := range buf2[:n2*2] {
		require.Equal(t, float32(0), s)
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	rom := buildROM(cartridge.ROM, 0, 0, "SNAP")
	c, err := New(rom, nil, nil)
	require.NoError(t, err)

	c.RunFrame(Inputs{})
	snap := c.Snapshot()
	pcAtSnapshot := c.cpu.R.PC

	c.RunFrame(Inputs{})
	require.Equal(t, uint64(2), c.frameIndex)

	require.NoError(t, c.Restore(snap))
	require.Equal(t, pcAtSnapshot, c.cpu.R.PC)
}

func TestRestoreRejectsIncompatibleVersion(t *testing.T) {
	rom := buildROM(cartridge.ROM, 0, 0, "SNAP")
	c, err := New(rom, nil, nil)
	require.NoError(t, err)

	bogus := make([]byte, 4) // version 0, never a valid StateVersion
	require.Error(t, c.Restore(bogus))
}
