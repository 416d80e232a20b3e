package mmu

import (
	"testing"

	"github.com/kaelindev/pocketcore/internal/apu"
	"github.com/kaelindev/pocketcore/internal/interrupts"
	"github.com/kaelindev/pocketcore/internal/joypad"
	"github.com/kaelindev/pocketcore/internal/serial"
	"github.com/kaelindev/pocketcore/internal/timer"
	"github.com/kaelindev/pocketcore/internal/types"
	"github.com/stretchr/testify/require"
)

// stubMapper is a minimal cartridge.Mapper for exercising the bus in
// isolation from the cartridge package.
type stubMapper struct {
	rom [0x8000]byte
	ram [0x2000]byte
}

func (s *stubMapper) Read(addr uint16) uint8 {
	if addr < 0x8000 {
		return s.rom[addr]
	}
	return s.ram[addr-0xA000]
}
func (s *stubMapper) Write(addr uint16, value uint8) {
	if addr >= 0xA000 && addr < 0xC000 {
		s.ram[addr-0xA000] = value
	}
}
func (s *stubMapper) Tick(int)                  {}
func (s *stubMapper) BatteryRAM() []byte        { return nil }
func (s *stubMapper) LoadBatteryRAM([]byte)     {}
func (s *stubMapper) RTCBlob() []byte           { return nil }
func (s *stubMapper) LoadRTCBlob([]byte)        {}
func (s *stubMapper) SetAccelerometer(int16, int16) {}
func (s *stubMapper) RumbleIntensity() uint8    { return 0 }
func (s *stubMapper) Save(*types.State)         {}
func (s *stubMapper) Load(*types.State)         {}

// stubPPU satisfies PPUBus without pulling in the ppu package.
type stubPPU struct {
	mode uint8
	regs [0x100]uint8
}

func (s *stubPPU) ReadRegister(addr uint16) uint8  { return s.regs[addr&0xFF] }
func (s *stubPPU) WriteRegister(addr uint16, v uint8) { s.regs[addr&0xFF] = v }
func (s *stubPPU) Mode() uint8                      { return s.mode }

func newTestMMU() (*MMU, *stubMapper, *stubPPU) {
	irq := interrupts.NewService()
	m := New(types.ModelCGB, &stubMapper{}, irq, timer.New(irq), joypad.New(irq), serial.New(irq), apu.New())
	mapper := m.Mapper.(*stubMapper)
	p := &stubPPU{}
	m.PPU = p
	return m, mapper, p
}

func TestOAMDMABlocksNonHRAMReads(t *testing.T) {
	m, _, _ := newTestMMU()
	m.Write(0xFF46, 0xC0) // start OAM DMA from 0xC000

	require.True(t, m.OAMDMAActive())
	require.Equal(t, uint8(0xFF), m.Read(0x0000), "ROM reads are blocked while OAM DMA is active")

	m.hram[0] = 0x42
	require.Equal(t, uint8(0x42), m.Read(0xFF80), "HRAM stays accessible during OAM DMA")
}

func TestOAMDMACopiesExactlyOneByteEvery4Cycles(t *testing.T) {
	m, _, _ := newTestMMU()
	m.wram[0][0] = 0xAB // source 0xC000 -> wram bank 0 offset 0

	m.Write(0xFF46, 0xC0)
	m.Tick(4)
	require.Equal(t, uint8(0xAB), m.oam[0])
	require.Equal(t, 1, m.dma.index)

	m.Tick(3)
	require.Equal(t, 1, m.dma.index, "no byte copies until another 4 cycles accumulate")

	m.Tick(1)
	require.Equal(t, 2, m.dma.index)
}

func TestOAMDMACompletesAfter640Cycles(t *testing.T) {
	m, _, _ := newTestMMU()
	m.Write(0xFF46, 0xC0)
	m.Tick(0xA0 * 4)
	require.False(t, m.OAMDMAActive())
}

func TestProhibitedRegionReadsDependOnPPUMode(t *testing.T) {
	m, _, p := newTestMMU()
	p.mode = 3
	require.Equal(t, uint8(0x00), m.Read(0xFEA0))

	p.mode = 0
	require.Equal(t, uint8(0xFF), m.Read(0xFEA0))
}

func TestWRAMBankingForcedOnDMG(t *testing.T) {
	irq := interrupts.NewService()
	m := New(types.ModelDMG, &stubMapper{}, irq, timer.New(irq), joypad.New(irq), serial.New(irq), apu.New())
	m.PPU = &stubPPU{}

	m.Write(0xFF70, 0x05) // SVBK: request bank 5
	m.Write(0xD000, 0x77)

	m.Write(0xFF70, 0x02) // bank switch is a no-op on DMG
	require.Equal(t, uint8(0x77), m.Read(0xD000), "DMG always uses WRAM bank 1 regardless of SVBK")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	m, _, _ := newTestMMU()
	m.Write(0xFF46, 0xC0)
	m.Tick(8)

	st := types.NewState()
	m.Save(st)

	loaded, _, _ := newTestMMU()
	loaded.Load(types.StateFromBytes(st.Bytes()))

	require.Equal(t, m.dma.index, loaded.dma.index)
	require.Equal(t, m.dma.active, loaded.dma.active)
}
