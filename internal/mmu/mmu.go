// Package mmu routes every CPU-visible memory access to the right region:
// cartridge mapper, VRAM/OAM (owned here, fetched directly by the PPU),
// WRAM, HRAM, or one of the I/O register blocks. It also owns the OAM and
// CGB VRAM DMA engines, since both are defined in terms of bus access.
package mmu

import (
	"github.com/kaelindev/pocketcore/internal/apu"
	"github.com/kaelindev/pocketcore/internal/cartridge"
	"github.com/kaelindev/pocketcore/internal/interrupts"
	"github.com/kaelindev/pocketcore/internal/joypad"
	"github.com/kaelindev/pocketcore/internal/serial"
	"github.com/kaelindev/pocketcore/internal/timer"
	"github.com/kaelindev/pocketcore/internal/types"
)

// PPUBus is the subset of *ppu.PPU the MMU needs; kept as an interface to
// avoid an import cycle (the PPU needs the MMU for VRAM/OAM access).
type PPUBus interface {
	ReadRegister(addr uint16) uint8
	WriteRegister(addr uint16, value uint8)
	Mode() uint8
}

// OnHBlank is called by the PPU every time it enters HBlank (mode 0); it
// advances a pending CGB HDMA transfer by one 16-byte block.
func (m *MMU) OnHBlank() {
	m.hdma.onHBlank(m)
}

type MMU struct {
	Model types.Model

	Mapper cartridge.Mapper
	IRQ    *interrupts.Service
	Timer  *timer.Controller
	Joypad *joypad.State
	Serial *serial.Controller
	APU    *apu.APU
	PPU    PPUBus

	vram [2][0x2000]byte
	vbk  uint8

	wram [8][0x1000]byte
	svbk uint8

	oam  [0xA0]byte
	hram [0x7F]byte

	key0 uint8
	key1 uint8

	dma  dmaEngine
	hdma hdmaEngine
}

func New(model types.Model, mapper cartridge.Mapper, irq *interrupts.Service, t *timer.Controller, jp *joypad.State, sc *serial.Controller, a *apu.APU) *MMU {
	m := &MMU{Model: model, Mapper: mapper, IRQ: irq, Timer: t, Joypad: jp, Serial: sc, APU: a, svbk: 1}
	return m
}

// Tick advances the DMA engines by cycles T-cycles; called by the execution
// driver alongside the timer/APU/PPU.
func (m *MMU) Tick(cycles int) {
	m.dma.tick(m, cycles)
}

// OAMDMAActive reports whether OAM DMA is in progress, used by Read to
// return 0xFF for everything outside HRAM per invariant 4.
func (m *MMU) OAMDMAActive() bool { return m.dma.active }

// GDMAInProgress reports whether a general-purpose VRAM DMA copy is being
// applied. runGDMA finishes the whole copy inside the HDMA5 write that
// starts it, so this is never true between CPU steps.
func (m *MMU) GDMAInProgress() bool { return m.hdma.gdmaPending }

func (m *MMU) Read(addr uint16) uint8 {
	if m.dma.active && !(addr >= 0xFF80 && addr <= 0xFFFE) {
		return 0xFF
	}
	return m.readRaw(addr)
}

func (m *MMU) readRaw(addr uint16) uint8 {
	switch {
	case addr < 0x8000:
		return m.Mapper.Read(addr)
	case addr < 0xA000:
		return m.vram[m.vbk][addr-0x8000]
	case addr < 0xC000:
		return m.Mapper.Read(addr)
	case addr < 0xD000:
		return m.wram[0][addr-0xC000]
	case addr < 0xE000:
		return m.wram[m.wramBank()][addr-0xD000]
	case addr < 0xFE00:
		return m.readRaw(addr - 0x2000)
	case addr < 0xFEA0:
		return m.oam[addr-0xFE00]
	case addr < 0xFF00:
		if m.PPU != nil && m.PPU.Mode() == 3 {
			return 0x00
		}
		return 0xFF
	case addr < 0xFF80:
		return m.readIO(addr)
	case addr < 0xFFFF:
		return m.hram[addr-0xFF80]
	default:
		return m.IRQ.Read(addr)
	}
}

func (m *MMU) wramBank() uint8 {
	bank := m.svbk & 0x07
	if bank == 0 {
		bank = 1
	}
	if m.Model != types.ModelCGB {
		bank = 1
	}
	return bank
}

func (m *MMU) readIO(addr uint16) uint8 {
	switch {
	case addr == types.P1:
		return m.Joypad.Read(addr)
	case addr == types.SB || addr == types.SC:
		return m.Serial.Read(addr)
	case addr == types.DIV || addr == types.TIMA || addr == types.TMA || addr == types.TAC:
		return m.Timer.Read(addr)
	case addr == types.IF:
		return m.IRQ.Read(addr)
	case addr >= 0xFF10 && addr <= 0xFF3F:
		return m.APU.Read(addr)
	case addr >= types.LCDC && addr <= types.WX:
		return m.PPU.ReadRegister(addr)
	case addr == types.KEY0:
		return m.key0
	case addr == types.KEY1:
		return m.key1
	case addr == types.VBK:
		return m.vbk | 0xFE
	case addr == types.BDIS:
		return 0xFF
	case addr >= types.HDMA1 && addr <= types.HDMA5:
		return m.hdma.read(addr)
	case addr == types.RP:
		return 0x3E
	case addr >= types.BCPS && addr <= types.OCPD:
		return m.PPU.ReadRegister(addr)
	case addr == types.OPRI:
		return m.PPU.ReadRegister(addr)
	case addr == types.SVBK:
		return m.svbk | 0xF8
	}
	return 0xFF
}

func (m *MMU) Write(addr uint16, value uint8) {
	if m.dma.active && !(addr >= 0xFF80 && addr <= 0xFFFE) {
		return
	}
	m.writeRaw(addr, value)
}

func (m *MMU) writeRaw(addr uint16, value uint8) {
	switch {
	case addr < 0x8000:
		m.Mapper.Write(addr, value)
	case addr < 0xA000:
		m.vram[m.vbk][addr-0x8000] = value
	case addr < 0xC000:
		m.Mapper.Write(addr, value)
	case addr < 0xD000:
		m.wram[0][addr-0xC000] = value
	case addr < 0xE000:
		m.wram[m.wramBank()][addr-0xD000] = value
	case addr < 0xFE00:
		m.writeRaw(addr-0x2000, value)
	case addr < 0xFEA0:
		m.oam[addr-0xFE00] = value
	case addr < 0xFF00:
		// prohibited region, writes are dropped
	case addr < 0xFF80:
		m.writeIO(addr, value)
	case addr < 0xFFFF:
		m.hram[addr-0xFF80] = value
	default:
		m.IRQ.Write(addr, value)
	}
}

func (m *MMU) writeIO(addr uint16, value uint8) {
	switch {
	case addr == types.P1:
		m.Joypad.Write(value)
	case addr == types.SB || addr == types.SC:
		m.Serial.Write(addr, value)
	case addr == types.DIV || addr == types.TIMA || addr == types.TMA || addr == types.TAC:
		m.Timer.Write(addr, value)
	case addr == types.IF:
		m.IRQ.Write(addr, value)
	case addr == types.DMA:
		m.dma.start(m, value)
	case addr >= 0xFF10 && addr <= 0xFF3F:
		m.APU.Write(addr, value)
	case addr >= types.LCDC && addr <= types.WX:
		m.PPU.WriteRegister(addr, value)
	case addr == types.KEY0:
		m.key0 = value
	case addr == types.KEY1:
		m.key1 = (m.key1 & 0x80) | (value & 0x01)
	case addr == types.VBK:
		if m.Model == types.ModelCGB {
			m.vbk = value & 0x01
		}
	case addr == types.BDIS:
		// boot ROM is out of scope; writes are accepted and ignored
	case addr >= types.HDMA1 && addr <= types.HDMA5:
		m.hdma.write(m, addr, value)
	case addr == types.RP:
		// IR port stub
	case addr >= types.BCPS && addr <= types.OCPD:
		m.PPU.WriteRegister(addr, value)
	case addr == types.OPRI:
		m.PPU.WriteRegister(addr, value)
	case addr == types.SVBK:
		if m.Model == types.ModelCGB {
			m.svbk = value & 0x07
		}
	}
}

// ArmSpeedSwitch reports and clears the KEY1 prepare-to-switch bit; called
// by the CPU when it executes STOP.
func (m *MMU) ArmSpeedSwitch() bool {
	if m.key1&0x01 == 0 {
		return false
	}
	m.key1 &^= 0x01
	m.key1 ^= 0x80
	return true
}

func (m *MMU) DoubleSpeed() bool { return m.key1&0x80 != 0 }

// VRAMRead/VRAMWrite/OAMRead/OAMWrite are the PPU fetcher's direct,
// bus-bypassing accessors; the MMU still owns the backing storage.
func (m *MMU) VRAMRead(bank uint8, addr uint16) uint8 { return m.vram[bank&1][addr] }
func (m *MMU) VRAMWrite(bank uint8, addr uint16, v uint8) { m.vram[bank&1][addr] = v }
func (m *MMU) OAMRead(addr uint8) uint8 { return m.oam[addr] }
func (m *MMU) OAMWrite(addr uint8, v uint8) { m.oam[addr] = v }
func (m *MMU) VBK() uint8 { return m.vbk }

var _ types.Stater = (*MMU)(nil)

func (m *MMU) Save(s *types.State) {
	s.WriteRaw(m.vram[0][:])
	s.WriteRaw(m.vram[1][:])
	s.Write8(m.vbk)
	for i := range m.wram {
		s.WriteRaw(m.wram[i][:])
	}
	s.Write8(m.svbk)
	s.WriteRaw(m.oam[:])
	s.WriteRaw(m.hram[:])
	s.Write8(m.key0)
	s.Write8(m.key1)
	m.dma.save(s)
	m.hdma.save(s)
	m.Mapper.Save(s)
	m.IRQ.Save(s)
	m.Timer.Save(s)
	m.Joypad.Save(s)
	m.Serial.Save(s)
	m.APU.Save(s)
}

func (m *MMU) Load(s *types.State) {
	s.ReadInto(m.vram[0][:])
	s.ReadInto(m.vram[1][:])
	m.vbk = s.Read8()
	for i := range m.wram {
		s.ReadInto(m.wram[i][:])
	}
	m.svbk = s.Read8()
	s.ReadInto(m.oam[:])
	s.ReadInto(m.hram[:])
	m.key0 = s.Read8()
	m.key1 = s.Read8()
	m.dma.load(s)
	m.hdma.load(s)
	m.Mapper.Load(s)
	m.IRQ.Load(s)
	m.Timer.Load(s)
	m.Joypad.Load(s)
	m.Serial.Load(s)
	m.APU.Load(s)
}
