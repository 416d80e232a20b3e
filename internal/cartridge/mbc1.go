package cartridge

import "github.com/kaelindev/pocketcore/internal/types"

// mbc1 implements the MBC1 family: a 5-bit low ROM-bank register, a 2-bit
// high register shared between the ROM bank's top bits and the RAM bank
// select, and a mode bit that decides which of those two roles the high
// register plays. Bank 0 is aliased away from the switchable window: asking
// for banks 0x00/0x20/0x40/0x60 there actually selects 0x01/0x21/0x41/0x61.
type mbc1 struct {
	base
	rom []byte
	ram []byte

	ramEnable bool
	low       uint8 // 5 bits, 0x2000-0x3FFF
	high      uint8 // 2 bits, 0x4000-0x5FFF
	mode      bool  // 0x6000-0x7FFF

	multicart bool
}

func newMBC1(rom []byte, h *Header) *mbc1 {
	m := &mbc1{rom: rom, ram: make([]byte, h.RAMSize), low: 1}
	m.detectMulticart()
	return m
}

// multicartLogo is the Nintendo logo bytes repeated at the start of every
// 256 KiB sub-game on an MBC1M multicart compilation.
var multicartLogo = [...]byte{
	0xCE, 0xED, 0x66, 0x66, 0xCC, 0x0D, 0x00, 0x0B,
	0x03, 0x73, 0x00, 0x83, 0x00, 0x0C, 0x00, 0x0D,
}

func (m *mbc1) detectMulticart() {
	if len(m.rom) != 1024*1024 {
		return
	}
	matches := 0
	for bank := 0; bank < 4; bank++ {
		base := bank * 0x40000
		ok := true
		for i, b := range multicartLogo {
			if base+0x104+i >= len(m.rom) || m.rom[base+0x104+i] != b {
				ok = false
				break
			}
		}
		if ok {
			matches++
		}
	}
	m.multicart = matches > 1
}

func (m *mbc1) bankShift() uint8 {
	if m.multicart {
		return 4
	}
	return 5
}

func (m *mbc1) romBankIndex() int {
	low := m.low
	if m.multicart {
		low &= 0x0F
	}
	bank := int(low) | int(m.high)<<m.bankShift()
	return romBank(m.rom, bank)
}

func (m *mbc1) zeroBankIndex() int {
	if !m.mode {
		return 0
	}
	return romBank(m.rom, int(m.high)<<m.bankShift())
}

func (m *mbc1) Read(addr uint16) uint8 {
	switch {
	case addr < 0x4000:
		off := m.zeroBankIndex()*0x4000 + int(addr)
		if off < len(m.rom) {
			return m.rom[off]
		}
		return 0xFF
	case addr < 0x8000:
		off := m.romBankIndex()*0x4000 + int(addr-0x4000)
		if off < len(m.rom) {
			return m.rom[off]
		}
		return 0xFF
	case addr >= 0xA000 && addr < 0xC000:
		if !m.ramEnable || len(m.ram) == 0 {
			return 0xFF
		}
		bank := 0
		if m.mode {
			bank = ramBank(m.ram, int(m.high&0x03))
		}
		off := bank*0x2000 + int(addr-0xA000)
		if off < len(m.ram) {
			return m.ram[off]
		}
		return 0xFF
	}
	return 0xFF
}

func (m *mbc1) Write(addr uint16, value uint8) {
	switch {
	case addr < 0x2000:
		m.ramEnable = value&0x0F == 0x0A
	case addr < 0x4000:
		value &= 0x1F
		if value == 0 {
			value = 1
		}
		m.low = value
	case addr < 0x6000:
		m.high = value & 0x03
	case addr < 0x8000:
		m.mode = value&0x01 != 0
	case addr >= 0xA000 && addr < 0xC000:
		if !m.ramEnable || len(m.ram) == 0 {
			return
		}
		bank := 0
		if m.mode {
			bank = ramBank(m.ram, int(m.high&0x03))
		}
		off := bank*0x2000 + int(addr-0xA000)
		if off < len(m.ram) {
			m.ram[off] = value
		}
	}
}

func (m *mbc1) BatteryRAM() []byte      { return m.ram }
func (m *mbc1) LoadBatteryRAM(d []byte) { copy(m.ram, d) }

func (m *mbc1) Save(s *types.State) {
	s.WriteData(m.ram)
	s.WriteBool(m.ramEnable)
	s.Write8(m.low)
	s.Write8(m.high)
	s.WriteBool(m.mode)
	s.WriteBool(m.multicart)
}

func (m *mbc1) Load(s *types.State) {
	copy(m.ram, s.ReadData())
	m.ramEnable = s.ReadBool()
	m.low = s.Read8()
	m.high = s.Read8()
	m.mode = s.ReadBool()
	m.multicart = s.ReadBool()
}
