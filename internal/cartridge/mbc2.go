package cartridge

import "github.com/kaelindev/pocketcore/internal/types"

// mbc2 has a 4-bit ROM-bank register and 512 nibbles of built-in RAM; RAM
// enable and bank-select share the same write window, disambiguated by
// address bit 8.
type mbc2 struct {
	base
	rom []byte
	ram [256]byte // 512 nibbles, stored one nibble per byte's low bits

	ramEnable bool
	bank      uint8
}

func newMBC2(rom []byte, h *Header) *mbc2 {
	return &mbc2{rom: rom, bank: 1}
}

func (m *mbc2) Read(addr uint16) uint8 {
	switch {
	case addr < 0x4000:
		if int(addr) < len(m.rom) {
			return m.rom[addr]
		}
		return 0xFF
	case addr < 0x8000:
		off := romBank(m.rom, int(m.bank))*0x4000 + int(addr-0x4000)
		if off < len(m.rom) {
			return m.rom[off]
		}
		return 0xFF
	case addr >= 0xA000 && addr < 0xC000:
		if !m.ramEnable {
			return 0xFF
		}
		return m.ram[addr&0x1FF] | 0xF0
	}
	return 0xFF
}

func (m *mbc2) Write(addr uint16, value uint8) {
	switch {
	case addr < 0x4000:
		if addr&0x0100 == 0 {
			m.ramEnable = value&0x0F == 0x0A
		} else {
			value &= 0x0F
			if value == 0 {
				value = 1
			}
			m.bank = value
		}
	case addr >= 0xA000 && addr < 0xC000:
		if m.ramEnable {
			m.ram[addr&0x1FF] = value & 0x0F
		}
	}
}

func (m *mbc2) BatteryRAM() []byte { return m.ram[:] }
func (m *mbc2) LoadBatteryRAM(d []byte) {
	n := copy(m.ram[:], d)
	_ = n
}

func (m *mbc2) Save(s *types.State) {
	s.WriteRaw(m.ram[:])
	s.WriteBool(m.ramEnable)
	s.Write8(m.bank)
}

func (m *mbc2) Load(s *types.State) {
	s.ReadInto(m.ram[:])
	m.ramEnable = s.ReadBool()
	m.bank = s.Read8()
}
