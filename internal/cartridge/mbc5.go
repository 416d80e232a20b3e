package cartridge

import "github.com/kaelindev/pocketcore/internal/types"

// mbc5 has a 9-bit ROM bank and a 4-bit RAM bank; on rumble carts, bit 3 of
// the RAM-bank write routes to the rumble motor instead of a bank bit.
type mbc5 struct {
	base
	rom []byte
	ram []byte

	ramEnable bool
	romBankLo uint8
	romBankHi uint8
	ramSel    uint8

	rumble        bool
	rumbleMotor   uint8
	rumbleDecayCC int
}

func newMBC5(rom []byte, h *Header) *mbc5 {
	return &mbc5{rom: rom, ram: make([]byte, h.RAMSize), romBankLo: 1, rumble: h.CartridgeType.hasRumble()}
}

func (m *mbc5) romBankIndex() int {
	return romBank(m.rom, int(m.romBankHi)<<8|int(m.romBankLo))
}

func (m *mbc5) Read(addr uint16) uint8 {
	switch {
	case addr < 0x4000:
		if int(addr) < len(m.rom) {
			return m.rom[addr]
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
		bank := m.ramSel & 0x0F
		if m.rumble {
			bank &= 0x07
		}
		off := ramBank(m.ram, int(bank))*0x2000 + int(addr-0xA000)
		if off < len(m.ram) {
			return m.ram[off]
		}
		return 0xFF
	}
	return 0xFF
}

func (m *mbc5) Write(addr uint16, value uint8) {
	switch {
	case addr < 0x2000:
		m.ramEnable = value&0x0F == 0x0A
	case addr < 0x3000:
		m.romBankLo = value
	case addr < 0x4000:
		m.romBankHi = value & 0x01
	case addr < 0x6000:
		if m.rumble {
			if value&0x08 != 0 {
				m.rumbleMotor = 0xFF
				m.rumbleDecayCC = mbc3ClockHz / 8
			}
			m.ramSel = value & 0x07
		} else {
			m.ramSel = value & 0x0F
		}
	case addr >= 0xA000 && addr < 0xC000:
		if !m.ramEnable || len(m.ram) == 0 {
			return
		}
		bank := m.ramSel & 0x0F
		if m.rumble {
			bank &= 0x07
		}
		off := ramBank(m.ram, int(bank))*0x2000 + int(addr-0xA000)
		if off < len(m.ram) {
			m.ram[off] = value
		}
	}
}

func (m *mbc5) Tick(cycles int) {
	if !m.rumble || m.rumbleMotor == 0 {
		return
	}
	m.rumbleDecayCC -= cycles
	if m.rumbleDecayCC <= 0 {
		m.rumbleMotor = 0
	}
}

func (m *mbc5) RumbleIntensity() uint8 { return m.rumbleMotor }

func (m *mbc5) BatteryRAM() []byte      { return m.ram }
func (m *mbc5) LoadBatteryRAM(d []byte) { copy(m.ram, d) }

func (m *mbc5) Save(s *types.State) {
	s.WriteData(m.ram)
	s.WriteBool(m.ramEnable)
	s.Write8(m.romBankLo)
	s.Write8(m.romBankHi)
	s.Write8(m.ramSel)
	s.Write8(m.rumbleMotor)
}

func (m *mbc5) Load(s *types.State) {
	copy(m.ram, s.ReadData())
	m.ramEnable = s.ReadBool()
	m.romBankLo = s.Read8()
	m.romBankHi = s.Read8()
	m.ramSel = s.Read8()
	m.rumbleMotor = s.Read8()
}
