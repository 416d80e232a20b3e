package cartridge

import "github.com/kaelindev/pocketcore/internal/types"

// romOnly is a cartridge with no bank switching, optionally with a small
// fixed RAM window.
type romOnly struct {
	base
	rom []byte
	ram []byte
}

func newROMOnly(rom []byte, h *Header) *romOnly {
	return &romOnly{rom: rom, ram: make([]byte, h.RAMSize)}
}

func (m *romOnly) Read(addr uint16) uint8 {
	switch {
	case addr < 0x8000:
		if int(addr) < len(m.rom) {
			return m.rom[addr]
		}
		return 0xFF
	case addr >= 0xA000 && addr < 0xC000:
		if len(m.ram) == 0 {
			return 0xFF
		}
		return m.ram[(addr-0xA000)%uint16(len(m.ram))]
	}
	return 0xFF
}

func (m *romOnly) Write(addr uint16, value uint8) {
	if addr >= 0xA000 && addr < 0xC000 && len(m.ram) > 0 {
		m.ram[(addr-0xA000)%uint16(len(m.ram))] = value
	}
}

func (m *romOnly) BatteryRAM() []byte      { return m.ram }
func (m *romOnly) LoadBatteryRAM(d []byte) { copy(m.ram, d) }

func (m *romOnly) Save(s *types.State) { s.WriteData(m.ram) }
func (m *romOnly) Load(s *types.State) { copy(m.ram, s.ReadData()) }
