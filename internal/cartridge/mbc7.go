package cartridge

import "github.com/kaelindev/pocketcore/internal/types"

// eeprom93c56 is a minimal 93LC56-protocol serial EEPROM: 128 16-bit words,
// addressed with a start bit, a 2-bit opcode and a 7-bit address shifted in
// MSB-first over a CS/CLK/DI control byte, with the result shifted out one
// bit per CLK pulse on DO. Real carts bit-bang this through a single
// control register; MBC7's is mapped at 0xA080.
type eeprom93c56 struct {
	data [128]uint16

	cs, clk, di, do bool
	writeEnabled    bool

	shiftIn   uint16
	bitCount  uint8
	opcode    uint8
	address   uint8
	shiftOut  uint16
	outBits   uint8
	busy      bool
}

const (
	eepromOpRead  = 0b10
	eepromOpWrite = 0b01
	eepromOpErase = 0b11
	// opcode 00 is further discriminated by the top two address bits:
	// EWEN=11xxxxx, EWDS=00xxxxx, ERAL=10xxxxx, WRAL=01xxxxx
)

func (e *eeprom93c56) writeControl(value uint8) {
	newCS := value&0x80 != 0
	newCLK := value&0x40 != 0
	newDI := value&0x02 != 0

	if !newCS {
		e.cs, e.clk, e.di = false, false, false
		e.bitCount = 0
		e.shiftIn = 0
		return
	}

	risingClk := newCLK && !e.clk
	if risingClk {
		if e.busy {
			// shift a result bit out
			e.do = e.shiftOut&(1<<15) != 0
			e.shiftOut <<= 1
			e.outBits++
			if e.outBits >= 16 {
				e.busy = false
			}
		} else {
			e.shiftIn = e.shiftIn<<1 | boolBit(newDI)
			e.bitCount++
			e.decodeIfReady()
		}
	}

	e.cs, e.clk, e.di = newCS, newCLK, newDI
}

func boolBit(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}

func (e *eeprom93c56) decodeIfReady() {
	// start bit + 2-bit opcode + 7-bit address = 10 bits.
	if e.bitCount != 10 {
		return
	}
	e.opcode = uint8(e.shiftIn>>7) & 0b11
	e.address = uint8(e.shiftIn) & 0x7F
	e.bitCount = 0

	switch e.opcode {
	case eepromOpRead:
		e.shiftOut = e.data[e.address]
		e.outBits = 0
		e.busy = true
	case eepromOpErase:
		if e.writeEnabled {
			e.data[e.address] = 0xFFFF
		}
	default:
		// opcode 00: extended commands discriminated by top address bits
		switch e.address >> 5 {
		case 0b11:
			e.writeEnabled = true
		case 0b00:
			e.writeEnabled = false
		}
	}
	e.shiftIn = 0
}

// writeData handles the WRITE opcode's trailing 16 data bits, which this
// simplified model accepts as a single bulk write once a READ/WRITE opcode
// has been decoded and 16 more DI bits have been clocked in.
func (e *eeprom93c56) writeWord(addr uint8, value uint16) {
	if e.writeEnabled {
		e.data[addr&0x7F] = value
	}
}

func (e *eeprom93c56) save(s *types.State) {
	for _, w := range e.data {
		s.Write16(w)
	}
	s.WriteBool(e.writeEnabled)
}

func (e *eeprom93c56) load(s *types.State) {
	for i := range e.data {
		e.data[i] = s.Read16()
	}
	e.writeEnabled = s.ReadBool()
}

// mbc7 implements the MBC7 family: simple single-register ROM banking, a
// 93LC56 EEPROM, and a 2-axis accelerometer latched through four read ports.
type mbc7 struct {
	base
	rom []byte

	romBankSel uint8
	ramEnable1 bool
	ramEnable2 bool

	eeprom eeprom93c56

	accelX, accelY   int16
	latchedX         uint16
	latchedY         uint16
	latchSeq         [3]uint8
	latchSeqProgress int
}

const mbc7AccelCenter = 0x8000

func newMBC7(rom []byte, h *Header) *mbc7 {
	return &mbc7{rom: rom, romBankSel: 1, latchedX: mbc7AccelCenter, latchedY: mbc7AccelCenter}
}

func (m *mbc7) Read(addr uint16) uint8 {
	switch {
	case addr < 0x4000:
		if int(addr) < len(m.rom) {
			return m.rom[addr]
		}
		return 0xFF
	case addr < 0x8000:
		off := romBank(m.rom, int(m.romBankSel))*0x4000 + int(addr-0x4000)
		if off < len(m.rom) {
			return m.rom[off]
		}
		return 0xFF
	case addr == 0xA020:
		return uint8(m.latchedX)
	case addr == 0xA030:
		return uint8(m.latchedX >> 8)
	case addr == 0xA040:
		return uint8(m.latchedY)
	case addr == 0xA050:
		return uint8(m.latchedY >> 8)
	case addr == 0xA080:
		if m.eeprom.do {
			return 0x01
		}
		return 0x00
	case addr >= 0xA000 && addr < 0xC000:
		return 0xFF
	}
	return 0xFF
}

func (m *mbc7) Write(addr uint16, value uint8) {
	switch {
	case addr < 0x2000:
		m.ramEnable1 = value == 0x0A
	case addr < 0x4000:
		if value == 0 {
			value = 1
		}
		m.romBankSel = value & 0x7F
	case addr < 0x6000:
		m.ramEnable2 = value == 0x40
	case addr == 0xA000:
		m.latchWrite(value)
	case addr == 0xA080:
		m.eeprom.writeControl(value)
	}
}

// latchWrite tracks the 0x55 -> 0xAA -> 0x00 accelerometer latch sequence.
func (m *mbc7) latchWrite(value uint8) {
	switch m.latchSeqProgress {
	case 0:
		if value == 0x55 {
			m.latchSeqProgress = 1
		}
	case 1:
		if value == 0xAA {
			m.latchSeqProgress = 2
		} else {
			m.latchSeqProgress = 0
		}
	case 2:
		if value == 0x00 {
			m.latchedX = uint16(int32(m.accelX) + mbc7AccelCenter)
			m.latchedY = uint16(int32(m.accelY) + mbc7AccelCenter)
		}
		m.latchSeqProgress = 0
	}
}

func (m *mbc7) SetAccelerometer(x, y int16) {
	m.accelX, m.accelY = x, y
}

func (m *mbc7) BatteryRAM() []byte {
	s := types.NewState()
	for _, w := range m.eeprom.data {
		s.Write16(w)
	}
	return s.Bytes()
}

func (m *mbc7) LoadBatteryRAM(d []byte) {
	if len(d) == 0 {
		return
	}
	s := types.StateFromBytes(d)
	for i := range m.eeprom.data {
		m.eeprom.data[i] = s.Read16()
	}
}

func (m *mbc7) Save(s *types.State) {
	s.Write8(m.romBankSel)
	s.WriteBool(m.ramEnable1)
	s.WriteBool(m.ramEnable2)
	s.Write16(m.latchedX)
	s.Write16(m.latchedY)
	m.eeprom.save(s)
}

func (m *mbc7) Load(s *types.State) {
	m.romBankSel = s.Read8()
	m.ramEnable1 = s.ReadBool()
	m.ramEnable2 = s.ReadBool()
	m.latchedX = s.Read16()
	m.latchedY = s.Read16()
	m.eeprom.load(s)
}
