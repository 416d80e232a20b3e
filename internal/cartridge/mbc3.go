package cartridge

import "github.com/kaelindev/pocketcore/internal/types"

const mbc3ClockHz = 4194304

// rtc holds the MBC3 real-time clock's live and latched register views.
type rtc struct {
	seconds, minutes, hours uint8
	days                    uint16 // 9-bit day counter
	dayCarry                bool
	halt                    bool

	latchSeconds, latchMinutes, latchHours uint8
	latchDays                              uint16
	latchDayCarry, latchHalt               bool

	cycleAcc  int
	latchPrev uint8 // last byte written to the 0x6000-0x7FFF latch port
}

func (r *rtc) tick(cycles int) {
	if r.halt {
		return
	}
	r.cycleAcc += cycles
	for r.cycleAcc >= mbc3ClockHz {
		r.cycleAcc -= mbc3ClockHz
		r.advanceSecond()
	}
}

func (r *rtc) advanceSecond() {
	r.seconds++
	if r.seconds < 60 {
		return
	}
	r.seconds = 0
	r.minutes++
	if r.minutes < 60 {
		return
	}
	r.minutes = 0
	r.hours++
	if r.hours < 24 {
		return
	}
	r.hours = 0
	r.days++
	if r.days > 0x1FF {
		r.days = 0
		r.dayCarry = true
	}
}

func (r *rtc) advanceSeconds(n int64) {
	// advance whole seconds directly; used when applying elapsed wall-clock
	// time on load, which can be a large delta.
	for ; n > 0; n-- {
		r.advanceSecond()
	}
}

func (r *rtc) latch() {
	r.latchSeconds = r.seconds
	r.latchMinutes = r.minutes
	r.latchHours = r.hours
	r.latchDays = r.days
	r.latchDayCarry = r.dayCarry
	r.latchHalt = r.halt
}

func (r *rtc) writeLatchPort(value uint8) {
	if r.latchPrev == 0x00 && value == 0x01 {
		r.latch()
	}
	r.latchPrev = value
}

func (r *rtc) readRegister(sel uint8) uint8 {
	switch sel {
	case 0x08:
		return r.latchSeconds
	case 0x09:
		return r.latchMinutes
	case 0x0A:
		return r.latchHours
	case 0x0B:
		return uint8(r.latchDays)
	case 0x0C:
		v := uint8(r.latchDays>>8) & 0x01
		if r.latchHalt {
			v |= 0x40
		}
		if r.latchDayCarry {
			v |= 0x80
		}
		return v
	}
	return 0xFF
}

func (r *rtc) writeRegister(sel uint8, value uint8) {
	switch sel {
	case 0x08:
		r.seconds = value % 60
	case 0x09:
		r.minutes = value % 60
	case 0x0A:
		r.hours = value % 24
	case 0x0B:
		r.days = (r.days &^ 0xFF) | uint16(value)
	case 0x0C:
		r.days = (r.days & 0xFF) | uint16(value&0x01)<<8
		r.halt = value&0x40 != 0
		r.dayCarry = value&0x80 != 0
	}
}

func (r *rtc) blob(now int64) []byte {
	s := types.NewState()
	s.Write8(r.seconds)
	s.Write8(r.minutes)
	s.Write8(r.hours)
	s.Write8(uint8(r.days))
	dh := uint8(r.days>>8) & 0x01
	if r.halt {
		dh |= 0x40
	}
	if r.dayCarry {
		dh |= 0x80
	}
	s.Write8(dh)
	s.Write8(r.latchSeconds)
	s.Write8(r.latchMinutes)
	s.Write8(r.latchHours)
	s.Write8(uint8(r.latchDays))
	ldh := uint8(r.latchDays>>8) & 0x01
	if r.latchHalt {
		ldh |= 0x40
	}
	if r.latchDayCarry {
		ldh |= 0x80
	}
	s.Write8(ldh)
	s.Write64(uint64(now))
	return s.Bytes()
}

func (r *rtc) loadBlob(data []byte, now int64) {
	if len(data) < 18 {
		return
	}
	s := types.StateFromBytes(data)
	r.seconds = s.Read8()
	r.minutes = s.Read8()
	r.hours = s.Read8()
	r.days = uint16(s.Read8())
	dh := s.Read8()
	r.days |= uint16(dh&0x01) << 8
	r.halt = dh&0x40 != 0
	r.dayCarry = dh&0x80 != 0

	r.latchSeconds = s.Read8()
	r.latchMinutes = s.Read8()
	r.latchHours = s.Read8()
	r.latchDays = uint16(s.Read8())
	ldh := s.Read8()
	r.latchDays |= uint16(ldh&0x01) << 8
	r.latchHalt = ldh&0x40 != 0
	r.latchDayCarry = ldh&0x80 != 0

	saved := int64(s.Read64())
	if !r.halt && now > saved {
		r.advanceSeconds(now - saved)
	}
}

// mbc3 implements the MBC3 family: up to 4 RAM banks, plus an optional
// battery-backed RTC selected into the same 0xA000-0xBFFF window.
type mbc3 struct {
	base
	rom []byte
	ram []byte
	rtc *rtc

	ramEnable bool
	bank      uint8 // ROM bank, 0x2000-0x3FFF
	sel       uint8 // RAM bank (0x00-0x03) or RTC register (0x08-0x0C)

	now int64
}

func newMBC3(rom []byte, h *Header, nowUnix int64) *mbc3 {
	m := &mbc3{rom: rom, ram: make([]byte, h.RAMSize), bank: 1, now: nowUnix}
	if h.CartridgeType.hasRTC() {
		m.rtc = &rtc{}
	}
	return m
}

func (m *mbc3) Tick(cycles int) {
	if m.rtc != nil {
		m.rtc.tick(cycles)
	}
}

func (m *mbc3) Read(addr uint16) uint8 {
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
		if m.sel >= 0x08 && m.sel <= 0x0C && m.rtc != nil {
			return m.rtc.readRegister(m.sel)
		}
		if m.sel <= 0x03 && len(m.ram) > 0 {
			off := ramBank(m.ram, int(m.sel))*0x2000 + int(addr-0xA000)
			if off < len(m.ram) {
				return m.ram[off]
			}
		}
		return 0xFF
	}
	return 0xFF
}

func (m *mbc3) Write(addr uint16, value uint8) {
	switch {
	case addr < 0x2000:
		m.ramEnable = value&0x0F == 0x0A
	case addr < 0x4000:
		value &= 0x7F
		if value == 0 {
			value = 1
		}
		m.bank = value
	case addr < 0x6000:
		m.sel = value
	case addr < 0x8000:
		if m.rtc != nil {
			m.rtc.writeLatchPort(value)
		}
	case addr >= 0xA000 && addr < 0xC000:
		if !m.ramEnable {
			return
		}
		if m.sel >= 0x08 && m.sel <= 0x0C && m.rtc != nil {
			m.rtc.writeRegister(m.sel, value)
			return
		}
		if m.sel <= 0x03 && len(m.ram) > 0 {
			off := ramBank(m.ram, int(m.sel))*0x2000 + int(addr-0xA000)
			if off < len(m.ram) {
				m.ram[off] = value
			}
		}
	}
}

func (m *mbc3) BatteryRAM() []byte      { return m.ram }
func (m *mbc3) LoadBatteryRAM(d []byte) { copy(m.ram, d) }

func (m *mbc3) RTCBlob() []byte {
	if m.rtc == nil {
		return nil
	}
	return m.rtc.blob(m.now)
}

func (m *mbc3) LoadRTCBlob(data []byte) {
	if m.rtc == nil {
		return
	}
	m.rtc.loadBlob(data, m.now)
}

func (m *mbc3) Save(s *types.State) {
	s.WriteData(m.ram)
	s.WriteBool(m.ramEnable)
	s.Write8(m.bank)
	s.Write8(m.sel)
	s.WriteBool(m.rtc != nil)
	if m.rtc != nil {
		s.WriteData(m.rtc.blob(m.now))
	}
}

func (m *mbc3) Load(s *types.State) {
	copy(m.ram, s.ReadData())
	m.ramEnable = s.ReadBool()
	m.bank = s.Read8()
	m.sel = s.Read8()
	hasRTC := s.ReadBool()
	if hasRTC {
		blob := s.ReadData()
		if m.rtc == nil {
			m.rtc = &rtc{}
		}
		m.rtc.loadBlob(blob, m.now)
	}
}
