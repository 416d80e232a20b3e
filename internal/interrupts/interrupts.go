// Package interrupts tracks the Game Boy's IF/IE registers and the master
// interrupt-enable flip-flop.
package interrupts

import "github.com/kaelindev/pocketcore/internal/types"

// Flag identifies one of the five interrupt sources, in priority order.
type Flag = uint8

const (
	VBlank Flag = iota
	LCDStat
	Timer
	Serial
	Joypad
)

// Vector is the service-routine address for each interrupt source.
var Vector = [5]uint16{0x0040, 0x0048, 0x0050, 0x0058, 0x0060}

// Service owns IF (0xFF0F), IE (0xFFFF) and IME.
type Service struct {
	Flag uint8
	Enable uint8
	IME  bool

	// imeDelay models EI's one-instruction-late enable.
	imeDelay uint8
}

func NewService() *Service {
	return &Service{}
}

func (s *Service) Request(flag Flag) {
	s.Flag |= 1 << flag
}

func (s *Service) Clear(flag Flag) {
	s.Flag &^= 1 << flag
}

// Pending reports the lowest-numbered (highest priority) requested and
// enabled interrupt, and whether one exists at all.
func (s *Service) Pending() (Flag, bool) {
	bits := s.Flag & s.Enable & 0x1F
	if bits == 0 {
		return 0, false
	}
	for i := Flag(0); i < 5; i++ {
		if bits&(1<<i) != 0 {
			return i, true
		}
	}
	return 0, false
}

// HasAny reports whether any interrupt is both requested and enabled,
// regardless of IME — used to wake the CPU from HALT/STOP.
func (s *Service) HasAny() bool {
	return s.Flag&s.Enable&0x1F != 0
}

// ScheduleEnable arms the one-instruction-delayed IME enable triggered by EI.
func (s *Service) ScheduleEnable() {
	s.imeDelay = 2
}

// Step advances the EI delay counter by one instruction boundary.
func (s *Service) Step() {
	if s.imeDelay == 0 {
		return
	}
	s.imeDelay--
	if s.imeDelay == 0 {
		s.IME = true
	}
}

func (s *Service) Read(addr uint16) uint8 {
	switch addr {
	case 0xFF0F:
		return s.Flag&0x1F | 0xE0
	case 0xFFFF:
		return s.Enable
	}
	return 0xFF
}

func (s *Service) Write(addr uint16, value uint8) {
	switch addr {
	case 0xFF0F:
		s.Flag = value & 0x1F
	case 0xFFFF:
		s.Enable = value
	}
}

var _ types.Stater = (*Service)(nil)

func (s *Service) Save(st *types.State) {
	st.Write8(s.Flag)
	st.Write8(s.Enable)
	st.WriteBool(s.IME)
	st.Write8(s.imeDelay)
}

func (s *Service) Load(st *types.State) {
	s.Flag = st.Read8()
	s.Enable = st.Read8()
	s.IME = st.ReadBool()
	s.imeDelay = st.Read8()
}
