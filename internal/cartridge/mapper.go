package cartridge

import "github.com/kaelindev/pocketcore/internal/types"

// Mapper is the interface every supported cartridge-controller family
// implements. The MMU routes every ROM (0x0000-0x7FFF) and cartridge-RAM
// (0xA000-0xBFFF) access through it unmodified.
type Mapper interface {
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)

	// Tick advances any mapper-internal clock (MBC3 RTC seconds counter,
	// MBC5 rumble pulse decay) by the given number of T-cycles. MBC7 has no
	// Tick-driven state: no low-pass filtering is applied, and its
	// accelerometer registers change only when the latch sequence captures
	// the last SetAccelerometer sample.
	Tick(cycles int)

	// BatteryRAM/LoadBatteryRAM round-trip the raw cartridge-RAM bytes for
	// battery-backed carts. Non-battery carts return nil.
	BatteryRAM() []byte
	LoadBatteryRAM(data []byte)

	// RTCBlob/LoadRTCBlob round-trip the MBC3 RTC record. Mappers without
	// an RTC return nil and ignore Load.
	RTCBlob() []byte
	LoadRTCBlob(data []byte)

	// SetAccelerometer feeds the host's tilt sample to MBC7 carts; it is a
	// no-op on every other mapper.
	SetAccelerometer(x, y int16)

	// RumbleIntensity reports the current rumble motor output (0 = off,
	// 255 = full) for MBC5 rumble carts; always 0 otherwise, MBC7 included.
	RumbleIntensity() uint8

	types.Stater
}

// base embeds no-op implementations of the optional mapper behaviors so
// each concrete mapper only overrides what it actually supports.
type base struct{}

func (base) Tick(int)                     {}
func (base) BatteryRAM() []byte           { return nil }
func (base) LoadBatteryRAM([]byte)        {}
func (base) RTCBlob() []byte              { return nil }
func (base) LoadRTCBlob([]byte)           {}
func (base) SetAccelerometer(int16, int16) {}
func (base) RumbleIntensity() uint8       { return 0 }

// New constructs the mapper declared by the header. priorRAM and priorRTC,
// if non-nil, seed battery-backed RAM and a latched RTC record respectively.
func New(rom []byte, h *Header, priorRAM, priorRTC []byte, rtcNowUnix int64) (Mapper, error) {
	if priorRAM != nil && h.RAMSize > 0 && len(priorRAM) != h.RAMSize {
		return nil, saveCorrupt("battery RAM size mismatch: header declares %d bytes, got %d", h.RAMSize, len(priorRAM))
	}
	switch h.CartridgeType {
	case ROM, ROMRAM, ROMRAMBATT:
		return newROMOnly(rom, h), nil
	case MBC1, MBC1RAM, MBC1RAMBATT:
		m := newMBC1(rom, h)
		seedRAM(m, priorRAM)
		return m, nil
	case MBC2, MBC2BATT:
		m := newMBC2(rom, h)
		seedRAM(m, priorRAM)
		return m, nil
	case MBC3, MBC3RAM, MBC3RAMBATT, MBC3TIMERBATT, MBC3TIMERRAMBATT:
		m := newMBC3(rom, h, rtcNowUnix)
		seedRAM(m, priorRAM)
		if priorRTC != nil {
			if len(priorRTC) < 18 {
				return nil, saveCorrupt("rtc blob too short: got %d bytes, want at least 18", len(priorRTC))
			}
			m.LoadRTCBlob(priorRTC)
		}
		return m, nil
	case MBC5, MBC5RAM, MBC5RAMBATT, MBC5RUMBLE, MBC5RUMBLERAM, MBC5RUMBLERAMBATT:
		m := newMBC5(rom, h)
		seedRAM(m, priorRAM)
		return m, nil
	case MBC7SENSORRUMBLE:
		m := newMBC7(rom, h)
		seedRAM(m, priorRAM)
		return m, nil
	default:
		return nil, unsupportedMapper(h.CartridgeType)
	}
}

func seedRAM(m Mapper, priorRAM []byte) {
	if priorRAM != nil {
		m.LoadBatteryRAM(priorRAM)
	}
}

// romBank computes a ROM bank index modulo the cartridge's actual bank
// count, so carts smaller than the theoretical maximum for their mapper
// still wrap instead of indexing out of range.
func romBank(rom []byte, bank int) int {
	banks := len(rom) / 0x4000
	if banks == 0 {
		return 0
	}
	return bank % banks
}

func ramBank(ram []byte, bank int) int {
	banks := len(ram) / 0x2000
	if banks <= 0 {
		return 0
	}
	return bank % banks
}
