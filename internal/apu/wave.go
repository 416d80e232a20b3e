package apu

import "github.com/kaelindev/pocketcore/internal/types"

// waveChannel plays back the 32 4-bit samples in waveRAM (FF30-FF3F).
type waveChannel struct {
	enabled    bool
	dacEnabled bool

	lengthCounter uint16 // NR31 is a full 8-bit load but the counter runs to 256
	lengthEnabled bool

	volumeShift uint8 // 0=mute, 1=100%, 2=50%, 3=25%

	frequency uint16
	freqTimer uint16

	position uint8
	waveRAM  [16]byte
}

func (c *waveChannel) step() {
	if c.freqTimer == 0 {
		c.freqTimer = (2048 - c.frequency) * 2
	}
	c.freqTimer--
	if c.freqTimer == 0 {
		c.freqTimer = (2048 - c.frequency) * 2
		c.position = (c.position + 1) & 31
	}
}

func (c *waveChannel) amplitude() float32 {
	if !c.enabled || !c.dacEnabled || c.volumeShift == 0 {
		return 0
	}
	raw := c.waveRAM[c.position/2]
	var nibble uint8
	if c.position%2 == 0 {
		nibble = raw >> 4
	} else {
		nibble = raw & 0x0F
	}
	sample := nibble >> (c.volumeShift - 1)
	return float32(sample) / 15 * 2
}

func (c *waveChannel) lengthStep() {
	if c.lengthEnabled && c.lengthCounter > 0 {
		c.lengthCounter--
		if c.lengthCounter == 0 {
			c.enabled = false
		}
	}
}

func (c *waveChannel) trigger() {
	c.enabled = c.dacEnabled
	if c.lengthCounter == 0 {
		c.lengthCounter = 256
	}
	c.freqTimer = (2048 - c.frequency) * 2
	c.position = 0
}

func (c *waveChannel) read(offset uint16) uint8 {
	switch offset {
	case 0:
		b := uint8(0x7F)
		if c.dacEnabled {
			b |= 0x80
		}
		return b
	case 1:
		return 0xFF
	case 2:
		return c.volumeShift<<5 | 0x9F
	case 3:
		return 0xFF
	case 4:
		b := uint8(0xBF)
		if c.lengthEnabled {
			b |= 0x40
		}
		return b
	}
	return 0xFF
}

func (c *waveChannel) write(offset uint16, value uint8) {
	switch offset {
	case 0:
		c.dacEnabled = value&0x80 != 0
		if !c.dacEnabled {
			c.enabled = false
		}
	case 1:
		c.lengthCounter = 256 - uint16(value)
	case 2:
		c.volumeShift = (value >> 5) & 0x03
	case 3:
		c.frequency = c.frequency&0x700 | uint16(value)
	case 4:
		c.frequency = c.frequency&0xFF | uint16(value&0x07)<<8
		c.lengthEnabled = value&0x40 != 0
		if value&0x80 != 0 {
			c.trigger()
		}
	}
}

func (c *waveChannel) readWaveRAM(addr uint16) uint8 {
	return c.waveRAM[addr-0xFF30]
}

func (c *waveChannel) writeWaveRAM(addr uint16, value uint8) {
	c.waveRAM[addr-0xFF30] = value
}

func (c *waveChannel) save(s *types.State) {
	s.WriteBool(c.enabled)
	s.WriteBool(c.dacEnabled)
	s.Write16(c.lengthCounter)
	s.WriteBool(c.lengthEnabled)
	s.Write8(c.volumeShift)
	s.Write16(c.frequency)
	s.Write16(c.freqTimer)
	s.Write8(c.position)
	s.WriteRaw(c.waveRAM[:])
}

func (c *waveChannel) load(s *types.State) {
	c.enabled = s.ReadBool()
	c.dacEnabled = s.ReadBool()
	c.lengthCounter = s.Read16()
	c.lengthEnabled = s.ReadBool()
	c.volumeShift = s.Read8()
	c.frequency = s.Read16()
	c.freqTimer = s.Read16()
	c.position = s.Read8()
	s.ReadInto(c.waveRAM[:])
}
