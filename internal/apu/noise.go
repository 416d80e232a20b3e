package apu

import "github.com/kaelindev/pocketcore/internal/types"

var noiseDivisors = [8]uint16{8, 16, 32, 48, 64, 80, 96, 112}

// noiseChannel generates pseudo-random white noise via a linear feedback
// shift register clocked by a divisor/shift pair instead of a frequency.
type noiseChannel struct {
	enabled    bool
	dacEnabled bool

	lengthCounter uint8
	lengthEnabled bool

	startVolume    uint8
	envelopeAdd    bool
	envelopePeriod uint8
	envelopeTimer  uint8
	currentVolume  uint8

	shiftAmount uint8
	widthMode   bool // true = 7-bit LFSR
	divisorCode uint8

	freqTimer uint16
	lfsr      uint16
}

func (c *noiseChannel) step() {
	if c.freqTimer == 0 {
		c.freqTimer = noiseDivisors[c.divisorCode] << c.shiftAmount
	}
	c.freqTimer--
	if c.freqTimer == 0 {
		c.freqTimer = noiseDivisors[c.divisorCode] << c.shiftAmount
		bit := (c.lfsr ^ (c.lfsr >> 1)) & 1
		c.lfsr >>= 1
		c.lfsr |= bit << 14
		if c.widthMode {
			c.lfsr &^= 1 << 6
			c.lfsr |= bit << 6
		}
	}
}

func (c *noiseChannel) amplitude() float32 {
	if !c.enabled || !c.dacEnabled {
		return 0
	}
	if c.lfsr&1 != 0 {
		return 0
	}
	return float32(c.currentVolume) / 15 * 2
}

func (c *noiseChannel) lengthStep() {
	if c.lengthEnabled && c.lengthCounter > 0 {
		c.lengthCounter--
		if c.lengthCounter == 0 {
			c.enabled = false
		}
	}
}

func (c *noiseChannel) envelopeStep() {
	if c.envelopePeriod == 0 {
		return
	}
	if c.envelopeTimer > 0 {
		c.envelopeTimer--
		if c.envelopeTimer == 0 {
			c.envelopeTimer = c.envelopePeriod
			if c.envelopeAdd && c.currentVolume < 0xF {
				c.currentVolume++
			} else if !c.envelopeAdd && c.currentVolume > 0 {
				c.currentVolume--
			}
		}
	}
}

func (c *noiseChannel) trigger() {
	c.enabled = true
	if c.lengthCounter == 0 {
		c.lengthCounter = 64
	}
	c.freqTimer = noiseDivisors[c.divisorCode] << c.shiftAmount
	c.envelopeTimer = c.envelopePeriod
	c.currentVolume = c.startVolume
	c.lfsr = 0x7FFF
	if !c.dacEnabled {
		c.enabled = false
	}
}

func (c *noiseChannel) read(offset uint16) uint8 {
	switch offset {
	case 1:
		return 0xFF
	case 2:
		b := c.startVolume<<4 | c.envelopePeriod
		if c.envelopeAdd {
			b |= 0x08
		}
		return b
	case 3:
		b := c.shiftAmount<<4 | c.divisorCode
		if c.widthMode {
			b |= 0x08
		}
		return b
	case 4:
		b := uint8(0xBF)
		if c.lengthEnabled {
			b |= 0x40
		}
		return b
	}
	return 0xFF
}

func (c *noiseChannel) write(offset uint16, value uint8) {
	switch offset {
	case 1:
		c.lengthCounter = 64 - (value & 0x3F)
	case 2:
		c.startVolume = value >> 4
		c.envelopeAdd = value&0x08 != 0
		c.envelopePeriod = value & 0x07
		c.dacEnabled = value&0xF8 != 0
		if !c.dacEnabled {
			c.enabled = false
		}
	case 3:
		c.shiftAmount = value >> 4
		c.widthMode = value&0x08 != 0
		c.divisorCode = value & 0x07
	case 4:
		c.lengthEnabled = value&0x40 != 0
		if value&0x80 != 0 {
			c.trigger()
		}
	}
}

func (c *noiseChannel) save(s *types.State) {
	s.WriteBool(c.enabled)
	s.WriteBool(c.dacEnabled)
	s.Write8(c.lengthCounter)
	s.WriteBool(c.lengthEnabled)
	s.Write8(c.startVolume)
	s.WriteBool(c.envelopeAdd)
	s.Write8(c.envelopePeriod)
	s.Write8(c.envelopeTimer)
	s.Write8(c.currentVolume)
	s.Write8(c.shiftAmount)
	s.WriteBool(c.widthMode)
	s.Write8(c.divisorCode)
	s.Write16(c.freqTimer)
	s.Write16(c.lfsr)
}

func (c *noiseChannel) load(s *types.State) {
	c.enabled = s.ReadBool()
	c.dacEnabled = s.ReadBool()
	c.lengthCounter = s.Read8()
	c.lengthEnabled = s.ReadBool()
	c.startVolume = s.Read8()
	c.envelopeAdd = s.ReadBool()
	c.envelopePeriod = s.Read8()
	c.envelopeTimer = s.Read8()
	c.currentVolume = s.Read8()
	c.shiftAmount = s.Read8()
	c.widthMode = s.ReadBool()
	c.divisorCode = s.Read8()
	c.freqTimer = s.Read16()
	c.lfsr = s.Read16()
}
