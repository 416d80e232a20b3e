package apu

import "github.com/kaelindev/pocketcore/internal/types"

var dutyTable = [4][8]uint8{
	{0, 0, 0, 0, 0, 0, 0, 1}, // 12.5%
	{1, 0, 0, 0, 0, 0, 0, 1}, // 25%
	{1, 0, 0, 0, 0, 1, 1, 1}, // 50%
	{0, 1, 1, 1, 1, 1, 1, 0}, // 75%
}

// squareChannel models NR1x (with sweep) and NR2x (without); hasSweep
// gates the NRx0 register and the periodic frequency sweep.
type squareChannel struct {
	hasSweep bool

	enabled    bool
	dacEnabled bool

	duty          uint8
	lengthCounter uint8
	lengthEnabled bool
	dutyPos       uint8

	frequency uint16
	freqTimer uint16

	startVolume    uint8
	envelopeAdd    bool
	envelopePeriod uint8
	envelopeTimer  uint8
	currentVolume  uint8
	envelopeActive bool

	sweepPeriod  uint8
	sweepNegate  bool
	sweepShift   uint8
	sweepTimer   uint8
	sweepEnabled bool
	sweepShadow  uint16
	negateUsed   bool
}

func (c *squareChannel) step() {
	if c.freqTimer == 0 {
		c.freqTimer = (2048 - c.frequency) * 4
	}
	c.freqTimer--
	if c.freqTimer == 0 {
		c.freqTimer = (2048 - c.frequency) * 4
		c.dutyPos = (c.dutyPos + 1) & 7
	}
}

func (c *squareChannel) amplitude() float32 {
	if !c.enabled || !c.dacEnabled {
		return 0
	}
	if dutyTable[c.duty][c.dutyPos] == 0 {
		return 0
	}
	return float32(c.currentVolume) / 15 * 2
}

func (c *squareChannel) lengthStep() {
	if c.lengthEnabled && c.lengthCounter > 0 {
		c.lengthCounter--
		if c.lengthCounter == 0 {
			c.enabled = false
		}
	}
}

func (c *squareChannel) envelopeStep() {
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

func (c *squareChannel) sweepStep() {
	if !c.hasSweep || !c.sweepEnabled {
		return
	}
	if c.sweepTimer > 0 {
		c.sweepTimer--
		if c.sweepTimer == 0 {
			c.sweepTimer = c.sweepPeriodOrEight()
			if c.sweepPeriod > 0 {
				newFreq := c.sweepCalc()
				if newFreq <= 2047 && c.sweepShift > 0 {
					c.frequency = newFreq
					c.sweepShadow = newFreq
					c.sweepCalc() // second overflow check, result discarded
				}
			}
		}
	}
}

func (c *squareChannel) sweepPeriodOrEight() uint8 {
	if c.sweepPeriod == 0 {
		return 8
	}
	return c.sweepPeriod
}

func (c *squareChannel) sweepCalc() uint16 {
	delta := c.sweepShadow >> c.sweepShift
	var newFreq uint16
	if c.sweepNegate {
		newFreq = c.sweepShadow - delta
		c.negateUsed = true
	} else {
		newFreq = c.sweepShadow + delta
	}
	if newFreq > 2047 {
		c.enabled = false
	}
	return newFreq
}

func (c *squareChannel) trigger() {
	c.enabled = true
	if c.lengthCounter == 0 {
		c.lengthCounter = 64
	}
	c.freqTimer = (2048 - c.frequency) * 4
	c.envelopeTimer = c.envelopePeriod
	c.currentVolume = c.startVolume
	if !c.dacEnabled {
		c.enabled = false
	}
	if c.hasSweep {
		c.sweepShadow = c.frequency
		c.sweepTimer = c.sweepPeriodOrEight()
		c.sweepEnabled = c.sweepPeriod > 0 || c.sweepShift > 0
		c.negateUsed = false
		if c.sweepShift > 0 {
			c.sweepCalc()
		}
	}
}

func (c *squareChannel) read(offset uint16) uint8 {
	switch offset {
	case 0:
		if !c.hasSweep {
			return 0xFF
		}
		b := c.sweepPeriod<<4 | c.sweepShift | 0x80
		if c.sweepNegate {
			b |= 0x08
		}
		return b
	case 1:
		return c.duty<<6 | 0x3F
	case 2:
		b := c.startVolume<<4 | c.envelopePeriod
		if c.envelopeAdd {
			b |= 0x08
		}
		return b
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

func (c *squareChannel) write(offset uint16, value uint8) {
	switch offset {
	case 0:
		if !c.hasSweep {
			return
		}
		wasNegate := c.sweepNegate
		c.sweepPeriod = (value >> 4) & 0x07
		c.sweepNegate = value&0x08 != 0
		c.sweepShift = value & 0x07
		if wasNegate && !c.sweepNegate && c.negateUsed {
			c.enabled = false
		}
	case 1:
		c.duty = value >> 6
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
		c.frequency = c.frequency&0x700 | uint16(value)
	case 4:
		c.frequency = c.frequency&0xFF | uint16(value&0x07)<<8
		c.lengthEnabled = value&0x40 != 0
		if value&0x80 != 0 {
			c.trigger()
		}
	}
}

func (c *squareChannel) save(s *types.State) {
	s.WriteBool(c.enabled)
	s.WriteBool(c.dacEnabled)
	s.Write8(c.duty)
	s.Write8(c.lengthCounter)
	s.WriteBool(c.lengthEnabled)
	s.Write8(c.dutyPos)
	s.Write16(c.frequency)
	s.Write16(c.freqTimer)
	s.Write8(c.startVolume)
	s.WriteBool(c.envelopeAdd)
	s.Write8(c.envelopePeriod)
	s.Write8(c.envelopeTimer)
	s.Write8(c.currentVolume)
	s.Write8(c.sweepPeriod)
	s.WriteBool(c.sweepNegate)
	s.Write8(c.sweepShift)
	s.Write8(c.sweepTimer)
	s.WriteBool(c.sweepEnabled)
	s.Write16(c.sweepShadow)
	s.WriteBool(c.negateUsed)
}

func (c *squareChannel) load(s *types.State) {
	c.enabled = s.ReadBool()
	c.dacEnabled = s.ReadBool()
	c.duty = s.Read8()
	c.lengthCounter = s.Read8()
	c.lengthEnabled = s.ReadBool()
	c.dutyPos = s.Read8()
	c.frequency = s.Read16()
	c.freqTimer = s.Read16()
	c.startVolume = s.Read8()
	c.envelopeAdd = s.ReadBool()
	c.envelopePeriod = s.Read8()
	c.envelopeTimer = s.Read8()
	c.currentVolume = s.Read8()
	c.sweepPeriod = s.Read8()
	c.sweepNegate = s.ReadBool()
	c.sweepShift = s.Read8()
	c.sweepTimer = s.Read8()
	c.sweepEnabled = s.ReadBool()
	c.sweepShadow = s.Read16()
	c.negateUsed = s.ReadBool()
}
