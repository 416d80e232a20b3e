// Package timer implements the DIV/TIMA/TMA/TAC divider-timer pair.
package timer

import (
	"github.com/kaelindev/pocketcore/internal/interrupts"
	"github.com/kaelindev/pocketcore/internal/types"
)

// tacBit is the bit of the 16-bit internal divider each TAC rate selects;
// a TIMA increment happens on that bit's falling edge.
var tacBit = [4]uint16{1 << 9, 1 << 3, 1 << 5, 1 << 7} // 4096, 262144, 65536, 16384 Hz

type Controller struct {
	irq *interrupts.Service

	div  uint16 // internal 16-bit divider; DIV register is its high byte
	tima uint8
	tma  uint8
	tac  uint8

	reloadDelay int8 // cycles until TIMA reload fires, -1 when idle
}

func New(irq *interrupts.Service) *Controller {
	return &Controller{irq: irq, div: 0xABCC, reloadDelay: -1}
}

// Tick advances the timer by the given number of T-cycles.
func (c *Controller) Tick(cycles int) {
	for i := 0; i < cycles; i++ {
		c.tickOne()
	}
}

func (c *Controller) tickOne() {
	if c.reloadDelay >= 0 {
		c.reloadDelay--
		if c.reloadDelay == 0 {
			c.tima = c.tma
			c.irq.Request(interrupts.Timer)
			c.reloadDelay = -1
		}
	}

	before := c.div
	c.div++
	c.checkFallingEdge(before, c.div)
}

func (c *Controller) checkFallingEdge(before, after uint16) {
	if c.tac&0x04 == 0 {
		return
	}
	bit := tacBit[c.tac&0x03]
	if before&bit != 0 && after&bit == 0 {
		c.incrementTIMA()
	}
}

func (c *Controller) incrementTIMA() {
	c.tima++
	if c.tima == 0 {
		// overflow: TMA reloads and the interrupt fires one cycle later
		c.reloadDelay = 4
	}
}

func (c *Controller) Read(addr uint16) uint8 {
	switch addr {
	case types.DIV:
		return uint8(c.div >> 8)
	case types.TIMA:
		return c.tima
	case types.TMA:
		return c.tma
	case types.TAC:
		return c.tac | 0xF8
	}
	return 0xFF
}

func (c *Controller) Write(addr uint16, value uint8) {
	switch addr {
	case types.DIV:
		before := c.div
		c.div = 0
		c.checkFallingEdge(before, 0)
	case types.TIMA:
		if c.reloadDelay <= 0 {
			c.tima = value
		}
	case types.TMA:
		c.tma = value
		if c.reloadDelay == 0 {
			c.tima = value
		}
	case types.TAC:
		before := c.tac
		c.tac = value & 0x07
		// disabling the timer while its selected bit is set glitches an
		// extra increment, the same way a DIV reset would.
		if before&0x04 != 0 && c.tac&0x04 == 0 {
			bit := tacBit[before&0x03]
			if c.div&bit != 0 {
				c.incrementTIMA()
			}
		}
	}
}

var _ types.Stater = (*Controller)(nil)

func (c *Controller) Save(s *types.State) {
	s.Write16(c.div)
	s.Write8(c.tima)
	s.Write8(c.tma)
	s.Write8(c.tac)
	s.Write8(uint8(c.reloadDelay + 1))
}

func (c *Controller) Load(s *types.State) {
	c.div = s.Read16()
	c.tima = s.Read8()
	c.tma = s.Read8()
	c.tac = s.Read8()
	c.reloadDelay = int8(s.Read8()) - 1
}
