// Package serial provides the stubbed link-cable transfer: internal-clock
// transfers complete after the documented delay, external-clock transfers
// never complete, and no data actually reaches another emulator.
package serial

import (
	"github.com/kaelindev/pocketcore/internal/interrupts"
	"github.com/kaelindev/pocketcore/internal/types"
)

const transferCycles = 8 * 512 // 8 bits at the internal 8192 Hz clock

type Controller struct {
	irq *interrupts.Service

	data    uint8
	control uint8

	transferring bool
	remaining    int
}

func New(irq *interrupts.Service) *Controller {
	return &Controller{irq: irq, control: 0x7E}
}

func (c *Controller) Tick(cycles int) {
	if !c.transferring {
		return
	}
	c.remaining -= cycles
	if c.remaining <= 0 {
		c.transferring = false
		c.data = 0xFF
		c.control &^= 0x80
		c.irq.Request(interrupts.Serial)
	}
}

func (c *Controller) Read(addr uint16) uint8 {
	switch addr {
	case types.SB:
		return c.data
	case types.SC:
		return c.control | 0x7E
	}
	return 0xFF
}

func (c *Controller) Write(addr uint16, value uint8) {
	switch addr {
	case types.SB:
		c.data = value
	case types.SC:
		c.control = value | 0x7E
		// only an internal-clock transfer (bit0 set) ever completes; an
		// external-clock request has no peer to drive the bus, so it
		// simply sits pending forever, matching real hardware with no
		// cable attached.
		if value&0x80 != 0 && value&0x01 != 0 {
			c.transferring = true
			c.remaining = transferCycles
		}
	}
}

var _ types.Stater = (*Controller)(nil)

func (c *Controller) Save(s *types.State) {
	s.Write8(c.data)
	s.Write8(c.control)
	s.WriteBool(c.transferring)
	s.Write32(uint32(c.remaining))
}

func (c *Controller) Load(s *types.State) {
	c.data = s.Read8()
	c.control = s.Read8()
	c.transferring = s.ReadBool()
	c.remaining = int(s.Read32())
}
