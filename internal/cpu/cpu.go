// Package cpu implements an instruction-stepped interpreter for the Sharp
// LR35902: one Step() decodes and executes exactly one instruction (or
// services one interrupt, or idles one tick while halted) and returns the
// number of T-cycles it took, normalized to single-speed time so the
// caller can advance every other subsystem by the same amount.
package cpu

import (
	"github.com/kaelindev/pocketcore/internal/interrupts"
	"github.com/kaelindev/pocketcore/internal/mmu"
	"github.com/kaelindev/pocketcore/internal/types"
)

type CPU struct {
	R   Registers
	bus *mmu.MMU
	irq *interrupts.Service

	halted         bool
	haltBugPending bool
	stopped        bool
	locked         bool

	mainTable [256]func(*CPU) int
	cbTable   [256]func(*CPU) int
}

func New(bus *mmu.MMU, irq *interrupts.Service) *CPU {
	c := &CPU{bus: bus, irq: irq}
	c.R.PC = 0x0100
	c.R.SP = 0xFFFE
	c.R.setAF(0x01B0)
	c.R.setBC(0x0013)
	c.R.setDE(0x00D8)
	c.R.setHL(0x014D)
	c.buildMainTable()
	c.buildCBTable()
	return c
}

func (c *CPU) fetch8() uint8 {
	v := c.bus.Read(c.R.PC)
	if !c.haltBugPending {
		c.R.PC++
	}
	c.haltBugPending = false
	return v
}

func (c *CPU) fetch16() uint16 {
	lo := c.fetch8()
	hi := c.fetch8()
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) push16(v uint16) {
	c.R.SP -= 2
	c.bus.Write(c.R.SP, uint8(v))
	c.bus.Write(c.R.SP+1, uint8(v>>8))
}

func (c *CPU) pop16() uint16 {
	lo := c.bus.Read(c.R.SP)
	hi := c.bus.Read(c.R.SP + 1)
	c.R.SP += 2
	return uint16(hi)<<8 | uint16(lo)
}

// Step executes exactly one instruction-equivalent unit of work and
// returns its cost in normalized (single-speed) T-cycles.
func (c *CPU) Step() int {
	if c.locked {
		return c.normalize(4)
	}

	if c.stopped {
		if c.irq.HasAny() {
			c.stopped = false
		} else {
			return c.normalize(4)
		}
	}

	if c.halted {
		if c.irq.HasAny() {
			c.halted = false
		} else {
			c.irq.Step()
			return c.normalize(4)
		}
	}

	if serviced := c.tryServiceInterrupt(); serviced {
		return c.normalize(20)
	}

	opcode := c.fetch8()
	cycles := c.mainTable[opcode](c)
	c.irq.Step()
	return c.normalize(cycles)
}

func (c *CPU) normalize(cycles int) int {
	if c.bus.DoubleSpeed() {
		return cycles / 2
	}
	return cycles
}

func (c *CPU) tryServiceInterrupt() bool {
	if !c.irq.IME {
		return false
	}
	flag, ok := c.irq.Pending()
	if !ok {
		return false
	}
	c.irq.IME = false
	c.irq.Clear(flag)
	c.push16(c.R.PC)
	c.R.PC = interrupts.Vector[flag]
	return true
}

// halt implements the HALT opcode, including the documented "halt bug":
// if IME is false but an interrupt is already pending when HALT executes,
// the next instruction fetch fails to advance PC, re-executing that byte.
func (c *CPU) halt() {
	if !c.irq.IME && c.irq.HasAny() {
		c.haltBugPending = true
		return
	}
	c.halted = true
}

func (c *CPU) stop() {
	c.fetch8() // STOP is followed by an ignored operand byte on real hardware
	if c.bus.ArmSpeedSwitch() {
		return
	}
	c.stopped = true
}

var _ types.Stater = (*CPU)(nil)

func (c *CPU) Save(s *types.State) {
	s.Write8(c.R.A)
	s.Write8(c.R.F)
	s.Write8(c.R.B)
	s.Write8(c.R.C)
	s.Write8(c.R.D)
	s.Write8(c.R.E)
	s.Write8(c.R.H)
	s.Write8(c.R.L)
	s.Write16(c.R.SP)
	s.Write16(c.R.PC)
	s.WriteBool(c.halted)
	s.WriteBool(c.haltBugPending)
	s.WriteBool(c.stopped)
	s.WriteBool(c.locked)
}

func (c *CPU) Load(s *types.State) {
	c.R.A = s.Read8()
	c.R.F = s.Read8()
	c.R.B = s.Read8()
	c.R.C = s.Read8()
	c.R.D = s.Read8()
	c.R.E = s.Read8()
	c.R.H = s.Read8()
	c.R.L = s.Read8()
	c.R.SP = s.Read16()
	c.R.PC = s.Read16()
	c.halted = s.ReadBool()
	c.haltBugPending = s.ReadBool()
	c.stopped = s.ReadBool()
	c.locked = s.ReadBool()
}
