package cpu

// buildMainTable fills in all 256 unprefixed opcodes. Regular regions (the
// LD r,r' grid and the ALU A,r grid) are generated by loop; everything else
// is assigned individually, grouped the way the official opcode tables are
// laid out.
func (c *CPU) buildMainTable() {
	t := &c.mainTable

	t[0x00] = func(c *CPU) int { return 4 }
	t[0x10] = func(c *CPU) int { c.stop(); return 4 }
	t[0x76] = func(c *CPU) int { c.halt(); return 4 }
	t[0xF3] = func(c *CPU) int { c.irq.IME = false; return 4 }
	t[0xFB] = func(c *CPU) int { c.irq.ScheduleEnable(); return 4 }
	t[0xCB] = func(c *CPU) int { op := c.fetch8(); return 4 + c.cbTable[op](c) }

	// LD r,r' grid: 0x40-0x7F, except 0x76 (HALT) already set above.
	for dst := uint8(0); dst < 8; dst++ {
		for src := uint8(0); src < 8; src++ {
			op := 0x40 + dst*8 + src
			if op == 0x76 {
				continue
			}
			d, s := dst, src
			cycles := 4
			if d == 6 || s == 6 {
				cycles = 8
			}
			t[op] = func(c *CPU) int {
				c.writeReg8(d, c.readReg8(s))
				return cycles
			}
		}
	}

	// ALU A,r grid: 0x80-0xBF, one row per operation.
	aluOps := []func(c *CPU, v uint8){
		func(c *CPU, v uint8) { c.R.A = c.add8(c.R.A, v, false) },
		func(c *CPU, v uint8) { c.R.A = c.add8(c.R.A, v, true) },
		func(c *CPU, v uint8) { c.R.A = c.sub8(c.R.A, v, false) },
		func(c *CPU, v uint8) { c.R.A = c.sub8(c.R.A, v, true) },
		func(c *CPU, v uint8) { c.R.A = c.and8(c.R.A, v) },
		func(c *CPU, v uint8) { c.R.A = c.xor8(c.R.A, v) },
		func(c *CPU, v uint8) { c.R.A = c.or8(c.R.A, v) },
		func(c *CPU, v uint8) { c.cp8(c.R.A, v) },
	}
	for row := uint8(0); row < 8; row++ {
		for src := uint8(0); src < 8; src++ {
			op := 0x80 + row*8 + src
			fn := aluOps[row]
			s := src
			cycles := 4
			if s == 6 {
				cycles = 8
			}
			t[op] = func(c *CPU) int {
				fn(c, c.readReg8(s))
				return cycles
			}
		}
	}
	// Immediate forms of the same ALU ops: C6,CE,D6,DE,E6,EE,F6,FE.
	for row := uint8(0); row < 8; row++ {
		op := 0xC6 + row*8
		fn := aluOps[row]
		t[op] = func(c *CPU) int { fn(c, c.fetch8()); return 8 }
	}

	// INC/DEC r8: 0x04,0x0C,... step 8, and 0x05,0x0D,...
	for reg := uint8(0); reg < 8; reg++ {
		r := reg
		incOp := 0x04 + r*8
		decOp := 0x05 + r*8
		cycles := 4
		if r == 6 {
			cycles = 12
		}
		t[incOp] = func(c *CPU) int { c.writeReg8(r, c.inc8(c.readReg8(r))); return cycles }
		t[decOp] = func(c *CPU) int { c.writeReg8(r, c.dec8(c.readReg8(r))); return cycles }
	}

	// LD r,d8: 0x06,0x0E,...
	for reg := uint8(0); reg < 8; reg++ {
		r := reg
		op := 0x06 + r*8
		cycles := 8
		if r == 6 {
			cycles = 12
		}
		t[op] = func(c *CPU) int { c.writeReg8(r, c.fetch8()); return cycles }
	}

	// 16-bit register group: LD rr,d16 / INC rr / DEC rr / ADD HL,rr.
	for pair := uint8(0); pair < 4; pair++ {
		p := pair
		t[0x01+p*0x10] = func(c *CPU) int { c.writeReg16(p, c.fetch16()); return 12 }
		t[0x03+p*0x10] = func(c *CPU) int { c.writeReg16(p, c.readReg16(p)+1); return 8 }
		t[0x0B+p*0x10] = func(c *CPU) int { c.writeReg16(p, c.readReg16(p)-1); return 8 }
		t[0x09+p*0x10] = func(c *CPU) int { c.addHL(c.readReg16(p)); return 8 }
	}

	t[0x02] = func(c *CPU) int { c.bus.Write(c.R.bc(), c.R.A); return 8 }
	t[0x12] = func(c *CPU) int { c.bus.Write(c.R.de(), c.R.A); return 8 }
	t[0x22] = func(c *CPU) int { c.bus.Write(c.R.hl(), c.R.A); c.R.setHL(c.R.hl() + 1); return 8 }
	t[0x32] = func(c *CPU) int { c.bus.Write(c.R.hl(), c.R.A); c.R.setHL(c.R.hl() - 1); return 8 }
	t[0x0A] = func(c *CPU) int { c.R.A = c.bus.Read(c.R.bc()); return 8 }
	t[0x1A] = func(c *CPU) int { c.R.A = c.bus.Read(c.R.de()); return 8 }
	t[0x2A] = func(c *CPU) int { c.R.A = c.bus.Read(c.R.hl()); c.R.setHL(c.R.hl() + 1); return 8 }
	t[0x3A] = func(c *CPU) int { c.R.A = c.bus.Read(c.R.hl()); c.R.setHL(c.R.hl() - 1); return 8 }

	t[0x07] = func(c *CPU) int { c.R.A = c.rlc(c.R.A); c.R.setFlag(flagZ, false); return 4 }
	t[0x0F] = func(c *CPU) int { c.R.A = c.rrc(c.R.A); c.R.setFlag(flagZ, false); return 4 }
	t[0x17] = func(c *CPU) int { c.R.A = c.rl(c.R.A); c.R.setFlag(flagZ, false); return 4 }
	t[0x1F] = func(c *CPU) int { c.R.A = c.rr(c.R.A); c.R.setFlag(flagZ, false); return 4 }

	t[0x08] = func(c *CPU) int {
		addr := c.fetch16()
		c.bus.Write(addr, uint8(c.R.SP))
		c.bus.Write(addr+1, uint8(c.R.SP>>8))
		return 20
	}

	t[0x18] = func(c *CPU) int { e := int8(c.fetch8()); c.R.PC = uint16(int32(c.R.PC) + int32(e)); return 12 }
	for cond := uint8(0); cond < 4; cond++ {
		cc := cond
		op := 0x20 + cc*8
		t[op] = func(c *CPU) int {
			e := int8(c.fetch8())
			if c.condition(cc) {
				c.R.PC = uint16(int32(c.R.PC) + int32(e))
				return 12
			}
			return 8
		}
	}

	t[0x27] = func(c *CPU) int { c.daa(); return 4 }
	t[0x2F] = func(c *CPU) int { c.cpl(); return 4 }
	t[0x37] = func(c *CPU) int { c.scf(); return 4 }
	t[0x3F] = func(c *CPU) int { c.ccf(); return 4 }

	// PUSH/POP rr (AF instead of SP for the 4th pair here).
	t[0xC1] = func(c *CPU) int { c.R.setBC(c.pop16()); return 12 }
	t[0xD1] = func(c *CPU) int { c.R.setDE(c.pop16()); return 12 }
	t[0xE1] = func(c *CPU) int { c.R.setHL(c.pop16()); return 12 }
	t[0xF1] = func(c *CPU) int { c.R.setAF(c.pop16()); return 12 }
	t[0xC5] = func(c *CPU) int { c.push16(c.R.bc()); return 16 }
	t[0xD5] = func(c *CPU) int { c.push16(c.R.de()); return 16 }
	t[0xE5] = func(c *CPU) int { c.push16(c.R.hl()); return 16 }
	t[0xF5] = func(c *CPU) int { c.push16(c.R.af()); return 16 }

	t[0xC3] = func(c *CPU) int { c.R.PC = c.fetch16(); return 16 }
	t[0xE9] = func(c *CPU) int { c.R.PC = c.R.hl(); return 4 }
	for cond := uint8(0); cond < 4; cond++ {
		cc := cond
		t[0xC2+cc*8] = func(c *CPU) int {
			addr := c.fetch16()
			if c.condition(cc) {
				c.R.PC = addr
				return 16
			}
			return 12
		}
		t[0xC4+cc*8] = func(c *CPU) int {
			addr := c.fetch16()
			if c.condition(cc) {
				c.push16(c.R.PC)
				c.R.PC = addr
				return 24
			}
			return 12
		}
		t[0xC0+cc*8] = func(c *CPU) int {
			if c.condition(cc) {
				c.R.PC = c.pop16()
				return 20
			}
			return 8
		}
	}
	t[0xCD] = func(c *CPU) int { addr := c.fetch16(); c.push16(c.R.PC); c.R.PC = addr; return 24 }
	t[0xC9] = func(c *CPU) int { c.R.PC = c.pop16(); return 16 }
	t[0xD9] = func(c *CPU) int { c.R.PC = c.pop16(); c.irq.IME = true; return 16 }

	for i := uint8(0); i < 8; i++ {
		n := i
		t[0xC7+n*8] = func(c *CPU) int { c.push16(c.R.PC); c.R.PC = uint16(n) * 8; return 16 }
	}

	t[0xE0] = func(c *CPU) int { c.bus.Write(0xFF00+uint16(c.fetch8()), c.R.A); return 12 }
	t[0xF0] = func(c *CPU) int { c.R.A = c.bus.Read(0xFF00 + uint16(c.fetch8())); return 12 }
	t[0xE2] = func(c *CPU) int { c.bus.Write(0xFF00+uint16(c.R.C), c.R.A); return 8 }
	t[0xF2] = func(c *CPU) int { c.R.A = c.bus.Read(0xFF00 + uint16(c.R.C)); return 8 }
	t[0xEA] = func(c *CPU) int { c.bus.Write(c.fetch16(), c.R.A); return 16 }
	t[0xFA] = func(c *CPU) int { c.R.A = c.bus.Read(c.fetch16()); return 16 }

	t[0xE8] = func(c *CPU) int { e := int8(c.fetch8()); c.R.SP = c.addSPSigned(c.R.SP, e); return 16 }
	t[0xF8] = func(c *CPU) int { e := int8(c.fetch8()); c.R.setHL(c.addSPSigned(c.R.SP, e)); return 12 }
	t[0xF9] = func(c *CPU) int { c.R.SP = c.R.hl(); return 8 }

	t[0xD3], t[0xDB], t[0xDD], t[0xE3], t[0xE4], t[0xEB], t[0xEC], t[0xED], t[0xF4], t[0xFC], t[0xFD] =
		illegal, illegal, illegal, illegal, illegal, illegal, illegal, illegal, illegal, illegal, illegal
}

// illegal opcodes lock the CPU on real hardware: execution never advances
// past them again. Unlike STOP, which wakes on a pending interrupt, the
// lock is never cleared.
func illegal(c *CPU) int {
	c.locked = true
	return 4
}
