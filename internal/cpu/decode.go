package cpu

// readReg8/writeReg8 implement the standard LR35902 3-bit register index:
// 0=B 1=C 2=D 3=E 4=H 5=L 6=(HL) 7=A.
func (c *CPU) readReg8(idx uint8) uint8 {
	switch idx {
	case 0:
		return c.R.B
	case 1:
		return c.R.C
	case 2:
		return c.R.D
	case 3:
		return c.R.E
	case 4:
		return c.R.H
	case 5:
		return c.R.L
	case 6:
		return c.bus.Read(c.R.hl())
	default:
		return c.R.A
	}
}

func (c *CPU) writeReg8(idx uint8, v uint8) {
	switch idx {
	case 0:
		c.R.B = v
	case 1:
		c.R.C = v
	case 2:
		c.R.D = v
	case 3:
		c.R.E = v
	case 4:
		c.R.H = v
	case 5:
		c.R.L = v
	case 6:
		c.bus.Write(c.R.hl(), v)
	default:
		c.R.A = v
	}
}

func (c *CPU) readReg16(idx uint8) uint16 {
	switch idx {
	case 0:
		return c.R.bc()
	case 1:
		return c.R.de()
	case 2:
		return c.R.hl()
	default:
		return c.R.SP
	}
}

func (c *CPU) writeReg16(idx uint8, v uint16) {
	switch idx {
	case 0:
		c.R.setBC(v)
	case 1:
		c.R.setDE(v)
	case 2:
		c.R.setHL(v)
	default:
		c.R.SP = v
	}
}

func (c *CPU) condition(idx uint8) bool {
	switch idx {
	case 0:
		return !c.R.flag(flagZ)
	case 1:
		return c.R.flag(flagZ)
	case 2:
		return !c.R.flag(flagC)
	default:
		return c.R.flag(flagC)
	}
}
