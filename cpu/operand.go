package cpu

import "github.com/kek11/kek/mmu"

// opnd is a resolved operand: either a register (direct access, no
// bus traffic) or a virtual address to read/write through the bus.
type opnd struct {
	isReg bool
	reg   int
	addr  uint16
}

// resolveOperand implements the eight PDP-11 addressing modes for
// register reg. Modes 2/3/4/5 auto-modify the register and record the
// delta into MMR1 via mmu.RecordAutoMod. Because R7 is just another
// register here, applying these modes to reg==7 naturally yields
// immediate (mode 2), absolute (mode 3), relative (mode 6) and
// relative-deferred (mode 7) addressing without special-casing PC.
func (c *CPU) resolveOperand(mode, reg int, isByte bool) (opnd, error) {
	step := uint16(2)
	if isByte && reg != 6 && reg != 7 {
		step = 1
	}

	switch mode {
	case 0:
		return opnd{isReg: true, reg: reg}, nil

	case 1:
		return opnd{addr: c.getReg(reg)}, nil

	case 2:
		addr := c.getReg(reg)
		c.setReg(reg, addr+step)
		c.mmu.RecordAutoMod(reg, int8(step))
		return opnd{addr: addr}, nil

	case 3:
		addr := c.getReg(reg)
		c.setReg(reg, addr+2)
		c.mmu.RecordAutoMod(reg, 2)
		ptr, err := c.bus.Read(addr, true, false, false, mmu.SpaceD)
		if err != nil {
			return opnd{}, err
		}
		return opnd{addr: ptr}, nil

	case 4:
		addr := c.getReg(reg) - step
		c.setReg(reg, addr)
		c.mmu.RecordAutoMod(reg, -int8(step))
		return opnd{addr: addr}, nil

	case 5:
		addr := c.getReg(reg) - 2
		c.setReg(reg, addr)
		c.mmu.RecordAutoMod(reg, -2)
		ptr, err := c.bus.Read(addr, true, false, false, mmu.SpaceD)
		if err != nil {
			return opnd{}, err
		}
		return opnd{addr: ptr}, nil

	case 6:
		x, err := c.fetchWord()
		if err != nil {
			return opnd{}, err
		}
		return opnd{addr: c.getReg(reg) + x}, nil

	default: // 7
		x, err := c.fetchWord()
		if err != nil {
			return opnd{}, err
		}
		ptr, err := c.bus.Read(c.getReg(reg)+x, true, false, false, mmu.SpaceD)
		if err != nil {
			return opnd{}, err
		}
		return opnd{addr: ptr}, nil
	}
}

// readOperand fetches o's value. Register-direct byte reads return
// only the low byte; memory byte reads go through the bus as a byte
// access.
func (c *CPU) readOperand(o opnd, isByte bool, space mmu.Space) (uint16, error) {
	if o.isReg {
		v := c.getReg(o.reg)
		if isByte {
			return v & 0xff, nil
		}
		return v, nil
	}
	return c.bus.Read(o.addr, !isByte, false, false, space)
}

// writeOperand stores value into o. A byte write to a register
// replaces only the low byte and leaves the high byte untouched.
// MOVB's sign-extending register destination does not come through
// here: execDoubleOperand writes the sign-extended word with setReg
// itself.
func (c *CPU) writeOperand(o opnd, isByte bool, value uint16, space mmu.Space) error {
	if o.isReg {
		if isByte {
			cur := c.getReg(o.reg)
			value = (cur & 0xff00) | (value & 0xff)
		}
		c.setReg(o.reg, value)
		return nil
	}
	return c.bus.Write(o.addr, !isByte, value, false, space)
}
