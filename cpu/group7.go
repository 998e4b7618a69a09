package cpu

import "github.com/kek11/kek/mmu"

// execGroup7 decodes the additional double-operand family: MUL, DIV,
// ASH, ASHC, XOR, SOB, and the floating-point opcodes, which this
// core has no FPP for and reserves.
func (c *CPU) execGroup7(instr uint16) error {
	sub := (instr >> 9) & 0x7
	reg := int((instr >> 6) & 0x7)

	switch sub {
	case 0:
		return c.execMUL(instr, reg)
	case 1:
		return c.execDIV(instr, reg)
	case 2:
		return c.execASH(instr, reg)
	case 3:
		return c.execASHC(instr, reg)
	case 4:
		return c.execXOR(instr, reg)
	case 7:
		return c.execSOB(instr, reg)
	default:
		return &trapSignal{vector: VectorReservedInstruction}
	}
}

func (c *CPU) fetchSrcOperand(instr uint16) (uint16, error) {
	mode := int((instr >> 3) & 7)
	opReg := int(instr & 7)
	o, err := c.resolveOperand(mode, opReg, false)
	if err != nil {
		return 0, err
	}
	return c.readOperand(o, false, mmu.SpaceD)
}

// execMUL multiplies reg (sign-extended) by the source operand into a
// 32-bit product stored across reg:reg+1 (reg even) or truncated to
// reg alone (reg odd, matching the real hardware's odd-register
// restriction).
func (c *CPU) execMUL(instr uint16, reg int) error {
	src, err := c.fetchSrcOperand(instr)
	if err != nil {
		return err
	}
	product := int64(int16(c.getReg(reg))) * int64(int16(src))
	if reg&1 == 0 {
		c.setReg(reg, uint16(product>>16))
		c.setReg(reg+1, uint16(product))
	} else {
		c.setReg(reg, uint16(product))
	}
	n := product < 0
	z := product == 0
	cc := product < -0x8000 || product > 0x7fff
	c.setCC(n, z, false, cc)
	return nil
}

// execDIV divides the 32-bit reg:reg+1 pair by the source operand;
// quotient into reg, remainder into reg+1. Divide-by-zero and
// quotient overflow set V and C and leave the dividend registers
// unmodified, matching the documented behavior.
func (c *CPU) execDIV(instr uint16, reg int) error {
	src, err := c.fetchSrcOperand(instr)
	if err != nil {
		return err
	}
	divisor := int32(int16(src))
	dividend := int32(c.getReg(reg))<<16 | int32(c.getReg(reg+1))

	if divisor == 0 {
		c.setCC(false, true, true, true)
		return nil
	}
	quotient := dividend / divisor
	remainder := dividend % divisor
	if quotient > 0x7fff || quotient < -0x8000 {
		c.setCC(false, false, true, true)
		return nil
	}
	c.setReg(reg, uint16(quotient))
	c.setReg(reg+1, uint16(remainder))
	c.setCC(quotient < 0, quotient == 0, false, false)
	return nil
}

// execASH arithmetically shifts reg by a signed 6-bit count from the
// source operand (positive left, negative right).
func (c *CPU) execASH(instr uint16, reg int) error {
	src, err := c.fetchSrcOperand(instr)
	if err != nil {
		return err
	}
	count := int8(src<<2) >> 2 // sign-extend the low 6 bits
	val := int16(c.getReg(reg))
	var result int16
	var cc bool
	switch {
	case count == 0:
		result = val
	case count > 0:
		result = val << uint(count)
		cc = (int32(val)<<uint(count))&0x10000 != 0
	default:
		shift := uint(-count)
		if shift > 16 {
			shift = 16
		}
		result = val >> shift
		cc = (val>>(shift-1))&1 != 0
	}
	c.setReg(reg, uint16(result))
	c.setCC(result < 0, result == 0, (result < 0) != (val < 0), cc)
	return nil
}

// execASHC performs the same shift as ASH across the reg:reg+1 pair.
func (c *CPU) execASHC(instr uint16, reg int) error {
	src, err := c.fetchSrcOperand(instr)
	if err != nil {
		return err
	}
	count := int8(src<<2) >> 2
	val := int32(c.getReg(reg))<<16 | int32(c.getReg(reg+1))
	var result int32
	var cc bool
	switch {
	case count == 0:
		result = val
	case count > 0:
		result = val << uint(count)
		cc = uint32(val<<uint(count-1))&0x80000000 != 0
	default:
		shift := uint(-count)
		if shift > 32 {
			shift = 32
		}
		result = val >> shift
		cc = shift > 0 && (val>>(shift-1))&1 != 0
	}
	c.setReg(reg, uint16(result>>16))
	c.setReg(reg+1, uint16(result))
	c.setCC(result < 0, result == 0, (result < 0) != (val < 0), cc)
	return nil
}

func (c *CPU) execXOR(instr uint16, reg int) error {
	mode := int((instr >> 3) & 7)
	opReg := int(instr & 7)
	o, err := c.resolveOperand(mode, opReg, false)
	if err != nil {
		return err
	}
	dstVal, err := c.readOperand(o, false, mmu.SpaceD)
	if err != nil {
		return err
	}
	result := dstVal ^ c.getReg(reg)
	if err := c.writeOperand(o, false, result, mmu.SpaceD); err != nil {
		return err
	}
	c.setCC(result&0x8000 != 0, result == 0, false, c.ccC())
	return nil
}

// execSOB decrements reg; if still non-zero, branches backward by
// twice the 6-bit offset field.
func (c *CPU) execSOB(instr uint16, reg int) error {
	offset := instr & 0o77
	v := c.getReg(reg) - 1
	c.setReg(reg, v)
	if v != 0 {
		c.pc -= 2 * offset
	}
	return nil
}
