package cpu

import "github.com/kek11/kek/mmu"

// execute decodes and runs one instruction word, following the
// classic PDP-11 opcode taxonomy (spec §4.5 step 3).
func (c *CPU) execute(instr uint16) error {
	top4 := (instr >> 12) & 0xF

	switch top4 {
	case 1:
		return c.execDoubleOperand(dopMOV, false, instr)
	case 2:
		return c.execDoubleOperand(dopCMP, false, instr)
	case 3:
		return c.execDoubleOperand(dopBIT, false, instr)
	case 4:
		return c.execDoubleOperand(dopBIC, false, instr)
	case 5:
		return c.execDoubleOperand(dopBIS, false, instr)
	case 6:
		return c.execAddSub(false, instr)
	case 9:
		return c.execDoubleOperand(dopMOV, true, instr)
	case 10:
		return c.execDoubleOperand(dopCMP, true, instr)
	case 11:
		return c.execDoubleOperand(dopBIT, true, instr)
	case 12:
		return c.execDoubleOperand(dopBIC, true, instr)
	case 13:
		return c.execDoubleOperand(dopBIS, true, instr)
	case 14:
		return c.execAddSub(true, instr)
	case 7:
		return c.execGroup7(instr)
	case 0, 8:
		return c.execGroup0(instr)
	default:
		return &trapSignal{vector: VectorReservedInstruction}
	}
}

type doubleOp int

const (
	dopMOV doubleOp = iota
	dopCMP
	dopBIT
	dopBIC
	dopBIS
)

func signBit(v uint16, isByte bool) bool {
	if isByte {
		return v&0x80 != 0
	}
	return v&0x8000 != 0
}

func isZero(v uint16, isByte bool) bool {
	if isByte {
		return v&0xff == 0
	}
	return v == 0
}

// execDoubleOperand runs MOV/CMP/BIT/BIC/BIS and their byte forms.
func (c *CPU) execDoubleOperand(op doubleOp, isByte bool, instr uint16) error {
	srcMode, srcReg := int((instr>>9)&7), int((instr>>6)&7)
	dstMode, dstReg := int((instr>>3)&7), int(instr&7)

	srcOpnd, err := c.resolveOperand(srcMode, srcReg, isByte)
	if err != nil {
		return err
	}
	srcVal, err := c.readOperand(srcOpnd, isByte, mmu.SpaceD)
	if err != nil {
		return err
	}

	dstOpnd, err := c.resolveOperand(dstMode, dstReg, isByte)
	if err != nil {
		return err
	}

	switch op {
	case dopMOV:
		val := srcVal
		if isByte {
			val &= 0xff
		}
		if dstOpnd.isReg && isByte {
			// MOVB to a register sign-extends the byte.
			word := val
			if word&0x80 != 0 {
				word |= 0xff00
			}
			c.setReg(dstOpnd.reg, word)
		} else if err := c.writeOperand(dstOpnd, isByte, val, mmu.SpaceD); err != nil {
			return err
		}
		c.setCC(signBit(val, isByte), isZero(val, isByte), false, c.ccC())
		return nil

	case dopCMP:
		dstVal, err := c.readOperand(dstOpnd, isByte, mmu.SpaceD)
		if err != nil {
			return err
		}
		result := srcVal - dstVal
		c.setSubCC(srcVal, dstVal, result, isByte)
		return nil

	case dopBIT:
		dstVal, err := c.readOperand(dstOpnd, isByte, mmu.SpaceD)
		if err != nil {
			return err
		}
		result := srcVal & dstVal
		c.setCC(signBit(result, isByte), isZero(result, isByte), false, c.ccC())
		return nil

	case dopBIC:
		dstVal, err := c.readOperand(dstOpnd, isByte, mmu.SpaceD)
		if err != nil {
			return err
		}
		result := dstVal &^ srcVal
		if err := c.writeOperand(dstOpnd, isByte, result, mmu.SpaceD); err != nil {
			return err
		}
		c.setCC(signBit(result, isByte), isZero(result, isByte), false, c.ccC())
		return nil

	default: // dopBIS
		dstVal, err := c.readOperand(dstOpnd, isByte, mmu.SpaceD)
		if err != nil {
			return err
		}
		result := dstVal | srcVal
		if err := c.writeOperand(dstOpnd, isByte, result, mmu.SpaceD); err != nil {
			return err
		}
		c.setCC(signBit(result, isByte), isZero(result, isByte), false, c.ccC())
		return nil
	}
}

// setSubCC sets NZVC for a subtraction result = a - b (used by CMP
// and SUB), word or byte width.
func (c *CPU) setSubCC(a, b, result uint16, isByte bool) {
	mask := uint16(0xffff)
	signBitPos := uint16(0x8000)
	if isByte {
		mask = 0xff
		signBitPos = 0x80
	}
	a, b, result = a&mask, b&mask, result&mask
	n := result&signBitPos != 0
	z := result == 0
	// overflow: operands had different signs and the result's sign
	// differs from the minuend's.
	v := (a&signBitPos != b&signBitPos) && (result&signBitPos != a&signBitPos)
	cc := b > a // borrow occurred
	c.setCC(n, z, v, cc)
}

// setAddCC sets NZVC for an addition result = a + b, word or byte
// width.
func (c *CPU) setAddCC(a, b, result uint32, isByte bool) {
	mask := uint32(0xffff)
	signBitPos := uint32(0x8000)
	if isByte {
		mask = 0xff
		signBitPos = 0x80
	}
	rm := result & mask
	n := rm&signBitPos != 0
	z := rm == 0
	v := (a&signBitPos == b&signBitPos) && (rm&signBitPos != a&signBitPos)
	cc := result > mask
	c.setCC(n, z, v, cc)
}

// execAddSub runs ADD (isSub=false) or SUB (isSub=true); both are
// always word-width, never byte -- op family 6/16 reuses the
// byte-mode bit to select ADD vs SUB rather than flagging byte width.
func (c *CPU) execAddSub(isSub bool, instr uint16) error {
	srcMode, srcReg := int((instr>>9)&7), int((instr>>6)&7)
	dstMode, dstReg := int((instr>>3)&7), int(instr&7)

	srcOpnd, err := c.resolveOperand(srcMode, srcReg, false)
	if err != nil {
		return err
	}
	srcVal, err := c.readOperand(srcOpnd, false, mmu.SpaceD)
	if err != nil {
		return err
	}
	dstOpnd, err := c.resolveOperand(dstMode, dstReg, false)
	if err != nil {
		return err
	}
	dstVal, err := c.readOperand(dstOpnd, false, mmu.SpaceD)
	if err != nil {
		return err
	}

	var result uint32
	if isSub {
		result = uint32(dstVal) - uint32(srcVal) + 0x10000
		c.setSubCC(dstVal, srcVal, uint16(result), false)
	} else {
		result = uint32(dstVal) + uint32(srcVal)
		c.setAddCC(uint32(dstVal), uint32(srcVal), result, false)
	}
	return c.writeOperand(dstOpnd, false, uint16(result), mmu.SpaceD)
}
