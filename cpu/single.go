package cpu

import "github.com/kek11/kek/mmu"

type singleOp int

const (
	sopCLR singleOp = iota
	sopCOM
	sopINC
	sopDEC
	sopNEG
	sopADC
	sopSBC
	sopTST
	sopROR
	sopROL
	sopASR
	sopASL
	sopSXT
	sopSWAB
)

const (
	opCLR uint16 = 0o005000
	opCOM uint16 = 0o005100
	opINC uint16 = 0o005200
	opDEC uint16 = 0o005300
	opNEG uint16 = 0o005400
	opADC uint16 = 0o005500
	opSBC uint16 = 0o005600
	opTST uint16 = 0o005700
	opROR uint16 = 0o006000
	opROL uint16 = 0o006100
	opASR uint16 = 0o006200
	opASL uint16 = 0o006300
	opMARK uint16 = 0o006400
	opMFPI uint16 = 0o006500
	opMTPI uint16 = 0o006600
	opSXT  uint16 = 0o006700
	byteBit uint16 = 0o100000
)

// execSingleOpcodeField decodes the single-operand family (mask
// 0177700) plus MARK/MFPI/MTPI, which share its opcode field but take
// a different operand shape.
func (c *CPU) execSingleOpcodeField(instr uint16) error {
	isByte := instr&byteBit != 0
	masked := instr &^ byteBit
	masked &= 0o177700

	switch masked {
	case opCLR:
		return c.execSingleOperand(sopCLR, isByte, instr)
	case opCOM:
		return c.execSingleOperand(sopCOM, isByte, instr)
	case opINC:
		return c.execSingleOperand(sopINC, isByte, instr)
	case opDEC:
		return c.execSingleOperand(sopDEC, isByte, instr)
	case opNEG:
		return c.execSingleOperand(sopNEG, isByte, instr)
	case opADC:
		return c.execSingleOperand(sopADC, isByte, instr)
	case opSBC:
		return c.execSingleOperand(sopSBC, isByte, instr)
	case opTST:
		return c.execSingleOperand(sopTST, isByte, instr)
	case opROR:
		return c.execSingleOperand(sopROR, isByte, instr)
	case opROL:
		return c.execSingleOperand(sopROL, isByte, instr)
	case opASR:
		return c.execSingleOperand(sopASR, isByte, instr)
	case opASL:
		return c.execSingleOperand(sopASL, isByte, instr)
	case opSXT:
		return c.execSingleOperand(sopSXT, false, instr)
	case opMARK:
		return c.execMARK(instr)
	case opMFPI:
		// The byte-mode bit here selects the D-space variant (MFPD),
		// not a byte-sized operation.
		return c.execMFPI(instr, isByte)
	case opMTPI:
		return c.execMTPI(instr, isByte)
	}
	return &trapSignal{vector: VectorReservedInstruction}
}

func (c *CPU) execSingleOperand(op singleOp, isByte bool, instr uint16) error {
	mode := int((instr >> 3) & 7)
	reg := int(instr & 7)
	o, err := c.resolveOperand(mode, reg, isByte)
	if err != nil {
		return err
	}

	if op == sopSXT {
		var v uint16
		if c.ccN() {
			v = 0xffff
		}
		if err := c.writeOperand(o, false, v, mmu.SpaceD); err != nil {
			return err
		}
		c.setCC(c.ccN(), v == 0, false, c.ccC())
		return nil
	}

	if op == sopSWAB {
		val, err := c.readOperand(o, false, mmu.SpaceD)
		if err != nil {
			return err
		}
		result := (val << 8) | (val >> 8)
		if err := c.writeOperand(o, false, result, mmu.SpaceD); err != nil {
			return err
		}
		c.setCC(result&0x80 != 0, result&0xff == 0, false, false)
		return nil
	}

	val, err := c.readOperand(o, isByte, mmu.SpaceD)
	if err != nil {
		return err
	}

	var result uint32
	var n, z, v, cc bool
	mask := uint32(0xffff)
	signPos := uint32(0x8000)
	if isByte {
		mask, signPos = 0xff, 0x80
	}

	switch op {
	case sopCLR:
		result = 0
		n, z, v, cc = false, true, false, false
	case sopCOM:
		result = uint32(^val) & mask
		n, z, v, cc = result&signPos != 0, result == 0, false, true
	case sopINC:
		result = uint32(val) + 1
		n = result&signPos != 0
		z = result&mask == 0
		v = uint32(val)&mask == signPos-1 // 0x7fff/0x7f overflow into sign bit
		cc = c.ccC()
	case sopDEC:
		result = uint32(val) - 1
		n = result&signPos != 0
		z = result&mask == 0
		v = uint32(val)&mask == signPos
		cc = c.ccC()
	case sopNEG:
		result = (^uint32(val) + 1) & mask
		n = result&signPos != 0
		z = result == 0
		v = uint32(val)&mask == signPos
		cc = !z
	case sopADC:
		carry := uint32(0)
		if c.ccC() {
			carry = 1
		}
		result = uint32(val) + carry
		n = result&signPos != 0
		z = result&mask == 0
		v = uint32(val)&mask == signPos-1 && carry == 1
		cc = (result&mask) < uint32(val)&mask && carry == 1
	case sopSBC:
		carry := uint32(0)
		if c.ccC() {
			carry = 1
		}
		result = uint32(val) - carry
		n = result&signPos != 0
		z = result&mask == 0
		v = uint32(val)&mask == signPos && carry == 1
		cc = uint32(val)&mask == 0 && carry == 1
	case sopTST:
		result = uint32(val)
		n, z, v, cc = result&signPos != 0, result&mask == 0, false, false
	case sopROR:
		carryIn := uint32(0)
		if c.ccC() {
			carryIn = 1
		}
		newCarry := val&1 != 0
		result = (uint32(val) >> 1) | (carryIn << (signBitIndex(isByte)))
		n = result&signPos != 0
		z = result&mask == 0
		v = n != newCarry
		cc = newCarry
	case sopROL:
		carryIn := uint32(0)
		if c.ccC() {
			carryIn = 1
		}
		newCarry := val&uint16(signPos) != 0
		result = ((uint32(val) << 1) | carryIn) & mask
		n = result&signPos != 0
		z = result&mask == 0
		v = n != newCarry
		cc = newCarry
	case sopASR:
		newCarry := val&1 != 0
		signExtend := uint32(0)
		if val&uint16(signPos) != 0 {
			signExtend = signPos
		}
		result = (uint32(val) >> 1) | signExtend
		n = result&signPos != 0
		z = result&mask == 0
		v = n != newCarry
		cc = newCarry
	default: // sopASL
		newCarry := val&uint16(signPos) != 0
		result = (uint32(val) << 1) & mask
		n = result&signPos != 0
		z = result&mask == 0
		v = n != newCarry
		cc = newCarry
	}

	if err := c.writeOperand(o, isByte, uint16(result), mmu.SpaceD); err != nil {
		return err
	}
	c.setCC(n, z, v, cc)
	return nil
}

func signBitIndex(isByte bool) uint {
	if isByte {
		return 7
	}
	return 15
}

// execSWAB swaps the high and low bytes of a word operand. It always
// operates on a word regardless of the byte bit (opcode 0003DD has no
// byte form), clears V and C, and sets N/Z from the new low byte.
func (c *CPU) execSWAB(instr uint16) error { return c.execSingleOperand(sopSWAB, false, instr) }

// MARK implements function-call cleanup: SP := PC + 2*nn; PC := R5;
// R5 := pop(). nn is the 6-bit field of the instruction.
func (c *CPU) execMARK(instr uint16) error {
	nn := instr & 0o77
	c.setReg(6, c.pc+2*nn)
	newPC := c.getReg(5)
	v, err := c.pop()
	if err != nil {
		return err
	}
	c.setReg(5, v)
	c.pc = newPC
	return nil
}

// execMFPI copies a word from the addressed space of the previous (or
// D-space, if mfpd) mode onto the current stack.
func (c *CPU) execMFPI(instr uint16, isD bool) error {
	mode := int((instr >> 3) & 7)
	reg := int(instr & 7)
	o, err := c.resolveOperand(mode, reg, false)
	if err != nil {
		return err
	}
	space := mmu.SpaceI
	if isD {
		space = mmu.SpaceD
	}
	var v uint16
	if o.isReg {
		v = c.getReg(o.reg)
	} else {
		v, err = c.bus.Read(o.addr, true, true, false, space)
		if err != nil {
			return err
		}
	}
	if err := c.push(v); err != nil {
		return err
	}
	c.setCC(signBit(v, false), isZero(v, false), false, c.ccC())
	return nil
}

// execMTPI pops a word from the current stack into the addressed
// space of the previous (or D-space, if mtpd) mode.
func (c *CPU) execMTPI(instr uint16, isD bool) error {
	mode := int((instr >> 3) & 7)
	reg := int(instr & 7)
	o, err := c.resolveOperand(mode, reg, false)
	if err != nil {
		return err
	}
	v, err := c.pop()
	if err != nil {
		return err
	}
	space := mmu.SpaceI
	if isD {
		space = mmu.SpaceD
	}
	if o.isReg {
		c.setReg(o.reg, v)
	} else if err := c.bus.Write(o.addr, true, v, true, space); err != nil {
		return err
	}
	c.setCC(signBit(v, false), isZero(v, false), false, c.ccC())
	return nil
}
