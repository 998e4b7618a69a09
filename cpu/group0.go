package cpu

import "github.com/kek11/kek/mmu"

// execGroup0 decodes everything living under top nibble 0/8: branches,
// the single-operand family, condition-code operates, and the misc
// HALT/WAIT/RTI/RTT/IOT/EMT/TRAP/BPT/RESET/SPL/JMP/JSR/RTS/MFPT group.
func (c *CPU) execGroup0(instr uint16) error {
	topByte := (instr >> 8) & 0xFF

	if cond, taken, ok := branchCondition(topByte, c); ok {
		if taken {
			offset := int8(instr & 0xFF)
			c.pc = uint16(int32(c.pc) + int32(offset)*2)
		}
		_ = cond
		return nil
	}

	if instr <= 7 {
		return c.execMisc0(instr)
	}

	if instr&0o177000 == 0o004000 {
		return c.execJSR(instr)
	}

	if instr&0o177700 == 0o000100 {
		return c.execJMP(instr)
	}
	if instr&0o177770 == 0o000200 {
		return c.execRTS(instr)
	}
	if instr&0o177770 == 0o000230 {
		level := int(instr & 7)
		c.setSPL(level)
		return nil
	}
	if instr >= 0o000240 && instr <= 0o000277 {
		return c.execCCOp(instr)
	}
	if instr&0o177700 == 0o000300 {
		return c.execSingleOperand(sopSWAB, false, instr)
	}
	if instr&0o177400 == 0o104000 {
		return &trapSignal{vector: VectorEMT}
	}
	if instr&0o177400 == 0o104400 {
		return &trapSignal{vector: VectorTRAP}
	}

	return c.execSingleOpcodeField(instr)
}

// branchCondition reports whether topByte is one of the sixteen
// conditional branch opcodes and, if so, whether the branch is taken.
func branchCondition(topByte uint16, c *CPU) (string, bool, bool) {
	n, z, v, cc := c.ccN(), c.ccZ(), c.ccV(), c.ccC()
	switch topByte {
	case 0o001:
		return "BR", true, true
	case 0o002:
		return "BNE", !z, true
	case 0o003:
		return "BEQ", z, true
	case 0o004:
		return "BGE", n == v, true
	case 0o005:
		return "BLT", n != v, true
	case 0o006:
		return "BGT", (n == v) && !z, true
	case 0o007:
		return "BLE", (n != v) || z, true
	case 0o200:
		return "BPL", !n, true
	case 0o201:
		return "BMI", n, true
	case 0o202:
		return "BHI", !cc && !z, true
	case 0o203:
		return "BLOS", cc || z, true
	case 0o204:
		return "BVC", !v, true
	case 0o205:
		return "BVS", v, true
	case 0o206:
		return "BCC", !cc, true
	case 0o207:
		return "BCS", cc, true
	}
	return "", false, false
}

func (c *CPU) execMisc0(instr uint16) error {
	switch instr {
	case 0: // HALT
		if c.Mode() != mmu.Kernel {
			return &trapSignal{vector: vectorStackLimit}
		}
		c.Halted = true
		return nil
	case 1: // WAIT
		return nil
	case 2: // RTI
		return c.execReturn(false)
	case 3: // BPT
		return &trapSignal{vector: VectorBPT}
	case 4: // IOT
		return &trapSignal{vector: VectorIOT}
	case 5: // RESET
		c.bus.Reset()
		c.irq.Reset()
		return nil
	case 6: // RTT
		return c.execReturn(true)
	default: // 7: MFPT -- no FPP, returns a fixed "type 0" code
		c.setReg(0, 0)
		return nil
	}
}

// execReturn implements RTI/RTT: pop PC then PSW. RTT additionally
// suppresses the T-bit trace trap that would otherwise fire
// immediately after restoring a PSW with T set.
func (c *CPU) execReturn(isRTT bool) error {
	newPC, err := c.pop()
	if err != nil {
		return err
	}
	newPSW, err := c.pop()
	if err != nil {
		return err
	}
	c.pc = newPC
	c.psw = newPSW
	return nil
}

func (c *CPU) execJMP(instr uint16) error {
	mode := int((instr >> 3) & 7)
	reg := int(instr & 7)
	if mode == 0 {
		return &trapSignal{vector: VectorReservedInstruction}
	}
	o, err := c.resolveOperand(mode, reg, false)
	if err != nil {
		return err
	}
	c.pc = o.addr
	return nil
}

func (c *CPU) execJSR(instr uint16) error {
	linkReg := int((instr >> 6) & 7)
	mode := int((instr >> 3) & 7)
	reg := int(instr & 7)
	if mode == 0 {
		return &trapSignal{vector: VectorReservedInstruction}
	}
	o, err := c.resolveOperand(mode, reg, false)
	if err != nil {
		return err
	}
	if err := c.push(c.getReg(linkReg)); err != nil {
		return err
	}
	c.setReg(linkReg, c.pc)
	c.pc = o.addr
	return nil
}

func (c *CPU) execRTS(instr uint16) error {
	reg := int(instr & 7)
	newPC := c.getReg(reg)
	v, err := c.pop()
	if err != nil {
		return err
	}
	c.setReg(reg, v)
	c.pc = newPC
	return nil
}

func (c *CPU) execCCOp(instr uint16) error {
	set := instr&0o20 != 0
	mask := uint16(instr & 0xF)
	bits := uint16(0)
	if mask&1 != 0 {
		bits |= pswC
	}
	if mask&2 != 0 {
		bits |= pswV
	}
	if mask&4 != 0 {
		bits |= pswZ
	}
	if mask&8 != 0 {
		bits |= pswN
	}
	if set {
		c.psw |= bits
	} else {
		c.psw &^= bits
	}
	return nil
}
