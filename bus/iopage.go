package bus

import "github.com/kek11/kek/mmu"

// I/O page register windows. Addresses are 16-bit virtual; the I/O
// page sits directly at the top of the address space regardless of
// translation, so these are never run through the MMU.
const (
	addrUnibusMap = 0o170200 // stub, 0o170200-0o170377

	addrSupervisorWin = 0o172200 // PDR-I(8) PDR-D(8) PAR-I(8) PAR-D(8)
	addrKernelPDR     = 0o172300 // PDR-I(8) PDR-D(8)
	addrKernelPAR     = 0o172340 // PAR-I(8) PAR-D(8)
	addrUserPDR       = 0o177600
	addrUserPAR       = 0o177640

	addrTimer = 0o172540 // KW11-P, 4 words: CSR, count, ... (devices/timer)
	addrMMR3  = 0o172516

	addrTTY = 0o177560 // TKS,TKB,TPS,TPB
	addrRK  = 0o177400 // DS,ERROR,CS,WC,BA,DA,DATABUF
	addrRL  = 0o174400

	addrClock = 0o177546 // KW11-L line clock

	addrMMR0 = 0o177572
	addrMMR1 = 0o177574
	addrMMR2 = 0o177576

	addrSwitches = 0o177570
	addrStackLim = 0o177774
	addrCPUErr   = 0o177766
	addrSizeLow  = 0o177762
	addrSizeHigh = 0o177764
	addrPSW      = 0o177776
	addrRegs     = 0o177700 // 16-word general-register/SP alias window
)

func within(addr, base, words uint16) (int, bool) {
	size := words * 2
	if addr < base || addr >= base+size {
		return 0, false
	}
	return int(addr-base) / 2, true
}

// readIOPage dispatches a read within the I/O page. peek suppresses
// the error-register latch and the read-clears semantics of the CPU
// error register.
func (b *Bus) readIOPage(va uint16, wordMode bool, peek bool) (uint16, error) {
	if idx, ok := within(va, addrRegs, 16); ok {
		return b.readRegWindow(idx), nil
	}
	switch {
	case va == addrPSW:
		return maybeByte(b.host.PSW(), va, wordMode), nil
	case va == addrStackLim:
		return maybeByte(b.host.StackLimit(), va, wordMode), nil
	case va == addrCPUErr:
		if peek {
			return uint16(b.errReg), nil
		}
		return uint16(b.clearErrorRegister()), nil
	case va == addrSwitches:
		return b.switches, nil
	case va == addrSizeLow:
		return uint16(b.mem.Size() / 64), nil
	case va == addrSizeHigh:
		return uint16((uint32(b.mem.Size() / 64)) >> 16), nil
	case va == addrMMR0:
		return b.mmu.MMR0(), nil
	case va == addrMMR1:
		return b.mmu.MMR1(), nil
	case va == addrMMR2:
		return b.mmu.MMR2(), nil
	case va == addrMMR3:
		return b.mmu.MMR3(), nil
	}

	if idx, ok := parPDRIndex(va); ok {
		mode, space, isPAR, page := idx.mode, idx.space, idx.isPAR, idx.page
		pd := b.mmu.Page(mode, space, page)
		if isPAR {
			return pd.PAR, nil
		}
		return pd.PDR, nil
	}

	if v, ok, err := b.dispatchDevice(va, wordMode, false, 0); ok {
		return v, err
	}

	if !peek {
		b.latchError(errTimeout)
	}
	return 0, &Trap{Cause: "bus timeout", Vector: vectorBusError}
}

func (b *Bus) writeIOPage(va uint16, wordMode bool, value uint16) error {
	if idx, ok := within(va, addrRegs, 16); ok {
		b.writeRegWindow(idx, value, wordMode)
		return nil
	}
	switch {
	case va == addrPSW:
		b.host.SetPSW(writeMasked(b.host.PSW(), va, value, wordMode))
		return nil
	case va == addrStackLim:
		b.host.SetStackLimit(writeMasked(b.host.StackLimit(), va, value, wordMode))
		return nil
	case va == addrCPUErr:
		return nil // read-only
	case va == addrSwitches:
		return nil // read-only from software
	case va == addrSizeLow, va == addrSizeHigh:
		return nil // read-only
	case va == addrMMR0:
		b.mmu.WriteMMR0(value)
		return nil
	case va == addrMMR1:
		return nil // read-only
	case va == addrMMR2:
		return nil // read-only
	case va == addrMMR3:
		b.mmu.WriteMMR3(value)
		return nil
	}

	if idx, ok := parPDRIndex(va); ok {
		if idx.isPAR {
			b.mmu.SetPAR(idx.mode, idx.space, idx.page, value)
		} else {
			b.mmu.SetPDR(idx.mode, idx.space, idx.page, value)
		}
		return nil
	}

	if _, ok, err := b.dispatchDevice(va, wordMode, true, value); ok {
		return err
	}

	b.latchError(errTimeout)
	return &Trap{Cause: "bus timeout", Vector: vectorBusError}
}

func (b *Bus) readRegWindow(idx int) uint16 {
	switch {
	case idx <= 5:
		return b.host.GPR(idx)
	case idx == 6:
		return b.host.GPR(7)
	case idx == 7:
		return b.host.SP(b.host.Mode())
	case idx == 8:
		return b.host.SP(mmu.Kernel)
	case idx == 9:
		return b.host.SP(mmu.Supervisor)
	case idx == 10:
		return 0
	case idx == 11:
		return b.host.SP(mmu.User)
	default:
		return 0
	}
}

func (b *Bus) writeRegWindow(idx int, value uint16, wordMode bool) {
	switch {
	case idx <= 5:
		b.host.SetGPR(idx, value)
	case idx == 6:
		b.host.SetGPR(7, value)
	case idx == 7:
		b.host.SetSP(b.host.Mode(), value)
	case idx == 8:
		b.host.SetSP(mmu.Kernel, value)
	case idx == 9:
		b.host.SetSP(mmu.Supervisor, value)
	case idx == 11:
		b.host.SetSP(mmu.User, value)
	}
}

type parPDR struct {
	mode  mmu.Mode
	space mmu.Space
	isPAR bool
	page  int
}

// parPDRIndex decodes the Supervisor/Kernel/User PAR/PDR windows.
func parPDRIndex(va uint16) (parPDR, bool) {
	if idx, ok := within(va, addrSupervisorWin, 32); ok {
		return parPDR{mode: mmu.Supervisor, space: mmu.Space((idx / 8) % 2), isPAR: idx >= 16, page: idx % 8}, true
	}
	if idx, ok := within(va, addrKernelPDR, 16); ok {
		return parPDR{mode: mmu.Kernel, space: mmu.Space(idx / 8), isPAR: false, page: idx % 8}, true
	}
	if idx, ok := within(va, addrKernelPAR, 16); ok {
		return parPDR{mode: mmu.Kernel, space: mmu.Space(idx / 8), isPAR: true, page: idx % 8}, true
	}
	if idx, ok := within(va, addrUserPDR, 16); ok {
		return parPDR{mode: mmu.User, space: mmu.Space(idx / 8), isPAR: false, page: idx % 8}, true
	}
	if idx, ok := within(va, addrUserPAR, 16); ok {
		return parPDR{mode: mmu.User, space: mmu.Space(idx / 8), isPAR: true, page: idx % 8}, true
	}
	return parPDR{}, false
}

// dispatchDevice routes to an attached device's register window. The
// bool result reports whether any device (or the fixed addresses
// above) claimed the address; when false the caller raises a bus
// timeout.
func (b *Bus) dispatchDevice(va uint16, wordMode bool, write bool, value uint16) (uint16, bool, error) {
	addr := uint32(va)
	for _, d := range b.devices {
		if addr < d.base || addr >= d.base+d.size {
			continue
		}
		off := addr - d.base
		if write {
			if wordMode {
				d.dev.WriteWord(off, value)
			} else {
				d.dev.WriteByte(off, byte(value))
			}
			return 0, true, nil
		}
		if wordMode {
			return d.dev.ReadWord(off), true, nil
		}
		return uint16(d.dev.ReadByte(off)), true, nil
	}
	return 0, false, nil
}

// maybeByte truncates a word register's value to the low or high byte
// when wordMode is false, matching a real register's byte-addressable
// halves; va's low bit picks which half.
func maybeByte(word uint16, va uint16, wordMode bool) uint16 {
	if wordMode {
		return word
	}
	if va&1 != 0 {
		return word >> 8
	}
	return word & 0xff
}

// writeMasked merges a byte write into the matching half of the
// current register value; a word write replaces it outright.
func writeMasked(current uint16, va uint16, value uint16, wordMode bool) uint16 {
	if wordMode {
		return value
	}
	if va&1 != 0 {
		return (current & 0x00ff) | (value&0xff)<<8
	}
	return (current & 0xff00) | (value & 0xff)
}
