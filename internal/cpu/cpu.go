// Package cpu implements a 65C02 instruction interpreter: register file,
// flag logic, addressing-mode resolution, and a 256-entry opcode dispatch
// table with per-instruction cycle accounting.
package cpu

import "fmt"

// Status flag bit positions.
const (
	FlagCarry      byte = 1 << 0
	FlagZero       byte = 1 << 1
	FlagIRQDisable byte = 1 << 2
	FlagDecimal    byte = 1 << 3
	FlagBreak      byte = 1 << 4
	FlagUnused     byte = 1 << 5
	FlagOverflow   byte = 1 << 6
	FlagNegative   byte = 1 << 7
)

const (
	resetVector uint16 = 0xFFFC
	irqVector   uint16 = 0xFFFE
	stackPage   uint16 = 0x0100
)

// Memory is the narrow byte-addressable dependency the CPU needs. The
// Machine composition root wires this to its Memory façade.
type Memory interface {
	Read(addr uint16) byte
	Write(addr uint16, value byte)
}

// InterruptSource reports whether a maskable interrupt is currently
// asserted. The Machine composition root wires this to the PIA.
type InterruptSource interface {
	InterruptAsserted() bool
}

// ExecutionError reports a fetched opcode with no entry in the dispatch
// table. It is non-fatal: step() has already consumed the opcode byte but
// mutated nothing else.
type ExecutionError struct {
	Opcode byte
	PC     uint16
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("cpu: unknown opcode %#02x at %#04x", e.Opcode, e.PC)
}

// CPU holds the 65C02 register file and cycle counter. It is not safe for
// concurrent use; the core specification is single-threaded and
// synchronous by design.
type CPU struct {
	A, X, Y byte
	SP      byte
	PC      uint16
	P       byte
	Cycles  uint64

	mem Memory
	irq InterruptSource

	pageCrossed bool
}

// New returns a CPU wired to mem for all memory traffic and, optionally,
// irq for interrupt servicing between steps. irq may be nil if the host
// never calls IRQ.
func New(mem Memory, irq InterruptSource) *CPU {
	return &CPU{mem: mem, irq: irq}
}

// Reset sets A=X=Y=0, SP=$FF, P=0x20|IRQDisable, loads PC from the
// little-endian reset vector, and zeroes the cycle counter.
func (c *CPU) Reset() {
	c.A, c.X, c.Y = 0, 0, 0
	c.SP = 0xFF
	c.P = 0x20 | FlagIRQDisable
	c.PC = c.readVector(resetVector)
	c.Cycles = 0
}

func (c *CPU) readVector(addr uint16) uint16 {
	lo := c.mem.Read(addr)
	hi := c.mem.Read(addr + 1)
	return uint16(lo) | uint16(hi)<<8
}

// Step fetches one opcode from PC, dispatches it through the opcode
// table, and returns nil on success or an *ExecutionError if the opcode
// is not in the documented 65C02 set. Unknown opcodes leave every
// register and memory location untouched beyond the already-fetched byte.
func (c *CPU) Step() error {
	startPC := c.PC
	op := c.mem.Read(c.PC)
	c.PC++

	instr := &opcodeTable[op]
	if instr.fn == nil {
		return &ExecutionError{Opcode: op, PC: startPC}
	}

	c.pageCrossed = false
	addr := c.resolveAddr(instr.mode)
	instr.fn(c, addr, instr.mode)

	cycles := instr.cycles
	if instr.crossPenalty && c.pageCrossed {
		cycles++
	}
	if c.flag(FlagDecimal) && (instr.name == "ADC" || instr.name == "SBC") {
		cycles++
	}
	c.Cycles += uint64(cycles)
	return nil
}

// IRQ services a maskable interrupt if one is asserted and IRQDisable is
// clear: it pushes PC and P (with Break clear), sets IRQDisable, clears
// Decimal (the 65C02 does not carry the NMOS quirk of leaving D set across
// interrupts), loads PC from the IRQ/BRK vector, charges 7 cycles, and
// returns true. It returns false, doing nothing, if no source is wired,
// none is asserted, or interrupts are currently disabled. The Machine run
// loop calls this between steps, mirroring where the PIA's file-operations
// hook runs.
func (c *CPU) IRQ() bool {
	if c.irq == nil || !c.irq.InterruptAsserted() || c.P&FlagIRQDisable != 0 {
		return false
	}
	c.push16(c.PC)
	c.push8((c.P &^ FlagBreak) | FlagUnused)
	c.setFlag(FlagIRQDisable, true)
	c.setFlag(FlagDecimal, false)
	c.PC = c.readVector(irqVector)
	c.Cycles += 7
	return true
}

func (c *CPU) flag(mask byte) bool { return c.P&mask != 0 }

func (c *CPU) setFlag(mask byte, set bool) {
	if set {
		c.P |= mask
	} else {
		c.P &^= mask
	}
}

func (c *CPU) setZN(v byte) {
	c.setFlag(FlagZero, v == 0)
	c.setFlag(FlagNegative, v&0x80 != 0)
}

func (c *CPU) push8(v byte) {
	c.mem.Write(stackPage+uint16(c.SP), v)
	c.SP--
}

func (c *CPU) pull8() byte {
	c.SP++
	return c.mem.Read(stackPage + uint16(c.SP))
}

func (c *CPU) push16(v uint16) {
	c.push8(byte(v >> 8))
	c.push8(byte(v))
}

func (c *CPU) pull16() uint16 {
	lo := c.pull8()
	hi := c.pull8()
	return uint16(lo) | uint16(hi)<<8
}

func pageDiffers(a, b uint16) bool { return a&0xFF00 != b&0xFF00 }

// resolveAddr advances PC past the instruction's operand bytes and
// returns the effective address for mode, setting c.pageCrossed when an
// indexed or indirect-indexed access crosses a page boundary. Implied and
// accumulator modes return 0; their handlers ignore the address.
func (c *CPU) resolveAddr(mode Mode) uint16 {
	switch mode {
	case modeImplied, modeAccumulator:
		return 0
	case modeImmediate:
		addr := c.PC
		c.PC++
		return addr
	case modeZeroPage:
		zp := c.mem.Read(c.PC)
		c.PC++
		return uint16(zp)
	case modeZeroPageX:
		zp := c.mem.Read(c.PC)
		c.PC++
		return uint16(zp + c.X)
	case modeZeroPageY:
		zp := c.mem.Read(c.PC)
		c.PC++
		return uint16(zp + c.Y)
	case modeAbsolute:
		return c.readAbsOperand()
	case modeAbsoluteX:
		base := c.readAbsOperand()
		addr := base + uint16(c.X)
		c.pageCrossed = pageDiffers(base, addr)
		return addr
	case modeAbsoluteY:
		base := c.readAbsOperand()
		addr := base + uint16(c.Y)
		c.pageCrossed = pageDiffers(base, addr)
		return addr
	case modeIndirect:
		ptr := c.readAbsOperand()
		lo := c.mem.Read(ptr)
		hi := c.mem.Read(ptr + 1)
		return uint16(lo) | uint16(hi)<<8
	case modeIndexedIndirect:
		zp := c.mem.Read(c.PC)
		c.PC++
		ptr := zp + c.X
		lo := c.mem.Read(uint16(ptr))
		hi := c.mem.Read(uint16(ptr + 1))
		return uint16(lo) | uint16(hi)<<8
	case modeIndirectIndexed:
		zp := c.mem.Read(c.PC)
		c.PC++
		lo := c.mem.Read(uint16(zp))
		hi := c.mem.Read(uint16(zp + 1))
		base := uint16(lo) | uint16(hi)<<8
		addr := base + uint16(c.Y)
		c.pageCrossed = pageDiffers(base, addr)
		return addr
	case modeZeroPageIndirect:
		zp := c.mem.Read(c.PC)
		c.PC++
		lo := c.mem.Read(uint16(zp))
		hi := c.mem.Read(uint16(zp + 1))
		return uint16(lo) | uint16(hi)<<8
	case modeRelative:
		off := int8(c.mem.Read(c.PC))
		c.PC++
		base := c.PC
		target := uint16(int32(base) + int32(off))
		c.pageCrossed = pageDiffers(base, target)
		return target
	default:
		return 0
	}
}

func (c *CPU) readAbsOperand() uint16 {
	lo := c.mem.Read(c.PC)
	c.PC++
	hi := c.mem.Read(c.PC)
	c.PC++
	return uint16(lo) | uint16(hi)<<8
}

// adc adds v and the carry flag into A, applying 65C02 decimal-mode
// correction when the Decimal flag is set. Overflow is always computed on
// the binary intermediate, per the 65C02 rule the decimal case leaves
// undefined on NMOS.
func (c *CPU) adc(v byte) {
	carry := byte(0)
	if c.flag(FlagCarry) {
		carry = 1
	}
	if c.flag(FlagDecimal) {
		lo := int(c.A&0x0F) + int(v&0x0F) + int(carry)
		hi := int(c.A>>4) + int(v>>4)
		if lo > 9 {
			lo += 6
			hi++
		}
		bin := int(c.A) + int(v) + int(carry)
		overflow := (int(c.A)^bin)&(int(v)^bin)&0x80 != 0
		if hi > 9 {
			hi += 6
		}
		c.setFlag(FlagCarry, hi > 15)
		c.setFlag(FlagOverflow, overflow)
		c.A = byte(hi<<4) | byte(lo&0x0F)
		c.setZN(c.A)
		return
	}
	sum := int(c.A) + int(v) + int(carry)
	result := byte(sum)
	c.setFlag(FlagCarry, sum > 0xFF)
	c.setFlag(FlagOverflow, (int(c.A)^int(result))&(int(v)^int(result))&0x80 != 0)
	c.A = result
	c.setZN(c.A)
}

// sbc subtracts v and the borrow (inverted carry) from A, applying
// 65C02 decimal-mode correction when the Decimal flag is set. Carry and
// Overflow are computed on the binary intermediate in both modes.
func (c *CPU) sbc(v byte) {
	carry := byte(0)
	if c.flag(FlagCarry) {
		carry = 1
	}
	borrow := 1 - int(carry)
	binResult := int(c.A) - int(v) - borrow
	c.setFlag(FlagCarry, binResult >= 0)
	c.setFlag(FlagOverflow, (int(c.A)^int(v))&(int(c.A)^binResult)&0x80 != 0)

	if c.flag(FlagDecimal) {
		lo := int(c.A&0x0F) - int(v&0x0F) - borrow
		hi := int(c.A>>4) - int(v>>4)
		if lo < 0 {
			lo += 10
			hi--
		}
		if hi < 0 {
			hi += 10
		}
		c.A = byte(hi<<4) | byte(lo&0x0F)
		c.setZN(c.A)
		return
	}
	c.A = byte(binResult)
	c.setZN(c.A)
}

func (c *CPU) compare(reg, v byte) {
	result := reg - v
	c.setFlag(FlagCarry, reg >= v)
	c.setFlag(FlagZero, reg == v)
	c.setFlag(FlagNegative, result&0x80 != 0)
}

func (c *CPU) asl(v byte) byte {
	c.setFlag(FlagCarry, v&0x80 != 0)
	result := v << 1
	c.setZN(result)
	return result
}

func (c *CPU) lsr(v byte) byte {
	c.setFlag(FlagCarry, v&0x01 != 0)
	result := v >> 1
	c.setZN(result)
	return result
}

func (c *CPU) rol(v byte) byte {
	carryIn := byte(0)
	if c.flag(FlagCarry) {
		carryIn = 1
	}
	c.setFlag(FlagCarry, v&0x80 != 0)
	result := (v << 1) | carryIn
	c.setZN(result)
	return result
}

func (c *CPU) ror(v byte) byte {
	carryIn := byte(0)
	if c.flag(FlagCarry) {
		carryIn = 0x80
	}
	c.setFlag(FlagCarry, v&0x01 != 0)
	result := (v >> 1) | carryIn
	c.setZN(result)
	return result
}
