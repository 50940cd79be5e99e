package cpu

// Mode identifies an addressing mode. Zero-page-indirect is a 65C02
// addition to the classic NMOS set.
type Mode int

const (
	modeImplied Mode = iota
	modeAccumulator
	modeImmediate
	modeZeroPage
	modeZeroPageX
	modeZeroPageY
	modeAbsolute
	modeAbsoluteX
	modeAbsoluteY
	modeIndirect
	modeIndexedIndirect // (zp,X)
	modeIndirectIndexed // (zp),Y
	modeZeroPageIndirect // (zp), 65C02
	modeRelative
)

type handlerFunc func(c *CPU, addr uint16, mode Mode)

type instruction struct {
	name         string
	mode         Mode
	cycles       int
	crossPenalty bool
	fn           handlerFunc
}

// opcodeTable is the 256-entry dispatch array described by the core
// specification's design notes. Unoccupied entries (fn == nil) signal an
// unknown opcode to Step.
var opcodeTable [256]instruction

// Name returns the mnemonic decoded for opcode, or "" if it is unknown.
// Exists so the full table can be exercised by iterating all 256 indices.
func Name(opcode byte) string {
	return opcodeTable[opcode].name
}

func init() {
	def := func(op byte, name string, mode Mode, cycles int, crossPenalty bool, fn handlerFunc) {
		opcodeTable[op] = instruction{name: name, mode: mode, cycles: cycles, crossPenalty: crossPenalty, fn: fn}
	}

	// Loads.
	def(0xA9, "LDA", modeImmediate, 2, false, lda)
	def(0xA5, "LDA", modeZeroPage, 3, false, lda)
	def(0xB5, "LDA", modeZeroPageX, 4, false, lda)
	def(0xAD, "LDA", modeAbsolute, 4, false, lda)
	def(0xBD, "LDA", modeAbsoluteX, 4, true, lda)
	def(0xB9, "LDA", modeAbsoluteY, 4, true, lda)
	def(0xA1, "LDA", modeIndexedIndirect, 6, false, lda)
	def(0xB1, "LDA", modeIndirectIndexed, 5, true, lda)
	def(0xB2, "LDA", modeZeroPageIndirect, 5, false, lda)

	def(0xA2, "LDX", modeImmediate, 2, false, ldx)
	def(0xA6, "LDX", modeZeroPage, 3, false, ldx)
	def(0xB6, "LDX", modeZeroPageY, 4, false, ldx)
	def(0xAE, "LDX", modeAbsolute, 4, false, ldx)
	def(0xBE, "LDX", modeAbsoluteY, 4, true, ldx)

	def(0xA0, "LDY", modeImmediate, 2, false, ldy)
	def(0xA4, "LDY", modeZeroPage, 3, false, ldy)
	def(0xB4, "LDY", modeZeroPageX, 4, false, ldy)
	def(0xAC, "LDY", modeAbsolute, 4, false, ldy)
	def(0xBC, "LDY", modeAbsoluteX, 4, true, ldy)

	// Stores.
	def(0x85, "STA", modeZeroPage, 3, false, sta)
	def(0x95, "STA", modeZeroPageX, 4, false, sta)
	def(0x8D, "STA", modeAbsolute, 4, false, sta)
	def(0x9D, "STA", modeAbsoluteX, 5, false, sta)
	def(0x99, "STA", modeAbsoluteY, 5, false, sta)
	def(0x81, "STA", modeIndexedIndirect, 6, false, sta)
	def(0x91, "STA", modeIndirectIndexed, 6, false, sta)
	def(0x92, "STA", modeZeroPageIndirect, 5, false, sta)

	def(0x86, "STX", modeZeroPage, 3, false, stx)
	def(0x96, "STX", modeZeroPageY, 4, false, stx)
	def(0x8E, "STX", modeAbsolute, 4, false, stx)

	def(0x84, "STY", modeZeroPage, 3, false, sty)
	def(0x94, "STY", modeZeroPageX, 4, false, sty)
	def(0x8C, "STY", modeAbsolute, 4, false, sty)

	def(0x64, "STZ", modeZeroPage, 3, false, stz)
	def(0x74, "STZ", modeZeroPageX, 4, false, stz)
	def(0x9C, "STZ", modeAbsolute, 4, false, stz)
	def(0x9E, "STZ", modeAbsoluteX, 5, false, stz)

	// Register transfers.
	def(0xAA, "TAX", modeImplied, 2, false, tax)
	def(0xA8, "TAY", modeImplied, 2, false, tay)
	def(0x8A, "TXA", modeImplied, 2, false, txa)
	def(0x98, "TYA", modeImplied, 2, false, tya)
	def(0xBA, "TSX", modeImplied, 2, false, tsx)
	def(0x9A, "TXS", modeImplied, 2, false, txs)

	// Stack.
	def(0x48, "PHA", modeImplied, 3, false, pha)
	def(0x08, "PHP", modeImplied, 3, false, php)
	def(0x68, "PLA", modeImplied, 4, false, pla)
	def(0x28, "PLP", modeImplied, 4, false, plp)
	def(0xDA, "PHX", modeImplied, 3, false, phx)
	def(0x5A, "PHY", modeImplied, 3, false, phy)
	def(0xFA, "PLX", modeImplied, 4, false, plx)
	def(0x7A, "PLY", modeImplied, 4, false, ply)

	// Logical.
	def(0x29, "AND", modeImmediate, 2, false, and)
	def(0x25, "AND", modeZeroPage, 3, false, and)
	def(0x35, "AND", modeZeroPageX, 4, false, and)
	def(0x2D, "AND", modeAbsolute, 4, false, and)
	def(0x3D, "AND", modeAbsoluteX, 4, true, and)
	def(0x39, "AND", modeAbsoluteY, 4, true, and)
	def(0x21, "AND", modeIndexedIndirect, 6, false, and)
	def(0x31, "AND", modeIndirectIndexed, 5, true, and)
	def(0x32, "AND", modeZeroPageIndirect, 5, false, and)

	def(0x09, "ORA", modeImmediate, 2, false, ora)
	def(0x05, "ORA", modeZeroPage, 3, false, ora)
	def(0x15, "ORA", modeZeroPageX, 4, false, ora)
	def(0x0D, "ORA", modeAbsolute, 4, false, ora)
	def(0x1D, "ORA", modeAbsoluteX, 4, true, ora)
	def(0x19, "ORA", modeAbsoluteY, 4, true, ora)
	def(0x01, "ORA", modeIndexedIndirect, 6, false, ora)
	def(0x11, "ORA", modeIndirectIndexed, 5, true, ora)
	def(0x12, "ORA", modeZeroPageIndirect, 5, false, ora)

	def(0x49, "EOR", modeImmediate, 2, false, eor)
	def(0x45, "EOR", modeZeroPage, 3, false, eor)
	def(0x55, "EOR", modeZeroPageX, 4, false, eor)
	def(0x4D, "EOR", modeAbsolute, 4, false, eor)
	def(0x5D, "EOR", modeAbsoluteX, 4, true, eor)
	def(0x59, "EOR", modeAbsoluteY, 4, true, eor)
	def(0x41, "EOR", modeIndexedIndirect, 6, false, eor)
	def(0x51, "EOR", modeIndirectIndexed, 5, true, eor)
	def(0x52, "EOR", modeZeroPageIndirect, 5, false, eor)

	def(0x89, "BIT", modeImmediate, 2, false, bit)
	def(0x24, "BIT", modeZeroPage, 3, false, bit)
	def(0x34, "BIT", modeZeroPageX, 4, false, bit)
	def(0x2C, "BIT", modeAbsolute, 4, false, bit)
	def(0x3C, "BIT", modeAbsoluteX, 4, true, bit)

	def(0x14, "TRB", modeZeroPage, 5, false, trb)
	def(0x1C, "TRB", modeAbsolute, 6, false, trb)
	def(0x04, "TSB", modeZeroPage, 5, false, tsb)
	def(0x0C, "TSB", modeAbsolute, 6, false, tsb)

	// Arithmetic.
	def(0x69, "ADC", modeImmediate, 2, false, adcH)
	def(0x65, "ADC", modeZeroPage, 3, false, adcH)
	def(0x75, "ADC", modeZeroPageX, 4, false, adcH)
	def(0x6D, "ADC", modeAbsolute, 4, false, adcH)
	def(0x7D, "ADC", modeAbsoluteX, 4, true, adcH)
	def(0x79, "ADC", modeAbsoluteY, 4, true, adcH)
	def(0x61, "ADC", modeIndexedIndirect, 6, false, adcH)
	def(0x71, "ADC", modeIndirectIndexed, 5, true, adcH)
	def(0x72, "ADC", modeZeroPageIndirect, 5, false, adcH)

	def(0xE9, "SBC", modeImmediate, 2, false, sbcH)
	def(0xE5, "SBC", modeZeroPage, 3, false, sbcH)
	def(0xF5, "SBC", modeZeroPageX, 4, false, sbcH)
	def(0xED, "SBC", modeAbsolute, 4, false, sbcH)
	def(0xFD, "SBC", modeAbsoluteX, 4, true, sbcH)
	def(0xF9, "SBC", modeAbsoluteY, 4, true, sbcH)
	def(0xE1, "SBC", modeIndexedIndirect, 6, false, sbcH)
	def(0xF1, "SBC", modeIndirectIndexed, 5, true, sbcH)
	def(0xF2, "SBC", modeZeroPageIndirect, 5, false, sbcH)

	// Compares.
	def(0xC9, "CMP", modeImmediate, 2, false, cmp)
	def(0xC5, "CMP", modeZeroPage, 3, false, cmp)
	def(0xD5, "CMP", modeZeroPageX, 4, false, cmp)
	def(0xCD, "CMP", modeAbsolute, 4, false, cmp)
	def(0xDD, "CMP", modeAbsoluteX, 4, true, cmp)
	def(0xD9, "CMP", modeAbsoluteY, 4, true, cmp)
	def(0xC1, "CMP", modeIndexedIndirect, 6, false, cmp)
	def(0xD1, "CMP", modeIndirectIndexed, 5, true, cmp)
	def(0xD2, "CMP", modeZeroPageIndirect, 5, false, cmp)

	def(0xE0, "CPX", modeImmediate, 2, false, cpx)
	def(0xE4, "CPX", modeZeroPage, 3, false, cpx)
	def(0xEC, "CPX", modeAbsolute, 4, false, cpx)

	def(0xC0, "CPY", modeImmediate, 2, false, cpy)
	def(0xC4, "CPY", modeZeroPage, 3, false, cpy)
	def(0xCC, "CPY", modeAbsolute, 4, false, cpy)

	// Increments/decrements.
	def(0x1A, "INC", modeAccumulator, 2, false, inc)
	def(0xE6, "INC", modeZeroPage, 5, false, inc)
	def(0xF6, "INC", modeZeroPageX, 6, false, inc)
	def(0xEE, "INC", modeAbsolute, 6, false, inc)
	def(0xFE, "INC", modeAbsoluteX, 7, false, inc)

	def(0x3A, "DEC", modeAccumulator, 2, false, dec)
	def(0xC6, "DEC", modeZeroPage, 5, false, dec)
	def(0xD6, "DEC", modeZeroPageX, 6, false, dec)
	def(0xCE, "DEC", modeAbsolute, 6, false, dec)
	def(0xDE, "DEC", modeAbsoluteX, 7, false, dec)

	def(0xE8, "INX", modeImplied, 2, false, inx)
	def(0xC8, "INY", modeImplied, 2, false, iny)
	def(0xCA, "DEX", modeImplied, 2, false, dex)
	def(0x88, "DEY", modeImplied, 2, false, dey)

	// Shifts/rotates.
	def(0x0A, "ASL", modeAccumulator, 2, false, asl)
	def(0x06, "ASL", modeZeroPage, 5, false, asl)
	def(0x16, "ASL", modeZeroPageX, 6, false, asl)
	def(0x0E, "ASL", modeAbsolute, 6, false, asl)
	def(0x1E, "ASL", modeAbsoluteX, 7, false, asl)

	def(0x4A, "LSR", modeAccumulator, 2, false, lsr)
	def(0x46, "LSR", modeZeroPage, 5, false, lsr)
	def(0x56, "LSR", modeZeroPageX, 6, false, lsr)
	def(0x4E, "LSR", modeAbsolute, 6, false, lsr)
	def(0x5E, "LSR", modeAbsoluteX, 7, false, lsr)

	def(0x2A, "ROL", modeAccumulator, 2, false, rol)
	def(0x26, "ROL", modeZeroPage, 5, false, rol)
	def(0x36, "ROL", modeZeroPageX, 6, false, rol)
	def(0x2E, "ROL", modeAbsolute, 6, false, rol)
	def(0x3E, "ROL", modeAbsoluteX, 7, false, rol)

	def(0x6A, "ROR", modeAccumulator, 2, false, ror)
	def(0x66, "ROR", modeZeroPage, 5, false, ror)
	def(0x76, "ROR", modeZeroPageX, 6, false, ror)
	def(0x6E, "ROR", modeAbsolute, 6, false, ror)
	def(0x7E, "ROR", modeAbsoluteX, 7, false, ror)

	// Jumps and subroutines.
	def(0x4C, "JMP", modeAbsolute, 3, false, jmp)
	def(0x6C, "JMP", modeIndirect, 5, false, jmp)
	def(0x20, "JSR", modeAbsolute, 6, false, jsr)
	def(0x60, "RTS", modeImplied, 6, false, rts)
	def(0x40, "RTI", modeImplied, 6, false, rti)
	def(0x00, "BRK", modeImplied, 7, false, brk)

	// Branches.
	def(0x90, "BCC", modeRelative, 2, false, branchIf(func(c *CPU) bool { return !c.flag(FlagCarry) }))
	def(0xB0, "BCS", modeRelative, 2, false, branchIf(func(c *CPU) bool { return c.flag(FlagCarry) }))
	def(0xF0, "BEQ", modeRelative, 2, false, branchIf(func(c *CPU) bool { return c.flag(FlagZero) }))
	def(0x30, "BMI", modeRelative, 2, false, branchIf(func(c *CPU) bool { return c.flag(FlagNegative) }))
	def(0xD0, "BNE", modeRelative, 2, false, branchIf(func(c *CPU) bool { return !c.flag(FlagZero) }))
	def(0x10, "BPL", modeRelative, 2, false, branchIf(func(c *CPU) bool { return !c.flag(FlagNegative) }))
	def(0x50, "BVC", modeRelative, 2, false, branchIf(func(c *CPU) bool { return !c.flag(FlagOverflow) }))
	def(0x70, "BVS", modeRelative, 2, false, branchIf(func(c *CPU) bool { return c.flag(FlagOverflow) }))
	def(0x80, "BRA", modeRelative, 3, true, bra)

	// Flag operations.
	def(0x18, "CLC", modeImplied, 2, false, clearFlag(FlagCarry))
	def(0xD8, "CLD", modeImplied, 2, false, clearFlag(FlagDecimal))
	def(0x58, "CLI", modeImplied, 2, false, clearFlag(FlagIRQDisable))
	def(0xB8, "CLV", modeImplied, 2, false, clearFlag(FlagOverflow))
	def(0x38, "SEC", modeImplied, 2, false, setFlagOp(FlagCarry))
	def(0xF8, "SED", modeImplied, 2, false, setFlagOp(FlagDecimal))
	def(0x78, "SEI", modeImplied, 2, false, setFlagOp(FlagIRQDisable))

	def(0xEA, "NOP", modeImplied, 2, false, nop)
}

func lda(c *CPU, addr uint16, _ Mode) { c.A = c.mem.Read(addr); c.setZN(c.A) }
func ldx(c *CPU, addr uint16, _ Mode) { c.X = c.mem.Read(addr); c.setZN(c.X) }
func ldy(c *CPU, addr uint16, _ Mode) { c.Y = c.mem.Read(addr); c.setZN(c.Y) }

func sta(c *CPU, addr uint16, _ Mode) { c.mem.Write(addr, c.A) }
func stx(c *CPU, addr uint16, _ Mode) { c.mem.Write(addr, c.X) }
func sty(c *CPU, addr uint16, _ Mode) { c.mem.Write(addr, c.Y) }
func stz(c *CPU, addr uint16, _ Mode) { c.mem.Write(addr, 0) }

func tax(c *CPU, _ uint16, _ Mode) { c.X = c.A; c.setZN(c.X) }
func tay(c *CPU, _ uint16, _ Mode) { c.Y = c.A; c.setZN(c.Y) }
func txa(c *CPU, _ uint16, _ Mode) { c.A = c.X; c.setZN(c.A) }
func tya(c *CPU, _ uint16, _ Mode) { c.A = c.Y; c.setZN(c.A) }
func tsx(c *CPU, _ uint16, _ Mode) { c.X = c.SP; c.setZN(c.X) }
func txs(c *CPU, _ uint16, _ Mode) { c.SP = c.X }

func pha(c *CPU, _ uint16, _ Mode) { c.push8(c.A) }
func php(c *CPU, _ uint16, _ Mode) { c.push8(c.P | FlagBreak | FlagUnused) }
func pla(c *CPU, _ uint16, _ Mode) { c.A = c.pull8(); c.setZN(c.A) }
func plp(c *CPU, _ uint16, _ Mode) { c.P = (c.pull8() &^ FlagBreak) | FlagUnused }
func phx(c *CPU, _ uint16, _ Mode) { c.push8(c.X) }
func phy(c *CPU, _ uint16, _ Mode) { c.push8(c.Y) }
func plx(c *CPU, _ uint16, _ Mode) { c.X = c.pull8(); c.setZN(c.X) }
func ply(c *CPU, _ uint16, _ Mode) { c.Y = c.pull8(); c.setZN(c.Y) }

func and(c *CPU, addr uint16, _ Mode) { c.A &= c.mem.Read(addr); c.setZN(c.A) }
func ora(c *CPU, addr uint16, _ Mode) { c.A |= c.mem.Read(addr); c.setZN(c.A) }
func eor(c *CPU, addr uint16, _ Mode) { c.A ^= c.mem.Read(addr); c.setZN(c.A) }

func bit(c *CPU, addr uint16, mode Mode) {
	v := c.mem.Read(addr)
	c.setFlag(FlagZero, c.A&v == 0)
	if mode != modeImmediate {
		c.setFlag(FlagNegative, v&0x80 != 0)
		c.setFlag(FlagOverflow, v&0x40 != 0)
	}
}

func trb(c *CPU, addr uint16, _ Mode) {
	v := c.mem.Read(addr)
	c.setFlag(FlagZero, c.A&v == 0)
	c.mem.Write(addr, v&^c.A)
}

func tsb(c *CPU, addr uint16, _ Mode) {
	v := c.mem.Read(addr)
	c.setFlag(FlagZero, c.A&v == 0)
	c.mem.Write(addr, v|c.A)
}

func adcH(c *CPU, addr uint16, _ Mode) { c.adc(c.mem.Read(addr)) }
func sbcH(c *CPU, addr uint16, _ Mode) { c.sbc(c.mem.Read(addr)) }

func cmp(c *CPU, addr uint16, _ Mode) { c.compare(c.A, c.mem.Read(addr)) }
func cpx(c *CPU, addr uint16, _ Mode) { c.compare(c.X, c.mem.Read(addr)) }
func cpy(c *CPU, addr uint16, _ Mode) { c.compare(c.Y, c.mem.Read(addr)) }

func inc(c *CPU, addr uint16, mode Mode) {
	if mode == modeAccumulator {
		c.A++
		c.setZN(c.A)
		return
	}
	v := c.mem.Read(addr) + 1
	c.mem.Write(addr, v)
	c.setZN(v)
}

func dec(c *CPU, addr uint16, mode Mode) {
	if mode == modeAccumulator {
		c.A--
		c.setZN(c.A)
		return
	}
	v := c.mem.Read(addr) - 1
	c.mem.Write(addr, v)
	c.setZN(v)
}

func inx(c *CPU, _ uint16, _ Mode) { c.X++; c.setZN(c.X) }
func iny(c *CPU, _ uint16, _ Mode) { c.Y++; c.setZN(c.Y) }
func dex(c *CPU, _ uint16, _ Mode) { c.X--; c.setZN(c.X) }
func dey(c *CPU, _ uint16, _ Mode) { c.Y--; c.setZN(c.Y) }

func asl(c *CPU, addr uint16, mode Mode) {
	if mode == modeAccumulator {
		c.A = c.asl(c.A)
		return
	}
	c.mem.Write(addr, c.asl(c.mem.Read(addr)))
}

func lsr(c *CPU, addr uint16, mode Mode) {
	if mode == modeAccumulator {
		c.A = c.lsr(c.A)
		return
	}
	c.mem.Write(addr, c.lsr(c.mem.Read(addr)))
}

func rol(c *CPU, addr uint16, mode Mode) {
	if mode == modeAccumulator {
		c.A = c.rol(c.A)
		return
	}
	c.mem.Write(addr, c.rol(c.mem.Read(addr)))
}

func ror(c *CPU, addr uint16, mode Mode) {
	if mode == modeAccumulator {
		c.A = c.ror(c.A)
		return
	}
	c.mem.Write(addr, c.ror(c.mem.Read(addr)))
}

func jmp(c *CPU, addr uint16, _ Mode) { c.PC = addr }

func jsr(c *CPU, addr uint16, _ Mode) {
	c.push16(c.PC - 1)
	c.PC = addr
}

func rts(c *CPU, _ uint16, _ Mode) { c.PC = c.pull16() + 1 }

func rti(c *CPU, _ uint16, _ Mode) {
	c.P = (c.pull8() &^ FlagBreak) | FlagUnused
	c.PC = c.pull16()
}

func brk(c *CPU, _ uint16, _ Mode) {
	c.PC++
	c.push16(c.PC)
	c.push8(c.P | FlagBreak | FlagUnused)
	c.setFlag(FlagIRQDisable, true)
	c.setFlag(FlagDecimal, false)
	c.PC = c.readVector(irqVector)
}

func nop(c *CPU, _ uint16, _ Mode) {}

func bra(c *CPU, addr uint16, _ Mode) { c.PC = addr }

func branchIf(cond func(c *CPU) bool) handlerFunc {
	return func(c *CPU, addr uint16, _ Mode) {
		if !cond(c) {
			return
		}
		c.Cycles++
		if c.pageCrossed {
			c.Cycles++
		}
		c.PC = addr
	}
}

func clearFlag(mask byte) handlerFunc {
	return func(c *CPU, _ uint16, _ Mode) { c.setFlag(mask, false) }
}

func setFlagOp(mask byte) handlerFunc {
	return func(c *CPU, _ uint16, _ Mode) { c.setFlag(mask, true) }
}
