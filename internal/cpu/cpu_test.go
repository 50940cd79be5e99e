package cpu

import "testing"

// flatMem is a bare [65536]byte Memory, enough to drive the CPU in
// isolation without pulling in the video/pia/memory façade.
type flatMem struct {
	buf [0x10000]byte
}

func (m *flatMem) Read(addr uint16) byte       { return m.buf[addr] }
func (m *flatMem) Write(addr uint16, v byte)   { m.buf[addr] = v }

func newCPUWithROM(code []byte, at uint16) (*CPU, *flatMem) {
	mem := &flatMem{}
	copy(mem.buf[at:], code)
	mem.buf[0xFFFC] = byte(at)
	mem.buf[0xFFFD] = byte(at >> 8)
	c := New(mem, nil)
	c.Reset()
	return c, mem
}

func TestReset(t *testing.T) {
	c, _ := newCPUWithROM(nil, 0x8000)
	if c.A != 0 || c.X != 0 || c.Y != 0 {
		t.Fatalf("registers not zeroed after reset: A=%d X=%d Y=%d", c.A, c.X, c.Y)
	}
	if c.SP != 0xFF {
		t.Fatalf("SP after reset got %#02x want 0xff", c.SP)
	}
	if c.P != 0x20|FlagIRQDisable {
		t.Fatalf("P after reset got %#02x want %#02x", c.P, 0x20|FlagIRQDisable)
	}
	if c.PC != 0x8000 {
		t.Fatalf("PC after reset got %#04x want 0x8000", c.PC)
	}
	if c.Cycles != 0 {
		t.Fatalf("cycles after reset got %d want 0", c.Cycles)
	}
}

func TestLDAImmediateSetsFlags(t *testing.T) {
	c, _ := newCPUWithROM([]byte{0xA9, 0x00, 0xA9, 0x80}, 0x8000)
	if err := c.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	if !c.flag(FlagZero) {
		t.Fatalf("zero flag not set loading 0")
	}
	if err := c.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	if !c.flag(FlagNegative) {
		t.Fatalf("negative flag not set loading 0x80")
	}
}

func TestIndexedStoreThenRead(t *testing.T) {
	// LDX #5; LDA #$42; STA $2000,X
	c, mem := newCPUWithROM([]byte{0xA2, 0x05, 0xA9, 0x42, 0x9D, 0x00, 0x20}, 0x8000)
	for i := 0; i < 3; i++ {
		if err := c.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if got := mem.Read(0x2005); got != 0x42 {
		t.Fatalf("memory at $2005 got %#02x want 0x42", got)
	}
}

func TestJSRRTSRoundTrip(t *testing.T) {
	mem := &flatMem{}
	// $8000: JSR $8010; NOP
	copy(mem.buf[0x8000:], []byte{0x20, 0x10, 0x80, 0xEA})
	// $8010: RTS
	mem.buf[0x8010] = 0x60
	c := New(mem, nil)
	c.PC = 0x8000
	c.SP = 0xFF

	if err := c.Step(); err != nil { // JSR
		t.Fatalf("jsr: %v", err)
	}
	if c.PC != 0x8010 {
		t.Fatalf("PC after JSR got %#04x want 0x8010", c.PC)
	}
	if err := c.Step(); err != nil { // RTS
		t.Fatalf("rts: %v", err)
	}
	if c.PC != 0x8003 {
		t.Fatalf("PC after RTS got %#04x want 0x8003", c.PC)
	}
	if c.SP != 0xFF {
		t.Fatalf("SP after round trip got %#02x want 0xff", c.SP)
	}
}

func TestUnknownOpcode(t *testing.T) {
	// $02 is not a documented 65C02 opcode.
	c, _ := newCPUWithROM([]byte{0x02}, 0x8000)
	err := c.Step()
	if err == nil {
		t.Fatalf("expected an error for unknown opcode")
	}
	var execErr *ExecutionError
	if ok := asExecutionError(err, &execErr); !ok {
		t.Fatalf("expected *ExecutionError, got %T", err)
	}
	if execErr.Opcode != 0x02 {
		t.Fatalf("opcode in error got %#02x want 0x02", execErr.Opcode)
	}
}

func asExecutionError(err error, target **ExecutionError) bool {
	e, ok := err.(*ExecutionError)
	if ok {
		*target = e
	}
	return ok
}

func TestDecimalModeADC(t *testing.T) {
	// SED; CLC; LDA #$58; ADC #$46 -> 58+46 BCD = 104 => A=$04, Carry set.
	c, _ := newCPUWithROM([]byte{0xF8, 0x18, 0xA9, 0x58, 0x69, 0x46}, 0x8000)
	for i := 0; i < 4; i++ {
		if err := c.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if c.A != 0x04 {
		t.Fatalf("A after decimal ADC got %#02x want 0x04", c.A)
	}
	if !c.flag(FlagCarry) {
		t.Fatalf("carry not set after decimal ADC overflow")
	}
}

func TestBranchTakenCycles(t *testing.T) {
	// BEQ +2 (not crossing a page, Zero set by prior LDA #0).
	c, _ := newCPUWithROM([]byte{0xA9, 0x00, 0xF0, 0x02}, 0x80FC)
	c.Step() // LDA #0, sets Zero
	before := c.Cycles
	if err := c.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	if c.Cycles-before < 3 {
		t.Fatalf("expected at least 3 cycles for taken branch, got %d", c.Cycles-before)
	}
}

func TestBRKAndRTI(t *testing.T) {
	mem := &flatMem{}
	mem.buf[0xFFFE] = 0x00
	mem.buf[0xFFFF] = 0x90 // IRQ/BRK vector -> $9000
	mem.buf[0x9000] = 0x40 // RTI
	mem.buf[0x8000] = 0x00 // BRK
	c := New(mem, nil)
	c.PC = 0x8000
	c.SP = 0xFF
	c.P = 0

	if err := c.Step(); err != nil {
		t.Fatalf("brk: %v", err)
	}
	if c.PC != 0x9000 {
		t.Fatalf("PC after BRK got %#04x want 0x9000", c.PC)
	}
	if !c.flag(FlagIRQDisable) {
		t.Fatalf("IRQDisable not set after BRK")
	}

	if err := c.Step(); err != nil {
		t.Fatalf("rti: %v", err)
	}
	if c.PC != 0x8002 {
		t.Fatalf("PC after RTI got %#04x want 0x8002", c.PC)
	}
}

func TestBRKClearsDecimalFlag(t *testing.T) {
	mem := &flatMem{}
	mem.buf[0xFFFE] = 0x00
	mem.buf[0xFFFF] = 0x90 // IRQ/BRK vector -> $9000
	mem.buf[0x8000] = 0x00 // BRK
	c := New(mem, nil)
	c.PC = 0x8000
	c.SP = 0xFF
	c.P = FlagDecimal

	if err := c.Step(); err != nil {
		t.Fatalf("brk: %v", err)
	}
	if c.flag(FlagDecimal) {
		t.Fatalf("decimal flag still set after BRK")
	}
	pushedP := mem.buf[stackPage+uint16(c.SP)+1]
	if pushedP&FlagDecimal == 0 {
		t.Fatalf("pushed P lost decimal flag before the CPU's own clear: got %#02x", pushedP)
	}
}

func TestIRQClearsDecimalFlag(t *testing.T) {
	mem := &flatMem{}
	mem.buf[0xFFFE] = 0x00
	mem.buf[0xFFFF] = 0x90 // IRQ/BRK vector -> $9000
	c := New(mem, alwaysAsserted{})
	c.PC = 0x8000
	c.SP = 0xFF
	c.P = FlagDecimal

	if !c.IRQ() {
		t.Fatalf("expected IRQ to be serviced")
	}
	if c.flag(FlagDecimal) {
		t.Fatalf("decimal flag still set after IRQ")
	}
	if c.PC != 0x9000 {
		t.Fatalf("PC after IRQ got %#04x want 0x9000", c.PC)
	}
}

type alwaysAsserted struct{}

func (alwaysAsserted) InterruptAsserted() bool { return true }

func TestDecimalModeADCChargesExtraCycle(t *testing.T) {
	// SED; ADC #$01 in decimal mode costs one more cycle than binary mode.
	c, _ := newCPUWithROM([]byte{0xF8, 0x69, 0x01}, 0x8000)
	if err := c.Step(); err != nil { // SED
		t.Fatalf("sed: %v", err)
	}
	before := c.Cycles
	if err := c.Step(); err != nil { // ADC #$01
		t.Fatalf("adc: %v", err)
	}
	if got := c.Cycles - before; got != 3 {
		t.Fatalf("decimal-mode ADC immediate cycles got %d want 3 (2 base + 1 decimal)", got)
	}
}

func TestOpcodeTableNameLookup(t *testing.T) {
	if Name(0xA9) != "LDA" {
		t.Fatalf("Name(0xA9) got %q want LDA", Name(0xA9))
	}
	if Name(0x02) != "" {
		t.Fatalf("Name(0x02) got %q want empty for unknown opcode", Name(0x02))
	}
}
