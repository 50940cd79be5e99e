package machine

import (
	"testing"

	"github.com/sbc65c02/monitor/internal/hostio"
	"github.com/sbc65c02/monitor/internal/segtable"
)

// buildROM assembles a ROM image with resetCode placed at codeStart and a
// reset vector in VECS pointing at it. jumps and vecs are padded to their
// declared sizes; only the low 6 bytes of vecs matter ($FFFA..$FFFF).
func buildROM(t *testing.T, resetCode []byte, codeStart uint16) ([]byte, segtable.Table) {
	t.Helper()
	const (
		codeSize  = 0x0F00 // $F000-$FEFF
		jumpsSize = 0x00FA // $FF00-$FF F9
		vecsSize  = 6      // $FFFA-$FFFF
	)
	code := make([]byte, codeSize)
	copy(code, resetCode)
	jumps := make([]byte, jumpsSize)
	vecs := make([]byte, vecsSize)
	vecs[2] = byte(codeStart)      // $FFFC
	vecs[3] = byte(codeStart >> 8) // $FFFD

	rom := append(append(code, jumps...), vecs...)
	table := segtable.Table{Segments: []segtable.Segment{
		{Name: segtable.CODE, Start: 0xF000, End: 0xFEFF, Size: codeSize},
		{Name: segtable.JUMPS, Start: 0xFF00, End: 0xFFF9, Size: jumpsSize},
		{Name: segtable.VECS, Start: 0xFFFA, End: 0xFFFF, Size: vecsSize},
	}}
	return rom, table
}

func TestPowerOnLoadsSegmentsAndResets(t *testing.T) {
	rom, table := buildROM(t, []byte{0xA9, 0x42}, 0xF000) // LDA #$42
	m := New(Config{}, hostio.NewMemoryBackend())
	if err := m.PowerOnFromReader(rom, table); err != nil {
		t.Fatalf("power on: %v", err)
	}
	if m.CPU.PC != 0xF000 {
		t.Fatalf("PC after power-on got %#04x want 0xf000", m.CPU.PC)
	}
	if err := m.Run(1); err != nil {
		t.Fatalf("run: %v", err)
	}
	if m.CPU.A != 0x42 {
		t.Fatalf("A got %#02x want 0x42", m.CPU.A)
	}
}

func TestPowerOnMissingSegmentIsBootError(t *testing.T) {
	rom, table := buildROM(t, nil, 0xF000)
	table.Segments = table.Segments[:1] // drop JUMPS and VECS
	m := New(Config{}, hostio.NewMemoryBackend())
	err := m.PowerOnFromReader(rom, table)
	if err == nil {
		t.Fatalf("expected boot error for missing segments")
	}
	var bootErr *BootError
	if be, ok := err.(*BootError); ok {
		bootErr = be
	}
	if bootErr == nil {
		t.Fatalf("expected *BootError, got %T", err)
	}
}

func TestRunStopsOnUnknownOpcode(t *testing.T) {
	rom, table := buildROM(t, []byte{0x02}, 0xF000) // undocumented opcode
	m := New(Config{}, hostio.NewMemoryBackend())
	if err := m.PowerOnFromReader(rom, table); err != nil {
		t.Fatalf("power on: %v", err)
	}
	if err := m.Run(5); err == nil {
		t.Fatalf("expected run to stop on unknown opcode")
	}
}

func TestVideoMappedWriteThroughRunLoop(t *testing.T) {
	// LDA #$41; STA $0400
	rom, table := buildROM(t, []byte{0xA9, 0x41, 0x8D, 0x00, 0x04}, 0xF000)
	m := New(Config{}, hostio.NewMemoryBackend())
	if err := m.PowerOnFromReader(rom, table); err != nil {
		t.Fatalf("power on: %v", err)
	}
	if err := m.Run(2); err != nil {
		t.Fatalf("run: %v", err)
	}
	snap := m.Video.Snapshot()
	if snap.Buf[0] != 0x41 {
		t.Fatalf("video buffer[0] got %#02x want 0x41", snap.Buf[0])
	}
}

func TestFileTransferHandshakeThroughRunLoop(t *testing.T) {
	host := hostio.NewMemoryBackend()
	host.Files["X.BIN"] = []byte{0xAA, 0xBB, 0xCC}

	// Assemble guest code that writes the filename, target address, and
	// command register. Run's step budget below ends right after the
	// command store, so exactly one ProcessFileOperations call sees the
	// load in progress.
	var code []byte
	emit := func(b ...byte) { code = append(code, b...) }
	name := "X.BIN\x00"
	for i, c := range []byte(name) {
		emit(0xA9, c, 0x8D, byte(0x14+i), 0xDC) // LDA #c; STA $DC14+i
	}
	emit(0xA9, 0x00, 0x8D, 0x12, 0xDC) // LDA #0; STA fileAddrLo ($DC12)
	emit(0xA9, 0x30, 0x8D, 0x13, 0xDC) // LDA #$30; STA fileAddrHi ($DC13)
	emit(0xA9, 0x01, 0x8D, 0x10, 0xDC) // LDA #1 (CmdLoad); STA fileCommand ($DC10)

	rom, table := buildROM(t, code, 0xF000)
	m := New(Config{}, host)
	if err := m.PowerOnFromReader(rom, table); err != nil {
		t.Fatalf("power on: %v", err)
	}
	// Each filename byte costs 2 instructions (12 steps for "X.BIN\0"),
	// plus 6 more for address-lo/hi/command.
	steps := len(name)*2 + 6
	if err := m.Run(steps); err != nil {
		t.Fatalf("run: %v", err)
	}
	for i, want := range []byte{0xAA, 0xBB, 0xCC} {
		if got := m.Memory.Read(0x3000 + uint16(i)); got != want {
			t.Fatalf("mem[$3000+%d] got %#02x want %#02x", i, got, want)
		}
	}
}

func TestSaveSnapshotRoundTrip(t *testing.T) {
	rom, table := buildROM(t, []byte{0xA9, 0x7F}, 0xF000)
	m := New(Config{}, hostio.NewMemoryBackend())
	if err := m.PowerOnFromReader(rom, table); err != nil {
		t.Fatalf("power on: %v", err)
	}
	if err := m.Run(1); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := m.SaveSnapshot()
	if err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	m2 := New(Config{}, hostio.NewMemoryBackend())
	if err := m2.LoadSnapshot(data); err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if m2.CPU.A != 0x7F {
		t.Fatalf("restored A got %#02x want 0x7f", m2.CPU.A)
	}
}
