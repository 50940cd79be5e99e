// Package machine is the composition root: it wires Memory, Video, PIA,
// and CPU together, loads a ROM image per an external segment table, and
// drives the fetch-execute loop.
package machine

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sbc65c02/monitor/internal/cpu"
	"github.com/sbc65c02/monitor/internal/hostio"
	"github.com/sbc65c02/monitor/internal/memory"
	"github.com/sbc65c02/monitor/internal/pia"
	"github.com/sbc65c02/monitor/internal/reset"
	"github.com/sbc65c02/monitor/internal/segtable"
	"github.com/sbc65c02/monitor/internal/video"
)

// Config holds settings that affect emulation behavior but not its
// observable semantics: tracing, pacing, and the power-on delay.
type Config struct {
	Trace          bool  // carried for front ends; Machine itself does no logging
	PaceCycles     bool  // throttle CPU.Step calls to FrequencyHz
	FrequencyHz    int64 // target cycle rate when PaceCycles is set
	PowerOnDelayMs int   // delay before the first reset, in milliseconds
}

// Defaults fills zero-valued fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.FrequencyHz <= 0 {
		c.FrequencyHz = reset.DefaultFrequencyHz
	}
}

// BootError reports a fatal failure during PowerOn: a missing or
// unreadable ROM image, or a segment table missing a required segment.
type BootError struct {
	Reason string
	Err    error
}

func (e *BootError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("machine: boot failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("machine: boot failed: %s", e.Reason)
}

func (e *BootError) Unwrap() error { return e.Err }

// Machine owns Memory, Video, PIA, and CPU and drives their interaction.
type Machine struct {
	Config Config

	Memory *memory.Memory
	Video  *video.Video
	PIA    *pia.PIA
	CPU    *cpu.CPU

	resetCircuit *reset.Circuit
	timer        *reset.Timer
}

// New wires a fresh Machine: Memory holds back-references to Video and
// PIA installed once and never reseated, the CPU is wired to Memory for
// bus traffic and to PIA for interrupt servicing, and the reset circuit
// is wired to the CPU.
func New(cfg Config, host hostio.Backend) *Machine {
	cfg.Defaults()

	mem := memory.New()
	vid := video.New()
	p := pia.New(mem, host)
	mem.Wire(vid, p)

	c := cpu.New(mem, p)

	m := &Machine{
		Config: cfg,
		Memory: mem,
		Video:  vid,
		PIA:    p,
		CPU:    c,
		timer:  reset.NewTimer(cfg.FrequencyHz),
	}
	m.timer.Enabled = cfg.PaceCycles
	m.resetCircuit = reset.NewCircuit(c, time.Duration(cfg.PowerOnDelayMs)*time.Millisecond)
	return m
}

// PowerOn reads romPath and segment manifest manifestPath, places each
// required segment (CODE, JUMPS, VECS) per the manifest's declared
// addresses, then triggers a power-on reset. Missing files or segments
// are reported as a fatal *BootError.
func (m *Machine) PowerOn(romPath, manifestPath string) error {
	rom, err := os.ReadFile(romPath)
	if err != nil {
		return &BootError{Reason: "reading ROM image", Err: err}
	}

	f, err := os.Open(manifestPath)
	if err != nil {
		return &BootError{Reason: "reading segment table", Err: err}
	}
	defer f.Close()

	table, err := segtable.Parse(f)
	if err != nil {
		return &BootError{Reason: "parsing segment table", Err: err}
	}
	if missing := table.Missing(); len(missing) > 0 {
		return &BootError{Reason: fmt.Sprintf("segment table missing required segments: %v", missing)}
	}

	return m.loadSegments(rom, table)
}

// PowerOnFromReader is PowerOn's counterpart for callers that already
// have the ROM bytes and a parsed segment table in hand, e.g. tests.
func (m *Machine) PowerOnFromReader(rom []byte, table segtable.Table) error {
	if missing := table.Missing(); len(missing) > 0 {
		return &BootError{Reason: fmt.Sprintf("segment table missing required segments: %v", missing)}
	}
	return m.loadSegments(rom, table)
}

func (m *Machine) loadSegments(rom []byte, table segtable.Table) error {
	offset := 0
	for _, name := range segtable.RequiredNames {
		seg, _ := table.Find(name)
		if offset+seg.Size > len(rom) {
			return &BootError{Reason: fmt.Sprintf("ROM image too short for segment %s", name)}
		}
		if err := m.Memory.LoadSegment(rom[offset:offset+seg.Size], seg.Start); err != nil {
			return &BootError{Reason: fmt.Sprintf("loading segment %s", name), Err: err}
		}
		offset += seg.Size
	}

	m.resetCircuit.PowerOn()
	m.timer.Reset()
	return nil
}

// Reset delegates to the reset circuit for a manual (non-power-on) reset.
func (m *Machine) Reset() {
	m.resetCircuit.Manual()
	m.timer.Reset()
}

// Run executes up to maxCycles CPU steps. Each iteration steps the CPU,
// services any asserted interrupt, and then runs the PIA's post-step file
// hook — the only place host filesystem I/O happens relative to guest
// execution. It aborts early, returning the CPU's *cpu.ExecutionError, on
// an unknown opcode.
func (m *Machine) Run(maxCycles int) error {
	for i := 0; i < maxCycles; i++ {
		before := m.CPU.Cycles
		if err := m.CPU.Step(); err != nil {
			return err
		}
		m.CPU.IRQ()
		m.PIA.ProcessFileOperations()
		if m.Config.PaceCycles {
			m.timer.Tick(int(m.CPU.Cycles - before))
		}
	}
	return nil
}

// snapshot is the serializable state of a Machine, used by
// SaveSnapshot/LoadSnapshot.
type snapshot struct {
	A, X, Y byte
	SP      byte
	PC      uint16
	P       byte
	Cycles  uint64
	Mem     []byte
}

// SaveSnapshot gob-encodes the CPU register file and the full memory
// image into a single portable blob.
func (m *Machine) SaveSnapshot() ([]byte, error) {
	s := snapshot{
		A:      m.CPU.A,
		X:      m.CPU.X,
		Y:      m.CPU.Y,
		SP:     m.CPU.SP,
		PC:     m.CPU.PC,
		P:      m.CPU.P,
		Cycles: m.CPU.Cycles,
		Mem:    m.Memory.SaveState(),
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("machine: encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// LoadSnapshot restores a Machine's CPU and memory state from a blob
// produced by SaveSnapshot.
func (m *Machine) LoadSnapshot(data []byte) error {
	var s snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return fmt.Errorf("machine: decode snapshot: %w", err)
	}
	if err := m.Memory.LoadState(s.Mem); err != nil {
		return fmt.Errorf("machine: restore memory: %w", err)
	}
	m.CPU.A, m.CPU.X, m.CPU.Y = s.A, s.X, s.Y
	m.CPU.SP = s.SP
	m.CPU.PC = s.PC
	m.CPU.P = s.P
	m.CPU.Cycles = s.Cycles
	return nil
}

// WriteSnapshot is a convenience wrapper that saves a snapshot directly
// to w.
func (m *Machine) WriteSnapshot(w io.Writer) error {
	data, err := m.SaveSnapshot()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
