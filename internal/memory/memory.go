// Package memory implements the 64 KiB flat address space and dispatches
// reads and writes in the mapped Video and PIA regions to those devices
// before falling back to the backing byte array.
package memory

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/sbc65c02/monitor/internal/pia"
	"github.com/sbc65c02/monitor/internal/video"
)

const size = 0x10000

// VideoDevice is the subset of *video.Video the memory façade needs.
type VideoDevice interface {
	Read(addr uint16) byte
	Write(addr uint16, value byte)
}

// PIADevice is the subset of *pia.PIA the memory façade needs.
type PIADevice interface {
	Read(addr uint16) byte
	Write(addr uint16, value byte)
}

// Memory is the 64 KiB byte array backing the whole address space, with
// non-owning references to Video and PIA installed once at construction
// and never reseated.
type Memory struct {
	buf   [size]byte
	video VideoDevice
	pia   PIADevice
}

// New returns a Memory with its backing buffer zeroed. Wire is expected to
// be called once, immediately, with the Video and PIA the Machine owns.
func New() *Memory {
	return &Memory{}
}

// Wire installs the non-owning Video and PIA back-references. It must be
// called exactly once, before any Read/Write.
func (m *Memory) Wire(v VideoDevice, p PIADevice) {
	m.video = v
	m.pia = p
}

// Read returns the byte at addr, dispatching to Video or PIA when addr
// falls in their mapped regions.
func (m *Memory) Read(addr uint16) byte {
	switch {
	case video.InRange(addr) && m.video != nil:
		return m.video.Read(addr)
	case pia.InRange(addr) && m.pia != nil:
		return m.pia.Read(addr)
	default:
		return m.buf[addr]
	}
}

// Write stores value at addr, dispatching to Video or PIA when addr falls
// in their mapped regions. The backing byte is also updated in mapped
// regions for convenience, per the core specification.
func (m *Memory) Write(addr uint16, value byte) {
	m.buf[addr] = value
	switch {
	case video.InRange(addr) && m.video != nil:
		m.video.Write(addr, value)
	case pia.InRange(addr) && m.pia != nil:
		m.pia.Write(addr, value)
	}
}

// ReadWord returns the little-endian word at addr (low byte at addr, high
// byte at addr+1, wrapping at the top of the address space). No 6502
// page-wrap quirk is emulated here; addressing-mode helpers in the CPU
// package implement that quirk where it actually applies.
func (m *Memory) ReadWord(addr uint16) uint16 {
	lo := uint16(m.Read(addr))
	hi := uint16(m.Read(addr + 1))
	return lo | hi<<8
}

// WriteWord stores v as a little-endian word at addr, low byte first.
func (m *Memory) WriteWord(addr uint16, v uint16) {
	m.Write(addr, byte(v))
	m.Write(addr+1, byte(v>>8))
}

// LoadSegment copies bytes into the backing buffer starting at start,
// bypassing mapped-region dispatch (segments are loaded once at power-on,
// before the guest is running).
func (m *Memory) LoadSegment(data []byte, start uint16) error {
	end := int(start) + len(data)
	if end > size {
		return fmt.Errorf("memory: segment at %#04x length %d exceeds address space", start, len(data))
	}
	copy(m.buf[start:end], data)
	return nil
}

// memState is the serializable snapshot of Memory's backing buffer, used
// by Machine.SaveSnapshot/LoadSnapshot. Video and PIA device state is not
// included.
type memState struct {
	Buf [size]byte
}

// SaveState gob-encodes the backing buffer.
func (m *Memory) SaveState() []byte {
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(memState{Buf: m.buf})
	return buf.Bytes()
}

// LoadState restores the backing buffer from a blob produced by SaveState.
func (m *Memory) LoadState(data []byte) error {
	var s memState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return fmt.Errorf("memory: decode state: %w", err)
	}
	m.buf = s.Buf
	return nil
}
