// Package video models the character-cell screen controller mapped into the
// guest address space at $0400-$07FF: a 40x25 buffer, a cursor, and a
// one-shot dirty flag the host polls to know when to redraw.
package video

import "sync"

const (
	// Base is the first address of the mapped screen region.
	Base uint16 = 0x0400
	// End is the last address of the mapped screen region (inclusive).
	End uint16 = 0x07FF

	// Columns is the number of character columns per row.
	Columns = 40
	// Rows is the number of character rows.
	Rows = 25

	bufSize = Columns * Rows

	// Blank is the glyph Clear fills the buffer with.
	Blank byte = 0x20
)

// Snapshot is a point-in-time copy of the screen buffer and cursor position,
// safe for the host to read without racing further CPU writes.
type Snapshot struct {
	Buf    [bufSize]byte
	Cursor Cursor
}

// Cursor is the current write position, in character cells.
type Cursor struct {
	X, Y int
}

// Video owns the 1000-byte character buffer and cursor for the mapped
// screen region. All mutation goes through Write/Clear/ScrollUp/SetCursor,
// each of which marks the buffer dirty.
type Video struct {
	mu     sync.Mutex
	buf    [bufSize]byte
	cursor Cursor
	dirty  bool
}

// New returns a Video with a blanked buffer and the cursor at the origin.
func New() *Video {
	v := &Video{}
	v.clearLocked()
	v.dirty = false
	return v
}

// InRange reports whether addr falls in the mapped screen region.
func InRange(addr uint16) bool {
	return addr >= Base && addr <= End
}

// Read returns the character byte stored at the given mapped address. addr
// must satisfy InRange; callers (Memory) are expected to have checked that.
// The last 24 addresses of the region lie past the 1000-byte buffer and
// read as 0.
func (v *Video) Read(addr uint16) byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	off := int(addr - Base)
	if off >= bufSize {
		return 0
	}
	return v.buf[off]
}

// Write stores the character byte at the given mapped address and marks
// the buffer dirty. Writes past the 1000-byte buffer are ignored.
func (v *Video) Write(addr uint16, value byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	off := int(addr - Base)
	if off >= bufSize {
		return
	}
	v.buf[off] = value
	v.dirty = true
}

// Clear fills the buffer with the space glyph and marks it dirty. Calling
// Clear twice in a row is equivalent to calling it once.
func (v *Video) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.clearLocked()
}

func (v *Video) clearLocked() {
	for i := range v.buf {
		v.buf[i] = Blank
	}
	v.dirty = true
}

// ScrollUp shifts rows 1..24 up to rows 0..23 and blanks row 24.
func (v *Video) ScrollUp() {
	v.mu.Lock()
	defer v.mu.Unlock()
	copy(v.buf[0:(Rows-1)*Columns], v.buf[Columns:Rows*Columns])
	for i := (Rows - 1) * Columns; i < Rows*Columns; i++ {
		v.buf[i] = Blank
	}
	v.dirty = true
}

// SetCursor positions the cursor, clamping to the visible grid, and marks
// the buffer dirty.
func (v *Video) SetCursor(x, y int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if x < 0 {
		x = 0
	} else if x >= Columns {
		x = Columns - 1
	}
	if y < 0 {
		y = 0
	} else if y >= Rows {
		y = Rows - 1
	}
	v.cursor = Cursor{X: x, Y: y}
	v.dirty = true
}

// Cursor returns the current cursor position.
func (v *Video) Cursor() Cursor {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cursor
}

// IsDirty reports whether the buffer or cursor changed since the last
// ClearDirty call.
func (v *Video) IsDirty() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.dirty
}

// ClearDirty clears the dirty flag.
func (v *Video) ClearDirty() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dirty = false
}

// Snapshot returns a copy of the buffer and cursor and atomically clears
// the dirty flag, matching the host render loop's read-then-clear pattern.
func (v *Video) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := Snapshot{Cursor: v.cursor}
	copy(s.Buf[:], v.buf[:])
	v.dirty = false
	return s
}
