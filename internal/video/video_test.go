package video

import "testing"

func TestWriteMarksDirtyAndReadsBack(t *testing.T) {
	v := New()
	v.Write(Base, 0x41)
	if got := v.Read(Base); got != 0x41 {
		t.Fatalf("read back got %#02x want 0x41", got)
	}
	if !v.IsDirty() {
		t.Fatalf("expected dirty after write")
	}
	snap := v.Snapshot()
	if snap.Buf[0] != 0x41 {
		t.Fatalf("snapshot buf[0] got %#02x want 0x41", snap.Buf[0])
	}
	if v.IsDirty() {
		t.Fatalf("expected dirty cleared after snapshot")
	}
}

func TestClearDirtyWithoutSnapshot(t *testing.T) {
	v := New()
	v.Write(Base+1, 0x20)
	v.ClearDirty()
	if v.IsDirty() {
		t.Fatalf("expected dirty cleared")
	}
}

func TestInRange(t *testing.T) {
	if !InRange(Base) || !InRange(End) {
		t.Fatalf("bounds should be in range")
	}
	if InRange(Base - 1) {
		t.Fatalf("byte before Base should not be in range")
	}
	if InRange(End + 1) {
		t.Fatalf("byte after End should not be in range")
	}
}

func TestScrollUp(t *testing.T) {
	v := New()
	v.Write(Base+uint16(Columns), 'A') // row 1, col 0
	v.ScrollUp()
	if got := v.Read(Base); got != 'A' {
		t.Fatalf("row 1 should have scrolled into row 0, got %#02x", got)
	}
	last := Base + uint16((Rows-1)*Columns)
	if got := v.Read(last); got != Blank {
		t.Fatalf("last row should be blanked after scroll, got %#02x", got)
	}
}

func TestSetCursorClamps(t *testing.T) {
	v := New()
	v.SetCursor(-5, 1000)
	c := v.Cursor()
	if c.X != 0 || c.Y != Rows-1 {
		t.Fatalf("cursor not clamped, got %+v", c)
	}
}

func TestClear(t *testing.T) {
	v := New()
	v.Write(Base, 'X')
	v.ClearDirty()
	v.Clear()
	if got := v.Read(Base); got != Blank {
		t.Fatalf("expected blank after Clear, got %#02x", got)
	}
	if !v.IsDirty() {
		t.Fatalf("Clear should mark dirty")
	}
}
