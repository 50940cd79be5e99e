// Package segtable parses the linker-produced segment manifest that tells
// Machine.PowerOn where in the flat address space each piece of the ROM
// image belongs. The manifest format itself is an external build artifact;
// this package only has to make sense of its parsed textual form.
package segtable

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Required segment names. power_on fails if any is missing.
const (
	CODE  = "CODE"
	JUMPS = "JUMPS"
	VECS  = "VECS"
)

// RequiredNames lists the segments Machine.PowerOn refuses to boot without.
var RequiredNames = []string{CODE, JUMPS, VECS}

// Segment is one named, contiguous range of the ROM image, anchored at a
// fixed target address.
type Segment struct {
	Name  string
	Start uint16
	End   uint16
	Size  int
}

// Table is the parsed manifest: an ordered list of segments in the order
// they appear, concatenated with no padding, in the ROM file.
type Table struct {
	Segments []Segment
}

// Find returns the segment named name, or false if absent.
func (t Table) Find(name string) (Segment, bool) {
	for _, s := range t.Segments {
		if s.Name == name {
			return s, true
		}
	}
	return Segment{}, false
}

// Missing returns the subset of RequiredNames not present in the table.
func (t Table) Missing() []string {
	var missing []string
	for _, name := range RequiredNames {
		if _, ok := t.Find(name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Parse reads a line-oriented manifest of the form:
//
//	NAME START END
//
// with addresses in hex, optionally prefixed with "$" or "0x". Blank lines
// and lines starting with "#" are ignored.
func Parse(r io.Reader) (Table, error) {
	var t Table
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 3 {
			return Table{}, fmt.Errorf("segtable: line %d: want 3 fields, got %d", line, len(fields))
		}
		start, err := parseAddr(fields[1])
		if err != nil {
			return Table{}, fmt.Errorf("segtable: line %d: start address: %w", line, err)
		}
		end, err := parseAddr(fields[2])
		if err != nil {
			return Table{}, fmt.Errorf("segtable: line %d: end address: %w", line, err)
		}
		if end < start {
			return Table{}, fmt.Errorf("segtable: line %d: end %#04x before start %#04x", line, end, start)
		}
		t.Segments = append(t.Segments, Segment{
			Name:  fields[0],
			Start: start,
			End:   end,
			Size:  int(end-start) + 1,
		})
	}
	if err := scanner.Err(); err != nil {
		return Table{}, fmt.Errorf("segtable: %w", err)
	}
	return t, nil
}

func parseAddr(s string) (uint16, error) {
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}
