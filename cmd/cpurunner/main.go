// Command cpurunner drives a firmware ROM against the CPU/memory/video
// stack without the windowed front-end, polling the rendered screen text
// for a pass/fail marker. It is meant for conformance test ROMs (e.g. a
// 6502 functional test suite) that report their result by printing to the
// character grid rather than over a serial port.
package main

import (
	"flag"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/sbc65c02/monitor/internal/cpu"
	"github.com/sbc65c02/monitor/internal/hostio"
	"github.com/sbc65c02/monitor/internal/machine"
)

type traceEntry struct {
	pc             uint16
	op             string
	a, x, y, sp, p byte
	cycles         uint64
}

func main() {
	romPath := flag.String("rom", "", "path to ROM image")
	segtablePath := flag.String("segtable", "", "path to segment manifest")
	steps := flag.Int("steps", 5_000_000, "max CPU steps to run")
	trace := flag.Bool("trace", false, "print PC/opcode/registers each step")
	until := flag.String("until", "PASSED", "stop when the screen contains this substring (case-insensitive); empty to disable")
	auto := flag.Bool("auto", false, "auto-detect PASSED/FAILED on screen and exit 0/1")
	timeout := flag.Duration("timeout", 0, "optional wall-clock timeout (e.g. 30s); 0 disables")
	traceOnFail := flag.Bool("traceOnFail", false, "on -auto failure, print a recent trace window")
	traceWindow := flag.Int("traceWindow", 200, "instructions retained for traceOnFail")
	flag.Parse()

	if *romPath == "" || *segtablePath == "" {
		fmt.Fprintln(os.Stderr, "-rom and -segtable are required")
		os.Exit(2)
	}

	m := machine.New(machine.Config{}, hostio.NewMemoryBackend())
	if err := m.PowerOn(*romPath, *segtablePath); err != nil {
		fmt.Fprintf(os.Stderr, "power on: %v\n", err)
		os.Exit(2)
	}

	failRe := regexp.MustCompile(`(?i)failed`)

	ring := make([]traceEntry, *traceWindow)
	ringIdx, ringFill := 0, 0

	start := time.Now()
	var deadline time.Time
	if *timeout > 0 {
		deadline = start.Add(*timeout)
	}

	for i := 0; i < *steps; i++ {
		if *trace || *traceOnFail {
			pc := m.CPU.PC
			op := m.Memory.Read(pc)
			te := traceEntry{
				pc: pc, op: cpu.Name(op),
				a: m.CPU.A, x: m.CPU.X, y: m.CPU.Y, sp: m.CPU.SP, p: m.CPU.P,
				cycles: m.CPU.Cycles,
			}
			if *trace {
				fmt.Printf("PC=%04X OP=%-4s A=%02X X=%02X Y=%02X SP=%02X P=%02X cyc=%d\n",
					te.pc, te.op, te.a, te.x, te.y, te.sp, te.p, te.cycles)
			}
			if *traceOnFail && *traceWindow > 0 {
				ring[ringIdx] = te
				ringIdx = (ringIdx + 1) % *traceWindow
				if ringFill < *traceWindow {
					ringFill++
				}
			}
		}

		if err := m.CPU.Step(); err != nil {
			fmt.Fprintf(os.Stderr, "\nstopped: %v\n", err)
			dumpTrace(*traceOnFail, ring, ringIdx, ringFill, *traceWindow)
			os.Exit(1)
		}
		m.CPU.IRQ()
		m.PIA.ProcessFileOperations()

		screen := screenText(m)
		if *auto {
			if strings.Contains(strings.ToUpper(screen), "PASSED") {
				fmt.Printf("\nDetected PASSED on screen.\nDone: steps=%d elapsed=%s\n", i+1, time.Since(start).Truncate(time.Millisecond))
				os.Exit(0)
			}
			if failRe.MatchString(screen) {
				fmt.Printf("\nDetected failure marker on screen.\n")
				dumpTrace(*traceOnFail, ring, ringIdx, ringFill, *traceWindow)
				fmt.Printf("Done: steps=%d elapsed=%s\n", i+1, time.Since(start).Truncate(time.Millisecond))
				os.Exit(1)
			}
		} else if *until != "" {
			if strings.Contains(strings.ToUpper(screen), strings.ToUpper(*until)) {
				fmt.Printf("\nDetected %q on screen.\nDone: steps=%d elapsed=%s\n", *until, i+1, time.Since(start).Truncate(time.Millisecond))
				return
			}
		}

		if !deadline.IsZero() && time.Now().After(deadline) {
			fmt.Printf("\nTimeout after %s.\n", time.Since(start).Truncate(time.Millisecond))
			os.Exit(2)
		}
	}
	fmt.Printf("\nDone: steps=%d elapsed=%s\n", *steps, time.Since(start).Truncate(time.Millisecond))
}

func screenText(m *machine.Machine) string {
	snap := m.Video.Snapshot()
	var b strings.Builder
	for _, c := range snap.Buf {
		if c < 0x20 || c > 0x7E {
			c = ' '
		}
		b.WriteByte(c)
	}
	return b.String()
}

func dumpTrace(enabled bool, ring []traceEntry, idx, fill, window int) {
	if !enabled || fill == 0 {
		return
	}
	fmt.Printf("\n--- recent trace (last %d instructions) ---\n", fill)
	startIdx := (idx - fill + window) % window
	for j := 0; j < fill; j++ {
		te := ring[(startIdx+j)%window]
		fmt.Printf("PC=%04X OP=%-4s A=%02X X=%02X Y=%02X SP=%02X P=%02X cyc=%d\n",
			te.pc, te.op, te.a, te.x, te.y, te.sp, te.p, te.cycles)
	}
	fmt.Printf("--- end trace ---\n")
}
