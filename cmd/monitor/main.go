// Command monitor runs the 6502/65C02 microcomputer emulator: a guest
// firmware ROM plus its segment manifest, either headless (for
// conformance/regression testing) or in a small ebiten window.
package main

import (
	"flag"
	"fmt"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sbc65c02/monitor/internal/hostio"
	"github.com/sbc65c02/monitor/internal/machine"
	"github.com/sbc65c02/monitor/internal/ui"
	"github.com/sbc65c02/monitor/internal/video"
)

type cliFlags struct {
	ROMPath      string
	SegtablePath string
	FileDir      string
	Title        string
	Scale        int
	Trace        bool
	Pace         bool
	FrequencyHz  int64

	Headless bool
	Steps    int
	PNGOut   string
	Expect   string
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.ROMPath, "rom", "", "path to the firmware ROM image")
	flag.StringVar(&f.SegtablePath, "segtable", "", "path to the segment manifest")
	flag.StringVar(&f.FileDir, "filedir", ".", "host directory for guest file load/save")
	flag.StringVar(&f.Title, "title", "monitor", "window title")
	flag.IntVar(&f.Scale, "scale", 2, "window scale")
	flag.BoolVar(&f.Trace, "trace", false, "enable debug-level logging")
	flag.BoolVar(&f.Pace, "pace", false, "throttle CPU cycles to -hz")
	flag.Int64Var(&f.FrequencyHz, "hz", 1_000_000, "target cycle frequency when -pace is set")

	flag.BoolVar(&f.Headless, "headless", false, "run without a window")
	flag.IntVar(&f.Steps, "steps", 1_000_000, "CPU steps to run in headless mode")
	flag.StringVar(&f.PNGOut, "outpng", "", "write the final screen buffer to PNG at path")
	flag.StringVar(&f.Expect, "expect", "", "assert screen buffer CRC32 (hex)")
	flag.Parse()
	return f
}

func main() {
	log := logrus.New()
	f := parseFlags()

	if f.ROMPath == "" || f.SegtablePath == "" {
		log.Fatal("both -rom and -segtable are required")
	}
	if f.Trace {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg := machine.Config{
		Trace:       f.Trace,
		PaceCycles:  f.Pace,
		FrequencyHz: f.FrequencyHz,
	}
	m := machine.New(cfg, hostio.NewLocalDir(f.FileDir))
	if err := m.PowerOn(f.ROMPath, f.SegtablePath); err != nil {
		log.Fatalf("power on: %v", err)
	}
	log.WithFields(logrus.Fields{"rom": f.ROMPath, "segtable": f.SegtablePath}).Info("powered on")

	if f.Headless {
		if err := runHeadless(log, m, f.Steps, f.PNGOut, f.Expect); err != nil {
			log.Fatal(err)
		}
		return
	}

	app := ui.NewApp(ui.Config{Title: f.Title, Scale: f.Scale}, m.Video, m.PIA)
	go runLoop(log, m)
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
	app.SaveSettings()
}

// runLoop drives the Machine continuously in the background while the
// windowed UI handles rendering and input on ebiten's own goroutine.
func runLoop(log *logrus.Logger, m *machine.Machine) {
	for {
		if err := m.Run(10_000); err != nil {
			log.WithError(err).Warn("run loop stopped")
			return
		}
	}
}

func runHeadless(log *logrus.Logger, m *machine.Machine, steps int, pngPath, expectCRC string) error {
	start := time.Now()
	err := m.Run(steps)
	elapsed := time.Since(start)
	if err != nil {
		log.WithError(err).Warn("run stopped early")
	}

	snap := m.Video.Snapshot()
	crc := crc32.ChecksumIEEE(snap.Buf[:])
	log.WithFields(logrus.Fields{
		"steps":   steps,
		"elapsed": elapsed.Truncate(time.Millisecond),
		"crc32":   fmt.Sprintf("%08x", crc),
	}).Info("headless run complete")

	if pngPath != "" {
		if err := writeScreenPNG(snap, pngPath); err != nil {
			return fmt.Errorf("write PNG: %w", err)
		}
		log.Infof("wrote %s", pngPath)
	}

	if expectCRC != "" {
		want := strings.TrimPrefix(strings.ToLower(expectCRC), "0x")
		got := fmt.Sprintf("%08x", crc)
		if got != want {
			return fmt.Errorf("screen checksum mismatch: got %s want %s", got, want)
		}
	}
	return nil
}

// writeScreenPNG renders the character grid as a coarse one-pixel-per-cell
// grayscale image, good enough for CRC32-based regression testing without
// a bitmap font dependency in the headless path.
func writeScreenPNG(snap video.Snapshot, path string) error {
	img := image.NewGray(image.Rect(0, 0, video.Columns, video.Rows))
	for y := 0; y < video.Rows; y++ {
		for x := 0; x < video.Columns; x++ {
			img.SetGray(x, y, color.Gray{Y: snap.Buf[y*video.Columns+x]})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
