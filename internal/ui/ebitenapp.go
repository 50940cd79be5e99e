// Package ui is a minimal ebiten front-end for the monitor: it renders
// the video controller's 40x25 character buffer and forwards keystrokes
// to the PIA's keyboard ring buffer. It implements only the two
// interfaces the core specification names in its external-interfaces
// section (video-output, keyboard-input); it is not a general-purpose
// widget toolkit.
package ui

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/sbc65c02/monitor/internal/video"
)

const (
	charW = 7
	charH = 14
)

// Keyboard is the subset of *pia.PIA the UI needs: somewhere to deliver
// keystrokes. Kept narrow so this package doesn't import pia directly.
type Keyboard interface {
	AddKeypress(b byte)
}

// Screen is the subset of *video.Video the UI needs to render a frame.
type Screen interface {
	Snapshot() video.Snapshot
	IsDirty() bool
}

// App is an ebiten.Game that renders Screen and forwards keystrokes to
// Keyboard. Construct with NewApp; run with App.Run.
type App struct {
	cfg   Config
	video Screen
	kb    Keyboard
	frame video.Snapshot
}

// NewApp loads persisted settings (merged with override), applies
// defaults, and sizes the window for the 40x25 character grid.
func NewApp(override Config, screen Screen, kb Keyboard) *App {
	cfg := loadSettings(override)
	cfg.Defaults()
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(video.Columns*charW*cfg.Scale, video.Rows*charH*cfg.Scale)
	return &App{cfg: cfg, video: screen, kb: kb}
}

// Run blocks until the window is closed.
func (a *App) Run() error { return ebiten.RunGame(a) }

// SaveSettings persists the current window configuration to disk.
func (a *App) SaveSettings() { a.saveSettings() }

// Update forwards typed characters and the special keys the firmware
// expects (carriage return, backspace, delete, escape) to the keyboard
// ring buffer, and refreshes the cached frame when the screen is dirty.
func (a *App) Update() error {
	for _, r := range ebiten.AppendInputChars(nil) {
		if r >= 0x20 && r <= 0x7E {
			a.kb.AddKeypress(byte(r))
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		a.kb.AddKeypress(0x0D)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		a.kb.AddKeypress(0x08)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDelete) {
		a.kb.AddKeypress(0x7F)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		a.kb.AddKeypress(0x1B)
	}

	if a.video.IsDirty() {
		a.frame = a.video.Snapshot()
	}
	return nil
}

// Draw renders the cached character grid, one row of debug text per
// screen row. This trades font fidelity for zero asset dependencies; a
// monospaced bitmap font is a natural upgrade but out of scope here.
func (a *App) Draw(screen *ebiten.Image) {
	var row strings.Builder
	for y := 0; y < video.Rows; y++ {
		row.Reset()
		for x := 0; x < video.Columns; x++ {
			b := a.frame.Buf[y*video.Columns+x]
			if b < 0x20 || b > 0x7E {
				b = ' '
			}
			row.WriteByte(b)
		}
		ebitenutil.DebugPrintAt(screen, row.String(), 0, y*charH)
	}
}

// Layout fixes the logical screen size to the character grid in pixels;
// ebiten scales it to the window size set in NewApp.
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return video.Columns * charW, video.Rows * charH
}

func settingsPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		d := filepath.Join(dir, "sbc65c02-monitor")
		_ = os.MkdirAll(d, 0o755)
		return filepath.Join(d, "settings.json")
	}
	exe, _ := os.Executable()
	return filepath.Join(filepath.Dir(exe), "monitor_settings.json")
}

func loadSettings(override Config) Config {
	var cfg Config
	if b, err := os.ReadFile(settingsPath()); err == nil {
		_ = json.Unmarshal(b, &cfg)
	}
	if override.Title != "" {
		cfg.Title = override.Title
	}
	if override.Scale != 0 {
		cfg.Scale = override.Scale
	}
	return cfg
}

func (a *App) saveSettings() {
	b, err := json.MarshalIndent(a.cfg, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(settingsPath(), b, 0o644)
}
