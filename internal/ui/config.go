package ui

// Config contains window settings for the monitor's
// windowed front-end. Persisted as JSON between runs, matching the
// reference emulator's settings file.
type Config struct {
	Title string // window title
	Scale int    // integer upscaling factor applied to the 40x25 character grid
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.Title == "" {
		c.Title = "monitor"
	}
	if c.Scale <= 0 {
		c.Scale = 2
	}
}
