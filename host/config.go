package host

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"
)

// Config holds the user-tunable host settings. It is persisted as JSON;
// see LoadConfig and Save.
type Config struct {
	ClockHz    int     `json:"clock_hz"`  // instructions per second
	Volume     float64 `json:"volume"`    // beep amplitude, 0 to 1
	FadeTime   float64 `json:"fade_time"` // seconds for a lit pixel to fade out
	FrontColor RGB     `json:"front_color"`
	BackColor  RGB     `json:"back_color"`
}

// RGB is a JSON-friendly opaque color.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

func (c RGB) color() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

// DefaultConfig returns the settings used when no config file exists:
// a 500Hz clock and white-on-green phosphor.
func DefaultConfig() Config {
	return Config{
		ClockHz:    500,
		Volume:     0.8,
		FadeTime:   0.2,
		FrontColor: RGB{0xff, 0xff, 0xff},
		BackColor:  RGB{0x1a, 0x66, 0x1a},
	}
}

// DefaultConfigPath returns the per-user location of the config file.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "c8", "config.json"), nil
}

// LoadConfig reads the config file at path. A missing file is not an
// error: the defaults are returned. Out-of-range values are clamped, so
// the returned Config is always usable even when err is non-nil.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parsing %s: %v", path, err)
	}
	cfg.clamp()
	return cfg, nil
}

// Save writes c to path as JSON, creating parent directories as needed.
func (c Config) Save(path string) error {
	b, err := json.MarshalIndent(c, "", "\t")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o777); err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o666)
}

func (c *Config) clamp() {
	if c.ClockHz < 60 {
		c.ClockHz = 60
	}
	if c.ClockHz > 1000 {
		c.ClockHz = 1000
	}
	if c.Volume < 0 {
		c.Volume = 0
	}
	if c.Volume > 1 {
		c.Volume = 1
	}
	if c.FadeTime < 0 {
		c.FadeTime = 0
	}
}
