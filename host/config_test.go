package host

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope", "config.json"))
	if err != nil {
		t.Fatalf("missing config file should not error: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("got %+v, want defaults", cfg)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	want := Config{
		ClockHz:    700,
		Volume:     0.5,
		FadeTime:   0.1,
		FrontColor: RGB{1, 2, 3},
		BackColor:  RGB{4, 5, 6},
	}
	if err := want.Save(path); err != nil {
		t.Fatal(err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestLoadConfigClamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(path, []byte(
		`{"clock_hz": 9999, "volume": 7, "fade_time": -1}`), 0o666)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ClockHz != 1000 || cfg.Volume != 1 || cfg.FadeTime != 0 {
		t.Errorf("out of range values not clamped: %+v", cfg)
	}
}

func TestLoadConfigCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{oops"), 0o666); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err == nil {
		t.Error("corrupt config file did not report an error")
	}
	if cfg != DefaultConfig() {
		t.Errorf("corrupt config returned %+v, want defaults", cfg)
	}
}

func TestListROMs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"pong.ch8", "brix.ch8"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte{0}, 0o666); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0o777); err != nil {
		t.Fatal(err)
	}

	roms, err := ListROMs(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(roms) != 2 || roms[0].Name != "brix.ch8" || roms[1].Name != "pong.ch8" {
		t.Errorf("got %v, want brix.ch8 and pong.ch8", roms)
	}

	roms, err = ListROMs(filepath.Join(dir, "nope"))
	if err != nil || roms != nil {
		t.Errorf("missing dir: got %v, %v, want empty list", roms, err)
	}
}
