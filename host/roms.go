package host

import (
	"os"
	"path/filepath"
)

// ROMFile names a program file available to load.
type ROMFile struct {
	Name string // base name, shown to the user
	Path string
}

// ListROMs returns the regular files in dir, sorted by name. A missing
// directory yields an empty list, not an error.
func ListROMs(dir string) ([]ROMFile, error) {
	ents, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var roms []ROMFile
	for _, e := range ents {
		if !e.Type().IsRegular() {
			continue
		}
		roms = append(roms, ROMFile{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
		})
	}
	return roms, nil
}
