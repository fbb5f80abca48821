//go:build !darwin

package config

import (
	"os"
	"path/filepath"
)

// xdgDir returns $<env>/studymatch, falling back to ~/<fallback>/studymatch
// and then to ./studymatch when there is no home directory.
func xdgDir(env, fallback string) string {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "studymatch"
		}
		base = filepath.Join(home, fallback)
	}
	return filepath.Join(base, "studymatch")
}

func defaultDataDir() string {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}
