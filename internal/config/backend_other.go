//go:build !darwin

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// jsonFile keeps settings as a flat, typed JSON object at
// $XDG_CONFIG_HOME/studymatch/config.json.
type jsonFile struct {
	path   string
	values map[string]any
}

func newPlatformBackend() Backend {
	f := &jsonFile{path: filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), "config.json")}
	f.values = f.read()
	return f
}

// read returns the file's settings, or none when it is missing or corrupt.
func (f *jsonFile) read() map[string]any {
	values := make(map[string]any)
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return values
	}
	if err == nil {
		err = json.Unmarshal(data, &values)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] ignoring config file %s: %v\n", f.path, err)
		return make(map[string]any)
	}
	return values
}

func (f *jsonFile) write() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := json.MarshalIndent(f.values, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0o600)
}

func (f *jsonFile) Lookup(key string) (string, bool, error) {
	v, ok := f.values[key]
	if !ok {
		return "", false, nil
	}
	switch val := v.(type) {
	case string:
		return val, true, nil
	case float64:
		// JSON numbers decode as float64; 4300 prints back as "4300".
		return strconv.FormatFloat(val, 'f', -1, 64), true, nil
	case bool:
		return strconv.FormatBool(val), true, nil
	default:
		return "", true, fmt.Errorf("%s holds a %T, want a string, number or bool", key, v)
	}
}

func (f *jsonFile) Store(key string, value any) error {
	f.values[key] = value
	return f.write()
}

func (f *jsonFile) Remove(key string) error {
	if _, ok := f.values[key]; !ok {
		return nil
	}
	delete(f.values, key)
	return f.write()
}
