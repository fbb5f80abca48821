//go:build darwin

package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

const defaultsDomain = "com.studymatch.app"

func defaultDataDir() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, "Library", "Application Support", "studymatch")
	}
	return "studymatch-data"
}

// userDefaults stores settings in the macOS defaults database through the
// defaults(1) tool.
type userDefaults struct {
	domain string
}

func newPlatformBackend() Backend {
	return userDefaults{domain: defaultsDomain}
}

// run invokes defaults with the domain inserted after the verb. Exit status 1
// means the key does not exist and is reported as missing=true.
func (u userDefaults) run(verb string, args ...string) (out string, missing bool, err error) {
	argv := append([]string{verb, u.domain}, args...)
	raw, err := exec.Command("defaults", argv...).CombinedOutput()
	out = strings.TrimSpace(string(raw))
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 && verb != "write" {
			return "", true, nil
		}
		return "", false, fmt.Errorf("defaults %s %s: %w: %s", verb, strings.Join(args, " "), err, out)
	}
	return out, false, nil
}

func (u userDefaults) Lookup(key string) (string, bool, error) {
	out, missing, err := u.run("read", key)
	if err != nil || missing {
		return "", false, err
	}
	return out, true, nil
}

func (u userDefaults) Store(key string, value any) error {
	var flag, text string
	switch v := value.(type) {
	case int:
		flag, text = "-int", strconv.Itoa(v)
	case bool:
		// defaults reads booleans back as 1 or 0, which ParseBool accepts.
		flag, text = "-bool", strconv.FormatBool(v)
	case float64:
		flag, text = "-float", strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		flag, text = "-string", v
	default:
		return fmt.Errorf("cannot store %T for %s", value, key)
	}
	_, _, err := u.run("write", key, flag, text)
	return err
}

func (u userDefaults) Remove(key string) error {
	_, _, err := u.run("delete", key)
	return err
}
