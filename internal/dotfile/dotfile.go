// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dotfile locates and writes the .zoterosync configuration file.
// The file holds one KEY=value pair per line; the keys are the same names
// as the environment variables the CLI reads.
package dotfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Name is the base name of the configuration file.
const Name = ".zoterosync"

// ErrConfigMissing is returned when a required setting has no value.
var ErrConfigMissing = errors.New("missing configuration")

// Setting pairs a command-line flag with the environment variable and
// dotfile key that can provide the same value.
type Setting struct {
	Flag string
	Env  string
}

// Key is the lower-cased environment name, as viper stores it.
func (s Setting) Key() string {
	return strings.ToLower(s.Env)
}

var (
	FileDir = Setting{Flag: "file_dir", Env: "ZOTFILE_DIR"}
	APIKey  = Setting{Flag: "api_key", Env: "API_KEY"}
	UserID  = Setting{Flag: "user_id", Env: "USER_ID"}
)

// Settings lists every value the dotfile can carry.
var Settings = []Setting{FileDir, APIKey, UserID}

// Require returns ErrConfigMissing, naming where s can be provided, when
// value is empty.
func Require(s Setting, value string) error {
	if strings.TrimSpace(value) != "" {
		return nil
	}
	return fmt.Errorf("%w: --%s can be provided as an option, as the %s environment variable, or in a %s file",
		ErrConfigMissing, s.Flag, s.Env, Name)
}

// Find looks for Name in start and each of its parents, then in home. It
// returns the first match, or "" when there is none.
func Find(start, home string) string {
	if start != "" {
		dir, err := filepath.Abs(start)
		if err == nil {
			for {
				if p := filepath.Join(dir, Name); isFile(p) {
					return p
				}
				parent := filepath.Dir(dir)
				if parent == dir {
					break
				}
				dir = parent
			}
		}
	}
	if home != "" {
		if p := filepath.Join(home, Name); isFile(p) {
			return p
		}
	}
	return ""
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Write replaces path with values as sorted KEY=value lines. Empty values
// are omitted. The file is readable only by its owner since it holds the
// API key.
func Write(path string, values map[string]string) error {
	keys := make([]string, 0, len(values))
	for k, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if strings.ContainsAny(k+v, "\n\r") {
			return fmt.Errorf("value for %s spans multiple lines", k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, strings.TrimSpace(values[k]))
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("restricting %s: %w", path, err)
	}
	return nil
}
