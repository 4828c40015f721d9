// config/username.go
// Copyright(c) 2024-2026 flightstream contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// ConfigError reports a failure to read or write the username file.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

var ErrInvalidUsername = errors.New("Username must be a single non-empty line")

// UsernameFile is the text file holding the user's SimBrief username.
type UsernameFile struct {
	Path string
}

func NewUsernameFile(path string) UsernameFile {
	return UsernameFile{Path: path}
}

func (u UsernameFile) lockPath() string {
	return u.Path + ".lock"
}

// Load returns the first line of the file with surrounding whitespace
// removed. Errors are returned as *ConfigError.
func (u UsernameFile) Load() (string, error) {
	// Best effort: a missing or read-only plugin directory shouldn't stop
	// us from reading the file if it's there.
	fl := flock.New(u.lockPath())
	if err := fl.RLock(); err == nil {
		defer fl.Unlock()
	}

	b, err := os.ReadFile(u.Path)
	if err != nil {
		return "", &ConfigError{Path: u.Path, Err: err}
	}

	s := strings.TrimSpace(string(b))
	if line, _, ok := strings.Cut(s, "\n"); ok {
		s = strings.TrimSpace(line)
	}
	return s, nil
}

// Save replaces the file's contents with username.
func (u UsernameFile) Save(username string) error {
	username = strings.TrimSpace(username)
	if username == "" || strings.ContainsAny(username, "\r\n") {
		return &ConfigError{Path: u.Path, Err: ErrInvalidUsername}
	}

	if err := os.MkdirAll(filepath.Dir(u.Path), 0o755); err != nil {
		return &ConfigError{Path: u.Path, Err: err}
	}

	fl := flock.New(u.lockPath())
	if err := fl.Lock(); err != nil {
		return &ConfigError{Path: u.Path, Err: fmt.Errorf("lock: %w", err)}
	}
	defer fl.Unlock()

	if err := os.WriteFile(u.Path, []byte(username+"\n"), 0o644); err != nil {
		return &ConfigError{Path: u.Path, Err: err}
	}
	return nil
}
