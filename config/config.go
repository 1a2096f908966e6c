// Copyright (c) 2026 The CloudSeal developers
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package config loads and saves the CloudSeal configuration file.
//
// The format is one "key = value" pair per line. Blank lines and lines
// starting with '#' are ignored, as are unknown keys, so config files
// written by newer versions still load.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all CloudSeal settings. Path fields left empty are
// derived from DataDir.
type Config struct {
	// DataDir is the root of all local state.
	DataDir string

	// DatabaseFile is the record database path.
	DatabaseFile string

	// ChainFile is the fallback chain file path.
	ChainFile string

	// BlobDir holds encrypted file content.
	BlobDir string

	// LockDir holds advisory lock files.
	LockDir string

	// LockName overrides the bootstrap lock name. Empty selects the
	// built-in default.
	LockName string

	// LockWaitSecs bounds how long bootstrap waits for the lock.
	LockWaitSecs int

	// GraceSecs is the wait before proceeding without the lock.
	GraceSecs int

	LogLevel string
	LogFile  string
}

// DefaultDataDir returns the per-user CloudSeal state directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".cloudseal")
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		DataDir:      DefaultDataDir(),
		LockWaitSecs: 10,
		GraceSecs:    2,
		LogLevel:     "info",
	}
}

// ConfigPath returns the config file path inside a data directory.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config")
}

// DatabasePath returns the record database path, derived from DataDir
// when not set explicitly.
func (c Config) DatabasePath() string {
	if c.DatabaseFile != "" {
		return c.DatabaseFile
	}
	return filepath.Join(c.DataDir, "cloudseal.db")
}

// ChainFilePath returns the fallback chain file path.
func (c Config) ChainFilePath() string {
	if c.ChainFile != "" {
		return c.ChainFile
	}
	return filepath.Join(c.DataDir, "blockchain", "chain.json")
}

// BlobDirPath returns the encrypted content directory.
func (c Config) BlobDirPath() string {
	if c.BlobDir != "" {
		return c.BlobDir
	}
	return filepath.Join(c.DataDir, "blobs")
}

// LockDirPath returns the advisory lock directory.
func (c Config) LockDirPath() string {
	if c.LockDir != "" {
		return c.LockDir
	}
	return filepath.Join(c.DataDir, "locks")
}

// LockWait returns LockWaitSecs as a duration.
func (c Config) LockWait() time.Duration {
	return time.Duration(c.LockWaitSecs) * time.Second
}

// Grace returns GraceSecs as a duration.
func (c Config) Grace() time.Duration {
	return time.Duration(c.GraceSecs) * time.Second
}

// LoadConfig reads the config file at path. Fields not present in the
// file keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, err := parseKeyValue(line)
		if err != nil {
			return cfg, err
		}

		switch key {
		case "datadir":
			cfg.DataDir = value
		case "database":
			cfg.DatabaseFile = value
		case "chainfile":
			cfg.ChainFile = value
		case "blobdir":
			cfg.BlobDir = value
		case "lockdir":
			cfg.LockDir = value
		case "lockname":
			cfg.LockName = value
		case "lockwait":
			n, err := strconv.Atoi(value)
			if err != nil {
				return cfg, fmt.Errorf("%w: %q", ErrInvalidConfigLine, line)
			}
			cfg.LockWaitSecs = n
		case "grace":
			n, err := strconv.Atoi(value)
			if err != nil {
				return cfg, fmt.Errorf("%w: %q", ErrInvalidConfigLine, line)
			}
			cfg.GraceSecs = n
		case "loglevel":
			cfg.LogLevel = value
		case "logfile":
			cfg.LogFile = value
		default:
			// Unknown keys are ignored for forward compatibility.
		}
	}
	if err := scanner.Err(); err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	return cfg, nil
}

// parseKeyValue splits a "key = value" line on the first '='.
func parseKeyValue(line string) (string, string, error) {
	parts := strings.SplitN(line, "=", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidConfigLine, line)
	}
	key := strings.ToLower(strings.TrimSpace(parts[0]))
	value := strings.TrimSpace(parts[1])
	if key == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidConfigLine, line)
	}
	return key, value, nil
}

// SaveConfig writes cfg to path, creating parent directories as needed.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("# CloudSeal Configuration\n")
	b.WriteString("# Lines starting with '#' are comments. Unknown keys are ignored.\n\n")
	fmt.Fprintf(&b, "datadir = %s\n", cfg.DataDir)
	fmt.Fprintf(&b, "database = %s\n", cfg.DatabaseFile)
	fmt.Fprintf(&b, "chainfile = %s\n", cfg.ChainFile)
	fmt.Fprintf(&b, "blobdir = %s\n", cfg.BlobDir)
	fmt.Fprintf(&b, "lockdir = %s\n", cfg.LockDir)
	fmt.Fprintf(&b, "lockname = %s\n", cfg.LockName)
	fmt.Fprintf(&b, "lockwait = %d\n", cfg.LockWaitSecs)
	fmt.Fprintf(&b, "grace = %d\n", cfg.GraceSecs)
	fmt.Fprintf(&b, "loglevel = %s\n", cfg.LogLevel)
	fmt.Fprintf(&b, "logfile = %s\n", cfg.LogFile)

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
