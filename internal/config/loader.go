package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".deadlinks"

// ErrConfigNotFound is returned when the configuration file does not
// exist. Callers decide whether that is fatal: it is when the path was
// given explicitly, and silently ignored otherwise.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadFile loads site configurations from a YAML file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	if f.Sites == nil {
		f.Sites = make(map[string]SiteConfig)
	}

	return &f, nil
}

// FindConfigFile searches for the configuration file:
//  1. the explicit path, when given
//  2. .deadlinks in the current directory
//  3. config in the XDG config directory (~/.config/deadlinks)
//  4. .deadlinks in the user's home directory
//
// Returns the path found, or empty string when there is none.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		candidate := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	xdgCandidate := filepath.Join(XDGConfigDir(), "config")
	if _, err := os.Stat(xdgCandidate); err == nil {
		return xdgCandidate
	}

	if home, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}
