// Package state centralizes filesystem locations for convmanage: the global
// config file and the profile directory of a browser launched by the CLI.
package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// HomeEnv overrides the default root.
	HomeEnv = "CONVMANAGE_HOME"

	xdgConfigHomeEnv = "XDG_CONFIG_HOME"
	appName          = "convmanage"
)

// RootDir returns the convmanage root.
// Resolution order:
//  1. CONVMANAGE_HOME (if set)
//  2. XDG_CONFIG_HOME/convmanage (if XDG_CONFIG_HOME is set)
//  3. ~/.convmanage
func RootDir() (string, error) {
	if override := strings.TrimSpace(os.Getenv(HomeEnv)); override != "" {
		return normalizePath(override)
	}

	if xdg := strings.TrimSpace(os.Getenv(xdgConfigHomeEnv)); xdg != "" {
		root, err := normalizePath(xdg)
		if err != nil {
			return "", err
		}
		return filepath.Join(root, appName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, "."+appName), nil
}

// GlobalConfigFile returns the user-wide config file path.
func GlobalConfigFile() (string, error) {
	return InRoot("config.yaml")
}

// ProfileDir returns the user-data directory for a browser launched by the
// CLI, so a signed-in chat session survives between runs.
func ProfileDir() (string, error) {
	return InRoot("profile")
}

// InRoot returns a path rooted under RootDir with additional path elements.
func InRoot(parts ...string) (string, error) {
	root, err := RootDir()
	if err != nil {
		return "", err
	}
	all := make([]string, 0, len(parts)+1)
	all = append(all, root)
	all = append(all, parts...)
	return filepath.Join(all...), nil
}

func normalizePath(path string) (string, error) {
	if path == "" {
		return "", errors.New("empty path")
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot resolve path %q: %w", path, err)
	}
	return filepath.Clean(absPath), nil
}
