package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	appDirName    = "remember"
	dbFileName    = "remember.db"
	inMemoryDBDSN = ":memory:"
)

// GetDefaultDataDir returns the per-user directory holding the database and logs.
func GetDefaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(homeDir, "AppData", "Roaming", appDirName)
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", appDirName)
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, appDirName)
		}
		return filepath.Join(homeDir, ".local", "share", appDirName)
	}
}

// GetDefaultDBPathOnly returns the default database file without creating anything.
func GetDefaultDBPathOnly() string {
	return filepath.Join(GetDefaultDataDir(), dbFileName)
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory to expand path '%s': %w", path, err)
	}
	return filepath.Join(homeDir, path[2:]), nil
}

// ResolveAndEnsureDBPath turns providedPath (or the default when empty) into an absolute
// path and creates its parent directory. ":memory:" is returned unchanged.
func ResolveAndEnsureDBPath(providedPath string) (string, error) {
	if providedPath == inMemoryDBDSN {
		return providedPath, nil
	}

	targetPath := providedPath
	if targetPath == "" {
		targetPath = GetDefaultDBPathOnly()
	}

	targetPath, err := ExpandHome(targetPath)
	if err != nil {
		return "", err
	}

	absPath, err := filepath.Abs(targetPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for '%s': %w", targetPath, err)
	}

	if err := EnsureDir(filepath.Dir(absPath)); err != nil {
		return "", fmt.Errorf("failed to prepare directory for database: %w", err)
	}
	return absPath, nil
}

// EnsureDir creates dir with 0755 permissions when it does not exist.
func EnsureDir(dir string) error {
	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory '%s': %w", dir, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to stat directory '%s': %w", dir, err)
	case !info.IsDir():
		return fmt.Errorf("'%s' exists and is not a directory", dir)
	}
	return nil
}
