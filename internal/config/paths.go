// Package config provides configuration management for sift.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-application XDG directories.
const AppName = "sift"

// Paths holds all the path configurations for sift.
type Paths struct {
	// ConfigDir is the directory for configuration files (~/.config/sift)
	ConfigDir string

	// DataDir is the directory for durable data such as the history ledger (~/.local/share/sift)
	DataDir string

	// CacheDir is the directory for source cache files (~/.cache/sift)
	CacheDir string

	// RuntimeDir is the directory for runtime files like the instance lock
	RuntimeDir string
}

// DefaultPaths returns the default paths following the XDG base directories.
// On Windows, it uses %APPDATA% instead.
func DefaultPaths() *Paths {
	home := homeDir()

	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			localAppData = filepath.Join(home, "AppData", "Local")
		}

		return &Paths{
			ConfigDir:  filepath.Join(appData, AppName),
			DataDir:    filepath.Join(localAppData, AppName),
			CacheDir:   filepath.Join(localAppData, AppName, "cache"),
			RuntimeDir: filepath.Join(localAppData, AppName, "run"),
		}
	}

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		configHome = filepath.Join(home, ".config")
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = filepath.Join(home, ".local", "share")
	}

	cacheHome := os.Getenv("XDG_CACHE_HOME")
	if cacheHome == "" {
		cacheHome = filepath.Join(home, ".cache")
	}

	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		runtimeDir = filepath.Join(cacheHome, AppName, "run")
	} else {
		runtimeDir = filepath.Join(runtimeDir, AppName)
	}

	return &Paths{
		ConfigDir:  filepath.Join(configHome, AppName),
		DataDir:    filepath.Join(dataHome, AppName),
		CacheDir:   filepath.Join(cacheHome, AppName),
		RuntimeDir: runtimeDir,
	}
}

// ConfigFile returns the path to the main configuration file.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.ConfigDir, "config.yaml")
}

// HistoryFile returns the path to the SQLite history ledger.
func (p *Paths) HistoryFile() string {
	return filepath.Join(p.DataDir, "history.db")
}

// LockFile returns the path to the interactive session lock.
func (p *Paths) LockFile() string {
	return filepath.Join(p.RuntimeDir, "sift.lock")
}

// LogDir returns the path to the log directory.
func (p *Paths) LogDir() string {
	return filepath.Join(p.DataDir, "logs")
}

// LogFile returns the path to the log file.
func (p *Paths) LogFile() string {
	return filepath.Join(p.LogDir(), "sift.log")
}

// EnsureDirectories creates all necessary directories.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{
		p.ConfigDir,
		p.DataDir,
		p.CacheDir,
		p.RuntimeDir,
		p.LogDir(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	return nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		if runtime.GOOS == "windows" {
			return os.Getenv("USERPROFILE")
		}
		return os.Getenv("HOME")
	}
	return home
}
