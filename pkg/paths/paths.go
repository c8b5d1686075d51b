package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// ConfigDir returns the config directory for Deckhand.
// Order: XDG_CONFIG_HOME/deckhand, platform-specific fallback.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "deckhand")
	}
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("AppData"); appData != "" {
			return filepath.Join(appData, "Deckhand")
		}
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "deckhand")
}

// DataDir returns the data directory for Deckhand.
// Order: XDG_DATA_HOME/deckhand, platform-specific fallback.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "deckhand")
	}
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("AppData"); appData != "" {
			return filepath.Join(appData, "Deckhand")
		}
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "deckhand")
}

// CacheDir returns the cache directory for Deckhand.
// Order: XDG_CACHE_HOME/deckhand, platform-specific fallback.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "deckhand")
	}
	if runtime.GOOS == "windows" {
		if localAppData := os.Getenv("LocalAppData"); localAppData != "" {
			return filepath.Join(localAppData, "Deckhand", "Cache")
		}
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "deckhand")
}
