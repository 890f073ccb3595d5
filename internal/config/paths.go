package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExecutableDir returns the directory where the current executable resides.
func ExecutableDir() string {
	exe, err := os.Executable()
	if err == nil && strings.TrimSpace(exe) != "" {
		if resolved, resolveErr := filepath.EvalSymlinks(exe); resolveErr == nil && strings.TrimSpace(resolved) != "" {
			exe = resolved
		}
		return filepath.Dir(exe)
	}

	if wd, wdErr := os.Getwd(); wdErr == nil && strings.TrimSpace(wd) != "" {
		return wd
	}
	return "."
}

// ResolveRuntimePath resolves runtime directories against the executable directory.
func ResolveRuntimePath(raw string, fallbackSubdir string) string {
	target := strings.TrimSpace(raw)
	if target == "" {
		target = strings.TrimSpace(fallbackSubdir)
		if target == "" {
			return ExecutableDir()
		}
	}
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	return filepath.Clean(filepath.Join(ExecutableDir(), target))
}

// CacheDir returns the sitemap chunk cache directory.
func (c *AppConfig) CacheDir() string {
	return ResolveRuntimePath(c.Paths.Cache, "cache")
}

// StaticDir returns the local object store root directory.
func (c *AppConfig) StaticDir() string {
	return ResolveRuntimePath(c.Paths.Static, "static")
}

// BackupsDir returns the directory for exported backup artifacts.
func (c *AppConfig) BackupsDir() string {
	return ResolveRuntimePath(c.Paths.Backups, "backups")
}
