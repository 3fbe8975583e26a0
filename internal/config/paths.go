package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "FetchName"

// GetAppDir returns the per-user config root based on OS conventions.
func GetAppDir() string {
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		return filepath.Join(appData, appName)
	case "darwin": //MacOS
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", appName)
	default: //Linux
		configHome := os.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			home, _ := os.UserHomeDir()
			configHome = filepath.Join(home, ".config")
		}
		return filepath.Join(configHome, appName)
	}
}

// GetDefaultDownloadDir returns the directory downloads land in when neither
// the settings file nor the command line names one.
// Linux honours $XDG_DOWNLOAD_DIR; everything else uses ~/Downloads.
func GetDefaultDownloadDir() string {
	if runtime.GOOS != "windows" && runtime.GOOS != "darwin" {
		if dir := os.Getenv("XDG_DOWNLOAD_DIR"); dir != "" {
			return dir
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Downloads")
}

// GetSettingsPath returns the location of the YAML settings file.
func GetSettingsPath() string {
	return filepath.Join(GetAppDir(), "settings.yaml")
}

// GetLogsDir returns the directory for logs.
func GetLogsDir() string {
	return filepath.Join(GetAppDir(), "logs")
}

// EnsureDirs creates all required directories.
func EnsureDirs() error {
	dirs := []string{GetAppDir(), GetLogsDir()}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
