// ABOUTME: Standard filesystem paths for chatstream configuration and transcripts
// ABOUTME: Resolves ~/.chatstream/ for global and .chatstream/ for project-local paths

package config

import (
	"os"
	"path/filepath"
)

const (
	globalDirName  = ".chatstream"
	projectDirName = ".chatstream"
	configFileName = "config.yaml"
)

// GlobalDir returns the user-global config directory (~/.chatstream/).
func GlobalDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", globalDirName)
	}
	return filepath.Join(home, globalDirName)
}

// ProjectDir returns the project-local config directory (.chatstream/ in root).
func ProjectDir(projectRoot string) string {
	return filepath.Join(projectRoot, projectDirName)
}

// GlobalConfigFile returns the path to the global config file.
func GlobalConfigFile() string {
	return filepath.Join(GlobalDir(), configFileName)
}

// ProjectConfigFile returns the path to the project-local config file.
func ProjectConfigFile(projectRoot string) string {
	return filepath.Join(ProjectDir(projectRoot), configFileName)
}

// TranscriptsDir returns where recorded SSE transcripts are kept.
func TranscriptsDir() string {
	return filepath.Join(GlobalDir(), "transcripts")
}

// EnsureDir creates a directory and all parents if they don't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o700)
}
