package bootstrap

import (
	"os"
	"path/filepath"

	"github.com/vectra-ai-research/halberd/internal/types"
)

// DirectoryConfig holds the directory layout created under the home
// directory.
type DirectoryConfig struct {
	HomeDir    string
	Dirs       []string
	Permission os.FileMode
}

// DefaultDirectories returns the standard Halberd directory structure:
//
//   - playbooks: playbook files
//   - outputs: per-run execution report folders
//   - exports: playbook export files
//   - logs: application logs
func DefaultDirectories(homeDir string) DirectoryConfig {
	return DirectoryConfig{
		HomeDir: homeDir,
		Dirs: []string{
			"playbooks",
			"outputs",
			"exports",
			"logs",
		},
		Permission: 0o755,
	}
}

// CreateDirectories creates all directories in the config. Existing
// directories are left alone, so repeated runs are safe.
func CreateDirectories(cfg DirectoryConfig) error {
	for _, dir := range cfg.Dirs {
		fullPath := filepath.Join(cfg.HomeDir, dir)
		if err := os.MkdirAll(fullPath, cfg.Permission); err != nil {
			return types.WrapError(types.INIT_DIRS_FAILED,
				"failed to create directory "+fullPath, err)
		}
	}
	return nil
}

// MissingDirectories returns the configured directories that do not
// exist yet.
func MissingDirectories(cfg DirectoryConfig) ([]string, error) {
	var missing []string
	for _, dir := range cfg.Dirs {
		fullPath := filepath.Join(cfg.HomeDir, dir)
		info, err := os.Stat(fullPath)
		if os.IsNotExist(err) {
			missing = append(missing, dir)
			continue
		}
		if err != nil {
			return nil, types.WrapError(types.INIT_DIRS_FAILED,
				"failed to stat directory "+fullPath, err)
		}
		if !info.IsDir() {
			missing = append(missing, dir)
		}
	}
	return missing, nil
}
