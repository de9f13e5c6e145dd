package stage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStage stores raw uploaded files under a base directory, keyed by
// a logical stage name. Put mirrors a PUT-with-overwrite upload: the
// payload is spooled to a transient local copy first, and the spool
// file is removed on every exit path.
type LocalStage struct {
	name     string
	baseDir  string
	spoolDir string
}

func NewLocalStage(name, baseDir, spoolDir string) *LocalStage {
	return &LocalStage{name: name, baseDir: baseDir, spoolDir: spoolDir}
}

// Name returns the logical stage location name.
func (s *LocalStage) Name() string {
	return s.name
}

// Put uploads data under fileName and returns the stage URL for the
// stored object. Without overwrite, an existing object is an error.
func (s *LocalStage) Put(fileName string, data []byte, overwrite bool) (string, error) {
	safe := SafeName(fileName)
	if safe == "" {
		return "", fmt.Errorf("invalid file name %q", fileName)
	}

	if err := os.MkdirAll(s.spoolDir, 0o755); err != nil {
		return "", fmt.Errorf("create spool dir failed: %w", err)
	}
	spoolPath := filepath.Join(s.spoolDir, safe)
	if err := os.WriteFile(spoolPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write spool file failed: %w", err)
	}
	defer os.Remove(spoolPath)

	destDir := filepath.Join(s.baseDir, s.name)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create stage dir failed: %w", err)
	}
	destPath := filepath.Join(destDir, safe)
	if !overwrite {
		if _, err := os.Stat(destPath); err == nil {
			return "", fmt.Errorf("object %q already exists in stage %s", safe, s.name)
		}
	}

	spooled, err := os.ReadFile(spoolPath)
	if err != nil {
		return "", fmt.Errorf("read spool file failed: %w", err)
	}
	if err := os.WriteFile(destPath, spooled, 0o644); err != nil {
		return "", fmt.Errorf("write stage object failed: %w", err)
	}
	return s.URL(fileName), nil
}

// Get reads a previously staged object back by its logical file name.
func (s *LocalStage) Get(fileName string) ([]byte, error) {
	safe := SafeName(fileName)
	data, err := os.ReadFile(filepath.Join(s.baseDir, s.name, safe))
	if err != nil {
		return nil, fmt.Errorf("read stage object failed: %w", err)
	}
	return data, nil
}

// URL returns the stage location reference stored on chunk rows.
func (s *LocalStage) URL(fileName string) string {
	return fmt.Sprintf("@%s/%s", s.name, SafeName(fileName))
}

// SafeName maps a display file name onto a stage object name.
func SafeName(fileName string) string {
	base := filepath.Base(strings.TrimSpace(fileName))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.ReplaceAll(base, " ", "_")
}
