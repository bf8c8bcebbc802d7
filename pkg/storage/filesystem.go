package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Downloads persists fetched files (CSV exports, report PDFs) on disk under
// a base directory, standing in for the browser's download folder.
type Downloads struct {
	baseDir string
}

// NewDownloads ensures the base directory exists and returns a handle.
func NewDownloads(baseDir string) (*Downloads, error) {
	if baseDir == "" {
		baseDir = "./downloads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create downloads directory: %w", err)
	}
	return &Downloads{baseDir: baseDir}, nil
}

// Save writes data under the base directory and returns the absolute path.
// The filename falls back to a timestamped default when the server did not
// suggest one.
func (d *Downloads) Save(filename, fallbackPrefix, fallbackExt string, data []byte) (string, error) {
	name := sanitize(filename)
	if name == "" {
		name = fmt.Sprintf("%s-%s%s", fallbackPrefix, time.Now().Format("2006-01-02"), fallbackExt)
	}
	path := filepath.Join(d.baseDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write download: %w", err)
	}
	return path, nil
}

// SaveStream copies from reader into a file under the base directory.
func (d *Downloads) SaveStream(filename string, r io.Reader) (string, error) {
	name := sanitize(filename)
	if name == "" {
		return "", fmt.Errorf("filename required")
	}
	path := filepath.Join(d.baseDir, name)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create download: %w", err)
	}
	defer file.Close() //nolint:errcheck
	if _, err := io.Copy(file, r); err != nil {
		return "", fmt.Errorf("write download stream: %w", err)
	}
	return path, nil
}

// Dir returns the base directory.
func (d *Downloads) Dir() string {
	return d.baseDir
}

// sanitize strips any path components a hostile Content-Disposition header
// could smuggle in.
func sanitize(filename string) string {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	return name
}
