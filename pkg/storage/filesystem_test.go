package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSaveUsesServerFilename(t *testing.T) {
	downloads, err := NewDownloads(t.TempDir())
	require.NoError(t, err)

	path, err := downloads.Save("clients.csv", "clients-export", ".csv", []byte("id,name\n"))
	require.NoError(t, err)
	require.Equal(t, "clients.csv", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "id,name\n", string(data))
}

func TestSaveFallsBackToTimestampedName(t *testing.T) {
	downloads, err := NewDownloads(t.TempDir())
	require.NoError(t, err)

	path, err := downloads.Save("", "clients-export", ".csv", []byte("x"))
	require.NoError(t, err)

	name := filepath.Base(path)
	require.True(t, strings.HasPrefix(name, "clients-export-"))
	require.True(t, strings.HasSuffix(name, ".csv"))
	require.Contains(t, name, time.Now().Format("2006"))
}

func TestSaveStripsPathComponents(t *testing.T) {
	dir := t.TempDir()
	downloads, err := NewDownloads(dir)
	require.NoError(t, err)

	path, err := downloads.Save("../../etc/passwd", "fallback", ".txt", []byte("x"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "passwd"), path)
}

func TestSaveStream(t *testing.T) {
	downloads, err := NewDownloads(t.TempDir())
	require.NoError(t, err)

	path, err := downloads.SaveStream("report.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4", string(data))

	_, err = downloads.SaveStream("", strings.NewReader("x"))
	require.Error(t, err)
}
