package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pindl/pkg/logger"
)

func newTestManager(t *testing.T) *Manager {
	return NewManager(t.TempDir(), logger.NewTestLogger())
}

func TestSanitizeFolderName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Recipes", "recipes"},
		{"Café Déco", "cafe-deco"},
		{"mid-century  modern!", "mid-century-modern"},
		{"a / b: c?", "a-b-c"},
		{"--already--dashed--", "-already-dashed-"},
		{"日本ial", "ial"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SanitizeFolderName(tc.in), tc.in)
	}
}

func TestBaseName(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://i.pinimg.com/originals/aa/bb/photo.jpg", "photo"},
		{"https://v.pinimg.com/videos/mc/hls/run.m3u8", "run"},
		{"https://host/path/archive.tar.gz", "archive.tar"},
		{"https://host/path/noext", "pin42"},
		{"https://host/path/.hidden", "pin42"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, BaseName(tc.url, "pin42"), tc.url)
	}
}

func TestNextAvailablePath(t *testing.T) {
	m := newTestManager(t)
	dir := m.BaseDir()

	first := m.NextAvailablePath(dir, "clip", "mp4")
	assert.Equal(t, filepath.Join(dir, "clip.mp4"), first)
	require.NoError(t, m.SaveFile(first, []byte("a")))

	second := m.NextAvailablePath(dir, "clip", "mp4")
	assert.Equal(t, filepath.Join(dir, "clip (0).mp4"), second)
	require.NoError(t, m.SaveFile(second, []byte("b")))

	third := m.NextAvailablePath(dir, "clip", "mp4")
	assert.Equal(t, filepath.Join(dir, "clip (1).mp4"), third)
}

func TestSaveFileLeavesNoTempBehind(t *testing.T) {
	m := newTestManager(t)
	path := filepath.Join(m.BaseDir(), "photo.jpg")

	require.NoError(t, m.SaveFile(path, []byte("payload")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestWriteSidecar(t *testing.T) {
	m := newTestManager(t)
	media := filepath.Join(m.BaseDir(), "photo.jpg")
	require.NoError(t, m.WriteSidecar(media, "a caption"))

	data, err := os.ReadFile(media + ".log")
	require.NoError(t, err)
	assert.Equal(t, "a caption", string(data))
}

func TestListFilesSkipsDirectories(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.EnsureDir(filepath.Join(m.BaseDir(), "sub")))
	require.NoError(t, m.SaveFile(filepath.Join(m.BaseDir(), "a.jpg"), []byte("a")))
	require.NoError(t, m.SaveFile(filepath.Join(m.BaseDir(), "b.mp4"), []byte("b")))

	files, err := m.ListFiles(m.BaseDir())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.jpg", "b.mp4"}, files)
}
