package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	errs "pindl/pkg/errors"
	"pindl/pkg/logger"
)

var (
	nonWordPattern    = regexp.MustCompile(`[^\d\s\w\-]`)
	whitespacePattern = regexp.MustCompile(`\s`)
	dashRunPattern    = regexp.MustCompile(`-{2,}`)
)

// Manager handles all writes under the output directory.
type Manager struct {
	baseDir string
	logger  logger.Logger
}

func NewManager(baseDir string, log logger.Logger) *Manager {
	return &Manager{
		baseDir: baseDir,
		logger:  log.WithField("component", "storage"),
	}
}

// BaseDir returns the root output directory.
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// EnsureDir creates a directory and its parents if missing.
func (m *Manager) EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return errs.New(errs.ErrorTypeUnknown, "failed to create directory %s: %v", path, err)
	}
	return nil
}

// NextAvailablePath returns the first collision-free path for base.ext in
// dir, appending " (n)" with increasing n when the name is taken. Every
// download strategy goes through this before writing.
func (m *Manager) NextAvailablePath(dir, base, ext string) string {
	candidate := filepath.Join(dir, base+"."+ext)
	for n := 0; fileExists(candidate); n++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d).%s", base, n, ext))
	}
	return candidate
}

// SaveFile writes data to path atomically via a temp file rename.
func (m *Manager) SaveFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errs.New(errs.ErrorTypeUnknown, "failed to write %s: %v", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errs.New(errs.ErrorTypeUnknown, "failed to move %s into place: %v", tmp, err)
	}

	m.logger.DebugWithFields("file saved", map[string]interface{}{
		"path": path,
		"size": len(data),
	})
	return nil
}

// WriteSidecar stores caption text next to a media file as <file>.log.
func (m *Manager) WriteSidecar(mediaPath, text string) error {
	return os.WriteFile(mediaPath+".log", []byte(text), 0o644)
}

// ListFiles returns the file names directly inside dir.
func (m *Manager) ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// SanitizeFolderName folds a folder title into a safe directory name:
// accents stripped, anything outside word characters removed, whitespace
// dashed, dash runs collapsed, lower-cased.
func SanitizeFolderName(name string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(name) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	s := nonWordPattern.ReplaceAllString(b.String(), "")
	s = whitespacePattern.ReplaceAllString(s, "-")
	s = dashRunPattern.ReplaceAllString(s, "-")
	return strings.ToLower(s)
}

// BaseName derives a filename stem from a media URL: the last path segment
// stripped of its extension. URLs without a dotted segment fall back to the
// pin id.
func BaseName(mediaURL, fallback string) string {
	seg := mediaURL
	if i := strings.LastIndex(seg, "/"); i != -1 {
		seg = seg[i+1:]
	}
	dot := strings.LastIndex(seg, ".")
	if dot <= 0 {
		return fallback
	}
	return seg[:dot]
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
