// Package runlog persists the durable JSON record of each completed crawl,
// consumed later by the verification engine.
package runlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	errs "pindl/pkg/errors"
	"pindl/pkg/models"
	"pindl/pkg/storage"
)

// FileName builds the log name for a folder: folder_<sanitized>_<unix-ms>.json.
func FileName(folderName string) string {
	return fmt.Sprintf("folder_%s_%d.json", storage.SanitizeFolderName(folderName), time.Now().UnixMilli())
}

// Write serializes the full folder tree into the log directory and returns
// the written path.
func Write(dir string, folder *models.FolderRecord) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errs.New(errs.ErrorTypeUnknown, "failed to create log directory: %v", err)
	}

	data, err := json.MarshalIndent(folder, "", "  ")
	if err != nil {
		return "", errs.New(errs.ErrorTypeUnknown, "failed to serialize run log: %v", err)
	}

	path := filepath.Join(dir, FileName(folder.Name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errs.New(errs.ErrorTypeUnknown, "failed to write run log: %v", err)
	}
	return path, nil
}

// ReadAll loads every run log whose filename references folderName and
// concatenates their top-level pin lists.
func ReadAll(dir, folderName string) ([]models.PinRecord, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeUnknown, "failed to read log directory %s: %v", dir, err)
	}

	var pins []models.PinRecord
	for _, entry := range entries {
		if entry.IsDir() || !strings.Contains(entry.Name(), folderName) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, errs.New(errs.ErrorTypeUnknown, "failed to read run log %s: %v", entry.Name(), err)
		}
		var folder models.FolderRecord
		if err := json.Unmarshal(data, &folder); err != nil {
			return nil, errs.New(errs.ErrorTypeParsing, "failed to parse run log %s: %v", entry.Name(), err)
		}
		pins = append(pins, folder.Pins...)
	}
	return pins, nil
}
