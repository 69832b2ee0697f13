// Package verify cross-checks run logs against the files actually present
// in the output directory. It is purely diagnostic: read-only, no network.
package verify

import (
	"path/filepath"
	"strings"

	errs "pindl/pkg/errors"
	"pindl/pkg/models"
	"pindl/pkg/runlog"
	"pindl/pkg/storage"
)

// Miss is one pin the logs promised but the output directory lacks.
type Miss struct {
	PinID string
	Src   string
	URL   string
}

// Report is the outcome of verifying one folder.
type Report struct {
	Folder   string
	Expected int
	Actual   int
	Missing  []Miss
}

// OK reports whether the folder holds at least everything the logs declared.
func (r *Report) OK() bool {
	return r.Actual >= r.Expected && len(r.Missing) == 0
}

// Verifier checks downloaded folders against their run logs.
type Verifier struct {
	store  *storage.Manager
	logDir string
}

func New(store *storage.Manager, logDir string) *Verifier {
	return &Verifier{store: store, logDir: logDir}
}

// VerifyFolder reads every run log referencing folderName, deduplicates the
// declared pins by media source, and checks each against the files on disk.
func (v *Verifier) VerifyFolder(folderName string) (*Report, error) {
	outDir := filepath.Join(v.store.BaseDir(), folderName)
	files, err := v.store.ListFiles(outDir)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeNotFound, "output folder %s not found: %v", folderName, err)
	}

	pins, err := runlog.ReadAll(v.logDir, folderName)
	if err != nil {
		return nil, err
	}

	// Multiple runs log the same pin more than once; the source URL is the
	// stable identity across them.
	seen := make(map[string]bool)
	var unique []models.PinRecord
	for _, pin := range pins {
		if pin.Media.Src == "" || seen[pin.Media.Src] {
			continue
		}
		seen[pin.Media.Src] = true
		unique = append(unique, pin)
	}

	report := &Report{
		Folder:   folderName,
		Expected: len(unique),
		Actual:   len(files),
	}

	for _, pin := range unique {
		base := storage.BaseName(pin.Media.Src, "")
		if base == "" {
			continue
		}
		if !anyContains(files, base) {
			report.Missing = append(report.Missing, Miss{
				PinID: pin.ID,
				Src:   pin.Media.Src,
				URL:   pin.URL,
			})
		}
	}

	return report, nil
}

func anyContains(files []string, substr string) bool {
	for _, f := range files {
		if strings.Contains(f, substr) {
			return true
		}
	}
	return false
}
