package verify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "pindl/pkg/errors"
	"pindl/pkg/logger"
	"pindl/pkg/models"
	"pindl/pkg/runlog"
	"pindl/pkg/storage"
)

func loggedPin(id, src string) models.PinRecord {
	return models.PinRecord{
		ID:    id,
		Type:  models.TypePin,
		URL:   "https://pinterest.com/pin/" + id + "/",
		Media: models.Media{Src: src},
	}
}

func writeRunLog(t *testing.T, logDir, folderName string, pins []models.PinRecord) {
	t.Helper()
	_, err := runlog.Write(logDir, &models.FolderRecord{Name: folderName, Pins: pins})
	require.NoError(t, err)
}

func touchFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
}

func newTestVerifier(t *testing.T) (*Verifier, string, string) {
	baseDir := t.TempDir()
	logDir := t.TempDir()
	store := storage.NewManager(baseDir, logger.NewTestLogger())
	return New(store, logDir), baseDir, logDir
}

func TestVerifyFolderAllPresent(t *testing.T) {
	v, baseDir, logDir := newTestVerifier(t)

	writeRunLog(t, logDir, "board", []models.PinRecord{
		loggedPin("p1", "https://i.pinimg.com/originals/photo.jpg"),
		loggedPin("p2", "https://v.pinimg.com/videos/run.m3u8"),
	})
	touchFiles(t, filepath.Join(baseDir, "board"), "photo.jpg", "run.mp4")

	report, err := v.VerifyFolder("board")
	require.NoError(t, err)

	assert.True(t, report.OK())
	assert.Equal(t, 2, report.Expected)
	assert.Equal(t, 2, report.Actual)
	assert.Empty(t, report.Missing)
}

func TestVerifyFolderReportsMissingPin(t *testing.T) {
	v, baseDir, logDir := newTestVerifier(t)

	writeRunLog(t, logDir, "board", []models.PinRecord{
		loggedPin("p1", "https://host/photo.jpg"),
		loggedPin("p2", "https://host/lost.jpg"),
	})
	touchFiles(t, filepath.Join(baseDir, "board"), "photo.jpg")

	report, err := v.VerifyFolder("board")
	require.NoError(t, err)

	assert.False(t, report.OK())
	assert.Equal(t, 2, report.Expected)
	assert.Equal(t, 1, report.Actual)
	require.Len(t, report.Missing, 1)
	assert.Equal(t, "p2", report.Missing[0].PinID)
	assert.Equal(t, "https://host/lost.jpg", report.Missing[0].Src)
	assert.Equal(t, "https://pinterest.com/pin/p2/", report.Missing[0].URL)
}

func TestVerifyFolderDedupesAcrossRuns(t *testing.T) {
	v, baseDir, logDir := newTestVerifier(t)

	pin := loggedPin("p1", "https://host/photo.jpg")
	writeRunLog(t, logDir, "board", []models.PinRecord{pin, pin, pin})
	touchFiles(t, filepath.Join(baseDir, "board"), "photo.jpg")

	report, err := v.VerifyFolder("board")
	require.NoError(t, err)

	assert.True(t, report.OK())
	assert.Equal(t, 1, report.Expected)
}

func TestVerifyFolderSkipsSourcelessPins(t *testing.T) {
	v, baseDir, logDir := newTestVerifier(t)

	writeRunLog(t, logDir, "board", []models.PinRecord{
		loggedPin("p1", "https://host/photo.jpg"),
		{ID: "f1", Type: models.TypeFolder, URL: "https://pinterest.com/user/sub/"},
	})
	touchFiles(t, filepath.Join(baseDir, "board"), "photo.jpg")

	report, err := v.VerifyFolder("board")
	require.NoError(t, err)

	assert.True(t, report.OK())
	assert.Equal(t, 1, report.Expected, "folders and sourceless pins never count")
}

func TestVerifyFolderMatchesCollisionSuffixes(t *testing.T) {
	v, baseDir, logDir := newTestVerifier(t)

	writeRunLog(t, logDir, "board", []models.PinRecord{
		loggedPin("p1", "https://a/photo.jpg"),
		loggedPin("p2", "https://b/photo.jpg"),
	})
	touchFiles(t, filepath.Join(baseDir, "board"), "photo.jpg", "photo (0).jpg")

	report, err := v.VerifyFolder("board")
	require.NoError(t, err)
	assert.True(t, report.OK())
}

func TestVerifyFolderMissingOutputDir(t *testing.T) {
	v, _, _ := newTestVerifier(t)

	_, err := v.VerifyFolder("never-downloaded")

	var apiErr *errs.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errs.ErrorTypeNotFound, apiErr.Type)
}
