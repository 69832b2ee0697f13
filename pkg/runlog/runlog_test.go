package runlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pindl/pkg/models"
)

func sampleFolder() *models.FolderRecord {
	return &models.FolderRecord{
		Name: "Mid Century",
		Pins: []models.PinRecord{
			{
				ID:   "p1",
				Type: models.TypePin,
				URL:  "https://pinterest.com/pin/p1/",
				Media: models.Media{
					Type:      models.MediaImage,
					Src:       "https://i.pinimg.com/originals/aa/photo.jpg",
					Extension: "jpg",
				},
			},
			{
				ID:   "c1",
				Type: models.TypeCarouselPin,
				URL:  "https://pinterest.com/pin/c1/",
				Media: models.Media{
					StoryImages: []string{"https://i.pinimg.com/originals/s1.jpg"},
				},
			},
		},
		Subfolders: []models.FolderRecord{{
			Name: "Chairs",
			Pins: []models.PinRecord{{ID: "sub1", Type: models.TypePin}},
		}},
	}
}

func TestWriteAndReadAll(t *testing.T) {
	dir := t.TempDir()

	path, err := Write(dir, sampleFolder())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "folder_mid-century_"))
	assert.True(t, strings.HasSuffix(path, ".json"))

	pins, err := ReadAll(dir, "mid-century")
	require.NoError(t, err)
	require.Len(t, pins, 2, "only top-level pins; subfolders keep their own logs")

	assert.Equal(t, "p1", pins[0].ID)
	assert.Equal(t, models.TypePin, pins[0].Type)
	assert.Equal(t, "https://i.pinimg.com/originals/aa/photo.jpg", pins[0].Media.Src)
	assert.Equal(t, models.MediaImage, pins[0].Media.Type)
	assert.Equal(t, models.TypeCarouselPin, pins[1].Type)
	assert.Equal(t, []string{"https://i.pinimg.com/originals/s1.jpg"}, pins[1].Media.StoryImages)
}

func TestReadAllConcatenatesRuns(t *testing.T) {
	dir := t.TempDir()

	first := &models.FolderRecord{Name: "board", Pins: []models.PinRecord{{ID: "a"}}}
	second := &models.FolderRecord{Name: "board", Pins: []models.PinRecord{{ID: "b"}}}
	_, err := Write(dir, first)
	require.NoError(t, err)
	// filenames are stamped with millisecond precision
	time.Sleep(2 * time.Millisecond)
	_, err = Write(dir, second)
	require.NoError(t, err)

	pins, err := ReadAll(dir, "board")
	require.NoError(t, err)
	assert.Len(t, pins, 2)
}

func TestReadAllFiltersByFolderName(t *testing.T) {
	dir := t.TempDir()

	_, err := Write(dir, &models.FolderRecord{Name: "recipes", Pins: []models.PinRecord{{ID: "r1"}}})
	require.NoError(t, err)
	_, err = Write(dir, &models.FolderRecord{Name: "travel", Pins: []models.PinRecord{{ID: "t1"}}})
	require.NoError(t, err)

	pins, err := ReadAll(dir, "recipes")
	require.NoError(t, err)
	require.Len(t, pins, 1)
	assert.Equal(t, "r1", pins[0].ID)
}

func TestReadAllRejectsCorruptLog(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "folder_board_1.json"), []byte("{nope"), 0o644))

	_, err := ReadAll(dir, "board")
	assert.Error(t, err)
}
