package downloader

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"pindl/pkg/logger"
	"pindl/pkg/models"
	"pindl/pkg/resolver"
	"pindl/pkg/storage"
)

// Fetcher downloads raw media bytes.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Deleter removes a pin from its origin board after a successful download.
type Deleter interface {
	DeletePin(ctx context.Context, pinID string) error
}

// Options control one download run.
type Options struct {
	IgnoreImages   bool
	IgnoreVideos   bool
	IgnoreMetadata bool
	DeleteAfter    bool
	PinDelay       time.Duration
}

// Downloader walks a finalized folder record and persists its media to disk.
// The record is read-only input; subfolders become nested directories.
type Downloader struct {
	fetcher Fetcher
	deleter Deleter
	store   *storage.Manager
	ffmpeg  *FFmpeg
	opts    Options
	logger  logger.Logger
}

func New(fetcher Fetcher, deleter Deleter, store *storage.Manager, ffmpeg *FFmpeg, opts Options, log logger.Logger) *Downloader {
	return &Downloader{
		fetcher: fetcher,
		deleter: deleter,
		store:   store,
		ffmpeg:  ffmpeg,
		opts:    opts,
		logger:  log.WithField("component", "downloader"),
	}
}

// SaveFolder writes every pin of the folder under dir, then recurses into
// subfolders. A failed pin is logged and skipped; it never aborts the folder.
func (d *Downloader) SaveFolder(ctx context.Context, folder *models.FolderRecord, dir string) error {
	dest := filepath.Join(dir, storage.SanitizeFolderName(folder.Name))
	if err := d.store.EnsureDir(dest); err != nil {
		return err
	}

	d.logger.InfoWithFields("downloading folder", map[string]interface{}{
		"folder": folder.Name,
		"pins":   len(folder.Pins),
		"dest":   dest,
	})

	for _, pin := range folder.Pins {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.skip(pin) {
			continue
		}

		savedPath, err := d.downloadPin(ctx, pin, dest)
		if err != nil {
			d.logger.WithError(err).WarnWithFields("pin download failed", map[string]interface{}{
				"pin_id": pin.ID,
				"url":    pin.URL,
			})
			continue
		}

		if pin.Text != "" && !d.opts.IgnoreMetadata {
			if err := d.store.WriteSidecar(savedPath, pin.Text); err != nil {
				d.logger.WithError(err).Warn("failed to write caption sidecar")
			}
		}

		if d.opts.DeleteAfter {
			// Best effort; a failed remote delete never blocks the run.
			if err := d.deleter.DeletePin(ctx, pin.ID); err != nil {
				d.logger.WithError(err).WarnWithFields("remote delete failed", map[string]interface{}{
					"pin_id": pin.ID,
				})
			}
		}

		if d.opts.PinDelay > 0 {
			select {
			case <-time.After(d.opts.PinDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	for i := range folder.Subfolders {
		if err := d.SaveFolder(ctx, &folder.Subfolders[i], dest); err != nil {
			return err
		}
	}
	return nil
}

// skip applies the media type filters. Pins that never resolved to anything
// downloadable are skipped too.
func (d *Downloader) skip(pin models.PinRecord) bool {
	if pin.Type == models.TypeFolder || pin.Type == models.TypeDeletedPin {
		return true
	}
	if pin.Media.Src == "" && len(pin.Media.StoryImages) == 0 {
		return true
	}
	isImage := pin.Media.Type == models.MediaImage || len(pin.Media.StoryImages) > 0
	if d.opts.IgnoreImages && isImage {
		return true
	}
	if d.opts.IgnoreVideos && pin.Media.Type == models.MediaVideo {
		return true
	}
	return false
}

// downloadPin dispatches on media shape and returns the path of the written
// file. Carousels return the path of their last image.
func (d *Downloader) downloadPin(ctx context.Context, pin models.PinRecord, dest string) (string, error) {
	if len(pin.Media.StoryImages) > 0 {
		return d.downloadCarousel(ctx, pin, dest)
	}

	switch pin.Media.Extension {
	case "m3u8":
		return d.downloadStream(ctx, pin, dest)
	default:
		return d.downloadDirect(ctx, pin, dest)
	}
}

// downloadCarousel writes each story image under the synthetic id
// "<pinId>-<index>". A single failed image corrupts the set, so it aborts
// the whole carousel.
func (d *Downloader) downloadCarousel(ctx context.Context, pin models.PinRecord, dest string) (string, error) {
	var savedPath string
	for i, imageURL := range pin.Media.StoryImages {
		ext := resolver.Extension(imageURL)
		if ext == "" {
			ext = "jpg"
		}
		data, err := d.fetcher.Fetch(ctx, imageURL)
		if err != nil {
			return "", fmt.Errorf("carousel image %d of pin %s: %w", i, pin.ID, err)
		}
		path := d.store.NextAvailablePath(dest, fmt.Sprintf("%s-%d", pin.ID, i), ext)
		if err := d.store.SaveFile(path, data); err != nil {
			return "", fmt.Errorf("carousel image %d of pin %s: %w", i, pin.ID, err)
		}
		savedPath = path
	}
	return savedPath, nil
}

// downloadStream remuxes an HLS stream into an mp4 next to the other media.
func (d *Downloader) downloadStream(ctx context.Context, pin models.PinRecord, dest string) (string, error) {
	base := storage.BaseName(pin.Media.Src, pin.ID)
	path := d.store.NextAvailablePath(dest, base, "mp4")
	if err := d.ffmpeg.Remux(ctx, pin.Media.Src, path); err != nil {
		return "", err
	}
	return path, nil
}

// downloadDirect fetches the media bytes and writes them as-is.
func (d *Downloader) downloadDirect(ctx context.Context, pin models.PinRecord, dest string) (string, error) {
	data, err := d.fetcher.Fetch(ctx, pin.Media.Src)
	if err != nil {
		return "", err
	}
	base := storage.BaseName(pin.Media.Src, pin.ID)
	path := d.store.NextAvailablePath(dest, base, pin.Media.Extension)
	if err := d.store.SaveFile(path, data); err != nil {
		return "", err
	}
	return path, nil
}
