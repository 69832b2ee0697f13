package downloader

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	errs "pindl/pkg/errors"
	"pindl/pkg/logger"
)

// FFmpeg invokes the external ffmpeg binary to remux HLS streams into a
// playable mp4 container.
type FFmpeg struct {
	binPath string
	timeout time.Duration
	logger  logger.Logger
}

func NewFFmpeg(binPath string, timeout time.Duration, log logger.Logger) *FFmpeg {
	return &FFmpeg{
		binPath: binPath,
		timeout: timeout,
		logger:  log.WithField("component", "ffmpeg"),
	}
}

// Remux pulls an m3u8 stream and copies its codecs into destPath. The
// invocation is bounded by the configured transcode timeout.
func (f *FFmpeg) Remux(ctx context.Context, streamURL, destPath string) error {
	runCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	args := []string{
		"-y",
		"-i", streamURL,
		"-bsf:a", "aac_adtstoasc",
		"-vcodec", "copy",
		"-c", "copy",
		"-crf", "50",
		destPath,
	}

	f.logger.DebugWithFields("remuxing stream", map[string]interface{}{
		"stream": streamURL,
		"dest":   destPath,
	})

	cmd := exec.CommandContext(runCtx, f.binPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return errs.New(errs.ErrorTypeUnknown, "ffmpeg remux failed: %v: %s", err, lastLine(&stderr))
	}
	return nil
}

// lastLine returns the final non-empty stderr line, which is where ffmpeg
// puts its actual error.
func lastLine(buf *bytes.Buffer) string {
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
