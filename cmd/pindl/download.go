package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pindl/pkg/auth"
	"pindl/pkg/config"
	"pindl/pkg/crawler"
	"pindl/pkg/downloader"
	"pindl/pkg/pinterest"
	"pindl/pkg/resolver"
	"pindl/pkg/runlog"
	"pindl/pkg/session"
	"pindl/pkg/storage"
	"pindl/pkg/ui"
)

var (
	// Download command flags
	limit          int
	outputDir      string
	deleteAfter    bool
	ignoreImages   bool
	ignoreVideos   bool
	ignoreMetadata bool
	recursive      bool
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download <url>",
	Short: "Download pins from a board or user URL",
	Long: `Crawl a Pinterest board, resolve every pin to a downloadable media
reference and save the files under the output directory. A JSON run log of
the crawl is written alongside for later verification.

Requires a stored session; run 'pindl login' first.`,
	Example: `  # Download up to 100 pins from a board
  pindl download https://pinterest.com/someuser/someboard

  # Download 20 pins, including subfolders, skipping videos
  pindl download someuser/someboard -l 20 -r -v`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().IntVarP(&limit, "limit", "l", 0, "how many pins to download (default 100)")
	downloadCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for downloads")
	downloadCmd.Flags().BoolVarP(&deleteAfter, "delete-after", "D", false, "delete each pin from the board after download (must own the board)")
	downloadCmd.Flags().BoolVarP(&ignoreImages, "ignore-images", "i", false, "do not download images")
	downloadCmd.Flags().BoolVarP(&ignoreVideos, "ignore-videos", "v", false, "do not download videos")
	downloadCmd.Flags().BoolVarP(&ignoreMetadata, "ignore-metadata", "m", false, "do not write caption sidecar files")
	downloadCmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "download subfolders if any")
}

func runDownload(cmd *cobra.Command, args []string) error {
	flags := map[string]interface{}{
		"output":          outputDir,
		"delete-after":    deleteAfter,
		"ignore-images":   ignoreImages,
		"ignore-videos":   ignoreVideos,
		"ignore-metadata": ignoreMetadata,
		"recursive":       recursive,
	}
	// An explicit -l 0 is a real request for an empty crawl, so the flag
	// only participates when the user actually set it.
	if cmd.Flags().Changed("limit") {
		flags["limit"] = limit
	}

	cfg, log, err := loadConfig(flags)
	if err != nil {
		return err
	}

	cookies, err := loadSession(cfg)
	if err != nil {
		ui.PrintError("You're not logged in", "run 'pindl login' first")
		return err
	}

	if cfg.Download.DeleteAfter {
		ui.PrintWarning("Delete-after is on", "each downloaded pin will be removed from the board")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	boardURL := pinterest.NormalizeBoardURL(cfg.Pinterest.BaseURL, args[0])
	ui.PrintInfo("Target board", boardURL)

	sess, err := session.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.SetCookies(cookies); err != nil {
		return fmt.Errorf("failed to install session cookies: %w", err)
	}

	client := pinterest.NewClient(cfg, cookies, log)
	res := resolver.New(sess, client, log)
	cr := crawler.New(sess, res, cfg.Pinterest.BaseURL, log)

	folder, err := cr.CrawlFolder(ctx, boardURL, crawler.Options{
		Limit:     cfg.Download.Limit,
		Recursive: cfg.Download.Recursive,
	})
	if err != nil {
		ui.PrintError("Crawl failed", err.Error())
		return err
	}

	ui.PrintInfo("Folder", folder.Name)
	ui.PrintInfo("Pins found", fmt.Sprintf("%d", len(folder.Pins)))

	logPath, err := runlog.Write(cfg.Output.LogDirectory, folder)
	if err != nil {
		return err
	}
	ui.PrintDim("Run log written to " + logPath)

	store := storage.NewManager(cfg.Output.BaseDirectory, log)
	ffmpeg := downloader.NewFFmpeg(cfg.Download.FFmpegPath, cfg.Download.TranscodeTimeout, log)
	dl := downloader.New(client, client, store, ffmpeg, downloader.Options{
		IgnoreImages:   cfg.Download.IgnoreImages,
		IgnoreVideos:   cfg.Download.IgnoreVideos,
		IgnoreMetadata: cfg.Download.IgnoreMetadata,
		DeleteAfter:    cfg.Download.DeleteAfter,
		PinDelay:       cfg.Download.PinDelay,
	}, log)

	if err := dl.SaveFolder(ctx, folder, cfg.Output.BaseDirectory); err != nil {
		ui.PrintError("Download failed", err.Error())
		return err
	}

	ui.PrintSuccess("Download completed")
	return nil
}

// loadSession loads and validates the stored cookie set.
func loadSession(cfg *config.Config) (auth.CookieSet, error) {
	store, err := auth.NewStore(auth.DefaultStorePath(cfg.Pinterest.CookieFile))
	if err != nil {
		return nil, err
	}
	cookies, err := store.Load()
	if err != nil {
		return nil, err
	}
	if err := cookies.Valid(); err != nil {
		return nil, err
	}
	return cookies, nil
}
