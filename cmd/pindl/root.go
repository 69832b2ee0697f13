package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"pindl/pkg/config"
	"pindl/pkg/logger"
	"pindl/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pindl",
	Short: "Download pins, carousels and videos from Pinterest boards",
	Long: `pindl crawls a Pinterest board, resolves every pin to a downloadable
media reference and saves it to disk.

Features:
  - Scroll collection with a configurable pin limit
  - Carousel/story pins, videos (HLS remux via ffmpeg) and gifs
  - Recovery of pins whose source content was deleted
  - Recursive board crawling with per-subfolder budgets
  - Run logs with an offline verification pass
  - Secure session storage using the system keychain`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.Quiet = quiet
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .pindl.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress terminal output")

	rootCmd.SetVersionTemplate(`pindl {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig builds the effective configuration for a command run and
// initializes the global logger from it.
func loadConfig(flags map[string]interface{}) (*config.Config, logger.Logger, error) {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, nil, err
	}
	return cfg, logger.GetLogger(), nil
}
