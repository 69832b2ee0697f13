package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pindl/pkg/storage"
	"pindl/pkg/ui"
	"pindl/pkg/verify"
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <folder>",
	Short: "Check a downloaded folder against its run logs",
	Long: `Read every run log referencing the folder, deduplicate the pins they
declare and compare them against the files actually present in the output
directory. Read-only; nothing is downloaded or modified.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(nil)
	if err != nil {
		return err
	}

	store := storage.NewManager(cfg.Output.BaseDirectory, log)
	v := verify.New(store, cfg.Output.LogDirectory)

	report, err := v.VerifyFolder(args[0])
	if err != nil {
		ui.PrintError("Verification failed", err.Error())
		return err
	}

	ui.PrintDim(fmt.Sprintf("Based on the run logs for %q, you should have at least %d pins", report.Folder, report.Expected))
	if report.Actual < report.Expected {
		ui.PrintError(fmt.Sprintf("You have %d pins downloaded", report.Actual))
	} else {
		ui.PrintSuccess(fmt.Sprintf("You have %d pins downloaded", report.Actual))
	}

	for _, miss := range report.Missing {
		ui.PrintError(fmt.Sprintf("Pin not found in your folder:\n - media.src: %s\n - url: %s", miss.Src, miss.URL))
	}
	if report.OK() {
		ui.PrintSuccess("All pins verified")
	}
	return nil
}
