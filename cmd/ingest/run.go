package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <dir>",
	Short: "Ingest every matching PDF under a folder once",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		container, rows, err := setup()
		if err != nil {
			return err
		}
		defer container.Shutdown()

		fmt.Printf("Matching %s against %d spreadsheet rows\n", args[0], len(rows))

		report, err := container.Ingestor.IngestDir(cmd.Context(), args[0], rows)
		if err != nil {
			return err
		}

		color.Green("ingested: %d", report.Ingested)
		color.Yellow("skipped:  %d", report.Skipped)
		if report.Failed > 0 {
			color.Red("failed:   %d", report.Failed)
			for _, msg := range report.Errors {
				color.Red("  %s", msg)
			}
			return fmt.Errorf("%d file(s) failed", report.Failed)
		}
		return nil
	},
}
