package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"docgraph/application/services"
	"docgraph/infrastructure/config"
	"docgraph/infrastructure/di"
)

var (
	sheetPath string
	workers   int
)

var rootCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Batch-load PDF files into the document collection",
	Long: `ingest matches PDF file names against the rows of a catalog
spreadsheet (CSV export) and creates one document per match: the file is
uploaded to blob storage and the row's metadata, venue and keywords
become the document record.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&sheetPath, "sheet", "s", "", "path to the catalog spreadsheet CSV (required)")
	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "w", 0, "parallel uploads (default from INGEST_WORKERS)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
}

// setup wires the shared dependencies and loads the spreadsheet
func setup() (*di.Container, []services.SpreadsheetRow, error) {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if workers > 0 {
		cfg.IngestWorkers = workers
	}

	container, err := di.InitializeContainer(cfg)
	if err != nil {
		return nil, nil, err
	}

	if sheetPath == "" {
		return nil, nil, fmt.Errorf("--sheet is required")
	}
	sheet, err := os.Open(sheetPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer sheet.Close()

	rows, err := services.ParseSpreadsheet(sheet)
	if err != nil {
		return nil, nil, err
	}
	return container, rows, nil
}
